package models

// ── Request Types ─────────────────────────────────────

type RunGapFillRequest struct {
	TestType    TestType   `json:"test_type"`
	SectionName string     `json:"section_name"`
	TestModes   []TestMode `json:"test_modes,omitempty"` // empty = all modes
	PlanOnly    bool       `json:"plan_only,omitempty"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ── Response Types ────────────────────────────────────

type RunGapFillResponse struct {
	Summary *RunSummary     `json:"summary,omitempty"`
	Plan    *GenerationPlan `json:"plan,omitempty"`
	Message string          `json:"message"`
}

type InventoryResponse struct {
	TestType    TestType                   `json:"test_type"`
	SectionName string                     `json:"section_name"`
	Quotas      QuotaTable                 `json:"quotas"`
	ByMode      map[TestMode]ModeInventory `json:"by_mode"`
}

type ModeInventory struct {
	Quota      int            `json:"quota"`
	Existing   int            `json:"existing"`
	Deficit    int            `json:"deficit"`
	BySubSkill map[string]int `json:"by_sub_skill,omitempty"`
}

type RunListResponse struct {
	Runs  []RunSummary `json:"runs"`
	Total int          `json:"total"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
