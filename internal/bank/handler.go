package bank

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prepbank/backend/internal/curriculum"
	"github.com/prepbank/backend/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

var validTestTypes = map[models.TestType]bool{
	models.TestSAT: true,
	models.TestACT: true,
}

// RunGapFill starts a gap-fill run (or returns the plan with plan_only).
func (h *Handler) RunGapFill(w http.ResponseWriter, r *http.Request) {
	var req models.RunGapFillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if !validTestTypes[req.TestType] {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "test_type must be 'sat' or 'act'"})
		return
	}
	if req.SectionName == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "section_name is required"})
		return
	}
	for _, m := range req.TestModes {
		if !models.ValidTestModes[m] {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "invalid test mode: " + string(m)})
			return
		}
	}

	resp, err := h.service.RunGapFill(r.Context(), req)
	if err != nil {
		var cfgErr *curriculum.ConfigError
		switch {
		case errors.As(err, &cfgErr):
			writeJSON(w, http.StatusUnprocessableEntity, models.ErrorResponse{Error: cfgErr.Error()})
		case errors.Is(err, ErrRunInProgress):
			writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Run failed: " + err.Error()})
		}
		return
	}

	status := http.StatusCreated
	if req.PlanOnly {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

// ListRuns returns recent runs, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := intQueryParam(query, "limit", 20)
	offset := intQueryParam(query, "offset", 0)

	resp, err := h.service.Runs(r.Context(), limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list runs"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetRun returns one run by id.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["runID"]
	run, err := h.service.Run(r.Context(), runID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Run not found"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// GetInventory reports stock-vs-quota for one section.
func (h *Handler) GetInventory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	testType := models.TestType(query.Get("test_type"))
	sectionName := query.Get("section_name")

	if !validTestTypes[testType] {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "test_type must be 'sat' or 'act'"})
		return
	}
	if sectionName == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "section_name is required"})
		return
	}

	resp, err := h.service.Inventory(r.Context(), testType, sectionName)
	if err != nil {
		var cfgErr *curriculum.ConfigError
		if errors.As(err, &cfgErr) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: cfgErr.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load inventory"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetCurriculum returns every resolved section config for a test type.
func (h *Handler) GetCurriculum(w http.ResponseWriter, r *http.Request) {
	testType := models.TestType(mux.Vars(r)["testType"])
	if !validTestTypes[testType] {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "test_type must be 'sat' or 'act'"})
		return
	}

	configs, err := h.service.Sections(testType)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to resolve curriculum"})
		return
	}
	writeJSON(w, http.StatusOK, configs)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func intQueryParam(query url.Values, key string, defaultVal int) int {
	s := query.Get(key)
	if s == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return n
}
