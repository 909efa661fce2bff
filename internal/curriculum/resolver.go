package curriculum

import (
	"fmt"
	"sort"

	"github.com/prepbank/backend/internal/models"
)

// ConfigError reports a missing curriculum or quota entry. It is fatal for
// the affected section only; other sections keep planning.
type ConfigError struct {
	TestType    models.TestType
	SectionName string
	Missing     string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("curriculum config: no %s entry for %s/%s", e.Missing, e.TestType, e.SectionName)
}

// Resolver turns static curriculum tables into normalized SectionConfigs
// and per-mode quota tables.
type Resolver struct {
	tables Tables
}

func NewResolver() *Resolver {
	return &Resolver{tables: BuiltinTables()}
}

// NewResolverWithTables lets tests supply their own curriculum data.
func NewResolverWithTables(tables Tables) *Resolver {
	return &Resolver{tables: tables}
}

// Resolve builds the immutable SectionConfig for one (testType, sectionName).
func (r *Resolver) Resolve(testType models.TestType, sectionName string) (*models.SectionConfig, error) {
	byName, ok := r.tables.Sections[testType]
	if !ok {
		return nil, &ConfigError{TestType: testType, SectionName: sectionName, Missing: "test type"}
	}
	spec, ok := byName[sectionName]
	if !ok {
		return nil, &ConfigError{TestType: testType, SectionName: sectionName, Missing: "section"}
	}

	cfg := &models.SectionConfig{
		TestType:         testType,
		SectionName:      sectionName,
		RequiresPassages: spec.PassageCount > 0,
		TotalQuestions:   spec.QuestionCount,
		TotalPassages:    spec.PassageCount,
		WordsPerPassage:  spec.WordsPerPassage,
		Kind:             ClassifySection(sectionName),
	}
	if cfg.RequiresPassages {
		cfg.QuestionsPerPassage = ceilDiv(spec.QuestionCount, spec.PassageCount)
	}

	if skills, ok := r.tables.SubSkills[testType][sectionName]; ok {
		cfg.SubSkills = append([]string(nil), skills...)
	}

	return cfg, nil
}

// Quotas returns the per-mode quota table for a section. A missing table is
// a fatal configuration error: without a cap, generation cannot run safely.
func (r *Resolver) Quotas(testType models.TestType, sectionName string) (models.QuotaTable, error) {
	bySection, ok := r.tables.Quotas[testType]
	if !ok {
		return nil, &ConfigError{TestType: testType, SectionName: sectionName, Missing: "quota table"}
	}
	quotas, ok := bySection[sectionName]
	if !ok {
		return nil, &ConfigError{TestType: testType, SectionName: sectionName, Missing: "quota table"}
	}
	return quotas, nil
}

// SectionNames lists the configured sections for a test type, sorted for
// stable iteration.
func (r *Resolver) SectionNames(testType models.TestType) ([]string, error) {
	byName, ok := r.tables.Sections[testType]
	if !ok {
		return nil, &ConfigError{TestType: testType, Missing: "test type"}
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
