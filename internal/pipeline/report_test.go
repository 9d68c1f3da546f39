package pipeline

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/marketforge/marketforge/pkg/models"
)

func rawResult(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}

func TestBuildAggregateReport(t *testing.T) {
	order := []string{"keyword_research", "financial_projections", "never_ran"}
	sess := &models.Session{
		ID:    "session_x",
		Input: models.AnalysisInput{Niche: "organic coffee"},
		Results: map[string]json.RawMessage{
			"keyword_research": rawResult(t, map[string]any{"total_keywords": 10}),
			"financial_projections": rawResult(t, map[string]any{
				"viability_analysis": map[string]any{"viability": "high", "break_even": "8 months"},
			}),
		},
		Errors: []models.SessionError{
			{Timestamp: time.Now(), Module: "never_ran", Message: "boom"},
		},
	}

	report := BuildAggregateReport(sess, order)

	if len(report.ModuleResults) != 2 {
		t.Errorf("sections = %d, want 2", len(report.ModuleResults))
	}
	if len(report.MissingModules) != 1 || report.MissingModules[0] != "never_ran" {
		t.Errorf("missing = %v", report.MissingModules)
	}
	if report.KeyMetrics["viability"] != "high" {
		t.Errorf("key metrics = %v", report.KeyMetrics)
	}
	if got := report.KeyMetrics["total_keywords"]; got != float64(10) {
		t.Errorf("total_keywords = %v (%T)", got, got)
	}
	if !strings.Contains(report.ExecutiveSummary, "organic coffee") {
		t.Errorf("summary does not name the niche: %q", report.ExecutiveSummary)
	}
	if !strings.Contains(report.ExecutiveSummary, "1 generation error") {
		t.Errorf("summary does not mention recorded errors: %q", report.ExecutiveSummary)
	}
}

func TestBuildAggregateReportSkipsCorruptResult(t *testing.T) {
	sess := &models.Session{
		ID: "session_y",
		Results: map[string]json.RawMessage{
			"keyword_research": json.RawMessage("{broken"),
		},
	}

	report := BuildAggregateReport(sess, []string{"keyword_research"})
	if len(report.ModuleResults) != 0 {
		t.Errorf("corrupt result decoded: %v", report.ModuleResults)
	}
	if len(report.MissingModules) != 1 {
		t.Errorf("missing = %v", report.MissingModules)
	}
}
