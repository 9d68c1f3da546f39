package pipeline

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/marketforge/marketforge/pkg/models"
)

// BuildAggregateReport assembles the final report from whatever module
// results a session holds. Missing modules are listed, never invented.
func BuildAggregateReport(sess *models.Session, moduleOrder []string) *models.AggregateReport {
	report := &models.AggregateReport{
		SessionID:     sess.ID,
		GeneratedAt:   time.Now().UTC(),
		ModuleResults: make(map[string]any, len(sess.Results)),
	}

	for _, name := range moduleOrder {
		raw, ok := sess.Results[name]
		if !ok {
			report.MissingModules = append(report.MissingModules, name)
			continue
		}
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			report.MissingModules = append(report.MissingModules, name)
			continue
		}
		report.ModuleResults[name] = decoded
	}

	report.KeyMetrics = scanKeyMetrics(report.ModuleResults)
	report.ExecutiveSummary = executiveSummary(sess, report)
	return report
}

// scanKeyMetrics lifts a few headline figures out of the module results
// when the producing modules ran
func scanKeyMetrics(results map[string]any) map[string]any {
	metrics := make(map[string]any)

	if kw, ok := asMap(results["keyword_research"]); ok {
		if total, ok := kw["total_keywords"]; ok {
			metrics["total_keywords"] = total
		}
	}
	if ma, ok := asMap(results["market_analysis"]); ok {
		if pot, ok := asMap(ma["market_potential"]); ok {
			if tam, ok := pot["tam"]; ok {
				metrics["market_tam"] = tam
			}
			if growth, ok := pot["annual_growth"]; ok {
				metrics["annual_growth"] = growth
			}
		}
	}
	if ra, ok := asMap(results["risk_assessment"]); ok {
		if level, ok := ra["overall_risk_level"]; ok {
			metrics["overall_risk_level"] = level
		}
	}
	if fp, ok := asMap(results["financial_projections"]); ok {
		if via, ok := asMap(fp["viability_analysis"]); ok {
			if be, ok := via["break_even"]; ok {
				metrics["break_even"] = be
			}
			if v, ok := via["viability"]; ok {
				metrics["viability"] = v
			}
		}
	}
	if ca, ok := asMap(results["competitor_analysis"]); ok {
		if total, ok := ca["total_competitors"]; ok {
			metrics["competitors_analyzed"] = total
		}
	}
	return metrics
}

func executiveSummary(sess *models.Session, report *models.AggregateReport) string {
	niche := sess.Input.Niche
	if niche == "" {
		niche = "the selected market"
	}

	summary := fmt.Sprintf(
		"Market analysis for %s covering %d of %d planned sections.",
		niche, len(report.ModuleResults), len(report.ModuleResults)+len(report.MissingModules))

	if v, ok := report.KeyMetrics["viability"]; ok {
		summary += fmt.Sprintf(" Overall viability assessed as %v.", v)
	}
	if level, ok := report.KeyMetrics["overall_risk_level"]; ok {
		summary += fmt.Sprintf(" Risk level: %v.", level)
	}
	if len(report.MissingModules) > 0 {
		missing := append([]string(nil), report.MissingModules...)
		sort.Strings(missing)
		summary += fmt.Sprintf(" Sections not generated: %d.", len(missing))
	}
	if len(sess.Errors) > 0 {
		summary += fmt.Sprintf(" %d generation errors were recorded and isolated.", len(sess.Errors))
	}
	return summary
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}
