package modules

import (
	"context"
	"fmt"

	"github.com/marketforge/marketforge/internal/pipeline"
)

// reportOrder mirrors Registry minus the report itself
var reportOrder = []string{
	"avatar_generation",
	"competitor_analysis",
	"funnel_generation",
	"keyword_research",
	"content_strategy",
	"market_analysis",
	"persona_development",
	"pricing_strategy",
	"distribution_channels",
	"risk_assessment",
	"financial_projections",
}

// reportModule assembles the aggregate report from whatever the earlier
// modules managed to produce. It runs last and tolerates gaps: missing
// sections are listed, not fabricated.
func reportModule(deps Deps) pipeline.ModuleDescriptor {
	return pipeline.ModuleDescriptor{
		Name:      "final_report",
		Title:     "Final Report",
		StepCount: 4,
		Generate: func(ctx context.Context, rc pipeline.RunContext) (any, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			rc.Step(1, "Loading session results")
			sess, found := rc.Store.Load(rc.SessionID)
			if !found {
				return nil, fmt.Errorf("session %s not loadable for report assembly", rc.SessionID)
			}

			rc.Step(2, "Scanning module results")
			report := pipeline.BuildAggregateReport(sess, reportOrder)

			rc.Step(4, "Final report assembled")
			rc.Logger.Info("report assembled",
				"sections", len(report.ModuleResults),
				"missing", len(report.MissingModules))
			return report, nil
		},
	}
}
