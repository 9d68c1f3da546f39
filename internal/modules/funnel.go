package modules

import (
	"context"
	"fmt"

	"github.com/marketforge/marketforge/internal/content"
	"github.com/marketforge/marketforge/internal/imagegen"
	"github.com/marketforge/marketforge/internal/pipeline"
	"github.com/marketforge/marketforge/pkg/models"
)

var funnelStages = []string{"Visitors", "Leads", "Qualified", "Opportunities", "Customers"}

// funnelConversionRates derives stage-to-stage conversion percentages from
// the niche. The figures are synthetic but stable for a given input.
func funnelConversionRates(niche string) []float64 {
	seed := 0
	for _, r := range niche {
		seed += int(r)
	}
	base := []float64{100, 40, 18, 7, 2.5}
	rates := make([]float64, len(base))
	for i, b := range base {
		if i == 0 {
			rates[i] = b
			continue
		}
		// Nudge each rate by up to +-10% of itself, keyed off the niche
		shift := float64((seed+i*13)%21-10) / 100
		rates[i] = b * (1 + shift)
	}
	return rates
}

// funnelModule builds the five-stage conversion funnel and renders it as a
// chart artifact through the fallback chain
func funnelModule(deps Deps) pipeline.ModuleDescriptor {
	return pipeline.ModuleDescriptor{
		Name:      "funnel_generation",
		Title:     "Sales Funnel",
		StepCount: 3,
		Generate: func(ctx context.Context, rc pipeline.RunContext) (any, error) {
			pc := content.FromInput(rc.Input)

			rc.Step(1, "Modeling funnel stages")
			rates := funnelConversionRates(pc.Niche)
			stages := make([]any, len(funnelStages))
			for i, name := range funnelStages {
				stages[i] = map[string]any{
					"stage":      name,
					"order":      i + 1,
					"percentage": rates[i],
				}
			}

			rc.Step(2, "Rendering funnel chart")
			req := models.GenerationRequest{
				Subject:  fmt.Sprintf("%s Sales Funnel", pc.Niche),
				Traits:   funnelStages,
				Category: imagegen.CategoryFunnel,
				Prompt: fmt.Sprintf(
					"Clean marketing funnel diagram with five labeled stages for the %s market, flat design, white background",
					pc.Niche),
			}
			res := deps.Chain.Generate(ctx, req)
			if !res.Success {
				return nil, fmt.Errorf("funnel chart generation: %s", res.Error)
			}

			rc.Step(3, "Sales funnel ready")
			return map[string]any{
				"stages":       stages,
				"chart_base64": res.ImageBase64,
				"chart_method": res.Method,
				"strategy": fmt.Sprintf(
					"Attract %s through educational content, qualify with lead magnets, and convert with %s",
					pc.TargetAudience, pc.Product),
			}, nil
		},
	}
}
