package modules

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/marketforge/marketforge/internal/content"
	"github.com/marketforge/marketforge/internal/imagegen"
	"github.com/marketforge/marketforge/internal/pipeline"
	"github.com/marketforge/marketforge/internal/util"
	"github.com/marketforge/marketforge/pkg/models"
)

// avatarConcurrency bounds parallel provider requests during the batch
const avatarConcurrency = 2

const avatarPromptTemplate = `Professional portrait photograph of {{.subject}}, ` +
	`a {{.age}} year old {{.occupation}}, {{.expression}}, ` +
	`working in {{.niche}}, neutral studio background, centered composition, high quality`

// avatarSpec is one persona portrait to synthesize
type avatarSpec struct {
	Subject    string
	Role       string
	Age        string
	Expression string
	Traits     []string
}

func defaultAvatarSpecs() []avatarSpec {
	return []avatarSpec{
		{
			Subject:    "Maria the Founder",
			Role:       "Business owner",
			Age:        "40",
			Expression: "confident and approachable",
			Traits:     []string{"decisive", "pragmatic"},
		},
		{
			Subject:    "John the Manager",
			Role:       "Marketing manager",
			Age:        "32",
			Expression: "focused and analytical",
			Traits:     []string{"data-driven", "curious"},
		},
	}
}

// avatarModule generates one portrait per persona. Requests run through the
// fallback chain concurrently, so a module result always carries an artifact
// for every persona even when all network providers are down.
func avatarModule(deps Deps) pipeline.ModuleDescriptor {
	return pipeline.ModuleDescriptor{
		Name:      "avatar_generation",
		Title:     "Persona Avatars",
		StepCount: 5,
		Generate: func(ctx context.Context, rc pipeline.RunContext) (any, error) {
			pc := content.FromInput(rc.Input)
			specs := defaultAvatarSpecs()

			rc.Step(1, "Synthesizing avatar prompts")
			requests := make([]models.GenerationRequest, len(specs))
			for i, spec := range specs {
				prompt, err := util.RenderTemplate(avatarPromptTemplate, map[string]any{
					"subject":    spec.Subject,
					"age":        spec.Age,
					"occupation": spec.Role,
					"expression": spec.Expression,
					"niche":      pc.Niche,
				})
				if err != nil {
					return nil, fmt.Errorf("avatar prompt synthesis: %w", err)
				}
				requests[i] = models.GenerationRequest{
					Subject: spec.Subject,
					Role:    spec.Role,
					Traits:  spec.Traits,
					Prompt:  prompt,
				}
			}

			rc.Step(2, "Generating persona avatars")
			results := make([]models.GenerationResult, len(requests))
			var mu sync.Mutex

			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(avatarConcurrency)
			for i, req := range requests {
				i, req := i, req
				g.Go(func() error {
					res := deps.Chain.Generate(gctx, req)
					mu.Lock()
					results[i] = res
					mu.Unlock()
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return nil, err
			}

			rc.Step(4, "Collecting avatar artifacts")
			avatars := make([]any, 0, len(results))
			fallbacks := 0
			for i, res := range results {
				if !res.Success {
					return nil, fmt.Errorf("avatar generation for %s: %s", requests[i].Subject, res.Error)
				}
				if res.Method == imagegen.MethodLocalFallback {
					fallbacks++
				}
				avatars = append(avatars, map[string]any{
					"subject":      requests[i].Subject,
					"role":         requests[i].Role,
					"prompt":       requests[i].Prompt,
					"image_base64": res.ImageBase64,
					"method":       res.Method,
					"width":        res.Width,
					"height":       res.Height,
				})
			}

			rc.Step(5, "Persona avatars ready")
			rc.Logger.Info("avatars generated", "count", len(avatars), "fallback_renders", fallbacks)
			return map[string]any{
				"avatars":          avatars,
				"total_avatars":    len(avatars),
				"fallback_renders": fallbacks,
			}, nil
		},
	}
}
