package modules

import (
	"context"
	"fmt"

	"github.com/marketforge/marketforge/internal/content"
	"github.com/marketforge/marketforge/internal/pipeline"
)

// libraryModule wraps one deterministic text module. The step reports exist
// to keep the progress view moving through larger sections; generation
// itself is a single library call and cannot fail.
func libraryModule(deps Deps, name, title string, steps int) pipeline.ModuleDescriptor {
	return pipeline.ModuleDescriptor{
		Name:      name,
		Title:     title,
		StepCount: steps,
		Generate: func(ctx context.Context, rc pipeline.RunContext) (any, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			rc.Step(1, fmt.Sprintf("Preparing %s", title))

			pc := content.FromInput(rc.Input)
			data := deps.Library.Generate(name, pc)

			rc.Step(steps, fmt.Sprintf("%s ready", title))
			rc.Logger.Debug("library content generated", "keys", len(data))
			return data, nil
		},
	}
}
