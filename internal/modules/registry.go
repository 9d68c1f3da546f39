// Package modules defines the content-generation modules executed by the
// pipeline, in their fixed order. Text modules draw on the deterministic
// content library; image modules go through the generation fallback chain.
package modules

import (
	"github.com/marketforge/marketforge/internal/content"
	"github.com/marketforge/marketforge/internal/imagegen"
	"github.com/marketforge/marketforge/internal/pipeline"
)

// Deps are the shared collaborators injected into every module
type Deps struct {
	Chain   *imagegen.Chain
	Library *content.Library
}

// Registry returns the full module sequence. Order matters: later modules
// may read earlier results from the session, and the final report always
// runs last.
func Registry(deps Deps) []pipeline.ModuleDescriptor {
	return []pipeline.ModuleDescriptor{
		avatarModule(deps),
		libraryModule(deps, "competitor_analysis", "Competitor Analysis", 4),
		funnelModule(deps),
		libraryModule(deps, "keyword_research", "Keyword Research", 6),
		libraryModule(deps, "content_strategy", "Content Strategy", 5),
		libraryModule(deps, "market_analysis", "Market Analysis", 7),
		libraryModule(deps, "persona_development", "Persona Development", 4),
		libraryModule(deps, "pricing_strategy", "Pricing Strategy", 5),
		libraryModule(deps, "distribution_channels", "Distribution Channels", 4),
		libraryModule(deps, "risk_assessment", "Risk Assessment", 3),
		libraryModule(deps, "financial_projections", "Financial Projections", 6),
		reportModule(deps),
	}
}
