package content

import (
	"fmt"
	"strings"

	"github.com/marketforge/marketforge/pkg/models"
)

// Context carries the analysis fields substituted into every dataset entry
type Context struct {
	Niche          string
	Product        string
	TargetAudience string
	Location       string
}

// FromInput builds a personalization context, backfilling the defaults the
// pipeline assumes when optional input fields are absent
func FromInput(in models.AnalysisInput) Context {
	c := Context{
		Niche:          in.Niche,
		Product:        in.Product,
		TargetAudience: in.TargetAudience,
		Location:       in.Location,
	}
	if c.Niche == "" {
		c.Niche = "digital marketing"
	}
	if c.Product == "" {
		c.Product = "product or service"
	}
	if c.TargetAudience == "" {
		c.TargetAudience = "entrepreneurs"
	}
	if c.Location == "" {
		c.Location = "Brazil"
	}
	return c
}

// Library is the deterministic substitute for modules whose live generation
// providers are unavailable or out of scope. Generate never fails: this is
// the fallback tier with nothing further beneath it.
type Library struct{}

// NewLibrary creates the content fallback library
func NewLibrary() *Library {
	return &Library{}
}

// Generate returns the personalized dataset for a module key. Unknown keys
// yield a minimal generic payload rather than an error.
func (l *Library) Generate(moduleKey string, pc Context) map[string]any {
	var data map[string]any
	switch moduleKey {
	case "keyword_research":
		data = keywordResearch(pc)
	case "content_strategy":
		data = contentStrategy()
	case "market_analysis":
		data = marketAnalysis()
	case "persona_development":
		data = personaDevelopment()
	case "pricing_strategy":
		data = pricingStrategy()
	case "distribution_channels":
		data = distributionChannels()
	case "risk_assessment":
		data = riskAssessment()
	case "financial_projections":
		data = financialProjections()
	case "competitor_analysis":
		data = competitorAnalysis()
	default:
		data = map[string]any{
			"summary": "Overview of {niche} for {audience} in {location}",
			"highlights": []any{
				"Growing demand for {niche}",
				"Opportunities for {product} targeting {audience}",
			},
		}
	}
	return personalize(data, pc).(map[string]any)
}

// personalize walks the dataset substituting context placeholders in every
// string, preserving structure
func personalize(v any, pc Context) any {
	r := strings.NewReplacer(
		"{niche}", pc.Niche,
		"{audience}", pc.TargetAudience,
		"{product}", pc.Product,
		"{location}", pc.Location,
	)
	return replaceValues(v, r)
}

func replaceValues(v any, r *strings.Replacer) any {
	switch t := v.(type) {
	case string:
		return r.Replace(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = replaceValues(val, r)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = replaceValues(val, r)
		}
		return out
	default:
		return v
	}
}

func keywordResearch(pc Context) map[string]any {
	primary := []string{
		"{niche}",
		"{niche} for {audience}",
		"how to do {niche}",
		"professional {niche}",
		"{niche} course",
	}
	longTail := []string{
		"best {niche} strategy for {audience}",
		"how to start in {niche} with no experience",
		"{niche} for beginners step by step",
		"most used {niche} tools",
		"how much does it cost to invest in {niche}",
	}

	analysis := make([]any, 0, len(primary)+len(longTail))
	for _, kw := range append(append([]string{}, primary...), longTail...) {
		resolved := personalize(kw, pc).(string)
		intent := "commercial"
		if strings.Contains(resolved, "how") {
			intent = "informational"
		}
		difficulty := "medium"
		if len(strings.Fields(resolved)) > 3 {
			difficulty = "low"
		}
		// Search volume is synthesized deterministically from the keyword
		analysis = append(analysis, map[string]any{
			"keyword":    kw,
			"volume":     fmt.Sprintf("%d-%d", 1000+len(resolved)*100, 5000+len(resolved)*200),
			"difficulty": difficulty,
			"intent":     intent,
		})
	}

	return map[string]any{
		"primary_keywords":   toAnySlice(primary),
		"long_tail_keywords": toAnySlice(longTail),
		"keyword_analysis":   analysis,
		"total_keywords":     len(analysis),
	}
}

func contentStrategy() map[string]any {
	return map[string]any{
		"content_pillars": []any{
			map[string]any{
				"pillar":      "Educational",
				"description": "Educational content about {niche}",
				"formats":     toAnySlice([]string{"Tutorials", "Guides", "Tips", "Explainers"}),
				"frequency":   "3x per week",
			},
			map[string]any{
				"pillar":      "Inspirational",
				"description": "Success stories and motivation",
				"formats":     toAnySlice([]string{"Case studies", "Testimonials", "Transformations"}),
				"frequency":   "2x per week",
			},
			map[string]any{
				"pillar":      "Promotional",
				"description": "Content about {product}",
				"formats":     toAnySlice([]string{"Demos", "Benefits", "Offers"}),
				"frequency":   "1x per week",
			},
		},
		"editorial_calendar": map[string]any{
			"monday":    "Educational - Tutorial",
			"tuesday":   "Inspirational - Case study",
			"wednesday": "Educational - Tips",
			"thursday":  "Promotional - {product}",
			"friday":    "Educational - Guide",
			"saturday":  "Inspirational - Motivation",
			"sunday":    "Engagement - Interaction",
		},
		"platform_strategy": map[string]any{
			"instagram": map[string]any{
				"format":    "Visual posts, stories, reels",
				"frequency": "Daily",
				"focus":     "Visual and inspirational",
			},
			"linkedin": map[string]any{
				"format":    "Articles, professional posts",
				"frequency": "3x per week",
				"focus":     "Professional and educational content",
			},
			"youtube": map[string]any{
				"format":    "Long-form videos, shorts",
				"frequency": "2x per week",
				"focus":     "Tutorials and demos",
			},
			"blog": map[string]any{
				"format":    "In-depth articles",
				"frequency": "1x per week",
				"focus":     "SEO and evergreen content",
			},
		},
	}
}

func marketAnalysis() map[string]any {
	return map[string]any{
		"market_segments": []any{
			map[string]any{
				"segment":         "Small businesses",
				"share":           "40%",
				"characteristics": "Companies with up to 50 employees",
				"needs":           "Affordable {niche} solutions",
			},
			map[string]any{
				"segment":         "Mid-size businesses",
				"share":           "35%",
				"characteristics": "Companies with 51 to 200 employees",
				"needs":           "Scalable {niche} solutions",
			},
			map[string]any{
				"segment":         "Large enterprises",
				"share":           "25%",
				"characteristics": "Companies with more than 200 employees",
				"needs":           "Enterprise {niche} solutions",
			},
		},
		"market_trends": toAnySlice([]string{
			"Growing digitalization of {niche}",
			"Rising demand for automated {niche}",
			"Focus on measurable ROI in {niche}",
			"AI integration in {niche} solutions",
			"Mass personalization in {niche}",
		}),
		"market_potential": map[string]any{
			"tam":           "R$ 10-50 billion (Total Addressable Market)",
			"sam":           "R$ 1-5 billion (Serviceable Addressable Market)",
			"som":           "R$ 100-500 million (Serviceable Obtainable Market)",
			"annual_growth": "15-25%",
		},
		"opportunities": toAnySlice([]string{
			"Expanding {niche} market in {location}",
			"Growing demand for {niche} solutions",
			"Few specialized players in {niche}",
			"Room for innovation in {niche}",
			"International expansion potential",
		}),
	}
}

func personaDevelopment() map[string]any {
	return map[string]any{
		"primary_persona": map[string]any{
			"name":       "Maria the Founder",
			"age_range":  "35-45",
			"occupation": "Business owner",
			"income":     "R$ 10,000 - R$ 30,000/month",
			"education":  "University degree",
			"location":   "Major urban centers in {location}",
			"goals": toAnySlice([]string{
				"Grow the business using {niche}",
				"Increase sales and revenue",
				"Streamline marketing processes",
				"Build a strong brand",
			}),
			"pains": toAnySlice([]string{
				"Difficulty implementing {niche}",
				"No time to learn",
				"Limited marketing budget",
				"Hard to measure results",
			}),
			"channels": toAnySlice([]string{"LinkedIn", "Instagram", "YouTube", "Google"}),
			"behavior": "Looks for practical solutions and quick results",
		},
		"secondary_persona": map[string]any{
			"name":       "John the Manager",
			"age_range":  "28-38",
			"occupation": "Marketing manager",
			"income":     "R$ 8,000 - R$ 15,000/month",
			"education":  "Degree in marketing or business",
			"location":   "Capitals and mid-size cities",
			"goals": toAnySlice([]string{
				"Specialize in {niche}",
				"Improve team performance",
				"Roll out new strategies",
				"Advance the career",
			}),
			"pains": toAnySlice([]string{
				"Pressure for results",
				"Constant need to stay current",
				"Team and process management",
				"Proving ROI",
			}),
			"channels": toAnySlice([]string{"LinkedIn", "Specialized blogs", "Webinars", "Online courses"}),
			"behavior": "Seeks technical depth and networking",
		},
		"total_personas": 2,
	}
}

func pricingStrategy() map[string]any {
	return map[string]any{
		"pricing_models": []any{
			map[string]any{
				"model":       "Freemium",
				"description": "Free tier plus a premium upgrade",
				"advantages":  toAnySlice([]string{"Low entry barrier", "Large user base"}),
				"application": "Basic {niche} tooling for free",
			},
			map[string]any{
				"model":       "Subscription",
				"description": "Recurring monthly or annual billing",
				"advantages":  toAnySlice([]string{"Predictable revenue", "Long-lived relationship"}),
				"application": "Full {niche} platform",
			},
			map[string]any{
				"model":       "Per project",
				"description": "Billing per individual engagement",
				"advantages":  toAnySlice([]string{"Flexibility", "Value tied to outcome"}),
				"application": "Specialized {niche} consulting",
			},
		},
		"price_tiers": []any{
			map[string]any{
				"tier":     "Basic",
				"price":    "R$ 97-297/month",
				"audience": "Solo founders",
				"features": toAnySlice([]string{"Essential features", "Basic support", "Templates"}),
			},
			map[string]any{
				"tier":     "Professional",
				"price":    "R$ 297-697/month",
				"audience": "Small and mid-size companies",
				"features": toAnySlice([]string{"Advanced features", "Priority support", "Integrations"}),
			},
			map[string]any{
				"tier":     "Enterprise",
				"price":    "R$ 697-1,997/month",
				"audience": "Large enterprises",
				"features": toAnySlice([]string{"Full feature set", "Dedicated support", "Customizations"}),
			},
		},
		"price_analysis": map[string]any{
			"sensitivity":          "Medium; the audience pays for quality",
			"competition":          "Competitive pricing across the market",
			"perceived_value":      "High; measurable ROI",
			"recommended_strategy": "Value-based pricing",
		},
	}
}

func distributionChannels() map[string]any {
	return map[string]any{
		"digital_channels": []any{
			map[string]any{
				"channel":        "Own website",
				"type":           "direct",
				"advantages":     toAnySlice([]string{"Full control", "Best margin", "Customer data"}),
				"investment":     "medium",
				"time_to_launch": "2-3 months",
			},
			map[string]any{
				"channel":        "Marketplaces",
				"type":           "indirect",
				"advantages":     toAnySlice([]string{"Ready audience", "Credibility", "Low effort"}),
				"investment":     "low",
				"time_to_launch": "1-2 weeks",
			},
			map[string]any{
				"channel":        "Social networks",
				"type":           "direct",
				"advantages":     toAnySlice([]string{"Engagement", "Viral reach", "Low cost"}),
				"investment":     "low",
				"time_to_launch": "immediate",
			},
		},
		"partnership_channels": []any{
			map[string]any{
				"type":        "Affiliates",
				"description": "Partners reselling {niche} solutions",
				"commission":  "20-30%",
				"potential":   "high",
			},
			map[string]any{
				"type":        "Resellers",
				"description": "Companies specialized in resale",
				"margin":      "40-50%",
				"potential":   "medium",
			},
			map[string]any{
				"type":        "Integrators",
				"description": "Companies bundling {product} into projects",
				"model":       "Commission per project",
				"potential":   "high",
			},
		},
		"recommended_strategy": "Hybrid model focused on digital channels",
	}
}

func riskAssessment() map[string]any {
	return map[string]any{
		"risk_categories": []any{
			map[string]any{
				"category": "Market risks",
				"risks": toAnySlice([]string{
					"Saturation of the {niche} market",
					"Shifts in consumer preferences",
					"Entry of large players",
					"Economic downturn",
				}),
				"probability": "medium",
				"impact":      "high",
			},
			map[string]any{
				"category": "Technology risks",
				"risks": toAnySlice([]string{
					"Platform algorithm changes",
					"Technology obsolescence",
					"Security incidents",
					"Third-party dependency",
				}),
				"probability": "high",
				"impact":      "medium",
			},
			map[string]any{
				"category": "Operational risks",
				"risks": toAnySlice([]string{
					"Loss of key people",
					"Quality problems",
					"Process failures",
					"Supplier issues",
				}),
				"probability": "medium",
				"impact":      "medium",
			},
		},
		"mitigation_strategies": toAnySlice([]string{
			"Diversify products and markets",
			"Invest continuously in innovation",
			"Build a strong team",
			"Monitor the market constantly",
			"Keep a financial reserve",
		}),
		"overall_risk_level": "medium",
	}
}

func financialProjections() map[string]any {
	return map[string]any{
		"revenue_projections": map[string]any{
			"year_1": map[string]any{"gross_revenue": "R$ 500,000", "customers": 100, "average_ticket": "R$ 5,000", "growth": "baseline"},
			"year_2": map[string]any{"gross_revenue": "R$ 1,200,000", "customers": 200, "average_ticket": "R$ 6,000", "growth": "140%"},
			"year_3": map[string]any{"gross_revenue": "R$ 2,500,000", "customers": 350, "average_ticket": "R$ 7,143", "growth": "108%"},
		},
		"cost_projections": map[string]any{
			"year_1": map[string]any{"fixed_costs": "R$ 200,000", "variable_costs": "R$ 150,000", "total_costs": "R$ 350,000"},
			"year_2": map[string]any{"fixed_costs": "R$ 350,000", "variable_costs": "R$ 300,000", "total_costs": "R$ 650,000"},
			"year_3": map[string]any{"fixed_costs": "R$ 600,000", "variable_costs": "R$ 500,000", "total_costs": "R$ 1,100,000"},
		},
		"financial_indicators": map[string]any{
			"roi_year_1":        "43%",
			"roi_year_2":        "85%",
			"roi_year_3":        "127%",
			"payback":           "18 months",
			"net_margin_year_3": "56%",
		},
		"viability_analysis": map[string]any{
			"viability":          "high",
			"initial_investment": "R$ 100,000",
			"break_even":         "8 months",
			"recommendation":     "Highly viable project with attractive ROI",
		},
	}
}

// competitorAnalysis is a compact static competitor dataset with
// deterministic presence scores
func competitorAnalysis() map[string]any {
	return map[string]any{
		"competitors": []any{
			competitor("NicheLeader Co", "Established brand in {niche}", 87, toAnySlice([]string{"Strong brand", "Wide product range"})),
			competitor("GrowthWorks", "Fast-growing {niche} platform for {audience}", 78, toAnySlice([]string{"Aggressive pricing", "Modern product"})),
			competitor("LocalEdge", "Regional specialist in {location}", 64, toAnySlice([]string{"Local presence", "Personal service"})),
			competitor("BudgetBase", "Low-cost entry option", 52, toAnySlice([]string{"Lowest price", "Simple onboarding"})),
			competitor("EnterprisePro", "Enterprise-grade {niche} suite", 81, toAnySlice([]string{"Enterprise features", "Consulting arm"})),
		},
		"competitive_gaps": toAnySlice([]string{
			"Few players serve {audience} specifically",
			"Weak educational content across competitors",
			"Limited {niche} automation offerings in {location}",
		}),
		"strategic_recommendations": toAnySlice([]string{
			"Differentiate through specialization in {niche}",
			"Invest in educational content for {audience}",
			"Price between BudgetBase and NicheLeader Co",
		}),
		"total_competitors": 5,
	}
}

func competitor(name, description string, digitalScore int, advantages []any) map[string]any {
	return map[string]any{
		"name":                   name,
		"description":            description,
		"digital_presence_score": digitalScore,
		"competitive_advantages": advantages,
	}
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
