package modules

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/marketforge/marketforge/internal/content"
	"github.com/marketforge/marketforge/internal/imagegen"
	"github.com/marketforge/marketforge/internal/metrics"
	"github.com/marketforge/marketforge/internal/pipeline"
	"github.com/marketforge/marketforge/internal/session"
	"github.com/marketforge/marketforge/pkg/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testDeps wires a provider-less chain, so every image request lands on the
// local renderer
func testDeps(t *testing.T) Deps {
	t.Helper()
	collector := metrics.NewCollector(testLogger())
	chain := imagegen.NewChain(nil, imagegen.NewRenderer(), collector, testLogger())
	return Deps{Chain: chain, Library: content.NewLibrary()}
}

func testRunContext(t *testing.T, store session.Store, sessionID string) pipeline.RunContext {
	t.Helper()
	return pipeline.RunContext{
		SessionID: sessionID,
		Input:     models.AnalysisInput{Niche: "organic coffee", TargetAudience: "cafe owners"},
		Store:     store,
		Logger:    testLogger(),
		Step:      func(step int, message string) {},
	}
}

func TestRegistryOrder(t *testing.T) {
	registry := Registry(testDeps(t))
	if len(registry) != 12 {
		t.Fatalf("registry holds %d modules, want 12", len(registry))
	}
	if registry[0].Name != "avatar_generation" {
		t.Errorf("first module = %q", registry[0].Name)
	}
	if last := registry[len(registry)-1].Name; last != "final_report" {
		t.Errorf("last module = %q, want final_report", last)
	}

	// Every non-report module must appear in the report's scan order
	inOrder := make(map[string]bool, len(reportOrder))
	for _, name := range reportOrder {
		inOrder[name] = true
	}
	for _, d := range registry[:len(registry)-1] {
		if !inOrder[d.Name] {
			t.Errorf("module %q missing from report scan order", d.Name)
		}
	}
}

func TestLibraryModuleGenerates(t *testing.T) {
	deps := testDeps(t)
	desc := libraryModule(deps, "market_analysis", "Market Analysis", 7)

	payload, err := desc.Generate(context.Background(), testRunContext(t, nil, "s1"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	data, ok := payload.(map[string]any)
	if !ok || len(data) == 0 {
		t.Fatalf("payload = %T %v", payload, payload)
	}
}

func TestAvatarModuleAlwaysDelivers(t *testing.T) {
	desc := avatarModule(testDeps(t))

	payload, err := desc.Generate(context.Background(), testRunContext(t, nil, "s1"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	data := payload.(map[string]any)
	avatars := data["avatars"].([]any)
	if len(avatars) != len(defaultAvatarSpecs()) {
		t.Fatalf("avatars = %d, want %d", len(avatars), len(defaultAvatarSpecs()))
	}
	for _, a := range avatars {
		avatar := a.(map[string]any)
		if avatar["image_base64"] == "" {
			t.Errorf("avatar %v missing artifact", avatar["subject"])
		}
		if avatar["method"] != imagegen.MethodLocalFallback {
			t.Errorf("method = %v, want local fallback without providers", avatar["method"])
		}
	}
}

func TestFunnelModuleStagesAndChart(t *testing.T) {
	desc := funnelModule(testDeps(t))

	payload, err := desc.Generate(context.Background(), testRunContext(t, nil, "s1"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	data := payload.(map[string]any)
	stages := data["stages"].([]any)
	if len(stages) != 5 {
		t.Fatalf("stages = %d, want 5", len(stages))
	}
	if data["chart_base64"] == "" {
		t.Error("missing funnel chart artifact")
	}
	if data["chart_method"] != imagegen.MethodLocalFallback {
		t.Errorf("chart method = %v", data["chart_method"])
	}
}

func TestFunnelConversionRates(t *testing.T) {
	first := funnelConversionRates("organic coffee")
	second := funnelConversionRates("organic coffee")
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("rates not deterministic at %d: %v vs %v", i, first[i], second[i])
		}
	}

	if first[0] != 100 {
		t.Errorf("top of funnel = %v, want 100", first[0])
	}
	for i := 1; i < len(first); i++ {
		if first[i] >= first[i-1] {
			t.Errorf("rates not strictly narrowing at %d: %v", i, first)
		}
	}
}

func TestReportModuleToleratesGaps(t *testing.T) {
	store, err := session.NewFileStore(t.TempDir(), reportOrder, testLogger())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	id, err := store.Create(models.AnalysisInput{Niche: "organic coffee"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Only two of the eleven upstream modules produced results
	store.MarkModuleCompleted(id, "market_analysis", map[string]any{
		"market_potential": map[string]any{"tam": "R$ 1 billion"},
	})
	store.MarkModuleCompleted(id, "risk_assessment", map[string]any{
		"overall_risk_level": "medium",
	})

	desc := reportModule(testDeps(t))
	payload, err := desc.Generate(context.Background(), testRunContext(t, store, id))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	report, ok := payload.(*models.AggregateReport)
	if !ok {
		t.Fatalf("payload type %T", payload)
	}
	if len(report.ModuleResults) != 2 {
		t.Errorf("sections = %d, want 2", len(report.ModuleResults))
	}
	if len(report.MissingModules) != len(reportOrder)-2 {
		t.Errorf("missing = %d, want %d", len(report.MissingModules), len(reportOrder)-2)
	}
	if report.KeyMetrics["overall_risk_level"] != "medium" {
		t.Errorf("key metrics = %v", report.KeyMetrics)
	}
	if report.ExecutiveSummary == "" {
		t.Error("empty executive summary")
	}
}
