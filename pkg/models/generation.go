package models

import "time"

// CanonicalImageSize is the fixed edge length, in pixels, of every artifact
// the generation chain returns regardless of which provider produced it.
const CanonicalImageSize = 1080

// GenerationRequest describes one artifact to generate (an avatar portrait,
// a funnel chart). Prompt is the derived provider prompt; the remaining
// fields are the subject data the local fallback renderer draws from.
type GenerationRequest struct {
	Subject  string   `json:"subject"`
	Role     string   `json:"role,omitempty"`
	Traits   []string `json:"traits,omitempty"`
	Prompt   string   `json:"prompt"`
	Category string   `json:"category,omitempty"`
}

// GenerationResult is the outcome of one generation request. Success=false
// is only possible when even the local fallback renderer failed, which the
// chain contract reserves for environment-level faults.
type GenerationResult struct {
	Success     bool      `json:"success"`
	ImageBase64 string    `json:"image_base64,omitempty"`
	Method      string    `json:"method"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	GeneratedAt time.Time `json:"generated_at"`
	Error       string    `json:"error,omitempty"`
}

// AggregateReport is assembled after a fully completed run by scanning all
// stored module results. It is consumed by the external rendering layer.
type AggregateReport struct {
	SessionID        string         `json:"session_id"`
	GeneratedAt      time.Time      `json:"generated_at"`
	ExecutiveSummary string         `json:"executive_summary"`
	KeyMetrics       map[string]any `json:"key_metrics"`
	ModuleResults    map[string]any `json:"module_results"`
	MissingModules   []string       `json:"missing_modules,omitempty"`
}
