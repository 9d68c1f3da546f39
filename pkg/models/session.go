package models

import (
	"encoding/json"
	"time"
)

// SessionStatus represents the lifecycle state of an analysis session
type SessionStatus string

const (
	// StatusCreated means the session exists but no module has run yet
	StatusCreated SessionStatus = "created"
	// StatusRunning means at least one module execution has started
	StatusRunning SessionStatus = "running"
	// StatusCompleted means every module is in CompletedModules
	StatusCompleted SessionStatus = "completed"
	// StatusFailed means an unrecoverable orchestrator-level error occurred.
	// Individual module failures never set this status.
	StatusFailed SessionStatus = "failed"
)

// AnalysisInput is the caller-supplied configuration for one analysis run.
// It is immutable after session creation.
type AnalysisInput struct {
	Niche          string            `json:"niche" toml:"niche" validate:"required,min=2,max=200"`
	Product        string            `json:"product,omitempty" toml:"product" validate:"max=200"`
	TargetAudience string            `json:"target_audience,omitempty" toml:"target_audience" validate:"max=200"`
	Location       string            `json:"location,omitempty" toml:"location" validate:"max=100"`
	Extra          map[string]string `json:"extra,omitempty" toml:"extra"`
}

// SessionError is one recorded module or orchestrator error. The list is
// append-only and never cleared, including on later success of the module.
type SessionError struct {
	Timestamp time.Time `json:"timestamp"`
	Module    string    `json:"module,omitempty"`
	Message   string    `json:"message"`
}

// Progress is the derived completion view, recomputed on every module
// completion and step update.
type Progress struct {
	CompletedCount int     `json:"completed_count"`
	TotalCount     int     `json:"total_count"`
	Percentage     float64 `json:"percentage"`
	CurrentModule  string  `json:"current_module,omitempty"`
	CurrentStep    int     `json:"current_step"`
}

// Session is the durable record of one resumable analysis run
type Session struct {
	ID        string        `json:"session_id"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Status    SessionStatus `json:"status"`

	Input AnalysisInput `json:"input"`

	// CompletedModules grows monotonically; membership is the sole
	// idempotency marker for skipping a module on resume.
	CompletedModules []string                   `json:"completed_modules"`
	Results          map[string]json.RawMessage `json:"results"`
	Errors           []SessionError             `json:"errors"`
	Progress         Progress                   `json:"progress"`
}

// IsModuleCompleted reports whether the named module is recorded as done
func (s *Session) IsModuleCompleted(name string) bool {
	for _, m := range s.CompletedModules {
		if m == name {
			return true
		}
	}
	return false
}

// SessionSummary is the listing view of a persisted session, consumed by
// session-management tooling rather than the orchestrator.
type SessionSummary struct {
	ID               string        `json:"session_id"`
	Status           SessionStatus `json:"status"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
	Progress         Progress      `json:"progress"`
	CompletedModules int           `json:"completed_modules"`
}

// RunResult is what one orchestrator Run call returns to the caller.
// Completed, Skipped, and Failed partition the modules this run touched;
// modules completed on earlier runs appear under Skipped.
type RunResult struct {
	SessionID   string                     `json:"session_id"`
	Status      SessionStatus              `json:"status"`
	Completed   []string                   `json:"completed"`
	Skipped     []string                   `json:"skipped,omitempty"`
	Failed      []string                   `json:"failed,omitempty"`
	Errors      int                        `json:"errors"`
	Interrupted bool                       `json:"interrupted,omitempty"`
	Results     map[string]json.RawMessage `json:"results,omitempty"`
	Progress    Progress                   `json:"progress"`
}
