package main

import (
	"testing"

	"github.com/marketforge/marketforge/internal/config"
)

func TestApplyDirFlag(t *testing.T) {
	tests := []struct {
		name    string
		cfgDir  string
		changed bool
		flagDir string
		want    string
	}{
		{"flag not passed keeps config value", "data/sessions", false, "sessions", "data/sessions"},
		{"flag passed overrides config value", "data/sessions", true, "elsewhere", "elsewhere"},
		{"flag passed with default value still wins", "data/sessions", true, "sessions", "sessions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Sessions.Dir = tt.cfgDir

			applyDirFlag(cfg, tt.changed, tt.flagDir)
			if cfg.Sessions.Dir != tt.want {
				t.Errorf("sessions dir = %q, want %q", cfg.Sessions.Dir, tt.want)
			}
		})
	}
}
