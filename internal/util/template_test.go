package util

import (
	"strings"
	"testing"
)

func TestRenderTemplate(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    string
		data    map[string]any
		want    string
		wantErr bool
	}{
		{
			name: "simple substitution",
			tmpl: "portrait of {{.subject}}, a {{.role}}",
			data: map[string]any{"subject": "Maria", "role": "founder"},
			want: "portrait of Maria, a founder",
		},
		{
			name: "no directives",
			tmpl: "plain text",
			data: map[string]any{},
			want: "plain text",
		},
		{
			name:    "missing key",
			tmpl:    "{{.nope}}",
			data:    map[string]any{},
			wantErr: true,
		},
		{
			name:    "forbidden call directive",
			tmpl:    "{{call .f}}",
			data:    map[string]any{},
			wantErr: true,
		},
		{
			name:    "forbidden template directive",
			tmpl:    `{{template "x"}}`,
			data:    map[string]any{},
			wantErr: true,
		},
		{
			name:    "parse failure",
			tmpl:    "{{.broken",
			data:    map[string]any{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderTemplate(tt.tmpl, tt.data)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("RenderTemplate: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly ten chars!", 18, "exactly ten chars!"},
		{"this is too long", 7, "this is..."},
		{"ação de marketing", 4, "ação..."},
		{"", 5, ""},
	}
	for _, tt := range tests {
		if got := TruncateString(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("TruncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestInitials(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Maria Silva", "MS"},
		{"john", "J"},
		{"Ana Beatriz Costa", "AB"},
		{"", "?"},
		{"   ", "?"},
		{"émile zola", "ÉZ"},
	}
	for _, tt := range tests {
		if got := Initials(tt.in); got != tt.want {
			t.Errorf("Initials(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncateStringKeepsRunesIntact(t *testing.T) {
	got := TruncateString("você vai longe", 4)
	if !strings.HasPrefix(got, "você") {
		t.Errorf("rune boundary broken: %q", got)
	}
}
