package agents

import (
	"strings"
	"testing"
)

func TestRegistryContents(t *testing.T) {
	want := []string{EmailOutreach, ProjectGenerator, Research}
	got := Names()
	if len(got) != len(want) {
		t.Fatalf("expected %d agents, got %v", len(want), got)
	}
	for i, name := range want {
		if got[i] != name {
			t.Fatalf("expected %s at %d, got %s", name, i, got[i])
		}
	}
	if _, ok := Get("unknown"); ok {
		t.Fatal("unknown agent should not resolve")
	}
}

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name    string
		agent   string
		input   map[string]any
		wantErr bool
	}{
		{"research ok", Research, map[string]any{"query": "funding"}, false},
		{"research missing query", Research, map[string]any{"company": "acme"}, true},
		{"research empty query", Research, map[string]any{"query": "  "}, true},
		{"outreach ok", EmailOutreach, map[string]any{"company": "acme"}, false},
		{"outreach missing company", EmailOutreach, map[string]any{"role": "swe"}, true},
		{"projects ok", ProjectGenerator, map[string]any{"company": "acme", "skills": "go"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, ok := Get(tt.agent)
			if !ok {
				t.Fatalf("agent %s not registered", tt.agent)
			}
			err := a.ValidateInput(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateInput(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestPromptIncludesInputFields(t *testing.T) {
	a, _ := Get(Research)
	system, user := a.Prompt(map[string]any{
		"query":   "recent funding rounds",
		"company": "Acme Robotics",
	})
	if system == "" {
		t.Fatal("system prompt must not be empty")
	}
	if !strings.Contains(user, "recent funding rounds") {
		t.Fatalf("user prompt missing query: %q", user)
	}
	if !strings.Contains(user, "Acme Robotics") {
		t.Fatalf("user prompt missing company: %q", user)
	}
}

func TestPromptOmitsAbsentOptionalFields(t *testing.T) {
	a, _ := Get(EmailOutreach)
	_, user := a.Prompt(map[string]any{"company": "acme"})
	if strings.Contains(user, "Tone") {
		t.Fatalf("absent optional field rendered: %q", user)
	}
}

func TestDefaultsArePopulated(t *testing.T) {
	for _, name := range Names() {
		a, _ := Get(name)
		if a.Defaults.Model == "" || a.Defaults.MaxTokens == 0 {
			t.Fatalf("agent %s missing model defaults: %+v", name, a.Defaults)
		}
	}
}
