// Package agents defines the gateway's endpoint catalog: one Agent per
// endpoint with its prompt template, required input fields, and model
// defaults. Handlers look agents up by name and never hard-code prompts.
package agents

import (
	"fmt"
	"sort"
	"strings"
)

// Agent names double as URL path segments and rate-limit/cache scopes.
const (
	Research         = "research"
	ProjectGenerator = "project-generator"
	EmailOutreach    = "email-outreach"
)

// Defaults are the per-agent model parameters, overridable per request.
type Defaults struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Agent describes one gateway endpoint.
type Agent struct {
	Name     string
	Required []string
	Defaults Defaults
	system   string
	user     func(input map[string]any) string
}

// ValidateInput checks that every required field is present and non-empty.
func (a Agent) ValidateInput(input map[string]any) error {
	for _, field := range a.Required {
		v, ok := input[field]
		if !ok {
			return fmt.Errorf("missing required input field %q", field)
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			return fmt.Errorf("required input field %q is empty", field)
		}
	}
	return nil
}

// Prompt renders the system and user messages for input. Call ValidateInput
// first; missing optional fields render as absent sections.
func (a Agent) Prompt(input map[string]any) (system, user string) {
	return a.system, a.user(input)
}

func str(input map[string]any, key string) string {
	s, _ := input[key].(string)
	return strings.TrimSpace(s)
}

func section(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, value)
}

var registry = map[string]Agent{
	Research: {
		Name:     Research,
		Required: []string{"query"},
		Defaults: Defaults{Model: "gpt-4o-mini", Temperature: 0.3, MaxTokens: 2048},
		system: "You are a startup research analyst helping a job seeker evaluate companies. " +
			"Produce a concise, factual research report covering funding, product, market, " +
			"team, and recent news. Structure the report with short headed sections.",
		user: func(input map[string]any) string {
			var b strings.Builder
			section(&b, "Research question", str(input, "query"))
			section(&b, "Company", str(input, "company"))
			section(&b, "Additional context", str(input, "context"))
			return b.String()
		},
	},
	ProjectGenerator: {
		Name:     ProjectGenerator,
		Required: []string{"company"},
		Defaults: Defaults{Model: "gpt-4o-mini", Temperature: 0.8, MaxTokens: 1536},
		system: "You generate portfolio project ideas tailored to a specific startup. " +
			"Each idea must be scoped to one or two weeks of work, use the company's " +
			"public product or data, and demonstrate skills relevant to the target role. " +
			"Return three ideas with a title, summary, and suggested stack.",
		user: func(input map[string]any) string {
			var b strings.Builder
			section(&b, "Company", str(input, "company"))
			section(&b, "Target role", str(input, "role"))
			section(&b, "Candidate skills", str(input, "skills"))
			return b.String()
		},
	},
	EmailOutreach: {
		Name:     EmailOutreach,
		Required: []string{"company"},
		Defaults: Defaults{Model: "gpt-4o-mini", Temperature: 0.7, MaxTokens: 1024},
		system: "You write short, personalised cold-outreach emails from a job seeker to " +
			"a startup. Keep it under 150 words, reference something concrete about the " +
			"company, state the candidate's relevant experience, and end with a light ask.",
		user: func(input map[string]any) string {
			var b strings.Builder
			section(&b, "Company", str(input, "company"))
			section(&b, "Target role", str(input, "role"))
			section(&b, "Candidate background", str(input, "context"))
			section(&b, "Tone", str(input, "tone"))
			return b.String()
		},
	},
}

// Get returns the agent registered under name.
func Get(name string) (Agent, bool) {
	a, ok := registry[name]
	return a, ok
}

// Names returns all registered agent names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
