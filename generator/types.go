package generator

import (
	"racedesk/document"
	"racedesk/guardrails"
	"racedesk/layout"
)

// Result is a validated, guardrail-clean fragment and where it came from.
type Result struct {
	Fragment document.Fragment
	Model    string
	Raw      string
	Attempts int
}

// Outcome describes an accepted mutation.
type Outcome struct {
	Kind       document.FragmentKind  `json:"-"`
	KindName   string                 `json:"kind"`
	Model      string                 `json:"model"`
	Raw        string                 `json:"raw"`
	Advisories []guardrails.Violation `json:"advisories,omitempty"`
	Template   layout.Template        `json:"template"`
	Skipped    bool                   `json:"skipped,omitempty"`
}

// State is a read-only snapshot of a session.
type State struct {
	ID        string             `json:"id" yaml:"id"`
	Document  document.Document  `json:"document" yaml:"document"`
	Messages  []document.Message `json:"messages" yaml:"messages"`
	Target    document.Target    `json:"target" yaml:"target"`
	Layout    layout.Override    `json:"layout" yaml:"layout"`
	Template  layout.Template    `json:"template" yaml:"template"`
	UndoDepth int                `json:"undoDepth" yaml:"undoDepth"`
	Loading   bool               `json:"loading" yaml:"loading"`
	Model     string             `json:"model,omitempty" yaml:"model,omitempty"`
}
