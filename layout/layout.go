// Package layout picks a presentation template from the length of the body.
package layout

import (
	"fmt"
	"strings"
)

// Template is a resolved presentation template.
type Template string

const (
	Visual    Template = "visual"
	Editorial Template = "editorial"
	Longform  Template = "longform"
)

// Override is either Auto or a forced Template.
type Override string

const Auto Override = "auto"

// Word-count thresholds. Bodies below ShortLimit are visual, bodies up to and
// including LongLimit are editorial, anything longer is longform.
const (
	ShortLimit = 140
	LongLimit  = 400
)

// ParseOverride validates an override setting; "" means Auto.
func ParseOverride(s string) (Override, error) {
	switch o := Override(strings.ToLower(strings.TrimSpace(s))); o {
	case "", Auto:
		return Auto, nil
	case Override(Visual), Override(Editorial), Override(Longform):
		return o, nil
	}
	return "", fmt.Errorf("unknown layout %q", s)
}

// WordCount counts whitespace-separated tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Resolve returns the override when set, otherwise classifies body by word count.
func Resolve(body string, override Override) Template {
	if override != Auto && override != "" {
		return Template(override)
	}
	n := WordCount(body)
	switch {
	case n < ShortLimit:
		return Visual
	case n <= LongLimit:
		return Editorial
	default:
		return Longform
	}
}

// DisplayName returns the operator-facing name of a template.
func (t Template) DisplayName() string {
	switch t {
	case Visual:
		return "Visual Template"
	case Editorial:
		return "Editorial Template"
	case Longform:
		return "Longform Template"
	}
	return string(t)
}
