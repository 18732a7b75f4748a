package document

import "fmt"

// Target selects which part of the document an instruction addresses.
type Target string

const (
	TargetWhole            Target = "whole"
	TargetHeadline         Target = Target(FieldHeadline)
	TargetSubheadline      Target = Target(FieldSubheadline)
	TargetBody             Target = Target(FieldBody)
	TargetQuote            Target = Target(FieldQuote)
	TargetQuoteAttribution Target = Target(FieldQuoteAttribution)
)

// ParseTarget accepts a target name; "", "auto" and "whole" mean the whole document.
func ParseTarget(s string) (Target, error) {
	switch s {
	case "", "auto", string(TargetWhole):
		return TargetWhole, nil
	case string(TargetHeadline), string(TargetSubheadline), string(TargetBody),
		string(TargetQuote), string(TargetQuoteAttribution):
		return Target(s), nil
	case "attribution":
		return TargetQuoteAttribution, nil
	}
	return "", fmt.Errorf("unknown target field %q", s)
}

// Field returns the document field for a single-field target.
func (t Target) Field() (Field, bool) {
	if t == TargetWhole || t == "" {
		return "", false
	}
	return Field(t), true
}

// Partner returns the other half of the quote/attribution pair.
func (f Field) Partner() (Field, bool) {
	switch f {
	case FieldQuote:
		return FieldQuoteAttribution, true
	case FieldQuoteAttribution:
		return FieldQuote, true
	}
	return "", false
}

// Fields carries the keys a model response actually contained.
type Fields map[Field]string

// FragmentKind tags a Fragment.
type FragmentKind int

const (
	FragmentFull FragmentKind = iota
	FragmentTargeted
	FragmentDegraded
)

func (k FragmentKind) String() string {
	switch k {
	case FragmentFull:
		return "full"
	case FragmentTargeted:
		return "targeted"
	case FragmentDegraded:
		return "degraded"
	}
	return "unknown"
}

// Fragment is a model result that has not been merged yet.
type Fragment struct {
	Kind   FragmentKind
	Target Target
	Fields Fields
	// Raw is the unparsed model text; it becomes the body of a degraded fragment.
	Raw string
	// Parsed is the decoded model object, unknown keys included.
	Parsed map[string]any
}

// Full builds a whole-document fragment.
func Full(fields Fields) Fragment {
	return Fragment{Kind: FragmentFull, Target: TargetWhole, Fields: fields}
}

// Targeted builds a single-field fragment.
func Targeted(t Target, fields Fields) Fragment {
	return Fragment{Kind: FragmentTargeted, Target: t, Fields: fields}
}

// Degraded wraps unusable model output so it lands in the body.
func Degraded(raw string) Fragment {
	return Fragment{Kind: FragmentDegraded, Target: TargetWhole, Raw: raw}
}

// Payload returns the fragment as a generic value for guardrail scans.
// The decoded object is preferred so keys the schema dropped are still seen.
func (f Fragment) Payload() map[string]any {
	if f.Parsed != nil {
		return f.Parsed
	}
	out := make(map[string]any, len(f.Fields)+1)
	for k, v := range f.Fields {
		out[string(k)] = v
	}
	if f.Kind == FragmentDegraded {
		out[string(FieldBody)] = f.Raw
	}
	return out
}
