package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"racedesk/document"
)

// fenceRe matches whole code-fence delimiter lines with an optional language tag.
var fenceRe = regexp.MustCompile("(?im)^[ \t]*(?:```|~~~)[a-z0-9_+-]*[ \t]*$")

// Extract 去掉代码块标记，并截取第一个 `{` 到最后一个 `}` 之间的内容。
// Without a brace pair the cleaned text is returned unchanged.
func Extract(raw string) string {
	cleaned := strings.TrimSpace(fenceRe.ReplaceAllString(raw, ""))
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end < start {
		return cleaned
	}
	return cleaned[start : end+1]
}

// Validate checks jsonText against the document schema. For a single-field
// target only that key is required and unrelated keys are ignored, whatever
// their type; for the whole document at least one schema key must carry a
// string. Absent, null and wrong-typed keys are left out of the fragment so
// the merge keeps current values.
func Validate(jsonText string, target document.Target) (document.Fragment, error) {
	var parsed any
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		return document.Fragment{}, &ParseError{Kind: ParseMalformed, Err: err}
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return document.Fragment{}, &ParseError{Kind: ParseNotObject, Err: fmt.Errorf("got %T", parsed)}
	}

	fields, badType := schemaFields(obj)

	field, single := target.Field()
	if !single {
		if len(fields) == 0 {
			for _, f := range document.EditorialFields {
				if perr, ok := badType[f]; ok {
					return document.Fragment{}, perr
				}
			}
			return document.Fragment{}, &ParseError{Kind: ParseMissingField, Err: errors.New("no document fields in response")}
		}
		frag := document.Full(fields)
		frag.Parsed = obj
		return frag, nil
	}

	v, ok := fields[field]
	if !ok {
		if perr, bad := badType[field]; bad {
			return document.Fragment{}, perr
		}
		return document.Fragment{}, &ParseError{Kind: ParseMissingField, Field: string(field)}
	}
	picked := document.Fields{field: v}
	if partner, ok := field.Partner(); ok {
		if pv, ok := fields[partner]; ok {
			picked[partner] = pv
		}
	}
	frag := document.Targeted(target, picked)
	frag.Parsed = obj
	return frag, nil
}

// schemaFields pulls the editorial keys out of obj. "attribution" is accepted
// as an alias for quoteAttribution; the canonical key wins when both exist.
// Null values count as absent. Non-string values are skipped and reported
// per field.
func schemaFields(obj map[string]any) (document.Fields, map[document.Field]*ParseError) {
	fields := make(document.Fields)
	badType := make(map[document.Field]*ParseError)
	for _, f := range document.EditorialFields {
		raw, ok := obj[string(f)]
		if !ok && f == document.FieldQuoteAttribution {
			raw, ok = obj["attribution"]
		}
		if !ok || raw == nil {
			continue
		}
		s, isString := raw.(string)
		if !isString {
			badType[f] = &ParseError{Kind: ParseWrongType, Field: string(f), Err: fmt.Errorf("want string, got %T", raw)}
			continue
		}
		fields[f] = s
	}
	return fields, badType
}
