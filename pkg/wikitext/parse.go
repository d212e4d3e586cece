package wikitext

import (
	"log/slog"
	"strings"
)

const (
	openMarker  = "{{"
	closeMarker = "}}"
)

// Parse scans markup from left to right and splits it into plain text spans
// and calls. Calls do not nest: a call always ends at the first "}}" after its
// opening "{{". An opening marker without a closing one is kept as plain text.
//
// Parse never fails. Parameter segments it cannot interpret are reported as
// issues next to the returned document:
//   - a segment without "=" becomes a flag parameter named after the segment,
//   - an empty segment or a segment with an empty key is skipped.
func (c *Codec) Parse(markup string) (Document, []Issue) {
	var (
		doc    Document
		issues []Issue
	)

	rest := markup
	for {
		open := strings.Index(rest, openMarker)
		if open < 0 {
			break
		}
		bodyStart := open + len(openMarker)
		closeRel := strings.Index(rest[bodyStart:], closeMarker)
		if closeRel < 0 {
			break
		}

		if text := strings.TrimSpace(rest[:open]); text != "" {
			doc = append(doc, PlainText{Value: text})
		}

		body := rest[bodyStart : bodyStart+closeRel]
		rec, recIssues := parseCall(body, len(doc))
		doc = append(doc, rec)
		issues = append(issues, recIssues...)

		rest = rest[bodyStart+closeRel+len(closeMarker):]
	}

	if text := strings.TrimSpace(rest); text != "" {
		doc = append(doc, PlainText{Value: text})
	}

	for _, issue := range issues {
		c.logger.Debug("Malformed call body",
			slog.Int("record", issue.Record),
			slog.String("segment", issue.Segment),
		)
	}

	return doc, issues
}

// parseCall classifies the text between "{{" and "}}".
func parseCall(body string, index int) (Record, []Issue) {
	nameText, paramText, hasParams := strings.Cut(body, "|")
	if !hasParams {
		return TemplateCall{Name: strings.TrimSpace(body), Params: NewParamMap()}, nil
	}

	name := strings.TrimSpace(nameText)
	params, issues := parseParams(paramText, index)

	if strings.HasPrefix(name, "#") {
		fn := FunctionCall{Name: name[1:], Params: params}
		if fnName, main, ok := strings.Cut(fn.Name, ":"); ok {
			fn.Name = strings.TrimSpace(fnName)
			fn.MainParam = strings.TrimSpace(main)
			fn.HasMainParam = true
		}
		return fn, issues
	}
	return TemplateCall{Name: name, Params: params}, issues
}

// parseParams splits "a=1|b=2" into a ParamMap. Later duplicates overwrite
// earlier ones.
func parseParams(text string, index int) (*ParamMap, []Issue) {
	params := NewParamMap()
	var issues []Issue

	for _, segment := range strings.Split(text, "|") {
		key, value, hasValue := strings.Cut(segment, "=")
		key = strings.TrimSpace(key)

		if key == "" {
			issues = append(issues, Issue{
				Kind:    MalformedCallBody,
				Record:  index,
				Segment: segment,
				Err:     ErrMalformedCallBody,
			})
			continue
		}

		if !hasValue {
			issues = append(issues, Issue{
				Kind:    MalformedCallBody,
				Record:  index,
				Key:     key,
				Segment: segment,
				Err:     ErrMalformedCallBody,
			})
			params.Set(key, Flag())
			continue
		}

		params.Set(key, String(strings.TrimSpace(value)))
	}

	return params, issues
}

// Parse parses markup with the process-wide codec.
func Parse(markup string) (Document, []Issue) {
	return Default().Parse(markup)
}
