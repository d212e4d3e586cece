package wikitext

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// The serialized form of a Document is a list whose entries are either a
// string (plain text) or an object:
//
//	- "== Heading =="
//	- template: Country
//	  params: {code: en, label: England}
//	- function: "#set"
//	  main: ""
//	  params: {population: 42, tags: [a, b], visible: true}
//
// Parameter objects keep their key order. Values may be scalars, lists of
// scalars, true (flag) or null/false (absent). Nested objects are dropped and
// reported as InvalidParamShape issues by the Decode functions.

type recordFields struct {
	Template *string   `json:"template,omitempty"`
	Function *string   `json:"function,omitempty"`
	Main     *string   `json:"main,omitempty"`
	Params   *ParamMap `json:"params,omitempty"`
}

// MarshalJSON writes the entries in insertion order.
func (p *ParamMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	var err error
	p.Range(func(key string, v Value) bool {
		var k, val []byte
		if k, err = json.Marshal(key); err != nil {
			return false
		}
		if val, err = json.Marshal(v); err != nil {
			return false
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
		return true
	})
	if err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON encodes strings as strings, lists as arrays, flags as true and
// absent values as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindList:
		if v.items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.items)
	case KindFlag:
		return []byte("true"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes an object preserving key order. Entries with nested
// values are dropped; use DecodeParamsJSON to see them.
func (p *ParamMap) UnmarshalJSON(data []byte) error {
	decoded, _, err := DecodeParamsJSON(data, 0)
	if err != nil {
		return err
	}
	*p = *decoded
	return nil
}

// DecodeParamsJSON decodes a JSON object into a ParamMap. index is used as
// the Record field of the returned issues.
func DecodeParamsJSON(data []byte, index int) (*ParamMap, []Issue, error) {
	params := NewParamMap()
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return params, nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("params must be a JSON object, got %v", tok)
	}

	var issues []Issue
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected params key %v", tok)
		}
		var raw any
		if err = dec.Decode(&raw); err != nil {
			return nil, nil, err
		}
		v, err := FromAny(raw)
		if err != nil {
			issues = append(issues, Issue{Kind: InvalidParamShape, Record: index, Key: key, Err: err})
			continue
		}
		params.Set(key, v)
	}
	if _, err = dec.Token(); err != nil {
		return nil, nil, err
	}
	return params, issues, nil
}

// MarshalJSON encodes the document in its list form.
func (d Document) MarshalJSON() ([]byte, error) {
	entries := make([]any, 0, len(d))
	for _, rec := range d {
		switch r := deref(rec).(type) {
		case PlainText:
			entries = append(entries, r.Value)
		case TemplateCall:
			name := r.Name
			entries = append(entries, recordFields{Template: &name, Params: r.Params})
		case FunctionCall:
			name := r.Name
			entries = append(entries, recordFields{Function: &name, Main: r.Main(), Params: r.Params})
		}
	}
	return json.Marshal(entries)
}

// UnmarshalJSON decodes the list form. Dropped parameters are not reported;
// use DecodeDocumentJSON to see them.
func (d *Document) UnmarshalJSON(data []byte) error {
	doc, _, err := DecodeDocumentJSON(data)
	if err != nil {
		return err
	}
	*d = doc
	return nil
}

// DecodeDocumentJSON decodes a document from its JSON list form. Entries that
// are neither strings nor template/function objects are skipped. Parameters
// with nested values are dropped and reported.
func DecodeDocumentJSON(data []byte) (Document, []Issue, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, nil, fmt.Errorf("document must be a JSON list: %w", err)
	}

	doc := make(Document, 0, len(entries))
	var issues []Issue
	for _, entry := range entries {
		entry = bytes.TrimSpace(entry)
		if len(entry) == 0 {
			continue
		}
		switch entry[0] {
		case '"':
			var text string
			if err := json.Unmarshal(entry, &text); err != nil {
				return nil, nil, err
			}
			doc = append(doc, PlainText{Value: text})
		case '{':
			var fields struct {
				Template *string         `json:"template"`
				Function *string         `json:"function"`
				Main     *string         `json:"main"`
				Params   json.RawMessage `json:"params"`
			}
			if err := json.Unmarshal(entry, &fields); err != nil {
				return nil, nil, err
			}
			if fields.Template == nil && fields.Function == nil {
				continue
			}
			params, paramIssues, err := DecodeParamsJSON(fields.Params, len(doc))
			if err != nil {
				return nil, nil, err
			}
			issues = append(issues, paramIssues...)
			doc = append(doc, newCall(fields.Template, fields.Function, fields.Main, params))
		}
	}
	return doc, issues, nil
}

func newCall(template, function, main *string, params *ParamMap) Record {
	if function != nil {
		fn := FunctionCall{Name: *function, Params: params}
		if main != nil {
			fn.MainParam = *main
			fn.HasMainParam = true
		}
		return fn
	}
	return TemplateCall{Name: *template, Params: params}
}

// UnmarshalYAML decodes a mapping node preserving key order. Entries with
// nested values are dropped; use DecodeDocumentYAML to see them.
func (p *ParamMap) UnmarshalYAML(node *yaml.Node) error {
	decoded, _, err := decodeParamsNode(node, 0)
	if err != nil {
		return err
	}
	*p = *decoded
	return nil
}

func decodeParamsNode(node *yaml.Node, index int) (*ParamMap, []Issue, error) {
	params := NewParamMap()
	if node == nil || (node.Kind == yaml.ScalarNode && node.Tag == "!!null") {
		return params, nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("line %d: params must be a mapping", node.Line)
	}

	var issues []Issue
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		var raw any
		if err := node.Content[i+1].Decode(&raw); err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", node.Content[i+1].Line, err)
		}
		v, err := FromAny(raw)
		if err != nil {
			issues = append(issues, Issue{Kind: InvalidParamShape, Record: index, Key: key, Err: err})
			continue
		}
		params.Set(key, v)
	}
	return params, issues, nil
}

// DecodeDocumentYAML decodes a document from its YAML list form. Since YAML
// is a superset of JSON it also accepts the JSON form.
func DecodeDocumentYAML(data []byte) (Document, []Issue, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, nil, err
	}
	if root.Kind == 0 {
		return Document{}, nil, nil
	}
	seq := &root
	if seq.Kind == yaml.DocumentNode && len(seq.Content) > 0 {
		seq = seq.Content[0]
	}
	if seq.Kind != yaml.SequenceNode {
		return nil, nil, fmt.Errorf("line %d: document must be a list", seq.Line)
	}

	doc := make(Document, 0, len(seq.Content))
	var issues []Issue
	for _, item := range seq.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			doc = append(doc, PlainText{Value: item.Value})
		case yaml.MappingNode:
			var (
				template, function, main *string
				paramsNode               *yaml.Node
			)
			for i := 0; i+1 < len(item.Content); i += 2 {
				value := item.Content[i+1]
				switch item.Content[i].Value {
				case "template":
					template = &value.Value
				case "function":
					function = &value.Value
				case "main":
					main = &value.Value
				case "params":
					paramsNode = value
				}
			}
			if template == nil && function == nil {
				continue
			}
			params, paramIssues, err := decodeParamsNode(paramsNode, len(doc))
			if err != nil {
				return nil, nil, err
			}
			issues = append(issues, paramIssues...)
			doc = append(doc, newCall(template, function, main, params))
		}
	}
	return doc, issues, nil
}

// ReadDocument decodes a document from r. JSON input is detected by its
// leading '[' and decoded with DecodeDocumentJSON; anything else is YAML.
func ReadDocument(r io.Reader) (Document, []Issue, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		doc, issues, err := DecodeDocumentJSON(trimmed)
		var syntaxErr *json.SyntaxError
		if err == nil || !errors.As(err, &syntaxErr) {
			return doc, issues, err
		}
		// Flow-style YAML lists also start with '['.
	}
	return DecodeDocumentYAML(data)
}
