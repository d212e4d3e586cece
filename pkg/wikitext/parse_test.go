package wikitext

import (
	"errors"
	"testing"
)

func TestParseScenario(t *testing.T) {
	doc, issues := NewCodec().Parse("Intro\n{{Country|code=en|label=England}}\nOutro")
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	if len(doc) != 3 {
		t.Fatalf("expected 3 records, got %d: %#v", len(doc), doc)
	}

	if text, ok := doc[0].(PlainText); !ok || text.Value != "Intro" {
		t.Errorf("record 0 = %#v, want PlainText(Intro)", doc[0])
	}
	tmpl, ok := doc[1].(TemplateCall)
	if !ok {
		t.Fatalf("record 1 = %#v, want TemplateCall", doc[1])
	}
	if tmpl.Name != "Country" {
		t.Errorf("expected name 'Country', got '%s'", tmpl.Name)
	}
	if !tmpl.Params.Equal(Params("code", "en", "label", "England")) {
		t.Errorf("unexpected params %v", tmpl.Params.Keys())
	}
	if text, ok := doc[2].(PlainText); !ok || text.Value != "Outro" {
		t.Errorf("record 2 = %#v, want PlainText(Outro)", doc[2])
	}

	want := "Intro\n{{Country\n|code=en\n|label=England\n}}\nOutro\n"
	if got := NewCodec().Render(doc, false); got != want {
		t.Errorf("re-rendered document = %q, want %q", got, want)
	}
}

func TestParseFunctionVersusTemplate(t *testing.T) {
	c := NewCodec()

	doc, _ := c.Parse("{{#set|a=1}}")
	fn, ok := doc[0].(FunctionCall)
	if !ok {
		t.Fatalf("expected FunctionCall, got %#v", doc[0])
	}
	if fn.Name != "set" || fn.HasMainParam {
		t.Errorf("unexpected function call %#v", fn)
	}
	if v, _ := fn.Params.Get("a"); v.Text() != "1" {
		t.Errorf("expected a=1, got %#v", v)
	}

	doc, _ = c.Parse("{{Infobox|a=1}}")
	if tmpl, ok := doc[0].(TemplateCall); !ok || tmpl.Name != "Infobox" {
		t.Errorf("expected TemplateCall Infobox, got %#v", doc[0])
	}
}

func TestParseFunctionMainParam(t *testing.T) {
	doc, _ := NewCodec().Parse("{{#if: {{{x}}} |then=yes}}")
	// The call ends at the first "}}", inside the triple-brace argument.
	fn, ok := doc[0].(FunctionCall)
	if ok {
		t.Fatalf("expected truncation before the pipe, got %#v", fn)
	}

	doc, _ = NewCodec().Parse("{{#ask: [[Category:City]] |limit=5}}")
	fn, ok = doc[0].(FunctionCall)
	if !ok {
		t.Fatalf("expected FunctionCall, got %#v", doc[0])
	}
	if fn.Name != "ask" || !fn.HasMainParam || fn.MainParam != "[[Category:City]]" {
		t.Errorf("unexpected function call %#v", fn)
	}
}

func TestParseWithoutParams(t *testing.T) {
	doc, _ := NewCodec().Parse("{{ Stub }}")
	tmpl, ok := doc[0].(TemplateCall)
	if !ok || tmpl.Name != "Stub" {
		t.Fatalf("expected TemplateCall Stub, got %#v", doc[0])
	}
	if tmpl.Params == nil || tmpl.Params.Len() != 0 {
		t.Errorf("expected an empty param map, got %v", tmpl.Params)
	}

	// Without a pipe even a "#" name stays a template call.
	doc, _ = NewCodec().Parse("{{#bare}}")
	if tmpl, ok := doc[0].(TemplateCall); !ok || tmpl.Name != "#bare" {
		t.Errorf("expected TemplateCall #bare, got %#v", doc[0])
	}
}

func TestParseNestingIsNotSupported(t *testing.T) {
	doc, _ := NewCodec().Parse("{{Outer|a={{Inner|b=1}}|c=2}}")
	if len(doc) != 2 {
		t.Fatalf("expected 2 records, got %d: %#v", len(doc), doc)
	}
	outer, ok := doc[0].(TemplateCall)
	if !ok || outer.Name != "Outer" {
		t.Fatalf("expected TemplateCall Outer, got %#v", doc[0])
	}
	if !outer.Params.Equal(Params("a", "{{Inner", "b", "1")) {
		t.Errorf("unexpected truncated params %v", outer.Params.Keys())
	}
	if text, ok := doc[1].(PlainText); !ok || text.Value != "|c=2}}" {
		t.Errorf("expected trailing text '|c=2}}', got %#v", doc[1])
	}
}

func TestParseDuplicateKeys(t *testing.T) {
	doc, _ := NewCodec().Parse("{{T|a=1|b=2|a=3}}")
	params := doc[0].(TemplateCall).Params
	if !params.Equal(Params("a", "3", "b", "2")) {
		t.Errorf("expected last write to win, got keys %v", params.Keys())
	}
}

func TestParseMalformedSegments(t *testing.T) {
	doc, issues := NewCodec().Parse("Lead {{T|flag| |a=1|=x}} tail")
	if len(doc) != 3 {
		t.Fatalf("expected 3 records, got %d", len(doc))
	}
	params := doc[1].(TemplateCall).Params
	if !params.Equal(Params("flag", true, "a", "1")) {
		t.Errorf("unexpected params %v", params.Keys())
	}

	if len(issues) != 3 {
		t.Fatalf("expected 3 issues, got %d: %v", len(issues), issues)
	}
	for _, issue := range issues {
		if issue.Kind != MalformedCallBody || issue.Record != 1 {
			t.Errorf("unexpected issue %+v", issue)
		}
		if !errors.Is(issue, ErrMalformedCallBody) {
			t.Errorf("issue %v does not wrap ErrMalformedCallBody", issue)
		}
	}
	if issues[0].Key != "flag" {
		t.Errorf("expected first issue for key 'flag', got %q", issues[0].Key)
	}
}

func TestParseEdgeCases(t *testing.T) {
	c := NewCodec()

	doc, _ := c.Parse("Text {{Broken")
	if len(doc) != 1 || doc[0] != (PlainText{Value: "Text {{Broken"}) {
		t.Errorf("unclosed call: got %#v", doc)
	}

	doc, _ = c.Parse("  {{ T | a = 1 }}  ")
	if len(doc) != 1 {
		t.Fatalf("expected 1 record, got %#v", doc)
	}
	if v, _ := doc[0].(TemplateCall).Params.Get("a"); v.Text() != "1" {
		t.Errorf("expected trimmed value '1', got %#v", v)
	}

	doc, _ = c.Parse("{{T|url=a=b}}")
	if v, _ := doc[0].(TemplateCall).Params.Get("url"); v.Text() != "a=b" {
		t.Errorf("expected split on first '=', got %#v", v)
	}

	doc, issues := c.Parse("")
	if len(doc) != 0 || len(issues) != 0 {
		t.Errorf("empty input: got %#v, %v", doc, issues)
	}
}

func TestParseRenderRoundTrip(t *testing.T) {
	c := NewCodec()
	doc := Document{
		PlainText{Value: "== Countries =="},
		TemplateCall{Name: "Country", Params: Params("code", "sm", "label", "San Marino")},
		FunctionCall{Name: "#set", Params: Params("capital", "City of San Marino", "member", true)},
		TemplateCall{Name: "Navbox", Params: NewParamMap()},
	}

	parsed, issues := c.Parse(c.Render(doc, false))
	if len(issues) != 1 || issues[0].Key != "member" {
		t.Fatalf("expected only the flag to be reported, got %v", issues)
	}
	if len(parsed) != len(doc) {
		t.Fatalf("expected %d records, got %d", len(doc), len(parsed))
	}
	if parsed[0] != doc[0] {
		t.Errorf("record 0: got %#v", parsed[0])
	}
	if tmpl := parsed[1].(TemplateCall); tmpl.Name != "Country" || !tmpl.Params.Equal(doc[1].(TemplateCall).Params) {
		t.Errorf("record 1: got %#v", parsed[1])
	}
	// "{{#set:" comes back with an empty main parameter; the flag survives.
	fn := parsed[2].(FunctionCall)
	if fn.Name != "set" || !fn.HasMainParam || fn.MainParam != "" {
		t.Errorf("record 2: got %#v", parsed[2])
	}
	if !fn.Params.Equal(doc[2].(FunctionCall).Params) {
		t.Errorf("record 2 params: got %v", fn.Params.Keys())
	}
	if tmpl := parsed[3].(TemplateCall); tmpl.Name != "Navbox" || tmpl.Params.Len() != 0 {
		t.Errorf("record 3: got %#v", parsed[3])
	}
}
