package main

import (
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/CTAG07/Wikitext/pkg/wikitext"
)

const renderBody = `["Intro", {"template": "Country", "params": {"code": "en", "tags": ["a|b", "c"], "bad": {"x": 1}}}]`

func TestRenderEndpoint(t *testing.T) {
	env := setupTestServer(t, "")

	rr := env.do(t, http.MethodPost, "/api/wikitext/render", "application/json", renderBody, "")
	expectStatus(t, rr, http.StatusOK)
	var resp RenderResponse
	decodeBody(t, rr, &resp)
	if want := "Intro\n{{Country\n|code=en\n|tags=a&#124;b;c\n}}\n"; resp.Wikitext != want {
		t.Errorf("expected %q, got %q", want, resp.Wikitext)
	}
	if len(resp.Issues) != 1 || resp.Issues[0].Key != "bad" {
		t.Errorf("expected one issue for 'bad', got %+v", resp.Issues)
	}

	rr = env.do(t, http.MethodPost, "/api/wikitext/render?raw=1", "application/json", renderBody, "")
	expectStatus(t, rr, http.StatusOK)
	decodeBody(t, rr, &resp)
	if !strings.Contains(resp.Wikitext, "|tags=a|b;c\n") {
		t.Errorf("raw render escaped values: %q", resp.Wikitext)
	}

	yamlBody := "- Intro\n- function: \"#if\"\n  main: x\n"
	rr = env.do(t, http.MethodPost, "/api/wikitext/render", "application/yaml", yamlBody, "")
	expectStatus(t, rr, http.StatusOK)
	decodeBody(t, rr, &resp)
	if resp.Wikitext != "Intro\n{{#if:x}}\n" {
		t.Errorf("unexpected YAML render %q", resp.Wikitext)
	}

	expectStatus(t, env.do(t, http.MethodPost, "/api/wikitext/render", "application/json", `{"not": "a list"}`, ""), http.StatusBadRequest)
	expectStatus(t, env.do(t, http.MethodGet, "/api/wikitext/render", "", "", ""), http.StatusMethodNotAllowed)
}

func TestParseEndpoint(t *testing.T) {
	env := setupTestServer(t, "")

	rr := env.do(t, http.MethodPost, "/api/wikitext/parse", "text/plain", "Text\n{{#set:x|a=1|flag}}\n{{Tmpl}}", "")
	expectStatus(t, rr, http.StatusOK)
	var resp ParseResponse
	decodeBody(t, rr, &resp)

	if len(resp.Records) != 3 {
		t.Fatalf("expected 3 records, got %#v", resp.Records)
	}
	if resp.Records[0] != (wikitext.PlainText{Value: "Text"}) {
		t.Errorf("record 0 = %#v", resp.Records[0])
	}
	fn, ok := resp.Records[1].(wikitext.FunctionCall)
	if !ok || fn.Name != "set" || fn.MainParam != "x" {
		t.Fatalf("record 1 = %#v", resp.Records[1])
	}
	if v, _ := fn.Params.Get("a"); v.Text() != "1" {
		t.Errorf("expected a=1, got %#v", v)
	}
	if tmpl, ok := resp.Records[2].(wikitext.TemplateCall); !ok || tmpl.Name != "Tmpl" {
		t.Errorf("record 2 = %#v", resp.Records[2])
	}
	if len(resp.Issues) != 1 || resp.Issues[0].Kind != wikitext.MalformedCallBody {
		t.Errorf("expected one malformed segment issue, got %+v", resp.Issues)
	}

	rr = env.do(t, http.MethodPost, "/api/wikitext/parse", "text/plain", "", "")
	expectStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), `"records":[]`) {
		t.Errorf("empty markup should give an empty record list: %s", rr.Body.String())
	}
}

func TestEscapeTemplateFunctionEndpoints(t *testing.T) {
	env := setupTestServer(t, "")

	rr := env.do(t, http.MethodPost, "/api/wikitext/escape", "application/json", `{"text":"[[a|b]]"}`, "")
	expectStatus(t, rr, http.StatusOK)
	var esc map[string]string
	decodeBody(t, rr, &esc)
	if esc["text"] != "&#91;&#91;a&#124;b&#93;&#93;" {
		t.Errorf("unexpected escape %q", esc["text"])
	}

	rr = env.do(t, http.MethodPost, "/api/wikitext/template", "application/json",
		`{"name":"T","params":{"a":"1","b":"","c":true,"d":{"x":1}},"multiline":false}`, "")
	expectStatus(t, rr, http.StatusOK)
	var resp RenderResponse
	decodeBody(t, rr, &resp)
	if resp.Wikitext != "{{T|a=1|c}}\n" {
		t.Errorf("unexpected template %q", resp.Wikitext)
	}
	if len(resp.Issues) != 1 || resp.Issues[0].Key != "d" {
		t.Errorf("unexpected issues %+v", resp.Issues)
	}

	rr = env.do(t, http.MethodPost, "/api/wikitext/function", "application/json", `{"name":"#if","main":"x"}`, "")
	expectStatus(t, rr, http.StatusOK)
	decodeBody(t, rr, &resp)
	if resp.Wikitext != "{{#if:x}}\n" {
		t.Errorf("unexpected function %q", resp.Wikitext)
	}

	rr = env.do(t, http.MethodPost, "/api/wikitext/function", "application/json", `{"name":"#set","params":{"k":"v"},"multiline":true}`, "")
	expectStatus(t, rr, http.StatusOK)
	decodeBody(t, rr, &resp)
	if resp.Wikitext != "{{#set:\n|k=v\n}}\n" {
		t.Errorf("unexpected block function %q", resp.Wikitext)
	}

	expectStatus(t, env.do(t, http.MethodPost, "/api/wikitext/template", "application/json", `{"params":{}}`, ""), http.StatusBadRequest)
	expectStatus(t, env.do(t, http.MethodPost, "/api/wikitext/template", "application/json", `{"name":"T","params":[1]}`, ""), http.StatusBadRequest)
}

func TestSettingsEndpoint(t *testing.T) {
	env := setupTestServer(t, "")

	rr := env.do(t, http.MethodPatch, "/api/wikitext/settings", "application/json", `{"arraymapSeparator":", ","wikitextIndent":"  "}`, "")
	expectStatus(t, rr, http.StatusOK)
	var got wikitext.Settings
	decodeBody(t, rr, &got)
	want := wikitext.Settings{ArraymapSeparator: ", ", WikitextIndent: "  ", WikitextLinebreak: "\n"}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	rr = env.do(t, http.MethodGet, "/api/wikitext/settings", "", "", "")
	expectStatus(t, rr, http.StatusOK)
	decodeBody(t, rr, &got)
	if got != want {
		t.Errorf("GET returned %+v", got)
	}

	rr = env.do(t, http.MethodPost, "/api/wikitext/template", "application/json", `{"name":"T","params":{"l":["a","b"]},"multiline":true}`, "")
	var resp RenderResponse
	decodeBody(t, rr, &resp)
	if resp.Wikitext != "{{T\n  |l=a, b\n}}\n" {
		t.Errorf("render did not pick up new settings: %q", resp.Wikitext)
	}

	data, err := os.ReadFile(env.configPath)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if !strings.Contains(string(data), `"arraymapSeparator": ", "`) {
		t.Errorf("settings were not persisted: %s", data)
	}
	if cfg := env.cm.Get(); *cfg.Wikitext != want {
		t.Errorf("config manager holds %+v", cfg.Wikitext)
	}

	expectStatus(t, env.do(t, http.MethodDelete, "/api/wikitext/settings", "", "", ""), http.StatusMethodNotAllowed)
}
