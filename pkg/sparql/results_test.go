package sparql

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/CTAG07/Wikitext/pkg/wikitext"
)

const mockResults = `{
  "head": {"vars": ["c", "label_de", "label_en"]},
  "results": {"bindings": [
    {
      "c": {"type": "uri", "value": "http://www.wikidata.org/entity/Q238"},
      "label_de": {"xml:lang": "de", "type": "literal", "value": "San Marino"},
      "label_en": {"xml:lang": "en", "type": "literal", "value": "San Marino"}
    },
    {
      "c": {"type": "uri", "value": "http://www.wikidata.org/entity/Q347"},
      "label_en": {"xml:lang": "en", "type": "literal", "value": "Liechtenstein"}
    }
  ]}
}`

func loadMockResults(t *testing.T) *Results {
	t.Helper()
	var res Results
	if err := json.Unmarshal([]byte(mockResults), &res); err != nil {
		t.Fatalf("failed to decode mock results: %v", err)
	}
	return &res
}

func TestRowToTemplate(t *testing.T) {
	res := loadMockResults(t)
	result := RowToTemplate(wikitext.NewCodec(), "Country", res.Results.Bindings[0], res.Head.Vars, nil)
	if !strings.Contains(result, "label_de=San Marino") {
		t.Errorf("expected label_de parameter, got %q", result)
	}
	if !strings.HasPrefix(result, "{{Country\n|c=http://www.wikidata.org/entity/Q238\n") {
		t.Errorf("expected variables in head order, got %q", result)
	}
}

func TestRowToTemplateWithRenames(t *testing.T) {
	res := loadMockResults(t)
	names := RenamesFromMap(map[string]string{
		"label_de": "Label de",
		"label_en": "Label en",
	})
	result := RowToTemplate(wikitext.NewCodec(), "Country", res.Results.Bindings[0], res.Head.Vars, names)
	if !strings.Contains(result, "Label de=San Marino") {
		t.Errorf("expected renamed parameter, got %q", result)
	}
	if strings.Contains(result, "c=") {
		t.Errorf("unmapped column leaked into %q", result)
	}
}

func TestRowToParamsOrder(t *testing.T) {
	row := Row{
		"b":     {Value: "2"},
		"a":     {Value: "1"},
		"empty": {Value: ""},
	}
	if keys := RowToParams(row, nil, nil).Keys(); !reflect.DeepEqual(keys, []string{"a", "b"}) {
		t.Errorf("expected sorted keys without vars, got %v", keys)
	}
	if keys := RowToParams(row, []string{"b", "missing", "a"}, nil).Keys(); !reflect.DeepEqual(keys, []string{"b", "a"}) {
		t.Errorf("expected vars order, got %v", keys)
	}
	names := []Rename{{From: "b", To: "second"}, {From: "a", To: "first"}}
	if keys := RowToParams(row, nil, names).Keys(); !reflect.DeepEqual(keys, []string{"second", "first"}) {
		t.Errorf("expected rename order, got %v", keys)
	}
}

func TestResultsToDocument(t *testing.T) {
	res := loadMockResults(t)
	doc := res.ToDocument("Country", nil)
	if len(doc) != 2 {
		t.Fatalf("expected 2 records, got %d", len(doc))
	}
	got := wikitext.NewCodec().Render(doc, false)
	if !strings.Contains(got, "{{Country\n|c=http://www.wikidata.org/entity/Q347\n|label_en=Liechtenstein\n}}\n") {
		t.Errorf("unexpected document %q", got)
	}
}
