package sparql

import (
	"sort"

	"github.com/CTAG07/Wikitext/pkg/wikitext"
)

// Binding is a single RDF term bound to a query variable.
type Binding struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// Row is one solution of a query, keyed by variable name.
type Row map[string]Binding

// Results is the top-level SPARQL JSON results document.
type Results struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []Row `json:"bindings"`
	} `json:"results"`
}

// Rename maps a query variable to a template parameter name.
type Rename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// RenamesFromMap converts a plain map into a rename list sorted by variable name.
func RenamesFromMap(m map[string]string) []Rename {
	names := make([]Rename, 0, len(m))
	for from, to := range m {
		names = append(names, Rename{From: from, To: to})
	}
	sort.Slice(names, func(i, j int) bool { return names[i].From < names[j].From })
	return names
}

// RowToParams copies the value of each binding in row into a parameter map.
//
// Without renames, every variable in vars is copied under its own name, in
// the order of vars; when vars is empty the row's keys are used in sorted
// order. With renames, only the listed variables are copied, in the order of
// the list, under their new names. Unbound variables and empty values are
// skipped.
func RowToParams(row Row, vars []string, names []Rename) *wikitext.ParamMap {
	params := wikitext.NewParamMap()

	if len(names) > 0 {
		for _, rename := range names {
			if b, ok := row[rename.From]; ok && b.Value != "" {
				params.Set(rename.To, wikitext.String(b.Value))
			}
		}
		return params
	}

	order := vars
	if len(order) == 0 {
		order = make([]string, 0, len(row))
		for name := range row {
			order = append(order, name)
		}
		sort.Strings(order)
	}
	for _, name := range order {
		if b, ok := row[name]; ok && b.Value != "" {
			params.Set(name, wikitext.String(b.Value))
		}
	}
	return params
}

// RowToTemplate renders one row as a multiline template call.
func RowToTemplate(codec *wikitext.Codec, templateName string, row Row, vars []string, names []Rename) string {
	return codec.RenderTemplate(templateName, RowToParams(row, vars, names), true, false)
}

// ToDocument converts every row of res into a template call.
func (res *Results) ToDocument(templateName string, names []Rename) wikitext.Document {
	doc := make(wikitext.Document, 0, len(res.Results.Bindings))
	for _, row := range res.Results.Bindings {
		doc = append(doc, wikitext.TemplateCall{
			Name:   templateName,
			Params: RowToParams(row, res.Head.Vars, names),
		})
	}
	return doc
}
