package wikitext

// Record is one element of a Document. The only implementations are
// PlainText, TemplateCall and FunctionCall.
type Record interface {
	record()
}

// PlainText is literal markup, emitted verbatim.
type PlainText struct {
	Value string
}

// TemplateCall is a {{Name|key=value}} invocation.
type TemplateCall struct {
	Name   string
	Params *ParamMap
}

// FunctionCall is a {{Name:MainParam|key=value}} parser function invocation.
// Parsed function calls carry their name without the leading "#".
type FunctionCall struct {
	Name         string
	MainParam    string
	HasMainParam bool
	Params       *ParamMap
}

func (PlainText) record()    {}
func (TemplateCall) record() {}
func (FunctionCall) record() {}

// Main returns the main parameter as an optional value. A non-empty
// MainParam counts as present even when HasMainParam is false.
func (f FunctionCall) Main() *string {
	if !f.HasMainParam && f.MainParam == "" {
		return nil
	}
	s := f.MainParam
	return &s
}

// Document is an ordered sequence of records.
type Document []Record

// deref turns pointer variants into values. Nil pointers become nil.
func deref(rec Record) Record {
	switch r := rec.(type) {
	case *PlainText:
		if r != nil {
			return *r
		}
		return nil
	case *TemplateCall:
		if r != nil {
			return *r
		}
		return nil
	case *FunctionCall:
		if r != nil {
			return *r
		}
		return nil
	}
	return rec
}
