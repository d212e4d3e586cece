package wikitext

import "strings"

// RenderParams renders the parameter body of a call. Absent and empty values
// are skipped. In multiline mode each entry is prefixed with the configured
// indent and terminated with the configured line break; otherwise entries are
// simply concatenated.
func (c *Codec) RenderParams(params *ParamMap, multiline, escapeDisabled bool) string {
	var sb strings.Builder
	c.writeParams(&sb, params, multiline, escapeDisabled)
	return sb.String()
}

func (c *Codec) writeParams(sb *strings.Builder, params *ParamMap, multiline, escapeDisabled bool) {
	indent, lineBreak := "", ""
	if multiline {
		indent, lineBreak = c.settings.WikitextIndent, c.settings.WikitextLinebreak
	}
	esc := Escape
	if escapeDisabled {
		esc = identity
	}

	params.Range(func(key string, v Value) bool {
		if v.IsEmpty() {
			return true
		}
		sb.WriteString(indent)
		sb.WriteString("|")
		sb.WriteString(key)
		switch v.Kind() {
		case KindString:
			sb.WriteString("=")
			sb.WriteString(esc(v.str))
		case KindList:
			sb.WriteString("=")
			for i, item := range v.items {
				if i > 0 {
					sb.WriteString(c.settings.ArraymapSeparator)
				}
				sb.WriteString(esc(item))
			}
		}
		sb.WriteString(lineBreak)
		return true
	})
}

// hasRenderable reports whether at least one entry of params survives rendering.
func hasRenderable(params *ParamMap) bool {
	found := false
	params.Range(func(_ string, v Value) bool {
		found = !v.IsEmpty()
		return !found
	})
	return found
}

// frameBreak is the line break written after "{{name" and before the
// parameter block. It follows the multiline flag.
func (c *Codec) frameBreak(multiline bool) string {
	if multiline {
		return c.settings.WikitextLinebreak
	}
	return ""
}

// RenderTemplate renders a template call. A call without parameters is
// rendered in compact form, "{{name}}", followed by the line break.
func (c *Codec) RenderTemplate(name string, params *ParamMap, multiline, escapeDisabled bool) string {
	lineBreak := c.settings.WikitextLinebreak
	if !hasRenderable(params) {
		return "{{" + name + "}}" + lineBreak
	}

	var sb strings.Builder
	sb.WriteString("{{")
	sb.WriteString(name)
	sb.WriteString(c.frameBreak(multiline))
	c.writeParams(&sb, params, multiline, escapeDisabled)
	sb.WriteString("}}")
	sb.WriteString(lineBreak)
	return sb.String()
}

// RenderFunction renders a parser function call. mainParam may be nil.
// Without parameters and with a main parameter the call is rendered compactly
// as "{{name:main}}"; otherwise the block form is used.
func (c *Codec) RenderFunction(name string, params *ParamMap, mainParam *string, multiline, escapeDisabled bool) string {
	lineBreak := c.settings.WikitextLinebreak
	main := ""
	if mainParam != nil {
		main = *mainParam
	}
	if !hasRenderable(params) && mainParam != nil {
		return "{{" + name + ":" + main + "}}" + lineBreak
	}

	var sb strings.Builder
	sb.WriteString("{{")
	sb.WriteString(name)
	sb.WriteString(":")
	sb.WriteString(main)
	sb.WriteString(c.frameBreak(multiline))
	c.writeParams(&sb, params, multiline, escapeDisabled)
	sb.WriteString("}}")
	sb.WriteString(lineBreak)
	return sb.String()
}

// Render renders a whole document by concatenating its records in order.
// Calls are always rendered in multiline form. Nil records are skipped.
func (c *Codec) Render(doc Document, escapeDisabled bool) string {
	var sb strings.Builder
	for _, rec := range doc {
		switch r := deref(rec).(type) {
		case PlainText:
			sb.WriteString(r.Value)
			sb.WriteString(c.settings.WikitextLinebreak)
		case FunctionCall:
			sb.WriteString(c.RenderFunction(r.Name, r.Params, r.Main(), true, escapeDisabled))
		case TemplateCall:
			sb.WriteString(c.RenderTemplate(r.Name, r.Params, true, escapeDisabled))
		}
	}
	return sb.String()
}

// RenderParams renders params with the process-wide codec.
func RenderParams(params *ParamMap, multiline, escapeDisabled bool) string {
	return Default().RenderParams(params, multiline, escapeDisabled)
}

// RenderTemplate renders a template call with the process-wide codec.
func RenderTemplate(name string, params *ParamMap, multiline, escapeDisabled bool) string {
	return Default().RenderTemplate(name, params, multiline, escapeDisabled)
}

// RenderFunction renders a parser function call with the process-wide codec.
func RenderFunction(name string, params *ParamMap, mainParam *string, multiline, escapeDisabled bool) string {
	return Default().RenderFunction(name, params, mainParam, multiline, escapeDisabled)
}

// Render renders a document with the process-wide codec.
func Render(doc Document, escapeDisabled bool) string {
	return Default().Render(doc, escapeDisabled)
}
