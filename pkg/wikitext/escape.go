package wikitext

import "strings"

// escaper protects the parameter separator and link brackets. It does not
// touch "{{", "}}", "=" or line breaks.
var escaper = strings.NewReplacer(
	"|", "&#124;",
	"[", "&#91;",
	"]", "&#93;",
)

// Escape replaces "|", "[" and "]" with their numeric character references
// in a single pass.
func Escape(s string) string {
	return escaper.Replace(s)
}

func identity(s string) string {
	return s
}
