package wikitext

import (
	"io"
	"log/slog"
	"sync"
)

// Settings holds the formatting options used when rendering markup.
// Parsing is not affected by them.
type Settings struct {
	// ArraymapSeparator joins the items of list parameters.
	ArraymapSeparator string `json:"arraymapSeparator"`

	// WikitextIndent is written before every parameter line in multiline mode.
	WikitextIndent string `json:"wikitextIndent"`

	// WikitextLinebreak terminates plain text, calls and multiline parameter lines.
	WikitextLinebreak string `json:"wikitextLinebreak"`
}

// DefaultSettings returns the documented defaults: ";" as separator, no
// indent and "\n" as line break.
func DefaultSettings() Settings {
	return Settings{
		ArraymapSeparator: ";",
		WikitextIndent:    "",
		WikitextLinebreak: "\n",
	}
}

// Overrides is a partial Settings. Nil fields leave the current value alone.
type Overrides struct {
	ArraymapSeparator *string `json:"arraymapSeparator,omitempty"`
	WikitextIndent    *string `json:"wikitextIndent,omitempty"`
	WikitextLinebreak *string `json:"wikitextLinebreak,omitempty"`
}

// Merge returns a copy of s with every non-nil field of o applied.
func (s Settings) Merge(o Overrides) Settings {
	if o.ArraymapSeparator != nil {
		s.ArraymapSeparator = *o.ArraymapSeparator
	}
	if o.WikitextIndent != nil {
		s.WikitextIndent = *o.WikitextIndent
	}
	if o.WikitextLinebreak != nil {
		s.WikitextLinebreak = *o.WikitextLinebreak
	}
	return s
}

// Codec renders and parses markup with a fixed set of Settings.
// A Codec is immutable and safe for concurrent use.
type Codec struct {
	settings Settings
	logger   *slog.Logger
}

// Option configures a Codec.
type Option func(*Codec)

// WithSettings sets the formatting settings.
// Default: DefaultSettings()
func WithSettings(s Settings) Option {
	return func(c *Codec) {
		c.settings = s
	}
}

// WithLogger sets the logger that receives debug output about dropped or
// malformed input. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Codec) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCodec returns a Codec with default settings, which can be overridden by
// providing one or more Option functions.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{
		settings: DefaultSettings(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Settings returns the codec's settings.
func (c *Codec) Settings() Settings {
	return c.settings
}

var (
	defaultMu    sync.RWMutex
	defaultCodec = NewCodec()
)

// Default returns the process-wide codec used by the package level functions.
func Default() *Codec {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultCodec
}

// GetSettings returns a copy of the process-wide settings.
func GetSettings() Settings {
	return Default().Settings()
}

// SetSettings merges o into the process-wide settings, stores the result and
// returns it. Codecs obtained earlier from Default keep their old settings.
func SetSettings(o Overrides) Settings {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	merged := defaultCodec.settings.Merge(o)
	defaultCodec = &Codec{settings: merged, logger: defaultCodec.logger}
	return merged
}

// ResetSettings restores the process-wide settings to DefaultSettings.
func ResetSettings() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultCodec = &Codec{settings: DefaultSettings(), logger: defaultCodec.logger}
}

// StringPtr is a helper for building Overrides literals.
func StringPtr(s string) *string {
	return &s
}
