package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/CTAG07/Wikitext/pkg/wikitext"
	"github.com/fsnotify/fsnotify"
	"github.com/natefinch/atomic"
)

// ErrInvalidName is returned by FileSink when a page name cannot be used as a file name.
var ErrInvalidName = errors.New("invalid page name")

// Sink receives rendered markup.
type Sink interface {
	Put(ctx context.Context, name, markup string) error
}

// FileSink writes every page to <Dir>/<name>.wiki.
type FileSink struct {
	Dir string
}

// Put atomically replaces the file for name with markup.
func (f FileSink) Put(_ context.Context, name, markup string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err := os.MkdirAll(f.Dir, 0755); err != nil {
		return err
	}
	return atomic.WriteFile(filepath.Join(f.Dir, name+".wiki"), strings.NewReader(markup))
}

// Report describes the outcome of importing one descriptor.
type Report struct {
	File    string           `json:"file"`
	Name    string           `json:"name"`
	Records int              `json:"records"`
	Issues  []wikitext.Issue `json:"issues,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// Importer renders descriptor files from a source directory into a Sink.
type Importer struct {
	src    string
	codec  *wikitext.Codec
	sink   Sink
	logger *slog.Logger
}

// New creates an Importer reading from src. A nil codec follows the
// process-wide settings at the time of each import; a nil logger uses
// slog.Default().
func New(src string, codec *wikitext.Codec, sink Sink, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{src: src, codec: codec, sink: sink, logger: logger}
}

func (im *Importer) currentCodec() *wikitext.Codec {
	if im.codec == nil {
		return wikitext.Default()
	}
	return im.codec
}

// IsDescriptor reports whether path has a descriptor extension.
func IsDescriptor(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// PageName returns the page name a descriptor is imported under: its base
// name without the extension.
func PageName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ImportFile reads, renders and stores a single descriptor. Params with an
// invalid shape are dropped and listed in the report; they do not make the
// import fail.
func (im *Importer) ImportFile(ctx context.Context, path string) (Report, error) {
	report := Report{File: filepath.Base(path), Name: PageName(path)}

	fail := func(err error) (Report, error) {
		report.Error = err.Error()
		im.logger.Warn("Import failed", slog.String("file", path), slog.Any("error", err))
		return report, err
	}

	f, err := os.Open(path)
	if err != nil {
		return fail(err)
	}
	doc, issues, err := wikitext.ReadDocument(f)
	_ = f.Close()
	if err != nil {
		return fail(fmt.Errorf("failed to decode %s: %w", report.File, err))
	}

	report.Records = len(doc)
	report.Issues = issues
	for _, issue := range issues {
		im.logger.Warn("Dropped parameter",
			slog.String("file", path),
			slog.Int("record", issue.Record),
			slog.String("key", issue.Key),
			slog.String("kind", issue.Kind.String()),
		)
	}

	if err = im.sink.Put(ctx, report.Name, im.currentCodec().Render(doc, false)); err != nil {
		return fail(fmt.Errorf("failed to store %s: %w", report.Name, err))
	}

	im.logger.Info("Imported document",
		slog.String("file", path),
		slog.String("name", report.Name),
		slog.Int("records", report.Records),
		slog.Int("issues", len(issues)),
	)
	return report, nil
}

// ImportAll imports every descriptor in the source directory in name order.
// A failing file is recorded in its report and does not stop the run.
func (im *Importer) ImportAll(ctx context.Context) ([]Report, error) {
	entries, err := os.ReadDir(im.src)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	reports := []Report{}
	for _, entry := range entries {
		if entry.IsDir() || !IsDescriptor(entry.Name()) {
			continue
		}
		if err = ctx.Err(); err != nil {
			return reports, err
		}
		report, _ := im.ImportFile(ctx, filepath.Join(im.src, entry.Name()))
		reports = append(reports, report)
	}
	return reports, nil
}

// Watch re-imports descriptors in the source directory whenever they are
// created or written. It blocks until ctx is cancelled.
func (im *Importer) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func(watcher *fsnotify.Watcher) {
		_ = watcher.Close()
	}(watcher)

	if err = watcher.Add(im.src); err != nil {
		return fmt.Errorf("failed to watch %s: %w", im.src, err)
	}
	im.logger.Info("Watching for descriptor changes", slog.String("dir", im.src))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || !IsDescriptor(event.Name) {
				continue
			}
			_, _ = im.ImportFile(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			im.logger.Error("Watcher error", slog.Any("error", err))
		}
	}
}
