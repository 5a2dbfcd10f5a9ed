// Package extract drives a backend.Backend entry by entry: read, classify,
// name, optionally decompress, write. A failing entry is logged and recorded,
// and extraction moves on to the next one.
package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/goopsie/assetExtract/backend"
	"github.com/goopsie/assetExtract/metrics"
	"github.com/goopsie/assetExtract/sniff"
)

// ErrUnsafePath is returned for names that resolve outside the output root.
var ErrUnsafePath = errors.New("path escapes output directory")

const gzipSuffix = ".gz"

// Option configures extraction.
type Option func(*Driver)

// WithGzipEntries enables inflating entries whose name ends in ".gz" and whose
// bytes carry a gzip or zlib signature. The suffix is dropped when they do.
func WithGzipEntries(enabled bool) Option {
	return func(d *Driver) {
		d.gzipEntries = enabled
	}
}

// WithStrict makes the first failing entry abort the run.
func WithStrict(strict bool) Option {
	return func(d *Driver) {
		d.strict = strict
	}
}

// WithLogger sets the logger. Failures are logged at Error level.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetrics records per entry counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Driver) {
		d.metrics = m
	}
}

// Driver extracts every entry of a backend into a Sink.
type Driver struct {
	sink        Sink
	gzipEntries bool
	strict      bool
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// New creates a Driver writing into sink.
func New(sink Sink, opts ...Option) *Driver {
	d := &Driver{
		sink:   sink,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ExtractAll extracts every entry of b into out.
func ExtractAll(b backend.Backend, out billy.Filesystem, opts ...Option) (*Report, error) {
	return New(NewFileSink(out), opts...).Run(b)
}

// Run processes entries 0..EntryCount-1 in order. The returned error is
// non-nil only in strict mode, where it is the first entry failure; the
// report then holds the outcomes up to and including that entry.
func (d *Driver) Run(b backend.Backend) (*Report, error) {
	count := b.EntryCount()
	report := &Report{Outcomes: make([]Outcome, 0, count)}

	for index := 0; index < count; index++ {
		outcome := d.extractEntry(b, index)
		report.Outcomes = append(report.Outcomes, outcome)

		if outcome.Err != nil {
			d.metrics.EntryFailed()
			d.logger.Error("failed to extract entry",
				slog.Int("index", index),
				slog.String("path", outcome.Path),
				slog.Any("error", outcome.Err))
			if d.strict {
				return report, fmt.Errorf("entry %d: %w", index, outcome.Err)
			}
			continue
		}

		d.metrics.EntryExtracted(outcome.Size, outcome.Decompressed)
		d.logger.Debug("extracted entry",
			slog.Int("index", index),
			slog.String("path", outcome.Path),
			slog.String("type", outcome.Type.String()),
			slog.Int("size", outcome.Size))
	}

	d.logger.Info("extraction finished",
		slog.Int("entries", count),
		slog.Int("written", report.Succeeded()),
		slog.Int("failed", count-report.Succeeded()))
	return report, nil
}

func (d *Driver) extractEntry(b backend.Backend, index int) Outcome {
	outcome := Outcome{Index: index}

	data, err := b.ReadEntry(index)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	dt, ext := sniff.Classify(data)
	name, ok := b.FilenameFor(index, ext, dt)
	if !ok {
		name = strconv.Itoa(index) + "." + ext
	}
	filepath, err := CleanPath(name)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Path = filepath

	if d.gzipEntries && hasSuffixFold(filepath, gzipSuffix) && Compressed(data) {
		inflated, err := Decompress(data)
		if err != nil {
			outcome.Err = fmt.Errorf("decompress %s: %w", filepath, err)
			return outcome
		}
		data = inflated
		filepath = filepath[:len(filepath)-len(gzipSuffix)]
		outcome.Path = filepath
		outcome.Decompressed = true
		dt, ext = sniff.Classify(data)
	}

	if err := d.sink.WriteFile(filepath, data); err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Type = dt
	outcome.Ext = ext
	outcome.Size = len(data)
	return outcome
}

// CleanPath turns an archive-declared name into a relative slash separated
// path: backslashes become slashes, leading separators are stripped and the
// result is cleaned. Names that are empty or climb above the root fail with
// ErrUnsafePath.
func CleanPath(name string) (string, error) {
	p := strings.TrimLeft(strings.ReplaceAll(name, `\`, "/"), "/")
	p = path.Clean(p)
	if p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	return p, nil
}

func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}
