// Package downloader fetches the files a manifest lists but that are missing
// locally, with bounded parallelism.
package downloader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/goopsie/assetExtract/extract"
	"github.com/goopsie/assetExtract/metrics"
	"github.com/remeh/sizedwaitgroup"
)

// WorkItem is one planned download.
type WorkItem struct {
	URL         string
	Destination string // slash separated, relative to the output filesystem
	Size        string // human readable compressed size
	Bytes       uint64
}

// Plan is the ordered list of downloads a manifest requires.
type Plan struct {
	Items      []WorkItem
	TotalBytes uint64
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithGameDirs adds read-only filesystems whose files also count as present.
func WithGameDirs(dirs ...billy.Filesystem) Option {
	return func(d *Downloader) {
		d.gameDirs = append(d.gameDirs, dirs...)
	}
}

// WithParallelism sets how many downloads run at once. Values below 1 are
// treated as 1.
func WithParallelism(n int) Option {
	return func(d *Downloader) {
		d.parallelism = max(n, 1)
	}
}

// WithDryRun logs planned URLs instead of fetching them.
func WithDryRun(dry bool) Option {
	return func(d *Downloader) {
		d.dryRun = dry
	}
}

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Downloader) {
		if client != nil {
			d.client = client
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Downloader) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetrics records fetch counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Downloader) {
		d.metrics = m
	}
}

// Downloader mirrors a remote manifest into an output filesystem.
type Downloader struct {
	server      string
	out         billy.Filesystem
	gameDirs    []billy.Filesystem
	parallelism int
	dryRun      bool
	client      *http.Client
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// New creates a Downloader fetching from server into out.
func New(server string, out billy.Filesystem, opts ...Option) *Downloader {
	d := &Downloader{
		server:      server,
		out:         out,
		parallelism: 1,
		client:      http.DefaultClient,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Plan lists every manifest entry with a positive version that exists neither
// in the output filesystem nor in a game dir. It touches nothing on disk.
func (d *Downloader) Plan(m *Manifest) *Plan {
	plan := &Plan{}
	seen := make(map[string]struct{})

	for ti := range m.Tables {
		table := &m.Tables[ti]
		if table.PackageInfo == nil {
			d.logger.Debug("skipping table without package info", slog.String("table", table.Name))
			continue
		}
		for i, entry := range table.Entries {
			version := table.version(i)
			if version <= 0 {
				continue
			}
			dest, err := extract.CleanPath(entry.Path)
			if err != nil {
				d.logger.Warn("skipping entry", slog.String("table", table.Name), slog.Any("error", err))
				continue
			}
			if _, dup := seen[dest]; dup {
				continue
			}
			seen[dest] = struct{}{}
			if d.exists(dest) {
				continue
			}

			plan.Items = append(plan.Items, WorkItem{
				URL:         d.server + "/" + strconv.FormatInt(version, 10) + "/" + entry.Path,
				Destination: dest,
				Size:        humanize.Bytes(entry.CompressedSize),
				Bytes:       entry.CompressedSize,
			})
			plan.TotalBytes += entry.CompressedSize
		}
	}

	d.logger.Warn(fmt.Sprintf("going to download %d bytes (%s)", plan.TotalBytes, humanize.Bytes(plan.TotalBytes)),
		slog.Int("files", len(plan.Items)))
	return plan
}

func (d *Downloader) exists(name string) bool {
	if _, err := d.out.Stat(name); err == nil {
		return true
	}
	for _, fs := range d.gameDirs {
		if _, err := fs.Stat(name); err == nil {
			return true
		}
	}
	return false
}

// Run downloads items with at most the configured number in flight. Every
// failed item leaves a zero-length file at its destination, so a later Plan
// treats it as present. Items not started before ctx is cancelled are
// reported as skipped with the context error.
func (d *Downloader) Run(ctx context.Context, items []WorkItem) *Report {
	report := &Report{Outcomes: make([]ItemOutcome, len(items))}
	swg := sizedwaitgroup.New(d.parallelism)

	for i, item := range items {
		if d.dryRun {
			d.logger.Info(item.URL, slog.String("size", item.Size))
			report.Outcomes[i] = ItemOutcome{Item: item, Skipped: true}
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = swg.AddWithContext(ctx)
		}
		if err != nil {
			for j := i; j < len(items); j++ {
				report.Outcomes[j] = ItemOutcome{Item: items[j], Err: err, Skipped: true}
			}
			break
		}
		go func() {
			defer swg.Done()
			report.Outcomes[i] = d.fetch(ctx, item)
		}()
	}
	swg.Wait()

	d.logger.Info("download finished",
		slog.Int("files", len(items)),
		slog.Int("failed", len(report.Failed())),
		slog.String("written", humanize.Bytes(uint64(report.BytesWritten()))))
	return report
}

func (d *Downloader) fetch(ctx context.Context, item WorkItem) ItemOutcome {
	done := d.metrics.FetchStarted()
	defer done()

	d.logger.Info(item.URL)
	n, err := d.download(ctx, item)
	if err != nil {
		err = fetchFailed(item.URL, err)
		if perr := util.WriteFile(d.out, item.Destination, nil, 0o644); perr != nil {
			d.logger.Error("failed to write placeholder",
				slog.String("destination", item.Destination),
				slog.Any("error", perr))
		}
		d.metrics.FetchFailed()
		d.logger.Error("download failed", slog.String("url", item.URL), slog.Any("error", err))
		return ItemOutcome{Item: item, Err: err}
	}

	d.metrics.FetchCompleted(n)
	d.logger.Info(fmt.Sprintf("downloaded %s to %s", item.Size, item.Destination))
	return ItemOutcome{Item: item, Written: n}
}

func (d *Downloader) download(ctx context.Context, item WorkItem) (int64, error) {
	if dir := path.Dir(item.Destination); dir != "." {
		if err := d.out.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	f, err := d.out.OpenFile(item.Destination, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}
