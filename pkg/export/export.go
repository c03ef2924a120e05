// Package export writes the viewer as a static site: one HTML file per
// page, the JSON documents it was built from and the embedded assets.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ethpandaops/smbench/pkg/aggregate"
	"github.com/ethpandaops/smbench/pkg/compare"
	"github.com/ethpandaops/smbench/pkg/dataset"
	"github.com/ethpandaops/smbench/pkg/fsutil"
	"github.com/ethpandaops/smbench/pkg/model"
	"github.com/ethpandaops/smbench/pkg/render"
	"github.com/ethpandaops/smbench/pkg/storage"
	"github.com/ethpandaops/smbench/pkg/vendor"
)

const defaultConcurrency = 4

// Site file layout.
const (
	IndexFile   = "index.html"
	CompareFile = "compare.html"
	RunDir      = "run"
	DataDir     = "data"
	StaticDir   = "static"
	LogosDir    = "logos"
)

// Options configures an export.
type Options struct {
	OutputDir string
	Title     string
	// LogosDir is copied to logos/ when set.
	LogosDir    string
	Owner       *fsutil.OwnerConfig
	Concurrency int
}

// Result counts what an export wrote.
type Result struct {
	Pages int
	// GroupPages are the run pages with one long case group shown in full.
	GroupPages   int
	Placeholders int
	Documents    int
	Assets       int
	Logos        int
}

// Exporter renders every page of a dataset to disk.
type Exporter struct {
	log      logrus.FieldLogger
	source   *dataset.Source
	resolver *vendor.Resolver
	opts     Options
}

// NewExporter creates an exporter writing to opts.OutputDir.
func NewExporter(
	log logrus.FieldLogger,
	source *dataset.Source,
	resolver *vendor.Resolver,
	opts Options,
) *Exporter {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}

	return &Exporter{
		log:      log.WithField("component", "export"),
		source:   source,
		resolver: resolver,
		opts:     opts,
	}
}

// Export writes the site. Pages whose data cannot be loaded are written as
// placeholders; only write failures abort the export.
func (e *Exporter) Export(ctx context.Context) (*Result, error) {
	if e.opts.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}

	renderer, err := render.New(render.Site{Title: e.opts.Title, Static: true})
	if err != nil {
		return nil, fmt.Errorf("building renderer: %w", err)
	}

	if err := fsutil.MkdirAll(e.opts.OutputDir, 0o755, e.opts.Owner); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	var res Result

	if err := e.exportLeaderboard(ctx, renderer, &res); err != nil {
		return nil, err
	}

	if err := e.exportCompare(ctx, renderer, &res); err != nil {
		return nil, err
	}

	if err := e.exportRuns(ctx, renderer, &res); err != nil {
		return nil, err
	}

	assets, err := fsutil.CopyFS(e.path(StaticDir), render.StaticFS(), e.opts.Owner)
	if err != nil {
		return nil, fmt.Errorf("copying static assets: %w", err)
	}

	res.Assets = assets

	if e.opts.LogosDir != "" {
		logos, err := fsutil.CopyFS(e.path(LogosDir), os.DirFS(e.opts.LogosDir), e.opts.Owner)
		if err != nil {
			return nil, fmt.Errorf("copying logos: %w", err)
		}

		res.Logos = logos
	}

	e.log.WithFields(logrus.Fields{
		"output":       e.opts.OutputDir,
		"pages":        res.Pages,
		"group_pages":  res.GroupPages,
		"placeholders": res.Placeholders,
		"documents":    res.Documents,
	}).Info("Static site exported")

	return &res, nil
}

func (e *Exporter) exportLeaderboard(ctx context.Context, renderer *render.Renderer, res *Result) error {
	doc, err := e.source.Leaderboard(ctx)
	if err != nil {
		e.log.WithError(err).Warn("Leaderboard data unavailable")

		res.Placeholders++

		return e.writePage(IndexFile, func(w io.Writer) error {
			return renderer.Unavailable(w, render.PageLeaderboard)
		})
	}

	copied, err := e.copyRunsFile(ctx)
	if err != nil {
		return err
	}

	if copied {
		res.Documents++
	}

	res.Pages++

	return e.writePage(IndexFile, func(w io.Writer) error {
		return renderer.Leaderboard(w, aggregate.BuildLeaderboard(doc.Runs, e.resolver))
	})
}

// exportCompare writes the compare page with nothing selected; the static
// site has no server to hold a selection.
func (e *Exporter) exportCompare(ctx context.Context, renderer *render.Renderer, res *Result) error {
	doc, err := e.source.Compare(ctx)
	if err != nil {
		e.log.WithError(err).Warn("Compare data unavailable")

		res.Placeholders++

		return e.writePage(CompareFile, func(w io.Writer) error {
			return renderer.Unavailable(w, render.PageCompare)
		})
	}

	session := compare.NewSession(doc.Runs, doc.Categories, compare.WithResolver(e.resolver))
	defer session.Close()

	view := session.View()

	res.Pages++

	return e.writePage(CompareFile, func(w io.Writer) error {
		return renderer.Compare(w, view)
	})
}

func (e *Exporter) exportRuns(ctx context.Context, renderer *render.Renderer, res *Result) error {
	ids, err := e.source.RunIDs(ctx)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}

	var pages, groupPages, placeholders, documents atomic.Int64

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)

	for _, id := range ids {
		g.Go(func() error {
			name := path.Join(RunDir, id+".html")

			doc, err := e.source.Run(gCtx, id)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}

				e.log.WithError(err).WithField("run_id", id).Warn("Run data unavailable")
				placeholders.Add(1)

				return e.writePage(name, func(w io.Writer) error {
					return renderer.Unavailable(w, render.PageRun)
				})
			}

			copied, err := e.copyRunFile(gCtx, id)
			if err != nil {
				return err
			}

			if copied {
				documents.Add(1)
			}

			view := aggregate.BuildRun(doc, e.resolver)

			if err := e.writePage(name, func(w io.Writer) error {
				return renderer.Run(w, view)
			}); err != nil {
				return err
			}

			pages.Add(1)

			written, err := e.exportRunGroups(renderer, doc, id, view)
			if err != nil {
				return err
			}

			groupPages.Add(int64(written))

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("exporting runs: %w", err)
	}

	res.Pages += int(pages.Load())
	res.GroupPages += int(groupPages.Load())
	res.Placeholders += int(placeholders.Load())
	res.Documents += int(documents.Load())

	return nil
}

// exportRunGroups writes one page per collapsed case group of run id,
// rendered from a fresh view with that group revealed.
func (e *Exporter) exportRunGroups(
	renderer *render.Renderer,
	doc *model.RunDocument,
	id string,
	view aggregate.RunView,
) (int, error) {
	var written int

	for i, g := range view.Cases.Groups() {
		if !g.Pager.HasMore() {
			continue
		}

		revealed := aggregate.BuildRun(doc, e.resolver)
		revealed.Cases.RevealGroup(g.Name)

		if err := e.writePage(render.RevealFile(id, i), func(w io.Writer) error {
			return renderer.RevealedRun(w, revealed)
		}); err != nil {
			return written, err
		}

		written++
	}

	return written, nil
}

// copyRunsFile copies runs.json from storage to data/.
func (e *Exporter) copyRunsFile(ctx context.Context) (bool, error) {
	data, err := e.source.Reader().GetRunsFile(ctx)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", storage.RunsFile, err)
	}

	return e.writeDocument(storage.RunsFile, data)
}

// copyRunFile copies the document of run id from storage to data/runs/.
func (e *Exporter) copyRunFile(ctx context.Context, id string) (bool, error) {
	data, err := e.source.Reader().GetRunFile(ctx, id)
	if err != nil {
		return false, fmt.Errorf("reading run %q: %w", id, err)
	}

	return e.writeDocument(path.Join(storage.RunsDir, id+".json"), data)
}

func (e *Exporter) writeDocument(name string, data []byte) (bool, error) {
	if data == nil {
		return false, nil
	}

	if err := fsutil.WriteFile(e.path(path.Join(DataDir, name)), data, 0o644, e.opts.Owner); err != nil {
		return false, fmt.Errorf("writing %s: %w", name, err)
	}

	return true, nil
}

func (e *Exporter) writePage(name string, renderFn func(io.Writer) error) error {
	var buf bytes.Buffer

	if err := renderFn(&buf); err != nil {
		return fmt.Errorf("rendering %s: %w", name, err)
	}

	if err := fsutil.WriteFile(e.path(name), buf.Bytes(), 0o644, e.opts.Owner); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}

	return nil
}

func (e *Exporter) path(name string) string {
	return filepath.Join(e.opts.OutputDir, filepath.FromSlash(name))
}
