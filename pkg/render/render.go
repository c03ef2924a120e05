// Package render turns the view models of the leaderboard, run and
// compare pages into HTML documents.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"strings"

	"github.com/ethpandaops/smbench/pkg/aggregate"
	"github.com/ethpandaops/smbench/pkg/category"
	"github.com/ethpandaops/smbench/pkg/compare"
	"github.com/ethpandaops/smbench/pkg/pager"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page placeholder texts.
const (
	UnavailableMessage = "Unable to load data."
	RunNotFoundTitle   = "Run not found"
	NoRunsMessage      = "No completed runs yet."
	NoDataMessage      = "No data yet."
	NoResultsMessage   = "No results yet."
)

// Page names, also used as the body data-page attribute.
const (
	PageLeaderboard = "leaderboard"
	PageCompare     = "compare"
	PageRun         = "run"
)

// Site holds presentation settings shared by every page.
type Site struct {
	Title string
	// BasePath prefixes every absolute link when served from a subpath.
	BasePath string
	// Static renders links between exported files instead of server
	// routes.
	Static bool
}

// Links builds URLs between pages. Static pages link by relative file
// path; served pages link by route.
type Links struct {
	root   string
	static bool
}

func (s Site) links(depth int) Links {
	if s.Static {
		return Links{root: strings.Repeat("../", depth), static: true}
	}

	return Links{root: s.BasePath + "/"}
}

// Static reports whether links point at exported files.
func (l Links) Static() bool {
	return l.static
}

// Home links to the leaderboard.
func (l Links) Home() string {
	if l.static {
		return l.root + "index.html"
	}

	return l.root
}

// Compare links to the compare page.
func (l Links) Compare() string {
	if l.static {
		return l.root + "compare.html"
	}

	return l.root + "compare"
}

// Run links to the detail page of a run.
func (l Links) Run(id string) string {
	return l.root + "run/" + url.PathEscape(id) + ".html"
}

// Reveal links to a run page with one case group fully shown. Static
// pages link to the per-group file written by the export; index is the
// group's position on the run page.
func (l Links) Reveal(id string, index int, group string) string {
	if l.static {
		return l.root + RevealFile(url.PathEscape(id), index) + "#" + anchor(group)
	}

	return l.Run(id) + "?reveal=" + url.QueryEscape(group) + "#" + anchor(group)
}

// RevealFile is the site path of the static run page that shows group
// index of run id in full.
func RevealFile(id string, index int) string {
	return fmt.Sprintf("run/%s/group-%d.html", id, index+1)
}

// Logo links to a vendor logo file.
func (l Links) Logo(file string) string {
	return l.root + "logos/" + url.PathEscape(file)
}

// Asset links to an embedded static file.
func (l Links) Asset(name string) string {
	return l.root + "static/" + name
}

// Renderer executes the embedded page templates.
type Renderer struct {
	site      Site
	templates map[string]*template.Template
}

// New parses the page templates.
func New(site Site) (*Renderer, error) {
	if site.Title == "" {
		site.Title = "SM Bench"
	}

	site.BasePath = strings.TrimRight(site.BasePath, "/")

	pages := []string{PageLeaderboard, PageCompare, PageRun, "unavailable", "notfound"}
	templates := make(map[string]*template.Template, len(pages))

	for _, name := range pages {
		tmpl, err := template.New("layout.html").Funcs(funcMap()).ParseFS(
			templateFS,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}

		templates[name] = tmpl
	}

	return &Renderer{site: site, templates: templates}, nil
}

// StaticFS returns the stylesheet and other static files.
func StaticFS() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(fmt.Sprintf("static assets: %v", err))
	}

	return sub
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		// markdown prefers pre-rendered HTML and escapes the plain text
		// otherwise.
		"markdown": func(html, text string) template.HTML {
			if html != "" {
				return template.HTML(html) //nolint:gosec // trusted upstream render
			}

			return template.HTML(template.HTMLEscapeString(text)) //nolint:gosec // escaped
		},
		"percent": aggregate.FormatPercent,
		"score":   aggregate.FormatScore,
		"fixed":   aggregate.FormatFixed,
		"cost":    aggregate.FormatCost,
		"count":   aggregate.FormatCount,
		"compact": aggregate.FormatCompact,
		"latency": aggregate.FormatLatency,
		"css": func(v float64) template.CSS {
			return template.CSS(fmt.Sprintf("%.2f%%", v)) //nolint:gosec // numeric
		},
		"costPerPoint": func(v *float64) string {
			if v == nil {
				return "-"
			}

			return aggregate.FormatCost(*v)
		},
		"tokensPerPoint": func(v *float64) string {
			if v == nil {
				return "-"
			}

			return aggregate.FormatCount(int64(*v + 0.5))
		},
		"inc": func(i int) int {
			return i + 1
		},
		"withLinks": func(l Links, c aggregate.ScoreChartView) chartData {
			return chartData{Links: l, Chart: c}
		},
		"withModel": func(c pager.Case, modelLabel string) caseData {
			return caseData{Case: c, Model: modelLabel}
		},
	}
}

type chartData struct {
	Links Links
	Chart aggregate.ScoreChartView
}

type caseData struct {
	pager.Case
	Model string
}

type page struct {
	Site  Site
	Links Links
	Page  string
	Title string
	Data  any
}

func (r *Renderer) execute(w io.Writer, name string, p page) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}

	p.Site = r.site
	if p.Page == "" {
		p.Page = name
	}

	// Render to a buffer so a failing template never emits half a page.
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return fmt.Errorf("rendering %s page: %w", name, err)
	}

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("writing %s page: %w", name, err)
	}

	return nil
}

// Leaderboard renders the ranked run list and the top-runs chart.
func (r *Renderer) Leaderboard(w io.Writer, view aggregate.LeaderboardView) error {
	return r.execute(w, PageLeaderboard, page{
		Links: r.site.links(0),
		Title: "Leaderboard",
		Data:  view,
	})
}

// Compare renders the compare page for one session view.
func (r *Renderer) Compare(w io.Writer, view compare.View) error {
	return r.execute(w, PageCompare, page{
		Links: r.site.links(0),
		Title: "Compare",
		Data:  view,
	})
}

// Run renders the run detail page.
func (r *Renderer) Run(w io.Writer, view aggregate.RunView) error {
	links := r.site.links(1)

	return r.execute(w, PageRun, page{
		Links: links,
		Title: view.Summary.Title,
		Data:  newRunPage(view, links),
	})
}

// RevealedRun renders a run page stored one directory below the run
// pages, as RevealFile names it. The caller reveals the group first.
func (r *Renderer) RevealedRun(w io.Writer, view aggregate.RunView) error {
	links := r.site.links(2)

	return r.execute(w, PageRun, page{
		Links: links,
		Title: view.Summary.Title,
		Data:  newRunPage(view, links),
	})
}

// Unavailable renders the placeholder shown when the data of pageName
// could not be loaded.
func (r *Renderer) Unavailable(w io.Writer, pageName string) error {
	depth := 0
	if pageName == PageRun {
		depth = 1
	}

	return r.execute(w, "unavailable", page{
		Links: r.site.links(depth),
		Page:  pageName,
		Title: UnavailableMessage,
		Data:  UnavailableMessage,
	})
}

// RunNotFound renders the run page placeholder for a missing run.
func (r *Renderer) RunNotFound(w io.Writer) error {
	return r.execute(w, "notfound", page{
		Links: r.site.links(1),
		Page:  PageRun,
		Title: RunNotFoundTitle,
		Data:  RunNotFoundTitle,
	})
}

type caseGroup struct {
	Name   string
	Anchor string
	Counts pager.Counts
	Total  int
	Cases  []pager.Case
	// Open expands a revealed group on load.
	Open      bool
	HasMore   bool
	RevealURL string
}

type runPage struct {
	View   aggregate.RunView
	Groups []caseGroup
	Model  string
}

func newRunPage(view aggregate.RunView, links Links) runPage {
	p := runPage{
		View:  view,
		Model: view.Summary.Title,
	}

	if view.Cases == nil {
		return p
	}

	groups := view.Cases.Groups()
	p.Groups = make([]caseGroup, 0, len(groups))

	for i := range groups {
		g := &groups[i]

		p.Groups = append(p.Groups, caseGroup{
			Name:      g.Name,
			Anchor:    anchor(g.Name),
			Counts:    g.Counts,
			Total:     g.Pager.Total(),
			Cases:     g.Visible(),
			Open:      g.Revealed,
			HasMore:   g.Pager.HasMore(),
			RevealURL: links.Reveal(view.Summary.ID, i, g.Name),
		})
	}

	return p
}

func anchor(name string) string {
	return "group-" + category.Slugify(name)
}
