package render

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/smbench/pkg/aggregate"
	"github.com/ethpandaops/smbench/pkg/compare"
	"github.com/ethpandaops/smbench/pkg/model"
	"github.com/ethpandaops/smbench/pkg/vendor"
)

func loadRun(t *testing.T, id string) *model.RunDocument {
	t.Helper()

	data, err := os.ReadFile("../dataset/testdata/runs/" + id + ".json")
	require.NoError(t, err)

	doc, err := model.DecodeRun(data)
	require.NoError(t, err)

	return doc
}

func loadLeaderboard(t *testing.T) *model.LeaderboardDocument {
	t.Helper()

	data, err := os.ReadFile("../dataset/testdata/runs.json")
	require.NoError(t, err)

	doc, err := model.DecodeLeaderboard(data)
	require.NoError(t, err)

	return doc
}

func newRenderer(t *testing.T, site Site) *Renderer {
	t.Helper()

	r, err := New(site)
	require.NoError(t, err)

	return r
}

func TestLinks(t *testing.T) {
	tests := []struct {
		name    string
		site    Site
		depth   int
		home    string
		compare string
		run     string
		logo    string
	}{
		{
			name:    "server root",
			site:    Site{},
			home:    "/",
			compare: "/compare",
			run:     "/run/run-gpt.html",
			logo:    "/logos/OpenAI.svg",
		},
		{
			name:    "server base path",
			site:    Site{BasePath: "/bench"},
			depth:   1,
			home:    "/bench/",
			compare: "/bench/compare",
			run:     "/bench/run/run-gpt.html",
			logo:    "/bench/logos/OpenAI.svg",
		},
		{
			name:    "static nested page",
			site:    Site{Static: true},
			depth:   1,
			home:    "../index.html",
			compare: "../compare.html",
			run:     "../run/run-gpt.html",
			logo:    "../logos/OpenAI.svg",
		},
		{
			name:    "static top page",
			site:    Site{Static: true},
			home:    "index.html",
			compare: "compare.html",
			run:     "run/run-gpt.html",
			logo:    "logos/OpenAI.svg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := tt.site.links(tt.depth)

			assert.Equal(t, tt.home, l.Home())
			assert.Equal(t, tt.compare, l.Compare())
			assert.Equal(t, tt.run, l.Run("run-gpt"))
			assert.Equal(t, tt.logo, l.Logo("OpenAI.svg"))
		})
	}
}

func TestLinks_Reveal(t *testing.T) {
	tests := []struct {
		name  string
		site  Site
		depth int
		want  string
	}{
		{
			name:  "server query",
			site:  Site{},
			depth: 1,
			want:  "/run/run-gpt.html?reveal=Custom+X#group-custom-x",
		},
		{
			name:  "static run page",
			site:  Site{Static: true},
			depth: 1,
			want:  "../run/run-gpt/group-2.html#group-custom-x",
		},
		{
			name:  "static revealed page",
			site:  Site{Static: true},
			depth: 2,
			want:  "../../run/run-gpt/group-2.html#group-custom-x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.site.links(tt.depth).Reveal("run-gpt", 1, "Custom X"))
		})
	}
}

func TestRevealFile(t *testing.T) {
	assert.Equal(t, "run/run-gpt/group-1.html", RevealFile("run-gpt", 0))
}

func TestRenderer_Leaderboard(t *testing.T) {
	r := newRenderer(t, Site{})
	doc := loadLeaderboard(t)

	var buf bytes.Buffer
	require.NoError(t, r.Leaderboard(&buf, aggregate.BuildLeaderboard(doc.Runs, vendor.Default())))

	html := buf.String()
	assert.Contains(t, html, `data-page="leaderboard"`)
	assert.Contains(t, html, "Leaderboard · SM Bench")
	assert.Contains(t, html, `href="/run/run-claude.html"`)
	assert.Contains(t, html, `src="/logos/OpenAI.svg"`)
	assert.Contains(t, html, "91.0%")
	assert.Contains(t, html, `<span aria-hidden="true">·</span>`)
	assert.NotContains(t, html, NoRunsMessage)

	// Highest score first.
	assert.Less(t,
		bytes.Index(buf.Bytes(), []byte("run-claude.html")),
		bytes.Index(buf.Bytes(), []byte("run-gpt.html")),
	)
}

func TestRenderer_LeaderboardEmpty(t *testing.T) {
	r := newRenderer(t, Site{Title: "Bench"})

	var buf bytes.Buffer
	require.NoError(t, r.Leaderboard(&buf, aggregate.BuildLeaderboard(nil, vendor.Default())))

	assert.Contains(t, buf.String(), NoRunsMessage)
	assert.Contains(t, buf.String(), NoDataMessage)
	assert.Contains(t, buf.String(), "Leaderboard · Bench")
}

func TestRenderer_Run(t *testing.T) {
	r := newRenderer(t, Site{})
	doc := loadRun(t, "run-gpt")

	var buf bytes.Buffer
	require.NoError(t, r.Run(&buf, aggregate.BuildRun(doc, vendor.Default())))

	html := buf.String()

	for _, want := range []string{
		`data-page="run"`,
		"SM Bench complete",
		"Status: <strong>completed</strong> | 3/4 tests complete",
		"Judged: 3/4",
		"SM Bench version: 1.2",
		"Tokens: 12,000 in / 3,400 out",
		"Cost: $1.2345",
		"82.50% (A)",
		"Model: $1.0000",
		"Judge: $0.2345",
		"Overfit*",
		"Easy 1 · Med 0 · Hard 1",
		`id="group-overfit"`,
		"2 cases",
		"Model latency: 120 ms",
		"Reference:",
		// Pre-rendered HTML is trusted.
		"<p>Spell <code>&lt;b&gt;bold&lt;/b&gt;</code> backwards.</p>",
		`src="/logos/OpenAI.svg"`,
	} {
		assert.Contains(t, html, want)
	}

	assert.NotContains(t, html, "Load rest")
	assert.NotContains(t, html, NoResultsMessage)
}

func TestRenderer_RunEscapesPlainText(t *testing.T) {
	r := newRenderer(t, Site{})
	doc := loadRun(t, "run-gpt")
	doc.Results[0].ModelResponse = "<script>alert(1)</script>"

	var buf bytes.Buffer
	require.NoError(t, r.Run(&buf, aggregate.BuildRun(doc, vendor.Default())))

	assert.NotContains(t, buf.String(), "<script>")
	assert.Contains(t, buf.String(), "&lt;script&gt;")
}

func TestRenderer_RunNoResults(t *testing.T) {
	r := newRenderer(t, Site{})
	doc := loadRun(t, "run-gpt")
	doc.Results = nil

	var buf bytes.Buffer
	require.NoError(t, r.Run(&buf, aggregate.BuildRun(doc, vendor.Default())))

	assert.Contains(t, buf.String(), NoResultsMessage)
}

func bigRun(t *testing.T, n int) *model.RunDocument {
	t.Helper()

	doc := loadRun(t, "run-gpt")
	base := doc.Results[0]
	doc.Results = make([]model.TestCaseResult, 0, n)

	for i := range n {
		r := base
		r.ModelResponse = fmt.Sprintf("answer %d", i+1)
		doc.Results = append(doc.Results, r)
	}

	return doc
}

func TestRenderer_RunPagesLongGroups(t *testing.T) {
	t.Run("server links to reveal", func(t *testing.T) {
		r := newRenderer(t, Site{})

		var buf bytes.Buffer
		require.NoError(t, r.Run(&buf, aggregate.BuildRun(bigRun(t, 25), vendor.Default())))

		html := buf.String()
		assert.Contains(t, html, "Load rest")
		assert.Contains(t, html, `href="/run/run-gpt.html?reveal=Overfit#group-overfit"`)
		assert.Contains(t, html, "answer 20")
		assert.NotContains(t, html, "answer 21")
	})

	t.Run("revealed group shows every case", func(t *testing.T) {
		r := newRenderer(t, Site{})
		view := aggregate.BuildRun(bigRun(t, 25), vendor.Default())
		require.True(t, view.Cases.RevealGroup("Overfit"))

		var buf bytes.Buffer
		require.NoError(t, r.Run(&buf, view))

		assert.Contains(t, buf.String(), "answer 25")
		assert.Contains(t, buf.String(), `<details class="category-group" id="group-overfit" open>`)
		assert.NotContains(t, buf.String(), "Load rest")
	})

	t.Run("collapsed groups stay closed", func(t *testing.T) {
		r := newRenderer(t, Site{})

		var buf bytes.Buffer
		require.NoError(t, r.Run(&buf, aggregate.BuildRun(bigRun(t, 25), vendor.Default())))

		assert.Contains(t, buf.String(), `<details class="category-group" id="group-overfit">`)
	})

	t.Run("static links to the group page", func(t *testing.T) {
		r := newRenderer(t, Site{Static: true})

		var buf bytes.Buffer
		require.NoError(t, r.Run(&buf, aggregate.BuildRun(bigRun(t, 60), vendor.Default())))

		html := buf.String()
		assert.Contains(t, html, `href="../run/run-gpt/group-1.html#group-overfit"`)
		assert.Contains(t, html, "answer 20")
		assert.NotContains(t, html, "answer 21")
		assert.NotContains(t, html, "?reveal=")
		assert.Equal(t, 20, strings.Count(html, `<details class="case-details">`))
	})

	t.Run("static revealed page", func(t *testing.T) {
		r := newRenderer(t, Site{Static: true})
		view := aggregate.BuildRun(bigRun(t, 60), vendor.Default())
		require.True(t, view.Cases.RevealGroup("Overfit"))

		var buf bytes.Buffer
		require.NoError(t, r.RevealedRun(&buf, view))

		html := buf.String()
		assert.Contains(t, html, "answer 60")
		assert.Contains(t, html, `href="../../index.html"`)
		assert.Contains(t, html, `href="../../static/style.css"`)
		assert.NotContains(t, html, "Load rest")
	})
}

func TestRenderer_Compare(t *testing.T) {
	r := newRenderer(t, Site{})
	doc := loadLeaderboard(t)

	t.Run("empty selection", func(t *testing.T) {
		s := compare.NewSession(doc.Runs, nil, compare.WithResolver(vendor.Default()))

		var buf bytes.Buffer
		require.NoError(t, r.Compare(&buf, s.View()))

		html := buf.String()
		assert.Contains(t, html, compare.EmptyMessage)
		assert.Contains(t, html, `action="/compare"`)
		assert.Contains(t, html, `value="run-gpt"`)
		assert.NotContains(t, html, "compare-table")
	})

	t.Run("selection renders matrix", func(t *testing.T) {
		s := compare.NewSession(doc.Runs, nil,
			compare.WithResolver(vendor.Default()),
			compare.WithSelection("run-gpt", "run-claude", "run-grok"),
			compare.WithLayoutWidth(500),
		)

		var buf bytes.Buffer
		require.NoError(t, r.Compare(&buf, s.View()))

		html := buf.String()
		assert.Contains(t, html, "compare-table")
		assert.Contains(t, html, "Overall 91.0%")
		assert.Contains(t, html, "Rating A&#43;")
		assert.Contains(t, html, "compare-overall-card--span")
		assert.Contains(t, html, "Overfit*")
		assert.Contains(t, html, `rowspan="3"`)
		assert.Contains(t, html, " checked")
		assert.NotContains(t, html, compare.EmptyMessage)
	})

	t.Run("search keeps hidden selection", func(t *testing.T) {
		s := compare.NewSession(doc.Runs, nil,
			compare.WithResolver(vendor.Default()),
			compare.WithSelection("run-gpt"),
			compare.WithQuery("claude"),
		)

		var buf bytes.Buffer
		require.NoError(t, r.Compare(&buf, s.View()))

		assert.Contains(t, buf.String(), `<input type="hidden" name="run" value="run-gpt">`)
	})
}

func TestRenderer_CompareStatic(t *testing.T) {
	r := newRenderer(t, Site{Static: true})
	doc := loadLeaderboard(t)

	s := compare.NewSession(doc.Runs, nil, compare.WithResolver(vendor.Default()))
	defer s.Close()

	var buf bytes.Buffer
	require.NoError(t, r.Compare(&buf, s.View()))

	html := buf.String()
	assert.Contains(t, html, "Comparing runs needs the live viewer (smbench serve).")
	assert.Contains(t, html, `href="run/run-gpt.html"`)
	assert.NotContains(t, html, "<form")
	assert.NotContains(t, html, `type="checkbox"`)
	assert.NotContains(t, html, "Update</button>")
	assert.NotContains(t, html, compare.EmptyMessage)
}

func TestRenderer_Placeholders(t *testing.T) {
	r := newRenderer(t, Site{})

	var buf bytes.Buffer
	require.NoError(t, r.Unavailable(&buf, PageRun))
	assert.Contains(t, buf.String(), UnavailableMessage)
	assert.Contains(t, buf.String(), `data-page="run"`)

	buf.Reset()
	require.NoError(t, r.RunNotFound(&buf))
	assert.Contains(t, buf.String(), RunNotFoundTitle)
}

func TestStaticFS(t *testing.T) {
	data, err := fs.ReadFile(StaticFS(), "style.css")
	require.NoError(t, err)
	assert.Contains(t, string(data), ".compare-overall-card--span")
}
