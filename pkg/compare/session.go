// Package compare holds the state of one compare page view: the run
// selection, the search filter and the comparison matrix derived from
// them.
package compare

import (
	"cmp"
	"slices"
	"sort"
	"strings"

	"github.com/ethpandaops/smbench/pkg/aggregate"
	"github.com/ethpandaops/smbench/pkg/category"
	"github.com/ethpandaops/smbench/pkg/label"
	"github.com/ethpandaops/smbench/pkg/model"
	"github.com/ethpandaops/smbench/pkg/vendor"
)

// Option configures a Session.
type Option func(*Session)

// WithResolver sets the vendor resolver used for logos and labels.
func WithResolver(r *vendor.Resolver) Option {
	return func(s *Session) {
		s.resolver = r
	}
}

// WithSelection preselects run ids.
func WithSelection(ids ...string) Option {
	return func(s *Session) {
		for _, id := range ids {
			s.selected[id] = struct{}{}
		}
	}
}

// WithQuery sets the initial search text.
func WithQuery(q string) Option {
	return func(s *Session) {
		s.query = normalizeQuery(q)
	}
}

// WithLayoutWidth sets the initial overall grid width in pixels.
func WithLayoutWidth(width float64) Option {
	return func(s *Session) {
		s.width = width
	}
}

type subscriber struct {
	id int
	fn func(View)
}

// Session is the comparison state of one page view. It is not safe for
// concurrent use.
type Session struct {
	runs       []model.Run
	categories []model.CategoryRef
	resolver   *vendor.Resolver

	selected map[string]struct{}
	query    string
	width    float64

	subscribers []subscriber
	nextSubID   int
	observer    func(Layout)
	closed      bool
}

// NewSession starts a session over runs, ranked by final score with ties
// in input order.
func NewSession(runs []model.Run, categories []model.CategoryRef, opts ...Option) *Session {
	s := &Session{
		runs:       aggregate.Leaderboard(runs),
		categories: slices.Clone(categories),
		selected:   make(map[string]struct{}, 4),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Toggle adds runID to the selection, or removes it when present. Ids
// that match no run are kept but never rendered.
func (s *Session) Toggle(runID string) View {
	if s.closed {
		return s.View()
	}

	if _, ok := s.selected[runID]; ok {
		delete(s.selected, runID)
	} else {
		s.selected[runID] = struct{}{}
	}

	return s.publish()
}

// SetSearchQuery filters the run list by model name and identifier.
func (s *Session) SetSearchQuery(text string) View {
	if s.closed {
		return s.View()
	}

	s.query = normalizeQuery(text)

	return s.publish()
}

// SetLayoutWidth records the overall grid width and notifies the layout
// observer.
func (s *Session) SetLayoutWidth(width float64) Layout {
	if s.closed {
		return s.layout(s.selectedRuns())
	}

	s.width = width
	l := s.layout(s.selectedRuns())

	if s.observer != nil {
		s.observer(l)
	}

	return l
}

// ObserveLayout installs the layout observer, replacing any previous one.
// The returned func detaches it.
func (s *Session) ObserveLayout(fn func(Layout)) func() {
	if s.closed {
		return func() {}
	}

	s.observer = fn

	return func() {
		s.observer = nil
	}
}

// Subscribe registers fn to receive the fresh view after every mutation.
func (s *Session) Subscribe(fn func(View)) func() {
	if s.closed {
		return func() {}
	}

	id := s.nextSubID
	s.nextSubID++
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})

	return func() {
		s.subscribers = slices.DeleteFunc(s.subscribers, func(sub subscriber) bool {
			return sub.id == id
		})
	}
}

// Close detaches subscribers and the layout observer. Later mutations are
// ignored.
func (s *Session) Close() {
	s.closed = true
	s.subscribers = nil
	s.observer = nil
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	return s.closed
}

// Selected returns the selected ids in sorted order.
func (s *Session) Selected() []string {
	ids := make([]string, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

// IsSelected reports whether id is selected.
func (s *Session) IsSelected(id string) bool {
	_, ok := s.selected[id]

	return ok
}

// Query returns the normalized search text.
func (s *Session) Query() string {
	return s.query
}

func (s *Session) publish() View {
	v := s.View()

	for _, sub := range s.subscribers {
		sub.fn(v)
	}

	return v
}

// View computes the complete render model from the current state.
func (s *Session) View() View {
	selected := s.selectedRuns()

	v := View{
		Query:      s.query,
		Runs:       s.runItems(),
		Selected:   s.Selected(),
		Empty:      len(selected) == 0,
		Overall:    []OverallEntry{},
		Categories: []CategoryBlock{},
		Layout:     s.layout(selected),
	}

	if v.Empty {
		v.EmptyMessage = EmptyMessage

		return v
	}

	v.Overall = s.overall(selected)
	v.Categories = s.matrix(selected)
	v.Footnote = category.Footnote

	return v
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

func (s *Session) matches(run *model.Run) bool {
	if s.query == "" {
		return true
	}

	haystack := strings.ToLower(run.ModelName + " " + run.ModelIdentifier)

	return strings.Contains(haystack, s.query)
}

func (s *Session) vendorOf(run *model.Run) *vendor.Match {
	m, ok := s.resolver.Resolve(run.ModelIdentifier, run.ModelName)
	if !ok {
		return nil
	}

	return &m
}

// selectedRuns returns selected runs in session order.
func (s *Session) selectedRuns() []*model.Run {
	out := make([]*model.Run, 0, len(s.selected))

	for i := range s.runs {
		if _, ok := s.selected[s.runs[i].ID]; ok {
			out = append(out, &s.runs[i])
		}
	}

	return out
}

func (s *Session) runItems() []RunItem {
	items := make([]RunItem, 0, len(s.runs))

	for i := range s.runs {
		run := &s.runs[i]
		if !s.matches(run) {
			continue
		}

		items = append(items, RunItem{
			ID:        run.ID,
			Label:     run.Label(),
			Vendor:    s.vendorOf(run),
			Scope:     aggregate.ScopeLabel(run, s.categories),
			Date:      aggregate.FormatDate(run.CompletedAt),
			Score:     run.Score(),
			ScoreText: aggregate.FormatPercent(run.Score()),
			Rating:    run.Rating(),
			Selected:  s.IsSelected(run.ID),
		})
	}

	return items
}

// rankByScore orders entries by score, highest first, then by label.
func rankByScore[T any](entries []T, score func(T) float64, name func(T) string) {
	coll := category.NewCollator()

	slices.SortStableFunc(entries, func(a, b T) int {
		if c := cmp.Compare(score(b), score(a)); c != 0 {
			return c
		}

		return coll.CompareString(name(a), name(b))
	})
}

func (s *Session) overall(selected []*model.Run) []OverallEntry {
	entries := make([]OverallEntry, 0, len(selected))

	for _, run := range selected {
		match := s.vendorOf(run)

		hint := ""
		if match != nil {
			hint = match.Label
		}

		entries = append(entries, OverallEntry{
			ID:         run.ID,
			Label:      run.Label(),
			ModelLabel: label.StripVendor(run.Label(), hint),
			Vendor:     match,
			Scope:      aggregate.ScopeLabel(run, s.categories),
			Date:       aggregate.FormatDate(run.CompletedAt),
			Score:      run.Score(),
			ScoreText:  aggregate.FormatPercent(run.Score()),
			BarWidth:   aggregate.BarWidth(run.Score()),
			Rating:     run.Rating(),
		})
	}

	rankByScore(entries,
		func(e OverallEntry) float64 { return e.Score },
		func(e OverallEntry) string { return e.Label },
	)

	return entries
}

// matrix builds one block per category present in any selected run.
func (s *Session) matrix(selected []*model.Run) []CategoryBlock {
	names := make([]string, 0, 8)
	seen := make(map[string]struct{}, 8)

	for _, run := range selected {
		for _, cs := range run.CategoryScores {
			if _, ok := seen[cs.CategoryName]; ok {
				continue
			}

			seen[cs.CategoryName] = struct{}{}
			names = append(names, cs.CategoryName)
		}
	}

	blocks := make([]CategoryBlock, 0, len(names))

	for _, name := range category.SortNames(names) {
		rows := make([]CategoryRow, 0, len(selected))

		for _, run := range selected {
			row := CategoryRow{
				RunID:  run.ID,
				Label:  run.Label(),
				Vendor: s.vendorOf(run),
			}

			if cs, ok := run.CategoryScoreByName(name); ok {
				row.Score = cs.Score.Float()
				row.Counts = cs.Counts
				row.Present = true
			}

			row.ScoreText = aggregate.FormatPercent(row.Score)
			rows = append(rows, row)
		}

		rankByScore(rows,
			func(r CategoryRow) float64 { return r.Score },
			func(r CategoryRow) string { return r.Label },
		)

		blocks = append(blocks, CategoryBlock{
			Name:  name,
			Label: category.Footnoted(name, ""),
			Rows:  rows,
		})
	}

	return blocks
}

func (s *Session) layout(selected []*model.Run) Layout {
	return Layout{
		Width:    s.width,
		Columns:  aggregate.GridColumns(s.width),
		SpanLast: aggregate.SpanLastCard(s.width, len(selected)),
	}
}
