// Package pager discloses long per-category case lists a page at a time.
package pager

import (
	"github.com/ethpandaops/smbench/pkg/model"
)

// PageSize is the number of cases shown before "Load rest".
const PageSize = 20

// NoResponseTag marks a failure caused by an empty model response.
const NoResponseTag = "fail-nr"

// State of a pager.
type State int

const (
	// Collapsed shows the first page only.
	Collapsed State = iota
	// FullyShown shows every item. It is terminal.
	FullyShown
)

// String implements fmt.Stringer.
func (s State) String() string {
	if s == FullyShown {
		return "fully_shown"
	}

	return "collapsed"
}

// Pager tracks how many of total items are visible. The zero value is an
// empty, fully shown pager.
type Pager struct {
	total   int
	visible int
}

// New returns a pager over total items showing the first page.
func New(total int) Pager {
	total = max(total, 0)

	return Pager{total: total, visible: min(PageSize, total)}
}

// Total returns the item count.
func (p Pager) Total() int {
	return p.total
}

// Visible returns how many items may be rendered.
func (p Pager) Visible() int {
	return p.visible
}

// HasMore reports whether items remain hidden.
func (p Pager) HasMore() bool {
	return p.visible < p.total
}

// State returns the pager state.
func (p Pager) State() State {
	if p.HasMore() {
		return Collapsed
	}

	return FullyShown
}

// RevealAll returns the pager with every item visible.
func (p Pager) RevealAll() Pager {
	p.visible = p.total

	return p
}

// Window returns the visible prefix of items.
func Window[T any](p Pager, items []T) []T {
	return items[:min(p.visible, len(items))]
}

// NoResponseFailure reports a fail verdict with an empty response. It
// only affects display, never verdict counts.
func NoResponseFailure(r *model.TestCaseResult) bool {
	return r.Is(model.VerdictFail) && r.NoResponse()
}

// TagLabel returns the verdict tag text of a case.
func TagLabel(r *model.TestCaseResult) string {
	if NoResponseFailure(r) {
		return NoResponseTag
	}

	if r.IsPending() {
		return model.VerdictPending
	}

	return string(*r.PassFail)
}

// TagClass returns the style class of a case's verdict tag. Pending cases
// share the partial styling.
func TagClass(r *model.TestCaseResult) string {
	if r.IsPending() {
		return string(model.VerdictPartial)
	}

	return string(*r.PassFail)
}
