package pager

import (
	"github.com/ethpandaops/smbench/pkg/model"
)

// Counts are the verdict counts of a group, pending included.
type Counts struct {
	Pass    int `json:"pass"`
	Partial int `json:"partial"`
	Fail    int `json:"fail"`
	Pending int `json:"pending"`
}

// Case is one visible entry of a group.
type Case struct {
	// Number is the 1-based position within the group.
	Number   int                   `json:"number"`
	Result   *model.TestCaseResult `json:"result"`
	Tag      string                `json:"tag"`
	TagClass string                `json:"tag_class"`
}

// Group is the results of one category with its own pager.
type Group struct {
	Name    string                 `json:"name"`
	Results []model.TestCaseResult `json:"-"`
	Counts  Counts                 `json:"counts"`
	Pager   Pager                  `json:"-"`
	// Revealed is set once RevealGroup has shown the whole group.
	Revealed bool `json:"revealed"`
}

// Visible returns the cases the pager currently allows.
func (g *Group) Visible() []Case {
	window := Window(g.Pager, g.Results)
	out := make([]Case, 0, len(window))

	for i := range window {
		r := &window[i]
		out = append(out, Case{
			Number:   i + 1,
			Result:   r,
			Tag:      TagLabel(r),
			TagClass: TagClass(r),
		})
	}

	return out
}

// Groups splits results by category name in first-seen order.
func Groups(results []model.TestCaseResult) []Group {
	index := make(map[string]int, 8)
	groups := make([]Group, 0, 8)

	for _, r := range results {
		name := r.TestCase.Category.Name

		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, Group{Name: name})
		}

		g := &groups[i]
		g.Results = append(g.Results, r)

		switch {
		case r.IsPending():
			g.Counts.Pending++
		case r.Is(model.VerdictPass):
			g.Counts.Pass++
		case r.Is(model.VerdictPartial):
			g.Counts.Partial++
		case r.Is(model.VerdictFail):
			g.Counts.Fail++
		default:
			g.Counts.Pending++
		}
	}

	for i := range groups {
		groups[i].Pager = New(len(groups[i].Results))
	}

	return groups
}

// CaseList is the grouped case list of one run page view.
type CaseList struct {
	groups []Group
	index  map[string]int
}

// NewCaseList groups results with every group collapsed.
func NewCaseList(results []model.TestCaseResult) *CaseList {
	groups := Groups(results)
	index := make(map[string]int, len(groups))

	for i, g := range groups {
		index[g.Name] = i
	}

	return &CaseList{groups: groups, index: index}
}

// Groups returns the groups in first-seen order.
func (c *CaseList) Groups() []Group {
	return c.groups
}

// Group returns the named group.
func (c *CaseList) Group(name string) (*Group, bool) {
	i, ok := c.index[name]
	if !ok {
		return nil, false
	}

	return &c.groups[i], true
}

// RevealGroup shows every case of the named group. It reports false for
// unknown groups.
func (c *CaseList) RevealGroup(name string) bool {
	g, ok := c.Group(name)
	if !ok {
		return false
	}

	g.Pager = g.Pager.RevealAll()
	g.Revealed = true

	return true
}

// Empty reports whether there are no results at all.
func (c *CaseList) Empty() bool {
	return len(c.groups) == 0
}
