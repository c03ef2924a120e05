// Package category resolves category names to canonical slugs and sorts
// categories into the fixed display order.
package category

import (
	"math"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Canonical slugs.
const (
	Overfit           = "overfit"
	EQBoundaries      = "eq-boundaries"
	NSFW              = "nsfw"
	NSFWSystem        = "nsfw-system"
	CreativeWriting   = "creative-writing"
	AntiHallucination = "anti-hallucination"
	Ambiguous         = "ambiguous"
	Adversarial       = "adversarial"
)

// Unknown is the order index of categories outside the canonical order.
const Unknown = math.MaxInt

// Footnote explains the overfit marker.
const Footnote = "* Overfit is weighted 2x in the overall score."

// Order is the canonical display order.
var Order = []string{
	Overfit,
	EQBoundaries,
	NSFW,
	NSFWSystem,
	CreativeWriting,
	AntiHallucination,
	Ambiguous,
	Adversarial,
}

// knownNames maps lower-cased display names to slugs where plain
// slugification would not produce the canonical slug.
var knownNames = map[string]string{
	"overfit":                          Overfit,
	"eq boundaries":                    EQBoundaries,
	"creative writing (mature themes)": CreativeWriting,
	"nsfw (explicit)":                  NSFW,
	"nsfw (system prompt)":             NSFWSystem,
	"ambiguous interpretation":         Ambiguous,
	"adversarial (hostile logic)":      Adversarial,
	"anti-hallucination":               AntiHallucination,
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Ref is the category identity of a sortable item.
type Ref struct {
	Name string
	Slug string
}

// Slugify lower-cases s, spells out '&' and collapses everything that is
// not a letter or digit into single dashes.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "&", "and")
	s = nonAlnum.ReplaceAllString(s, "-")

	return strings.Trim(s, "-")
}

// ResolveSlug returns the canonical slug for a category. An explicit slug
// wins over the name. It reports false when neither yields a slug.
func ResolveSlug(name, slug string) (string, bool) {
	if slug != "" {
		normalized := Slugify(slug)

		return normalized, normalized != ""
	}

	if name == "" {
		return "", false
	}

	if known, ok := knownNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return known, true
	}

	fallback := Slugify(name)

	return fallback, fallback != ""
}

// OrderIndex returns the position of slug in the canonical order, or
// Unknown.
func OrderIndex(slug string) int {
	if i := slices.Index(Order, slug); i >= 0 {
		return i
	}

	return Unknown
}

// IsOverfit reports whether the category is the double-weighted one.
func IsOverfit(name, slug string) bool {
	resolved, ok := ResolveSlug(name, slug)

	return ok && resolved == Overfit
}

// Footnoted returns name with the footnote marker for overfit.
func Footnoted(name, slug string) string {
	if IsOverfit(name, slug) {
		return name + "*"
	}

	return name
}

type sortKey struct {
	order int
	name  string
	index int
}

func keyOf(ref Ref, index int) sortKey {
	resolved, ok := ResolveSlug(ref.Name, ref.Slug)

	order := Unknown
	if ok {
		order = OrderIndex(resolved)
	}

	name := ref.Name
	if name == "" {
		name = resolved
	}

	return sortKey{
		order: order,
		name:  strings.ToLower(strings.TrimSpace(name)),
		index: index,
	}
}

// NewCollator returns the locale-aware string comparator used for name
// tie-breaks. Collators are not safe for concurrent use.
func NewCollator() *collate.Collator {
	return collate.New(language.English)
}

// Sort returns items ordered by canonical position, then name, then input
// position. The input slice is not modified.
func Sort[T any](items []T, get func(T) Ref) []T {
	type entry struct {
		item T
		key  sortKey
	}

	entries := make([]entry, len(items))
	for i, item := range items {
		var ref Ref
		if get != nil {
			ref = get(item)
		}

		entries[i] = entry{item: item, key: keyOf(ref, i)}
	}

	coll := NewCollator()

	slices.SortFunc(entries, func(a, b entry) int {
		if a.key.order != b.key.order {
			if a.key.order < b.key.order {
				return -1
			}

			return 1
		}

		if a.key.name != b.key.name {
			if c := coll.CompareString(a.key.name, b.key.name); c != 0 {
				return c
			}
		}

		return a.key.index - b.key.index
	})

	out := make([]T, len(entries))
	for i, e := range entries {
		out[i] = e.item
	}

	return out
}

// SortNames orders plain category names.
func SortNames(names []string) []string {
	return Sort(names, func(name string) Ref { return Ref{Name: name} })
}
