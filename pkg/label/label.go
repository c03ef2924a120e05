// Package label decomposes raw model labels into vendor and model parts
// and fits them into fixed-width chart ticks.
package label

import (
	"strings"
	"unicode/utf8"
)

// Ellipsis marks truncated text.
const Ellipsis = "..."

// Parts is a model label split into vendor and model.
type Parts struct {
	Vendor string `json:"vendor"`
	Model  string `json:"model"`
}

// Split decomposes raw into vendor and model and truncates both to
// maxLen runes. vendorHint, usually the resolved vendor label, is used
// when raw does not name the vendor itself. Model is never empty when
// raw is non-empty.
func Split(raw, vendorHint string, maxLen int) Parts {
	vendor, model := decompose(raw, vendorHint)
	if model == "" {
		model = raw
	}

	return Parts{
		Vendor: Truncate(vendor, maxLen),
		Model:  Truncate(model, maxLen),
	}
}

// StripVendor returns the model part of raw without truncation.
func StripVendor(raw, vendorHint string) string {
	_, model := decompose(raw, vendorHint)
	if model == "" {
		return raw
	}

	return model
}

func decompose(raw, vendorHint string) (string, string) {
	vendor := vendorHint
	model := raw

	switch {
	case strings.Contains(raw, ":"):
		parts := strings.Split(raw, ":")
		if v := strings.TrimSpace(parts[0]); v != "" {
			vendor = v
		}

		model = strings.TrimSpace(strings.Join(parts[1:], ":"))
	case strings.Contains(raw, "/"):
		parts := strings.Split(raw, "/")
		if vendor == "" {
			vendor = strings.TrimSpace(parts[0])
		}

		model = strings.TrimSpace(strings.Join(parts[1:], "/"))
	}

	if vendor == "" {
		vendor, _, _ = strings.Cut(raw, " ")
		if vendor == "" {
			vendor = raw
		}
	}

	if model == "" || model == raw {
		model = stripVendorPrefix(raw, vendor)
	}

	return vendor, model
}

// stripVendorPrefix drops a case-insensitive vendor prefix and one
// following ':' or '-' separator. It returns raw when nothing is left.
func stripVendorPrefix(raw, vendor string) string {
	if raw == "" || vendor == "" {
		return raw
	}

	if len(raw) < len(vendor) || !strings.EqualFold(raw[:len(vendor)], vendor) {
		return raw
	}

	trimmed := strings.TrimSpace(raw[len(vendor):])
	if strings.HasPrefix(trimmed, ":") || strings.HasPrefix(trimmed, "-") {
		trimmed = strings.TrimSpace(trimmed[1:])
	}

	if trimmed == "" {
		return raw
	}

	return trimmed
}

// Truncate shortens text longer than maxLen runes to its first maxLen-1
// runes followed by an ellipsis.
func Truncate(text string, maxLen int) string {
	if text == "" {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}

	return string(runes[:clampIndex(maxLen-1, len(runes))]) + Ellipsis
}

// Wrap greedily packs space separated words into lines of at most limit
// runes. Words longer than limit are split into limit sized chunks.
// The result always has at least one line.
func Wrap(text string, limit int) []string {
	limit = max(limit, 1)

	var (
		lines []string
		line  string
	)

	for _, word := range strings.Split(text, " ") {
		if word == "" {
			continue
		}

		wordLen := utf8.RuneCountInString(word)

		if wordLen > limit {
			if line != "" {
				lines = append(lines, line)
				line = ""
			}

			lines = append(lines, chunk(word, limit)...)

			continue
		}

		if line == "" {
			line = word

			continue
		}

		if utf8.RuneCountInString(line)+1+wordLen <= limit {
			line = line + " " + word
		} else {
			lines = append(lines, line)
			line = word
		}
	}

	if line != "" {
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return []string{""}
	}

	return lines
}

// WrapLimit wraps text and keeps at most maxLines lines, marking the
// last kept line with an ellipsis when lines were dropped. maxLines <= 0
// means no bound.
func WrapLimit(text string, limit, maxLines int) []string {
	lines := Wrap(text, limit)
	if maxLines <= 0 || len(lines) <= maxLines {
		return lines
	}

	lines = lines[:maxLines]

	last := []rune(lines[maxLines-1])
	if len(last) >= limit {
		lines[maxLines-1] = string(last[:clampIndex(max(1, limit-1), len(last))]) + Ellipsis
	} else {
		lines[maxLines-1] = string(last) + Ellipsis
	}

	return lines
}

func chunk(word string, size int) []string {
	runes := []rune(word)
	out := make([]string, 0, (len(runes)+size-1)/size)

	for i := 0; i < len(runes); i += size {
		out = append(out, string(runes[i:min(i+size, len(runes))]))
	}

	return out
}

func clampIndex(i, n int) int {
	return min(max(i, 0), n)
}
