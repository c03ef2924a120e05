package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ScopeKind classifies the category scope of a run.
type ScopeKind int

// Scope kinds.
const (
	ScopeAll ScopeKind = iota
	ScopeSingle
	ScopeMultiple
	ScopeCustom
)

// Scope is the parsed form of a run's category filter.
type Scope struct {
	Kind ScopeKind
	IDs  []string
}

// ParseScope interprets a category filter. A filter that is not a
// non-empty JSON list yields ScopeCustom rather than an error.
func ParseScope(filter CategoryFilter) Scope {
	if strings.TrimSpace(string(filter)) == "" {
		return Scope{Kind: ScopeAll}
	}

	var parsed []any
	if err := json.Unmarshal([]byte(filter), &parsed); err != nil {
		return Scope{Kind: ScopeCustom}
	}

	ids := make([]string, 0, len(parsed))
	for _, v := range parsed {
		ids = append(ids, scalarString(v))
	}

	switch {
	case len(ids) == 1:
		return Scope{Kind: ScopeSingle, IDs: ids}
	case len(ids) > 1:
		return Scope{Kind: ScopeMultiple, IDs: ids}
	default:
		return Scope{Kind: ScopeCustom}
	}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%v", t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
