package model

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// ErrInvalidDocument is returned when a document does not match its schema
// or cannot be decoded.
var ErrInvalidDocument = errors.New("invalid document")

// DocumentKind names one of the published page documents.
type DocumentKind string

// Document kinds.
const (
	KindLeaderboard DocumentKind = "leaderboard"
	KindCompare     DocumentKind = "compare"
	KindRun         DocumentKind = "run"
)

var (
	schemasOnce sync.Once
	schemas     map[DocumentKind]*gojsonschema.Schema
	schemasErr  error
)

func loadSchemas() (map[DocumentKind]*gojsonschema.Schema, error) {
	schemasOnce.Do(func() {
		defs, err := readSchemaFile("defs.json")
		if err != nil {
			schemasErr = err

			return
		}

		compiled := make(map[DocumentKind]*gojsonschema.Schema, 3)

		for _, kind := range []DocumentKind{KindLeaderboard, KindCompare, KindRun} {
			doc, err := readSchemaFile(string(kind) + ".json")
			if err != nil {
				schemasErr = err

				return
			}

			// Documents reference the shared definitions locally.
			doc["definitions"] = defs["definitions"]

			schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
			if err != nil {
				schemasErr = fmt.Errorf("compiling %s schema: %w", kind, err)

				return
			}

			compiled[kind] = schema
		}

		schemas = compiled
	})

	return schemas, schemasErr
}

func readSchemaFile(name string) (map[string]any, error) {
	data, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", name, err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parsing schema %s: %w", name, err)
	}

	return out, nil
}

// Validate checks data against the schema of the given document kind.
// Schema violations are reported as ErrInvalidDocument.
func Validate(kind DocumentKind, data []byte) error {
	all, err := loadSchemas()
	if err != nil {
		return err
	}

	schema, ok := all[kind]
	if !ok {
		return fmt.Errorf("unknown document kind %q", kind)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidDocument, kind, err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}

	return fmt.Errorf("%w: %s: %s", ErrInvalidDocument, kind, strings.Join(details, "; "))
}
