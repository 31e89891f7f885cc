package problem

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/abhisek/stepwise/internal/apperr"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed import_schema.json
var importSchemaJSON []byte

var (
	importSchemaOnce sync.Once
	importSchema     *jsonschema.Schema
	importSchemaErr  error
)

func compiledImportSchema() (*jsonschema.Schema, error) {
	importSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(importSchemaJSON))
		if err != nil {
			importSchemaErr = fmt.Errorf("parse import schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		const url = "schema://problem-import.json"
		if err := c.AddResource(url, doc); err != nil {
			importSchemaErr = fmt.Errorf("add import schema: %w", err)
			return
		}
		importSchema, importSchemaErr = c.Compile(url)
	})
	return importSchema, importSchemaErr
}

// ImportResult summarizes an Import run.
type ImportResult struct {
	Created int
	Skipped int // already present
	Failed  int
	Errors  []string
}

// Import reads a JSON array of problems from r and creates them one by
// one. Existing ids are skipped. progress, if non-nil, is called after
// each item with the number processed and the total.
func (s *Service) Import(ctx context.Context, r io.Reader, progress func(done, total int)) (*ImportResult, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read import: %w", err)
	}

	schema, err := compiledImportSchema()
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, apperr.Invalid("body", "is not valid JSON")
	}
	if err := schema.Validate(doc); err != nil {
		return nil, apperr.Invalid("body", err.Error())
	}

	var items []Problem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, apperr.Invalid("body", err.Error())
	}

	res := &ImportResult{}
	for i, p := range items {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		_, err := s.Create(ctx, p)
		var conflict *apperr.ConflictError
		var invalid *apperr.ValidationError
		switch {
		case err == nil:
			res.Created++
		case errors.As(err, &conflict):
			res.Skipped++
		case errors.As(err, &invalid):
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", p.ID, invalid.First()))
		default:
			return res, err
		}

		if progress != nil {
			progress(i+1, len(items))
		}
	}

	s.log.Info("problems imported",
		"created", res.Created, "skipped", res.Skipped, "failed", res.Failed)
	return res, nil
}
