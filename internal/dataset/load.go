// Package dataset loads the reading list and writes the enriched table.
package dataset

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/hyperifyio/readinglist/internal/record"
)

// ErrInvalidDataset is wrapped by every load failure caused by the input's
// shape rather than by I/O.
var ErrInvalidDataset = errors.New("invalid dataset")

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("dataset.json", bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("dataset.json")
	})
	return schema, schemaErr
}

type row struct {
	ID         *string `json:"id"`
	RawContent string  `json:"raw_content"`
	URL        *string `json:"url"`
}

type columns struct {
	ID         map[string]*string `json:"id"`
	RawContent map[string]string  `json:"raw_content"`
	URL        map[string]*string `json:"url"`
}

// LoadFile reads the dataset at path. See Load.
func LoadFile(path string) ([]*record.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Load reads a JSON dataset in either row form (an array of
// {raw_content, url, id?}) or column form ({"raw_content": {"0": ...},
// "url": {"0": ...}}). The document is checked against the dataset schema
// before decoding. Records get their load-order Index here and nowhere else.
func Load(r io.Reader) ([]*record.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	sch, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}

	if _, ok := v.([]any); ok {
		var rows []row
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
		}
		out := make([]*record.Record, len(rows))
		for i, rw := range rows {
			out[i] = record.New(i, record.Value(rw.ID), rw.RawContent, record.Value(rw.URL))
		}
		return out, nil
	}

	var cols columns
	if err := json.Unmarshal(data, &cols); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	keys := make([]string, 0, len(cols.RawContent))
	for k := range cols.RawContent {
		keys = append(keys, k)
	}
	nums := make(map[string]int, len(keys))
	for _, k := range keys {
		n, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("%w: row key %q", ErrInvalidDataset, k)
		}
		nums[k] = n
	}
	sort.Slice(keys, func(i, j int) bool { return nums[keys[i]] < nums[keys[j]] })
	out := make([]*record.Record, len(keys))
	for i, k := range keys {
		out[i] = record.New(i, record.Value(cols.ID[k]), cols.RawContent[k], record.Value(cols.URL[k]))
	}
	return out, nil
}
