package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/de-tools/book-atlas/pkg/models/domain"
)

type wrapped struct {
	Metadata map[string]any    `json:"metadata"`
	Data     []json.RawMessage `json:"data"`
}

// Decode reads a JSON array of flat objects, or an object wrapping the array under "data".
// Columns follow the first-seen key order across records.
func Decode(r io.Reader) (domain.Dataset, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("read dataset: %w", err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return domain.Dataset{}, fmt.Errorf("dataset is empty")
	}

	var items []json.RawMessage
	switch body[0] {
	case '[':
		if err := json.Unmarshal(body, &items); err != nil {
			return domain.Dataset{}, fmt.Errorf("decode dataset array: %w", err)
		}
	case '{':
		var w wrapped
		if err := json.Unmarshal(body, &w); err != nil {
			return domain.Dataset{}, fmt.Errorf("decode dataset object: %w", err)
		}
		items = w.Data
	default:
		return domain.Dataset{}, fmt.Errorf("dataset must be a JSON array or an object with a data array")
	}

	ds := domain.Dataset{
		Columns: []string{},
		Records: make([]domain.Record, 0, len(items)),
	}
	seen := make(map[string]bool)
	for i, raw := range items {
		rec, keys, err := decodeObject(raw)
		if err != nil {
			return domain.Dataset{}, fmt.Errorf("decode record %d: %w", i, err)
		}
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				ds.Columns = append(ds.Columns, k)
			}
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}

// decodeObject decodes one flat object keeping its key order.
func decodeObject(raw json.RawMessage) (domain.Record, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}

	rec := domain.Record{}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected key, got %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, nil, fmt.Errorf("field %q: %w", key, err)
		}
		if _, dup := rec[key]; !dup {
			keys = append(keys, key)
		}
		rec[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return rec, keys, nil
}
