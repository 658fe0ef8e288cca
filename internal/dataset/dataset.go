// Package dataset loads tabular files into header plus string rows.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Dataset is a header and rows of cells. Every row has len(Columns) cells.
type Dataset struct {
	Columns []string
	Rows    [][]string
}

// ErrUnsupported is returned for file extensions with no loader.
var ErrUnsupported = errors.New("unsupported dataset format")

// Load reads path, choosing the format from its extension: .csv, .tsv,
// .yaml/.yml or .json.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	var ds *Dataset
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		ds, err = ReadDelimited(f, ',')
	case ".tsv":
		ds, err = ReadDelimited(f, '\t')
	case ".yaml", ".yml", ".json":
		ds, err = ReadRecords(f)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupported)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return ds, nil
}

// ReadDelimited parses a header line followed by records.
func ReadDelimited(r io.Reader, comma rune) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse delimited: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("parse delimited: missing header")
	}
	ds := &Dataset{Columns: records[0]}
	for _, rec := range records[1:] {
		ds.Rows = append(ds.Rows, ds.fit(rec))
	}
	return ds, nil
}

// ReadRecords parses a YAML or JSON list of flat objects. Columns appear in
// first-seen key order.
func ReadRecords(r io.Reader) (*Dataset, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("parse records: empty document")
		}
		return nil, fmt.Errorf("parse records: %w", err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.SequenceNode {
		return nil, errors.New("parse records: expected a list of objects")
	}

	ds := &Dataset{}
	index := map[string]int{}
	var records []map[int]string
	for n, item := range root.Content {
		if item.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("parse records: item %d is not an object", n)
		}
		rec := map[int]string{}
		for i := 0; i+1 < len(item.Content); i += 2 {
			key, value := item.Content[i].Value, item.Content[i+1]
			col, ok := index[key]
			if !ok {
				col = len(ds.Columns)
				index[key] = col
				ds.Columns = append(ds.Columns, key)
			}
			rec[col] = scalar(value)
		}
		records = append(records, rec)
	}
	for _, rec := range records {
		row := make([]string, len(ds.Columns))
		for col, value := range rec {
			row[col] = value
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

// scalar renders a value node as a cell. Nested values are flattened to
// their YAML flow form; null reads as empty.
func scalar(n *yaml.Node) string {
	if n.Kind == yaml.ScalarNode {
		if n.Tag == "!!null" {
			return ""
		}
		return n.Value
	}
	n.Style = yaml.FlowStyle
	out, err := yaml.Marshal(n)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func (ds *Dataset) fit(rec []string) []string {
	row := make([]string, len(ds.Columns))
	copy(row, rec)
	return row
}
