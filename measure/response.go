// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package measure

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// A Field is the metadata of one column of a selectRows response.
type Field struct {
	Name         string `json:"name"`
	FieldKeyPath string `json:"fieldKeyPath,omitempty"`
	Caption      string `json:"caption,omitempty"`
	Type         string `json:"type,omitempty"`
	JSONType     string `json:"jsonType,omitempty"`
	Measure      bool   `json:"measure,omitempty"`
	Dimension    bool   `json:"dimension,omitempty"`
}

// Key returns the column name the field's values are stored under.
func (f *Field) Key() string {
	if f.FieldKeyPath != "" {
		return f.FieldKeyPath
	}
	return f.Name
}

type selectRowsResponse struct {
	SchemaName    string                 `json:"schemaName"`
	QueryName     string                 `json:"queryName"`
	MetaData      map[string]interface{} `json:"metaData"`
	Rows          []Record               `json:"rows"`
	ColumnAliases interface{}            `json:"columnAliases"`
}

type selectRowsMetaData struct {
	Fields []*Field `json:"fields"`
}

// FromSelectRows returns a store over a selectRows or executeSql JSON
// response. If measures is nil, every field marked as a measure in the
// response metadata is a measure. Each column with field metadata
// gets its Field.
func FromSelectRows(data []byte, measures []Measure) (*Store, error) {
	var resp selectRowsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decoding selectRows response: %w", err)
	}
	var md struct {
		MetaData selectRowsMetaData `json:"metaData"`
	}
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("decoding selectRows metadata: %w", err)
	}
	fields := md.MetaData.Fields

	if measures == nil {
		for _, f := range fields {
			if !f.Measure {
				continue
			}
			name := f.Name
			if name == "" {
				name = f.Key()
			}
			measures = append(measures, Measure{Name: name})
		}
	}

	meta := map[string]interface{}{
		"schemaName": resp.SchemaName,
		"queryName":  resp.QueryName,
	}
	for k, v := range resp.MetaData {
		meta[k] = v
	}
	if resp.ColumnAliases != nil {
		meta["columnAliases"] = resp.ColumnAliases
	}

	s, err := New(Config{
		Measures:         measures,
		Records:          resp.Rows,
		ResponseMetadata: meta,
	})
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		if i, ok := s.columnMap[f.Key()]; ok && i > 0 {
			s.columns[i].Field = f
		}
	}
	return s, nil
}

// A GetDataMeasure is one entry of the measures list of a
// visualization getData request.
type GetDataMeasure struct {
	Measure struct {
		// Alias is the column name of the measure in the
		// response. If empty, it is
		// SchemaName_QueryName_Name.
		Alias      string `json:"alias,omitempty"`
		SchemaName string `json:"schemaName"`
		QueryName  string `json:"queryName"`
		Name       string `json:"name"`
		IsMeasure  bool   `json:"isMeasure"`
	} `json:"measure"`
}

// ColumnName returns the response column holding m.
func (m *GetDataMeasure) ColumnName() string {
	if m.Measure.Alias != "" {
		return m.Measure.Alias
	}
	return strings.Join([]string{m.Measure.SchemaName, m.Measure.QueryName, m.Measure.Name}, "_")
}

type getDataResponse struct {
	SchemaName     string      `json:"schemaName"`
	QueryName      string      `json:"queryName"`
	Rows           []Record    `json:"rows"`
	ColumnAliases  interface{} `json:"columnAliases"`
	ColumnAliasMap interface{} `json:"columnAliasMap"`
}

// RowIndexColumn is the column FromGetData adds to each record
// holding the record's position in the response.
const RowIndexColumn = "_rowIndex"

// FromGetData returns a store over a visualization getData JSON
// response. Only the entries of measures marked IsMeasure become
// measures of the store.
func FromGetData(data []byte, measures []GetDataMeasure) (*Store, error) {
	var resp getDataResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decoding getData response: %w", err)
	}

	var ms []Measure
	for i := range measures {
		if measures[i].Measure.IsMeasure {
			ms = append(ms, Measure{Name: measures[i].ColumnName()})
		}
	}

	meta := map[string]interface{}{
		"schemaName": resp.SchemaName,
		"queryName":  resp.QueryName,
	}
	if resp.ColumnAliasMap != nil {
		meta["columnAliasMap"] = resp.ColumnAliasMap
	} else {
		meta["columnAliases"] = resp.ColumnAliases
	}

	for i, rec := range resp.Rows {
		rec[RowIndexColumn] = map[string]interface{}{"value": i}
	}

	return New(Config{
		Measures:         ms,
		Records:          resp.Rows,
		ResponseMetadata: meta,
	})
}

type olapMember struct {
	Name       string `json:"name"`
	UniqueName string `json:"uniqueName"`
	Level      struct {
		UniqueName string `json:"uniqueName"`
	} `json:"level"`
}

type olapCell struct {
	Value     interface{}    `json:"value"`
	Positions [][]olapMember `json:"positions"`
}

type cellSet struct {
	Axes []struct {
		Positions [][]olapMember `json:"positions"`
	} `json:"axes"`
	Cells [][]olapCell `json:"cells"`
}

var (
	errCellSetNested      = errors.New("cellset: nesting on the ROWS axis is not supported")
	errCellSetNotMeasures = errors.New("cellset: expected measures on the ROWS axis")
)

// FromCellSet returns a store over an OLAP cellset JSON response with
// measures on axis 0 and level members on axis 1. Each row of cells
// becomes a record holding each member's name under its level's unique
// name and each cell's value under its measure's name.
//
// measures configures measures by name. Measures of the cellset that
// are not in measures are treated as pre-aggregated sums.
func FromCellSet(data []byte, measures []Measure) (*Store, error) {
	var cs cellSet
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, fmt.Errorf("decoding cellset: %w", err)
	}
	if len(cs.Axes) == 0 {
		return nil, fmt.Errorf("cellset has no axes")
	}

	byName := make(map[string]Measure)
	for _, m := range measures {
		byName[m.Name] = m
	}
	var ms []Measure
	for _, pos := range cs.Axes[0].Positions {
		if len(pos) != 1 {
			return nil, errCellSetNested
		}
		m := pos[0]
		if !strings.Contains(m.UniqueName, "[Measures].[") {
			return nil, fmt.Errorf("%w: %s", errCellSetNotMeasures, m.UniqueName)
		}
		cfg, ok := byName[m.Name]
		if !ok {
			cfg = Measure{Name: m.Name, SumColumn: m.Name}
		}
		ms = append(ms, cfg)
	}

	recs := make([]Record, len(cs.Cells))
	for i, cellRow := range cs.Cells {
		rec := make(Record)
		for j, cell := range cellRow {
			if len(cell.Positions) < 1 || len(cell.Positions[0]) < 1 {
				return nil, fmt.Errorf("cellset: cell %d,%d has no measure position", i, j)
			}
			if j == 0 && len(cell.Positions) > 1 {
				for _, member := range cell.Positions[1] {
					rec[member.Level.UniqueName] = member.Name
				}
			}
			rec[cell.Positions[0][0].Name] = cell.Value
		}
		recs[i] = rec
	}

	return New(Config{
		Measures: ms,
		Records:  recs,
	})
}
