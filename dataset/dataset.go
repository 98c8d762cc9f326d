// Package dataset provides the tabular data accessor consumed by the
// orchestrator: ordered rows, named typed columns, and assembly of gonum
// matrices from a chosen predictor set. The accessor never mutates the
// caller's data; preprocessing always works on copies.
package dataset

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/modelbench/modelbench/pkg/errors"
)

// ColumnType classifies a column for preprocessing purposes.
type ColumnType int

const (
	// Numeric columns participate directly as features or targets.
	Numeric ColumnType = iota
	// Categorical columns hold string labels.
	Categorical
	// Temporal columns hold timestamps and are expanded into
	// year/month/day features.
	Temporal
)

// String returns the column type name.
func (t ColumnType) String() string {
	switch t {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	case Temporal:
		return "temporal"
	default:
		return "unknown"
	}
}

// Column is one named, typed column. Exactly one of the value slices is
// populated, matching Type.
type Column struct {
	Name    string
	Type    ColumnType
	Numeric []float64
	Labels  []string
	Times   []time.Time
}

// Len returns the number of rows in the column.
func (c Column) Len() int {
	switch c.Type {
	case Numeric:
		return len(c.Numeric)
	case Categorical:
		return len(c.Labels)
	case Temporal:
		return len(c.Times)
	}
	return 0
}

// Dataset is an ordered collection of equally sized columns.
type Dataset struct {
	columns []Column
	byName  map[string]int
	nRows   int
}

// New builds a Dataset from columns, validating that every column has the
// same number of rows and a unique name.
func New(columns ...Column) (*Dataset, error) {
	if len(columns) == 0 {
		return nil, errors.NewValueError("dataset.New", "no columns")
	}
	nRows := columns[0].Len()
	byName := make(map[string]int, len(columns))
	for i, col := range columns {
		if col.Name == "" {
			return nil, errors.NewValueError("dataset.New", "column with empty name")
		}
		if _, dup := byName[col.Name]; dup {
			return nil, errors.Newf("dataset.New: duplicate column %q", col.Name)
		}
		if col.Len() != nRows {
			return nil, errors.NewDimensionError("dataset.New", nRows, col.Len(), 0)
		}
		byName[col.Name] = i
	}
	return &Dataset{columns: columns, byName: byName, nRows: nRows}, nil
}

// NumRows returns the number of rows.
func (d *Dataset) NumRows() int {
	return d.nRows
}

// ColumnNames returns the column names in their stable order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.columns))
	for i, col := range d.columns {
		names[i] = col.Name
	}
	return names
}

// Column returns the named column.
func (d *Dataset) Column(name string) (Column, bool) {
	i, ok := d.byName[name]
	if !ok {
		return Column{}, false
	}
	return d.columns[i], true
}

// DistinctCount returns the number of distinct values in the named column.
// Used for problem-type inference on the target.
func (d *Dataset) DistinctCount(name string) (int, error) {
	col, ok := d.Column(name)
	if !ok {
		return 0, errors.NewNotFoundError("column", name, "")
	}
	switch col.Type {
	case Numeric:
		seen := make(map[float64]struct{}, len(col.Numeric))
		for _, v := range col.Numeric {
			seen[v] = struct{}{}
		}
		return len(seen), nil
	case Categorical:
		seen := make(map[string]struct{}, len(col.Labels))
		for _, v := range col.Labels {
			seen[v] = struct{}{}
		}
		return len(seen), nil
	case Temporal:
		seen := make(map[int64]struct{}, len(col.Times))
		for _, v := range col.Times {
			seen[v.UnixNano()] = struct{}{}
		}
		return len(seen), nil
	}
	return 0, errors.NewValueError("dataset.DistinctCount", "unknown column type")
}

// FeatureMatrix assembles the predictor matrix for the given columns.
// Numeric columns map to one feature each. Categorical columns are
// ordinal-encoded by first appearance. Temporal columns expand into
// year, month and day features. The returned names list the columns of
// the matrix in order.
func (d *Dataset) FeatureMatrix(names []string) (*mat.Dense, []string, error) {
	if len(names) == 0 {
		return nil, nil, errors.NewValueError("dataset.FeatureMatrix", "no predictor columns")
	}
	var features [][]float64
	var featureNames []string
	for _, name := range names {
		col, ok := d.Column(name)
		if !ok {
			return nil, nil, errors.NewNotFoundError("column", name, "")
		}
		switch col.Type {
		case Numeric:
			vals := make([]float64, len(col.Numeric))
			copy(vals, col.Numeric)
			features = append(features, vals)
			featureNames = append(featureNames, col.Name)
		case Categorical:
			codes := make([]float64, len(col.Labels))
			index := make(map[string]int)
			for i, label := range col.Labels {
				code, seen := index[label]
				if !seen {
					code = len(index)
					index[label] = code
				}
				codes[i] = float64(code)
			}
			features = append(features, codes)
			featureNames = append(featureNames, col.Name)
		case Temporal:
			years := make([]float64, len(col.Times))
			months := make([]float64, len(col.Times))
			days := make([]float64, len(col.Times))
			for i, ts := range col.Times {
				years[i] = float64(ts.Year())
				months[i] = float64(int(ts.Month()))
				days[i] = float64(ts.Day())
			}
			features = append(features, years, months, days)
			featureNames = append(featureNames,
				col.Name+"_year", col.Name+"_month", col.Name+"_day")
		}
	}
	X := mat.NewDense(d.nRows, len(features), nil)
	for j, vals := range features {
		for i, v := range vals {
			X.Set(i, j, v)
		}
	}
	return X, featureNames, nil
}
