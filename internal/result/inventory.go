package result

import (
	"fmt"
	"reflect"
)

// Columns holds scalar inventory values. Numbers are stored as float64 so a
// JSON round trip reproduces the same map.
type Columns map[string]any

// Attributes is one node of the inventory tree. Nil and empty column maps
// are encoded distinctly as null and {}.
type Attributes struct {
	Path      []string `json:"path"`
	Inventory Columns  `json:"inventory_attributes"`
	Status    Columns  `json:"status_attributes"`
}

// TableRow is a repeatable row under Path, identified by its key columns.
type TableRow struct {
	Path      []string `json:"path"`
	Key       Columns  `json:"key_columns"`
	Inventory Columns  `json:"inventory_columns"`
	Status    Columns  `json:"status_columns"`
}

// InventorySet collects attributes and rows in insertion order.
type InventorySet struct {
	Attributes []Attributes `json:"inventory_attributes"`
	Rows       []TableRow   `json:"inventory_table_rows"`
}

// NewInventorySet returns an empty set.
func NewInventorySet() *InventorySet {
	return &InventorySet{
		Attributes: []Attributes{},
		Rows:       []TableRow{},
	}
}

// AddAttributes appends an attributes node.
func (s *InventorySet) AddAttributes(a Attributes) *InventorySet {
	s.Attributes = append(s.Attributes, a)
	return s
}

// AddTableRow appends a row.
func (s *InventorySet) AddTableRow(r TableRow) *InventorySet {
	s.Rows = append(s.Rows, r)
	return s
}

// RowsAt returns the rows stored under path.
func (s *InventorySet) RowsAt(path ...string) []TableRow {
	var rows []TableRow
	for _, row := range s.Rows {
		if reflect.DeepEqual(row.Path, path) {
			rows = append(rows, row)
		}
	}
	return rows
}

// Cols builds Columns from alternating key/value arguments. Values are
// normalized with Scalar; an empty result is nil.
func Cols(kv ...any) Columns {
	if len(kv)%2 != 0 {
		panic("result.Cols: odd number of arguments")
	}
	if len(kv) == 0 {
		return nil
	}
	cols := make(Columns, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("result.Cols: key %v is not a string", kv[i]))
		}
		cols[key] = Scalar(kv[i+1])
	}
	return cols
}

// Scalar normalizes v to nil, string, bool or float64.
// Nil pointers become nil and numbers become float64.
func Scalar(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	default:
		return fmt.Sprint(rv.Interface())
	}
}
