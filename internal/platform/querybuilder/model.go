package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// MaxArgs bounds the bind arguments of one batched insert. SQLite allows
// 32766 and Postgres 65535 per statement.
const MaxArgs = 30000

var columnCache sync.Map // reflect.Type -> []fieldColumn

type fieldColumn struct {
	index int
	name  string
}

// InsertModel builds a single-row insert from the db tags of model.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	cols, vals, err := columnsAndValues(model)
	if err != nil {
		return "", nil, err
	}
	return InsertInto(table).
		Columns(cols...).
		Values(vals...).
		Suffix(suffix).
		ToSQL()
}

// Statement is one built query with its arguments.
type Statement struct {
	Query string
	Args  []any
}

// InsertModels builds multi-row inserts for models, splitting them so that
// no statement binds more than MaxArgs arguments.
func InsertModels[T any](table string, models []T) ([]Statement, error) {
	if len(models) == 0 {
		return nil, nil
	}
	cols, err := columnsOf(reflect.TypeOf(models[0]))
	if err != nil {
		return nil, err
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}

	perBatch := max(MaxArgs/len(cols), 1)
	out := make([]Statement, 0, (len(models)+perBatch-1)/perBatch)
	for start := 0; start < len(models); start += perBatch {
		end := min(start+perBatch, len(models))
		b := InsertInto(table).Columns(names...)
		for _, m := range models[start:end] {
			_, vals, err := columnsAndValues(m)
			if err != nil {
				return nil, err
			}
			b.Values(vals...)
		}
		query, args, err := b.ToSQL()
		if err != nil {
			return nil, err
		}
		out = append(out, Statement{Query: query, Args: args})
	}
	return out, nil
}

func columnsAndValues(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	cols, err := columnsOf(value.Type())
	if err != nil {
		return nil, nil, err
	}

	names := make([]string, len(cols))
	vals := make([]any, len(cols))
	for i, c := range cols {
		names[i] = c.name
		vals[i] = value.Field(c.index).Interface()
	}
	return names, vals, nil
}

func columnsOf(typ reflect.Type) ([]fieldColumn, error) {
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("model must be struct")
	}
	if cached, ok := columnCache.Load(typ); ok {
		return cached.([]fieldColumn), nil
	}

	cols := make([]fieldColumn, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		name = strings.TrimSpace(name)
		if name == "" || name == "-" {
			continue
		}
		cols = append(cols, fieldColumn{index: i, name: name})
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("model %s has no db columns", typ.Name())
	}

	columnCache.Store(typ, cols)
	return cols, nil
}
