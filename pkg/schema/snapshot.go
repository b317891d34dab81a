// Package schema holds the in-memory model of the target datasource: an
// immutable snapshot of tables and columns with case-folded lookup indices.
// Snapshots are built once by the discoverer and shared read-only across
// requests; a refresh produces a whole new snapshot.
package schema

import (
	"fmt"
	"strings"
	"time"
)

// TenantColumn is the case-folded name of the tenant key. A table that
// declares this column (in any case) is tenant-bearing and every query
// touching it gets a tenant predicate injected.
const TenantColumn = "organizationid"

// DefaultSchema is preferred when a bare table name is ambiguous across
// schemas.
const DefaultSchema = "public"

// Table is the metadata for one physical table or view.
type Table struct {
	SchemaName string
	TableName  string
	IsView     bool
	Columns    []string // original case, declared order

	columnSet    map[string]struct{} // lower-cased membership
	canonical    map[string]string   // lower-cased -> original case
	hasTenantKey bool
}

// NewTable builds a Table with its case-folded indices. Column names are
// kept in declared order and original case.
func NewTable(schemaName, tableName string, isView bool, columns []string) *Table {
	t := &Table{
		SchemaName: schemaName,
		TableName:  tableName,
		IsView:     isView,
		Columns:    columns,
		columnSet:  make(map[string]struct{}, len(columns)),
		canonical:  make(map[string]string, len(columns)),
	}
	for _, col := range columns {
		lower := strings.ToLower(col)
		t.columnSet[lower] = struct{}{}
		t.canonical[lower] = col
	}
	_, t.hasTenantKey = t.columnSet[TenantColumn]
	return t
}

// Key is the lower-cased "schema.table" lookup key.
func (t *Table) Key() string {
	return strings.ToLower(t.SchemaName + "." + t.TableName)
}

// FullName is the table's qualified name in original case.
func (t *Table) FullName() string {
	return t.SchemaName + "." + t.TableName
}

// HasColumn reports whether the lower-cased column name exists on the table.
func (t *Table) HasColumn(lower string) bool {
	_, ok := t.columnSet[lower]
	return ok
}

// CanonicalColumn returns the column's original-case spelling for a
// lower-cased name.
func (t *Table) CanonicalColumn(lower string) (string, bool) {
	col, ok := t.canonical[lower]
	return col, ok
}

// HasTenantKey reports whether the table carries the tenant column.
func (t *Table) HasTenantKey() bool {
	return t.hasTenantKey
}

// TenantKeyColumn returns the tenant column in its original case. The
// second return is false for tables without a tenant key.
func (t *Table) TenantKeyColumn() (string, bool) {
	return t.CanonicalColumn(TenantColumn)
}

// Snapshot is an immutable collection of tables taken at one point in time.
// It is never mutated after construction; the registry swaps whole
// snapshots on refresh.
type Snapshot struct {
	Dialect     string
	RefreshedAt time.Time

	tables []*Table
	byKey  map[string]*Table   // lower "schema.table" -> table
	byBare map[string][]*Table // lower "table" -> tables across schemas
}

// NewSnapshot indexes the given tables. Table order is preserved and used
// by FormatForPrompt.
func NewSnapshot(refreshedAt time.Time, tables []*Table) *Snapshot {
	s := &Snapshot{
		Dialect:     "PostgreSQL",
		RefreshedAt: refreshedAt,
		tables:      tables,
		byKey:       make(map[string]*Table, len(tables)),
		byBare:      make(map[string][]*Table, len(tables)),
	}
	for _, t := range tables {
		s.byKey[t.Key()] = t
		bare := strings.ToLower(t.TableName)
		s.byBare[bare] = append(s.byBare[bare], t)
	}
	return s
}

// Tables returns the snapshot's tables in snapshot order. Callers must not
// mutate the returned slice.
func (s *Snapshot) Tables() []*Table {
	return s.tables
}

// ResolveTable looks a table up by name. With a schema qualifier the
// composite key must match exactly. A bare name that is ambiguous across
// schemas resolves to the public one; if none is public the name is
// treated as unknown.
func (s *Snapshot) ResolveTable(name, schemaName string) (*Table, bool) {
	if schemaName != "" {
		t, ok := s.byKey[strings.ToLower(schemaName+"."+name)]
		return t, ok
	}
	candidates := s.byBare[strings.ToLower(name)]
	switch len(candidates) {
	case 0:
		return nil, false
	case 1:
		return candidates[0], true
	default:
		for _, t := range candidates {
			if strings.EqualFold(t.SchemaName, DefaultSchema) {
				return t, true
			}
		}
		return nil, false
	}
}

// FormatForPrompt emits one "schema.table (col1, col2, ...)" line per
// table, views first, preserving snapshot order within each group. This is
// the schema context handed to the model.
func (s *Snapshot) FormatForPrompt() string {
	var b strings.Builder
	writeGroup := func(views bool) {
		for _, t := range s.tables {
			if t.IsView != views {
				continue
			}
			fmt.Fprintf(&b, "%s (%s)\n", t.FullName(), strings.Join(t.Columns, ", "))
		}
	}
	writeGroup(true)
	writeGroup(false)
	return b.String()
}
