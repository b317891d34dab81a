package sql

import (
	"strings"
)

// tenantParamNumber is the positional parameter carrying the tenant
// identifier. It is always 1: candidate SQL with its own parameters is
// rejected during resolution, so the pipeline owns the whole parameter
// space.
const tenantParamNumber = 1

// TenantTarget is one place a tenant predicate must be injected: the alias
// in use, the tenant column in its canonical case, and how the reference
// joined the query.
type TenantTarget struct {
	Alias  string
	Column string
	Join   JoinKind
}

// InjectTenantFilters adds `alias.tenantColumn = $1` for every
// tenant-bearing reference, deduplicated by alias. Targets brought in by a
// LEFT JOIN get the predicate ANDed onto that join's ON clause; putting it
// in WHERE would null-filter the outer side and silently collapse the join
// to an inner one. Everything else lands in the top-level WHERE.
//
// Returns the injected targets; an empty slice means the query referenced
// no tenant-bearing tables and the parameter list stays empty.
func InjectTenantFilters(stmt *Statement, res *Resolution) []TenantTarget {
	var targets []TenantTarget
	seen := make(map[string]struct{}, len(res.Refs))

	for _, ref := range res.Refs {
		if !ref.Table.HasTenantKey() {
			continue
		}
		lower := strings.ToLower(ref.Alias)
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}

		column, _ := ref.Table.TenantKeyColumn()
		pred := makeEqualsParam(ref.Alias, column, tenantParamNumber)

		if ref.Join == JoinLeft && ref.joinNode != nil {
			ref.joinNode.Quals = andCombine(ref.joinNode.Quals, pred)
		} else {
			sel := stmt.Select()
			sel.WhereClause = andCombine(sel.WhereClause, pred)
		}

		targets = append(targets, TenantTarget{Alias: ref.Alias, Column: column, Join: ref.Join})
	}
	return targets
}

// TenantParams builds the positional parameter list for the injected
// predicates: the tenant identifier exactly once when any target exists.
func TenantParams(targets []TenantTarget, tenantID string) []any {
	if len(targets) == 0 {
		return nil
	}
	return []any{tenantID}
}
