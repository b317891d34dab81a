package sql

import (
	"strings"
	"unicode"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/querygate-io/querygate-engine/pkg/apperrors"
	"github.com/querygate-io/querygate-engine/pkg/schema"
)

// sensitiveTokens are the identifier tokens that must never leave the
// database through this gateway. Matching is per token, not substring:
// companyId, panel_id, and japan_region are ordinary columns even though
// they contain "pan". Same failure mode the guard's keyword word
// boundaries defend against.
var sensitiveTokens = map[string]struct{}{
	"password":   {},
	"token":      {},
	"secret":     {},
	"apikey":     {},
	"refresh":    {},
	"salt":       {},
	"hash":       {},
	"credential": {},
	"ssn":        {},
	"aadhaar":    {},
	"pan":        {},
}

// isSensitiveColumn splits a column name on underscores and camelCase
// boundaries and reports whether any token, or any adjacent pair
// (api_key, apiKey), names a sensitive field.
func isSensitiveColumn(name string) bool {
	tokens := identifierTokens(name)
	for i, tok := range tokens {
		if _, ok := sensitiveTokens[tok]; ok {
			return true
		}
		if i+1 < len(tokens) {
			if _, ok := sensitiveTokens[tok+tokens[i+1]]; ok {
				return true
			}
		}
	}
	return false
}

// identifierTokens lower-cases and splits an identifier into its words:
// "refreshToken" and "refresh_token" both yield ["refresh", "token"].
func identifierTokens(name string) []string {
	var tokens []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			tokens = append(tokens, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	for _, r := range name {
		switch {
		case r == '_' || r == '-' || r == ' ' || r == '.':
			flush()
		case unicode.IsUpper(r):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return tokens
}

// JoinKind classifies how a table reference entered the query.
type JoinKind int

const (
	JoinNone JoinKind = iota // leading FROM table
	JoinInner
	JoinLeft
)

// TableRef is one resolved FROM-clause reference.
type TableRef struct {
	Alias string // as written; defaults to the table name
	Table *schema.Table
	Join  JoinKind

	joinNode *pg_query.JoinExpr // join that brought this reference in; nil for JoinNone
}

// Resolution is the annotated view of a statement after reference
// resolution: every table bound to the snapshot, every column rewritten to
// canonical case.
type Resolution struct {
	Refs   []*TableRef
	Tables []string // fully-qualified referenced tables, first-reference order
}

type resolver struct {
	snap    *schema.Snapshot
	refs    []*TableRef
	byAlias map[string]*TableRef
	aliases map[string]struct{} // lower-cased SELECT-list aliases
}

// Resolve walks the FROM list and the full expression tree, binding each
// table and column reference to the snapshot and rewriting identifiers to
// their canonical case. Canonicalizing here is what lets the tenant
// injector assume the tenant column exists, spelled exactly as declared,
// on every target it receives.
func Resolve(stmt *Statement, snap *schema.Snapshot) (*Resolution, error) {
	r := &resolver{
		snap:    snap,
		byAlias: make(map[string]*TableRef),
		aliases: make(map[string]struct{}),
	}

	for _, item := range stmt.Select().GetFromClause() {
		if err := r.fromItem(item); err != nil {
			return nil, err
		}
	}

	for _, target := range stmt.Select().GetTargetList() {
		if rt := target.GetResTarget(); rt != nil && rt.Name != "" {
			r.aliases[strings.ToLower(rt.Name)] = struct{}{}
		}
	}

	for _, item := range selectChildren(stmt.Select()) {
		if err := walkNode(item, r.visit); err != nil {
			return nil, err
		}
	}

	res := &Resolution{Refs: r.refs}
	seen := make(map[string]struct{}, len(r.refs))
	for _, ref := range r.refs {
		name := ref.Table.FullName()
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		res.Tables = append(res.Tables, name)
	}
	return res, nil
}

// selectChildren lists the top-level nodes of a SELECT that can contain
// column references: target list, FROM (for join quals), WHERE, GROUP BY,
// HAVING, window definitions, ORDER BY, and DISTINCT ON expressions.
func selectChildren(sel *pg_query.SelectStmt) []*pg_query.Node {
	var nodes []*pg_query.Node
	nodes = append(nodes, sel.GetTargetList()...)
	nodes = append(nodes, sel.GetFromClause()...)
	nodes = append(nodes, sel.GetWhereClause())
	nodes = append(nodes, sel.GetGroupClause()...)
	nodes = append(nodes, sel.GetHavingClause())
	nodes = append(nodes, sel.GetWindowClause()...)
	nodes = append(nodes, sel.GetSortClause()...)
	nodes = append(nodes, sel.GetDistinctClause()...)
	return nodes
}

func (r *resolver) fromItem(n *pg_query.Node) error {
	switch {
	case n.GetRangeVar() != nil:
		return r.addTable(n.GetRangeVar(), JoinNone, nil)
	case n.GetJoinExpr() != nil:
		return r.join(n.GetJoinExpr())
	case n.GetRangeSubselect() != nil:
		return apperrors.New(apperrors.CodeSubqueryNotSupported, "derived tables in FROM are not supported")
	default:
		return apperrors.New(apperrors.CodeFromUnsupported, "FROM items must be plain table references")
	}
}

func (r *resolver) join(j *pg_query.JoinExpr) error {
	if j.GetIsNatural() {
		return apperrors.New(apperrors.CodeJoinUnsupported, "NATURAL joins are not supported")
	}
	if len(j.GetUsingClause()) > 0 {
		return apperrors.New(apperrors.CodeJoinUnsupported, "USING joins are not supported; spell the condition with ON")
	}

	var kind JoinKind
	switch j.GetJointype() {
	case pg_query.JoinType_JOIN_INNER:
		if j.GetQuals() == nil {
			return apperrors.New(apperrors.CodeJoinUnsupported, "CROSS joins are not supported")
		}
		kind = JoinInner
	case pg_query.JoinType_JOIN_LEFT:
		kind = JoinLeft
	case pg_query.JoinType_JOIN_RIGHT:
		return apperrors.New(apperrors.CodeJoinUnsupported, "RIGHT joins are not supported")
	case pg_query.JoinType_JOIN_FULL:
		return apperrors.New(apperrors.CodeJoinUnsupported, "FULL joins are not supported")
	default:
		return apperrors.New(apperrors.CodeJoinUnsupported, "unsupported join type")
	}

	if err := r.fromItem(j.GetLarg()); err != nil {
		return err
	}

	right := j.GetRarg()
	switch {
	case right.GetRangeVar() != nil:
		return r.addTable(right.GetRangeVar(), kind, j)
	case right.GetRangeSubselect() != nil:
		return apperrors.New(apperrors.CodeSubqueryNotSupported, "derived tables in FROM are not supported")
	default:
		return apperrors.New(apperrors.CodeFromUnsupported, "joined items must be plain table references")
	}
}

func (r *resolver) addTable(rv *pg_query.RangeVar, kind JoinKind, joinNode *pg_query.JoinExpr) error {
	if rv.GetRelname() == "" {
		return apperrors.New(apperrors.CodeTableMissing, "table reference has no name")
	}
	if rv.GetCatalogname() != "" {
		return apperrors.New(apperrors.CodeFromUnsupported, "catalog-qualified table references are not supported")
	}
	if alias := rv.GetAlias(); alias != nil && len(alias.GetColnames()) > 0 {
		return apperrors.New(apperrors.CodeFromUnsupported, "column aliases on table references are not supported")
	}

	table, ok := r.snap.ResolveTable(rv.GetRelname(), rv.GetSchemaname())
	if !ok {
		return apperrors.Newf(apperrors.CodeTableUnknown, "unknown table %q", rv.GetRelname())
	}

	aliasName := rv.GetRelname()
	if alias := rv.GetAlias(); alias != nil && alias.GetAliasname() != "" {
		aliasName = alias.GetAliasname()
	}
	lowerAlias := strings.ToLower(aliasName)
	if _, dup := r.byAlias[lowerAlias]; dup {
		return apperrors.Newf(apperrors.CodeFromUnsupported, "duplicate table alias %q", aliasName)
	}

	// Canonicalize the reference itself. An unqualified reference stays
	// unqualified.
	rv.Relname = table.TableName
	if rv.GetSchemaname() != "" {
		rv.Schemaname = table.SchemaName
	}

	ref := &TableRef{Alias: aliasName, Table: table, Join: kind, joinNode: joinNode}
	r.refs = append(r.refs, ref)
	r.byAlias[lowerAlias] = ref
	return nil
}

func (r *resolver) visit(n *pg_query.Node) error {
	switch {
	case n.GetSubLink() != nil:
		return apperrors.New(apperrors.CodeSubqueryNotSupported, "subqueries are not supported")
	case n.GetParamRef() != nil:
		return apperrors.New(apperrors.CodeParameterNotAllowed, "parameter placeholders are not allowed in candidate SQL")
	case n.GetColumnRef() != nil:
		return r.column(n.GetColumnRef())
	default:
		return nil
	}
}

func (r *resolver) column(cr *pg_query.ColumnRef) error {
	fields := cr.GetFields()
	for _, f := range fields {
		if f.GetAStar() != nil {
			return apperrors.New(apperrors.CodeWildcard, "wildcard selects are not allowed; name the columns")
		}
	}

	switch len(fields) {
	case 1:
		name, ok := stringValue(fields[0])
		if !ok {
			return apperrors.New(apperrors.CodeColumnUnsupported, "unsupported column reference")
		}
		return r.unqualified(fields[0], name)
	case 2:
		qual, okQ := stringValue(fields[0])
		name, okN := stringValue(fields[1])
		if !okQ || !okN {
			return apperrors.New(apperrors.CodeColumnUnsupported, "unsupported column reference")
		}
		return r.qualified(fields[1], qual, name)
	default:
		return apperrors.New(apperrors.CodeColumnUnsupported, "column references may carry at most one qualifier")
	}
}

func (r *resolver) unqualified(field *pg_query.Node, name string) error {
	lower := strings.ToLower(name)
	if isSensitiveColumn(name) {
		return apperrors.Newf(apperrors.CodeSensitiveColumn, "column %q is not accessible", name)
	}
	if _, isAlias := r.aliases[lower]; isAlias {
		return nil
	}

	var owners []*TableRef
	for _, ref := range r.refs {
		if ref.Table.HasColumn(lower) {
			owners = append(owners, ref)
		}
	}
	switch len(owners) {
	case 0:
		if len(r.refs) == 0 {
			return apperrors.Newf(apperrors.CodeColumnNoSource, "column %q has no source table", name)
		}
		return apperrors.Newf(apperrors.CodeColumnUnknown, "unknown column %q", name)
	case 1:
		canonical, _ := owners[0].Table.CanonicalColumn(lower)
		if isSensitiveColumn(canonical) {
			return apperrors.Newf(apperrors.CodeSensitiveColumn, "column %q is not accessible", name)
		}
		field.GetString_().Sval = canonical
		return nil
	default:
		return apperrors.Newf(apperrors.CodeColumnAmbiguous, "column %q is ambiguous; qualify it with a table alias", name)
	}
}

func (r *resolver) qualified(field *pg_query.Node, qual, name string) error {
	lower := strings.ToLower(name)
	if isSensitiveColumn(name) {
		return apperrors.Newf(apperrors.CodeSensitiveColumn, "column %q is not accessible", name)
	}

	ref, ok := r.byAlias[strings.ToLower(qual)]
	if !ok {
		var matches []*TableRef
		for _, candidate := range r.refs {
			if strings.EqualFold(candidate.Table.TableName, qual) {
				matches = append(matches, candidate)
			}
		}
		if len(matches) != 1 {
			return apperrors.Newf(apperrors.CodeAliasUnknown, "unknown table alias %q", qual)
		}
		ref = matches[0]
	}

	canonical, ok := ref.Table.CanonicalColumn(lower)
	if !ok {
		return apperrors.Newf(apperrors.CodeColumnUnknown, "unknown column %q on table %q", name, ref.Table.TableName)
	}
	// Unquoted references arrive lower-cased ("refreshtoken"), which hides
	// the camelCase boundaries; check the declared spelling too.
	if isSensitiveColumn(canonical) {
		return apperrors.Newf(apperrors.CodeSensitiveColumn, "column %q is not accessible", name)
	}
	field.GetString_().Sval = canonical
	return nil
}
