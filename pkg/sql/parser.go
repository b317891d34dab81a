package sql

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/querygate-io/querygate-engine/pkg/apperrors"
)

// Statement is a validated handle on a parsed single-SELECT statement.
// Later stages mutate the underlying tree in place; the handle is owned by
// one request and never shared.
type Statement struct {
	tree *pg_query.ParseResult
	sel  *pg_query.SelectStmt
}

// Select exposes the SELECT node for the rewrite stages.
func (s *Statement) Select() *pg_query.SelectStmt {
	return s.sel
}

// Parse parses an already-guarded candidate as a PostgreSQL statement and
// rejects every shape the pipeline does not rewrite: multiple statements,
// anything but a plain SELECT, CTEs, SELECT INTO, and set operations.
func Parse(query string) (*Statement, error) {
	tree, err := pg_query.Parse(query)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeParseError, "candidate SQL does not parse", err)
	}

	if len(tree.Stmts) == 0 {
		return nil, apperrors.New(apperrors.CodeParseError, "candidate SQL is empty")
	}
	if len(tree.Stmts) > 1 {
		return nil, apperrors.New(apperrors.CodeMultiStatement, "only a single statement is allowed")
	}

	stmt := tree.Stmts[0].GetStmt()
	if stmt == nil {
		return nil, apperrors.New(apperrors.CodeParseError, "candidate SQL is empty")
	}

	sel := stmt.GetSelectStmt()
	if sel == nil {
		return nil, apperrors.New(apperrors.CodeNotSelect, "only SELECT statements are allowed")
	}
	if sel.GetWithClause() != nil {
		return nil, apperrors.New(apperrors.CodeCTENotSupported, "WITH clauses are not supported")
	}
	if sel.GetIntoClause() != nil {
		return nil, apperrors.New(apperrors.CodeSelectInto, "SELECT INTO is not allowed")
	}
	if sel.GetOp() != pg_query.SetOperation_SETOP_NONE {
		return nil, apperrors.New(apperrors.CodeNotSelect, "set operations (UNION/INTERSECT/EXCEPT) are not supported")
	}

	return &Statement{tree: tree, sel: sel}, nil
}
