package sql

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/querygate-io/querygate-engine/pkg/apperrors"
)

// Serialize renders the rewritten statement back to SQL and re-runs the
// lexical guard against the output. The pipeline only ever removes and
// parameterizes, so a guard hit on emitted SQL means a rewrite stage
// leaked something it should not have.
func Serialize(stmt *Statement) (string, error) {
	rendered, err := pg_query.Deparse(stmt.tree)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternalRewriteLeak, "rewritten statement failed to serialize", err)
	}
	if err := GuardRewritten(rendered); err != nil {
		return "", err
	}
	return rendered, nil
}
