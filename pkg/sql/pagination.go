package sql

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/querygate-io/querygate-engine/pkg/apperrors"
)

// DefaultMaxPageSize bounds the caller-supplied page size when
// configuration does not say otherwise.
const DefaultMaxPageSize = 100

// PageRequest carries the caller-side pagination inputs.
type PageRequest struct {
	Page        int // 1-based
	PageSize    int
	HardCap     int // absolute row ceiling from configuration
	MaxPageSize int // page-size ceiling from configuration; 0 means DefaultMaxPageSize
}

// RewritePagination enforces the row budget on the statement. The model
// may suggest a LIMIT but never an OFFSET; the effective display limit is
// the smallest of the model's limit, the requested page size, and the hard
// cap. The statement is rewritten to fetch displayLimit+1 rows so the
// caller can detect truncation from the overshoot row.
func RewritePagination(stmt *Statement, req PageRequest) (displayLimit, fetchLimit int, err error) {
	maxPageSize := req.MaxPageSize
	if maxPageSize == 0 {
		maxPageSize = DefaultMaxPageSize
	}

	if req.Page < 1 {
		return 0, 0, apperrors.New(apperrors.CodeLimitInvalid, "page must be at least 1")
	}
	if req.PageSize < 1 || req.PageSize > maxPageSize {
		return 0, 0, apperrors.Newf(apperrors.CodeLimitInvalid, "page size must be between 1 and %d", maxPageSize)
	}
	if req.HardCap < 1 {
		return 0, 0, apperrors.New(apperrors.CodeLimitInvalid, "hard row cap must be positive")
	}

	sel := stmt.Select()
	if sel.GetLimitOffset() != nil {
		return 0, 0, apperrors.New(apperrors.CodeOffsetNotAllowed, "OFFSET is not allowed; use page and page size")
	}

	display := req.PageSize
	if limitNode := sel.GetLimitCount(); limitNode != nil {
		modelLimit, ok := intConstValue(limitNode)
		if !ok {
			return 0, 0, apperrors.New(apperrors.CodeLimitNotNumeric, "LIMIT must be a numeric literal")
		}
		if modelLimit <= 0 {
			return 0, 0, apperrors.New(apperrors.CodeLimitInvalid, "LIMIT must be positive")
		}
		if int(modelLimit) < display {
			display = int(modelLimit)
		}
	}
	if req.HardCap < display {
		display = req.HardCap
	}
	if display <= 0 {
		return 0, 0, apperrors.New(apperrors.CodeLimitInvalid, "effective limit is not positive")
	}

	offset := (req.Page - 1) * display
	fetch := display + 1

	sel.LimitCount = makeIntConst(int64(fetch))
	sel.LimitOffset = makeIntConst(int64(offset))
	sel.LimitOption = pg_query.LimitOption_LIMIT_OPTION_COUNT

	return display, fetch, nil
}
