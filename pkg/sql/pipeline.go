package sql

import (
	"go.uber.org/zap"

	"github.com/querygate-io/querygate-engine/pkg/logging"
	"github.com/querygate-io/querygate-engine/pkg/models"
	"github.com/querygate-io/querygate-engine/pkg/schema"
)

// Pipeline composes guard, parse, resolve, tenant injection, pagination,
// and serialization into one deterministic call. It holds no mutable
// state; the same inputs always yield the same RewriteOutput. Execution
// lives behind the database package so this stays testable without a
// database.
type Pipeline struct {
	maxPageSize int
	logger      *zap.Logger
}

// NewPipeline creates a pipeline. A maxPageSize of 0 means
// DefaultMaxPageSize; if logger is nil, a no-op logger is used.
func NewPipeline(maxPageSize int, logger *zap.Logger) *Pipeline {
	if maxPageSize == 0 {
		maxPageSize = DefaultMaxPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{maxPageSize: maxPageSize, logger: logger}
}

// ValidateAndRewrite takes a model candidate and produces executable SQL
// or a structured error. There is no retry or repair here; a caller that
// wants a corrected candidate asks the model again with the error as
// feedback.
func (p *Pipeline) ValidateAndRewrite(candidate string, snap *schema.Snapshot, tenantID string, page, pageSize, hardCap int) (*models.RewriteOutput, error) {
	if err := CheckTenantIdentifier(tenantID); err != nil {
		return nil, err
	}

	normalized := Normalize(candidate)
	if err := Guard(normalized); err != nil {
		return nil, err
	}

	stmt, err := Parse(normalized)
	if err != nil {
		return nil, err
	}

	res, err := Resolve(stmt, snap)
	if err != nil {
		return nil, err
	}

	targets := InjectTenantFilters(stmt, res)
	params := TenantParams(targets, tenantID)

	displayLimit, fetchLimit, err := RewritePagination(stmt, PageRequest{Page: page, PageSize: pageSize, HardCap: hardCap, MaxPageSize: p.maxPageSize})
	if err != nil {
		return nil, err
	}

	rendered, err := Serialize(stmt)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("candidate rewritten",
		zap.String("sql", logging.SanitizeQuery(rendered)),
		zap.Strings("tables", res.Tables),
		zap.Int("tenant_targets", len(targets)),
		zap.Int("display_limit", displayLimit),
		zap.Int("fetch_limit", fetchLimit))

	return &models.RewriteOutput{
		SQL:          rendered,
		Params:       params,
		DisplayLimit: displayLimit,
		FetchLimit:   fetchLimit,
		Tables:       res.Tables,
	}, nil
}
