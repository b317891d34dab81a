// Package services composes the pipeline with the model client, the
// executor, and the audit trail into the caller-facing query flow.
package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/querygate-io/querygate-engine/pkg/apperrors"
	"github.com/querygate-io/querygate-engine/pkg/llm"
	"github.com/querygate-io/querygate-engine/pkg/models"
	"github.com/querygate-io/querygate-engine/pkg/schema"
	enginesql "github.com/querygate-io/querygate-engine/pkg/sql"
)

// Executor runs rewritten SQL. database.ReadOnlyExecutor satisfies this.
type Executor interface {
	Execute(ctx context.Context, sqlText string, params []any) (*models.ExecutionResult, error)
}

// Recorder persists audit records. audit.Recorder satisfies this.
type Recorder interface {
	Record(ctx context.Context, rec *models.AuditRecord) error
}

// AskRequest is one caller question with identity and pagination.
type AskRequest struct {
	TenantID string
	Question string
	Page     int
	PageSize int
}

// AskResponse is the sliced, truncation-aware result.
type AskResponse struct {
	Columns  []string     `json:"columns"`
	Rows     []models.Row `json:"rows"`
	HasMore  bool         `json:"has_more"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	SQL      string       `json:"sql"`
	Tables   []string     `json:"tables"`
}

// QueryService owns the question-to-rows flow. The snapshot is captured
// once per request; every stage sees the same pointer even if the registry
// refreshes mid-flight.
type QueryService struct {
	registry  *schema.Registry
	generator llm.SQLGenerator
	pipeline  *enginesql.Pipeline
	executor  Executor
	recorder  Recorder // optional
	hardCap   int
	logger    *zap.Logger
}

// NewQueryService wires the service. recorder may be nil to disable the
// audit trail; if logger is nil, a no-op logger is used.
func NewQueryService(registry *schema.Registry, generator llm.SQLGenerator, pipeline *enginesql.Pipeline, executor Executor, recorder Recorder, hardCap int, logger *zap.Logger) *QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryService{
		registry:  registry,
		generator: generator,
		pipeline:  pipeline,
		executor:  executor,
		recorder:  recorder,
		hardCap:   hardCap,
		logger:    logger,
	}
}

// Ask answers one question: generate a candidate, validate and rewrite it,
// execute, and slice the overshoot row into a hasMore flag. A validation
// failure earns the model exactly one repair round with the error as
// feedback; the pipeline itself never retries.
func (s *QueryService) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	start := time.Now()
	snap := s.registry.Current()
	schemaContext := snap.FormatForPrompt()

	candidate, err := s.generator.GenerateSQL(ctx, req.Question, schemaContext)
	if err != nil {
		return nil, fmt.Errorf("generate candidate: %w", err)
	}

	out, err := s.pipeline.ValidateAndRewrite(candidate, snap, req.TenantID, req.Page, req.PageSize, s.hardCap)
	if err != nil {
		code := apperrors.CodeOf(err)
		if code == "" || apperrors.IsExecution(code) {
			s.record(ctx, req, nil, code, start)
			return nil, err
		}

		s.logger.Debug("candidate rejected; asking for a corrected one",
			zap.String("code", string(code)))
		repair := fmt.Sprintf("%s\n\nYour previous SQL was rejected: %s. Produce a corrected SELECT.", req.Question, err.Error())
		candidate, genErr := s.generator.GenerateSQL(ctx, repair, schemaContext)
		if genErr != nil {
			s.record(ctx, req, nil, code, start)
			return nil, err
		}
		out, err = s.pipeline.ValidateAndRewrite(candidate, snap, req.TenantID, req.Page, req.PageSize, s.hardCap)
		if err != nil {
			s.record(ctx, req, nil, apperrors.CodeOf(err), start)
			return nil, err
		}
	}

	exec, err := s.executor.Execute(ctx, out.SQL, out.Params)
	if err != nil {
		s.record(ctx, req, out, apperrors.CodeOf(err), start)
		return nil, err
	}

	rows := exec.Rows
	hasMore := len(rows) > out.DisplayLimit
	if hasMore {
		rows = rows[:out.DisplayLimit]
	}

	s.record(ctx, req, out, "", start)
	return &AskResponse{
		Columns:  exec.Columns,
		Rows:     rows,
		HasMore:  hasMore,
		Page:     req.Page,
		PageSize: req.PageSize,
		SQL:      out.SQL,
		Tables:   out.Tables,
	}, nil
}

func (s *QueryService) record(ctx context.Context, req AskRequest, out *models.RewriteOutput, code apperrors.Code, start time.Time) {
	if s.recorder == nil {
		return
	}
	rec := &models.AuditRecord{
		TenantID:  req.TenantID,
		Question:  req.Question,
		ErrorCode: string(code),
		Duration:  time.Since(start),
		CreatedAt: time.Now().UTC(),
	}
	if out != nil {
		rec.SQL = out.SQL
		rec.Tables = out.Tables
		rec.DisplayLimit = out.DisplayLimit
		rec.FetchLimit = out.FetchLimit
	}
	if err := s.recorder.Record(ctx, rec); err != nil {
		s.logger.Warn("audit record failed", zap.Error(err))
	}
}
