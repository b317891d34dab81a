package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querygate-io/querygate-engine/pkg/apperrors"
	"github.com/querygate-io/querygate-engine/pkg/models"
	"github.com/querygate-io/querygate-engine/pkg/services"
)

type stubRunner struct {
	gotReq services.AskRequest
	resp   *services.AskResponse
	err    error
}

func (s *stubRunner) Ask(_ context.Context, req services.AskRequest) (*services.AskResponse, error) {
	s.gotReq = req
	return s.resp, s.err
}

func newTestMux(runner QueryRunner) *http.ServeMux {
	mux := http.NewServeMux()
	NewQueryHandler(runner, nil).RegisterRoutes(mux)
	return mux
}

func postQuery(t *testing.T, mux *http.ServeMux, tenant, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(body))
	if tenant != "" {
		req.Header.Set("X-Tenant-ID", tenant)
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestHandleQuery_Success(t *testing.T) {
	runner := &stubRunner{resp: &services.AskResponse{
		Columns:  []string{"id"},
		Rows:     []models.Row{{"id": 1}},
		HasMore:  false,
		Page:     1,
		PageSize: 20,
	}}
	rr := postQuery(t, newTestMux(runner), "org_1", `{"question":"how many users"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "org_1", runner.gotReq.TenantID)
	assert.Equal(t, 1, runner.gotReq.Page, "page defaults to 1")
	assert.Equal(t, 20, runner.gotReq.PageSize, "page size defaults to 20")

	var resp services.AskResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, []string{"id"}, resp.Columns)
}

func TestHandleQuery_MissingTenant(t *testing.T) {
	rr := postQuery(t, newTestMux(&stubRunner{}), "", `{"question":"q"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "TENANT_INVALID")
}

func TestHandleQuery_MissingQuestion(t *testing.T) {
	rr := postQuery(t, newTestMux(&stubRunner{}), "org_1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleQuery_ValidationErrorsAreUnprocessable(t *testing.T) {
	runner := &stubRunner{err: apperrors.New(apperrors.CodeWildcard, "wildcard selects are not allowed")}
	rr := postQuery(t, newTestMux(runner), "org_1", `{"question":"q"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "WILDCARD")
}

func TestHandleQuery_ExecutionErrorsAreBadGateway(t *testing.T) {
	runner := &stubRunner{err: apperrors.New(apperrors.CodeDBOther, "query execution failed")}
	rr := postQuery(t, newTestMux(runner), "org_1", `{"question":"q"}`)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestHandleQuery_RewriteLeakIsInternal(t *testing.T) {
	runner := &stubRunner{err: apperrors.New(apperrors.CodeInternalRewriteLeak, "rewritten SQL failed the lexical guard")}
	rr := postQuery(t, newTestMux(runner), "org_1", `{"question":"q"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestHandleQuery_UnknownErrorHidesDetail(t *testing.T) {
	runner := &stubRunner{err: assert.AnError}
	rr := postQuery(t, newTestMux(runner), "org_1", `{"question":"q"}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), assert.AnError.Error())
}
