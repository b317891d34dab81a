package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"

	"github.com/querygate-io/querygate-engine/pkg/apperrors"
)

// CheckTenantIdentifier validates the caller-supplied tenant identifier
// before it becomes the query's positional parameter. The identifier is
// opaque but must be non-empty, and libinjection fingerprinting keeps a
// hostile caller from smuggling SQL through the one value the pipeline
// injects.
func CheckTenantIdentifier(tenantID string) error {
	if tenantID == "" {
		return apperrors.New(apperrors.CodeTenantInvalid, "tenant identifier must not be empty")
	}
	if isSQLi, fingerprint := libinjection.IsSQLi(tenantID); isSQLi {
		return apperrors.Newf(apperrors.CodeTenantInvalid, "tenant identifier matched injection fingerprint %q", string(fingerprint))
	}
	return nil
}
