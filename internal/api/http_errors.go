package api

import (
	"errors"
	"net/http"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
)

func httpStatusForDomainError(err error) (int, bool) {
	var domErr *core.DomainError
	if !errors.As(err, &domErr) || domErr == nil {
		return 0, false
	}

	switch domErr.Category {
	case core.ErrCatValidation:
		return http.StatusUnprocessableEntity, true
	case core.ErrCatAuth:
		return http.StatusUnauthorized, true
	case core.ErrCatRateLimit:
		return http.StatusTooManyRequests, true
	case core.ErrCatTimeout:
		return http.StatusGatewayTimeout, true
	case core.ErrCatService, core.ErrCatInvalidResponse:
		return http.StatusBadGateway, true
	case core.ErrCatCancelled:
		return statusClientClosedRequest, true
	default:
		return http.StatusInternalServerError, true
	}
}

// statusClientClosedRequest is the non-standard status logged when the
// caller went away before the response was written.
const statusClientClosedRequest = 499
