package httpadapter

import (
	"net/http"

	"github.com/answerforge/rfp-engine/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrValidation):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrRetrieval),
		domain.IsKind(err, domain.ErrSynthesis),
		domain.IsKind(err, domain.ErrStore):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
