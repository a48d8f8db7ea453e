package handler

import (
	"net/http"

	authtypes "github.com/vasapolrittideah/storefront-api/services/auth-service/pkg/types"
)

func (h *authHTTPHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (h *authHTTPHandler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}

	var req UpdateSessionRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	claims, err := h.sessionUsecase.EnrichToken(r.Context(), claims, authtypes.TriggerUpdate, &authtypes.PartialSession{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		h.writeEnrichError(w, err)
		return
	}

	h.writeTokens(w, claims)
}
