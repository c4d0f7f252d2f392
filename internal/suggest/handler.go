// internal/suggest/handler.go
package suggest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tradenexus/internal/apperr"
)

type Handler struct {
	exact   Strategy
	similar Strategy
}

func NewHandler(exact, similar Strategy) *Handler {
	return &Handler{exact: exact, similar: similar}
}

// strategyFor picks the strategy named in the query string, exact by
// default.
func (h *Handler) strategyFor(r *http.Request) Strategy {
	if r.URL.Query().Get("strategy") == "similar" {
		return h.similar
	}
	return h.exact
}

func inCity(r *http.Request) bool {
	return r.URL.Query().Get("in_city") == "true"
}

func (h *Handler) HandleSuggestLend(w http.ResponseWriter, r *http.Request) {
	traderID, err := uuid.Parse(chi.URLParam(r, "traderID"))
	if err != nil {
		http.Error(w, "invalid trader ID", http.StatusBadRequest)
		return
	}

	suggestion, err := h.strategyFor(r).SuggestLend(r.Context(), traderID, inCity(r))
	if err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}
	if suggestion == nil {
		http.Error(w, "no suggestion", http.StatusNotFound)
		return
	}

	json.NewEncoder(w).Encode(suggestion)
}

func (h *Handler) HandleSuggestTrade(w http.ResponseWriter, r *http.Request) {
	traderID, err := uuid.Parse(chi.URLParam(r, "traderID"))
	if err != nil {
		http.Error(w, "invalid trader ID", http.StatusBadRequest)
		return
	}

	suggestion, err := h.strategyFor(r).SuggestTrade(r.Context(), traderID, inCity(r))
	if err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}
	if suggestion == nil {
		http.Error(w, "no suggestion", http.StatusNotFound)
		return
	}

	json.NewEncoder(w).Encode(suggestion)
}
