// internal/trading/handler.go
package trading

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tradenexus/internal/apperr"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleRequestTrade(w http.ResponseWriter, r *http.Request) {
	var proposal TradeProposal
	if err := json.NewDecoder(r.Body).Decode(&proposal); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tradeID, err := h.service.RequestTrade(r.Context(), proposal)
	if err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]uuid.UUID{"trade_id": tradeID})
}

func (h *Handler) HandleGetTrade(w http.ResponseWriter, r *http.Request) {
	tradeID, err := uuid.Parse(chi.URLParam(r, "tradeID"))
	if err != nil {
		http.Error(w, "invalid trade ID", http.StatusBadRequest)
		return
	}

	trade, err := h.service.GetTrade(r.Context(), tradeID)
	if err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}

	json.NewEncoder(w).Encode(trade)
}

func (h *Handler) HandleAcceptRequest(w http.ResponseWriter, r *http.Request) {
	tradeID, err := uuid.Parse(chi.URLParam(r, "tradeID"))
	if err != nil {
		http.Error(w, "invalid trade ID", http.StatusBadRequest)
		return
	}

	var req struct {
		TraderID uuid.UUID `json:"trader_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	completed, err := h.service.AcceptRequest(r.Context(), req.TraderID, tradeID)
	if err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}

	json.NewEncoder(w).Encode(map[string]bool{"completed": completed})
}

func (h *Handler) HandleConfirmMeeting(w http.ResponseWriter, r *http.Request) {
	tradeID, err := uuid.Parse(chi.URLParam(r, "tradeID"))
	if err != nil {
		http.Error(w, "invalid trade ID", http.StatusBadRequest)
		return
	}

	var req struct {
		TraderID uuid.UUID `json:"trader_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.ConfirmMeeting(r.Context(), req.TraderID, tradeID); err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleCounterOffer(w http.ResponseWriter, r *http.Request) {
	tradeID, err := uuid.Parse(chi.URLParam(r, "tradeID"))
	if err != nil {
		http.Error(w, "invalid trade ID", http.StatusBadRequest)
		return
	}

	var proposal CounterProposal
	if err := json.NewDecoder(r.Body).Decode(&proposal); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	proposal.TradeID = tradeID

	id, err := h.service.CounterOffer(r.Context(), proposal)
	if err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}

	json.NewEncoder(w).Encode(map[string]uuid.UUID{"trade_id": id})
}

func (h *Handler) HandleRescindRequest(w http.ResponseWriter, r *http.Request) {
	tradeID, err := uuid.Parse(chi.URLParam(r, "tradeID"))
	if err != nil {
		http.Error(w, "invalid trade ID", http.StatusBadRequest)
		return
	}

	if err := h.service.RescindRequest(r.Context(), tradeID); err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleRescindOngoing(w http.ResponseWriter, r *http.Request) {
	tradeID, err := uuid.Parse(chi.URLParam(r, "tradeID"))
	if err != nil {
		http.Error(w, "invalid trade ID", http.StatusBadRequest)
		return
	}

	if err := h.service.RescindOngoing(r.Context(), tradeID); err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleFrequentPartners(w http.ResponseWriter, r *http.Request) {
	traderID, err := uuid.Parse(chi.URLParam(r, "traderID"))
	if err != nil {
		http.Error(w, "invalid trader ID", http.StatusBadRequest)
		return
	}

	partners, err := h.service.FrequentTradePartners(r.Context(), traderID)
	if err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}

	json.NewEncoder(w).Encode(partners)
}

func (h *Handler) HandleRecentItems(w http.ResponseWriter, r *http.Request) {
	traderID, err := uuid.Parse(chi.URLParam(r, "traderID"))
	if err != nil {
		http.Error(w, "invalid trader ID", http.StatusBadRequest)
		return
	}

	items, err := h.service.RecentTradeItems(r.Context(), traderID)
	if err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}

	json.NewEncoder(w).Encode(items)
}
