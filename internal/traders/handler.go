// internal/traders/handler.go
package traders

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

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		City     string `json:"city"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	trader, err := h.service.Register(r.Context(), req.Username, req.Password, req.City)
	if err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(trader)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	trader, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	json.NewEncoder(w).Encode(trader)
}

func (h *Handler) HandleGetTrader(w http.ResponseWriter, r *http.Request) {
	traderID, err := uuid.Parse(chi.URLParam(r, "traderID"))
	if err != nil {
		http.Error(w, "invalid trader ID", http.StatusBadRequest)
		return
	}

	trader, err := h.service.GetTrader(r.Context(), traderID)
	if err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}

	json.NewEncoder(w).Encode(trader)
}

func (h *Handler) HandleSearchTraders(w http.ResponseWriter, r *http.Request) {
	traders, err := h.service.SearchTraders(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}

	json.NewEncoder(w).Encode(traders)
}

func (h *Handler) HandleSearchItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ItemsWithName(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}

	json.NewEncoder(w).Encode(items)
}

func (h *Handler) HandleWishlist(w http.ResponseWriter, r *http.Request) {
	traderID, err := uuid.Parse(chi.URLParam(r, "traderID"))
	if err != nil {
		http.Error(w, "invalid trader ID", http.StatusBadRequest)
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		http.Error(w, "invalid item ID", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodPut:
		err = h.service.AddToWishlist(r.Context(), traderID, itemID)
	case http.MethodDelete:
		err = h.service.RemoveFromWishlist(r.Context(), traderID, itemID)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleRemoveInventoryItem(w http.ResponseWriter, r *http.Request) {
	traderID, err := uuid.Parse(chi.URLParam(r, "traderID"))
	if err != nil {
		http.Error(w, "invalid trader ID", http.StatusBadRequest)
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		http.Error(w, "invalid item ID", http.StatusBadRequest)
		return
	}

	if err := h.service.RemoveFromInventory(r.Context(), traderID, itemID); err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleRequestItem(w http.ResponseWriter, r *http.Request) {
	traderID, err := uuid.Parse(chi.URLParam(r, "traderID"))
	if err != nil {
		http.Error(w, "invalid trader ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.service.RequestItem(r.Context(), traderID, req.Name, req.Description)
	if err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(item)
}

func (h *Handler) HandleProcessItemRequest(w http.ResponseWriter, r *http.Request) {
	traderID, err := uuid.Parse(chi.URLParam(r, "traderID"))
	if err != nil {
		http.Error(w, "invalid trader ID", http.StatusBadRequest)
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		http.Error(w, "invalid item ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Accept bool `json:"accept"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.ProcessItemRequest(r.Context(), traderID, itemID, req.Accept); err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleAllItemRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.AllItemRequests(r.Context())
	if err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}

	json.NewEncoder(w).Encode(requests)
}

func (h *Handler) HandleRequestUnfreeze(w http.ResponseWriter, r *http.Request) {
	traderID, err := uuid.Parse(chi.URLParam(r, "traderID"))
	if err != nil {
		http.Error(w, "invalid trader ID", http.StatusBadRequest)
		return
	}

	if err := h.service.RequestUnfreeze(r.Context(), traderID); err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleSetFrozen(w http.ResponseWriter, r *http.Request) {
	traderID, err := uuid.Parse(chi.URLParam(r, "traderID"))
	if err != nil {
		http.Error(w, "invalid trader ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Frozen bool `json:"frozen"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.SetFrozen(r.Context(), traderID, req.Frozen); err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleUpdateSettings applies the optional account settings present in
// the request body. Absent fields are left unchanged.
func (h *Handler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	traderID, err := uuid.Parse(chi.URLParam(r, "traderID"))
	if err != nil {
		http.Error(w, "invalid trader ID", http.StatusBadRequest)
		return
	}

	var req struct {
		City                 *string `json:"city,omitempty"`
		Idle                 *bool   `json:"idle,omitempty"`
		Username             *string `json:"username,omitempty"`
		Password             *string `json:"password,omitempty"`
		TradeLimit           *int    `json:"trade_limit,omitempty"`
		IncompleteTradeLimit *int    `json:"incomplete_trade_limit,omitempty"`
		MinimumToBorrow      *int    `json:"minimum_to_borrow,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if req.City != nil {
		err = h.service.SetCity(ctx, traderID, *req.City)
	}
	if err == nil && req.Idle != nil {
		err = h.service.SetIdle(ctx, traderID, *req.Idle)
	}
	if err == nil && req.Username != nil {
		err = h.service.ChangeUsername(ctx, traderID, *req.Username)
	}
	if err == nil && req.Password != nil {
		err = h.service.ChangePassword(ctx, traderID, *req.Password)
	}
	if err == nil && req.TradeLimit != nil {
		err = h.service.SetTradeLimit(ctx, traderID, *req.TradeLimit)
	}
	if err == nil && req.IncompleteTradeLimit != nil {
		err = h.service.SetIncompleteTradeLimit(ctx, traderID, *req.IncompleteTradeLimit)
	}
	if err == nil && req.MinimumToBorrow != nil {
		err = h.service.SetMinimumToBorrow(ctx, traderID, *req.MinimumToBorrow)
	}
	if err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
