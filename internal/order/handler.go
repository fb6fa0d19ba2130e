package order

import (
	"encoding/json"
	"errors"
	"net/http"

	"maillot-be/internal/logger"
	"maillot-be/internal/utils"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the order routes on r. admin guards the
// payment and fulfillment routes.
func (h *Handler) RegisterRoutes(r *mux.Router, admin func(http.Handler) http.Handler) {
	r.HandleFunc("/orders", h.CreateOrder).Methods(http.MethodPost)
	r.Handle("/orders", admin(http.HandlerFunc(h.GetOrders))).Methods(http.MethodGet)
	r.HandleFunc("/orders/{id}", h.GetOrderByID).Methods(http.MethodGet)
	r.Handle("/orders/{id}/pay", admin(http.HandlerFunc(h.MarkPaid))).Methods(http.MethodPut)
	r.Handle("/orders/{id}/deliver", admin(http.HandlerFunc(h.MarkDelivered))).Methods(http.MethodPut)
	r.Handle("/orders/{id}/status", admin(http.HandlerFunc(h.SetStatus))).Methods(http.MethodPut)
}

// maxOrderBody caps a checkout payload.
const maxOrderBody = 1 << 20

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxOrderBody)

	var in CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		logger.FromCtx(r.Context()).Info("invalid order body", zap.Error(err))
		utils.WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.svc.CreateOrder(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, o)
}

func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.GetOrders(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

func (h *Handler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.GetOrderByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

type payRequest struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	UpdateTime string `json:"update_time"`
	Payer      struct {
		EmailAddress string `json:"email_address"`
	} `json:"payer"`
}

func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.svc.MarkPaid(r.Context(), mux.Vars(r)["id"], PaymentResult{
		ID:           req.ID,
		Status:       req.Status,
		UpdateTime:   req.UpdateTime,
		EmailAddress: req.Payer.EmailAddress,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.MarkDelivered(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.svc.SetStatus(r.Context(), mux.Vars(r)["id"], req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

// writeError maps the order error taxonomy onto HTTP. Storage details
// never leave the process.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		utils.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"message": vErr.Error(),
			"errors":  vErr.Violations,
		})
	case errors.Is(err, ErrOrderNotFound):
		utils.WriteJSONError(w, "Order not found", http.StatusNotFound)
	default:
		logger.FromCtx(r.Context()).Error("order request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}
