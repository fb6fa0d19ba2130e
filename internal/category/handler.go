package category

import (
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

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/categories", h.List).Methods(http.MethodGet)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		logger.FromCtx(r.Context()).Error("failed to list categories", zap.Error(err))
		utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, categories)
}
