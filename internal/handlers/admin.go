package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/campusfound/apiserver/internal/services"
	"github.com/campusfound/apiserver/internal/store"
)

// AdminHandler provides administrative item management.
type AdminHandler struct {
	itemService *services.ItemService
}

// NewAdminHandler constructs a handler with the provided dependencies.
func NewAdminHandler(itemService *services.ItemService) *AdminHandler {
	return &AdminHandler{itemService: itemService}
}

// AdminRouter registers admin routes on the given router. The caller is
// expected to wrap the router in auth and admin middleware.
func AdminRouter(r chi.Router, itemService *services.ItemService) {
	handler := NewAdminHandler(itemService)

	r.Delete("/items/{itemID}", handler.DeleteItem)
}

// DeleteItem removes an item and its stored image. Requests referencing
// the item cascade away with the row.
func (h *AdminHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseIDParam(r, "itemID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.itemService.AdminDelete(r.Context(), itemID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "item not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "item deleted"})
}
