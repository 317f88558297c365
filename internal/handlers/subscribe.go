package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/campusfound/apiserver/internal/services"
	"github.com/campusfound/apiserver/internal/store"
	"github.com/campusfound/apiserver/types"
)

// SubscribeHandler provides subscription management endpoints.
type SubscribeHandler struct {
	subscriptionService *services.SubscriptionService
}

// NewSubscribeHandler constructs a handler with the provided dependencies.
func NewSubscribeHandler(subscriptionService *services.SubscriptionService) *SubscribeHandler {
	return &SubscribeHandler{subscriptionService: subscriptionService}
}

// SubscribeRouter registers subscription routes on the given router. The
// caller is expected to wrap the router in auth middleware.
func SubscribeRouter(r chi.Router, subscriptionService *services.SubscriptionService) {
	handler := NewSubscribeHandler(subscriptionService)

	r.Get("/my-subscriptions", handler.MySubscriptions)
	r.Post("/subscribe", handler.Subscribe)
	r.Post("/unsubscribe", handler.Unsubscribe)
	r.Put("/bulk-update", handler.BulkUpdate)
	r.Post("/toggle-notifications", handler.ToggleNotifications)
	r.Get("/stats", handler.Stats)
}

// MySubscriptions returns the user's subscription keys and notification
// flag, plus the full category taxonomy for client pickers.
func (h *SubscribeHandler) MySubscriptions(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	keys, notifications, err := h.subscriptionService.Subscriptions(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load subscriptions")
		return
	}

	writeJSON(w, http.StatusOK, SubscriptionsResponse{
		Subscriptions:      keys,
		EmailNotifications: notifications,
		Categories:         types.Categories,
	})
}

// Subscribe adds a category or category:subcategory key.
func (h *SubscribeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	h.updateKey(w, r, h.subscriptionService.Subscribe, "subscribed")
}

// Unsubscribe removes a key.
func (h *SubscribeHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	h.updateKey(w, r, h.subscriptionService.Unsubscribe, "unsubscribed")
}

func (h *SubscribeHandler) updateKey(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, userID int, category, subcategory string) (string, []string, error),
	verb string,
) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SubscriptionKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	key, keys, err := apply(r.Context(), userID, req.Category, req.Subcategory)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidKey):
			writeError(w, http.StatusBadRequest, "invalid category")
		case errors.Is(err, services.ErrAlreadySubscribed):
			writeError(w, http.StatusBadRequest, "already subscribed to this category")
		case errors.Is(err, services.ErrNotSubscribed):
			writeError(w, http.StatusBadRequest, "not subscribed to this category")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update subscriptions")
		}
		return
	}

	writeJSON(w, http.StatusOK, SubscriptionUpdateResponse{
		Message:       verb,
		Key:           key,
		Subscriptions: keys,
	})
}

// BulkUpdate replaces the subscription list and/or the notifications flag.
func (h *SubscribeHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req BulkUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	keys, notifications, err := h.subscriptionService.BulkUpdate(r.Context(), userID, req.Subscriptions, req.EmailNotifications)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidKey):
			writeError(w, http.StatusBadRequest, "invalid category in subscription list")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update subscriptions")
		}
		return
	}

	writeJSON(w, http.StatusOK, SubscriptionsResponse{
		Subscriptions:      keys,
		EmailNotifications: notifications,
	})
}

// ToggleNotifications flips the notifications flag.
func (h *SubscribeHandler) ToggleNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	notifications, keys, err := h.subscriptionService.ToggleNotifications(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update notifications")
		return
	}

	writeJSON(w, http.StatusOK, SubscriptionsResponse{
		Subscriptions:      keys,
		EmailNotifications: notifications,
	})
}

// Stats summarizes the subscription base.
func (h *SubscribeHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if _, err := userIDFromContext(r.Context()); err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	overview, breakdown, err := h.subscriptionService.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	writeJSON(w, http.StatusOK, SubscriptionStatsResponse{
		Overview:   overview,
		Categories: breakdown,
	})
}

type SubscriptionKeyRequest struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
}

type BulkUpdateRequest struct {
	Subscriptions      []string `json:"subscriptions"`
	EmailNotifications *bool    `json:"email_notifications"`
}

type SubscriptionsResponse struct {
	Subscriptions      []string                  `json:"subscriptions"`
	EmailNotifications bool                      `json:"email_notifications"`
	Categories         map[string]types.Category `json:"categories,omitempty"`
}

type SubscriptionUpdateResponse struct {
	Message       string   `json:"message"`
	Key           string   `json:"key"`
	Subscriptions []string `json:"subscriptions"`
}

type SubscriptionStatsResponse struct {
	Overview   types.SubscriptionOverview `json:"overview"`
	Categories []types.KeyCount           `json:"categories"`
}
