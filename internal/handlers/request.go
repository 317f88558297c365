package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/campusfound/apiserver/internal/services"
	"github.com/campusfound/apiserver/internal/store"
)

// RequestHandler provides the admin review queue endpoints.
type RequestHandler struct {
	requestService *services.RequestService
}

// NewRequestHandler constructs a handler with the provided dependencies.
func NewRequestHandler(requestService *services.RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

// RequestRouter registers the admin request routes on the given router.
// The caller is expected to wrap the router in auth and admin middleware.
func RequestRouter(r chi.Router, requestService *services.RequestService) {
	handler := NewRequestHandler(requestService)

	r.Get("/", handler.ListPending)
	r.Post("/{requestID}/approve", handler.Approve)
	r.Post("/{requestID}/reject", handler.Reject)
}

// ListPending returns the pending review queue with submitter and item
// details joined in.
func (h *RequestHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	requests, err := h.requestService.ListPending(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list requests")
		return
	}

	writeJSON(w, http.StatusOK, withRequestImageURLs(requests))
}

// Approve decides a pending request positively.
func (h *RequestHandler) Approve(w http.ResponseWriter, r *http.Request) {
	adminID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	requestID, err := parseIDParam(r, "requestID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	request, err := h.requestService.Approve(r.Context(), requestID, adminID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "request not found")
		case errors.Is(err, services.ErrInvalidState):
			writeError(w, http.StatusBadRequest, "request already processed")
		case errors.Is(err, services.ErrAlreadyClaimed):
			writeError(w, http.StatusBadRequest, "item already claimed")
		default:
			writeError(w, http.StatusInternalServerError, "failed to approve request")
		}
		return
	}

	writeJSON(w, http.StatusOK, request)
}

// Reject decides a pending request negatively, with an optional reason.
func (h *RequestHandler) Reject(w http.ResponseWriter, r *http.Request) {
	adminID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	requestID, err := parseIDParam(r, "requestID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req RejectRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}
	}

	request, err := h.requestService.Reject(r.Context(), requestID, adminID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "request not found")
		case errors.Is(err, services.ErrInvalidState):
			writeError(w, http.StatusBadRequest, "request already processed")
		default:
			writeError(w, http.StatusInternalServerError, "failed to reject request")
		}
		return
	}

	writeJSON(w, http.StatusOK, request)
}

type RejectRequest struct {
	Reason string `json:"reason"`
}
