package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/campusfound/apiserver/internal/services"
	"github.com/campusfound/apiserver/internal/storage"
	"github.com/campusfound/apiserver/internal/store"
	"github.com/campusfound/apiserver/types"
)

const (
	maxMultipartMemory = 16 << 20
	maxImageBytes      = 8 << 20

	formFieldTitle       = "title"
	formFieldDescription = "description"
	formFieldCategory    = "category"
	formFieldSubcategory = "subcategory"
	formFieldLocation    = "location"
	formFieldDateFound   = "date_found"
	formFieldDateLost    = "date_lost"
	formFieldImage       = "image"

	uploadsPrefix = "/uploads/"
)

// ItemHandler provides HTTP handlers for item listings, reports and claims.
type ItemHandler struct {
	itemService    *services.ItemService
	requestService *services.RequestService
	storage        *storage.Storage
}

// NewItemHandler constructs a handler with the provided dependencies.
func NewItemHandler(itemService *services.ItemService, requestService *services.RequestService, objStorage *storage.Storage) *ItemHandler {
	return &ItemHandler{
		itemService:    itemService,
		requestService: requestService,
		storage:        objStorage,
	}
}

// ItemRouter registers item routes on the given router. Every route
// requires authentication, including the public-facing listing.
func ItemRouter(r chi.Router, itemService *services.ItemService, requestService *services.RequestService, objStorage *storage.Storage) {
	handler := NewItemHandler(itemService, requestService, objStorage)

	r.Get("/lost", handler.ListLost)
	r.Post("/report", handler.Report)
	r.Post("/claim/{itemID}", handler.Claim)
	r.Get("/my-reports", handler.MyReports)
	r.Get("/my-claims", handler.MyClaims)
	r.Get("/my-pending-requests", handler.MyPendingRequests)
	r.Get("/all", handler.ListAll)
}

// ListLost returns the claimable items, excluding the viewer's own reports.
func (h *ItemHandler) ListLost(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	items, err := h.itemService.ListUnclaimed(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	writeJSON(w, http.StatusOK, withImageURLs(items))
}

// Report accepts a multipart found-item report with an optional photo and
// opens the matching approval request.
func (h *ItemHandler) Report(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	form, err := parseReportForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	imageKey, err := h.saveImage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, request, err := h.requestService.SubmitReport(r.Context(), types.Item{
		Title:       form.Title,
		Description: form.Description,
		Category:    form.Category,
		Subcategory: form.Subcategory,
		Location:    form.Location,
		DateFound:   form.DateFound,
		ImageKey:    imageKey,
		ReportedBy:  userID,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to submit report")
		return
	}

	writeJSON(w, http.StatusCreated, ReportResponse{
		Item:    withImageURL(item),
		Request: request,
	})
}

// Claim opens a claim request for an item.
func (h *ItemHandler) Claim(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	itemID, err := parseIDParam(r, "itemID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	request, err := h.requestService.SubmitClaim(r.Context(), itemID, userID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "item not found")
		case errors.Is(err, services.ErrAlreadyClaimed):
			writeError(w, http.StatusBadRequest, "item already claimed")
		default:
			writeError(w, http.StatusInternalServerError, "failed to submit claim")
		}
		return
	}

	writeJSON(w, http.StatusCreated, request)
}

// MyReports returns every item the user reported, any status.
func (h *ItemHandler) MyReports(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	items, err := h.itemService.ListMine(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}

	writeJSON(w, http.StatusOK, withImageURLs(items))
}

// MyClaims returns items whose claim by the user was approved.
func (h *ItemHandler) MyClaims(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	items, err := h.itemService.ListClaimedByMe(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list claims")
		return
	}

	writeJSON(w, http.StatusOK, withImageURLs(items))
}

// MyPendingRequests returns the user's undecided report and claim requests.
func (h *ItemHandler) MyPendingRequests(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	requests, err := h.itemService.ListMyPendingRequests(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list requests")
		return
	}

	writeJSON(w, http.StatusOK, withRequestImageURLs(requests))
}

// ListAll returns every item with reporter and claimant names.
func (h *ItemHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	if _, err := userIDFromContext(r.Context()); err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	items, err := h.itemService.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	writeJSON(w, http.StatusOK, withImageURLs(items))
}

// ReportForm represents the parsed multipart report payload.
type ReportForm struct {
	Title       string
	Description string
	Category    string
	Subcategory string
	Location    string
	DateFound   time.Time
}

// ReportResponse carries the created item alongside its approval request.
type ReportResponse struct {
	Item    types.Item    `json:"item"`
	Request types.Request `json:"request"`
}

func parseReportForm(r *http.Request) (ReportForm, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return ReportForm{}, errors.New("invalid multipart form")
	}

	title := strings.TrimSpace(r.FormValue(formFieldTitle))
	if title == "" {
		return ReportForm{}, errors.New("title is required")
	}

	description := strings.TrimSpace(r.FormValue(formFieldDescription))
	location := strings.TrimSpace(r.FormValue(formFieldLocation))
	if location == "" {
		return ReportForm{}, errors.New("location is required")
	}

	category := types.NormalizeCategory(r.FormValue(formFieldCategory))
	if !types.ValidCategory(category) {
		return ReportForm{}, errors.New("invalid category")
	}

	subcategory := strings.ToLower(strings.TrimSpace(r.FormValue(formFieldSubcategory)))
	if subcategory != "" && !types.ValidSubcategory(category, subcategory) {
		return ReportForm{}, errors.New("invalid subcategory")
	}

	dateFound, err := parseDate(r.FormValue(formFieldDateFound))
	if err != nil {
		return ReportForm{}, errors.New("invalid date_found")
	}
	if dateFound.IsZero() {
		// Old clients send date_lost for the same field.
		dateFound, err = parseDate(r.FormValue(formFieldDateLost))
		if err != nil {
			return ReportForm{}, errors.New("invalid date_lost")
		}
	}
	if dateFound.IsZero() {
		dateFound = time.Now()
	}

	return ReportForm{
		Title:       title,
		Description: description,
		Category:    category,
		Subcategory: subcategory,
		Location:    location,
		DateFound:   dateFound,
	}, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", raw)
}

// saveImage stores the optional image upload and returns its object key.
// A missing image field is not an error.
func (h *ItemHandler) saveImage(r *http.Request) (string, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[formFieldImage]) == 0 {
		return "", nil
	}
	if h.storage == nil {
		return "", errors.New("image uploads are not available")
	}

	fileHeader := r.MultipartForm.File[formFieldImage][0]
	if fileHeader.Size > maxImageBytes {
		return "", errors.New("image too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", errors.New("failed to read image")
	}
	defer file.Close()

	key := storage.NewImageKey(fileHeader.Filename)
	if key == "" {
		return "", errors.New("failed to store image")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := h.storage.Put(r.Context(), key, file, fileHeader.Size, contentType); err != nil {
		return "", errors.New("failed to store image")
	}
	return key, nil
}

func withImageURL(item types.Item) types.Item {
	if item.ImageKey != "" {
		item.ImageURL = uploadsPrefix + item.ImageKey
	}
	return item
}

func withImageURLs(items []types.Item) []types.Item {
	for i := range items {
		items[i] = withImageURL(items[i])
	}
	return items
}

func withRequestImageURLs(requests []types.Request) []types.Request {
	for i := range requests {
		if requests[i].Item != nil {
			decorated := withImageURL(*requests[i].Item)
			requests[i].Item = &decorated
		}
	}
	return requests
}

// UploadsHandler streams a stored item image.
func UploadsHandler(objStorage *storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if objStorage == nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		key := chi.URLParam(r, "key")
		if key == "" || strings.Contains(key, "/") || strings.Contains(key, "..") {
			writeError(w, http.StatusBadRequest, "invalid key")
			return
		}

		object, err := objStorage.Get(r.Context(), key)
		if err != nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		defer object.Close()

		w.Header().Set("Cache-Control", "public, max-age=86400")
		if _, err := io.Copy(w, object); err != nil {
			return
		}
	}
}
