package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/adboard/internal/auth"
	"github.com/sakif/adboard/internal/service"
)

// AdHandler serves the classified-listing endpoints.
//
//	POST   /api/ads      → HandleCreate (multipart, bearer)
//	GET    /api/ads      → HandleList
//	GET    /api/ads/{id} → HandleGet
//	PUT    /api/ads/{id} → HandleUpdate (multipart, bearer)
//	DELETE /api/ads/{id} → HandleDelete (bearer)
type AdHandler struct {
	ads    *service.AdService
	logger *slog.Logger
}

func NewAdHandler(ads *service.AdService, logger *slog.Logger) *AdHandler {
	return &AdHandler{
		ads:    ads,
		logger: logger,
	}
}

// adInput parses the multipart fields shared by create and update. The price
// arrives as a decimal string of cents; anything non-numeric is a validation
// error, not a 500.
func adInput(r *http.Request) (service.AdInput, error) {
	in := service.AdInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}

	if raw := r.FormValue("price"); raw != "" {
		price, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return in, err
		}
		in.Price = price
	}

	photo, header, err := photoFile(r)
	if err != nil {
		return in, err
	}
	in.Photo = photo
	in.PhotoHeader = header
	return in, nil
}

// HandleCreate posts a new ad owned by the authenticated user.
//
// HTTP: POST /api/ads
func (h *AdHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "authentication required",
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartMemory)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "expected a multipart form submission",
		})
		return
	}

	in, err := adInput(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:       "validation_error",
			Message:     "validation failed",
			FieldErrors: map[string]string{"price": "price must be a whole number of cents"},
		})
		return
	}
	if in.Photo != nil {
		defer in.Photo.Close()
	}

	ad, err := h.ads.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"ad": ad})
}

// HandleList returns ads newest-first. Supports ?limit= and ?offset=;
// bad or absent values fall back to the service defaults.
//
// HTTP: GET /api/ads
func (h *AdHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	ads, err := h.ads.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ads": ads})
}

// HandleGet returns a single ad by id.
//
// HTTP: GET /api/ads/{id}
func (h *AdHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ad, err := h.ads.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ad": ad})
}

// HandleUpdate replaces an ad's fields. Only the owner may update.
//
// HTTP: PUT /api/ads/{id}
func (h *AdHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "authentication required",
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartMemory)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "expected a multipart form submission",
		})
		return
	}

	in, err := adInput(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:       "validation_error",
			Message:     "validation failed",
			FieldErrors: map[string]string{"price": "price must be a whole number of cents"},
		})
		return
	}
	if in.Photo != nil {
		defer in.Photo.Close()
	}

	ad, err := h.ads.Update(r.Context(), userID, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ad": ad})
}

// HandleDelete removes an ad. Only the owner may delete.
//
// HTTP: DELETE /api/ads/{id}
func (h *AdHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "authentication required",
		})
		return
	}

	if err := h.ads.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
