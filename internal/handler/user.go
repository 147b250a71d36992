// Package handler contains the HTTP request handlers. Handlers parse
// requests, call the service layer, and write responses — no business logic
// lives here.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/adboard/internal/auth"
	"github.com/sakif/adboard/internal/form"
	"github.com/sakif/adboard/internal/service"
	"github.com/sakif/adboard/internal/upload"
)

// maxMultipartMemory caps the multipart body: the photo ceiling plus
// headroom for the text fields. Bodies past this are refused mid-read.
const maxMultipartMemory = upload.MaxUploadBytes + 1<<20

// UserHandler serves registration, login and profile endpoints.
//
//	POST /api/users           → HandleRegister  (multipart)
//	POST /api/auth/login      → HandleLogin     (JSON)
//	GET  /api/users/me        → HandleMe        (bearer)
//	PUT  /api/users/{id}      → HandleUpdate    (multipart, bearer)
//	GET  /api/forms/registration → HandleRegistrationForm
type UserHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func NewUserHandler(authService *service.AuthService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		auth:   authService,
		logger: logger,
	}
}

// formValues pulls the text fields named by the registry out of a parsed
// multipart form. Absent fields come back as "" and fail validation the
// same way empty ones do.
func formValues(r *http.Request, fields []form.Field) map[string]string {
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		if f.Kind == form.KindFile {
			continue
		}
		values[f.Name] = r.FormValue(f.Name)
	}
	return values
}

// photoFile extracts the optional photo part. A missing part is (nil, nil,
// nil) — registration without a photo is fine; anything else wrong with the
// part is a client error.
func photoFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := r.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return file, header, nil
}

// HandleRegister creates a new account from a multipart submission.
//
// HTTP: POST /api/users
// Response: 201 {userId, token} — the token logs the fresh account straight
// in, the client doesn't need a follow-up login call.
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartMemory)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "expected a multipart form submission",
		})
		return
	}

	photo, header, err := photoFile(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "malformed photo upload",
		})
		return
	}
	if photo != nil {
		defer photo.Close()
	}

	result, err := h.auth.Register(r.Context(), formValues(r, form.RegistrationFields), photo, header)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"userId": result.User.ID,
		"token":  result.Token,
	})
}

// loginRequest is the JSON body of POST /api/auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin authenticates an email/password pair.
//
// HTTP: POST /api/auth/login
// Response: 200 {token} or a generic 401 — the body never says whether the
// email exists.
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "invalid JSON body",
		})
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": result.Token})
}

// HandleMe returns the authenticated user's own record.
//
// HTTP: GET /api/users/me
// Auth: required (guard middleware).
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, but don't rely on wiring.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "authentication required",
		})
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// HandleUpdate updates the caller's own profile (name, nickname, photo).
//
// HTTP: PUT /api/users/{id}
// Auth: required; updating anyone else's id is 403.
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
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

	photo, header, err := photoFile(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "malformed photo upload",
		})
		return
	}
	if photo != nil {
		defer photo.Close()
	}

	targetID := chi.URLParam(r, "id")
	user, err := h.auth.UpdateProfile(r.Context(), userID, targetID,
		formValues(r, form.ProfileFields), photo, header)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"userId": user.ID})
}

// HandleRegistrationForm serves the registration field registry as JSON.
// The frontend compiles its client-side validation from this — same rules,
// one source, no drift.
//
// HTTP: GET /api/forms/registration
func (h *UserHandler) HandleRegistrationForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"fields": form.RegistrationFields})
}
