// Package service contains the business logic layer of the application.
//
// The layering is the usual one:
//
//	Handler (HTTP)  → Service (rules, orchestration) → Repository (storage)
//	                ↘ auth.TokenService / auth.PasswordService / upload.Store
//
// Services accept primitives and domain types, never *http.Request, and
// return apperror domain errors, never status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/sakif/adboard/internal/apperror"
	"github.com/sakif/adboard/internal/auth"
	"github.com/sakif/adboard/internal/form"
	"github.com/sakif/adboard/internal/model"
	"github.com/sakif/adboard/internal/repository"
)

// Uploader is the slice of upload.Store the service needs; an interface so
// tests can capture uploads without touching the filesystem.
type Uploader interface {
	Save(file multipart.File, header *multipart.FileHeader) (string, error)
}

// AuthService orchestrates registration, login and profile management.
//
// The register flow is strictly ordered: validate → store upload → hash →
// insert → issue token. Everything that can reject a submission cheaply
// runs before the expensive bcrypt hash, and everything runs before the
// insert — a rejected submission leaves no database state behind.
//
// Known accepted gap: if the photo upload succeeds and the insert then
// loses the email-uniqueness race, the stored file is orphaned. We log it
// and move on; a cleanup sweep is not worth the complexity at this scale.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	uploads   Uploader
	validator *form.Validator
	profile   *form.Validator
	logger    *slog.Logger
}

// NewAuthService wires the orchestrator. The validators are compiled once
// here and shared by every request — they are immutable and re-entrant.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	uploads Uploader,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		uploads:   uploads,
		validator: form.Compile(form.RegistrationFields),
		profile:   form.Compile(form.ProfileFields),
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued session token.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register runs the full registration flow. values carries the text fields
// of the multipart submission; photo/photoHeader are nil when no file part
// was sent.
//
// Failure modes, in order of evaluation:
//   - ErrValidation with per-field messages, nothing persisted
//   - ErrInvalidAttachment, nothing persisted
//   - ErrConflict when the email is taken (case-insensitive, decided
//     atomically by the storage constraint)
func (s *AuthService) Register(
	ctx context.Context,
	values map[string]string,
	photo multipart.File,
	photoHeader *multipart.FileHeader,
) (*AuthResult, error) {
	if errs := s.validator.Validate(values); len(errs) > 0 {
		return nil, apperror.ValidationFields(errs)
	}

	photoPath := ""
	if photo != nil {
		path, err := s.uploads.Save(photo, photoHeader)
		if err != nil {
			return nil, fmt.Errorf("service/auth: storing photo: %w", err)
		}
		photoPath = path
	}

	hash, err := s.passwords.Hash(values["password"])
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		FullName:     strings.TrimSpace(values["fullName"]),
		Nickname:     strings.TrimSpace(values["nickname"]),
		Email:        strings.TrimSpace(values["email"]),
		PasswordHash: hash,
		PhotoPath:    photoPath,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) && photoPath != "" {
			// The accepted asymmetry: the upload stays on disk, referenced
			// by nothing. Logged so an operator can sweep if it ever matters.
			s.logger.Warn("orphaned upload after registration conflict",
				slog.String("photoPath", photoPath),
			)
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("nickname", user.Nickname),
	)

	return &AuthResult{User: user, Token: token}, nil
}

// Login authenticates an email/password pair and issues a session token.
//
// Account-enumeration resistance: an unknown email and a wrong password
// return the IDENTICAL apperror.Unauthorized() — callers (and therefore
// clients) cannot tell which one happened.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized()
		}
		return nil, fmt.Errorf("service/auth: looking up email: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized()
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return &AuthResult{User: user, Token: token}, nil
}

// UpdateProfile applies a profile update submitted by callerID against the
// account targetID. Only the owner may update their record; email and
// password are immutable through this path.
func (s *AuthService) UpdateProfile(
	ctx context.Context,
	callerID, targetID string,
	values map[string]string,
	photo multipart.File,
	photoHeader *multipart.FileHeader,
) (*model.User, error) {
	if callerID != targetID {
		return nil, apperror.Forbidden("you may only update your own profile")
	}

	if errs := s.profile.Validate(values); len(errs) > 0 {
		return nil, apperror.ValidationFields(errs)
	}

	patch := model.UserPatch{}
	if fullName := strings.TrimSpace(values["fullName"]); fullName != "" {
		patch.FullName = &fullName
	}
	if nickname := strings.TrimSpace(values["nickname"]); nickname != "" {
		patch.Nickname = &nickname
	}
	if photo != nil {
		path, err := s.uploads.Save(photo, photoHeader)
		if err != nil {
			return nil, fmt.Errorf("service/auth: storing photo: %w", err)
		}
		patch.PhotoPath = &path
	}

	user, err := s.users.Update(ctx, targetID, patch)
	if err != nil {
		return nil, fmt.Errorf("service/auth: updating user %s: %w", targetID, err)
	}

	return user, nil
}

// GetUserByID returns the user for the given internal id. Used by the
// /api/users/me handler after the guard has verified the token.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	return user, nil
}
