package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"os"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/adboard/internal/apperror"
	"github.com/sakif/adboard/internal/auth"
	"github.com/sakif/adboard/internal/model"
)

// mockUserRepo is an in-memory UserRepository. It mirrors the real
// implementation's contract: Create enforces case-insensitive email
// uniqueness and returns apperror.ErrConflict for the loser.
type mockUserRepo struct {
	users  map[string]*model.User
	nextID int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return apperror.Conflict("an account with this email already exists")
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("mock-%d", m.nextID)
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockUserRepo) Update(_ context.Context, id string, patch model.UserPatch) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	if patch.FullName != nil {
		u.FullName = *patch.FullName
	}
	if patch.Nickname != nil {
		u.Nickname = *patch.Nickname
	}
	if patch.PhotoPath != nil {
		u.PhotoPath = *patch.PhotoPath
	}
	result := *u
	return &result, nil
}

// mockUploader records Save calls without touching the filesystem.
type mockUploader struct {
	calls     int
	returnErr error
}

func (m *mockUploader) Save(multipart.File, *multipart.FileHeader) (string, error) {
	m.calls++
	if m.returnErr != nil {
		return "", m.returnErr
	}
	return fmt.Sprintf("uploads/mock-%d.jpg", m.calls), nil
}

// fakePhoto is a stand-in multipart.File; the service only checks it for
// nil before handing it to the Uploader, so an empty implementation does.
type fakePhoto struct{}

func (fakePhoto) Read([]byte) (int, error)          { return 0, nil }
func (fakePhoto) ReadAt([]byte, int64) (int, error) { return 0, nil }
func (fakePhoto) Seek(int64, int) (int64, error)    { return 0, nil }
func (fakePhoto) Close() error                      { return nil }

func newTestAuthService(t *testing.T) (*AuthService, *mockUserRepo, *mockUploader) {
	t.Helper()
	repo := newMockUserRepo()
	uploads := &mockUploader{}
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", auth.DefaultTokenTTL)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := NewAuthService(repo, tokens, auth.NewPasswordService(bcrypt.MinCost), uploads, logger)
	return svc, repo, uploads
}

func registrationValues() map[string]string {
	return map[string]string{
		"fullName":  "Ana Silva",
		"nickname":  "ana",
		"email":     "ana@example.com",
		"password":  "Secret123",
		"password2": "Secret123",
	}
}

func TestRegister_Success(t *testing.T) {
	svc, repo, uploads := newTestAuthService(t)

	result, err := svc.Register(context.Background(), registrationValues(), nil, nil)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if result.User.ID == "" {
		t.Error("Register() did not assign a user ID")
	}
	if result.Token == "" {
		t.Error("Register() did not issue a token")
	}
	if result.User.PasswordHash == "Secret123" || result.User.PasswordHash == "" {
		t.Error("Register() stored the password badly")
	}
	if uploads.calls != 0 {
		t.Errorf("Register() without photo called the uploader %d times", uploads.calls)
	}

	stored := repo.users[result.User.ID]
	if stored == nil {
		t.Fatal("Register() did not persist the user")
	}
	if stored.Email != "ana@example.com" {
		t.Errorf("stored email = %q", stored.Email)
	}
}

func TestRegister_TokenBindsNewUser(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	result, err := svc.Register(context.Background(), registrationValues(), nil, nil)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got, err := svc.tokens.Verify(result.Token)
	if err != nil {
		t.Fatalf("Verify() on freshly issued token: %v", err)
	}
	if got != result.User.ID {
		t.Errorf("token subject = %q, want %q", got, result.User.ID)
	}
}

func TestRegister_WithPhoto(t *testing.T) {
	svc, repo, uploads := newTestAuthService(t)

	result, err := svc.Register(context.Background(), registrationValues(),
		fakePhoto{}, &multipart.FileHeader{Filename: "me.jpg", Size: 100})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if uploads.calls != 1 {
		t.Errorf("uploader called %d times, want 1", uploads.calls)
	}
	if repo.users[result.User.ID].PhotoPath != "uploads/mock-1.jpg" {
		t.Errorf("PhotoPath = %q", repo.users[result.User.ID].PhotoPath)
	}
}

// TestRegister_InvalidFieldsHasNoSideEffects: a validation rejection must
// happen before the upload and before any persistence.
func TestRegister_InvalidFieldsHasNoSideEffects(t *testing.T) {
	svc, repo, uploads := newTestAuthService(t)

	values := registrationValues()
	values["email"] = "not-an-email"
	values["password2"] = "Different"

	_, err := svc.Register(context.Background(), values,
		fakePhoto{}, &multipart.FileHeader{Filename: "me.jpg", Size: 100})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Register() error = %v, want ErrValidation", err)
	}

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatal("error is not an *AppError")
	}
	if appErr.Fields["email"] == "" {
		t.Error("missing field error for email")
	}
	if appErr.Fields["password2"] != "passwords do not match" {
		t.Errorf("password2 error = %q", appErr.Fields["password2"])
	}

	if uploads.calls != 0 {
		t.Error("uploader ran despite validation failure")
	}
	if len(repo.users) != 0 {
		t.Error("user persisted despite validation failure")
	}
}

func TestRegister_BadAttachmentAbortsBeforePersistence(t *testing.T) {
	svc, repo, uploads := newTestAuthService(t)
	uploads.returnErr = apperror.InvalidAttachment("photo must be an image")

	_, err := svc.Register(context.Background(), registrationValues(),
		fakePhoto{}, &multipart.FileHeader{Filename: "evil.exe", Size: 100})
	if !errors.Is(err, apperror.ErrInvalidAttachment) {
		t.Fatalf("Register() error = %v, want ErrInvalidAttachment", err)
	}
	if len(repo.users) != 0 {
		t.Error("user persisted despite attachment rejection")
	}
}

func TestRegister_DuplicateEmailConflict(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)

	if _, err := svc.Register(context.Background(), registrationValues(), nil, nil); err != nil {
		t.Fatalf("first Register(): %v", err)
	}

	// Same email, different case — still a conflict.
	values := registrationValues()
	values["email"] = "ANA@EXAMPLE.COM"
	_, err := svc.Register(context.Background(), values, nil, nil)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("second Register() error = %v, want ErrConflict", err)
	}

	if len(repo.users) != 1 {
		t.Errorf("user count = %d, want exactly 1", len(repo.users))
	}
}

// TestRegister_ConflictLeavesOrphanedUpload documents the accepted gap: the
// upload lands before the insert discovers the conflict, and is not cleaned
// up afterwards.
func TestRegister_ConflictLeavesOrphanedUpload(t *testing.T) {
	svc, repo, uploads := newTestAuthService(t)

	if _, err := svc.Register(context.Background(), registrationValues(), nil, nil); err != nil {
		t.Fatalf("first Register(): %v", err)
	}

	_, err := svc.Register(context.Background(), registrationValues(),
		fakePhoto{}, &multipart.FileHeader{Filename: "me.jpg", Size: 100})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("second Register() error = %v, want ErrConflict", err)
	}

	if uploads.calls != 1 {
		t.Errorf("uploader called %d times, want 1 (upload precedes the insert)", uploads.calls)
	}
	if len(repo.users) != 1 {
		t.Errorf("user count = %d, want 1", len(repo.users))
	}
}

func TestLogin_Success(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	reg, err := svc.Register(context.Background(), registrationValues(), nil, nil)
	if err != nil {
		t.Fatalf("Register(): %v", err)
	}

	result, err := svc.Login(context.Background(), "ana@example.com", "Secret123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.User.ID != reg.User.ID {
		t.Errorf("Login() user = %q, want %q", result.User.ID, reg.User.ID)
	}

	got, err := svc.tokens.Verify(result.Token)
	if err != nil || got != reg.User.ID {
		t.Errorf("token subject = %q (err %v), want %q", got, err, reg.User.ID)
	}
}

func TestLogin_CaseInsensitiveEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	if _, err := svc.Register(context.Background(), registrationValues(), nil, nil); err != nil {
		t.Fatalf("Register(): %v", err)
	}

	if _, err := svc.Login(context.Background(), "ANA@Example.COM", "Secret123"); err != nil {
		t.Errorf("Login() with case-variant email: %v", err)
	}
}

// TestLogin_GenericFailure: unknown email and wrong password must be
// INDISTINGUISHABLE — same sentinel, same message.
func TestLogin_GenericFailure(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	if _, err := svc.Register(context.Background(), registrationValues(), nil, nil); err != nil {
		t.Fatalf("Register(): %v", err)
	}

	_, errWrongPassword := svc.Login(context.Background(), "ana@example.com", "nope")
	_, errUnknownEmail := svc.Login(context.Background(), "ghost@example.com", "nope")

	if !errors.Is(errWrongPassword, apperror.ErrUnauthorized) {
		t.Errorf("wrong password error = %v, want ErrUnauthorized", errWrongPassword)
	}
	if !errors.Is(errUnknownEmail, apperror.ErrUnauthorized) {
		t.Errorf("unknown email error = %v, want ErrUnauthorized", errUnknownEmail)
	}
	if errWrongPassword.Error() != errUnknownEmail.Error() {
		t.Errorf("failure messages differ: %q vs %q — account enumeration hole",
			errWrongPassword.Error(), errUnknownEmail.Error())
	}
}

func TestUpdateProfile_OwnerOnly(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	reg, err := svc.Register(context.Background(), registrationValues(), nil, nil)
	if err != nil {
		t.Fatalf("Register(): %v", err)
	}

	_, err = svc.UpdateProfile(context.Background(), "someone-else", reg.User.ID,
		map[string]string{"fullName": "Eve", "nickname": "eve"}, nil, nil)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("UpdateProfile() by non-owner error = %v, want ErrForbidden", err)
	}
}

func TestUpdateProfile_Success(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)

	reg, err := svc.Register(context.Background(), registrationValues(), nil, nil)
	if err != nil {
		t.Fatalf("Register(): %v", err)
	}

	updated, err := svc.UpdateProfile(context.Background(), reg.User.ID, reg.User.ID,
		map[string]string{"fullName": "Ana S. Silva", "nickname": "anasilva"},
		fakePhoto{}, &multipart.FileHeader{Filename: "new.jpg", Size: 10})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}

	if updated.FullName != "Ana S. Silva" {
		t.Errorf("FullName = %q", updated.FullName)
	}
	if updated.PhotoPath == "" {
		t.Error("PhotoPath not set after photo update")
	}
	if repo.users[reg.User.ID].Email != "ana@example.com" {
		t.Error("email changed through a profile update")
	}
}

func TestGetUserByID(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	reg, err := svc.Register(context.Background(), registrationValues(), nil, nil)
	if err != nil {
		t.Fatalf("Register(): %v", err)
	}

	user, err := svc.GetUserByID(context.Background(), reg.User.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if user.Nickname != "ana" {
		t.Errorf("Nickname = %q", user.Nickname)
	}

	if _, err := svc.GetUserByID(context.Background(), ""); err == nil {
		t.Error("GetUserByID(\"\") should fail")
	}
}
