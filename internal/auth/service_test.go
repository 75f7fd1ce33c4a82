package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/linkmap/internal/model"
	"github.com/hitoshi/linkmap/internal/repository"
)

// --- モック定義 ---

type mockPrincipalRepo struct {
	findByIDFn       func(ctx context.Context, id string) (*model.Principal, error)
	findByUsernameFn func(ctx context.Context, username string) (*model.Principal, error)
	createFn         func(ctx context.Context, principal *model.Principal) error
}

func (m *mockPrincipalRepo) FindByID(ctx context.Context, id string) (*model.Principal, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockPrincipalRepo) FindByUsername(ctx context.Context, username string) (*model.Principal, error) {
	if m.findByUsernameFn != nil {
		return m.findByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockPrincipalRepo) Create(ctx context.Context, principal *model.Principal) error {
	if m.createFn != nil {
		return m.createFn(ctx, principal)
	}
	return nil
}

type mockStoreChecker struct {
	pingFn func(ctx context.Context) error
}

func (m *mockStoreChecker) PingContext(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

type mockLoginMetrics struct {
	successCount int
	failureCount int
}

func (m *mockLoginMetrics) RecordLoginSuccess() { m.successCount++ }
func (m *mockLoginMetrics) RecordLoginFailure() { m.failureCount++ }

func newTestService(repo repository.PrincipalRepository, checker StoreChecker, metrics LoginMetrics) *Service {
	return NewService(
		repo,
		checker,
		NewPasswordHasher(),
		NewTokenIssuer("test-secret", time.Hour),
		metrics,
	)
}

func assertAPIErrorCode(t *testing.T, err error, code string) {
	t.Helper()

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.Code != code {
		t.Errorf("Code = %q, want %q", apiErr.Code, code)
	}
}

// --- Login ---

func TestService_Login_Success(t *testing.T) {
	hasher := NewPasswordHasher()
	hash, err := hasher.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	repo := &mockPrincipalRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.Principal, error) {
			if username != "admin" {
				t.Errorf("username = %q, want %q", username, "admin")
			}
			return &model.Principal{ID: "id-1", Username: "admin", PasswordHash: hash}, nil
		},
	}
	metrics := &mockLoginMetrics{}
	svc := newTestService(repo, &mockStoreChecker{}, metrics)

	result, err := svc.Login(context.Background(), model.Credentials{
		Username: "admin",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if result.Principal.ID != "id-1" {
		t.Errorf("Principal.ID = %q, want %q", result.Principal.ID, "id-1")
	}
	if result.Token == "" {
		t.Error("Token should not be empty")
	}

	// 発行したトークンが検証可能であること
	verifier := NewTokenVerifier("test-secret")
	principalID, err := verifier.Verify(result.Token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if principalID != "id-1" {
		t.Errorf("principalID = %q, want %q", principalID, "id-1")
	}

	if metrics.successCount != 1 || metrics.failureCount != 0 {
		t.Errorf("metrics = (%d success, %d fail), want (1, 0)", metrics.successCount, metrics.failureCount)
	}
}

func TestService_Login_TrimsUsername(t *testing.T) {
	hasher := NewPasswordHasher()
	hash, _ := hasher.Hash("secret123")

	repo := &mockPrincipalRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.Principal, error) {
			if username != "admin" {
				t.Errorf("username = %q, want trimmed %q", username, "admin")
			}
			return &model.Principal{ID: "id-1", Username: "admin", PasswordHash: hash}, nil
		},
	}
	svc := newTestService(repo, &mockStoreChecker{}, nil)

	if _, err := svc.Login(context.Background(), model.Credentials{
		Username: "  admin  ",
		Password: "secret123",
	}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
}

func TestService_Login_MissingCredentials(t *testing.T) {
	svc := newTestService(&mockPrincipalRepo{}, &mockStoreChecker{}, nil)

	tests := []struct {
		name  string
		creds model.Credentials
	}{
		{name: "ユーザー名が空", creds: model.Credentials{Username: "", Password: "secret123"}},
		{name: "パスワードが空", creds: model.Credentials{Username: "admin", Password: ""}},
		{name: "ユーザー名が空白のみ", creds: model.Credentials{Username: "   ", Password: "secret123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tt.creds)
			assertAPIErrorCode(t, err, model.ErrCodeMissingCredentials)
		})
	}
}

func TestService_Login_UnknownUserAndWrongPassword_SameError(t *testing.T) {
	hasher := NewPasswordHasher()
	hash, _ := hasher.Hash("secret123")

	metrics := &mockLoginMetrics{}

	// ユーザー名が存在しない場合
	unknownRepo := &mockPrincipalRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.Principal, error) {
			return nil, nil
		},
	}
	svc := newTestService(unknownRepo, &mockStoreChecker{}, metrics)

	_, errUnknown := svc.Login(context.Background(), model.Credentials{
		Username: "nobody", Password: "secret123",
	})
	assertAPIErrorCode(t, errUnknown, model.ErrCodeInvalidCredentials)

	// パスワードが一致しない場合
	knownRepo := &mockPrincipalRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.Principal, error) {
			return &model.Principal{ID: "id-1", Username: "admin", PasswordHash: hash}, nil
		},
	}
	svc = newTestService(knownRepo, &mockStoreChecker{}, metrics)

	_, errWrong := svc.Login(context.Background(), model.Credentials{
		Username: "admin", Password: "wrong-password",
	})
	assertAPIErrorCode(t, errWrong, model.ErrCodeInvalidCredentials)

	// ユーザー名の存在有無でエラーメッセージが変わらないこと
	if errUnknown.Error() != errWrong.Error() {
		t.Errorf("error messages differ: %q vs %q", errUnknown.Error(), errWrong.Error())
	}

	if metrics.failureCount != 2 {
		t.Errorf("failureCount = %d, want 2", metrics.failureCount)
	}
}

func TestService_Login_StoreUnavailable(t *testing.T) {
	checker := &mockStoreChecker{
		pingFn: func(ctx context.Context) error {
			return errors.New("connection refused")
		},
	}

	repoCalled := false
	repo := &mockPrincipalRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.Principal, error) {
			repoCalled = true
			return nil, nil
		},
	}
	svc := newTestService(repo, checker, nil)

	_, err := svc.Login(context.Background(), model.Credentials{
		Username: "admin", Password: "secret123",
	})
	assertAPIErrorCode(t, err, model.ErrCodeStoreUnavailable)

	// ストア不達時は実際の操作を試みない
	if repoCalled {
		t.Error("repository should not be called when store is unavailable")
	}
}

func TestService_Login_RepoError(t *testing.T) {
	repo := &mockPrincipalRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.Principal, error) {
			return nil, errors.New("query failed")
		},
	}
	svc := newTestService(repo, &mockStoreChecker{}, nil)

	_, err := svc.Login(context.Background(), model.Credentials{
		Username: "admin", Password: "secret123",
	})
	if err == nil {
		t.Fatal("Login() error = nil, want error")
	}

	// インフラ障害は認証エラーとして扱わない
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		t.Errorf("infrastructure error should not be an APIError, got %v", apiErr)
	}
}

// --- Register ---

func TestService_Register_Success(t *testing.T) {
	var created *model.Principal
	repo := &mockPrincipalRepo{
		createFn: func(ctx context.Context, principal *model.Principal) error {
			created = principal
			return nil
		},
	}
	svc := newTestService(repo, &mockStoreChecker{}, nil)

	result, err := svc.Register(context.Background(), "newadmin", "secret123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if created == nil {
		t.Fatal("Create should have been called")
	}
	if created.ID == "" {
		t.Error("created principal should have an ID")
	}
	if created.Username != "newadmin" {
		t.Errorf("Username = %q, want %q", created.Username, "newadmin")
	}
	if created.PasswordHash == "secret123" || created.PasswordHash == "" {
		t.Error("PasswordHash should be a hash, not the plaintext or empty")
	}

	// 保存されたハッシュが平文パスワードと照合可能であること
	if !NewPasswordHasher().Verify("secret123", created.PasswordHash) {
		t.Error("stored hash should verify against the plaintext password")
	}

	if result.Token == "" {
		t.Error("Token should not be empty")
	}
}

func TestService_Register_ValidationErrors(t *testing.T) {
	svc := newTestService(&mockPrincipalRepo{}, &mockStoreChecker{}, nil)

	tests := []struct {
		name     string
		username string
		password string
		wantCode string
	}{
		{name: "ユーザー名が空", username: "", password: "secret123", wantCode: model.ErrCodeMissingCredentials},
		{name: "パスワードが空", username: "admin", password: "", wantCode: model.ErrCodeMissingCredentials},
		{name: "ユーザー名が短すぎる", username: "ab", password: "secret123", wantCode: model.ErrCodeInvalidUsername},
		{name: "ユーザー名が長すぎる", username: strings.Repeat("a", 51), password: "secret123", wantCode: model.ErrCodeInvalidUsername},
		{name: "パスワードが短すぎる", username: "admin", password: "12345", wantCode: model.ErrCodeWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.username, tt.password)
			assertAPIErrorCode(t, err, tt.wantCode)
		})
	}
}

func TestService_Register_MinimumPasswordLength(t *testing.T) {
	// 5文字は拒否、6文字ちょうどは受理される
	svc := newTestService(&mockPrincipalRepo{}, &mockStoreChecker{}, nil)

	if _, err := svc.Register(context.Background(), "admin", "12345"); err == nil {
		t.Error("Register() with 5-character password should fail")
	}
	if _, err := svc.Register(context.Background(), "admin", "123456"); err != nil {
		t.Errorf("Register() with 6-character password error = %v", err)
	}
}

func TestService_Register_DuplicateUsername(t *testing.T) {
	repo := &mockPrincipalRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.Principal, error) {
			return &model.Principal{ID: "id-1", Username: "admin"}, nil
		},
	}
	svc := newTestService(repo, &mockStoreChecker{}, nil)

	_, err := svc.Register(context.Background(), "admin", "secret123")
	assertAPIErrorCode(t, err, model.ErrCodeDuplicateUsername)
}

func TestService_Register_DuplicateRace(t *testing.T) {
	// 存在チェック通過後、作成時に一意性制約違反となるケース
	repo := &mockPrincipalRepo{
		createFn: func(ctx context.Context, principal *model.Principal) error {
			return repository.ErrDuplicateUsername
		},
	}
	svc := newTestService(repo, &mockStoreChecker{}, nil)

	_, err := svc.Register(context.Background(), "admin", "secret123")
	assertAPIErrorCode(t, err, model.ErrCodeDuplicateUsername)
}

// --- CurrentPrincipal ---

func TestService_CurrentPrincipal_Success(t *testing.T) {
	repo := &mockPrincipalRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Principal, error) {
			return &model.Principal{ID: id, Username: "admin"}, nil
		},
	}
	svc := newTestService(repo, &mockStoreChecker{}, nil)

	principal, err := svc.CurrentPrincipal(context.Background(), "id-1")
	if err != nil {
		t.Fatalf("CurrentPrincipal() error = %v", err)
	}
	if principal.ID != "id-1" {
		t.Errorf("ID = %q, want %q", principal.ID, "id-1")
	}
}

func TestService_CurrentPrincipal_NotFound(t *testing.T) {
	repo := &mockPrincipalRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Principal, error) {
			return nil, nil
		},
	}
	svc := newTestService(repo, &mockStoreChecker{}, nil)

	_, err := svc.CurrentPrincipal(context.Background(), "deleted-id")
	assertAPIErrorCode(t, err, model.ErrCodePrincipalNotFound)
}
