package repository

import (
	"errors"
	"testing"
)

// PostgresPrincipalRepoはPrincipalRepositoryインターフェースを満たすことを検証
func TestPostgresPrincipalRepo_ImplementsInterface(t *testing.T) {
	var _ PrincipalRepository = (*PostgresPrincipalRepo)(nil)
}

// NewPostgresPrincipalRepoが正しく初期化されることを検証
func TestNewPostgresPrincipalRepo_Initializes(t *testing.T) {
	repo := NewPostgresPrincipalRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// ErrDuplicateUsernameがerrors.Isで判別可能なセンチネルであることを検証
func TestErrDuplicateUsername_IsSentinel(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), ErrDuplicateUsername)
	if !errors.Is(wrapped, ErrDuplicateUsername) {
		t.Error("wrapped error should match ErrDuplicateUsername")
	}
}
