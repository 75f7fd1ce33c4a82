package auth

import (
	"strings"
	"testing"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := NewPasswordHasher()

	hash, err := h.Hash("correct-horse-battery")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	// ハッシュに平文が含まれないこと
	if strings.Contains(hash, "correct-horse-battery") {
		t.Error("hash should not contain the plaintext password")
	}

	if !h.Verify("correct-horse-battery", hash) {
		t.Error("Verify() = false for correct password, want true")
	}

	if h.Verify("wrong-password", hash) {
		t.Error("Verify() = true for wrong password, want false")
	}
}

func TestPasswordHasher_Hash_DiffersPerCall(t *testing.T) {
	h := NewPasswordHasher()

	first, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	second, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	// ソルトがランダムなため、同一パスワードでもハッシュは毎回異なる
	if first == second {
		t.Error("two hashes of the same password should differ")
	}

	// どちらのハッシュでも照合は成功する
	if !h.Verify("same-password", first) || !h.Verify("same-password", second) {
		t.Error("Verify() should succeed against both hashes")
	}
}

func TestPasswordHasher_Verify_GarbageHash(t *testing.T) {
	h := NewPasswordHasher()

	if h.Verify("password", "not-a-bcrypt-hash") {
		t.Error("Verify() = true for garbage hash, want false")
	}
}
