// Package auth は認証情報の取り扱い（パスワードハッシュ、ログインペイロードの
// エンコード、アクセストークンの発行・検証）とログインのビジネスロジックを提供する。
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost はパスワードハッシュのコストファクタ。
const bcryptCost = 10

// PasswordHasher はパスワードのソルト付き一方向ハッシュと照合を提供する。
type PasswordHasher struct{}

// NewPasswordHasher はPasswordHasherを生成する。
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{}
}

// Hash は平文パスワードのbcryptハッシュを生成する。
// ソルトは呼び出しごとにランダム生成されるため、同一パスワードでも結果は毎回異なる。
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify は平文パスワードと保存済みハッシュを照合する。
// ハッシュに埋め込まれたソルトを使って再計算し、一致すればtrueを返す。
// 平文パスワードをログや戻り値に含めてはならない。
func (h *PasswordHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
