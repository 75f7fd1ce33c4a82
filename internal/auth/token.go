package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/linkmap/internal/model"
)

// Claims はアクセストークンに埋め込むJWTクレーム。
// 管理者アカウントのIDに加え、発行時刻と有効期限を標準クレームとして持つ。
type Claims struct {
	PrincipalID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenIssuer は署名付きアクセストークンを発行する。
// シークレットと有効期間は起動時に確定した設定値をコンストラクタで注入し、
// 以降イミュータブルとして扱う。
type TokenIssuer struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenIssuer はTokenIssuerを生成する。
func NewTokenIssuer(secret string, lifetime time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:   []byte(secret),
		lifetime: lifetime,
		now:      time.Now,
	}
}

// Issue は指定した管理者アカウントIDのアクセストークンを発行する。
// トークンはHS256で署名され、発行時刻と発行時刻+有効期間の有効期限を持つ。
// サーバー側には保存しない。同一IDでも発行時刻が異なれば別のトークン文字列になる。
func (i *TokenIssuer) Issue(principalID string) (string, error) {
	now := i.now()
	claims := Claims{
		PrincipalID: principalID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// TokenVerifier はアクセストークンの署名と有効期限を検証する。
// 検証はクレームのみに基づくステートレスな処理で、ストアへの問い合わせは行わない。
type TokenVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewTokenVerifier はTokenVerifierを生成する。
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Verify はトークン文字列を検証し、埋め込まれた管理者アカウントIDを返す。
// 署名不一致・破損・アルゴリズム不一致はInvalidToken、
// 署名は正しいが期限切れの場合はTokenExpiredを返す。
func (v *TokenVerifier) Verify(tokenString string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", model.NewTokenExpiredError()
		}
		return "", model.NewInvalidTokenError()
	}

	if !token.Valid || claims.PrincipalID == "" {
		return "", model.NewInvalidTokenError()
	}

	return claims.PrincipalID, nil
}
