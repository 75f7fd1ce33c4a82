// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hitoshi/linkmap/internal/model"
)

// bearerPrefix はAuthorizationヘッダーのスキーム。大文字小文字を区別する。
const bearerPrefix = "Bearer "

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// principalIDContextKey はリクエストコンテキストに管理者アカウントIDを格納するためのキー。
var principalIDContextKey = contextKey("principal_id")

// TokenVerifier はアクセストークンの検証に必要なインターフェース。
// auth.TokenVerifierの部分集合として定義する。
type TokenVerifier interface {
	Verify(tokenString string) (string, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証するミドルウェアを返す。
// 検証はクレームのみに基づくステートレスな処理で、ストアへの問い合わせは行わない。
// 検証済みの管理者アカウントIDをリクエストコンテキストに注入する。
//
// ヘッダーは厳密に "Bearer <token>"（スキーム大文字小文字区別、区切りは半角スペース1つ）
// でなければならず、未提示・形式不正はMissingToken、署名・構造の不正はInvalidToken、
// 期限切れはTokenExpiredとしていずれも401を返す。
func NewAuthMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")

			token, ok := strings.CutPrefix(header, bearerPrefix)
			if !ok || token == "" || strings.Contains(token, " ") {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewMissingTokenError())
				return
			}

			principalID, err := verifier.Verify(token)
			if err != nil {
				apiErr, isAPIErr := err.(*model.APIError)
				if !isAPIErr {
					apiErr = model.NewInvalidTokenError()
				}
				WriteErrorResponse(w, http.StatusUnauthorized, apiErr)
				return
			}

			ctx := context.WithValue(r.Context(), principalIDContextKey, principalID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalIDFromContext はリクエストコンテキストから管理者アカウントIDを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func PrincipalIDFromContext(ctx context.Context) (string, error) {
	principalID, ok := ctx.Value(principalIDContextKey).(string)
	if !ok || principalID == "" {
		return "", fmt.Errorf("principal ID not found in context")
	}
	return principalID, nil
}

// ContextWithPrincipalID はコンテキストに管理者アカウントIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithPrincipalID(ctx context.Context, principalID string) context.Context {
	return context.WithValue(ctx, principalIDContextKey, principalID)
}
