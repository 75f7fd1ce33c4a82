package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/linkmap/internal/auth"
	"github.com/hitoshi/linkmap/internal/middleware"
	"github.com/hitoshi/linkmap/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, creds model.Credentials) (*auth.Result, error)
	Register(ctx context.Context, username, password string) (*auth.Result, error)
	CurrentPrincipal(ctx context.Context, principalID string) (*model.Principal, error)
}

// CredentialDecoder はログインペイロードの復号に必要なインターフェース。
// auth.CredentialCodecの部分集合として定義する。
type CredentialDecoder interface {
	Decode(transport string) (model.Credentials, error)
}

// AuthHandler はログイン・登録・アカウント参照のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	codec   CredentialDecoder
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, codec CredentialDecoder) *AuthHandler {
	return &AuthHandler{
		service: service,
		codec:   codec,
	}
}

// loginRequest はログインリクエストのボディ。
// encryptedフィールドを持つエンコード形式と、username/passwordを直接持つ
// レガシー形式の両方を受け付ける。encryptedが非空の場合はエンコード形式として扱う。
type loginRequest struct {
	Encrypted string `json:"encrypted"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

// registerRequest は管理者登録リクエストのボディ。
type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// authResponse はログイン・登録成功時のレスポンス。
type authResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// principalResponse はアカウント情報のレスポンス。パスワードハッシュは含めない。
type principalResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Login は管理者ログインを処理する。
// POST /api/users/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewBadPayloadError())
		return
	}

	// エンコード形式とレガシー形式を単一のCredentialsに正規化してから
	// ビジネスロジックに渡す
	var creds model.Credentials
	if req.Encrypted != "" {
		decoded, err := h.codec.Decode(req.Encrypted)
		if err != nil {
			slog.Warn("failed to decode login payload",
				slog.String("error", err.Error()),
			)
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewBadPayloadError())
			return
		}
		creds = decoded
	} else {
		creds = model.Credentials{
			Username: req.Username,
			Password: req.Password,
		}
	}

	result, err := h.service.Login(r.Context(), creds)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		ID:       result.Principal.ID,
		Username: result.Principal.Username,
		Token:    result.Token,
	})
}

// Register は管理者アカウントを登録する。初回の管理者作成のための公開エンドポイント。
// POST /api/users/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewBadPayloadError())
		return
	}

	result, err := h.service.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		ID:       result.Principal.ID,
		Username: result.Principal.Username,
		Token:    result.Token,
	})
}

// Me は現在のログインユーザー情報を返す。
// トークン自体は有効でも、発行後にアカウントが削除されていれば404を返す。
// GET /api/users/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principalID, err := middleware.PrincipalIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewMissingTokenError())
		return
	}

	principal, err := h.service.CurrentPrincipal(r.Context(), principalID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, principalResponse{
		ID:        principal.ID,
		Username:  principal.Username,
		CreatedAt: principal.CreatedAt,
		UpdatedAt: principal.UpdatedAt,
	})
}
