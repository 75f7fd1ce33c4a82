package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/linkmap/internal/model"
	"github.com/hitoshi/linkmap/internal/repository"
)

// パスワードとユーザー名の入力制約。
const (
	minPasswordLength = 6
	minUsernameLength = 3
	maxUsernameLength = 50
)

// storePingTimeout はストア死活確認のタイムアウト。
// 接続断で各操作がハングしないよう、実際の操作の前に短時間で確認する。
const storePingTimeout = 2 * time.Second

// StoreChecker はバッキングストアの死活確認インターフェース。
// *sql.DBがそのまま満たす。
type StoreChecker interface {
	PingContext(ctx context.Context) error
}

// LoginMetrics はログイン結果のメトリクス記録インターフェース。
type LoginMetrics interface {
	RecordLoginSuccess()
	RecordLoginFailure()
}

// Result はログイン・登録成功時の戻り値。
// トークンはサーバー側に保存せず、クライアントが以後のリクエストで提示する。
type Result struct {
	Principal *model.Principal
	Token     string
}

// Service はログイン・登録・アカウント参照のビジネスロジックを提供する。
type Service struct {
	repo    repository.PrincipalRepository
	checker StoreChecker
	hasher  *PasswordHasher
	issuer  *TokenIssuer
	metrics LoginMetrics
}

// NewService はServiceを生成する。metricsはnilを許容する。
func NewService(
	repo repository.PrincipalRepository,
	checker StoreChecker,
	hasher *PasswordHasher,
	issuer *TokenIssuer,
	metrics LoginMetrics,
) *Service {
	return &Service{
		repo:    repo,
		checker: checker,
		hasher:  hasher,
		issuer:  issuer,
		metrics: metrics,
	}
}

// Login は認証情報を検証し、成功時にアクセストークンを発行する。
// ユーザー名が存在しない場合とパスワードが一致しない場合は同一のエラーを返し、
// ユーザー名の存在有無を外部に漏らさない。
func (s *Service) Login(ctx context.Context, creds model.Credentials) (*Result, error) {
	if err := s.checkStore(ctx); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(creds.Username)
	if username == "" || creds.Password == "" {
		return nil, model.NewMissingCredentialsError()
	}

	principal, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find principal: %w", err)
	}

	if principal == nil || !s.hasher.Verify(creds.Password, principal.PasswordHash) {
		s.recordLoginFailure()
		return nil, model.NewInvalidCredentialsError()
	}

	token, err := s.issuer.Issue(principal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.recordLoginSuccess()
	slog.Info("principal logged in",
		slog.String("principal_id", principal.ID),
	)

	return &Result{Principal: principal, Token: token}, nil
}

// Register は新しい管理者アカウントを作成し、アクセストークンを発行する。
// パスワードハッシュはここで1回だけ計算され、以後パスワード変更以外で再計算されない。
func (s *Service) Register(ctx context.Context, username, password string) (*Result, error) {
	if err := s.checkStore(ctx); err != nil {
		return nil, err
	}

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, model.NewMissingCredentialsError()
	}
	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		return nil, model.NewInvalidUsernameError()
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return nil, model.NewWeakPasswordError()
	}

	existing, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find principal: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateUsernameError()
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	principal := &model.Principal{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, principal); err != nil {
		// 存在チェックと作成の間に同名アカウントが作られた場合
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, model.NewDuplicateUsernameError()
		}
		return nil, fmt.Errorf("failed to create principal: %w", err)
	}

	token, err := s.issuer.Issue(principal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("principal registered",
		slog.String("principal_id", principal.ID),
	)

	return &Result{Principal: principal, Token: token}, nil
}

// CurrentPrincipal はトークン検証済みのIDから現在の管理者アカウントを取得する。
// トークン発行後にアカウントが削除されている場合はPrincipalNotFoundを返す。
func (s *Service) CurrentPrincipal(ctx context.Context, principalID string) (*model.Principal, error) {
	if err := s.checkStore(ctx); err != nil {
		return nil, err
	}

	principal, err := s.repo.FindByID(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to find principal: %w", err)
	}
	if principal == nil {
		return nil, model.NewPrincipalNotFoundError()
	}

	return principal, nil
}

// checkStore はストアの死活を確認する。
// 到達できない場合は操作を試みずにStoreUnavailableで即座に失敗する。
func (s *Service) checkStore(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, storePingTimeout)
	defer cancel()

	if err := s.checker.PingContext(pingCtx); err != nil {
		slog.Warn("store unavailable",
			slog.String("error", err.Error()),
		)
		return model.NewStoreUnavailableError()
	}
	return nil
}

func (s *Service) recordLoginSuccess() {
	if s.metrics != nil {
		s.metrics.RecordLoginSuccess()
	}
}

func (s *Service) recordLoginFailure() {
	if s.metrics != nil {
		s.metrics.RecordLoginFailure()
	}
}
