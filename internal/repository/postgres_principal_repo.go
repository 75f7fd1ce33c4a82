package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/linkmap/internal/model"
)

// uniqueViolation はPostgreSQLの一意性制約違反のエラーコード。
const uniqueViolation = "23505"

// PostgresPrincipalRepo はPostgreSQLを使用した管理者アカウントリポジトリ。
type PostgresPrincipalRepo struct {
	db *sql.DB
}

// NewPostgresPrincipalRepo はPostgresPrincipalRepoを生成する。
func NewPostgresPrincipalRepo(db *sql.DB) *PostgresPrincipalRepo {
	return &PostgresPrincipalRepo{db: db}
}

// FindByID は指定IDの管理者アカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresPrincipalRepo) FindByID(ctx context.Context, id string) (*model.Principal, error) {
	principal := &model.Principal{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at, updated_at FROM principals WHERE id = $1`,
		id,
	).Scan(&principal.ID, &principal.Username, &principal.PasswordHash, &principal.CreatedAt, &principal.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find principal by ID: %w", err)
	}

	return principal, nil
}

// FindByUsername はユーザー名で管理者アカウントを検索する。見つからない場合はnilを返す。
func (r *PostgresPrincipalRepo) FindByUsername(ctx context.Context, username string) (*model.Principal, error) {
	principal := &model.Principal{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at, updated_at FROM principals WHERE username = $1`,
		username,
	).Scan(&principal.ID, &principal.Username, &principal.PasswordHash, &principal.CreatedAt, &principal.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find principal by username: %w", err)
	}

	return principal, nil
}

// Create は管理者アカウントを作成する。
// ユーザー名の一意性制約に違反した場合はErrDuplicateUsernameを返す。
func (r *PostgresPrincipalRepo) Create(ctx context.Context, principal *model.Principal) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO principals (id, username, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		principal.ID, principal.Username, principal.PasswordHash, principal.CreatedAt, principal.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("failed to insert principal: %w", err)
	}

	return nil
}

// compile-time interface check
var _ PrincipalRepository = (*PostgresPrincipalRepo)(nil)
