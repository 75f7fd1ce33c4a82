// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/linkmap/internal/model"
)

// ErrDuplicateUsername はユーザー名の一意性制約違反を表す。
// チェック後の作成までの間に同名アカウントが作られた場合にも返される。
var ErrDuplicateUsername = errors.New("username already exists")

// PrincipalRepository は管理者アカウントの永続化インターフェース。
type PrincipalRepository interface {
	// FindByID は指定IDの管理者アカウントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Principal, error)

	// FindByUsername はユーザー名で管理者アカウントを検索する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.Principal, error)

	// Create は管理者アカウントを作成する。
	// ユーザー名が既に存在する場合はErrDuplicateUsernameを返す。
	Create(ctx context.Context, principal *model.Principal) error
}

// PersonQuery は人員一覧取得の検索・ソート・ページネーション条件。
type PersonQuery struct {
	Search string // name/province/city/wechatに対する部分一致検索
	Sort   string // ソート対象カラム（ホワイトリスト外はcreated_atにフォールバック）
	Order  string // "asc" または "desc"
	Offset int
	Limit  int
}

// PersonRepository は人員データの永続化インターフェース。
type PersonRepository interface {
	// FindByID は指定IDの人員データを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Person, error)

	// List は検索条件に一致する人員データの1ページ分と総件数を返す。
	List(ctx context.Context, query PersonQuery) ([]*model.Person, int, error)

	// ListByProvince は指定した省の人員データを全件返す。
	ListByProvince(ctx context.Context, province string) ([]*model.Person, error)

	// Create は人員データを作成する。
	Create(ctx context.Context, person *model.Person) error

	// Update は人員データを更新する。対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, person *model.Person) (bool, error)

	// DeleteByID は指定IDの人員データを削除する。対象が存在しない場合はfalseを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)

	// DeleteByIDs は指定した複数IDの人員データを削除し、削除件数を返す。
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)

	// CountByProvince は省ごとの人員数を件数の多い順に返す。
	CountByProvince(ctx context.Context) ([]model.ProvinceStat, error)
}
