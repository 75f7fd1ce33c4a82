// Package person は人員データ管理のドメインロジックを提供する。
package person

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hitoshi/linkmap/internal/model"
	"github.com/hitoshi/linkmap/internal/repository"
)

// phonePattern は中国本土の携帯電話番号の形式。
var phonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)

const (
	maxNameLength  = 100
	defaultPerPage = 10
	maxPerPage     = 100
)

// storePingTimeout はストア死活確認のタイムアウト。
const storePingTimeout = 2 * time.Second

// StoreChecker はバッキングストアの死活確認インターフェース。
type StoreChecker interface {
	PingContext(ctx context.Context) error
}

// Input は人員データの作成・更新の入力値。
type Input struct {
	Name      string
	Province  string
	City      string
	Wechat    string
	Phone     string
	Longitude *float64
	Latitude  *float64
}

// ListParams は人員一覧取得のページネーション・検索条件。
type ListParams struct {
	Page   int
	Limit  int
	Search string
	Sort   string
	Order  string
}

// Service は人員データ管理のサービス層。
// 自由入力のテキスト項目は管理画面でそのまま表示されるため、
// 保存前にHTMLタグを全て除去する。
type Service struct {
	repo      repository.PersonRepository
	checker   StoreChecker
	sanitizer *bluemonday.Policy
}

// NewService はServiceを生成する。
func NewService(repo repository.PersonRepository, checker StoreChecker) *Service {
	return &Service{
		repo:      repo,
		checker:   checker,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// List は人員一覧を検索・ソート・ページネーション付きで返す。
func (s *Service) List(ctx context.Context, params ListParams) (*model.PersonPage, error) {
	if err := s.checkStore(ctx); err != nil {
		return nil, err
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit < 1 {
		limit = defaultPerPage
	}
	if limit > maxPerPage {
		limit = maxPerPage
	}

	persons, total, err := s.repo.List(ctx, repository.PersonQuery{
		Search: params.Search,
		Sort:   params.Sort,
		Order:  params.Order,
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list persons: %w", err)
	}

	totalPages := (total + limit - 1) / limit

	return &model.PersonPage{
		Persons:     persons,
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		PerPage:     limit,
	}, nil
}

// ListByProvince は指定した省の人員データを全件返す。
// 地図のドリルダウン表示用で、ページネーションは行わない。
func (s *Service) ListByProvince(ctx context.Context, province string) ([]*model.Person, error) {
	if err := s.checkStore(ctx); err != nil {
		return nil, err
	}

	persons, err := s.repo.ListByProvince(ctx, province)
	if err != nil {
		return nil, fmt.Errorf("failed to list persons by province: %w", err)
	}
	return persons, nil
}

// Get は指定IDの人員データを取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.Person, error) {
	if err := s.checkStore(ctx); err != nil {
		return nil, err
	}

	person, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find person: %w", err)
	}
	if person == nil {
		return nil, model.NewPersonNotFoundError(id)
	}
	return person, nil
}

// Create は人員データを作成する。
func (s *Service) Create(ctx context.Context, input Input) (*model.Person, error) {
	if err := s.checkStore(ctx); err != nil {
		return nil, err
	}

	normalized, err := s.validate(input)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	person := &model.Person{
		ID:        uuid.New().String(),
		Name:      normalized.Name,
		Province:  normalized.Province,
		City:      normalized.City,
		Wechat:    normalized.Wechat,
		Phone:     normalized.Phone,
		Longitude: normalized.Longitude,
		Latitude:  normalized.Latitude,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, person); err != nil {
		return nil, fmt.Errorf("failed to create person: %w", err)
	}

	slog.Info("person created",
		slog.String("person_id", person.ID),
		slog.String("province", person.Province),
	)

	return person, nil
}

// Update は人員データを更新する。
func (s *Service) Update(ctx context.Context, id string, input Input) (*model.Person, error) {
	if err := s.checkStore(ctx); err != nil {
		return nil, err
	}

	normalized, err := s.validate(input)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find person: %w", err)
	}
	if existing == nil {
		return nil, model.NewPersonNotFoundError(id)
	}

	person := &model.Person{
		ID:        id,
		Name:      normalized.Name,
		Province:  normalized.Province,
		City:      normalized.City,
		Wechat:    normalized.Wechat,
		Phone:     normalized.Phone,
		Longitude: normalized.Longitude,
		Latitude:  normalized.Latitude,
		CreatedAt: existing.CreatedAt,
		UpdatedAt: time.Now(),
	}

	updated, err := s.repo.Update(ctx, person)
	if err != nil {
		return nil, fmt.Errorf("failed to update person: %w", err)
	}
	if !updated {
		return nil, model.NewPersonNotFoundError(id)
	}

	return person, nil
}

// Delete は指定IDの人員データを削除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.checkStore(ctx); err != nil {
		return err
	}

	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	if !deleted {
		return model.NewPersonNotFoundError(id)
	}

	slog.Info("person deleted", slog.String("person_id", id))
	return nil
}

// BatchDelete は複数の人員データを一括削除し、削除件数を返す。
func (s *Service) BatchDelete(ctx context.Context, ids []string) (int64, error) {
	if err := s.checkStore(ctx); err != nil {
		return 0, err
	}

	if len(ids) == 0 {
		return 0, model.NewInvalidPersonFieldError("削除対象のIDを指定してください")
	}

	deleted, err := s.repo.DeleteByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to batch delete persons: %w", err)
	}

	slog.Info("persons batch deleted",
		slog.Int64("deleted_count", deleted),
	)

	return deleted, nil
}

// StatsByProvince は省ごとの人員数を件数の多い順に返す。
func (s *Service) StatsByProvince(ctx context.Context) ([]model.ProvinceStat, error) {
	if err := s.checkStore(ctx); err != nil {
		return nil, err
	}

	stats, err := s.repo.CountByProvince(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get province stats: %w", err)
	}
	return stats, nil
}

// validate は入力値を検証し、サニタイズ済みの正規化結果を返す。
func (s *Service) validate(input Input) (*Input, error) {
	name := s.clean(input.Name)
	province := s.clean(input.Province)
	city := s.clean(input.City)
	wechat := s.clean(input.Wechat)
	phone := strings.TrimSpace(input.Phone)

	if name == "" || province == "" || wechat == "" {
		return nil, model.NewInvalidPersonFieldError("姓名・省・微信は必須項目です")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, model.NewInvalidPersonFieldError("姓名は100文字以内で入力してください")
	}
	if phone != "" && !phonePattern.MatchString(phone) {
		return nil, model.NewInvalidPersonFieldError("携帯電話番号の形式が正しくありません")
	}
	// 経度・緯度は両方指定するか、両方省略するかのいずれか
	if (input.Longitude == nil) != (input.Latitude == nil) {
		return nil, model.NewInvalidPersonFieldError("位置情報には経度と緯度の両方が必要です")
	}

	return &Input{
		Name:      name,
		Province:  province,
		City:      city,
		Wechat:    wechat,
		Phone:     phone,
		Longitude: input.Longitude,
		Latitude:  input.Latitude,
	}, nil
}

// clean は自由入力テキストからHTMLタグを除去し、前後の空白を取り除く。
func (s *Service) clean(v string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(v))
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
