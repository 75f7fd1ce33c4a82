package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/hitoshi/linkmap/internal/model"
)

// personSortColumns はソート指定に使用できるカラムのホワイトリスト。
// APIのキャメルケース表記とDBカラム名の対応を兼ねる。
var personSortColumns = map[string]string{
	"name":      "name",
	"province":  "province",
	"city":      "city",
	"wechat":    "wechat",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// PostgresPersonRepo はPostgreSQLを使用した人員データリポジトリ。
type PostgresPersonRepo struct {
	db *sql.DB
}

// NewPostgresPersonRepo はPostgresPersonRepoを生成する。
func NewPostgresPersonRepo(db *sql.DB) *PostgresPersonRepo {
	return &PostgresPersonRepo{db: db}
}

const personColumns = `id, name, province, city, wechat, phone, longitude, latitude, created_at, updated_at`

// scanPerson は1行分の人員データをスキャンする。
func scanPerson(scanner interface{ Scan(...interface{}) error }) (*model.Person, error) {
	person := &model.Person{}
	var lon, lat sql.NullFloat64
	err := scanner.Scan(
		&person.ID, &person.Name, &person.Province, &person.City, &person.Wechat,
		&person.Phone, &lon, &lat, &person.CreatedAt, &person.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lon.Valid && lat.Valid {
		person.Longitude = &lon.Float64
		person.Latitude = &lat.Float64
	}
	return person, nil
}

// FindByID は指定IDの人員データを取得する。見つからない場合はnilを返す。
func (r *PostgresPersonRepo) FindByID(ctx context.Context, id string) (*model.Person, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM persons WHERE id = $1`, id)

	person, err := scanPerson(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find person by ID: %w", err)
	}

	return person, nil
}

// List は検索条件に一致する人員データの1ページ分と総件数を返す。
// 検索はname/province/city/wechatに対する部分一致（大文字小文字を区別しない）。
func (r *PostgresPersonRepo) List(ctx context.Context, query PersonQuery) ([]*model.Person, int, error) {
	where := ""
	args := []interface{}{}
	if query.Search != "" {
		where = `WHERE name ILIKE $1 OR province ILIKE $1 OR city ILIKE $1 OR wechat ILIKE $1`
		args = append(args, "%"+query.Search+"%")
	}

	var total int
	countSQL := `SELECT COUNT(*) FROM persons ` + where
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count persons: %w", err)
	}

	// ソートカラムはホワイトリストで検証し、直接SQLに埋め込まない
	column, ok := personSortColumns[query.Sort]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(query.Order, "asc") {
		direction = "ASC"
	}

	listSQL := fmt.Sprintf(
		`SELECT %s FROM persons %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		personColumns, where, column, direction, len(args)+1, len(args)+2,
	)
	args = append(args, query.Limit, query.Offset)

	rows, err := r.db.QueryContext(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list persons: %w", err)
	}
	defer rows.Close()

	persons := []*model.Person{}
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan person: %w", err)
		}
		persons = append(persons, person)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate persons: %w", err)
	}

	return persons, total, nil
}

// ListByProvince は指定した省の人員データを作成日時の降順で全件返す。
func (r *PostgresPersonRepo) ListByProvince(ctx context.Context, province string) ([]*model.Person, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+personColumns+` FROM persons WHERE province = $1 ORDER BY created_at DESC`,
		province,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list persons by province: %w", err)
	}
	defer rows.Close()

	persons := []*model.Person{}
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		persons = append(persons, person)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate persons: %w", err)
	}

	return persons, nil
}

// Create は人員データを作成する。
func (r *PostgresPersonRepo) Create(ctx context.Context, person *model.Person) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO persons (id, name, province, city, wechat, phone, longitude, latitude, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		person.ID, person.Name, person.Province, person.City, person.Wechat, person.Phone,
		nullableFloat(person.Longitude), nullableFloat(person.Latitude),
		person.CreatedAt, person.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert person: %w", err)
	}
	return nil
}

// Update は人員データを更新する。対象が存在しない場合はfalseを返す。
func (r *PostgresPersonRepo) Update(ctx context.Context, person *model.Person) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE persons
		 SET name = $2, province = $3, city = $4, wechat = $5, phone = $6,
		     longitude = $7, latitude = $8, updated_at = $9
		 WHERE id = $1`,
		person.ID, person.Name, person.Province, person.City, person.Wechat, person.Phone,
		nullableFloat(person.Longitude), nullableFloat(person.Latitude),
		person.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update person: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// DeleteByID は指定IDの人員データを削除する。対象が存在しない場合はfalseを返す。
func (r *PostgresPersonRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM persons WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete person: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// DeleteByIDs は指定した複数IDの人員データを削除し、削除件数を返す。
func (r *PostgresPersonRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM persons WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to batch delete persons: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// CountByProvince は省ごとの人員数を件数の多い順に返す。
func (r *PostgresPersonRepo) CountByProvince(ctx context.Context) ([]model.ProvinceStat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT province, COUNT(*) FROM persons GROUP BY province ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to count persons by province: %w", err)
	}
	defer rows.Close()

	stats := []model.ProvinceStat{}
	for rows.Next() {
		var stat model.ProvinceStat
		if err := rows.Scan(&stat.Province, &stat.Count); err != nil {
			return nil, fmt.Errorf("failed to scan province stat: %w", err)
		}
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate province stats: %w", err)
	}

	return stats, nil
}

// nullableFloat は*float64をsql.NullFloat64に変換する。
func nullableFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// compile-time interface check
var _ PersonRepository = (*PostgresPersonRepo)(nil)
