// Package model はドメインモデルを定義する。
package model

import "time"

// Principal は登録済みの管理者アカウントを表す。
// PasswordHashは不透明なbcryptダイジェストであり、平文パスワードは保持しない。
type Principal struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Credentials はログインリクエストの間のみ存在する一時的な認証情報。
// 永続化してはならない。
type Credentials struct {
	Username string
	Password string
}
