// Package model はドメインモデルを定義する。
package model

import "time"

// Person は地図上に可視化する人員データを表す。
// LongitudeとLatitudeは任意項目で、未設定の場合はnilとなる。
type Person struct {
	ID        string
	Name      string
	Province  string
	City      string
	Wechat    string
	Phone     string
	Longitude *float64
	Latitude  *float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProvinceStat は省ごとの人員数の集計結果を表す。
type ProvinceStat struct {
	Province string
	Count    int
}

// PersonPage は人員一覧のページネーション結果を表す。
type PersonPage struct {
	Persons     []*Person
	CurrentPage int
	TotalPages  int
	TotalItems  int
	PerPage     int
}
