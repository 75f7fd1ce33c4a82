// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, person, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeBadPayload         = "BAD_PAYLOAD"
	ErrCodeMissingCredentials = "MISSING_CREDENTIALS"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeWeakPassword       = "WEAK_PASSWORD"
	ErrCodeInvalidUsername    = "INVALID_USERNAME"
	ErrCodeDuplicateUsername  = "DUPLICATE_USERNAME"
	ErrCodeMissingToken       = "MISSING_TOKEN"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeTokenExpired       = "TOKEN_EXPIRED"
	ErrCodePrincipalNotFound  = "PRINCIPAL_NOT_FOUND"
	ErrCodePersonNotFound     = "PERSON_NOT_FOUND"
	ErrCodeInvalidPersonField = "INVALID_PERSON_FIELD"
	ErrCodeStoreUnavailable   = "STORE_UNAVAILABLE"
)

// NewBadPayloadError はログインペイロードの復号失敗エラーを生成する。
// base64・パーセントエンコード・JSONのいずれかの段階で失敗した場合に返す。
func NewBadPayloadError() *APIError {
	return &APIError{
		Code:     ErrCodeBadPayload,
		Message:  "リクエストの形式が正しくありません。",
		Category: "validation",
		Action:   "もう一度ログインし直してください。",
	}
}

// NewMissingCredentialsError はユーザー名またはパスワード未入力エラーを生成する。
func NewMissingCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingCredentials,
		Message:  "ユーザー名とパスワードを入力してください。",
		Category: "validation",
		Action:   "ユーザー名とパスワードの両方を入力してください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// ユーザー名が存在しない場合とパスワードが一致しない場合の両方で
// 同一のメッセージを返し、ユーザー名の存在有無を漏らさない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewWeakPasswordError はパスワード強度不足エラーを生成する。
func NewWeakPasswordError() *APIError {
	return &APIError{
		Code:     ErrCodeWeakPassword,
		Message:  "パスワードは6文字以上で設定してください。",
		Category: "validation",
		Action:   "6文字以上のパスワードを入力してください。",
	}
}

// NewInvalidUsernameError はユーザー名形式エラーを生成する。
func NewInvalidUsernameError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidUsername,
		Message:  "ユーザー名は3〜50文字で入力してください。",
		Category: "validation",
		Action:   "3〜50文字のユーザー名を入力してください。",
	}
}

// NewDuplicateUsernameError はユーザー名重複エラーを生成する。
func NewDuplicateUsernameError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateUsername,
		Message:  "このユーザー名は既に使用されています。",
		Category: "validation",
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewMissingTokenError は認証トークン未提示エラーを生成する。
func NewMissingTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingToken,
		Message:  "認証トークンが提示されていません。",
		Category: "auth",
		Action:   "ログインしてから再度お試しください。",
	}
}

// NewInvalidTokenError は認証トークン不正エラーを生成する。
// 署名不一致・破損・アルゴリズム不一致の場合に返す。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "認証トークンが無効です。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewTokenExpiredError は認証トークン期限切れエラーを生成する。
func NewTokenExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenExpired,
		Message:  "認証トークンの有効期限が切れています。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewPrincipalNotFoundError は管理者アカウント未検出エラーを生成する。
// トークン発行後にアカウントが削除された場合に発生する。
func NewPrincipalNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodePrincipalNotFound,
		Message:  "アカウントが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewPersonNotFoundError は人員データ未検出エラーを生成する。
func NewPersonNotFoundError(personID string) *APIError {
	return &APIError{
		Code:     ErrCodePersonNotFound,
		Message:  fmt.Sprintf("指定された人員データが見つかりません: %s", personID),
		Category: "person",
		Action:   "人員データのIDを確認してください。",
	}
}

// NewInvalidPersonFieldError は人員データの入力値エラーを生成する。
func NewInvalidPersonFieldError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPersonField,
		Message:  fmt.Sprintf("入力内容が正しくありません: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewStoreUnavailableError はデータベース接続不可エラーを生成する。
// 各操作の前に行う死活確認が失敗した場合に返す。
func NewStoreUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeStoreUnavailable,
		Message:  "データベースサービスが一時的に利用できません。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
