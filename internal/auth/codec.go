package auth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/hitoshi/linkmap/internal/model"
)

// CredentialCodec はログインペイロードのエンコード・デコードを提供する。
//
// ワイヤフォーマットは JSON → パーセントエンコード → base64 の3段重ね。
// これは難読化であって暗号化ではない。リクエストボディを観測できる相手に対する
// 機密性は一切提供せず、実際の機密性はトランスポート層のTLSに依存する。
type CredentialCodec struct{}

// NewCredentialCodec はCredentialCodecを生成する。
func NewCredentialCodec() *CredentialCodec {
	return &CredentialCodec{}
}

// transportPayload はクライアントとの間で交換するログインペイロード。
// Timestampは同一の認証情報でも送信ごとにペイロードを変化させるためだけに存在し、
// サーバー側では検証も利用もしない。
type transportPayload struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Timestamp int64  `json:"timestamp"`
}

// Encode は認証情報をトランスポート文字列にエンコードする。
// サーバー側では主にテストで使用し、本来はクライアントが行う処理。
func (c *CredentialCodec) Encode(creds model.Credentials) (string, error) {
	payload := transportPayload{
		Username:  creds.Username,
		Password:  creds.Password,
		Timestamp: time.Now().UnixMilli(),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal credential payload: %w", err)
	}

	escaped := url.QueryEscape(string(data))
	return base64.StdEncoding.EncodeToString([]byte(escaped)), nil
}

// Decode はトランスポート文字列を認証情報に復号する。
// base64・パーセントエンコード・JSONのいずれかの段階で失敗した場合はエラーを返す。
func (c *CredentialCodec) Decode(transport string) (model.Credentials, error) {
	decoded, err := base64.StdEncoding.DecodeString(transport)
	if err != nil {
		return model.Credentials{}, fmt.Errorf("invalid base64 in credential payload: %w", err)
	}

	unescaped, err := url.QueryUnescape(string(decoded))
	if err != nil {
		return model.Credentials{}, fmt.Errorf("invalid percent-encoding in credential payload: %w", err)
	}

	var payload transportPayload
	if err := json.Unmarshal([]byte(unescaped), &payload); err != nil {
		return model.Credentials{}, fmt.Errorf("invalid JSON in credential payload: %w", err)
	}

	return model.Credentials{
		Username: payload.Username,
		Password: payload.Password,
	}, nil
}
