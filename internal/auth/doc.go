// Package auth は認証サービス（Credential Authenticator）を提供する。
//
// メールアドレスとパスワードを保存済みのユーザーと照合し、10時間有効な
// 署名付きトークンを発行する。Gatewayから転送されたトークンの検証も行う。
//
// エンドポイント:
//   - POST /login    : 認証に成功した場合 {"token": "..."} を返す
//   - GET  /validate : Authorization: Bearer <token> を検証し200または401を返す
//   - GET  /health   : ヘルスチェック
//   - GET  /metrics  : Prometheusメトリクス
package auth
