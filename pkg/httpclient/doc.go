// Package httpclient は認証サービスの検証エンドポイントを呼び出すクライアントを提供する。
//
// Gatewayはトークンの署名鍵を持たず、受け取ったAuthorizationヘッダーを
// そのまま認証サービスへ転送して判定を委ねる。拒否応答と通信障害は
// 異なるエラーとして返すが、どちらの場合も呼び出し側はリクエストを拒否する。
package httpclient
