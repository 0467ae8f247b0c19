// Package cli はauthgateのコマンドラインインターフェースを提供する。
//
// 認証サービス・Gatewayサービスの起動コマンドと、運用ツール authctl
// （署名鍵の生成、ユーザーの登録）をcobraのコマンドとして定義する。
package cli
