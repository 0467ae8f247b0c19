// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// Bearerトークンの検証委譲、リクエストログ、パニックリカバリ、
// CORS設定など、authgateの各サービスで共通して使用するミドルウェアを含む。
package middleware
