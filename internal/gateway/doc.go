// Package gateway はAPI Gatewayサービス（Gateway Interceptor）の内部実装を提供する。
//
// 外部からアクセス可能な唯一のサービスであり、セキュリティの境界線として機能する。
// 設定されたルートごとにリクエストを下流サービスへそのまま転送し、
// 保護されたルートでは転送前にBearerトークンの検証を認証サービスへ委譲する。
// Gateway自身は署名鍵を持たず、検証結果のクレームを下流へ伝播しない。
package gateway
