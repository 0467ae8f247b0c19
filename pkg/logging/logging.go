// Package logging は各サービスで共通して使用する構造化ロガーを生成する。
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// New はJSON形式で出力する構造化ロガーを生成する。
// level は debug, info, warn, error のいずれか。不明な値は info として扱う。
// service は全てのログに付与するサービス名。
func New(w io.Writer, level, service string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler).With("service", service)
}

// ParseLevel はログレベル文字列を slog.Level に変換する。
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard は何も出力しないロガーを返す。テストで使用する。
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
