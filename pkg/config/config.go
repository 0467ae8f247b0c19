// Package config は認証サービスとGatewayサービスの設定読み込みを提供する。
//
// 設定は以下の順序で重ね合わせる。
//  1. 組み込みのデフォルト値
//  2. YAML設定ファイル（指定された場合のみ）
//  3. 環境変数
//  4. _file 接尾辞を持つ秘密情報ファイルの解決
//  5. 検証
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig は設定値の検証に失敗した場合に返される。
var ErrInvalidConfig = errors.New("設定が不正です")

// configPath は明示的に指定されたパスを優先し、空の場合は環境変数の値を返す。
func configPath(path, envKey string) string {
	if path != "" {
		return path
	}
	return os.Getenv(envKey)
}

// loadYAMLFile はYAMLファイルを読み込んで out に重ね合わせる。
// ファイルに存在しないフィールドは既存の値（デフォルト値）を保持する。
func loadYAMLFile(path string, out any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("設定ファイル %s のパースに失敗: %w", path, err)
	}
	return nil
}

// readSecretFile は秘密情報ファイルを読み込み、前後の空白を取り除いて返す。
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("秘密情報ファイルの読み込みに失敗: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// getEnvDuration は環境変数を time.Duration として取得する。
// 設定されていない場合はデフォルト値を返す。
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q は期間として解釈できません", ErrInvalidConfig, key, v)
	}
	return d, nil
}

// splitList はカンマ区切りの文字列を空要素を除いたスライスに変換する。
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
