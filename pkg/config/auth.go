package config

import (
	"fmt"

	"github.com/nao1215/authgate/pkg/token"
)

// Auth は認証サービスの設定。
type Auth struct {
	// Port はサーバーのリッスンポート。
	Port string `yaml:"port"`
	// DatabasePath はユーザー情報を保持するSQLiteファイルのパス。
	DatabasePath string `yaml:"database_path"`
	// JWTSecret はbase64エンコードされたトークン署名鍵。
	JWTSecret string `yaml:"jwt_secret"`
	// JWTSecretFile は署名鍵を格納したファイルのパス。JWTSecret が空の場合に使用する。
	JWTSecretFile string `yaml:"jwt_secret_file"`
	// LogLevel はログ出力レベル（debug, info, warn, error）。
	LogLevel string `yaml:"log_level"`
}

// AuthDefaults は認証サービスのデフォルト設定を返す。
func AuthDefaults() Auth {
	return Auth{
		Port:         "4005",
		DatabasePath: "/data/auth.db",
		LogLevel:     "info",
	}
}

// LoadAuth は認証サービスの設定を読み込む。
// path が空の場合は環境変数 AUTH_CONFIG のパスを使用し、それも空なら設定ファイルを読まない。
func LoadAuth(path string) (*Auth, error) {
	cfg := AuthDefaults()

	if err := loadYAMLFile(configPath(path, "AUTH_CONFIG"), &cfg); err != nil {
		return nil, err
	}

	cfg.Port = getEnvOr("PORT", cfg.Port)
	cfg.DatabasePath = getEnvOr("AUTH_DATABASE_PATH", cfg.DatabasePath)
	cfg.JWTSecret = getEnvOr("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTSecretFile = getEnvOr("JWT_SECRET_FILE", cfg.JWTSecretFile)
	cfg.LogLevel = getEnvOr("LOG_LEVEL", cfg.LogLevel)

	if cfg.JWTSecret == "" && cfg.JWTSecretFile != "" {
		secret, err := readSecretFile(cfg.JWTSecretFile)
		if err != nil {
			return nil, fmt.Errorf("jwt_secret_file: %w", err)
		}
		cfg.JWTSecret = secret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate は設定値を検証する。
func (c *Auth) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("%w: port が空です", ErrInvalidConfig)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: database_path が空です", ErrInvalidConfig)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("%w: JWT_SECRET または jwt_secret_file の指定が必要です", ErrInvalidConfig)
	}
	if _, err := token.ParseSigningKey(c.JWTSecret); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// SigningKey は設定された署名鍵を復号して返す。
func (c *Auth) SigningKey() (token.SigningKey, error) {
	return token.ParseSigningKey(c.JWTSecret)
}
