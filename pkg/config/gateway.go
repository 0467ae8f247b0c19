package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// reservedPaths はGateway自身が処理するためルートに使用できないパス。
var reservedPaths = []string{"/health", "/metrics"}

// Route はGatewayが転送する下流サービスへのルート定義。
type Route struct {
	// Prefix はこのルートが受け付けるパスの接頭辞（例: "/api/patients"）。
	Prefix string `yaml:"prefix"`
	// Target は転送先サービスのベースURL。
	Target string `yaml:"target"`
	// StripPrefix は転送前にパスから取り除く接頭辞。空の場合はパスをそのまま転送する。
	StripPrefix string `yaml:"strip_prefix"`
	// Protected が true の場合、転送前にトークン検証を行う。
	Protected bool `yaml:"protected"`
}

// Gateway はGatewayサービスの設定。
type Gateway struct {
	// Port はサーバーのリッスンポート。
	Port string `yaml:"port"`
	// AuthServiceURL は認証サービスのベースURL。
	AuthServiceURL string `yaml:"auth_service_url"`
	// ValidatePath は認証サービスの検証エンドポイントのパス。
	ValidatePath string `yaml:"validate_path"`
	// VerifyTimeout は検証リクエスト1回あたりのタイムアウト。
	VerifyTimeout time.Duration `yaml:"verify_timeout"`
	// CORSAllowedOrigins はクロスオリジンアクセスを許可するオリジン。
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	// Routes は下流サービスへのルート定義。
	Routes []Route `yaml:"routes"`
	// LogLevel はログ出力レベル（debug, info, warn, error）。
	LogLevel string `yaml:"log_level"`
}

// GatewayDefaults はGatewayサービスのデフォルト設定を返す。
// Routes は空のままで、LoadGateway が環境変数から組み立てる。
func GatewayDefaults() Gateway {
	return Gateway{
		Port:           "4004",
		AuthServiceURL: "http://localhost:4005",
		ValidatePath:   "/validate",
		VerifyTimeout:  5 * time.Second,
		LogLevel:       "info",
	}
}

// defaultRoutes は設定ファイルでルートが指定されなかった場合のルート定義を返す。
// ログインは認証不要、患者APIは認証必須とする。
func defaultRoutes(authServiceURL string) []Route {
	return []Route{
		{
			Prefix:      "/auth",
			Target:      authServiceURL,
			StripPrefix: "/auth",
			Protected:   false,
		},
		{
			Prefix:      "/api/patients",
			Target:      getEnvOr("PATIENT_SERVICE_URL", "http://localhost:4000"),
			StripPrefix: "/api",
			Protected:   true,
		},
	}
}

// LoadGateway はGatewayサービスの設定を読み込む。
// path が空の場合は環境変数 GATEWAY_CONFIG のパスを使用し、それも空なら設定ファイルを読まない。
func LoadGateway(path string) (*Gateway, error) {
	cfg := GatewayDefaults()

	if err := loadYAMLFile(configPath(path, "GATEWAY_CONFIG"), &cfg); err != nil {
		return nil, err
	}

	cfg.Port = getEnvOr("PORT", cfg.Port)
	cfg.AuthServiceURL = getEnvOr("AUTH_SERVICE_URL", cfg.AuthServiceURL)
	cfg.ValidatePath = getEnvOr("AUTH_VALIDATE_PATH", cfg.ValidatePath)
	cfg.LogLevel = getEnvOr("LOG_LEVEL", cfg.LogLevel)

	timeout, err := getEnvDuration("GATEWAY_VERIFY_TIMEOUT", cfg.VerifyTimeout)
	if err != nil {
		return nil, err
	}
	cfg.VerifyTimeout = timeout

	if origins := splitList(getEnvOr("CORS_ALLOWED_ORIGINS", "")); len(origins) > 0 {
		cfg.CORSAllowedOrigins = origins
	}

	if len(cfg.Routes) == 0 {
		cfg.Routes = defaultRoutes(cfg.AuthServiceURL)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate は設定値を検証する。
func (c *Gateway) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("%w: port が空です", ErrInvalidConfig)
	}
	if err := validateBaseURL("auth_service_url", c.AuthServiceURL); err != nil {
		return err
	}
	if !strings.HasPrefix(c.ValidatePath, "/") {
		return fmt.Errorf("%w: validate_path は / で始まる必要があります: %q", ErrInvalidConfig, c.ValidatePath)
	}
	if c.VerifyTimeout <= 0 {
		return fmt.Errorf("%w: verify_timeout は正の値である必要があります: %v", ErrInvalidConfig, c.VerifyTimeout)
	}
	if len(c.Routes) == 0 {
		return fmt.Errorf("%w: routes が空です", ErrInvalidConfig)
	}

	for i, r := range c.Routes {
		if err := r.validate(); err != nil {
			return fmt.Errorf("routes[%d]: %w", i, err)
		}
		for j := range i {
			if nested(c.Routes[j].Prefix, r.Prefix) {
				return fmt.Errorf("%w: routes[%d] の prefix %q は routes[%d] の prefix %q と重複しています",
					ErrInvalidConfig, i, r.Prefix, j, c.Routes[j].Prefix)
			}
		}
	}
	return nil
}

// validate は単一ルートの定義を検証する。
func (r Route) validate() error {
	if !strings.HasPrefix(r.Prefix, "/") || r.Prefix == "/" || strings.HasSuffix(r.Prefix, "/") {
		return fmt.Errorf("%w: prefix は / で始まり / で終わらない必要があります: %q", ErrInvalidConfig, r.Prefix)
	}
	if strings.ContainsAny(r.Prefix, ":*") {
		return fmt.Errorf("%w: prefix にワイルドカードは使用できません: %q", ErrInvalidConfig, r.Prefix)
	}
	for _, reserved := range reservedPaths {
		if nested(reserved, r.Prefix) {
			return fmt.Errorf("%w: prefix %q は予約済みです", ErrInvalidConfig, r.Prefix)
		}
	}
	if r.StripPrefix != "" && r.StripPrefix != r.Prefix && !strings.HasPrefix(r.Prefix, r.StripPrefix+"/") {
		return fmt.Errorf("%w: strip_prefix %q は prefix %q の先頭部分である必要があります", ErrInvalidConfig, r.StripPrefix, r.Prefix)
	}
	return validateBaseURL("target", r.Target)
}

// nested は2つのパス接頭辞の一方が他方をパス単位で含むかどうかを返す。
func nested(a, b string) bool {
	if a == b {
		return true
	}
	return strings.HasPrefix(b, a+"/") || strings.HasPrefix(a, b+"/")
}

// validateBaseURL はスキームとホストを持つ絶対URLであることを検証する。
func validateBaseURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s は http(s) の絶対URLである必要があります: %q", ErrInvalidConfig, field, raw)
	}
	return nil
}
