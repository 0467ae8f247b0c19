package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TTL は発行したトークンの有効期間。発行時刻からの固定値。
const TTL = 10 * time.Hour

// issuer はトークンの iss クレームに設定する発行者名。
const issuer = "authgate-auth"

// 検証失敗の理由。サーバー側のログ出力にのみ使用し、クライアントには返さない。
var (
	// ErrMalformed はトークンがJWTとして解釈できない場合の理由。
	ErrMalformed = errors.New("トークンの形式が不正です")
	// ErrSignatureInvalid は署名が現在の鍵で検証できない場合の理由。
	ErrSignatureInvalid = errors.New("トークンの署名が不正です")
	// ErrExpired は有効期限を過ぎている場合の理由。
	ErrExpired = errors.New("トークンの有効期限が切れています")
)

// Claims はトークンのクレーム（ペイロード）を表す。
type Claims struct {
	jwt.RegisteredClaims
	// Role はユーザーのロール。
	Role string `json:"role"`
}

// Result は検証結果を表す。Valid が false の場合、他のフィールドは空になる。
type Result struct {
	// Valid は署名と有効期限の両方の検証に成功したかどうか。
	Valid bool
	// Subject はトークンの主体（メールアドレス）。
	Subject string
	// Role はトークンに含まれるロール。
	Role string
	// ExpiresAt はトークンの有効期限。
	ExpiresAt time.Time
	// Reason は検証失敗の理由。ログ出力用。
	Reason error
}

// invalid は失敗理由付きの検証結果を生成する。
func invalid(reason error) Result {
	return Result{Reason: reason}
}

// Manager は単一の署名鍵でトークンを発行・検証する。
// 生成後は状態を変更しないため、複数のgoroutineから同時に使用できる。
type Manager struct {
	// key は署名鍵。
	key SigningKey
	// now は現在時刻を返す関数。テストで差し替える。
	now func() time.Time
}

// Option はManagerの生成オプション。
type Option func(*Manager)

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager は署名鍵を受け取ってManagerを生成する。
func NewManager(key SigningKey, opts ...Option) *Manager {
	m := &Manager{
		key: key,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Issue は subject と role を含む署名済みトークンを発行する。
func (m *Manager) Issue(subject, role string) (string, error) {
	if m.key.IsZero() {
		return "", fmt.Errorf("トークンの署名に失敗: %w", ErrInvalidKey)
	}

	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
		},
		Role: role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key.bytes())
	if err != nil {
		return "", fmt.Errorf("トークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// Verify はトークンの署名と有効期限を検証する。
// 失敗理由は Result.Reason に格納されるが、呼び出し側は Valid のみで判定すること。
func (m *Manager) Verify(raw string) Result {
	if raw == "" || m.key.IsZero() {
		return invalid(ErrMalformed)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(_ *jwt.Token) (any, error) {
		return m.key.bytes(), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return invalid(classify(err))
	}
	if !parsed.Valid || claims.Subject == "" {
		return invalid(ErrMalformed)
	}
	// 有効期限の時刻ちょうどは期限切れとして扱う
	if !m.now().Before(claims.ExpiresAt.Time) {
		return invalid(ErrExpired)
	}

	return Result{
		Valid:     true,
		Subject:   claims.Subject,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}
}

// classify はJWTライブラリのエラーを検証失敗の理由に変換する。
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrSignatureInvalid
	default:
		return ErrMalformed
	}
}
