package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/authgate/pkg/httpclient"
	"github.com/nao1215/authgate/pkg/logging"
)

// bearerPrefix はAuthorizationヘッダーに要求する接頭辞。大文字小文字を区別する。
const bearerPrefix = "Bearer "

// Verifier はAuthorizationヘッダーの値を検証する。
// nilを返した場合のみリクエストを通過させる。
type Verifier interface {
	Verify(ctx context.Context, authorization string) error
}

// Decision はBearerAuthが1リクエストに対して下した判定。
type Decision string

const (
	// DecisionFastRejected はヘッダーの形式不備により検証せずに拒否したことを表す。
	DecisionFastRejected Decision = "fast_rejected"
	// DecisionAdmitted は検証に成功し下流へ転送したことを表す。
	DecisionAdmitted Decision = "admitted"
	// DecisionRejected は検証者がトークンを拒否したことを表す。
	DecisionRejected Decision = "rejected"
	// DecisionUnavailable は検証者と通信できず拒否したことを表す。
	DecisionUnavailable Decision = "unavailable"
	// DecisionCancelled は検証中にクライアントのリクエストが取り消されたことを表す。
	DecisionCancelled Decision = "cancelled"
)

// authConfig はBearerAuthの設定。
type authConfig struct {
	// observe は判定ごとに呼び出されるコールバック。
	observe func(Decision, time.Duration)
	// logger は判定理由の出力先。
	logger *slog.Logger
}

// AuthOption はBearerAuthのオプション。
type AuthOption func(*authConfig)

// WithDecisionObserver は判定と検証にかかった時間を受け取るコールバックを設定する。
// 即時拒否の場合の時間は0になる。
func WithDecisionObserver(fn func(Decision, time.Duration)) AuthOption {
	return func(cfg *authConfig) {
		cfg.observe = fn
	}
}

// WithLogger は判定理由を出力するロガーを設定する。
func WithLogger(logger *slog.Logger) AuthOption {
	return func(cfg *authConfig) {
		cfg.logger = logger
	}
}

// BearerAuth はBearerトークンの検証を Verifier に委譲するGinミドルウェアを返す。
// ヘッダーが無いか "Bearer " で始まらない場合は検証者を呼ばずに401を返す。
// 検証に失敗した場合は理由を問わず401を返し、後続のハンドラーは実行しない。
// 検証結果のクレームは下流へ伝播しない。
func BearerAuth(v Verifier, opts ...AuthOption) gin.HandlerFunc {
	cfg := &authConfig{
		observe: func(Decision, time.Duration) {},
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			cfg.observe(DecisionFastRejected, 0)
			cfg.logger.Debug("Bearerトークンがないため拒否しました",
				"method", c.Request.Method, "path", c.Request.URL.Path)
			unauthorized(c)
			return
		}

		start := time.Now()
		err := v.Verify(c.Request.Context(), header)
		elapsed := time.Since(start)
		if err == nil {
			cfg.observe(DecisionAdmitted, elapsed)
			c.Next()
			return
		}

		decision := classify(c.Request.Context(), err)
		cfg.observe(decision, elapsed)
		if decision == DecisionUnavailable {
			cfg.logger.Warn("認証サービスに接続できないため拒否しました",
				"method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		} else {
			cfg.logger.Debug("トークン検証に失敗したため拒否しました",
				"method", c.Request.Method, "path", c.Request.URL.Path,
				"decision", string(decision), "error", err)
		}
		unauthorized(c)
	}
}

// classify は検証エラーを判定に変換する。
func classify(ctx context.Context, err error) Decision {
	switch {
	case ctx.Err() != nil || errors.Is(err, context.Canceled):
		return DecisionCancelled
	case errors.Is(err, httpclient.ErrRejected):
		return DecisionRejected
	default:
		return DecisionUnavailable
	}
}

// unauthorized はボディなしの401を返して処理を中断する。
func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatus(http.StatusUnauthorized)
}
