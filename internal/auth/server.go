package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nao1215/authgate/pkg/config"
	"github.com/nao1215/authgate/pkg/httpserver"
	"github.com/nao1215/authgate/pkg/metrics"
	"github.com/nao1215/authgate/pkg/middleware"
	"github.com/nao1215/authgate/pkg/token"
)

// bearerPrefix はAuthorizationヘッダーに要求する接頭辞。
const bearerPrefix = "Bearer "

// Server は認証サービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// service はログインとトークン検証を行う。
	service *Service
	// store はユーザーストア。Close時に閉じる。
	store *SQLiteStore
	// metrics は認証サービスのメトリクス。
	metrics *metrics.Auth
	// registry はメトリクスのレジストリ。
	registry *prometheus.Registry
	// logger は構造化ロガー。
	logger *slog.Logger
}

// NewServer は設定からユーザーストアとトークン管理を初期化し、認証サーバーを生成する。
func NewServer(ctx context.Context, cfg *config.Auth, logger *slog.Logger) (*Server, error) {
	key, err := cfg.SigningKey()
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(ctx, cfg.DatabasePath, logger)
	if err != nil {
		return nil, err
	}

	s := newServer(NewService(store, token.NewManager(key)), cfg.Port, logger)
	s.store = store
	return s, nil
}

// newServer は認証サービスからHTTPサーバーを組み立てる。
func newServer(service *Service, port string, logger *slog.Logger) *Server {
	registry := metrics.NewRegistry()

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestLogger(logger))

	s := &Server{
		router:   router,
		port:     port,
		service:  service,
		metrics:  metrics.NewAuth(registry),
		registry: registry,
		logger:   logger,
	}
	s.setupRoutes()
	return s
}

// Handler はHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動し、ctx がキャンセルされるまで待機する。
func (s *Server) Run(ctx context.Context) error {
	return httpserver.Run(ctx, fmt.Sprintf(":%s", s.port), s.router, s.logger)
}

// Close はユーザーストアを閉じる。
func (s *Server) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// ログイン
	s.router.POST("/login", s.handleLogin())
	// トークン検証（Gatewayから呼び出される）
	s.router.GET("/validate", s.handleValidate())

	// ヘルスチェック
	s.router.GET("/health", s.handleHealth())
	s.router.GET("/metrics", gin.WrapH(metrics.Handler(s.registry)))
}

// handleHealth はユーザーストアへの接続を確認して稼働状態を返すハンドラ。
func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.store != nil {
			if err := s.store.Ping(c.Request.Context()); err != nil {
				s.logger.Warn("ユーザーストアに接続できません", slog.Any("error", err))
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unavailable",
					"service": "auth",
					"error":   "ユーザーストアに接続できません",
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "auth"})
	}
}

// loginRequest はログインリクエストのボディ。
// フィールドの欠落と空文字列を区別するためポインタで受け取る。
type loginRequest struct {
	// Email はメールアドレス。
	Email *string `json:"email"`
	// Password はパスワード。
	Password *string `json:"password"`
}

// loginResponse はログイン成功時のレスポンス。
type loginResponse struct {
	// Token は発行されたトークン。
	Token string `json:"token"`
}

// handleLogin はメールアドレスとパスワードでログインしトークンを返すハンドラ。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Email == nil || req.Password == nil {
			s.metrics.Logins.WithLabelValues("bad_request").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "emailとpasswordを含むJSONが必要です"})
			return
		}

		signed, err := s.service.Authenticate(c.Request.Context(), *req.Email, *req.Password)
		switch {
		case err == nil:
			s.metrics.Logins.WithLabelValues("success").Inc()
			c.JSON(http.StatusOK, loginResponse{Token: signed})
		case errors.Is(err, ErrInvalidCredentials):
			s.metrics.Logins.WithLabelValues("invalid_credentials").Inc()
			s.logger.Info("ログインに失敗しました", "reason", err.Error())
			c.Status(http.StatusUnauthorized)
		default:
			s.metrics.Logins.WithLabelValues("error").Inc()
			s.logger.Error("ログイン処理でエラーが発生しました", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ログイン処理に失敗しました"})
		}
	}
}

// handleValidate はAuthorizationヘッダーのトークンを検証するハンドラ。
// 結果はステータスコードのみで返し、ボディは返さない。
func (s *Server) handleValidate() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), bearerPrefix)
		if !ok {
			s.metrics.Validations.WithLabelValues("missing_bearer").Inc()
			c.Status(http.StatusUnauthorized)
			return
		}

		result := s.service.Verify(raw)
		if !result.Valid {
			s.metrics.Validations.WithLabelValues(reasonLabel(result.Reason)).Inc()
			s.logger.Debug("トークンの検証に失敗しました", "reason", result.Reason.Error())
			c.Status(http.StatusUnauthorized)
			return
		}

		s.metrics.Validations.WithLabelValues("valid").Inc()
		c.Status(http.StatusOK)
	}
}

// reasonLabel は検証失敗の理由をメトリクスのラベルに変換する。
func reasonLabel(reason error) string {
	switch {
	case errors.Is(reason, token.ErrExpired):
		return "expired"
	case errors.Is(reason, token.ErrSignatureInvalid):
		return "signature_invalid"
	default:
		return "malformed"
	}
}
