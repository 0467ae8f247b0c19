package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nao1215/authgate/pkg/config"
	"github.com/nao1215/authgate/pkg/httpclient"
	"github.com/nao1215/authgate/pkg/httpserver"
	"github.com/nao1215/authgate/pkg/metrics"
	"github.com/nao1215/authgate/pkg/middleware"
)

// Server はAPI GatewayサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// verifier は認証サービスの検証エンドポイントを呼び出すクライアント。
	verifier middleware.Verifier
	// metrics はGatewayのメトリクス。
	metrics *metrics.Gateway
	// registry はメトリクスのレジストリ。
	registry *prometheus.Registry
	// logger は構造化ロガー。
	logger *slog.Logger
}

// NewServer は新しいGatewayサーバーを生成する。
func NewServer(cfg *config.Gateway, logger *slog.Logger) (*Server, error) {
	verifier := httpclient.New(cfg.AuthServiceURL,
		httpclient.WithTimeout(cfg.VerifyTimeout),
		httpclient.WithValidatePath(cfg.ValidatePath),
	)
	return newServer(cfg, verifier, logger)
}

// newServer は検証者を指定してGatewayサーバーを組み立てる。
func newServer(cfg *config.Gateway, verifier middleware.Verifier, logger *slog.Logger) (*Server, error) {
	registry := metrics.NewRegistry()

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	s := &Server{
		router:   router,
		port:     cfg.Port,
		verifier: verifier,
		metrics:  metrics.NewGateway(registry),
		registry: registry,
		logger:   logger,
	}
	if err := s.setupRoutes(cfg.Routes); err != nil {
		return nil, err
	}
	return s, nil
}

// Handler はHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動し、ctx がキャンセルされるまで待機する。
func (s *Server) Run(ctx context.Context) error {
	return httpserver.Run(ctx, fmt.Sprintf(":%s", s.port), s.router, s.logger)
}

// setupRoutes はルート定義ごとのプロキシと管理用エンドポイントを設定する。
func (s *Server) setupRoutes(routes []config.Route) error {
	auth := middleware.BearerAuth(s.verifier,
		middleware.WithDecisionObserver(s.observeDecision),
		middleware.WithLogger(s.logger),
	)

	for _, route := range routes {
		proxy, err := s.newProxy(route)
		if err != nil {
			return err
		}

		group := s.router.Group(route.Prefix)
		if route.Protected {
			group.Use(auth)
		}
		group.Any("", proxy)
		group.Any("/*path", proxy)

		s.logger.Info("ルートを登録しました",
			"prefix", route.Prefix,
			"target", route.Target,
			"strip_prefix", route.StripPrefix,
			"protected", route.Protected,
		)
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "gateway"})
	})
	s.router.GET("/metrics", gin.WrapH(metrics.Handler(s.registry)))
	return nil
}

// observeDecision は認証判定をメトリクスに記録する。
func (s *Server) observeDecision(d middleware.Decision, elapsed time.Duration) {
	s.metrics.Decisions.WithLabelValues(string(d)).Inc()
	if d != middleware.DecisionFastRejected {
		s.metrics.VerifyDuration.Observe(elapsed.Seconds())
	}
}

// forwardedHeaders はReverseProxyがRewrite前に取り除くため、受信した値を書き戻すヘッダー。
var forwardedHeaders = []string{"Forwarded", "X-Forwarded-For", "X-Forwarded-Host", "X-Forwarded-Proto"}

// newProxy はルートの転送先へリクエストをそのまま転送するハンドラを生成する。
// メソッド・クエリ・ヘッダー・ボディは変更せず、パスは StripPrefix のみ取り除く。
// クライアントが送った X-Forwarded-* はそのまま転送し、Gateway自身の値や
// 認証結果のヘッダーは付与しない。
func (s *Server) newProxy(route config.Route) (gin.HandlerFunc, error) {
	target, err := url.Parse(route.Target)
	if err != nil {
		return nil, fmt.Errorf("転送先URLが不正です: %s: %w", route.Target, err)
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			stripPrefix(r.Out.URL, route.StripPrefix)
			r.SetURL(target)
			for _, h := range forwardedHeaders {
				if v, ok := r.In.Header[h]; ok {
					r.Out.Header[h] = v
				}
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			s.logger.Error("下流サービスとの通信に失敗しました",
				"method", r.Method,
				"path", r.URL.Path,
				"target", route.Target,
				"error", err,
			)
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":"内部サービスとの通信に失敗しました"}`))
		},
	}

	return func(c *gin.Context) {
		proxy.ServeHTTP(c.Writer, c.Request)
	}, nil
}

// stripPrefix はURLのパスから prefix を取り除く。prefix が空の場合は何もしない。
func stripPrefix(u *url.URL, prefix string) {
	if prefix == "" {
		return
	}

	u.Path = ensureLeadingSlash(strings.TrimPrefix(u.Path, prefix))
	if u.RawPath == "" {
		return
	}
	if raw, ok := strings.CutPrefix(u.RawPath, prefix); ok {
		u.RawPath = ensureLeadingSlash(raw)
	} else {
		u.RawPath = ""
	}
}

// ensureLeadingSlash は空のパスを "/" に、それ以外は先頭に "/" を持つパスにする。
func ensureLeadingSlash(p string) string {
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return p
}
