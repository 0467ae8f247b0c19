package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/authgate/pkg/logging"
)

// TestRequestLogger はRequestLoggerミドルウェアを検証する。
func TestRequestLogger(t *testing.T) {
	t.Parallel()

	t.Run("メソッド・パス・ステータスがJSONで出力されること", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		router := gin.New()
		router.Use(RequestLogger(logging.New(&buf, "info", "gateway")))
		router.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("ログのパースに失敗: %v: %s", err, buf.String())
		}
		if entry["method"] != http.MethodGet {
			t.Errorf("method = %v, want %q", entry["method"], http.MethodGet)
		}
		if entry["path"] != "/health" {
			t.Errorf("path = %v, want %q", entry["path"], "/health")
		}
		if entry["status"] != float64(http.StatusOK) {
			t.Errorf("status = %v, want %d", entry["status"], http.StatusOK)
		}
		if entry["level"] != "INFO" {
			t.Errorf("level = %v, want %q", entry["level"], "INFO")
		}
		if entry["service"] != "gateway" {
			t.Errorf("service = %v, want %q", entry["service"], "gateway")
		}
	})

	t.Run("4xxはWARNで出力されAuthorizationヘッダーは出力されないこと", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		router := gin.New()
		router.Use(RequestLogger(logging.New(&buf, "info", "gateway")))
		router.GET("/secret", func(c *gin.Context) {
			c.AbortWithStatus(http.StatusUnauthorized)
		})

		req := httptest.NewRequest(http.MethodGet, "/secret", nil)
		req.Header.Set("Authorization", "Bearer top-secret-token")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if !strings.Contains(buf.String(), `"level":"WARN"`) {
			t.Errorf("WARNで出力されていない: %s", buf.String())
		}
		if strings.Contains(buf.String(), "top-secret-token") {
			t.Errorf("ログにトークンが含まれている: %s", buf.String())
		}
	})
}
