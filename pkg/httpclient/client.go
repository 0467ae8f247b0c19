package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout は検証リクエスト1回あたりのデフォルトタイムアウト。
const DefaultTimeout = 5 * time.Second

// DefaultValidatePath は認証サービスの検証エンドポイントのデフォルトパス。
const DefaultValidatePath = "/validate"

// maxDrainBytes は接続を再利用するために読み捨てるレスポンスボディの上限。
const maxDrainBytes = 4 << 10

var (
	// ErrRejected は認証サービスがトークンを拒否した（2xx以外を返した）場合に返される。
	ErrRejected = errors.New("認証サービスがトークンを拒否しました")
	// ErrUnavailable は認証サービスと通信できなかった場合に返される。
	ErrUnavailable = errors.New("認証サービスと通信できません")
)

// Client は認証サービスの検証エンドポイントを呼び出すHTTPクライアント。
// 状態を持たないため、複数のgoroutineから同時に使用できる。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は認証サービスのベースURL。
	baseURL string
	// validatePath は検証エンドポイントのパス。
	validatePath string
}

// Option はClientの生成オプション。
type Option func(*Client)

// WithTimeout は検証リクエストのタイムアウトを設定する。
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithValidatePath は検証エンドポイントのパスを設定する。
func WithValidatePath(path string) Option {
	return func(c *Client) {
		c.validatePath = path
	}
}

// WithHTTPClient は内部で使用するHTTPクライアントを差し替える。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New は新しい検証クライアントを生成する。
// baseURLには認証サービスのベースURL（例: "http://auth-service:4005"）を指定する。
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		validatePath: DefaultValidatePath,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Verify はAuthorizationヘッダーの値を変更せずに検証エンドポイントへ転送する。
// 2xx応答ならnil、それ以外の応答なら ErrRejected、通信障害・タイムアウト・
// キャンセルの場合は ErrUnavailable をラップしたエラーを返す。
func (c *Client) Verify(ctx context.Context, authorization string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.validatePath, nil)
	if err != nil {
		return fmt.Errorf("%w: HTTPリクエストの作成に失敗: %v", ErrUnavailable, err)
	}
	req.Header.Set("Authorization", authorization)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status=%d", ErrRejected, resp.StatusCode)
	}
	return nil
}
