package auth

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/nao1215/authgate/pkg/logging"
	"github.com/nao1215/authgate/pkg/token"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testEmail と testPassword はテストで使用するログイン情報。
const (
	testEmail    = "test@test.com"
	testPassword = "password123"
)

// testKey はテスト用の署名鍵を返す。
func testKey(t *testing.T, seed string) token.SigningKey {
	t.Helper()

	material := make([]byte, 32)
	copy(material, seed)
	key, err := token.ParseSigningKey(base64.StdEncoding.EncodeToString(material))
	if err != nil {
		t.Fatalf("署名鍵の生成に失敗: %v", err)
	}
	return key
}

// hashForTest はテスト用に最小コストでパスワードをハッシュ化する。
func hashForTest(t *testing.T, password string) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("ハッシュ化に失敗: %v", err)
	}
	return string(hash)
}

// newTestStore はテストユーザーを1件登録したインメモリストアを生成する。
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := OpenStore(context.Background(), ":memory:", logging.Discard())
	if err != nil {
		t.Fatalf("ストアの生成に失敗: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Create(context.Background(), &User{
		Email:        testEmail,
		PasswordHash: hashForTest(t, testPassword),
		Role:         "ADMIN",
	}); err != nil {
		t.Fatalf("テストユーザーの作成に失敗: %v", err)
	}
	return store
}

// fakeStore は任意のエラーを返せるテスト用の UserStore。
type fakeStore struct {
	mu    sync.Mutex
	users map[string]*User
	err   error
	calls int
}

func (f *fakeStore) FindByEmail(_ context.Context, email string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeStore) Create(_ context.Context, user *User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.users[user.Email]; ok {
		return ErrEmailTaken
	}
	if f.users == nil {
		f.users = make(map[string]*User)
	}
	f.users[user.Email] = user
	return nil
}

// fixedClock は固定時刻を返す時刻関数を生成する。
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
