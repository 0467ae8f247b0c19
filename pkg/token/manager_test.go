package token

import (
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// testKeyMaterial はテスト用の32バイト鍵。
var testKeyMaterial = []byte("0123456789abcdef0123456789abcdef")

// fixedNow はテストで使用する固定時刻。秒未満を持たない。
var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// newTestKey はテスト用の署名鍵を生成する。
func newTestKey(t *testing.T, material []byte) SigningKey {
	t.Helper()

	key, err := ParseSigningKey(base64.StdEncoding.EncodeToString(material))
	if err != nil {
		t.Fatalf("テスト用鍵の生成に失敗: %v", err)
	}
	return key
}

// clockAt は指定時刻を返す時刻関数を生成する。
func clockAt(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// TestIssueAndVerify は発行したトークンが検証に成功することを検証する。
func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	t.Run("発行直後のトークンはsubjectとroleを含み有効であること", func(t *testing.T) {
		t.Parallel()

		m := NewManager(newTestKey(t, testKeyMaterial))
		raw, err := m.Issue("test@test.com", "ADMIN")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		got := m.Verify(raw)
		if !got.Valid {
			t.Fatalf("Verify()が無効を返した: reason=%v", got.Reason)
		}
		if got.Subject != "test@test.com" {
			t.Errorf("Subject = %q, want %q", got.Subject, "test@test.com")
		}
		if got.Role != "ADMIN" {
			t.Errorf("Role = %q, want %q", got.Role, "ADMIN")
		}
		if got.Reason != nil {
			t.Errorf("Reason = %v, want nil", got.Reason)
		}
	})

	t.Run("有効期限が発行時刻の10時間後であること", func(t *testing.T) {
		t.Parallel()

		m := NewManager(newTestKey(t, testKeyMaterial), WithClock(clockAt(fixedNow)))
		raw, err := m.Issue("exp@example.com", "USER")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		got := m.Verify(raw)
		if !got.Valid {
			t.Fatalf("Verify()が無効を返した: reason=%v", got.Reason)
		}
		want := fixedNow.Add(10 * time.Hour)
		if !got.ExpiresAt.Equal(want) {
			t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, want)
		}
	})

	t.Run("署名アルゴリズムがHS256でありroleクレームを含むこと", func(t *testing.T) {
		t.Parallel()

		m := NewManager(newTestKey(t, testKeyMaterial), WithClock(clockAt(fixedNow)))
		raw, err := m.Issue("alg@example.com", "USER")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		claims := &Claims{}
		parsed, _, err := jwt.NewParser().ParseUnverified(raw, claims)
		if err != nil {
			t.Fatalf("トークンのパースに失敗: %v", err)
		}
		if parsed.Method.Alg() != "HS256" {
			t.Errorf("alg = %q, want %q", parsed.Method.Alg(), "HS256")
		}
		if claims.Role != "USER" {
			t.Errorf("role = %q, want %q", claims.Role, "USER")
		}
		if !claims.IssuedAt.Time.Equal(fixedNow) {
			t.Errorf("iat = %v, want %v", claims.IssuedAt.Time, fixedNow)
		}
	})

	t.Run("同じ鍵を持つ別のManagerでも検証できること", func(t *testing.T) {
		t.Parallel()

		issuerSide := NewManager(newTestKey(t, testKeyMaterial))
		verifierSide := NewManager(newTestKey(t, testKeyMaterial))

		raw, err := issuerSide.Issue("shared@example.com", "USER")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}
		if got := verifierSide.Verify(raw); !got.Valid {
			t.Errorf("別インスタンスでの検証に失敗: reason=%v", got.Reason)
		}
	})
}

// TestVerifyExpiry は有効期限の境界を検証する。
func TestVerifyExpiry(t *testing.T) {
	t.Parallel()

	key := newTestKey(t, testKeyMaterial)
	raw, err := NewManager(key, WithClock(clockAt(fixedNow))).Issue("boundary@example.com", "USER")
	if err != nil {
		t.Fatalf("Issue()でエラーが発生: %v", err)
	}
	expiresAt := fixedNow.Add(TTL)

	t.Run("有効期限の1秒前までは有効であること", func(t *testing.T) {
		t.Parallel()

		for _, at := range []time.Time{fixedNow, fixedNow.Add(5 * time.Hour), expiresAt.Add(-1 * time.Second)} {
			got := NewManager(key, WithClock(clockAt(at))).Verify(raw)
			if !got.Valid {
				t.Errorf("時刻 %v で無効と判定された: reason=%v", at, got.Reason)
			}
		}
	})

	t.Run("有効期限ちょうどの時刻では無効であること", func(t *testing.T) {
		t.Parallel()

		got := NewManager(key, WithClock(clockAt(expiresAt))).Verify(raw)
		if got.Valid {
			t.Fatal("有効期限ちょうどで有効と判定された")
		}
		if !errors.Is(got.Reason, ErrExpired) {
			t.Errorf("Reason = %v, want %v", got.Reason, ErrExpired)
		}
	})

	t.Run("有効期限を過ぎたトークンは署名が正しくても無効であること", func(t *testing.T) {
		t.Parallel()

		got := NewManager(key, WithClock(clockAt(expiresAt.Add(time.Hour)))).Verify(raw)
		if got.Valid {
			t.Fatal("期限切れトークンが有効と判定された")
		}
		if got.Subject != "" || got.Role != "" {
			t.Errorf("無効な結果にクレームが含まれている: %+v", got)
		}
		if !errors.Is(got.Reason, ErrExpired) {
			t.Errorf("Reason = %v, want %v", got.Reason, ErrExpired)
		}
	})
}

// TestVerifyRejects は不正なトークンが無効と判定されることを検証する。
func TestVerifyRejects(t *testing.T) {
	t.Parallel()

	t.Run("異なる鍵で署名されたトークンは時刻に関係なく無効であること", func(t *testing.T) {
		t.Parallel()

		other := newTestKey(t, []byte("ffffffffffffffffffffffffffffffff"))
		raw, err := NewManager(other, WithClock(clockAt(fixedNow))).Issue("wrong@example.com", "USER")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		for _, at := range []time.Time{fixedNow, fixedNow.Add(TTL + time.Hour)} {
			got := NewManager(newTestKey(t, testKeyMaterial), WithClock(clockAt(at))).Verify(raw)
			if got.Valid {
				t.Errorf("時刻 %v で異なる鍵のトークンが有効と判定された", at)
			}
			if !errors.Is(got.Reason, ErrSignatureInvalid) {
				t.Errorf("Reason = %v, want %v", got.Reason, ErrSignatureInvalid)
			}
		}
	})

	t.Run("改ざんされたペイロードは無効であること", func(t *testing.T) {
		t.Parallel()

		m := NewManager(newTestKey(t, testKeyMaterial))
		raw, err := m.Issue("user@example.com", "USER")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		parts := strings.Split(raw, ".")
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user@example.com",
				Issuer:    issuer,
				IssuedAt:  jwt.NewNumericDate(time.Now()),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			Role: "ADMIN",
		}).SigningString()
		if err != nil {
			t.Fatalf("偽造トークンの生成に失敗: %v", err)
		}
		tampered := forged + "." + parts[2]

		if got := m.Verify(tampered); got.Valid {
			t.Fatal("改ざんされたトークンが有効と判定された")
		}
	})

	t.Run("alg=noneのトークンは無効であること", func(t *testing.T) {
		t.Parallel()

		m := NewManager(newTestKey(t, testKeyMaterial))
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "none@example.com",
				Issuer:    issuer,
				IssuedAt:  jwt.NewNumericDate(time.Now()),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("alg=noneトークンの生成に失敗: %v", err)
		}

		got := m.Verify(unsigned)
		if got.Valid {
			t.Fatal("alg=noneのトークンが有効と判定された")
		}
		if !errors.Is(got.Reason, ErrSignatureInvalid) {
			t.Errorf("Reason = %v, want %v", got.Reason, ErrSignatureInvalid)
		}
	})

	t.Run("有効期限を持たないトークンは無効であること", func(t *testing.T) {
		t.Parallel()

		m := NewManager(newTestKey(t, testKeyMaterial))
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "noexp@example.com", Issuer: issuer},
		}).SignedString(testKeyMaterial)
		if err != nil {
			t.Fatalf("トークンの生成に失敗: %v", err)
		}

		if got := m.Verify(raw); got.Valid {
			t.Fatal("expのないトークンが有効と判定された")
		}
	})

	t.Run("subjectが空のトークンは無効であること", func(t *testing.T) {
		t.Parallel()

		m := NewManager(newTestKey(t, testKeyMaterial))
		raw, err := m.Issue("", "USER")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}
		if got := m.Verify(raw); got.Valid {
			t.Fatal("subjectのないトークンが有効と判定された")
		}
	})

	t.Run("JWTとして解釈できない文字列は無効であること", func(t *testing.T) {
		t.Parallel()

		m := NewManager(newTestKey(t, testKeyMaterial))
		for _, raw := range []string{"", "invalid-token", "a.b.c", "Bearer x.y.z"} {
			got := m.Verify(raw)
			if got.Valid {
				t.Errorf("Verify(%q)が有効を返した", raw)
			}
			if !errors.Is(got.Reason, ErrMalformed) {
				t.Errorf("Verify(%q).Reason = %v, want %v", raw, got.Reason, ErrMalformed)
			}
		}
	})

	t.Run("ゼロ値の鍵では発行も検証もできないこと", func(t *testing.T) {
		t.Parallel()

		m := NewManager(SigningKey{})
		if _, err := m.Issue("zero@example.com", "USER"); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Issue()のエラー = %v, want %v", err, ErrInvalidKey)
		}
		if got := m.Verify("x.y.z"); got.Valid {
			t.Error("ゼロ値の鍵で有効と判定された")
		}
	})
}

// TestManagerConcurrentUse は複数goroutineからの同時利用で結果が一貫することを検証する。
func TestManagerConcurrentUse(t *testing.T) {
	t.Parallel()

	m := NewManager(newTestKey(t, testKeyMaterial))
	raw, err := m.Issue("concurrent@example.com", "USER")
	if err != nil {
		t.Fatalf("Issue()でエラーが発生: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := m.Verify(raw); !got.Valid || got.Subject != "concurrent@example.com" {
				errs <- "並行検証で不正な結果"
			}
		}()
	}
	wg.Wait()
	close(errs)

	for msg := range errs {
		t.Error(msg)
	}
}
