package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword は空のパスワードをハッシュ化しようとした場合に返される。
var ErrEmptyPassword = errors.New("パスワードが空です")

// HashPassword はパスワードをbcrypt（デフォルトコスト）でハッシュ化する。
// ユーザー作成時にのみ使用する。
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
	}
	return string(hash), nil
}

// comparePassword はハッシュとパスワードが一致するかを返す。
func comparePassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// dummyHash は存在しないユーザーに対する照合で使用するハッシュ。
// 照合にかかる時間を揃え、応答時間からユーザーの有無が分からないようにする。
var dummyHash = sync.OnceValue(func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte("authgate-unknown-user"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("ダミーハッシュの生成に失敗: %v", err))
	}
	return string(hash)
})
