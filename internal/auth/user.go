package auth

import (
	"context"
	"errors"
	"time"
)

// DefaultRole は役割を指定せずに作成したユーザーの役割。
const DefaultRole = "USER"

var (
	// ErrUserNotFound は指定したメールアドレスのユーザーが存在しない場合に返される。
	ErrUserNotFound = errors.New("ユーザーが見つかりません")
	// ErrEmailTaken は同じメールアドレスのユーザーが既に存在する場合に返される。
	ErrEmailTaken = errors.New("メールアドレスは既に使用されています")
)

// User は認証サービスに登録されたユーザー。
type User struct {
	// ID はユーザーの一意識別子（UUID）。
	ID string
	// Email はログインに使用するメールアドレス。大文字小文字を区別する。
	Email string
	// PasswordHash はbcryptでハッシュ化したパスワード。平文は保存しない。
	PasswordHash string
	// Role はトークンのroleクレームに入る役割。
	Role string
	// CreatedAt はユーザーの作成日時。
	CreatedAt time.Time
}

// UserStore はユーザーの永続化を行う。
type UserStore interface {
	// FindByEmail はメールアドレスが完全一致するユーザーを返す。
	// 見つからない場合は ErrUserNotFound を返す。
	FindByEmail(ctx context.Context, email string) (*User, error)
	// Create はユーザーを保存する。IDとCreatedAtが空の場合は採番する。
	// メールアドレスが重複する場合は ErrEmailTaken を返す。
	Create(ctx context.Context, user *User) error
}
