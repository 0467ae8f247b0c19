package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/authgate/pkg/token"
)

// ErrInvalidCredentials はメールアドレスまたはパスワードが一致しない場合に返される。
// どちらが誤っているかは区別しない。
var ErrInvalidCredentials = errors.New("メールアドレスまたはパスワードが正しくありません")

// Service はログインとトークン検証を行う。
// 可変状態を持たないため、複数のgoroutineから同時に使用できる。
type Service struct {
	// users はユーザーの取得元。
	users UserStore
	// tokens はトークンの発行と検証を行う。
	tokens *token.Manager
	// dummy は存在しないユーザーとの照合に使うハッシュ。
	dummy string
}

// NewService は新しい認証サービスを生成する。
// ダミーハッシュはここで生成し、最初のログイン要求に生成コストを乗せない。
func NewService(users UserStore, tokens *token.Manager) *Service {
	return &Service{users: users, tokens: tokens, dummy: dummyHash()}
}

// Authenticate はメールアドレスとパスワードを照合し、成功した場合にトークンを発行する。
// ユーザーが存在しない場合とパスワードが一致しない場合はどちらも ErrInvalidCredentials を返す。
// ストアの障害はそれとは別のエラーとして返す。
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		comparePassword(s.dummy, password)
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("ユーザーの取得に失敗: %w", err)
	}

	if !comparePassword(user.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}

	signed, err := s.tokens.Issue(user.Email, user.Role)
	if err != nil {
		return "", fmt.Errorf("トークンの発行に失敗: %w", err)
	}
	return signed, nil
}

// Verify はトークンを検証する。
func (s *Service) Verify(raw string) token.Result {
	return s.tokens.Verify(raw)
}
