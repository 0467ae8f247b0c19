package cli

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/authgate/internal/auth"
	"github.com/nao1215/authgate/pkg/logging"
	"github.com/nao1215/authgate/pkg/token"
)

// NewAuthctlCommand は運用ツール authctl のルートコマンドを生成する。
func NewAuthctlCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "authctl",
		Short:         "authgateの運用ツール",
		Long:          "署名鍵の生成や認証サービスへのユーザー登録を行います。",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newKeygenCommand(), newUseraddCommand())
	return cmd
}

// newKeygenCommand は署名鍵を生成するコマンドを生成する。
func newKeygenCommand() *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "base64エンコードされた署名鍵を生成する",
		Long: `ランダムな署名鍵を生成し、base64（標準アルファベット）で出力します。
出力は認証サービスの JWT_SECRET にそのまま設定できます。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if size < token.MinKeyLength {
				return fmt.Errorf("--bytes は %d 以上である必要があります: %d", token.MinKeyLength, size)
			}

			material := make([]byte, size)
			if _, err := rand.Read(material); err != nil {
				return fmt.Errorf("乱数の生成に失敗: %w", err)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), base64.StdEncoding.EncodeToString(material))
			return err
		},
	}
	cmd.Flags().IntVar(&size, "bytes", token.MinKeyLength, "鍵のバイト数")
	return cmd
}

// newUseraddCommand はユーザーを登録するコマンドを生成する。
func newUseraddCommand() *cobra.Command {
	var (
		dbPath   string
		email    string
		password string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "useradd",
		Short: "認証サービスにユーザーを登録する",
		Long: `パスワードをbcryptでハッシュ化し、認証サービスのデータベースにユーザーを登録します。
データベースが存在しない場合は作成します。`,
		Example: "  authctl useradd --db /data/auth.db --email test@test.com --password password123",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			store, err := auth.OpenStore(cmd.Context(), dbPath, logging.Discard())
			if err != nil {
				return err
			}
			defer store.Close()

			user := &auth.User{Email: email, PasswordHash: hash, Role: role}
			if err := store.Create(cmd.Context(), user); err != nil {
				if errors.Is(err, auth.ErrEmailTaken) {
					return fmt.Errorf("ユーザーは既に登録されています: %s", email)
				}
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "ユーザーを登録しました: id=%s email=%s role=%s\n", user.ID, user.Email, user.Role)
			return err
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "/data/auth.db", "SQLiteデータベースのパス")
	cmd.Flags().StringVar(&email, "email", "", "メールアドレス")
	cmd.Flags().StringVar(&password, "password", "", "パスワード")
	cmd.Flags().StringVar(&role, "role", auth.DefaultRole, "役割")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
