// 認証サービスのエントリポイント。
// メールアドレスとパスワードでログインしトークンを発行する。
// Gatewayから転送されたトークンの検証も担当する。
package main

import (
	"os"

	"github.com/nao1215/authgate/internal/cli"
)

// version はビルド時に -ldflags で設定する。
var version = "dev"

func main() {
	os.Exit(cli.Execute(cli.NewAuthCommand(version)))
}
