// authgateの運用ツール。署名鍵の生成とユーザーの登録を行う。
package main

import (
	"os"

	"github.com/nao1215/authgate/internal/cli"
)

// version はビルド時に -ldflags で設定する。
var version = "dev"

func main() {
	os.Exit(cli.Execute(cli.NewAuthctlCommand(version)))
}
