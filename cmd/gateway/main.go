// API Gatewayサービスのエントリポイント。
// 外部からアクセス可能な唯一のサービスであり、セキュリティの境界線となる。
// 保護されたルートは認証サービスでトークンを検証してから下流へ転送する。
package main

import (
	"os"

	"github.com/nao1215/authgate/internal/cli"
)

// version はビルド時に -ldflags で設定する。
var version = "dev"

func main() {
	os.Exit(cli.Execute(cli.NewGatewayCommand(version)))
}
