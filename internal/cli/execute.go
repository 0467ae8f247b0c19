package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess は正常終了を表す。
	ExitCodeSuccess = 0
	// ExitCodeError は何らかのエラーで終了したことを表す。
	ExitCodeError = 1
)

// Execute はSIGINT/SIGTERMでキャンセルされるコンテキストでコマンドを実行し、
// 終了コードを返す。
func Execute(cmd *cobra.Command) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "エラー: %v\n", err)
		return ExitCodeError
	}
	return ExitCodeSuccess
}
