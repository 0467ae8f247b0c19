package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/authgate/internal/auth"
	"github.com/nao1215/authgate/internal/gateway"
	"github.com/nao1215/authgate/pkg/config"
	"github.com/nao1215/authgate/pkg/logging"
)

// NewAuthCommand は認証サービスを起動するコマンドを生成する。
func NewAuthCommand(version string) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:     "auth",
		Short:   "認証サービスを起動する",
		Long:    "メールアドレスとパスワードでログインしトークンを発行する認証サービスを起動します。",
		Version: version,
		Args:    cobra.NoArgs,
		// 設定エラー以外で使い方を表示しない
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadAuth(configPath)
			if err != nil {
				return fmt.Errorf("設定の読み込みに失敗: %w", err)
			}

			logger := logging.New(os.Stdout, cfg.LogLevel, "auth")
			server, err := auth.NewServer(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("認証サーバーの初期化に失敗: %w", err)
			}
			defer server.Close()

			logger.Info("認証サービスを起動します", "port", cfg.Port, "version", version)
			if err := server.Run(cmd.Context()); err != nil {
				return fmt.Errorf("認証サービスが異常終了: %w", err)
			}
			logger.Info("認証サービスを停止しました")
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "YAML設定ファイルのパス (env: AUTH_CONFIG)")
	return cmd
}

// NewGatewayCommand はGatewayサービスを起動するコマンドを生成する。
func NewGatewayCommand(version string) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "gateway",
		Short:         "Gatewayサービスを起動する",
		Long:          "保護されたルートへのリクエストを認証サービスで検証してから下流サービスへ転送するGatewayを起動します。",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadGateway(configPath)
			if err != nil {
				return fmt.Errorf("設定の読み込みに失敗: %w", err)
			}

			logger := logging.New(os.Stdout, cfg.LogLevel, "gateway")
			server, err := gateway.NewServer(cfg, logger)
			if err != nil {
				return fmt.Errorf("Gatewayサーバーの初期化に失敗: %w", err)
			}

			logger.Info("Gatewayサービスを起動します",
				"port", cfg.Port, "auth_service_url", cfg.AuthServiceURL, "version", version)
			if err := server.Run(cmd.Context()); err != nil {
				return fmt.Errorf("Gatewayサービスが異常終了: %w", err)
			}
			logger.Info("Gatewayサービスを停止しました")
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "YAML設定ファイルのパス (env: GATEWAY_CONFIG)")
	return cmd
}
