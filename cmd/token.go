package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chengxue2020/Cat-ports/core/auth"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "签发访问桥接接口的令牌",
	RunE: func(cmd *cobra.Command, args []string) error {
		signer, err := auth.NewSigner(cfg.AuthSecret)
		if err != nil {
			return fmt.Errorf("AUTH_SECRET 未设置: %w", err)
		}
		token, err := signer.GenerateToken(tokenSubject, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "host", "令牌 subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 720*time.Hour, "有效期，0 表示永不过期")
	rootCmd.AddCommand(tokenCmd)
}
