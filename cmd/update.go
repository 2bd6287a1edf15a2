package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chengxue2020/Cat-ports/core/host"
	"github.com/chengxue2020/Cat-ports/server"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "立即检查一次更新",
	RunE: func(cmd *cobra.Command, args []string) error {
		plugins, err := server.BuildManager(cfg)
		if err != nil {
			return err
		}

		sender := &host.LogSender{}
		cfg.UpdateEnabled = true
		notifier := server.BuildNotifier(cfg, plugins, sender)
		if notifier == nil {
			return errors.New("UPDATE_VERSION_URL is not configured")
		}

		state := notifier.Check(context.Background())
		fmt.Fprintln(cmd.OutOrStdout(), state)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
