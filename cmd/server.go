package cmd

import (
	"github.com/spf13/cobra"

	"github.com/chengxue2020/Cat-ports/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动音源服务",
	Long:  `启动宿主桥接服务，提供 WebSocket 事件通道、解析接口、配置转发和影视源接口`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
