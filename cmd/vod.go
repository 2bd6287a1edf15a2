package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/chengxue2020/Cat-ports/core/video"
)

var vodPage int

var vodCmd = &cobra.Command{
	Use:   "vod",
	Short: "访问爱看机器人影视源",
}

var vodSearchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "搜索影片",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newVod().Search(context.Background(), args[0], vodPage)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

var vodDetailCmd = &cobra.Command{
	Use:   "detail <id>",
	Short: "查看影片详情和播放列表",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newVod().Detail(context.Background(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

var vodHomeCmd = &cobra.Command{
	Use:   "home",
	Short: "列出分类和标签",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newVod().Home(context.Background())
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

func newVod() *video.Ikanbot {
	return video.NewIkanbot(cfg.VodBaseURL, cfg.ResolveTimeout)
}

func init() {
	vodSearchCmd.Flags().IntVarP(&vodPage, "page", "p", 1, "页码")
	vodCmd.AddCommand(vodHomeCmd, vodSearchCmd, vodDetailCmd)
	rootCmd.AddCommand(vodCmd)
}
