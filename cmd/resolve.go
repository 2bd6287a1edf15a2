package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chengxue2020/Cat-ports/model"
	"github.com/chengxue2020/Cat-ports/server"
)

var (
	resolvePlatform   string
	resolveQuality    string
	resolveID         string
	resolveAggregator string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "解析一首歌的播放地址",
	Example: `  catports resolve -s wy -q flac -i 12345
  catports resolve -s kg -q 320k -i <hash> -a lerd`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if resolveAggregator != "" {
			cfg.Aggregator = resolveAggregator
		}
		plugins, err := server.BuildManager(cfg)
		if err != nil {
			return err
		}
		src, err := plugins.GetDefault()
		if err != nil {
			return err
		}

		info, err := json.Marshal(map[string]string{"id": resolveID, "hash": resolveID, "songmid": resolveID})
		if err != nil {
			return err
		}

		url, err := src.Handle(context.Background(), &model.RequestEnvelope{
			Action: model.ActionMusicURL,
			Source: resolvePlatform,
			Info:   &model.RequestInfo{MusicInfo: info, Type: resolveQuality},
		})
		if err != nil {
			return fmt.Errorf("解析失败: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVarP(&resolvePlatform, "source", "s", "", "平台标识，例如 wy、tx、kw、kg、mg")
	resolveCmd.Flags().StringVarP(&resolveQuality, "quality", "q", "320k", "音质，例如 128k、320k、flac")
	resolveCmd.Flags().StringVarP(&resolveID, "id", "i", "", "歌曲标识")
	resolveCmd.Flags().StringVarP(&resolveAggregator, "aggregator", "a", "", "聚合接口，缺省使用 SOURCE_AGGREGATOR")
	_ = resolveCmd.MarkFlagRequired("source")
	_ = resolveCmd.MarkFlagRequired("id")
	rootCmd.AddCommand(resolveCmd)
}
