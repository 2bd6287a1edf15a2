package cmd

import (
	"github.com/spf13/cobra"

	"github.com/chengxue2020/Cat-ports/server"
)

var sourcesAggregator string

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "打印音源支持的平台和音质",
	RunE: func(cmd *cobra.Command, args []string) error {
		if sourcesAggregator != "" {
			cfg.Aggregator = sourcesAggregator
		}
		plugins, err := server.BuildManager(cfg)
		if err != nil {
			return err
		}
		src, err := plugins.GetDefault()
		if err != nil {
			return err
		}
		return printJSON(cmd, src.Inited())
	},
}

func init() {
	sourcesCmd.Flags().StringVarP(&sourcesAggregator, "aggregator", "a", "", "聚合接口，缺省使用 SOURCE_AGGREGATOR")
	rootCmd.AddCommand(sourcesCmd)
}
