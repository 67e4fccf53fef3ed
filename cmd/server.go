package cmd

import (
	"ScreenSync/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动播放节点",
	Long:  `启动 ScreenSync 播放节点：同步引擎、屏幕接入 WebSocket 与创作端API`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
