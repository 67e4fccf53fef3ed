package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"ScreenSync/config"
	"ScreenSync/core/resolver"
	"ScreenSync/store"

	"github.com/spf13/cobra"
)

var resolveAt string

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "排期裁决演练",
	Long: `读取本地缓存中的 bundle，对指定时刻执行一次当前内容裁决，
打印胜出的内容项和渲染指令。用于离线排查"为什么这块屏现在放的是这个"。`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		now := time.Now()
		if resolveAt != "" {
			parsed, err := time.ParseInLocation("2006-01-02 15:04", resolveAt, time.Local)
			if err != nil {
				log.Fatalf("无法解析时间 %q（格式: 2006-01-02 15:04）: %v", resolveAt, err)
			}
			now = parsed
		}

		cache, err := store.OpenLocalCache(cfg.CacheDir)
		if err != nil {
			log.Fatalf("无法打开本地缓存: %v", err)
		}
		defer cache.Close()

		bundle, ok, err := cache.LoadBundle()
		if err != nil {
			log.Fatalf("读取缓存 bundle 失败: %v", err)
		}
		if !ok {
			log.Fatal("本地缓存中没有 bundle，先运行一次 server")
		}

		fmt.Printf("裁决时刻: %s (%s)\n", now.Format("2006-01-02 15:04"), now.Weekday())
		fmt.Printf("bundle lastUpdate=%d, playlist=%d, schedules=%d, useSchedule=%v\n",
			bundle.LastUpdate, len(bundle.Playlist), len(bundle.Schedules), bundle.Config.UseSchedule)

		item, found := resolver.ResolveActive(now, bundle.Config, bundle.Schedules, bundle.Playlist)
		if !found {
			fmt.Println("\n裁决结果: 无内容可播（空列表或悬空排期引用）")
			return
		}

		inst := resolver.ResolveSource(item, bundle.Config, resolver.EmbedTemplates{
			MovieBase:   cfg.EmbedBaseMovie,
			ShowBase:    cfg.EmbedBaseShow,
			EpisodeBase: cfg.EmbedBaseEpisode,
		})

		fmt.Printf("\n裁决结果: %s (%s)\n", item.Title, item.ID)
		data, _ := json.MarshalIndent(inst, "", "  ")
		fmt.Printf("渲染指令:\n%s\n", data)
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVar(&resolveAt, "at", "", "裁决时刻（本地时间，格式 2006-01-02 15:04），默认当前时间")
}
