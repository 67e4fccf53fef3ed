package cmd

import (
	"context"
	"fmt"
	"log"

	"ScreenSync/config"
	"ScreenSync/storage"

	"github.com/minio/minio-go/v7"
	"github.com/spf13/cobra"
)

var minioPrefix string

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO存储桶检查",
	Long:  `连接本机 blob 子存储（MinIO），列出存储桶中的对象，用于排查上传问题。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("开始连接MinIO服务器...")

		// 加载配置
		cfg := config.Load()
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		// 初始化MinIO客户端
		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("无法连接到MinIO: %v", err)
		}
		fmt.Println("MinIO连接成功！")

		client := storage.GetMinioClient()
		ctx := context.Background()

		fmt.Printf("\n列出存储桶中的对象 (前缀: %q)...\n", minioPrefix)
		var count int
		var totalSize int64
		for obj := range client.ListObjects(ctx, cfg.MinioBucket, minio.ListObjectsOptions{
			Prefix:    minioPrefix,
			Recursive: true,
		}) {
			if obj.Err != nil {
				log.Fatalf("列出对象失败: %v", obj.Err)
			}
			fmt.Printf("  %10d  %s\n", obj.Size, obj.Key)
			count++
			totalSize += obj.Size
		}

		fmt.Printf("\n共 %d 个对象，合计 %d 字节\n", count, totalSize)
		fmt.Println("MinIO操作完成！")
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "按前缀过滤对象")
}
