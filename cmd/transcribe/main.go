package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "voxscribe",
		Short:   "VoxScribe CLI - 长音频转写服务命令行客户端",
		Long:    "通过命令行调用 VoxScribe 转写服务的 HTTP/WebSocket API：上传转写、流式转写、服务状态查询。",
		Version: version,
	}

	// 添加全局标志
	addGlobalFlags(rootCmd)

	// 注册子命令
	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newStreamCmd())
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newStatusCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
