package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// streamMessage 是流式转写通道上的服务端推送
type streamMessage struct {
	Type     string       `json:"type"`
	Message  string       `json:"message"`
	Segments []cueSegment `json:"segments"`
}

// newStreamCmd 创建 stream 命令
func newStreamCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "stream <media-file>",
		Short: "通过 WebSocket 流式发送文件，打印中间与最终转写结果",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := LoadConfig(cmd)
			chunkSize, _ := cmd.Flags().GetInt("chunk-size")
			if chunkSize <= 0 {
				return fmt.Errorf("chunk-size must be positive")
			}
			return runStream(cfg, args[0], chunkSize)
		},
	}

	c.Flags().Int("chunk-size", 32*1024, "每个二进制帧的字节数")
	return c
}

func runStream(cfg *Config, mediaPath string, chunkSize int) error {
	data, err := os.ReadFile(mediaPath)
	if err != nil {
		return fmt.Errorf("read media file: %w", err)
	}

	// http -> ws, https -> wss
	wsURL := strings.Replace(cfg.ServerURL, "http", "ws", 1) + "/ws/transcribe/" + uuid.New().String()
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// 单独的读协程，发送期间服务端可能随时推送中间结果
	done := make(chan error, 1)
	go func() { done <- printStreamMessages(conn) }()

	for offset := 0; offset < len(data); offset += chunkSize {
		end := offset + chunkSize
		if end > len(data) {
			end = len(data)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, data[offset:end]); err != nil {
			return fmt.Errorf("send audio chunk: %w", err)
		}
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("END_OF_AUDIO")); err != nil {
		return fmt.Errorf("send end-of-audio: %w", err)
	}

	return <-done
}

// printStreamMessages 打印服务端推送，收到最终结果后返回
func printStreamMessages(conn *websocket.Conn) error {
	for {
		var msg streamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("read stream message: %w", err)
		}

		switch msg.Type {
		case "interim_result":
			fmt.Printf("-- interim (%d segments) --\n", len(msg.Segments))
			printSegments(msg.Segments)
		case "final_result":
			fmt.Println("-- final --")
			printSegments(msg.Segments)
			return nil
		case "error":
			return fmt.Errorf("server error: %s", msg.Message)
		case "info":
			fmt.Println(msg.Message)
			if msg.Message == "No transcription result" {
				return nil
			}
		default:
			fmt.Printf("%s: %s\n", msg.Type, msg.Message)
		}
	}
}
