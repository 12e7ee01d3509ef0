package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// printOutput 根据输出格式打印响应
func printOutput(format string, data []byte) error {
	switch format {
	case "json":
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			// 不是合法 JSON，原样输出
			fmt.Println(string(data))
			return nil
		}
		fmt.Println(buf.String())
	default:
		fmt.Println(string(data))
	}
	return nil
}

// cueSegment 是服务端返回的字幕片段
type cueSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// printSegments 以 [起始 -> 结束] 文本 的形式逐行打印片段
func printSegments(segments []cueSegment) {
	for _, seg := range segments {
		fmt.Printf("[%s -> %s] %s\n", formatClock(seg.Start), formatClock(seg.End), strings.TrimSpace(seg.Text))
	}
}

// formatClock 将秒数格式化为 HH:MM:SS.mmm
func formatClock(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}
