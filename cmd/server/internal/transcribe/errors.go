package transcribe

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode 表示转写流水线错误类型代码
type ErrorCode string

const (
	// INVALID_BUFFER 音频输入为空或格式非法
	INVALID_BUFFER ErrorCode = "INVALID_BUFFER"

	// DECODE_FAILED 外部解码工具失败（非零退出或零字节输出）
	DECODE_FAILED ErrorCode = "DECODE_FAILED"

	// WINDOW_TRANSCRIPTION_FAILED 单个窗口识别或对齐失败（可恢复）
	WINDOW_TRANSCRIPTION_FAILED ErrorCode = "WINDOW_TRANSCRIPTION_FAILED"

	// MODEL_UNAVAILABLE 识别后端不可达或模型加载失败（致命，不重试）
	MODEL_UNAVAILABLE ErrorCode = "MODEL_UNAVAILABLE"

	// UNSUPPORTED_TASK 请求的任务与当前引擎组合不支持
	UNSUPPORTED_TASK ErrorCode = "UNSUPPORTED_TASK"
)

// PipelineError 表示转写流水线错误
type PipelineError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Cause     error     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

// Error 实现 error 接口
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 实现错误链支持
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// NewPipelineError 创建新的流水线错误
func NewPipelineError(code ErrorCode, message string, cause error) *PipelineError {
	return &PipelineError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// NewInvalidBufferError 创建音频输入非法错误
func NewInvalidBufferError(message string) *PipelineError {
	return NewPipelineError(INVALID_BUFFER, message, nil)
}

// NewDecodeError 创建解码失败错误，stderr 为解码工具诊断输出
func NewDecodeError(stderr string, cause error) *PipelineError {
	msg := "audio decode failed"
	if stderr != "" {
		msg = fmt.Sprintf("audio decode failed: %s", stderr)
	}
	return NewPipelineError(DECODE_FAILED, msg, cause)
}

// NewWindowError 创建单窗口转写失败错误
func NewWindowError(window int, cause error) *PipelineError {
	msg := fmt.Sprintf("transcription failed for window %d", window)
	return NewPipelineError(WINDOW_TRANSCRIPTION_FAILED, msg, cause)
}

// NewModelUnavailableError 创建模型不可用错误
func NewModelUnavailableError(cause error) *PipelineError {
	return NewPipelineError(MODEL_UNAVAILABLE, "speech model unavailable", cause)
}

// NewUnsupportedTaskError 创建任务不支持错误
func NewUnsupportedTaskError(message string) *PipelineError {
	return NewPipelineError(UNSUPPORTED_TASK, message, nil)
}

// AsPipelineError 提取错误链中的 PipelineError
func AsPipelineError(err error) (*PipelineError, bool) {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
