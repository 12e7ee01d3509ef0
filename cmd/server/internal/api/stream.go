package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/voxscribe/voxscribe/cmd/server/internal/audio"
	"github.com/voxscribe/voxscribe/cmd/server/internal/metrics"
	"github.com/voxscribe/voxscribe/cmd/server/internal/transcribe"
)

const (
	// endOfAudioSignal is the text frame clients send to request the final
	// transcription of everything streamed so far.
	endOfAudioSignal = "END_OF_AUDIO"

	// interimThreshold is the accumulated byte count past which every new
	// binary frame triggers an interim full-buffer transcription.
	interimThreshold = 1024 * 10
)

// controlMessage is the JSON shape of text control frames.
type controlMessage struct {
	Type string `json:"type"`
}

// StreamServer owns the live transcription WebSocket endpoint. Binary frames
// accumulate per connection; interim results go out while the client is still
// sending, the final result after END_OF_AUDIO.
type StreamServer struct {
	pipe    *transcribe.Pipeline
	source  *audio.FFmpegSource
	limiter *ConcurrencyLimiter
	tempDir string
	logger  *slog.Logger

	upgrader    websocket.Upgrader
	connections sync.Map
}

// NewStreamServer creates a StreamServer writing per-connection buffers under
// tempDir.
func NewStreamServer(pipe *transcribe.Pipeline, source *audio.FFmpegSource, limiter *ConcurrencyLimiter, tempDir string, log *slog.Logger) *StreamServer {
	if log == nil {
		log = slog.Default()
	}
	return &StreamServer{
		pipe:    pipe,
		source:  source,
		limiter: limiter,
		tempDir: tempDir,
		logger:  log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有来源的连接
			},
		},
	}
}

// ActiveStreams returns the number of currently connected clients.
func (s *StreamServer) ActiveStreams() int {
	count := 0
	s.connections.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// HandleStream upgrades GET /ws/transcribe/:client_id and serves the
// connection until the client disconnects.
func (s *StreamServer) HandleStream() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.Param("client_id")

		conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			s.logger.Error("websocket upgrade failed", "client_id", clientID, "error", err)
			return
		}

		s.connections.Store(clientID, conn)
		defer func() {
			s.connections.Delete(clientID)
			conn.Close()
		}()

		s.serve(c.Request.Context(), conn, clientID)
	}
}

// serve runs the read loop for one connection. Errors during transcription
// are reported as error frames without dropping the connection.
func (s *StreamServer) serve(ctx context.Context, conn *websocket.Conn, clientID string) {
	// ffmpeg 以内容探测真实容器格式，扩展名只是名义上的
	tempPath := filepath.Join(s.tempDir, "stream_"+uuid.New().String()+".wav")
	defer os.Remove(tempPath)

	var audioData []byte

	s.logger.Info("stream client connected", "client_id", clientID)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Error("websocket read failed", "client_id", clientID, "error", err)
			} else {
				s.logger.Info("stream client disconnected", "client_id", clientID)
			}
			return
		}

		switch msgType {
		case websocket.TextMessage:
			text := string(data)
			if text == endOfAudioSignal {
				if len(audioData) == 0 {
					s.logger.Warn("END_OF_AUDIO received with no audio data", "client_id", clientID)
					continue
				}
				s.runFinal(ctx, conn, clientID, audioData, tempPath)
				audioData = audioData[:0]
				os.Remove(tempPath)
				continue
			}
			s.handleControlText(conn, clientID, text)

		case websocket.BinaryMessage:
			audioData = append(audioData, data...)
			if len(audioData) > interimThreshold {
				s.runInterim(ctx, conn, clientID, audioData, tempPath)
			}

		default:
			s.send(conn, gin.H{"type": "error", "message": "Unknown message format"})
		}
	}
}

// handleControlText answers non-audio text frames: JSON control messages get
// their echo responses, anything else an info echo.
func (s *StreamServer) handleControlText(conn *websocket.Conn, clientID, text string) {
	if strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
		var msg controlMessage
		if err := json.Unmarshal([]byte(text), &msg); err != nil {
			s.logger.Error("invalid control message", "client_id", clientID, "error", err)
			return
		}
		switch msg.Type {
		case "test":
			s.send(conn, gin.H{"type": "test_response", "message": "Server received test message"})
		case "heartbeat":
			s.send(conn, gin.H{"type": "heartbeat_response", "message": "Server is alive"})
		}
		return
	}

	s.send(conn, gin.H{"type": "info", "message": "Received text: " + text})
}

// runInterim transcribes the accumulated buffer and pushes an interim result.
// When no pipeline slot frees up in time the run is skipped; the buffer keeps
// growing and the next frame retries.
func (s *StreamServer) runInterim(ctx context.Context, conn *websocket.Conn, clientID string, audioData []byte, tempPath string) {
	if err := s.limiter.Acquire(ctx); err != nil {
		s.logger.Warn("interim transcription skipped, no pipeline slot", "client_id", clientID)
		return
	}
	defer s.limiter.Release()

	start := time.Now()
	segments, err := s.transcribeBuffer(ctx, audioData, tempPath)
	if err != nil {
		metrics.RecordTranscriptionRequest("websocket", false)
		s.send(conn, gin.H{"type": "error", "message": "Transcription error: " + err.Error()})
		return
	}
	if len(segments) == 0 {
		s.logger.Warn("interim transcription returned no segments", "client_id", clientID)
		return
	}

	metrics.RecordTranscriptionRequest("websocket", true)
	metrics.RecordTranscriptionDuration("websocket", time.Since(start).Seconds())
	metrics.RecordSegmentsEmitted("websocket", len(segments))

	s.send(conn, gin.H{"type": "interim_result", "segments": segments})
}

// runFinal transcribes the full buffer after END_OF_AUDIO.
func (s *StreamServer) runFinal(ctx context.Context, conn *websocket.Conn, clientID string, audioData []byte, tempPath string) {
	if err := s.limiter.Acquire(ctx); err != nil {
		s.send(conn, gin.H{"type": "error", "message": "Final transcription error: server is busy"})
		return
	}
	defer s.limiter.Release()

	s.logger.Info("final transcription started", "client_id", clientID, "buffer_bytes", len(audioData))

	start := time.Now()
	segments, err := s.transcribeBuffer(ctx, audioData, tempPath)
	if err != nil {
		metrics.RecordTranscriptionRequest("websocket", false)
		s.send(conn, gin.H{"type": "error", "message": "Final transcription error: " + err.Error()})
		return
	}
	if len(segments) == 0 {
		s.send(conn, gin.H{"type": "info", "message": "No transcription result"})
		return
	}

	metrics.RecordTranscriptionRequest("websocket", true)
	metrics.RecordTranscriptionDuration("websocket", time.Since(start).Seconds())
	metrics.RecordSegmentsEmitted("websocket", len(segments))

	s.send(conn, gin.H{"type": "final_result", "segments": segments})
}

// transcribeBuffer writes the accumulated bytes to the connection's temp file
// and runs decode plus pipeline on it.
func (s *StreamServer) transcribeBuffer(ctx context.Context, audioData []byte, tempPath string) ([]transcribe.Segment, error) {
	if err := os.WriteFile(tempPath, audioData, 0644); err != nil {
		return nil, fmt.Errorf("failed to save stream buffer: %w", err)
	}

	samples, err := s.source.Load(ctx, tempPath)
	if err != nil {
		return nil, err
	}

	res, err := s.pipe.Run(ctx, samples, transcribe.RunOptions{})
	if err != nil {
		return nil, err
	}
	return res.Segments, nil
}

func (s *StreamServer) send(conn *websocket.Conn, payload gin.H) {
	if err := conn.WriteJSON(payload); err != nil {
		s.logger.Error("websocket write failed", "error", err)
	}
}
