package asr

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestSidecarEngine tests the faster-whisper sidecar HTTP client.
func TestSidecarEngine(t *testing.T) {
	t.Run("successful transcription", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/asr" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			if err := r.ParseMultipartForm(32 << 20); err != nil {
				t.Errorf("ParseMultipartForm() error = %v", err)
			}
			if got := r.FormValue("task"); got != "transcribe" {
				t.Errorf("task = %q, want %q", got, "transcribe")
			}
			if got := r.FormValue("beam_size"); got != "5" {
				t.Errorf("beam_size = %q, want %q", got, "5")
			}
			if got := r.FormValue("language"); got != "en" {
				t.Errorf("language = %q, want %q", got, "en")
			}
			file, _, err := r.FormFile("audio")
			if err != nil {
				t.Errorf("FormFile() error = %v", err)
			} else {
				file.Close()
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"language": "en",
				"duration": 2.8,
				"segments": []map[string]interface{}{
					{"text": "Hello world", "start": 0.0, "end": 2.8,
						"words": []map[string]interface{}{
							{"word": "Hello", "start": 0.0, "end": 1.2, "score": 0.98},
							{"word": "world", "start": 1.2, "end": 2.8, "score": 0.95},
						}},
				},
			})
		}))
		defer server.Close()

		engine := NewSidecarEngine(server.URL)

		result, err := engine.Transcribe(context.Background(), make([]float32, SampleRate), Options{Language: "en"})
		if err != nil {
			t.Fatalf("Transcribe() error = %v", err)
		}

		if result.Language != "en" {
			t.Errorf("Language = %q, want %q", result.Language, "en")
		}
		if len(result.Segments) != 1 {
			t.Fatalf("len(Segments) = %d, want 1", len(result.Segments))
		}
		if len(result.Segments[0].Words) != 2 {
			t.Errorf("len(Words) = %d, want 2", len(result.Segments[0].Words))
		}
		if result.Segments[0].Words[0].Text != "Hello" {
			t.Errorf("Words[0].Text = %q, want %q", result.Segments[0].Words[0].Text, "Hello")
		}
	})

	t.Run("service unavailable maps to model unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error": "model not loaded"}`))
		}))
		defer server.Close()

		engine := NewSidecarEngine(server.URL)

		_, err := engine.Transcribe(context.Background(), make([]float32, 100), Options{})
		if err == nil {
			t.Fatal("Expected error from server, got nil")
		}
		if !IsModelUnavailable(err) {
			t.Errorf("expected model-unavailable error, got %v", err)
		}
	})

	t.Run("connection failure maps to model unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close() // refuse connections

		engine := NewSidecarEngine(server.URL)

		_, err := engine.Transcribe(context.Background(), make([]float32, 100), Options{})
		if err == nil {
			t.Fatal("Expected connection error, got nil")
		}
		if !IsModelUnavailable(err) {
			t.Errorf("expected model-unavailable error, got %v", err)
		}
	})

	t.Run("bad request is a plain error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": "unsupported language"}`))
		}))
		defer server.Close()

		engine := NewSidecarEngine(server.URL)

		_, err := engine.Transcribe(context.Background(), make([]float32, 100), Options{Language: "xx"})
		if err == nil {
			t.Fatal("Expected error from server, got nil")
		}
		if IsModelUnavailable(err) {
			t.Errorf("bad request must not map to model unavailable: %v", err)
		}
	})

	t.Run("align fills words", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/align" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			if err := r.ParseMultipartForm(32 << 20); err != nil {
				t.Errorf("ParseMultipartForm() error = %v", err)
			}
			var segs []RawSegment
			if err := json.Unmarshal([]byte(r.FormValue("segments")), &segs); err != nil {
				t.Errorf("segments field not valid JSON: %v", err)
			}
			if got := r.FormValue("language"); got != "en" {
				t.Errorf("language = %q, want %q", got, "en")
			}

			for i := range segs {
				segs[i].Words = []RawWord{{Start: segs[i].Start, End: segs[i].End, Text: segs[i].Text, Score: 0.9}}
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"segments": segs})
		}))
		defer server.Close()

		engine := NewSidecarEngine(server.URL)

		in := []RawSegment{{Start: 0, End: 1.5, Text: "hello"}}
		out, err := engine.Align(context.Background(), in, make([]float32, SampleRate), "en")
		if err != nil {
			t.Fatalf("Align() error = %v", err)
		}
		if len(out) != 1 || len(out[0].Words) != 1 {
			t.Fatalf("unexpected align output: %+v", out)
		}
	})

	t.Run("health check", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		engine := NewSidecarEngine(server.URL)

		healthy, err := engine.HealthCheck(context.Background())
		if err != nil {
			t.Errorf("HealthCheck() error = %v", err)
		}
		if !healthy {
			t.Error("Expected healthy status")
		}
	})

	t.Run("name method", func(t *testing.T) {
		engine := NewSidecarEngine("http://localhost:9000")
		if name := engine.Name(); name != "sidecar" {
			t.Errorf("Name() = %q, want %q", name, "sidecar")
		}
	})
}

// TestMockEngine tests the scripted development/test engine.
func TestMockEngine(t *testing.T) {
	t.Run("empty script returns empty result", func(t *testing.T) {
		mock := NewMockEngine()

		result, err := mock.Transcribe(context.Background(), make([]float32, SampleRate*2), Options{})
		if err != nil {
			t.Fatalf("Transcribe() error = %v", err)
		}
		if len(result.Segments) != 0 {
			t.Errorf("Expected 0 segments, got %d", len(result.Segments))
		}
		if result.Language != "en" {
			t.Errorf("Language = %q, want %q", result.Language, "en")
		}
		if result.Duration != 2.0 {
			t.Errorf("Duration = %v, want 2.0", result.Duration)
		}
	})

	t.Run("script replays in order", func(t *testing.T) {
		mock := NewMockEngine()
		mock.Script = []MockCall{
			{Result: &Result{Language: "en", Segments: []RawSegment{{Start: 0, End: 1, Text: "one"}}}},
			{Err: context.DeadlineExceeded},
		}

		first, err := mock.Transcribe(context.Background(), nil, Options{})
		if err != nil {
			t.Fatalf("first call error = %v", err)
		}
		if len(first.Segments) != 1 || first.Segments[0].Text != "one" {
			t.Errorf("unexpected first result: %+v", first)
		}

		if _, err := mock.Transcribe(context.Background(), nil, Options{}); err == nil {
			t.Error("second call should return scripted error")
		}
		if mock.CallCount() != 2 {
			t.Errorf("CallCount() = %d, want 2", mock.CallCount())
		}
	})

	t.Run("align synthesizes words", func(t *testing.T) {
		mock := NewMockEngine()

		segs := []RawSegment{{Start: 0, End: 2.0, Text: "hello there world"}}
		out, err := mock.Align(context.Background(), segs, nil, "en")
		if err != nil {
			t.Fatalf("Align() error = %v", err)
		}
		words := out[0].Words
		if len(words) != 3 {
			t.Fatalf("len(Words) = %d, want 3", len(words))
		}
		if words[0].Start != 0 || words[2].End != 2.0 {
			t.Errorf("word timings do not span the segment: %+v", words)
		}
		if words[1].Text != "there" {
			t.Errorf("Words[1].Text = %q, want %q", words[1].Text, "there")
		}
	})

	t.Run("health check always healthy", func(t *testing.T) {
		mock := NewMockEngine()
		healthy, err := mock.HealthCheck(context.Background())
		if err != nil || !healthy {
			t.Errorf("HealthCheck() = (%v, %v), want (true, nil)", healthy, err)
		}
	})
}

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"empty means auto", "", "", false},
		{"auto sentinel", "auto", "", false},
		{"plain code", "en", "en", false},
		{"uppercase", "EN", "en", false},
		{"region stripped", "zh-CN", "zh", false},
		{"garbage rejected", "not a language", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeLanguage(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeLanguage(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeLanguage(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEncodeWAV(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1.0, -1.0}
	data := EncodeWAV(samples, SampleRate)

	if len(data) != 44+2*len(samples) {
		t.Fatalf("len(data) = %d, want %d", len(data), 44+2*len(samples))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE markers")
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != SampleRate {
		t.Errorf("sample rate = %d, want %d", got, SampleRate)
	}
	if got := binary.LittleEndian.Uint16(data[22:24]); got != 1 {
		t.Errorf("channels = %d, want 1", got)
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); got != uint32(2*len(samples)) {
		t.Errorf("data size = %d, want %d", got, 2*len(samples))
	}

	// full-scale samples clip to int16 range
	if got := int16(binary.LittleEndian.Uint16(data[44+6 : 44+8])); got != 32767 {
		t.Errorf("sample 3 = %d, want 32767", got)
	}
	if got := int16(binary.LittleEndian.Uint16(data[44+8 : 44+10])); got != -32767 {
		t.Errorf("sample 4 = %d, want -32767", got)
	}
}
