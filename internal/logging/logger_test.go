package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func resetState() {
	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	isInitialized = false
	globalConfig = Config{}
	logBuffer = nil
	logCallback = nil
	mutex.Unlock()
}

func TestModuleLevelOverride(t *testing.T) {
	resetState()

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"camera": "debug",
			"mjpeg":  "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"camera", true, true, true},
		{"mjpeg", false, false, true},
		{"pipeline", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			logger := GetLogger(tt.module)
			handler := logger.Handler()

			gotDebug := handler.Enabled(context.Background(), slog.LevelDebug)
			gotInfo := handler.Enabled(context.Background(), slog.LevelInfo)
			gotWarn := handler.Enabled(context.Background(), slog.LevelWarn)

			if gotDebug != tt.wantDebug {
				t.Errorf("module %q: Debug enabled = %v, want %v", tt.module, gotDebug, tt.wantDebug)
			}
			if gotInfo != tt.wantInfo {
				t.Errorf("module %q: Info enabled = %v, want %v", tt.module, gotInfo, tt.wantInfo)
			}
			if gotWarn != tt.wantWarn {
				t.Errorf("module %q: Warn enabled = %v, want %v", tt.module, gotWarn, tt.wantWarn)
			}
		})
	}
}

func TestSetModuleLevels(t *testing.T) {
	resetState()

	Initialize(Config{Level: "info", Format: "text"})

	logger := GetLogger("camera")
	if logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("camera should start at info level")
	}

	SetModuleLevels(map[string]string{"camera": "debug"})

	if !logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("camera should accept debug after SetModuleLevels")
	}

	// Reverting to an empty map falls back to the global level
	SetModuleLevels(nil)
	if logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("camera should be back at info after override removed")
	}
}

func TestMultiHandlerDebugOutput(t *testing.T) {
	var buf bytes.Buffer

	debugHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	infoHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	multi := NewMultiHandler(debugHandler, infoHandler)
	logger := slog.New(multi).With("module", "test")

	logger.Debug("debug only message")

	output := buf.String()
	if !strings.Contains(output, "debug only message") {
		t.Errorf("Debug message not written via MultiHandler. Output: %s", output)
	}

	// Only the debug handler should have accepted it
	count := strings.Count(output, "debug only message")
	if count != 1 {
		t.Errorf("Expected 1 debug message, got %d. Output: %s", count, output)
	}
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	resetState()

	loggerBefore := GetLogger("camera")
	handlerBefore := loggerBefore.Handler()

	// Defaults to info before Initialize
	if handlerBefore.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Logger created before Initialize should NOT have debug enabled")
	}

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"camera": "debug",
		},
	})

	loggerAfter := GetLogger("camera")

	// Loggers are cached; Initialize updates the shared LevelVar
	if loggerBefore != loggerAfter {
		t.Error("Logger should be cached - same pointer before and after Initialize")
	}

	if !handlerBefore.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Cached logger should have debug enabled after Initialize updates LevelVar")
	}
}

func TestBufferHandlerCapturesEntries(t *testing.T) {
	resetState()

	Initialize(Config{Level: "info", Format: "text"})

	logger := GetLogger("camera")
	logger.Info("capture started", "device", "/dev/video0")
	logger.Warn("frame dropped")

	buffer := GetBuffer()
	if buffer == nil {
		t.Fatal("ring buffer not created by Initialize")
	}

	entries := buffer.ReadAll()
	if len(entries) < 2 {
		t.Fatalf("expected at least 2 entries, got %d", len(entries))
	}

	var found bool
	for _, e := range entries {
		if e.Message == "capture started" {
			found = true
			if e.Module != "camera" {
				t.Errorf("entry module = %q, want %q", e.Module, "camera")
			}
			if e.Level != "info" {
				t.Errorf("entry level = %q, want %q", e.Level, "info")
			}
			if e.Attributes["device"] != "/dev/video0" {
				t.Errorf("entry device attr = %v, want /dev/video0", e.Attributes["device"])
			}
		}
	}
	if !found {
		t.Error("capture started entry not found in ring buffer")
	}
}

func TestLogCallbackInvoked(t *testing.T) {
	resetState()

	Initialize(Config{Level: "info", Format: "text"})

	got := make([]LogEntry, 0, 1)
	SetLogCallback(func(entry LogEntry) {
		got = append(got, entry)
	})

	GetLogger("mjpeg").Info("viewer connected", "remote", "10.0.0.2:55000")

	if len(got) == 0 {
		t.Fatal("callback not invoked for new log entry")
	}
	if got[len(got)-1].Message != "viewer connected" {
		t.Errorf("callback entry message = %q", got[len(got)-1].Message)
	}
}

func TestRingBufferWraparound(t *testing.T) {
	rb := NewRingBuffer(3)

	for i := 0; i < 5; i++ {
		rb.Write(LogEntry{Message: string(rune('a' + i))})
	}

	entries := rb.ReadAll()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries after wraparound, got %d", len(entries))
	}

	// Oldest two were overwritten; order is chronological
	want := []string{"c", "d", "e"}
	for i, e := range entries {
		if e.Message != want[i] {
			t.Errorf("entry %d = %q, want %q", i, e.Message, want[i])
		}
	}
}

func TestFormatLogLine(t *testing.T) {
	entry := LogEntry{
		Level:   "warn",
		Module:  "camera",
		Message: "frame dropped",
		Attributes: map[string]any{
			"sequence": 42,
			"device":   "/dev/video0",
		},
	}

	line := FormatLogLine(entry)

	if !strings.Contains(line, "[WARN] [camera] frame dropped") {
		t.Errorf("formatted line missing level/module/message: %s", line)
	}
	// Attributes are sorted by key
	if !strings.Contains(line, "device=/dev/video0 sequence=42") {
		t.Errorf("formatted line attrs wrong or unsorted: %s", line)
	}
}

func TestParseLevelValues(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		isNil bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"invalid", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input)
			if tt.isNil {
				if got != nil {
					t.Errorf("parseLevel(%q) = %v, want nil", tt.input, *got)
				}
			} else {
				if got == nil {
					t.Errorf("parseLevel(%q) = nil, want %v", tt.input, tt.want)
				} else if *got != tt.want {
					t.Errorf("parseLevel(%q) = %v, want %v", tt.input, *got, tt.want)
				}
			}
		})
	}
}
