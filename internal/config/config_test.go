package config

import (
	"strings"
	"testing"
	"time"

	"github.com/MeKo-Tech/imgmerge/internal/pdf"
)

const (
	infoLevel  = "info"
	debugLevel = "debug"
)

// TestDefaultConfig verifies that DefaultConfig returns expected values.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogLevel != infoLevel {
		t.Errorf("Expected log_level '%s', got %s", infoLevel, cfg.LogLevel)
	}
	if cfg.Verbose {
		t.Error("Expected verbose to be false")
	}

	// Queue defaults
	if cfg.Queue.Manifest != DefaultManifestName {
		t.Errorf("Expected manifest %s, got %s", DefaultManifestName, cfg.Queue.Manifest)
	}

	// Export defaults
	if cfg.Export.JPEGQuality != 90 {
		t.Errorf("Expected jpeg_quality 90, got %d", cfg.Export.JPEGQuality)
	}
	if cfg.Export.FrameDelayMS != 500 {
		t.Errorf("Expected frame_delay_ms 500, got %d", cfg.Export.FrameDelayMS)
	}
	if cfg.Export.LoopCount != 0 {
		t.Errorf("Expected loop_count 0, got %d", cfg.Export.LoopCount)
	}
	if cfg.Export.PDFPageEncoding != "jpeg" {
		t.Errorf("Expected pdf_page_encoding 'jpeg', got %s", cfg.Export.PDFPageEncoding)
	}
	if !cfg.Export.Atomic {
		t.Error("Expected atomic writes to be enabled by default")
	}

	// Preview defaults
	if cfg.Preview.MaxWidth != 400 || cfg.Preview.MaxHeight != 400 {
		t.Errorf("Expected preview 400x400, got %dx%d", cfg.Preview.MaxWidth, cfg.Preview.MaxHeight)
	}

	// Server defaults
	if cfg.Server.Host != "localhost" {
		t.Errorf("Expected server host 'localhost', got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected server port 8080, got %d", cfg.Server.Port)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig() should be valid, got %v", err)
	}
}

// TestValidate covers every rejected setting.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"log level", func(c *Config) { c.LogLevel = "trace" }, "invalid log level"},
		{"jpeg quality", func(c *Config) { c.Export.JPEGQuality = 0 }, "invalid jpeg quality"},
		{"pdf jpeg quality", func(c *Config) { c.Export.PDFJPEGQuality = 150 }, "invalid pdf jpeg quality"},
		{"frame delay", func(c *Config) { c.Export.FrameDelayMS = 5 }, "invalid frame delay"},
		{"loop count", func(c *Config) { c.Export.LoopCount = -3 }, "invalid loop count"},
		{"page encoding", func(c *Config) { c.Export.PDFPageEncoding = "tiff" }, "invalid pdf page encoding"},
		{"preview size", func(c *Config) { c.Preview.MaxWidth = 0 }, "invalid preview size"},
		{"server port", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"upload size", func(c *Config) { c.Server.MaxUploadMB = 0 }, "invalid max upload size"},
		{"timeout", func(c *Config) { c.Server.TimeoutSec = -1 }, "invalid timeout"},
		{"shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = -1 }, "invalid shutdown timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

// TestToExportOptions verifies the conversion to encoder options.
func TestToExportOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Export.JPEGQuality = 75
	cfg.Export.FrameDelayMS = 250
	cfg.Export.LoopCount = 2
	cfg.Export.PDFPageEncoding = "PNG"
	cfg.Export.PDFUserPassword = "secret"
	cfg.Export.Atomic = false

	opts := cfg.ToExportOptions()
	if opts.JPEGQuality != 75 {
		t.Errorf("Expected JPEGQuality 75, got %d", opts.JPEGQuality)
	}
	if opts.FrameDelay != 250*time.Millisecond {
		t.Errorf("Expected FrameDelay 250ms, got %v", opts.FrameDelay)
	}
	if opts.LoopCount != 2 {
		t.Errorf("Expected LoopCount 2, got %d", opts.LoopCount)
	}
	if opts.Document.Encoding != pdf.PagePNG {
		t.Errorf("Expected page encoding png, got %s", opts.Document.Encoding)
	}
	if opts.Document.UserPassword != "secret" {
		t.Error("Expected user password to be passed through")
	}
	if opts.Atomic {
		t.Error("Expected Atomic to be false")
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("converted options should be valid, got %v", err)
	}
}
