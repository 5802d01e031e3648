//nolint:lll
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MeKo-Tech/imgmerge/internal/export"
	"github.com/MeKo-Tech/imgmerge/internal/pdf"
)

// Config represents the complete configuration for the imgmerge application.
// It includes settings for all commands (export, queue, preview, serve) and
// supports loading from configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Queue persistence
	Queue QueueConfig `mapstructure:"queue" yaml:"queue" json:"queue"`

	// Encoder settings
	Export ExportConfig `mapstructure:"export" yaml:"export" json:"export"`

	// Preview thumbnails
	Preview PreviewConfig `mapstructure:"preview" yaml:"preview" json:"preview"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// QueueConfig contains settings for the persisted queue manifest.
type QueueConfig struct {
	Manifest  string `mapstructure:"manifest" yaml:"manifest" json:"manifest"`
	Recursive bool   `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
}

// ExportConfig contains encoder settings.
type ExportConfig struct {
	JPEGQuality      int    `mapstructure:"jpeg_quality" yaml:"jpeg_quality" json:"jpeg_quality"`
	FrameDelayMS     int    `mapstructure:"frame_delay_ms" yaml:"frame_delay_ms" json:"frame_delay_ms"`
	LoopCount        int    `mapstructure:"loop_count" yaml:"loop_count" json:"loop_count"`
	PDFPageEncoding  string `mapstructure:"pdf_page_encoding" yaml:"pdf_page_encoding" json:"pdf_page_encoding"`
	PDFJPEGQuality   int    `mapstructure:"pdf_jpeg_quality" yaml:"pdf_jpeg_quality" json:"pdf_jpeg_quality"`
	PDFUserPassword  string `mapstructure:"pdf_user_password" yaml:"pdf_user_password" json:"-"`
	PDFOwnerPassword string `mapstructure:"pdf_owner_password" yaml:"pdf_owner_password" json:"-"`
	Atomic           bool   `mapstructure:"atomic" yaml:"atomic" json:"atomic"`
}

// PreviewConfig contains the preview bounding box.
type PreviewConfig struct {
	MaxWidth  int `mapstructure:"max_width" yaml:"max_width" json:"max_width"`
	MaxHeight int `mapstructure:"max_height" yaml:"max_height" json:"max_height"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// DefaultManifestName is the queue manifest used when none is configured.
const DefaultManifestName = ".imgmerge-queue.yaml"

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	exp := export.DefaultOptions()
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Queue: QueueConfig{
			Manifest:  DefaultManifestName,
			Recursive: false,
		},
		Export: ExportConfig{
			JPEGQuality:     exp.JPEGQuality,
			FrameDelayMS:    int(exp.FrameDelay / time.Millisecond),
			LoopCount:       exp.LoopCount,
			PDFPageEncoding: string(exp.Document.Encoding),
			PDFJPEGQuality:  exp.Document.JPEGQuality,
			Atomic:          exp.Atomic,
		},
		Preview: PreviewConfig{
			MaxWidth:  400,
			MaxHeight: 400,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      60,
			ShutdownTimeout: 10,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if c.Export.PDFJPEGQuality < 1 || c.Export.PDFJPEGQuality > 100 {
		return fmt.Errorf("invalid pdf jpeg quality: %d (must be between 1 and 100)", c.Export.PDFJPEGQuality)
	}
	if err := c.ToExportOptions().Validate(); err != nil {
		return err
	}

	if c.Preview.MaxWidth <= 0 || c.Preview.MaxHeight <= 0 {
		return fmt.Errorf("invalid preview size: %dx%d (must be positive)", c.Preview.MaxWidth, c.Preview.MaxHeight)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("invalid shutdown timeout: %d (must not be negative)", c.Server.ShutdownTimeout)
	}

	return nil
}

// ToExportOptions converts the config to the encoder options used by the exporter.
func (c *Config) ToExportOptions() export.Options {
	return export.Options{
		JPEGQuality: c.Export.JPEGQuality,
		FrameDelay:  time.Duration(c.Export.FrameDelayMS) * time.Millisecond,
		LoopCount:   c.Export.LoopCount,
		Document: pdf.DocumentOptions{
			Encoding:      pdf.PageEncoding(strings.ToLower(c.Export.PDFPageEncoding)),
			JPEGQuality:   c.Export.PDFJPEGQuality,
			UserPassword:  c.Export.PDFUserPassword,
			OwnerPassword: c.Export.PDFOwnerPassword,
		},
		Atomic: c.Export.Atomic,
	}
}
