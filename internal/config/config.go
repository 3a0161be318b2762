// Package config loads runtime settings from the environment, with an
// optional .env file in the working directory.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ironsheep/leaf-tools-mcp/internal/analysis"
	"github.com/ironsheep/leaf-tools-mcp/internal/imaging"
)

// Environment variable names.
const (
	EnvLogLevel       = "LEAF_MCP_LOG_LEVEL"
	EnvMaxUploadBytes = "LEAF_MCP_MAX_UPLOAD_BYTES"
	EnvOutputFormat   = "LEAF_MCP_OUTPUT_FORMAT"
	EnvJPEGQuality    = "LEAF_MCP_JPEG_QUALITY"
	EnvEdgeStyle      = "LEAF_MCP_EDGE_STYLE"
	EnvHTTPAddr       = "LEAF_MCP_HTTP_ADDR"
)

// DefaultHTTPAddr is the listen address of the HTTP API.
const DefaultHTTPAddr = ":8080"

// Config holds the settings shared by every command.
type Config struct {
	// Debug enables debug logging (LEAF_MCP_LOG_LEVEL=debug).
	Debug bool

	// MaxUploadBytes bounds the size of an accepted image.
	MaxUploadBytes int64

	// OutputFormat is the encoding of derived images.
	OutputFormat imaging.Format

	// JPEGQuality applies when OutputFormat is JPEG.
	JPEGQuality int

	// EdgeStyle selects dark or light edge maps.
	EdgeStyle imaging.EdgeStyle

	// HTTPAddr is the listen address for the http command.
	HTTPAddr string
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		MaxUploadBytes: imaging.DefaultMaxUploadBytes,
		OutputFormat:   imaging.DefaultFormat,
		JPEGQuality:    imaging.DefaultJPEGQuality,
		EdgeStyle:      imaging.DefaultEdgeStyle,
		HTTPAddr:       DefaultHTTPAddr,
	}
}

// LoadDotEnv loads ./.env into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Ignoring .env: %v", err)
	}
}

// Load builds a Config from the environment on top of Default.
func Load() (*Config, error) {
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config using lookup to read variables.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if v, ok := lookup(EnvLogLevel); ok {
		cfg.Debug = strings.EqualFold(strings.TrimSpace(v), "debug")
	}

	if v, ok := lookup(EnvMaxUploadBytes); ok && v != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%s: want a positive byte count, got %q", EnvMaxUploadBytes, v)
		}
		cfg.MaxUploadBytes = n
	}

	if v, ok := lookup(EnvOutputFormat); ok && v != "" {
		f, err := imaging.ParseFormat(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvOutputFormat, err)
		}
		cfg.OutputFormat = f
	}

	if v, ok := lookup(EnvJPEGQuality); ok && v != "" {
		q, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || q < 1 || q > 100 {
			return nil, fmt.Errorf("%s: want 1-100, got %q", EnvJPEGQuality, v)
		}
		cfg.JPEGQuality = q
	}

	if v, ok := lookup(EnvEdgeStyle); ok && v != "" {
		s, err := imaging.ParseEdgeStyle(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvEdgeStyle, err)
		}
		cfg.EdgeStyle = s
	}

	if v, ok := lookup(EnvHTTPAddr); ok && v != "" {
		cfg.HTTPAddr = strings.TrimSpace(v)
	}

	return cfg, nil
}

// Codec returns the StdCodec these settings describe.
func (c *Config) Codec() *imaging.StdCodec {
	codec := imaging.NewStdCodec()
	codec.JPEGQuality = c.JPEGQuality
	return codec
}

// Analyzer returns an Analyzer wired with these settings.
func (c *Config) Analyzer(opts ...analysis.Option) *analysis.Analyzer {
	base := []analysis.Option{
		analysis.WithCodec(c.Codec()),
		analysis.WithOptions(analysis.Options{
			Format:    c.OutputFormat,
			EdgeStyle: c.EdgeStyle,
		}),
		analysis.WithDebug(c.Debug),
	}
	return analysis.New(append(base, opts...)...)
}
