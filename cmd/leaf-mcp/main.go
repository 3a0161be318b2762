package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ironsheep/leaf-tools-mcp/internal/analysis"
	"github.com/ironsheep/leaf-tools-mcp/internal/config"
	"github.com/ironsheep/leaf-tools-mcp/internal/httpapi"
	"github.com/ironsheep/leaf-tools-mcp/internal/imaging"
	"github.com/ironsheep/leaf-tools-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	config.LoadDotEnv()

	rootCmd := &cobra.Command{
		Use:   "leaf-tools-mcp",
		Short: "MCP server and tools for leaf image analysis",
		Long: `leaf-tools-mcp turns a leaf photo into a Sobel edge map, a false-color
thermogram, an edge score and a brightness score.

With no subcommand it runs the MCP server over stdin/stdout.

Environment variables:
  LEAF_MCP_LOG_LEVEL=debug         Enable debug logging
  LEAF_MCP_MAX_UPLOAD_BYTES        Largest accepted image (default 10485760)
  LEAF_MCP_OUTPUT_FORMAT           png or jpeg (default png)
  LEAF_MCP_JPEG_QUALITY            1-100 (default 90)
  LEAF_MCP_EDGE_STYLE              dark or light (default dark)
  LEAF_MCP_HTTP_ADDR               HTTP listen address (default :8080)`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdin/stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	var addr string
	httpCmd := &cobra.Command{
		Use:   "http [--addr <host:port>]",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHTTP(cmd.Context(), addr)
		},
	}
	httpCmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides LEAF_MCP_HTTP_ADDR)")

	var outDir, format, style string
	analyzeCmd := &cobra.Command{
		Use:   "analyze <image> [--out <dir>] [--format png|jpeg] [--style dark|light]",
		Short: "Analyze one image file and write its edge map and thermogram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), args[0], outDir, format, style)
		},
	}
	analyzeCmd.Flags().StringVar(&outDir, "out", ".", "Directory for the derived images")
	analyzeCmd.Flags().StringVar(&format, "format", "", "Output image format (png, jpeg)")
	analyzeCmd.Flags().StringVar(&style, "style", "", "Edge map style (dark, light)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("leaf-tools-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
		},
	}

	rootCmd.AddCommand(serveCmd, httpCmd, analyzeCmd, versionCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		log.Fatal(err)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Debug {
		log.Printf("Leaf MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}
	return cfg, nil
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	server.ServerVersion = Version
	if err := server.New(cfg).Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runHTTP(ctx context.Context, addr string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.HTTPAddr = addr
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	return httpapi.New(cfg).Run(ctx)
}

// analyzeOutput is printed to stdout by the analyze command.
type analyzeOutput struct {
	Input           string  `json:"input"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	EdgeScore       float64 `json:"edge_score"`
	BrightnessScore float64 `json:"brightness_score"`
	EdgeImage       string  `json:"edge_image"`
	ThermogramImage string  `json:"thermogram_image"`
}

func runAnalyze(ctx context.Context, path, outDir, format, style string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if format != "" {
		if cfg.OutputFormat, err = imaging.ParseFormat(format); err != nil {
			return err
		}
	}
	if style != "" {
		if cfg.EdgeStyle, err = imaging.ParseEdgeStyle(style); err != nil {
			return err
		}
	}

	data, err := imaging.ReadImageFile(path, cfg.MaxUploadBytes)
	if err != nil {
		return err
	}

	res, err := cfg.Analyzer().Analyze(ctx, data)
	if err != nil {
		return err
	}

	out := analyzeOutput{
		Input:           path,
		Width:           res.Width,
		Height:          res.Height,
		EdgeScore:       res.EdgeScore,
		BrightnessScore: res.BrightnessScore,
	}
	if out.EdgeImage, out.ThermogramImage, err = writeImages(res, path, outDir, cfg.OutputFormat); err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// writeImages saves the derived images as <name>_edges.<ext> and
// <name>_thermogram.<ext> in outDir.
func writeImages(res *analysis.Result, input, outDir string, format imaging.Format) (string, string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create output directory: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	ext := "." + strings.ToLower(format.String())

	edgePath := filepath.Join(outDir, base+"_edges"+ext)
	if err := os.WriteFile(edgePath, res.EdgeImage, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write edge map: %w", err)
	}
	thermoPath := filepath.Join(outDir, base+"_thermogram"+ext)
	if err := os.WriteFile(thermoPath, res.ThermogramImage, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write thermogram: %w", err)
	}
	return edgePath, thermoPath, nil
}
