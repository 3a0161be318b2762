// Package httpapi serves the leaf analysis pipeline over HTTP.
//
// Routes:
//
//	POST /v1/analyze  image upload -> edge map, thermogram, scores
//	GET  /healthz     liveness
//	GET  /metrics     Prometheus metrics
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ironsheep/leaf-tools-mcp/internal/analysis"
	"github.com/ironsheep/leaf-tools-mcp/internal/config"
	"github.com/ironsheep/leaf-tools-mcp/internal/imaging"
)

// multipartOverhead is the slack allowed on top of the upload limit for
// multipart boundaries and headers.
const multipartOverhead = 1 << 20

// API is the HTTP front end. Create it with New.
type API struct {
	cfg      *config.Config
	analyzer *analysis.Analyzer
	metrics  *metrics
	engine   *gin.Engine
}

// AnalyzeResponse is the JSON body returned by POST /v1/analyze.
type AnalyzeResponse struct {
	ID              string  `json:"id"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	MimeType        string  `json:"mime_type"`
	EdgeImage       string  `json:"edge_image"`
	ThermogramImage string  `json:"thermogram_image"`
	EdgeScore       float64 `json:"edge_score"`
	BrightnessScore float64 `json:"brightness_score"`
}

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// New builds the API and its gin engine. A nil cfg uses config.Default.
// The gin mode is process-wide and left to the caller.
func New(cfg *config.Config) *API {
	if cfg == nil {
		cfg = config.Default()
	}

	reg := prometheus.NewRegistry()
	a := &API{
		cfg:      cfg,
		analyzer: cfg.Analyzer(),
		metrics:  newMetrics(reg),
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		gin.LoggerWithWriter(gin.DefaultWriter, "/healthz", "/metrics"),
	)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	r.POST("/v1/analyze", a.handleAnalyze)

	a.engine = r
	return a
}

// Handler returns the underlying http.Handler.
func (a *API) Handler() http.Handler {
	return a.engine
}

// Run serves on cfg.HTTPAddr until ctx is done, then shuts down gracefully.
func (a *API) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP API server on %s...", a.cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP API server failed on %s: %w", a.cfg.HTTPAddr, err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP API server: %w", err)
	}
	return <-errCh
}

func (a *API) handleAnalyze(c *gin.Context) {
	start := time.Now()

	an, err := a.analyzerFor(c)
	if err != nil {
		a.fail(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	data, status, err := a.readUpload(c)
	if err != nil {
		a.fail(c, status, outcomeFor(status), err)
		return
	}

	res, err := an.Analyze(c.Request.Context(), data)
	if err != nil {
		switch {
		case imaging.IsDecodeError(err):
			a.fail(c, http.StatusBadRequest, "decode_error", err)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			a.fail(c, http.StatusServiceUnavailable, "cancelled", err)
		default:
			a.fail(c, http.StatusInternalServerError, "error", err)
		}
		return
	}

	a.metrics.observe("ok", time.Since(start))
	a.metrics.edgeScore.Observe(res.EdgeScore)
	a.metrics.brightnessScore.Observe(res.BrightnessScore)

	c.JSON(http.StatusOK, AnalyzeResponse{
		ID:              uuid.NewString(),
		Width:           res.Width,
		Height:          res.Height,
		MimeType:        res.MimeType,
		EdgeImage:       res.EdgeImageDataURI(),
		ThermogramImage: res.ThermogramImageDataURI(),
		EdgeScore:       res.EdgeScore,
		BrightnessScore: res.BrightnessScore,
	})
}

// analyzerFor applies the optional ?format= and ?style= query overrides.
func (a *API) analyzerFor(c *gin.Context) (*analysis.Analyzer, error) {
	format, style := c.Query("format"), c.Query("style")
	if format == "" && style == "" {
		return a.analyzer, nil
	}
	opts := a.analyzer.Options()
	if format != "" {
		f, err := imaging.ParseFormat(format)
		if err != nil {
			return nil, err
		}
		opts.Format = f
	}
	if style != "" {
		s, err := imaging.ParseEdgeStyle(style)
		if err != nil {
			return nil, err
		}
		opts.EdgeStyle = s
	}
	return a.cfg.Analyzer(analysis.WithOptions(opts)), nil
}

// readUpload extracts the encoded image from a multipart "image" field or
// from the raw body (image bytes or a data URI). It returns the HTTP status
// to use on failure.
func (a *API) readUpload(c *gin.Context) ([]byte, int, error) {
	limit := a.cfg.MaxUploadBytes

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)
		fh, err := c.FormFile("image")
		if err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				return nil, http.StatusRequestEntityTooLarge, imaging.ErrTooLarge
			}
			return nil, http.StatusBadRequest, fmt.Errorf("missing multipart field \"image\": %w", err)
		}
		if fh.Size > limit {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("%w: %d bytes, limit %d", imaging.ErrTooLarge, fh.Size, limit)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, http.StatusBadRequest, fmt.Errorf("failed to open upload: %w", err)
		}
		defer f.Close()
		data, err := imaging.ReadLimited(f, limit)
		if err != nil {
			return nil, statusForReadError(err), err
		}
		return data, 0, nil
	}

	// A data URI is base64, a third larger than the bytes it carries.
	body, err := imaging.ReadLimited(c.Request.Body, limit/3*4+4096)
	if err != nil {
		return nil, statusForReadError(err), err
	}
	data, err := imaging.DecodeBytesOrDataURI(body)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	if int64(len(data)) > limit {
		return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("%w: %d bytes, limit %d", imaging.ErrTooLarge, len(data), limit)
	}
	return data, 0, nil
}

func statusForReadError(err error) int {
	if errors.Is(err, imaging.ErrTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func outcomeFor(status int) string {
	if status == http.StatusRequestEntityTooLarge {
		return "too_large"
	}
	return "bad_request"
}

func (a *API) fail(c *gin.Context, status int, outcome string, err error) {
	a.metrics.observe(outcome, 0)
	if a.cfg.Debug || status >= http.StatusInternalServerError {
		log.Printf("analyze failed (%d): %v", status, err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error()})
}
