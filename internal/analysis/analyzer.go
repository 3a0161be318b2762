package analysis

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/leaf-tools-mcp/internal/imaging"
)

// Options control how the derived images are rendered and encoded.
type Options struct {
	// Format is the encoding of both derived images. Default PNG.
	Format imaging.Format

	// EdgeStyle selects dark (default) or light edge maps.
	EdgeStyle imaging.EdgeStyle
}

// DefaultOptions returns PNG output with a black-background edge map.
func DefaultOptions() Options {
	return Options{
		Format:    imaging.DefaultFormat,
		EdgeStyle: imaging.DefaultEdgeStyle,
	}
}

// Analyzer runs the filtering and scoring pipeline over one image at a time.
// An Analyzer holds no per-request state and is safe for concurrent use.
type Analyzer struct {
	codec      imaging.Codec
	opts       Options
	classifier Classifier
	debug      bool
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithCodec replaces the default StdCodec.
func WithCodec(c imaging.Codec) Option {
	return func(a *Analyzer) { a.codec = c }
}

// WithOptions sets the rendering options.
func WithOptions(o Options) Option {
	return func(a *Analyzer) { a.opts = o }
}

// WithClassifier runs c alongside the filters on every analysis.
func WithClassifier(c Classifier) Option {
	return func(a *Analyzer) { a.classifier = c }
}

// WithDebug enables per-stage debug logging.
func WithDebug(debug bool) Option {
	return func(a *Analyzer) { a.debug = debug }
}

// New creates an Analyzer. Without options it uses imaging.NewStdCodec and
// DefaultOptions and runs no classifier.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		codec: imaging.NewStdCodec(),
		opts:  DefaultOptions(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Options returns the analyzer's rendering options.
func (a *Analyzer) Options() Options {
	return a.opts
}

// Analyze decodes input once and produces the edge map, the thermogram and
// both scores.
//
// The input is either encoded image bytes or a base64 data URI. After one
// decode and one luma reduction, two branches run concurrently and share
// only the read-only luma grid:
//
//   - edge branch: Gradient -> RenderEdges -> encode, EdgeScore
//   - thermogram branch: Colorize -> encode, BrightnessScore
//
// A configured Classifier runs as a third branch on the raw input. All
// branches are joined before returning.
//
// # Errors
//
//   - *imaging.DecodeError if the input cannot be decoded
//   - ctx.Err() if ctx is done before the result is complete; no partial
//     result is ever returned
//   - the classifier's error, if it fails
func (a *Analyzer) Analyze(ctx context.Context, input []byte) (*Result, error) {
	grid, err := a.decode(ctx, input)
	if err != nil {
		return nil, err
	}
	if a.debug {
		log.Printf("analysis: decoded %dx%d image", grid.Width, grid.Height)
	}

	luma := imaging.ToLuma(grid)

	res := &Result{
		Width:    grid.Width,
		Height:   grid.Height,
		MimeType: imaging.MimeType(a.opts.Format),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		edge, score, err := a.edgeBranch(gctx, luma)
		if err != nil {
			return err
		}
		res.EdgeImage = edge
		res.EdgeScore = score
		return nil
	})

	g.Go(func() error {
		thermo, score, err := a.thermogramBranch(gctx, luma)
		if err != nil {
			return err
		}
		res.ThermogramImage = thermo
		res.BrightnessScore = score
		return nil
	})

	if a.classifier != nil {
		g.Go(func() error {
			d, err := a.classifier.Classify(gctx, input)
			if err != nil {
				return fmt.Errorf("failed to classify leaf: %w", err)
			}
			res.Diagnosis = d
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	// A cancellation that lands after the last branch finished still
	// discards the result.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if a.debug {
		log.Printf("analysis: edge score %.2f, brightness score %.2f", res.EdgeScore, res.BrightnessScore)
	}
	return res, nil
}

func (a *Analyzer) edgeBranch(ctx context.Context, luma *imaging.LumaGrid) ([]byte, imaging.Score, error) {
	grad := imaging.Gradient(luma)
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	score := imaging.EdgeScore(grad)

	img, err := a.codec.Encode(imaging.RenderEdges(grad, a.opts.EdgeStyle), a.opts.Format)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode edge map: %w", err)
	}
	return img, score, nil
}

func (a *Analyzer) thermogramBranch(ctx context.Context, luma *imaging.LumaGrid) ([]byte, imaging.Score, error) {
	score := imaging.BrightnessScore(luma)
	thermo := imaging.Colorize(luma)
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	img, err := a.codec.Encode(thermo, a.opts.Format)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode thermogram: %w", err)
	}
	return img, score, nil
}

// EdgeMap runs only the edge branch. Like Analyze it returns ctx.Err() and
// no result once ctx is done.
func (a *Analyzer) EdgeMap(ctx context.Context, input []byte) (*EdgeResult, error) {
	grid, err := a.decode(ctx, input)
	if err != nil {
		return nil, err
	}
	img, score, err := a.edgeBranch(ctx, imaging.ToLuma(grid))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &EdgeResult{
		Width:    grid.Width,
		Height:   grid.Height,
		MimeType: imaging.MimeType(a.opts.Format),
		Image:    img,
		Score:    score,
	}, nil
}

// Thermogram runs only the thermogram branch.
func (a *Analyzer) Thermogram(ctx context.Context, input []byte) (*ThermogramResult, error) {
	grid, err := a.decode(ctx, input)
	if err != nil {
		return nil, err
	}
	img, score, err := a.thermogramBranch(ctx, imaging.ToLuma(grid))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &ThermogramResult{
		Width:           grid.Width,
		Height:          grid.Height,
		MimeType:        imaging.MimeType(a.opts.Format),
		Image:           img,
		BrightnessScore: score,
	}, nil
}

// Scores computes both scores without encoding any image.
func (a *Analyzer) Scores(ctx context.Context, input []byte) (*ScoresResult, error) {
	grid, err := a.decode(ctx, input)
	if err != nil {
		return nil, err
	}
	luma := imaging.ToLuma(grid)
	brightness := imaging.BrightnessScore(luma)
	grad := imaging.Gradient(luma)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &ScoresResult{
		Width:           grid.Width,
		Height:          grid.Height,
		EdgeScore:       imaging.EdgeScore(grad),
		BrightnessScore: brightness,
	}, nil
}

// decode checks ctx, decodes input, and checks ctx again.
func (a *Analyzer) decode(ctx context.Context, input []byte) (*imaging.PixelGrid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	grid, err := a.codec.Decode(input)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return grid, nil
}
