package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WEBP format decoder
)

// Format selects the raster encoding for derived images.
type Format = imaging.Format

// Supported output formats.
const (
	FormatPNG  = imaging.PNG
	FormatJPEG = imaging.JPEG
	FormatGIF  = imaging.GIF
	FormatBMP  = imaging.BMP
	FormatTIFF = imaging.TIFF
)

// DefaultFormat is lossless so that derived visualizations do not pick up
// compression artifacts on top of the filtering.
const DefaultFormat = FormatPNG

// DefaultJPEGQuality is used when JPEG output is selected without a quality.
const DefaultJPEGQuality = 90

var mimeTypes = map[Format]string{
	FormatPNG:  "image/png",
	FormatJPEG: "image/jpeg",
	FormatGIF:  "image/gif",
	FormatBMP:  "image/bmp",
	FormatTIFF: "image/tiff",
}

// ParseFormat maps a format name or file extension ("png", ".jpg", "jpeg",
// ...) to a Format. An empty name yields DefaultFormat.
func ParseFormat(name string) (Format, error) {
	if name == "" {
		return DefaultFormat, nil
	}
	f, err := imaging.FormatFromExtension(strings.ToLower(name))
	if err != nil {
		return -1, fmt.Errorf("unsupported output format %q", name)
	}
	return f, nil
}

// MimeType returns the MIME type for an output format.
func MimeType(f Format) string {
	if m, ok := mimeTypes[f]; ok {
		return m
	}
	return "application/octet-stream"
}

// DecodeError reports that an input could not be turned into a PixelGrid:
// it was empty, not a recognized raster format, truncated or corrupt, or a
// malformed data URI. Retrying the same input cannot succeed.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to decode image: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("failed to decode image: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err is, or wraps, a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// Codec converts between encoded rasters and PixelGrids.
//
// Implementations must be safe for concurrent use. The algorithmic stages in
// this package never touch a Codec; only the adapter boundary does.
type Codec interface {
	// Decode accepts encoded image bytes or a base64 data URI.
	Decode(input []byte) (*PixelGrid, error)

	// Encode writes grid in the requested format.
	Encode(grid *PixelGrid, format Format) ([]byte, error)
}

// StdCodec is the Codec backed by the Go image registry through
// disintegration/imaging. It decodes PNG, JPEG, GIF, BMP, TIFF and WEBP.
type StdCodec struct {
	// AutoOrient applies the EXIF orientation tag of JPEG input, the way
	// browsers do when drawing a photo.
	AutoOrient bool

	// JPEGQuality is the quality (1-100) used for JPEG output.
	JPEGQuality int
}

// NewStdCodec returns a StdCodec with auto-orientation on and the default
// JPEG quality.
func NewStdCodec() *StdCodec {
	return &StdCodec{
		AutoOrient:  true,
		JPEGQuality: DefaultJPEGQuality,
	}
}

// Decode turns encoded bytes or a data URI into a PixelGrid.
//
// All failures are reported as *DecodeError; no partial grid is returned.
func (c *StdCodec) Decode(input []byte) (*PixelGrid, error) {
	raw, err := DecodeBytesOrDataURI(input)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, &DecodeError{Reason: "empty input"}
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(c.AutoOrient))
	if err != nil {
		return nil, &DecodeError{Reason: "unrecognized or corrupt raster", Err: err}
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &DecodeError{Reason: fmt.Sprintf("zero-area image (%dx%d)", b.Dx(), b.Dy())}
	}

	return PixelGridFromImage(img), nil
}

// Encode writes grid in the requested format.
func (c *StdCodec) Encode(grid *PixelGrid, format Format) ([]byte, error) {
	if len(grid.Pix) != 4*grid.Len() {
		return nil, fmt.Errorf("malformed grid: %d samples for %dx%d", len(grid.Pix), grid.Width, grid.Height)
	}

	quality := c.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	buf := acquireBuffer()
	defer releaseBuffer(buf)

	if err := imaging.Encode(buf, grid.NRGBA(), format, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode %s image: %w", format, err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

// Encode buffers are pooled across calls. A buffer is only ever held for the
// duration of one Encode.
var bufferPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// maxPooledBuffer keeps a single huge image from pinning memory in the pool.
const maxPooledBuffer = 16 << 20

func acquireBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func releaseBuffer(buf *bytes.Buffer) {
	if buf.Cap() > maxPooledBuffer {
		return
	}
	bufferPool.Put(buf)
}
