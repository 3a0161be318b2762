package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
)

// DefaultMaxUploadBytes is the upload limit the leaf analysis front end
// enforces (10 MiB).
const DefaultMaxUploadBytes int64 = 10 << 20

// ErrTooLarge is returned when an input exceeds the configured byte limit.
var ErrTooLarge = errors.New("image exceeds upload size limit")

// ReadLimited reads all of r, failing with ErrTooLarge once more than
// maxBytes have been read. A maxBytes <= 0 disables the limit.
func ReadLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxBytes)
	}
	return data, nil
}

// ReadImageFile loads the encoded bytes of an image file without decoding
// them.
//
// Parameters:
//   - path: Absolute or relative path to the file.
//   - maxBytes: Upload limit; files larger than this fail with ErrTooLarge.
//     Zero or negative disables the check.
//
// The file is checked with os.Stat first so an oversized file is rejected
// without being read.
func ReadImageFile(path string, maxBytes int64) ([]byte, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("failed to open image: %s is a directory", path)
	}
	if maxBytes > 0 && stat.Size() > maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, path, stat.Size(), maxBytes)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	data, err := ReadLimited(f, maxBytes)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}

// ImageInfo contains metadata about an encoded image.
//
// This struct provides essential information about an image without
// decoding its pixels.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the detected format: "png", "jpeg", "gif", "webp", "bmp" or
	// "tiff". Detection uses the file contents, not its name.
	Format string `json:"format"`

	// SizeBytes is the length of the encoded image.
	SizeBytes int64 `json:"size_bytes"`
}

// LoadImageInfo reads the header of an encoded image (raw bytes or a data
// URI) and returns its dimensions and format.
//
// # Errors
//
//   - Returns *DecodeError if the input is empty, a malformed data URI, or
//     not a recognized raster format
func LoadImageInfo(input []byte) (*ImageInfo, error) {
	raw, err := DecodeBytesOrDataURI(input)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, &DecodeError{Reason: "empty input"}
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, &DecodeError{Reason: "unrecognized or corrupt raster", Err: err}
	}

	return &ImageInfo{
		Width:     cfg.Width,
		Height:    cfg.Height,
		Format:    format,
		SizeBytes: int64(len(raw)),
	}, nil
}
