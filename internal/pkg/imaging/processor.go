package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// ProcessedImage is an upload ready for storage: the canonical bytes, a
// square thumbnail and the derived metadata.
type ProcessedImage struct {
	Original             []byte
	OriginalContentType  string
	Thumbnail            []byte
	ThumbnailContentType string
	Format               string
	Width                int
	Height               int
	Bytes                int64
}

// Config for image processing
type Config struct {
	MaxWidth    int // Max width for original (default 4000)
	MaxHeight   int // Max height for original (default 4000)
	ThumbWidth  int // Thumbnail width (default 300)
	ThumbHeight int // Thumbnail height (default 300)
	Quality     int // JPEG quality 1-100 (default 85)
}

// DefaultConfig returns default processing config
func DefaultConfig() Config {
	return Config{
		MaxWidth:    4000,
		MaxHeight:   4000,
		ThumbWidth:  300,
		ThumbHeight: 300,
		Quality:     85,
	}
}

// Processor handles image processing
type Processor struct {
	config Config
}

// NewProcessor creates image processor
func NewProcessor(config Config) *Processor {
	return &Processor{config: config}
}

// Process decodes data, downsizes it when it exceeds the configured bounds
// and renders a center-cropped thumbnail. Originals within bounds are kept
// byte for byte.
func (p *Processor) Process(data []byte) (*ProcessedImage, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	result := &ProcessedImage{
		Original:            data,
		OriginalContentType: mimeFromFormat(format),
		Format:              format,
		Width:               img.Bounds().Dx(),
		Height:              img.Bounds().Dy(),
	}

	if result.Width > p.config.MaxWidth || result.Height > p.config.MaxHeight {
		resized := imaging.Fit(img, p.config.MaxWidth, p.config.MaxHeight, imaging.Lanczos)
		encoded, encodedFormat, err := p.encode(resized, format)
		if err != nil {
			return nil, fmt.Errorf("failed to encode original: %w", err)
		}
		result.Original = encoded
		result.Format = encodedFormat
		result.OriginalContentType = mimeFromFormat(encodedFormat)
		result.Width = resized.Bounds().Dx()
		result.Height = resized.Bounds().Dy()
	}
	result.Bytes = int64(len(result.Original))

	thumb := imaging.Fill(img, p.config.ThumbWidth, p.config.ThumbHeight, imaging.Center, imaging.Lanczos)
	thumbnail, thumbFormat, err := p.encode(thumb, format)
	if err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	result.Thumbnail = thumbnail
	result.ThumbnailContentType = mimeFromFormat(thumbFormat)

	return result, nil
}

// encode writes img as png when the source was png and as jpeg otherwise.
func (p *Processor) encode(img image.Image, format string) ([]byte, string, error) {
	var buf bytes.Buffer

	if format == "png" {
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "png", nil
	}

	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.config.Quality}); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "jpeg", nil
}

func mimeFromFormat(format string) string {
	switch format {
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
