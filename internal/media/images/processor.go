package images

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
)

// maxImageSize caps uploaded image payloads.
const maxImageSize = 10 * 1024 * 1024 // 10MB

// Info describes a validated image.
type Info struct {
	Width    int
	Height   int
	Format   string // "jpeg", "png", "gif", "webp"
	Size     int64
	BlurHash string
}

// Processor validates uploaded images and computes display metadata.
type Processor struct {
	logger *slog.Logger
}

// NewProcessor creates a new Processor.
func NewProcessor(logger *slog.Logger) *Processor {
	return &Processor{logger: logger}
}

// Probe decodes only the image header and returns dimensions and format.
func Probe(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, fmt.Errorf("image data cannot be empty")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("decode image header: %w", err)
	}

	return Info{
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
		Size:   int64(len(data)),
	}, nil
}

// Process validates an uploaded image and returns its dimensions, format,
// and BlurHash placeholder. The hash is best-effort: a decode failure after
// a successful probe logs a warning and leaves it empty.
func (p *Processor) Process(data []byte) (Info, error) {
	if int64(len(data)) > maxImageSize {
		return Info{}, fmt.Errorf("image exceeds %d byte limit", maxImageSize)
	}

	info, err := Probe(data)
	if err != nil {
		return Info{}, err
	}

	hash, err := ComputeBlurHash(data)
	if err != nil {
		p.logger.Warn("failed to compute blurhash",
			"format", info.Format,
			"size", info.Size,
			"error", err,
		)
	} else {
		info.BlurHash = hash
	}

	return info, nil
}
