package validate

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"melodist/internal/domain"

	"github.com/gabriel-vasile/mimetype"
)

var (
	AudioMIMEs = []string{"audio/mpeg", "audio/wav", "audio/x-wav", "audio/flac", "audio/x-flac"}
	CoverMIMEs = []string{"image/jpeg", "image/png"}
)

func matchesAny(m *mimetype.MIME, allowed []string) bool {
	for _, a := range allowed {
		if m.Is(a) {
			return true
		}
	}
	return false
}

// Audio sniffs r and returns the detected MIME type when it is an accepted audio format.
func Audio(r io.Reader, size int64) (string, error) {
	if size > domain.MaxAudioBytes {
		return "", domain.Invalid("audio", fmt.Sprintf("must be at most %d MB", domain.MaxAudioBytes>>20))
	}
	m, err := mimetype.DetectReader(r)
	if err != nil {
		return "", err
	}
	if !matchesAny(m, AudioMIMEs) {
		return "", domain.Invalid("audio", "unsupported type "+m.String())
	}
	return m.String(), nil
}

// Cover checks type and pixel dimensions of cover art. data is the whole file.
func Cover(data []byte) (string, error) {
	if len(data) > domain.MaxCoverBytes {
		return "", domain.Invalid("cover", fmt.Sprintf("must be at most %d MB", domain.MaxCoverBytes>>20))
	}
	m := mimetype.Detect(data)
	if !matchesAny(m, CoverMIMEs) {
		return "", domain.Invalid("cover", "unsupported type "+m.String())
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", domain.Invalid("cover", "unreadable image")
	}
	if cfg.Width < domain.MinCoverDimension || cfg.Height < domain.MinCoverDimension {
		return "", domain.Invalid("cover", fmt.Sprintf("must be at least %dx%d pixels, got %dx%d",
			domain.MinCoverDimension, domain.MinCoverDimension, cfg.Width, cfg.Height))
	}
	return m.String(), nil
}
