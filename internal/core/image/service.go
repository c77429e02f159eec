package image

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"strings"

	_ "image/gif"  // 支援 GIF
	_ "image/jpeg" // 支援 JPEG
	_ "image/png"  // 支援 PNG

	_ "golang.org/x/image/webp" // 支援 WebP

	"pantry-matcher/internal/pkg/common"
)

// DefaultMaxSizeBytes 單張圖片大小上限
const DefaultMaxSizeBytes = 10 << 20

// Service 圖片解碼服務
type Service struct {
	maxSizeBytes int64
}

// NewService 創建新的圖片處理服務
func NewService(maxSizeBytes int64) *Service {
	if maxSizeBytes <= 0 {
		maxSizeBytes = DefaultMaxSizeBytes
	}
	return &Service{maxSizeBytes: maxSizeBytes}
}

// Decode 解碼原始圖片位元組
func (s *Service) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, common.ErrInvalidInput.WithMessage("image data is empty")
	}
	if int64(len(data)) > s.maxSizeBytes {
		return nil, common.ErrInvalidInput.WithMessage(fmt.Sprintf("image size exceeds maximum limit of %d bytes", s.maxSizeBytes))
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, common.ErrInvalidInput.WithMessage("failed to decode image").Wrap(err)
	}
	if !isSupportedFormat(format) {
		return nil, common.ErrInvalidInput.WithMessage(fmt.Sprintf("unsupported image format: %s", format))
	}
	return img, nil
}

// DecodeDataURL 解碼 data:image/...;base64, 格式或純 base64 字串
func (s *Service) DecodeDataURL(imageData string) (image.Image, error) {
	payload := strings.TrimSpace(imageData)
	if strings.HasPrefix(payload, "data:image/") {
		parts := strings.SplitN(payload, ",", 2)
		if len(parts) != 2 {
			return nil, common.ErrInvalidInput.WithMessage("invalid base64 data format")
		}
		payload = parts[1]
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, common.ErrInvalidInput.WithMessage("failed to decode base64 data").Wrap(err)
	}
	return s.Decode(decoded)
}

// Threshold 轉灰階後二值化，條碼辨識失敗時的第二次嘗試
func Threshold(img image.Image, level uint8) image.Image {
	b := img.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			if g.Y > level {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out
}

// isSupportedFormat 檢查圖片格式是否支援
func isSupportedFormat(format string) bool {
	supportedFormats := map[string]bool{
		"jpeg": true,
		"png":  true,
		"gif":  true,
		"webp": true,
	}
	return supportedFormats[format]
}
