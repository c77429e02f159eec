// Package barcode 從圖片辨識一維條碼
package barcode

import (
	"image"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"

	imgsvc "pantry-matcher/internal/core/image"
	"pantry-matcher/internal/pkg/common"
)

// thresholdLevel 第二次嘗試時的二值化門檻
const thresholdLevel = 128

// Decoder 條碼辨識器
type Decoder struct {
	readers []gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
}

// NewDecoder 依序嘗試 UPC/EAN、Code128、Code39
func NewDecoder() *Decoder {
	return &Decoder{
		readers: []gozxing.Reader{
			oned.NewMultiFormatUPCEANReader(nil),
			oned.NewCode128Reader(),
			oned.NewCode39Reader(),
		},
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

// Decode 回傳條碼字串，辨識不到時回傳 ErrBarcodeNotFound
func (d *Decoder) Decode(img image.Image) (string, error) {
	if img == nil {
		return "", common.ErrBarcodeNotFound
	}
	if code, ok := d.decode(img); ok {
		return code, nil
	}
	// 二值化後再試一次
	if code, ok := d.decode(imgsvc.Threshold(img, thresholdLevel)); ok {
		return code, nil
	}
	return "", common.ErrBarcodeNotFound
}

func (d *Decoder) decode(img image.Image) (string, bool) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false
	}
	for _, r := range d.readers {
		res, err := r.Decode(bmp, d.hints)
		if err != nil {
			continue
		}
		if text := strings.TrimSpace(res.GetText()); text != "" {
			return text, true
		}
	}
	return "", false
}
