package client

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// BarcodeClient decodes 2D barcodes printed on travel documents
// (QR codes on e-visas, DataMatrix on residence permits).
type BarcodeClient struct {
	readers []gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
}

func NewBarcodeClient() *BarcodeClient {
	return &BarcodeClient{
		readers: []gozxing.Reader{
			qrcode.NewQRCodeReader(),
			datamatrix.NewDataMatrixReader(),
		},
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

// DecodeBytes decodes an encoded image and reads the first barcode in it
func (b *BarcodeClient) DecodeBytes(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}
	return b.Decode(img)
}

// Decode returns the text of the first barcode any reader finds
func (b *BarcodeClient) Decode(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("failed to create bitmap: %w", err)
	}

	var errs []error
	for _, reader := range b.readers {
		result, err := reader.Decode(bmp, b.hints)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if text := result.GetText(); text != "" {
			return text, nil
		}
	}
	return "", fmt.Errorf("%w: %v", ErrNoBarcode, errors.Join(errs...))
}
