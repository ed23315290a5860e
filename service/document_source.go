package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"time"

	"github.com/Aashish23092/travel-document-verification/client"
	"github.com/Aashish23092/travel-document-verification/dto"
	"github.com/Aashish23092/travel-document-verification/metrics"
	"github.com/Aashish23092/travel-document-verification/pkg/logger"
)

// DocumentSource yields the OCR output of one uploaded document.
// Acquire is the only blocking step of an evaluation.
type DocumentSource interface {
	Acquire(ctx context.Context) (dto.RawDocument, error)
}

// StaticDocument is a document whose text was recognised upstream
type StaticDocument struct {
	Doc dto.RawDocument
}

func (s StaticDocument) Acquire(ctx context.Context) (dto.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return dto.RawDocument{}, err
	}
	return s.Doc, nil
}

// StaticSources wraps pre-recognised documents
func StaticSources(docs []dto.RawDocument) []DocumentSource {
	sources := make([]DocumentSource, len(docs))
	for i, doc := range docs {
		sources[i] = StaticDocument{Doc: doc}
	}
	return sources
}

// BarcodeDecoder reads 2D barcodes from images
type BarcodeDecoder interface {
	DecodeBytes(data []byte) (string, error)
	Decode(img image.Image) (string, error)
}

// DocumentReader turns uploaded bytes into raw documents using the
// configured OCR engine, barcode decoder and PDF processor.
type DocumentReader struct {
	engine   client.OCREngine
	barcodes BarcodeDecoder
	pdf      PDFProcessor
	metrics  *metrics.Metrics
}

func NewDocumentReader(engine client.OCREngine, barcodes BarcodeDecoder, pdf PDFProcessor, m *metrics.Metrics) *DocumentReader {
	return &DocumentReader{
		engine:   engine,
		barcodes: barcodes,
		pdf:      pdf,
		metrics:  m,
	}
}

// Source wraps one uploaded file. barcodeText, when set, is barcode text the
// client already decoded and wins over anything found in the image.
func (r *DocumentReader) Source(name string, data []byte, barcodeText string) DocumentSource {
	return &ImageDocument{Name: name, Data: data, BarcodeText: barcodeText, reader: r}
}

// ImageDocument is an uploaded image or PDF
type ImageDocument struct {
	Name        string
	Data        []byte
	BarcodeText string

	reader *DocumentReader
}

func (d *ImageDocument) Acquire(ctx context.Context) (dto.RawDocument, error) {
	start := time.Now()
	doc, err := d.acquire(ctx)

	outcome := "ok"
	switch {
	case err != nil && ctx.Err() != nil:
		outcome = "timeout"
	case err != nil:
		outcome = "error"
	case len(doc.OCRText) == 0:
		outcome = "empty"
	}
	d.reader.metrics.ObserveOCRLatency(outcome, time.Since(start))
	return doc, err
}

func (d *ImageDocument) acquire(ctx context.Context) (dto.RawDocument, error) {
	doc := dto.RawDocument{
		OCRText:             []string{},
		OCRTokenConfidences: map[string]float64{},
		DecodedBarcodeText:  d.BarcodeText,
	}

	if IsPDF(d.Data) && d.reader.pdf != nil {
		return d.acquirePDF(ctx, doc)
	}

	if err := d.recognize(ctx, d.Data, &doc); err != nil {
		return dto.RawDocument{}, err
	}
	if doc.DecodedBarcodeText == "" && d.reader.barcodes != nil {
		text, err := d.reader.barcodes.DecodeBytes(d.Data)
		d.keepBarcode(ctx, text, err, &doc)
	}
	return doc, nil
}

func (d *ImageDocument) acquirePDF(ctx context.Context, doc dto.RawDocument) (dto.RawDocument, error) {
	lines, err := d.reader.pdf.ExtractText(d.Data)
	if err != nil {
		logger.Warn(ctx, "pdf text layer unreadable", "document", d.Name, "error", err)
	}
	if len(lines) > 0 {
		doc.OCRText = lines
		// the text layer carries no recognition confidence
		doc.OCRTokenConfidences = nil
		return doc, nil
	}

	// scanned PDF: OCR every page image
	images, err := d.reader.pdf.ExtractImages(d.Data)
	if err != nil {
		return dto.RawDocument{}, fmt.Errorf("failed to read pdf %s: %w", d.Name, err)
	}
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return dto.RawDocument{}, err
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			logger.Warn(ctx, "failed to encode pdf page", "document", d.Name, "page", i+1, "error", err)
			continue
		}
		if err := d.recognize(ctx, buf.Bytes(), &doc); err != nil {
			return dto.RawDocument{}, fmt.Errorf("page %d: %w", i+1, err)
		}
		if doc.DecodedBarcodeText == "" && d.reader.barcodes != nil {
			text, err := d.reader.barcodes.Decode(img)
			d.keepBarcode(ctx, text, err, &doc)
		}
	}
	return doc, nil
}

// recognize appends the engine output for one image to doc. An image with no
// text contributes nothing and is not an error.
func (d *ImageDocument) recognize(ctx context.Context, data []byte, doc *dto.RawDocument) error {
	if d.reader.engine == nil {
		return errors.New("no ocr engine configured")
	}
	result, err := d.reader.engine.Recognize(ctx, data)
	if errors.Is(err, client.ErrNoText) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("ocr failed for %s: %w", d.Name, err)
	}

	doc.OCRText = append(doc.OCRText, result.Lines...)
	for token, c := range result.TokenConfidences {
		if prev, ok := doc.OCRTokenConfidences[token]; !ok || c < prev {
			doc.OCRTokenConfidences[token] = c
		}
	}
	return nil
}

// keepBarcode records decoded barcode text; a missing or unreadable barcode never fails the document
func (d *ImageDocument) keepBarcode(ctx context.Context, text string, err error, doc *dto.RawDocument) {
	if err != nil {
		if !errors.Is(err, client.ErrNoBarcode) {
			logger.Debug(ctx, "barcode decode failed", "document", d.Name, "error", err)
		}
		return
	}
	doc.DecodedBarcodeText = text
}
