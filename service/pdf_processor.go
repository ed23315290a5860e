package service

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFProcessor reads scanned or exported travel documents delivered as PDF
type PDFProcessor interface {
	// ExtractText returns the embedded text layer, one line per text row
	ExtractText(pdfData []byte) ([]string, error)
	// ExtractImages returns the page images of a scanned PDF in page order
	ExtractImages(pdfData []byte) ([]image.Image, error)
}

type pdfProcessor struct{}

func NewPDFProcessor() PDFProcessor {
	return &pdfProcessor{}
}

// IsPDF sniffs the PDF magic number
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF"))
}

func (p *pdfProcessor) ExtractText(pdfData []byte) ([]string, error) {
	r, err := pdf.NewReader(bytes.NewReader(pdfData), int64(len(pdfData)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	var lines []string
	for pageIndex := 1; pageIndex <= r.NumPage(); pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", pageIndex, err)
		}
		for _, row := range rows {
			var line bytes.Buffer
			for _, word := range row.Content {
				line.WriteString(word.S)
			}
			if text := bytes.TrimSpace(line.Bytes()); len(text) > 0 {
				lines = append(lines, string(text))
			}
		}
	}
	return lines, nil
}

func (p *pdfProcessor) ExtractImages(pdfData []byte) ([]image.Image, error) {
	tempDir, err := os.MkdirTemp("", "traveldoc-pdf-images")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	pdfPath := filepath.Join(tempDir, "document.pdf")
	if err := os.WriteFile(pdfPath, pdfData, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write pdf data: %w", err)
	}

	outDir := filepath.Join(tempDir, "images")
	if err := os.Mkdir(outDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create image dir: %w", err)
	}

	// nil selects every page
	if err := api.ExtractImagesFile(pdfPath, outDir, nil, model.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("failed to extract images: %w", err)
	}

	files, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image dir: %w", err)
	}
	names := make([]string, 0, len(files))
	for _, file := range files {
		if !file.IsDir() {
			names = append(names, file.Name())
		}
	}
	// pdfcpu names images after their page, so name order is page order
	sort.Strings(names)

	var images []image.Image
	for _, name := range names {
		imgFile, err := os.Open(filepath.Join(outDir, name))
		if err != nil {
			continue
		}
		img, _, err := image.Decode(imgFile)
		imgFile.Close()
		if err != nil {
			continue
		}
		images = append(images, img)
	}
	return images, nil
}
