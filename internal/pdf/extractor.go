package pdf

import (
	"context"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/marginspect/marginspect/pkg/logger"
	"github.com/marginspect/marginspect/pkg/models"
)

// Extractor measures whitespace margins by rasterizing each page and
// scanning the pixels for the content bounding box. Scanning the rendered
// page rather than the text layer means drawings, images and rules count as
// content, not just text blocks.
type Extractor struct {
	path         string
	doc          *fitz.Document
	dims         []models.PageDims
	renderDPI    int
	inkThreshold float64
	logger       *logger.Logger
}

// NewExtractor validates the PDF with pdfcpu, reads the exact page
// dimensions in points, and opens the document for rendering. Any failure
// here is fatal for the whole run.
func NewExtractor(path string, renderDPI int, inkThreshold float64, log *logger.Logger) (*Extractor, error) {
	if err := api.ValidateFile(path, nil); err != nil {
		return nil, fmt.Errorf("not a valid PDF %s: %w", path, err)
	}

	pageDims, err := api.PageDimsFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions of %s: %w", path, err)
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %s: %w", path, err)
	}

	if doc.NumPage() != len(pageDims) {
		doc.Close()
		return nil, fmt.Errorf("page count mismatch in %s: renderer sees %d pages, parser sees %d",
			path, doc.NumPage(), len(pageDims))
	}

	dims := make([]models.PageDims, len(pageDims))
	for i, d := range pageDims {
		dims[i] = models.PageDims{Width: d.Width, Height: d.Height}
	}

	return &Extractor{
		path:         path,
		doc:          doc,
		dims:         dims,
		renderDPI:    renderDPI,
		inkThreshold: inkThreshold,
		logger:       log,
	}, nil
}

func (e *Extractor) PageCount() int {
	return e.doc.NumPage()
}

func (e *Extractor) PageDims(pageIndex int) (models.PageDims, error) {
	if pageIndex < 0 || pageIndex >= len(e.dims) {
		return models.PageDims{}, fmt.Errorf("page index %d out of range [0, %d)", pageIndex, len(e.dims))
	}
	return e.dims[pageIndex], nil
}

// Extract renders one page and converts its content bounding box into the
// four margin percentages. The top margin is measured from the top page
// edge, matching the rendered image's origin.
func (e *Extractor) Extract(ctx context.Context, pageIndex int) (models.PageMargins, error) {
	select {
	case <-ctx.Done():
		return models.PageMargins{}, ctx.Err()
	default:
	}

	if pageIndex < 0 || pageIndex >= e.doc.NumPage() {
		return models.PageMargins{}, fmt.Errorf("page index %d out of range [0, %d)", pageIndex, e.doc.NumPage())
	}

	img, err := e.doc.ImageDPI(pageIndex, float64(e.renderDPI))
	if err != nil {
		return models.PageMargins{}, fmt.Errorf("failed to render page %d: %w", pageIndex, err)
	}

	content, ok := ContentBox(img, e.inkThreshold)
	if !ok {
		return models.PageMargins{}, &NoContentError{Page: pageIndex}
	}

	m := MarginsFromContent(pageIndex, content, img.Bounds())
	e.logger.Trace("page %d margins: left=%.2f%% right=%.2f%% top=%.2f%% bottom=%.2f%%",
		pageIndex, m.Left, m.Right, m.Top, m.Bottom)

	return m, nil
}

// ExtractAll walks the document in page order. Blank pages are collected
// separately instead of aborting the run; any other failure is fatal.
func (e *Extractor) ExtractAll(ctx context.Context) ([]models.PageMargins, []int, error) {
	var (
		margins []models.PageMargins
		blank   []int
	)

	// Page numbers are zero indexed in the fitz package.
	for pageIndex := 0; pageIndex < e.doc.NumPage(); pageIndex++ {
		m, err := e.Extract(ctx, pageIndex)
		if err != nil {
			if IsNoContent(err) {
				e.logger.Debug("page %d is blank, excluding from statistics", pageIndex)
				blank = append(blank, pageIndex)
				continue
			}
			return nil, nil, err
		}
		margins = append(margins, m)
	}

	return margins, blank, nil
}

func (e *Extractor) Close() error {
	return e.doc.Close()
}

// ContentBox scans img for pixels darker than inkThreshold (a luminance
// fraction, 1.0 meaning pure white) and returns the tight bounding box
// around them. ok is false when the page holds no such pixel.
func ContentBox(img image.Image, inkThreshold float64) (box image.Rectangle, ok bool) {
	bounds := img.Bounds()
	limit := uint32(inkThreshold * 0xffff)

	minX, minY := bounds.Max.X, bounds.Max.Y
	maxX, maxY := bounds.Min.X-1, bounds.Min.Y-1

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			lum := (299*r + 587*g + 114*b) / 1000
			if lum >= limit {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if maxX < minX || maxY < minY {
		return image.Rectangle{}, false
	}

	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// MarginsFromContent converts a content box inside the page bounds into the
// four margin percentages.
func MarginsFromContent(pageIndex int, content, bounds image.Rectangle) models.PageMargins {
	width := float64(bounds.Dx())
	height := float64(bounds.Dy())

	return models.PageMargins{
		PageIndex: pageIndex,
		Left:      float64(content.Min.X-bounds.Min.X) / width * 100,
		Right:     float64(bounds.Max.X-content.Max.X) / width * 100,
		Top:       float64(content.Min.Y-bounds.Min.Y) / height * 100,
		Bottom:    float64(bounds.Max.Y-content.Max.Y) / height * 100,
	}
}
