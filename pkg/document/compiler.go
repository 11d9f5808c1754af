package document

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// Page geometry in millimetres (A4 portrait).
const (
	margin          = 20.0
	titleY          = 30.0
	dateY           = 40.0
	ruleY           = 45.0
	bodyStartY      = 60.0
	bottomLimitY    = 270.0
	topResetY       = 20.0
	imageMaxWidth   = 170.0
	imageMaxHeight  = 100.0
	imageGap        = 15.0
	bulletIndent    = 5.0
	lineAdvance     = 6.0
	paragraphGap    = 4.0
	headingAdvance  = 10.0
	subheadAdvance  = 8.0
	titleFontSize   = 24.0
	dateFontSize    = 10.0
	headingFontSize = 16.0
	subheadFontSize = 14.0
	bodyFontSize    = 12.0
	fontFamily      = "Helvetica"
	bulletGlyph     = "• "
)

// Image is an optional illustration placed under the header.
type Image struct {
	Data     []byte
	MIMEType string
}

// Document is a compiled PDF.
type Document struct {
	Data  []byte
	Pages int
}

// DataURI is the form stored as an artifact payload.
func (d *Document) DataURI() string {
	return "data:application/pdf;filename=generated.pdf;base64," + base64.StdEncoding.EncodeToString(d.Data)
}

type Option func(*Compiler)

// WithCompression toggles stream compression. Uncompressed output keeps the
// text operators greppable.
func WithCompression(compress bool) Option {
	return func(c *Compiler) { c.compress = compress }
}

func WithClock(now func() time.Time) Option {
	return func(c *Compiler) { c.now = now }
}

func WithAuthor(author string) Option {
	return func(c *Compiler) { c.author = author }
}

// Compiler renders a title, a line-oriented markdown body and an optional
// image into a PDF. Only "# ", "## ", "### ", "- " and "* " line markers are
// interpreted; everything else is literal paragraph text.
type Compiler struct {
	compress bool
	now      func() time.Time
	author   string
}

func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{
		compress: true,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type lineKind int

const (
	lineBlank lineKind = iota
	lineHeading
	lineSubheading
	lineBullet
	lineParagraph
)

func classifyLine(raw string) (lineKind, string) {
	line := strings.TrimSpace(raw)
	switch {
	case line == "":
		return lineBlank, ""
	case strings.HasPrefix(line, "### "):
		return lineSubheading, strings.TrimSpace(line[4:])
	case strings.HasPrefix(line, "## "):
		return lineHeading, strings.TrimSpace(line[3:])
	case strings.HasPrefix(line, "# "):
		return lineHeading, strings.TrimSpace(line[2:])
	case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
		return lineBullet, strings.TrimSpace(line[2:])
	default:
		return lineParagraph, line
	}
}

type layout struct {
	pdf          *fpdf.Fpdf
	tr           func(string) string
	pageWidth    float64
	contentWidth float64
	y            float64
}

// breakIfNeeded starts a new page when the cursor passed the bottom limit.
func (l *layout) breakIfNeeded() {
	if l.y > bottomLimitY {
		l.pdf.AddPage()
		l.y = topResetY
	}
}

func (l *layout) centered(text string, y float64) {
	encoded := l.tr(text)
	x := (l.pageWidth - l.pdf.GetStringWidth(encoded)) / 2
	l.pdf.Text(x, y, encoded)
}

// wrap splits text into lines that fit width using the current font.
func (l *layout) wrap(text string, width float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if l.pdf.GetStringWidth(l.tr(candidate)) <= width {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}

func (l *layout) wrapped(text string, x, width float64) {
	for i, line := range l.wrap(text, width) {
		if i > 0 {
			l.breakIfNeeded()
		}
		l.pdf.Text(x, l.y, l.tr(line))
		l.y += lineAdvance
	}
}

// Compile renders the document. A nil or undecodable image is skipped.
func (c *Compiler) Compile(title, body string, img *Image) (*Document, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(c.compress)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(c.now())
	pdf.SetTitle(title, true)
	if c.author != "" {
		pdf.SetAuthor(c.author, true)
	}
	pdf.AddPage()

	pageWidth, _ := pdf.GetPageSize()
	l := &layout{
		pdf:          pdf,
		tr:           pdf.UnicodeTranslatorFromDescriptor(""),
		pageWidth:    pageWidth,
		contentWidth: pageWidth - 2*margin,
	}

	// Header
	pdf.SetFont(fontFamily, "B", titleFontSize)
	l.centered(title, titleY)

	pdf.SetFont(fontFamily, "", dateFontSize)
	pdf.SetTextColor(100, 100, 100)
	l.centered("Data: "+c.now().Format("02/01/2006"), dateY)
	pdf.SetTextColor(0, 0, 0)

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(margin, ruleY, pageWidth-margin, ruleY)

	l.y = bodyStartY
	if img != nil {
		l.placeImage(img)
	}

	for _, raw := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n") {
		kind, text := classifyLine(raw)
		if kind == lineBlank {
			continue
		}
		l.breakIfNeeded()

		switch kind {
		case lineHeading:
			pdf.SetFont(fontFamily, "B", headingFontSize)
			pdf.Text(margin, l.y, l.tr(text))
			l.y += headingAdvance
		case lineSubheading:
			pdf.SetFont(fontFamily, "B", subheadFontSize)
			pdf.Text(margin, l.y, l.tr(text))
			l.y += subheadAdvance
		case lineBullet:
			pdf.SetFont(fontFamily, "", bodyFontSize)
			l.wrapped(bulletGlyph+text, margin+bulletIndent, l.contentWidth-bulletIndent)
		case lineParagraph:
			pdf.SetFont(fontFamily, "", bodyFontSize)
			l.wrapped(text, margin, l.contentWidth)
			l.y += paragraphGap
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	return &Document{Data: buf.Bytes(), Pages: pdf.PageCount()}, nil
}

func imageType(mime string, format string) string {
	switch strings.ToLower(mime) {
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/gif":
		return "gif"
	}
	switch format {
	case "png", "gif":
		return format
	case "jpeg":
		return "jpg"
	}
	return ""
}

// placeImage fits the image into imageMaxWidth x imageMaxHeight keeping the
// aspect ratio, centered horizontally.
func (l *layout) placeImage(img *Image) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		return
	}
	tp := imageType(img.MIMEType, format)
	if tp == "" {
		return
	}

	info := l.pdf.RegisterImageOptionsReader("illustration", fpdf.ImageOptions{ImageType: tp}, bytes.NewReader(img.Data))
	if info == nil || !l.pdf.Ok() {
		l.pdf.ClearError()
		return
	}

	w := imageMaxWidth
	h := w * float64(cfg.Height) / float64(cfg.Width)
	if h > imageMaxHeight {
		h = imageMaxHeight
		w = h * float64(cfg.Width) / float64(cfg.Height)
	}
	x := (l.pageWidth - w) / 2

	l.pdf.ImageOptions("illustration", x, l.y, w, h, false, fpdf.ImageOptions{ImageType: tp}, 0, "")
	l.y += h + imageGap
}

var ErrNotPDF = errors.New("payload is not a pdf data uri")

// DecodeDataURI reverses Document.DataURI.
func DecodeDataURI(uri string) ([]byte, error) {
	_, encoded, ok := strings.Cut(uri, ";base64,")
	if !ok || !strings.HasPrefix(uri, "data:application/pdf") {
		return nil, ErrNotPDF
	}
	return base64.StdEncoding.DecodeString(encoded)
}
