package document

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Info is what a reader sees in a compiled document.
type Info struct {
	Pages int
	Text  string
}

// Inspect parses a PDF byte stream and extracts its page count and plain text.
// Text extraction is best effort; only an unreadable file is an error.
func Inspect(data []byte) (*Info, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	info := &Info{Pages: reader.NumPage()}

	content, err := reader.GetPlainText()
	if err != nil {
		return info, nil
	}
	var builder strings.Builder
	if _, err := io.Copy(&builder, content); err == nil {
		info.Text = builder.String()
	}

	return info, nil
}
