package parser

import (
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
)

// Page is the extracted text of one statement page, 1-based.
type Page struct {
	Number int
	Text   string
}

// Blank reports whether the page carries only whitespace. Blank pages are
// never ingested.
func (p Page) Blank() bool {
	return strings.TrimSpace(p.Text) == ""
}

// File extracts the page texts of a PDF on disk, in page order.
func File(filePath string) ([]Page, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return Reader(f, stat.Size())
}

// Reader extracts the page texts of a PDF byte-stream, in page order. A page
// whose text cannot be decoded is returned blank so the caller skips it
// instead of losing the rest of the document.
func Reader(r io.ReaderAt, size int64) ([]Page, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, err
	}

	var pages []Page
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			log.Warn().Err(err).Int("page", i).Msg("Could not extract page text, treating as blank")
			pageText = ""
		}
		pages = append(pages, Page{Number: i, Text: pageText})
	}
	return pages, nil
}
