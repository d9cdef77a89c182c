package ocr

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FlattenHOCR converts hOCR output into plain text, one line per ocr_line
// element, pages separated by blank lines. Non-hOCR input is returned as-is.
func FlattenHOCR(raw string) (text string, pages int) {
	if !strings.Contains(raw, "ocr_page") {
		return raw, 1
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw, 1
	}

	var b strings.Builder
	doc.Find(".ocr_page").Each(func(_ int, page *goquery.Selection) {
		pages++
		page.Find(".ocr_line, .ocrx_line").Each(func(_ int, line *goquery.Selection) {
			var words []string
			line.Find(".ocrx_word").Each(func(_ int, w *goquery.Selection) {
				if t := strings.TrimSpace(w.Text()); t != "" {
					words = append(words, t)
				}
			})
			if len(words) == 0 {
				if t := strings.TrimSpace(line.Text()); t != "" {
					words = []string{t}
				}
			}
			if len(words) > 0 {
				b.WriteString(strings.Join(words, " "))
				b.WriteString("\n")
			}
		})
		b.WriteString("\n")
	})

	if pages == 0 {
		return raw, 1
	}
	return strings.TrimSpace(b.String()), pages
}
