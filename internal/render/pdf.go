// Package render lays generated document text out as a US Letter PDF.
//
// Rendering is split in two steps. Body turns raw text into paragraphs the
// PDF core fonts can place; Layout adds the header and the optional watermark.
// A preview and a final copy of the same generation share one Body, so they
// differ only in the watermark.
package render

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/punchamoorthee/estatedocs/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// WatermarkText marks preview copies.
const WatermarkText = "WATERMARKED PREVIEW"

var paragraphsSkipped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "estatedocs_pdf_paragraphs_skipped_total",
	Help: "Body paragraphs dropped because they could not be encoded for the PDF fonts",
})

// Page geometry and type sizes, in points.
const (
	margin        = 72.0
	headingSize   = 16.0
	headingLine   = 20.0
	bodySize      = 11.0
	bodyLeading   = 14.0
	blockSpacing  = 20.0
	paraSpacing   = 6.0
	fontFamily    = "Helvetica"
	dateLayout    = "January 02, 2006"
	creatorString = "estatedocs"
)

var (
	navy  = [3]int{0, 0, 128}
	red   = [3]int{255, 0, 0}
	black = [3]int{0, 0, 0}
)

// Meta is the presentation data of one artifact.
type Meta struct {
	Title     string
	Client    string
	Watermark bool
	Date      time.Time
}

// Body is generated text split into encodable paragraphs.
type Body struct {
	Paragraphs []string // Windows-1252 encoded
	Skipped    int
}

// Layout is everything that ends up on the page, in order.
type Layout struct {
	Title       string
	PreparedFor string
	DateLine    string
	Watermark   bool
	Body        Body
}

// Renderer draws layouts with fpdf.
type Renderer struct {
	log      *slog.Logger
	compress bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithoutCompression leaves content streams uncompressed.
func WithoutCompression() Option {
	return func(r *Renderer) { r.compress = false }
}

// New returns a Renderer. A nil logger uses slog.Default.
func New(log *slog.Logger, opts ...Option) *Renderer {
	if log == nil {
		log = slog.Default()
	}
	r := &Renderer{log: log.With("comp", "render"), compress: true}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Body splits text on line breaks and keeps every non-blank line that
// survives encoding. Lines that fail are logged and skipped.
func (r *Renderer) Body(text string) Body {
	var b Body
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimRight(line, "\r"))
		if line == "" {
			continue
		}
		enc, err := EncodeParagraph(line)
		if err != nil {
			r.log.Warn("skipping paragraph", "line", i+1, "error", err)
			paragraphsSkipped.Inc()
			b.Skipped++
			continue
		}
		b.Paragraphs = append(b.Paragraphs, enc)
	}
	return b
}

// Layout places body under the header described by meta.
func (r *Renderer) Layout(body Body, meta Meta) Layout {
	date := meta.Date
	if date.IsZero() {
		date = time.Now()
	}
	return Layout{
		Title:       encodeLenient(cases.Upper(language.English).String(meta.Title)),
		PreparedFor: encodeLenient("Prepared for: " + meta.Client),
		DateLine:    "Date: " + date.Format(dateLayout),
		Watermark:   meta.Watermark,
		Body:        body,
	}
}

// Write draws l and returns the PDF bytes.
func (r *Renderer) Write(l Layout) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetCompression(r.compress)
	pdf.SetTitle(l.Title, false)
	pdf.SetCreator(creatorString, false)
	pdf.AddPage()

	heading := func(text string, color [3]int) {
		pdf.SetFont(fontFamily, "B", headingSize)
		pdf.SetTextColor(color[0], color[1], color[2])
		pdf.MultiCell(0, headingLine, text, "", "C", false)
		pdf.Ln(blockSpacing)
	}

	heading(l.Title, navy)
	heading(l.PreparedFor, navy)

	pdf.SetFont(fontFamily, "", bodySize)
	pdf.SetTextColor(black[0], black[1], black[2])
	pdf.MultiCell(0, bodyLeading, l.DateLine, "", "J", false)
	pdf.Ln(blockSpacing)

	if l.Watermark {
		heading(WatermarkText, red)
	}

	pdf.SetFont(fontFamily, "", bodySize)
	pdf.SetTextColor(black[0], black[1], black[2])
	for _, p := range l.Body.Paragraphs {
		pdf.MultiCell(0, bodyLeading, p, "", "J", false)
		pdf.Ln(paraSpacing)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRender, err)
	}
	return buf.Bytes(), nil
}

// Pair renders the preview (watermarked) and final copies of one generated text.
func (r *Renderer) Pair(text, title, client string, date time.Time) (preview, final []byte, err error) {
	body := r.Body(text)
	meta := Meta{Title: title, Client: client, Date: date}

	meta.Watermark = true
	preview, err = r.Write(r.Layout(body, meta))
	if err != nil {
		return nil, nil, fmt.Errorf("preview: %w", err)
	}
	meta.Watermark = false
	final, err = r.Write(r.Layout(body, meta))
	if err != nil {
		return nil, nil, fmt.Errorf("final: %w", err)
	}
	return preview, final, nil
}

// Glyphs that language models like to emit but Windows-1252 lacks.
var typographic = strings.NewReplacer(
	"☐", "[ ]",
	"☑", "[X]",
	"☒", "[X]",
	"✓", "X",
	"✔", "X",
	"→", "->",
	"←", "<-",
	"‐", "-",
	"‑", "-",
	"‒", "-",
	"−", "-",
	"≤", "<=",
	"≥", ">=",
	"≈", "~",
	"≠", "!=",
	"\u200b", "",
	"\ufeff", "",
	"\t", "    ",
)

// Letters with a stroke or bar have no canonical decomposition.
var strokeLetters = map[rune]string{
	'Ł': "L", 'ł': "l",
	'Đ': "D", 'đ': "d",
	'Ħ': "H", 'ħ': "h",
	'Ŧ': "T", 'ŧ': "t",
	'Ŀ': "L", 'ŀ': "l",
	'Ɨ': "I", 'ɨ': "i",
	'Ƶ': "Z", 'ƶ': "z",
	'Ŋ': "N", 'ŋ': "n",
	'ı': "i", 'ĸ': "k",
	'Ĳ': "IJ", 'ĳ': "ij",
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldLatin rewrites letters missing from Windows-1252 to their base letter,
// so "Łukasz" and "Nguyễn" become "Lukasz" and "Nguyen". Letters the code
// page has (é, ö, ñ) are kept. Runes with no Latin base pass through unchanged.
func foldLatin(s string) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if _, ok := charmap.Windows1252.EncodeRune(r); ok {
			b.WriteRune(r)
			continue
		}
		if f, ok := strokeLetters[r]; ok {
			b.WriteString(f)
			continue
		}
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		if f, _, err := transform.String(stripMarks, string(r)); err == nil && f != "" {
			b.WriteString(f)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// EncodeParagraph converts one UTF-8 paragraph to the Windows-1252 bytes the
// core PDF fonts expect. Typographic glyphs are substituted and accented
// Latin letters folded first. Text that is not valid UTF-8, or that still
// holds runes outside the code page, fails with domain.ErrParagraphEncoding.
func EncodeParagraph(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("%w: invalid UTF-8", domain.ErrParagraphEncoding)
	}
	out, err := charmap.Windows1252.NewEncoder().String(foldLatin(typographic.Replace(s)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrParagraphEncoding, err)
	}
	return out, nil
}

// encodeLenient is used for header lines, which must always render.
func encodeLenient(s string) string {
	s = foldLatin(typographic.Replace(strings.ToValidUTF8(s, "?")))
	b := make([]byte, 0, len(s))
	for _, r := range s {
		if c, ok := charmap.Windows1252.EncodeRune(r); ok {
			b = append(b, c)
		} else {
			b = append(b, '?')
		}
	}
	return string(b)
}
