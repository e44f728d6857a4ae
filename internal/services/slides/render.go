package slides

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"path/filepath"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"github.com/princekumarofficial/zcreens-service/internal/types"
)

// pageCard is everything the descriptive slide shows about one page.
type pageCard struct {
	FileName   string
	ShortName  string
	PageNumber int
	TotalPages int
	// DocumentPages is the page count of the source; larger than TotalPages
	// when the deck was capped.
	DocumentPages int
	FileSizeKB    int64
	HasText       bool
	ProcessedAt   string
	Width         int
	Height        int
}

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"x": escapeXML,
}).Parse(`<svg width="{{.Width}}" height="{{.Height}}" xmlns="http://www.w3.org/2000/svg">
  <defs>
    <linearGradient id="bg" x1="0%" y1="0%" x2="100%" y2="100%">
      <stop offset="0%" style="stop-color:#f8fafc;stop-opacity:1" />
      <stop offset="100%" style="stop-color:#e2e8f0;stop-opacity:1" />
    </linearGradient>
  </defs>
  <rect width="100%" height="100%" fill="url(#bg)"/>
  <rect x="50" y="50" width="1820" height="980" fill="white" stroke="#cbd5e1" stroke-width="2" rx="8"/>
  <rect x="100" y="100" width="1720" height="80" fill="#059669" rx="4"/>
  <text x="960" y="150" font-family="Arial, sans-serif" font-size="32" fill="white" text-anchor="middle" font-weight="bold">{{x .ShortName}} - Page {{.PageNumber}} of {{.TotalPages}}</text>
  <rect x="120" y="200" width="1680" height="700" fill="#ffffff" rx="4"/>
  <text x="150" y="250" font-family="Arial, sans-serif" font-size="28" fill="#1f2937" font-weight="bold">PDF Document Successfully Processed</text>
  <text x="150" y="300" font-family="Arial, sans-serif" font-size="22" fill="#4b5563">File: {{x .FileName}}</text>
  <text x="150" y="340" font-family="Arial, sans-serif" font-size="22" fill="#4b5563">Size: {{.FileSizeKB}} KB</text>
  <text x="150" y="380" font-family="Arial, sans-serif" font-size="22" fill="#4b5563">Pages: {{.DocumentPages}}{{if lt .TotalPages .DocumentPages}} (first {{.TotalPages}} shown){{end}}</text>
  <text x="150" y="420" font-family="Arial, sans-serif" font-size="22" fill="#4b5563">Text Content: {{if .HasText}}Available{{else}}Not detected{{end}}</text>
  <text x="150" y="460" font-family="Arial, sans-serif" font-size="22" fill="#4b5563">Processed: {{.ProcessedAt}}</text>
  <rect x="150" y="520" width="1520" height="200" fill="#f3f4f6" stroke="#d1d5db" stroke-width="2" rx="8"/>
  <text x="960" y="580" font-family="Arial, sans-serif" font-size="48" fill="#1f2937" text-anchor="middle" font-weight="bold">Page {{.PageNumber}}</text>
  <text x="960" y="630" font-family="Arial, sans-serif" font-size="24" fill="#6b7280" text-anchor="middle">This slide represents page {{.PageNumber}} of your uploaded PDF</text>
  <text x="960" y="1020" font-family="Arial, sans-serif" font-size="20" fill="#6b7280" text-anchor="middle">Generated from {{x .FileName}} - Page {{.PageNumber}} of {{.TotalPages}}</text>
</svg>`))

func escapeXML(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// shortName strips the extension and keeps at most 40 runes.
func shortName(fileName string) string {
	name := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	if utf8.RuneCountInString(name) <= 40 {
		return name
	}
	return string([]rune(name)[:40])
}

func renderPageCard(card pageCard) (string, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, card); err != nil {
		return "", err
	}
	return svgDataURI(buf.Bytes()), nil
}

func svgDataURI(svg []byte) string {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(svg)
}

// TitleCard renders a simple titled slide. The demo catalog uses it.
func TitleCard(title, subtitle, color string) string {
	var buf bytes.Buffer
	buf.WriteString(`<svg width="1920" height="1080" xmlns="http://www.w3.org/2000/svg">`)
	buf.WriteString(`<rect width="100%" height="100%" fill="#f7f7f7"/>`)
	buf.WriteString(`<text x="50%" y="40%" font-family="Arial" font-size="96" fill="` + escapeXML(color) + `" text-anchor="middle">` + escapeXML(title) + `</text>`)
	buf.WriteString(`<text x="50%" y="60%" font-family="Arial" font-size="48" fill="#666" text-anchor="middle">` + escapeXML(subtitle) + `</text>`)
	buf.WriteString(`</svg>`)
	return svgDataURI(buf.Bytes())
}

func processedDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func nominalSlide(page int, image string) types.Slide {
	return types.Slide{
		PageNumber: page,
		Image:      image,
		Width:      types.DefaultSlideWidth,
		Height:     types.DefaultSlideHeight,
	}
}
