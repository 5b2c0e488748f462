package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatTerm     Format = "term"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatMarkdown, FormatHTML, FormatTerm:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown format %q: must be markdown, html or term", s)
	}
}

var htmlRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Render writes md to w in the requested format. Term output uses the
// given glamour style ("auto" picks one from the terminal).
func Render(w io.Writer, md string, format Format, style string) error {
	switch format {
	case FormatMarkdown:
		_, err := io.WriteString(w, md)
		return err
	case FormatHTML:
		var buf bytes.Buffer
		if err := htmlRenderer.Convert([]byte(md), &buf); err != nil {
			return fmt.Errorf("render html: %w", err)
		}
		_, err := w.Write(buf.Bytes())
		return err
	case FormatTerm:
		out, err := renderTerm(md, style)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func renderTerm(md, style string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(100)}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("create terminal renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render terminal output: %w", err)
	}
	return out, nil
}
