package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type HTMLOptions struct {
	Title string
	// Backgrounds maps a page number to an image URL (file path or data URI)
	// placed under that page's boxes.
	Backgrounds map[int]string
	Style       RasterStyle
	// Summary adds a per-page table above the pages.
	Summary bool
}

// WriteHTML writes res as a standalone HTML document with one positioned
// container per page and one absolutely positioned box per annotation.
func WriteHTML(w io.Writer, res *Result, opts HTMLOptions) error {
	if opts.Style.LineWidth < 1 {
		opts.Style.LineWidth = 1
	}
	title := opts.Title
	if title == "" {
		title = "Overlay"
	}

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	root := element(atom.Html)
	doc.AppendChild(root)

	head := element(atom.Head)
	root.AppendChild(head)
	meta := element(atom.Meta, html.Attribute{Key: "charset", Val: "utf-8"})
	head.AppendChild(meta)
	t := element(atom.Title)
	t.AppendChild(text(title))
	head.AppendChild(t)
	css := element(atom.Style)
	css.AppendChild(text(stylesheet))
	head.AppendChild(css)

	body := element(atom.Body)
	root.AppendChild(body)
	h1 := element(atom.H1)
	h1.AppendChild(text(title))
	body.AppendChild(h1)

	if opts.Summary {
		nodes, err := summaryNodes(res, body)
		if err != nil {
			return err
		}
		section := element(atom.Section, html.Attribute{Key: "class", Val: "summary"})
		for _, n := range nodes {
			section.AppendChild(n)
		}
		body.AppendChild(section)
	}

	for _, p := range res.Pages {
		body.AppendChild(pageNode(p, opts))
	}
	return html.Render(w, doc)
}

const stylesheet = `body{font-family:sans-serif;background:#eee}
.page{position:relative;margin:16px auto;background:#fff;background-size:100% 100%;box-shadow:0 0 4px #999}
.box{position:absolute;box-sizing:border-box}
.box span{position:absolute;bottom:100%;left:0;font-size:11px;white-space:nowrap}
.summary table{border-collapse:collapse;margin:0 auto}
.summary td,.summary th{border:1px solid #999;padding:2px 8px}`

func pageNode(p PageOverlay, opts HTMLOptions) *html.Node {
	style := fmt.Sprintf("width:%.2fpx;height:%.2fpx", p.Width, p.Height)
	if bg, ok := opts.Backgrounds[p.Page]; ok {
		style += fmt.Sprintf(";background-image:url(%q)", bg)
	}
	div := element(atom.Div,
		html.Attribute{Key: "class", Val: "page"},
		html.Attribute{Key: "id", Val: fmt.Sprintf("page-%d", p.Page)},
		html.Attribute{Key: "style", Val: style},
	)
	if p.Err != nil {
		div.AppendChild(text(p.Err.Error()))
		return div
	}
	for _, a := range p.Annotations {
		c := opts.Style.Color
		if a.Color != "" {
			if parsed, err := ParseColor(a.Color); err == nil {
				c = parsed
			}
		}
		box := element(atom.Div,
			html.Attribute{Key: "class", Val: "box"},
			html.Attribute{Key: "data-id", Val: a.Rect.ID},
			html.Attribute{Key: "style", Val: fmt.Sprintf(
				"left:%.2fpx;top:%.2fpx;width:%.2fpx;height:%.2fpx;border:%dpx solid %s",
				a.Box.Left, a.Box.Top, a.Box.Width, a.Box.Height, opts.Style.LineWidth, cssColor(c))},
		)
		if a.Label != "" {
			label := element(atom.Span,
				html.Attribute{Key: "style", Val: "color:" + cssColor(opts.Style.LabelColor)})
			label.AppendChild(text(a.Label))
			box.AppendChild(label)
		}
		div.AppendChild(box)
	}
	return div
}

// summaryNodes renders the per-page counts as a Markdown table and parses
// the resulting HTML as children of parent.
func summaryNodes(res *Result, parent *html.Node) ([]*html.Node, error) {
	var sb strings.Builder
	sb.WriteString("| Page | Boxes | Dropped | Status |\n|---|---|---|---|\n")
	for _, p := range res.Pages {
		status := "ok"
		if p.Err != nil {
			status = strings.ReplaceAll(p.Err.Error(), "|", `\|`)
		}
		fmt.Fprintf(&sb, "| %d | %d | %d | %s |\n", p.Page, len(p.Annotations), p.Dropped, status)
	}
	if res.Unplaced > 0 {
		fmt.Fprintf(&sb, "\n%d rectangle(s) reference pages outside the document.\n", res.Unplaced)
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert([]byte(sb.String()), &buf); err != nil {
		return nil, fmt.Errorf("render summary: %w", err)
	}
	nodes, err := html.ParseFragment(&buf, parent)
	if err != nil {
		return nil, fmt.Errorf("parse summary: %w", err)
	}
	return nodes, nil
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
