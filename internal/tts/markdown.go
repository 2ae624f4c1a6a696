package tts

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var spaceRegex = regexp.MustCompile(`\s+`)

// IsMarkdown reports whether path has a markdown extension.
func IsMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// MarkdownToText reduces markdown to speakable plain text. Code blocks and
// HTML are skipped; headings, paragraphs and list items end in a period.
func MarkdownToText(markdown string) string {
	reader := text.NewReader([]byte(markdown))
	doc := goldmark.New().Parser().Parse(reader)

	var buf strings.Builder
	walkNode(doc, reader.Source(), &buf)

	return strings.TrimSpace(spaceRegex.ReplaceAllString(buf.String(), " "))
}

// walkNode recursively walks the AST and extracts text content.
func walkNode(node ast.Node, source []byte, buf *strings.Builder) {
	switch n := node.(type) {
	case *ast.CodeBlock, *ast.FencedCodeBlock, *ast.HTMLBlock, *ast.RawHTML:
		return

	case *ast.Text:
		buf.Write(n.Segment.Value(source))
		if n.SoftLineBreak() || n.HardLineBreak() {
			buf.WriteString(" ")
		}
		return

	case *ast.CodeSpan:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return

	case *ast.Image:
		// alt text only
		walkChildren(n, source, buf)
		return

	case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
		walkChildren(n, source, buf)
		endSentence(buf)
		return

	case *ast.ListItem:
		walkChildren(n, source, buf)
		endSentence(buf)
		return

	case *ast.ThematicBreak:
		endSentence(buf)
		return
	}

	walkChildren(node, source, buf)
}

func walkChildren(node ast.Node, source []byte, buf *strings.Builder) {
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		walkNode(c, source, buf)
	}
}

// endSentence terminates the buffered text with a period unless it already
// ends in sentence punctuation.
func endSentence(buf *strings.Builder) {
	content := strings.TrimRight(buf.String(), " \t\n")
	if content == "" {
		return
	}
	if !strings.ContainsAny(content[len(content)-1:], ".!?:;") {
		buf.Reset()
		buf.WriteString(content)
		buf.WriteString(".")
	}
	buf.WriteString(" ")
}
