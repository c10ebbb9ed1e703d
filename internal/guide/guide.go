// Package guide renders the embedded remediation documents shown when
// relayfix cannot proceed on its own (install missing, handler missing,
// restart failed). The documents are markdown; they are parsed with goldmark
// and written out as plain indented terminal text so the same source can
// later feed HTML docs unchanged.
package guide

import (
	"embed"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

//go:embed docs/*.md
var docsFS embed.FS

// Document names accepted by Render.
const (
	InstallNotFound = "install-not-found"
	FileNotFound    = "file-not-found"
	RestartFailed   = "restart-failed"
)

var headingColor = color.New(color.FgCyan, color.Bold)

// Render parses the named remediation document and writes it to w as
// terminal text: headings bold, list items bulleted, code spans quoted.
func Render(w io.Writer, name string) error {
	source, err := docsFS.ReadFile("docs/" + name + ".md")
	if err != nil {
		return fmt.Errorf("unknown guide %q: %w", name, err)
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(source))

	return ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			fmt.Fprintf(w, "\n%s\n", headingColor.Sprint(nodeText(node, source)))
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph:
			if _, inList := node.Parent().(*ast.ListItem); inList {
				fmt.Fprintf(w, "  - %s\n", nodeText(node, source))
			} else {
				fmt.Fprintf(w, "%s\n", nodeText(node, source))
			}
			return ast.WalkSkipChildren, nil
		case *ast.TextBlock:
			if _, inList := node.Parent().(*ast.ListItem); inList {
				fmt.Fprintf(w, "  - %s\n", nodeText(node, source))
				return ast.WalkSkipChildren, nil
			}
		}
		return ast.WalkContinue, nil
	})
}

// nodeText flattens a block node's inline children to plain text, rendering
// code spans with backquotes.
func nodeText(n ast.Node, source []byte) string {
	var out []byte
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch child := c.(type) {
		case *ast.Text:
			out = append(out, child.Segment.Value(source)...)
			if child.SoftLineBreak() {
				out = append(out, ' ')
			}
		case *ast.CodeSpan:
			out = append(out, '`')
			out = append(out, nodeText(child, source)...)
			out = append(out, '`')
		default:
			out = append(out, nodeText(child, source)...)
		}
	}
	return string(out)
}
