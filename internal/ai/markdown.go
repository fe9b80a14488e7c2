package ai

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

func parseMarkdown(md string) ast.Node {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	return p.Parse([]byte(md))
}

// HTML renders a Markdown reply as an HTML fragment.
func HTML(md string) string {
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return string(markdown.Render(parseMarkdown(md), r))
}

type listState struct {
	ordered bool
	next    int
}

// PlainText renders a Markdown reply for a terminal: emphasis markers are
// dropped, list items get "-" or "N." bullets, code blocks are indented and
// blocks are separated by one blank line.
func PlainText(md string) string {
	var b bytes.Buffer
	var lists []*listState

	lineStart := func() {
		if b.Len() > 0 && b.Bytes()[b.Len()-1] != '\n' {
			b.WriteByte('\n')
		}
	}
	blankLine := func() {
		lineStart()
		if b.Len() > 0 && !bytes.HasSuffix(b.Bytes(), []byte("\n\n")) {
			b.WriteByte('\n')
		}
	}

	ast.WalkFunc(parseMarkdown(md), func(node ast.Node, entering bool) ast.WalkStatus {
		switch n := node.(type) {
		case *ast.Text:
			if entering {
				b.Write(n.Literal)
			}
		case *ast.Code:
			if entering {
				b.Write(n.Literal)
			}
		case *ast.Softbreak, *ast.Hardbreak:
			if entering {
				b.WriteByte('\n')
			}
		case *ast.Heading, *ast.BlockQuote:
			if entering {
				blankLine()
			} else {
				lineStart()
			}
		case *ast.Paragraph:
			if _, inItem := n.Parent.(*ast.ListItem); inItem {
				break
			}
			if entering {
				blankLine()
			} else {
				lineStart()
			}
		case *ast.CodeBlock:
			if entering {
				blankLine()
				for _, line := range strings.Split(strings.TrimRight(string(n.Literal), "\n"), "\n") {
					b.WriteString("    ")
					b.WriteString(line)
					b.WriteByte('\n')
				}
			}
		case *ast.HorizontalRule:
			if entering {
				blankLine()
				b.WriteString("----\n")
			}
		case *ast.List:
			if entering {
				if len(lists) == 0 {
					blankLine()
				}
				start := n.Start
				if start == 0 {
					start = 1
				}
				lists = append(lists, &listState{ordered: n.ListFlags&ast.ListTypeOrdered != 0, next: start})
			} else {
				lists = lists[:len(lists)-1]
				lineStart()
			}
		case *ast.ListItem:
			if entering && len(lists) > 0 {
				lineStart()
				cur := lists[len(lists)-1]
				b.WriteString(strings.Repeat("  ", len(lists)-1))
				if cur.ordered {
					b.WriteString(strconv.Itoa(cur.next) + ". ")
					cur.next++
				} else {
					b.WriteString("- ")
				}
			}
		}
		return ast.GoToNext
	})
	return strings.TrimSpace(b.String())
}
