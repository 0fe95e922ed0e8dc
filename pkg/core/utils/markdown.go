package utils

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// CleanMarkdown strips outer markdown code fences.
func CleanMarkdown(input string) string {
	cleaned := strings.TrimSpace(input)

	if strings.HasPrefix(cleaned, "```markdown") && strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```markdown")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	} else if strings.HasPrefix(cleaned, "```") && strings.HasSuffix(cleaned, "```") && len(cleaned) >= 6 {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	return cleaned
}

// MarkdownItems splits a markdown snippet into plain-text items: one per list
// item, one per other top-level block. Emphasis markers and link syntax are
// dropped, line breaks become spaces.
//
//	"- **Founded**: 1985\n- **HQ**: Pune" -> ["Founded: 1985", "HQ: Pune"]
func MarkdownItems(input string) []string {
	source := []byte(CleanMarkdown(input))
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	items := make([]string, 0)
	for block := doc.FirstChild(); block != nil; block = block.NextSibling() {
		if list, ok := block.(*ast.List); ok {
			for item := list.FirstChild(); item != nil; item = item.NextSibling() {
				if s := plainText(item, source); s != "" {
					items = append(items, s)
				}
			}
			continue
		}
		if s := plainText(block, source); s != "" {
			items = append(items, s)
		}
	}
	return items
}

// plainText flattens the inline content of n, separating nested blocks with a space.
func plainText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if node != n && node.Type() == ast.TypeBlock {
				b.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}

		switch t := node.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(source))
				b.WriteByte(' ')
			}
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(b.String()), " ")
}
