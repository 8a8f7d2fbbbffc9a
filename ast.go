package dirorg

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// extractFencedBlock returns the content of the first fenced code block
// in a markdown document, preferring a block tagged json. Providers that
// answer in prose around a ```json fence are handled this way; a plain
// JSON response has no fence and returns "".
func extractFencedBlock(source []byte) string {
	parser := goldmark.DefaultParser()
	root := parser.Parse(text.NewReader(source))

	var first, firstJSON string
	walker := func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fenced, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		var content bytes.Buffer
		lines := fenced.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			content.Write(line.Value(source))
		}

		lang := ""
		if fenced.Info != nil {
			lang = string(fenced.Info.Text(source))
		}
		if firstJSON == "" && lang == "json" {
			firstJSON = content.String()
		}
		if first == "" {
			first = content.String()
		}
		return ast.WalkSkipChildren, nil
	}

	if err := ast.Walk(root, walker); err != nil {
		return ""
	}
	if firstJSON != "" {
		return firstJSON
	}
	return first
}
