// internal/builder/goldmark_extensions.go
package builder

import (
	"bytes"
	"net/url"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// mdLinkTransformer rewrites relative links to markdown sources so they point
// at the generated HTML pages.
type mdLinkTransformer struct{}

func newMDLinkTransformer() parser.ASTTransformer {
	return &mdLinkTransformer{}
}

func (t *mdLinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		link, ok := n.(*ast.Link)
		if !ok {
			return ast.WalkContinue, nil
		}

		link.Destination = rewriteMDLink(link.Destination)
		return ast.WalkContinue, nil
	})
}

// rewriteMDLink maps "guide.md#setup" to "guide.html#setup". Absolute URLs
// are left alone.
func rewriteMDLink(dest []byte) []byte {
	if u, err := url.Parse(string(dest)); err == nil && u.Scheme != "" {
		return dest
	}

	path, fragment := dest, []byte(nil)
	if i := bytes.IndexAny(dest, "?#"); i >= 0 {
		path, fragment = dest[:i], dest[i:]
	}

	if !bytes.HasSuffix(path, []byte(".md")) {
		return dest
	}

	out := make([]byte, 0, len(dest)+2)
	out = append(out, bytes.TrimSuffix(path, []byte(".md"))...)
	out = append(out, ".html"...)
	out = append(out, fragment...)
	return out
}
