// internal/builder/render.go
package builder

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/verkaro/editml-go"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
	"gopkg.in/yaml.v3"
)

var (
	markdownRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Footnote),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(newMDLinkTransformer(), 100),
			),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
	htmlSanitizer = bluemonday.UGCPolicy()
)

var frontMatterDelim = []byte("---")

// splitFrontMatter separates a leading YAML block from the body. The block
// opens and closes on lines consisting of exactly "---"; dashes anywhere else
// belong to the YAML or the body. Content that does not open with the
// delimiter line, or never closes it, has no front matter.
func splitFrontMatter(raw []byte) ([]byte, []byte, bool) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n\ufeff")

	first, rest, found := bytes.Cut(trimmed, []byte("\n"))
	if !found || !isDelimLine(first) {
		return nil, raw, false
	}

	for off := 0; off < len(rest); {
		line := rest[off:]
		next := len(rest)
		if i := bytes.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
			next = off + i + 1
		}

		if isDelimLine(line) {
			return rest[:off], rest[next:], true
		}
		off = next
	}

	return nil, raw, false
}

func isDelimLine(line []byte) bool {
	return bytes.Equal(bytes.TrimSuffix(line, []byte("\r")), frontMatterDelim)
}

// processContent parses front matter and renders the markdown body to HTML.
func processContent(rawContent []byte, opts BuildOptions) (PageMeta, string, error) {
	meta := PageMeta{}

	fm, body, ok := splitFrontMatter(rawContent)
	if ok {
		if err := yaml.Unmarshal(fm, &meta); err != nil {
			return PageMeta{}, "", fmt.Errorf("failed to parse front matter: %w", err)
		}
	}

	if meta.EditML {
		clean, err := processEditML(string(body))
		if err != nil {
			return meta, "", err
		}
		body = []byte(clean)
	}

	var htmlBuffer bytes.Buffer
	if err := markdownRenderer.Convert(body, &htmlBuffer); err != nil {
		return meta, "", fmt.Errorf("failed to render markdown with goldmark: %w", err)
	}

	if !opts.Unsafe {
		return meta, string(htmlSanitizer.SanitizeBytes(htmlBuffer.Bytes())), nil
	}

	return meta, htmlBuffer.String(), nil
}

// processEditML resolves EditML review markup into the accepted text.
func processEditML(raw string) (string, error) {
	nodes, parseIssues := editml.Parse(raw)
	if len(parseIssues) > 0 && parseIssues[0].Severity == editml.SeverityError {
		return "", fmt.Errorf("editml parsing error: %s", parseIssues[0].Message)
	}
	clean, transformIssues := editml.TransformCleanView(nodes)
	if len(transformIssues) > 0 && transformIssues[0].Severity == editml.SeverityError {
		return "", fmt.Errorf("editml transformation error: %s", transformIssues[0].Message)
	}
	return clean, nil
}
