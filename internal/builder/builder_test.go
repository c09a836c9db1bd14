package builder

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"sidedoc/internal/config"
)

const (
	testLayout = `{{ define "main" }}<!DOCTYPE html>
<html><head><title>{{ .Title }} | {{ .Site.Title }}</title></head>
<body>{{ template "header" . }}{{ template "sidebar" . }}<main>{{ .Content }}</main>{{ template "footer" . }}</body></html>
{{ end }}`
	testHeader  = `{{ define "header" }}<header>{{ .Site.Title }}</header>{{ end }}`
	testFooter  = `{{ define "footer" }}<footer>{{ .Author }}</footer>{{ end }}`
	testSidebar = `{{ define "sidebar" }}<nav><ul>
<li{{ sidebar_current "docs-home" }} id="nav-home"><a href="{{ .BaseHref }}index.html">Home</a></li>
<li{{ sidebar_current "docs-intro" }} id="nav-intro"><a href="{{ .BaseHref }}docs/intro.html">Intro</a></li>
<li{{ sidebar_current (sidebar_pattern "^docs-guide-") }} id="nav-guides"><a href="{{ .BaseHref }}guides/install.html">Guides</a></li>
</ul></nav>{{ end }}`
)

type testSite struct {
	root string
}

func newTestSite(t *testing.T) testSite {
	t.Helper()
	s := testSite{root: t.TempDir()}
	s.write(t, "templates/docs/layout.html", testLayout)
	s.write(t, "templates/docs/header.html", testHeader)
	s.write(t, "templates/docs/footer.html", testFooter)
	s.write(t, "templates/docs/sidebar.html", testSidebar)
	s.write(t, "static/css/style.css", "body{}")
	s.write(t, "static/notes.bak", "skip me")
	return s
}

func (s testSite) write(t *testing.T, rel, body string) {
	t.Helper()
	path := filepath.Join(s.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func (s testSite) path(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

func (s testSite) build(t *testing.T, site config.SiteConfig, opts BuildOptions) (int, error) {
	t.Helper()
	tmpl, err := LoadTemplates(s.path("templates"), "docs")
	require.NoError(t, err)
	return BuildSite(context.Background(), s.path("public"), s.path("content"), s.path("static"), site, tmpl, opts)
}

func (s testSite) doc(t *testing.T, rel string) *goquery.Document {
	t.Helper()
	f, err := os.Open(s.path(rel))
	require.NoError(t, err)
	defer f.Close()
	doc, err := goquery.NewDocumentFromReader(f)
	require.NoError(t, err)
	return doc
}

func activeIDs(doc *goquery.Document) []string {
	var ids []string
	doc.Find("nav li.active").Each(func(_ int, sel *goquery.Selection) {
		id, _ := sel.Attr("id")
		ids = append(ids, id)
	})
	return ids
}

func TestBuildSiteMarksSidebarEntries(t *testing.T) {
	t.Parallel()

	s := newTestSite(t)
	s.write(t, "content/index.md", "---\ntitle: Home\nsidebar_current: docs-home\n---\n# Welcome\n")
	s.write(t, "content/docs/intro.md", "---\ntitle: Intro\nsidebar_current:\n  - docs-intro\n  - docs-guide-install\n---\nSee [install](../guides/install.md#steps).\n")
	s.write(t, "content/guides/install.md", "---\ntitle: Install\nsidebar_current: [docs-guide-install]\n---\nSteps.\n")
	s.write(t, "content/plain.md", "No front matter here.\n")

	count, err := s.build(t, config.SiteConfig{Title: "Docs", Author: "Team"}, BuildOptions{CleanDestination: true})
	require.NoError(t, err)
	require.Equal(t, 4, count)

	require.Equal(t, []string{"nav-home"}, activeIDs(s.doc(t, "public/index.html")))

	// Only the first identifier counts by default.
	intro := s.doc(t, "public/docs/intro.html")
	require.Equal(t, []string{"nav-intro"}, activeIDs(intro))
	href, ok := intro.Find("main a").Attr("href")
	require.True(t, ok)
	require.Equal(t, "../guides/install.html#steps", href)
	require.Equal(t, "Team", intro.Find("footer").Text())

	require.Equal(t, []string{"nav-guides"}, activeIDs(s.doc(t, "public/guides/install.html")))
	require.Empty(t, activeIDs(s.doc(t, "public/plain.html")))

	require.FileExists(t, s.path("public/css/style.css"))
	require.NoFileExists(t, s.path("public/notes.bak"))
}

func TestBuildSiteMatchAnyAndCustomClass(t *testing.T) {
	t.Parallel()

	s := newTestSite(t)
	s.write(t, "content/docs/intro.md", "---\ntitle: Intro\nsidebar_current: [docs-intro, docs-guide-install]\n---\nBody\n")

	site := config.SiteConfig{
		Title:   "Docs",
		Sidebar: config.SidebarConfig{Match: "any", Class: "current"},
	}
	_, err := s.build(t, site, BuildOptions{})
	require.NoError(t, err)

	doc := s.doc(t, "public/docs/intro.html")
	require.Equal(t, 2, doc.Find("nav li.current").Length())
	require.True(t, doc.Find("#nav-guides").HasClass("current"))
	require.False(t, doc.Find("#nav-home").HasClass("current"))
}

func TestBuildSiteSkipsDrafts(t *testing.T) {
	t.Parallel()

	s := newTestSite(t)
	s.write(t, "content/index.md", "---\ntitle: Home\ndraft: true\n---\nHome\n")
	s.write(t, "content/docs/wip.md", "---\ntitle: WIP\ndraft: true\n---\nLater\n")

	count, err := s.build(t, config.SiteConfig{}, BuildOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.FileExists(t, s.path("public/index.html"))
	require.NoFileExists(t, s.path("public/docs/wip.html"))
}

func TestBuildSiteSanitizesUnlessUnsafe(t *testing.T) {
	t.Parallel()

	s := newTestSite(t)
	s.write(t, "content/index.md", "---\ntitle: Home\n---\n<script>alert(1)</script>\n\nText\n")

	_, err := s.build(t, config.SiteConfig{}, BuildOptions{})
	require.NoError(t, err)
	require.Equal(t, 0, s.doc(t, "public/index.html").Find("main script").Length())

	_, err = s.build(t, config.SiteConfig{}, BuildOptions{Unsafe: true, CleanDestination: true})
	require.NoError(t, err)
	require.Equal(t, 1, s.doc(t, "public/index.html").Find("main script").Length())
}

func TestBuildSiteReportsBadFrontMatter(t *testing.T) {
	t.Parallel()

	s := newTestSite(t)
	s.write(t, "content/broken.md", "---\nsidebar_current:\n  nested: map\n---\nBody\n")

	_, err := s.build(t, config.SiteConfig{}, BuildOptions{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "broken.md")
	require.Contains(t, err.Error(), "sidebar_current")
}

func TestBuildSiteRejectsSourcesWithSameOutput(t *testing.T) {
	t.Parallel()

	s := newTestSite(t)
	s.write(t, "content/index.md", "Home\n")
	s.write(t, "content/docs/a.md", "From markdown\n")
	s.write(t, "content/docs/a.html", "<p>From html</p>\n")

	_, err := s.build(t, config.SiteConfig{}, BuildOptions{})
	require.Error(t, err)
	require.Contains(t, err.Error(), filepath.Join("docs", "a.md"))
	require.Contains(t, err.Error(), filepath.Join("docs", "a.html"))
	require.Contains(t, err.Error(), "both render to docs/a.html")
	require.NoFileExists(t, s.path("public/docs/a.html"))
}

func TestBuildSiteRejectsInvalidSidebarConfig(t *testing.T) {
	t.Parallel()

	s := newTestSite(t)
	s.write(t, "content/index.md", "Home\n")

	_, err := s.build(t, config.SiteConfig{Sidebar: config.SidebarConfig{Match: "sometimes"}}, BuildOptions{})
	require.ErrorContains(t, err, "sidebar configuration")
}

func TestBuildSiteStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	s := newTestSite(t)
	s.write(t, "content/index.md", "Home\n")

	tmpl, err := LoadTemplates(s.path("templates"), "docs")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = BuildSite(ctx, s.path("public"), s.path("content"), s.path("static"), config.SiteConfig{}, tmpl, BuildOptions{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoadTemplatesWithoutSidebar(t *testing.T) {
	t.Parallel()

	s := testSite{root: t.TempDir()}
	s.write(t, "templates/plain/layout.html", `{{ define "main" }}<p{{ sidebar_current "x" }}>{{ .Title }}</p>{{ end }}`)
	s.write(t, "templates/plain/header.html", `{{ define "header" }}{{ end }}`)
	s.write(t, "templates/plain/footer.html", `{{ define "footer" }}{{ end }}`)
	s.write(t, "content/x.md", "---\ntitle: X\nsidebar_current: x\n---\n")

	tmpl, err := LoadTemplates(s.path("templates"), "plain")
	require.NoError(t, err)
	require.Nil(t, tmpl.Lookup("sidebar"))

	_, err = BuildSite(context.Background(), s.path("public"), s.path("content"), s.path("static"), config.SiteConfig{}, tmpl, BuildOptions{})
	require.NoError(t, err)

	out, err := os.ReadFile(s.path("public/x.html"))
	require.NoError(t, err)
	require.True(t, strings.Contains(string(out), `<p class="active">X</p>`))
}

func TestLoadTemplatesMissingSet(t *testing.T) {
	t.Parallel()

	_, err := LoadTemplates(t.TempDir(), "nope")
	require.Error(t, err)
}
