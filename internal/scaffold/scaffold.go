// internal/scaffold/scaffold.go
package scaffold

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"sidedoc/internal/config"
)

// CreateNewSite writes a ready-to-build documentation site into name.
func CreateNewSite(name string) error {
	fmt.Println("Scaffolding new site in:", name)

	dirs := []string{"content/docs", "content/guides", "static/css", "templates/docs", "archetypes"}
	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(name, dir), 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	files := map[string]string{
		"site.yaml":                   siteYamlContent,
		"static/css/style.css":        staticCssContent,
		"templates/docs/layout.html":  templateLayoutHtmlContent,
		"templates/docs/header.html":  templateHeaderHtmlContent,
		"templates/docs/sidebar.html": templateSidebarHtmlContent,
		"templates/docs/footer.html":  templateFooterHtmlContent,
		"archetypes/default.md":       archetypeDefaultMdContent,
		"content/index.md":            contentIndexMdContent,
		"content/docs/intro.md":       contentIntroMdContent,
		"content/guides/install.md":   contentInstallMdContent,
	}
	for path, content := range files {
		if err := os.WriteFile(filepath.Join(name, path), []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write file %s: %w", path, err)
		}
	}

	fmt.Println("Site scaffolded. You can now:")
	fmt.Println("  cd", name)
	fmt.Println("  sidedoc gen")
	fmt.Println("  sidedoc serve")
	return nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a title into a lowercase, hyphen-separated identifier.
func Slugify(title string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
}

// CreateNewContent renders the default archetype into content/<type>/<slug>.md.
// The page's sidebar identifier is "<type>-<slug>".
func CreateNewContent(contentType, title, configPath string) (string, error) {
	slug := Slugify(title)
	if slug == "" {
		return "", fmt.Errorf("title %q does not produce a usable file name", title)
	}

	site, err := config.LoadSiteConfig(configPath)
	if err != nil {
		return "", err
	}

	root := filepath.Dir(configPath)
	path := filepath.Join(root, "content", contentType, slug+".md")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	archetypePath := filepath.Join(root, "archetypes", "default.md")
	tmplBytes, err := os.ReadFile(archetypePath)
	if err != nil {
		return "", fmt.Errorf("could not read archetype file %s: %w", archetypePath, err)
	}

	tmpl, err := template.New("archetype").Parse(string(tmplBytes))
	if err != nil {
		return "", fmt.Errorf("failed to parse archetype file %s: %w", archetypePath, err)
	}

	data := struct {
		Title          string
		Author         string
		SidebarCurrent string
	}{
		Title:          title,
		Author:         site.Author,
		SidebarCurrent: Slugify(contentType) + "-" + slug,
	}

	var output bytes.Buffer
	if err := tmpl.Execute(&output, data); err != nil {
		return "", fmt.Errorf("failed to execute archetype template: %w", err)
	}

	if err := os.WriteFile(path, output.Bytes(), 0o644); err != nil {
		return "", err
	}

	fmt.Println("Created:", path)
	return path, nil
}

const siteYamlContent = `title: My Project Docs
author: Your Name
baseurl: /
description: Documentation built with sidedoc.
template: docs
sidebar:
  # "first" checks only the first sidebar_current entry of a page,
  # "any" marks an entry active when any of them match.
  match: first
  class: active
`

const archetypeDefaultMdContent = `---
title: "{{ .Title }}"
author: "{{ .Author }}"
description:
sidebar_current:
  - {{ .SidebarCurrent }}
---

Write something meaningful here.
`

const contentIndexMdContent = `---
title: Home
sidebar_current: docs-home
---

# Welcome

Start with the [introduction](docs/intro.md).
`

const contentIntroMdContent = `---
title: Introduction
sidebar_current:
  - docs-intro
---

# Introduction

Then read the [installation guide](../guides/install.md).
`

const contentInstallMdContent = `---
title: Installation
sidebar_current:
  - guides-install
  - docs-intro
---

# Installation

Download a release and put it on your PATH.
`

const staticCssContent = `body {
  font-family: sans-serif;
  margin: 0;
  color: #222;
  background: #fdfdfd;
}
.wrap { display: flex; max-width: 960px; margin: 2em auto; gap: 2em; padding: 0 1em; }
header { border-bottom: 1px solid #ddd; padding: 1em; }
nav.sidebar { flex: 0 0 200px; }
nav.sidebar ul { list-style: none; padding: 0; margin: 0; }
nav.sidebar li { margin-bottom: 0.25em; }
nav.sidebar li a { color: #444; text-decoration: none; }
nav.sidebar li.active > a { font-weight: bold; color: #0a58ca; }
main { flex: 1; line-height: 1.6; }
footer { text-align: center; font-size: 0.9em; color: #555; margin: 2em 0; }
`

const templateLayoutHtmlContent = `{{ define "main" }}
<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{ .Title }} | {{ .Site.Title }}</title>
  <link rel="stylesheet" href="{{ .BaseHref }}css/style.css">
  <meta name="description" content="{{ .Description }}">
</head>
<body>
  {{ template "header" . }}
  <div class="wrap">
    {{ template "sidebar" . }}
    <main>
      {{ .Content }}
    </main>
  </div>
  {{ template "footer" . }}
</body>
</html>
{{ end }}`

const templateHeaderHtmlContent = `{{ define "header" }}
<header>
  <a href="{{ .BaseHref }}index.html">{{ .Site.Title }}</a>
</header>
{{ end }}`

const templateSidebarHtmlContent = `{{ define "sidebar" }}
<nav class="sidebar">
  <ul>
    <li{{ sidebar_current "docs-home" }}><a href="{{ .BaseHref }}index.html">Home</a></li>
    <li{{ sidebar_current "docs-intro" }}><a href="{{ .BaseHref }}docs/intro.html">Introduction</a></li>
    {{/* A pattern marks the section active for every guide page. */}}
    <li{{ sidebar_current (sidebar_pattern "^guides-") }}><a href="{{ .BaseHref }}guides/install.html">Guides</a></li>
  </ul>
</nav>
{{ end }}`

const templateFooterHtmlContent = `{{ define "footer" }}
<footer>
  &copy; {{ .Author }}
</footer>
{{ end }}`
