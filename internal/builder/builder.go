// internal/builder/builder.go
package builder

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"sidedoc/internal/config"
	"sidedoc/internal/sidebar"
	"sidedoc/internal/util"
)

const defaultConcurrency = 8

type BuildOptions struct {
	CleanDestination bool
	Unsafe           bool
	// Concurrency bounds the number of pages rendered at once. Zero means
	// a small default.
	Concurrency int
	Logger      *slog.Logger
}

func (o BuildOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// BuildSite renders every content file into outputDir and copies static
// assets. It returns the number of pages written.
func BuildSite(
	ctx context.Context,
	outputDir, contentDir, staticDir string,
	site config.SiteConfig, tmpl *template.Template, opts BuildOptions,
) (int, error) {
	log := opts.logger()

	helper, err := site.SidebarHelper()
	if err != nil {
		return 0, fmt.Errorf("sidebar configuration: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return 0, fmt.Errorf("create output directory: %w", err)
	}

	if opts.CleanDestination {
		log.Debug("cleaning destination directory", "dir", outputDir)
		entries, err := os.ReadDir(outputDir)
		if err != nil {
			return 0, fmt.Errorf("read output directory: %w", err)
		}
		for _, entry := range entries {
			if err := os.RemoveAll(filepath.Join(outputDir, entry.Name())); err != nil {
				return 0, fmt.Errorf("clean output directory: %w", err)
			}
		}
	}

	sources, err := collectSources(contentDir)
	if err != nil {
		return 0, err
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}

	var pagesGenerated atomic.Int64

	grp, gCtx := errgroup.WithContext(ctx)
	grp.SetLimit(limit)

	for _, src := range sources {
		src := src
		grp.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}

			written, err := buildPage(outputDir, contentDir, src, site, helper, tmpl, opts)
			if err != nil {
				return err
			}
			if written {
				pagesGenerated.Add(1)
				log.Debug("rendered page", "source", src)
			} else {
				log.Debug("skipped draft", "source", src)
			}
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return 0, err
	}

	if err := copyStaticAssets(staticDir, outputDir); err != nil {
		return 0, fmt.Errorf("copy static assets: %w", err)
	}
	return int(pagesGenerated.Load()), nil
}

// collectSources lists the content files to render, in walk order. Two
// sources that would write the same output page are an error.
func collectSources(contentDir string) ([]string, error) {
	var sources []string
	bySlug := make(map[string]string)
	err := filepath.WalkDir(contentDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(d.Name()) {
		case ".md", ".html":
		default:
			return nil
		}

		slug, err := outputSlug(contentDir, path)
		if err != nil {
			return err
		}
		if prev, ok := bySlug[slug]; ok {
			return fmt.Errorf("%s and %s both render to %s.html", prev, path, filepath.ToSlash(slug))
		}
		bySlug[slug] = path
		sources = append(sources, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk content directory: %w", err)
	}
	return sources, nil
}

// outputSlug is the page path relative to the output root, without ".html".
func outputSlug(contentDir, path string) (string, error) {
	relPath, err := filepath.Rel(contentDir, path)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(relPath, filepath.Ext(relPath)), nil
}

func buildPage(
	outputDir, contentDir, path string,
	site config.SiteConfig, helper sidebar.Helper,
	tmpl *template.Template, opts BuildOptions,
) (bool, error) {
	contentBytes, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	if !utf8.Valid(contentBytes) {
		return false, fmt.Errorf("content file is not valid UTF-8: %s", path)
	}

	meta, htmlOut, err := processContent(contentBytes, opts)
	if err != nil {
		return false, fmt.Errorf("failed to process content for %s: %w", path, err)
	}

	slug, err := outputSlug(contentDir, path)
	if err != nil {
		return false, err
	}

	if meta.Draft && !isExceptionPage(slug) {
		return false, nil
	}

	outputPath := filepath.Join(outputDir, slug+".html")
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return false, err
	}

	pageData := PageData{
		Content:        template.HTML(htmlOut),
		Title:          meta.Title,
		BaseHref:       util.ComputeBaseHref(slug),
		Author:         meta.Author,
		Description:    meta.Description,
		Site:           site,
		SidebarCurrent: meta.SidebarCurrent,
		Params:         meta.Params,
	}
	if pageData.Author == "" {
		pageData.Author = site.Author
	}
	if pageData.Description == "" {
		pageData.Description = site.Description
	}

	pageTmpl, err := tmpl.Clone()
	if err != nil {
		return false, fmt.Errorf("clone templates: %w", err)
	}
	pageTmpl.Funcs(sidebar.Funcs(helper, meta.SidebarCurrent))

	if err := renderPage(pageTmpl, outputPath, pageData); err != nil {
		return false, fmt.Errorf("failed to render page %s: %w", path, err)
	}
	return true, nil
}

// copyStaticAssets copies allow-listed files from staticDir into outputDir.
// A missing static directory is not an error.
func copyStaticAssets(staticDir, outputDir string) error {
	allowedExts := map[string]bool{
		".css": true, ".js": true, ".txt": true, ".svg": true,
		".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
		".woff": true, ".woff2": true, ".ico": true,
	}

	if _, err := os.Stat(staticDir); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return filepath.WalkDir(staticDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !allowedExts[filepath.Ext(d.Name())] {
			return nil
		}

		rel, err := filepath.Rel(staticDir, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(outputDir, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		return copyFile(path, dest)
	})
}

func copyFile(from, to string) (outErr error) {
	src, err := os.Open(from)
	if err != nil {
		return err
	}
	defer closeFile(from, src, &outErr)

	dst, err := os.Create(to)
	if err != nil {
		return err
	}
	defer closeFile(to, dst, &outErr)

	_, err = io.Copy(dst, src)
	return err
}

// closeFile joins a close failure into outErr.
func closeFile(name string, c io.Closer, outErr *error) {
	err := c.Close()
	if err != nil && !errors.Is(err, os.ErrClosed) {
		*outErr = errors.Join(*outErr, fmt.Errorf("close %s: %w", name, err))
	}
}

// isExceptionPage checks for pages that are published even when marked draft.
func isExceptionPage(slug string) bool {
	slug = filepath.ToSlash(slug)
	return slug == "index" || slug == "about" || slug == "404"
}

// renderPage executes the "main" template into outPath.
func renderPage(tmpl *template.Template, outPath string, data PageData) (outErr error) {
	outFile, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer closeFile(outPath, outFile, &outErr)

	return tmpl.ExecuteTemplate(outFile, "main", data)
}

// LoadTemplates parses the layout, header, footer and, when present, sidebar
// partials of the named template set.
func LoadTemplates(templateDir, templateName string) (*template.Template, error) {
	path := filepath.Join(templateDir, templateName)

	files := []string{
		filepath.Join(path, "layout.html"),
		filepath.Join(path, "header.html"),
		filepath.Join(path, "footer.html"),
	}

	sidebarFile := filepath.Join(path, "sidebar.html")
	if _, err := os.Stat(sidebarFile); err == nil {
		files = append(files, sidebarFile)
	}

	tmpl, err := template.New("layout.html").Funcs(sidebar.Placeholders()).ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("parse templates in %s: %w", path, err)
	}
	return tmpl, nil
}
