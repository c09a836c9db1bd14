// internal/server/server.go
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"sidedoc/internal/builder"
)

// BuildFunc rebuilds the whole site.
type BuildFunc func(ctx context.Context, opts builder.BuildOptions) error

// Options describes what the dev server serves and watches.
type Options struct {
	Port       int
	OutputDir  string
	WatchPaths []string
}

const (
	debounceDuration = 500 * time.Millisecond
	shutdownTimeout  = 5 * time.Second
)

// Run builds the site, serves it with live reload and rebuilds on changes
// until ctx is canceled.
func Run(ctx context.Context, srvOpts Options, buildFunc BuildFunc, opts builder.BuildOptions) error {
	opts.CleanDestination = true
	if err := buildFunc(ctx, opts); err != nil {
		return fmt.Errorf("initial build failed: %w", err)
	}

	hub := newHub()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watchPaths(watcher, srvOpts.WatchPaths); err != nil {
		return err
	}

	opts.CleanDestination = false
	go watchForChanges(ctx, watcher, hub, buildFunc, opts)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", srvOpts.Port),
		Handler:           newMux(hub, srvOpts.OutputDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go shutdownOnDone(ctx, srv, hub)

	fmt.Printf("Serving site on http://localhost%s\n", srv.Addr)
	fmt.Println("Press Ctrl+C to stop")

	err = srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// shutdownOnDone waits for ctx and stops srv. Reload sockets are hijacked and
// invisible to Shutdown, so the hub closes them first.
func shutdownOnDone(ctx context.Context, srv *http.Server, hub *Hub) {
	<-ctx.Done()
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}
}

func newMux(hub *Hub, outputDir string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, w, r)
	})
	mux.Handle("/", liveReloadWrapper(http.FileServer(http.Dir(outputDir))))
	return mux
}

// watchPaths registers every existing directory in paths, recursively. Files
// are watched through their parent directory so editors that save by
// renaming a swap file still trigger events.
func watchPaths(watcher *fsnotify.Watcher, paths []string) error {
	watched := make(map[string]bool)

	addWatch := func(dir string) {
		dir = filepath.Clean(dir)
		if watched[dir] {
			return
		}
		if err := watcher.Add(dir); err != nil {
			log.Printf("Error adding watch on %s: %v", dir, err)
			return
		}
		watched[dir] = true
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("could not stat path %s: %w", path, err)
		}

		if !info.IsDir() {
			addWatch(filepath.Dir(path))
			continue
		}

		err = filepath.WalkDir(path, func(walkPath string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				addWatch(walkPath)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", path, err)
		}
	}

	return nil
}

func watchForChanges(
	ctx context.Context, watcher *fsnotify.Watcher, hub *Hub,
	buildFunc BuildFunc, opts builder.BuildOptions,
) {
	var lastBuildTime time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !isRebuildEvent(event) || time.Since(lastBuildTime) <= debounceDuration {
				continue
			}

			// Let editors finish writing before reading the tree.
			time.Sleep(100 * time.Millisecond)

			log.Printf("Change detected in %s, rebuilding...", event.Name)
			if err := buildFunc(ctx, opts); err != nil {
				log.Printf("Error rebuilding site: %v", err)
			} else {
				log.Println("Site rebuilt successfully. Triggering reload...")
				hub.reload()
			}
			lastBuildTime = time.Now()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)
		}
	}
}

func isRebuildEvent(event fsnotify.Event) bool {
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

func liveReloadWrapper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")

		isHTML := strings.HasSuffix(r.URL.Path, ".html") || strings.HasSuffix(r.URL.Path, "/")
		if !isHTML {
			next.ServeHTTP(w, r)
			return
		}

		iw := newInterceptingWriter(w)
		next.ServeHTTP(iw, r)

		for key, values := range iw.Header() {
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}

		bodyBytes := iw.body.Bytes()

		if iw.statusCode != http.StatusOK {
			w.WriteHeader(iw.statusCode)
			_, _ = w.Write(bodyBytes)
			return
		}

		injectedBody := bytes.Replace(bodyBytes, []byte("</body>"), []byte(liveReloadScript+"</body>"), 1)
		w.Header().Set("Content-Length", fmt.Sprint(len(injectedBody)))
		w.WriteHeader(iw.statusCode)
		_, _ = w.Write(injectedBody)
	})
}

// interceptingWriter buffers a response so the reload script can be injected.
type interceptingWriter struct {
	http.ResponseWriter
	body       *bytes.Buffer
	statusCode int
	header     http.Header
}

func newInterceptingWriter(w http.ResponseWriter) *interceptingWriter {
	return &interceptingWriter{
		ResponseWriter: w,
		body:           new(bytes.Buffer),
		header:         make(http.Header),
		statusCode:     http.StatusOK,
	}
}

func (iw *interceptingWriter) Header() http.Header {
	return iw.header
}

func (iw *interceptingWriter) Write(b []byte) (int, error) {
	return iw.body.Write(b)
}

func (iw *interceptingWriter) WriteHeader(statusCode int) {
	iw.statusCode = statusCode
}

const liveReloadScript = `
<script>
  (function() {
    let socket = new WebSocket("ws://" + window.location.host + "/ws");
    socket.onmessage = function(event) {
      if (event.data === "reload") {
        window.location.reload();
      }
    };
    socket.onerror = function() {
      console.error("Live reload connection error. Please restart 'sidedoc serve'.");
    };
  })();
</script>
`
