package webdavfs

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/webdav"

	"github.com/puffious/rclone-pool/internal/pool"
	"github.com/puffious/rclone-pool/internal/rclog"
)

// NewServer builds an http.Handler serving p over WebDAV. A
// golang.org/x/net/webdav.Handler does the protocol work (PROPFIND, MOVE,
// MKCOL, Range-aware GET/HEAD via http.ServeContent); a chi router in front
// of it adds request logging and splices in an HTML directory listing for
// browser GETs, which the bare protocol engine doesn't serve.
func NewServer(p *pool.Pool) http.Handler {
	fsys := New(p)
	engine := &webdav.Handler{
		FileSystem: fsys,
		LockSystem: webdav.NewMemLS(),
		Logger: func(r *http.Request, err error) {
			if err != nil {
				rclog.Noticef("webdav %s %s: %v", r.Method, r.URL.Path, err)
			}
		},
	}

	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Use(browserListing(fsys))
	r.Use(putOverwriteStatus(fsys))
	r.Use(moveConflictCheck(fsys))
	r.Use(propfindDepthCheck)
	r.Handle("/*", engine)
	return r
}

// browserListing intercepts plain GETs from a browser (Accept: text/html)
// against a directory and serves an index page instead of falling through
// to the protocol engine, which only knows how to serve files and rejects
// GET on a collection with 405.
func browserListing(fsys *FS) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html") {
				if fsys.serveDirectoryListing(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// putOverwriteStatus records whether a PUT's destination already had a
// manifest before the write happens, then downgrades the protocol engine's
// response from 201 to 204 when it did. golang.org/x/net/webdav.Handler
// always answers a successful PUT with 201, regardless of whether the
// destination existed.
func putOverwriteStatus(fsys *FS) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut {
				next.ServeHTTP(w, r)
				return
			}
			_, err := fsys.Stat(r.Context(), r.URL.Path)
			next.ServeHTTP(&putStatusWriter{ResponseWriter: w, existed: err == nil}, r)
		})
	}
}

// putStatusWriter rewrites a 201 response to 204 when existed is set.
type putStatusWriter struct {
	http.ResponseWriter
	existed bool
}

func (w *putStatusWriter) WriteHeader(status int) {
	if w.existed && status == http.StatusCreated {
		status = http.StatusNoContent
	}
	w.ResponseWriter.WriteHeader(status)
}

// moveConflictCheck pre-checks a MOVE's destination and answers 409
// directly when a manifest already exists there. golang.org/x/net/webdav's
// MOVE handler only pre-checks destination existence when the client sends
// "Overwrite: F"; with the RFC-default Overwrite (header absent, meaning
// true) it skips that check, calls FS.Rename directly, and since the
// resulting AlreadyExists error isn't os.IsNotExist, surfaces it as 403.
// This frontend never allows MOVE to overwrite, so the pre-check runs
// unconditionally.
func moveConflictCheck(fsys *FS) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != "MOVE" {
				next.ServeHTTP(w, r)
				return
			}
			dest, err := destinationPath(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if _, err := fsys.Stat(r.Context(), dest); err == nil {
				http.Error(w, "destination already exists", http.StatusConflict)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func destinationPath(r *http.Request) (string, error) {
	dest := r.Header.Get("Destination")
	if dest == "" {
		return "", errors.New("MOVE requires a Destination header")
	}
	u, err := url.Parse(dest)
	if err != nil {
		return "", fmt.Errorf("invalid Destination header: %w", err)
	}
	return clean(u.Path), nil
}

// propfindDepthCheck rejects any Depth other than "0" or "1" with 403.
// golang.org/x/net/webdav treats a missing header, or "infinity", as a
// valid, fully recursive listing, and only answers 400 on a genuinely
// malformed value — it never enforces this frontend's 0-or-1-only rule.
func propfindDepthCheck(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "PROPFIND" {
			switch r.Header.Get("Depth") {
			case "0", "1":
			default:
				http.Error(w, "Depth must be 0 or 1", http.StatusForbidden)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		rclog.Infof("%s %s %d %dB %s", r.Method, r.URL.Path, sw.status, sw.bytes, time.Since(start))
	})
}

// statusWriter captures the status code and byte count of a response so
// requestLogger can report them; webdav.Handler never exposes them itself.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}
