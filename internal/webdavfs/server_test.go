package webdavfs

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/puffious/rclone-pool/internal/pool"
	"github.com/puffious/rclone-pool/internal/poolconfig"
	"github.com/puffious/rclone-pool/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*pool.Pool, http.Handler) {
	t.Helper()
	ft := transport.NewFake()
	cfg := &poolconfig.Config{
		Remotes:            []string{"r0:", "r1:"},
		ChunkSize:          100,
		DataPrefix:         "data",
		ManifestPrefix:     "manifests",
		TempDir:            t.TempDir(),
		MaxParallelWorkers: 4,
		BalancingStrategy:  poolconfig.StrategyLeastUsed,
	}
	p, err := pool.New(context.Background(), cfg, ft)
	require.NoError(t, err)
	return p, NewServer(p)
}

func TestServerPutThenGetRoundTrips(t *testing.T) {
	_, h := newTestServer(t)

	put := httptest.NewRequest(http.MethodPut, "/a.txt", strings.NewReader("hello world"))
	putRec := httptest.NewRecorder()
	h.ServeHTTP(putRec, put)
	assert.Equal(t, http.StatusCreated, putRec.Code)

	get := httptest.NewRequest(http.MethodGet, "/a.txt", nil)
	getRec := httptest.NewRecorder()
	h.ServeHTTP(getRec, get)
	assert.Equal(t, http.StatusOK, getRec.Code)
	assert.Equal(t, "hello world", getRec.Body.String())
}

func TestServerGetRangeReturnsPartialContent(t *testing.T) {
	p, h := newTestServer(t)
	src := filepath.Join(t.TempDir(), "src")
	require.NoError(t, os.WriteFile(src, bytes.Repeat([]byte("A"), 250), 0o600))
	_, err := p.Upload(context.Background(), src, "/a.bin", false, 1000)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/a.bin", nil)
	req.Header.Set("Range", "bytes=90-109")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, 20, rec.Body.Len())
	assert.Equal(t, "bytes 90-109/250", rec.Header().Get("Content-Range"))
}

func TestServerGetUnsatisfiableRangeReturns416(t *testing.T) {
	p, h := newTestServer(t)
	src := filepath.Join(t.TempDir(), "src")
	require.NoError(t, os.WriteFile(src, bytes.Repeat([]byte("A"), 250), 0o600))
	_, err := p.Upload(context.Background(), src, "/a.bin", false, 1000)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/a.bin", nil)
	req.Header.Set("Range", "bytes=300-400")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
	assert.Equal(t, "bytes */250", rec.Header().Get("Content-Range"))
}

func TestServerDeleteThenGetIs404(t *testing.T) {
	p, h := newTestServer(t)
	src := filepath.Join(t.TempDir(), "src")
	require.NoError(t, os.WriteFile(src, []byte("bye"), 0o600))
	_, err := p.Upload(context.Background(), src, "/gone.txt", false, 1000)
	require.NoError(t, err)

	del := httptest.NewRequest(http.MethodDelete, "/gone.txt", nil)
	delRec := httptest.NewRecorder()
	h.ServeHTTP(delRec, del)
	assert.Equal(t, http.StatusNoContent, delRec.Code)

	get := httptest.NewRequest(http.MethodGet, "/gone.txt", nil)
	getRec := httptest.NewRecorder()
	h.ServeHTTP(getRec, get)
	assert.Equal(t, http.StatusNotFound, getRec.Code)
}

func TestServerOptionsAdvertisesWebDAV(t *testing.T) {
	p, h := newTestServer(t)
	src := filepath.Join(t.TempDir(), "src")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o600))
	_, err := p.Upload(context.Background(), src, "/a.txt", false, 1000)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodOptions, "/a.txt", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("Dav"))
	assert.Contains(t, rec.Header().Get("Allow"), "GET")
}

func TestServerPutTwiceReturnsCreatedThenNoContent(t *testing.T) {
	_, h := newTestServer(t)

	first := httptest.NewRequest(http.MethodPut, "/a.txt", strings.NewReader("v1"))
	firstRec := httptest.NewRecorder()
	h.ServeHTTP(firstRec, first)
	assert.Equal(t, http.StatusCreated, firstRec.Code)

	second := httptest.NewRequest(http.MethodPut, "/a.txt", strings.NewReader("v2"))
	secondRec := httptest.NewRecorder()
	h.ServeHTTP(secondRec, second)
	assert.Equal(t, http.StatusNoContent, secondRec.Code)

	get := httptest.NewRequest(http.MethodGet, "/a.txt", nil)
	getRec := httptest.NewRecorder()
	h.ServeHTTP(getRec, get)
	assert.Equal(t, "v2", getRec.Body.String())
}

func TestServerMoveOntoExistingDestinationReturns409(t *testing.T) {
	p, h := newTestServer(t)
	src := filepath.Join(t.TempDir(), "src")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o600))
	_, err := p.Upload(context.Background(), src, "/old.txt", false, 1000)
	require.NoError(t, err)
	_, err = p.Upload(context.Background(), src, "/new.txt", false, 1000)
	require.NoError(t, err)

	req := httptest.NewRequest("MOVE", "/old.txt", nil)
	req.Header.Set("Destination", "/new.txt")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// the source is untouched since the conflict was caught before Rename ran
	get := httptest.NewRequest(http.MethodGet, "/old.txt", nil)
	getRec := httptest.NewRecorder()
	h.ServeHTTP(getRec, get)
	assert.Equal(t, http.StatusOK, getRec.Code)
}

func TestServerMoveOntoNewDestinationSucceeds(t *testing.T) {
	p, h := newTestServer(t)
	src := filepath.Join(t.TempDir(), "src")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o600))
	_, err := p.Upload(context.Background(), src, "/old.txt", false, 1000)
	require.NoError(t, err)

	req := httptest.NewRequest("MOVE", "/old.txt", nil)
	req.Header.Set("Destination", "/new.txt")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	get := httptest.NewRequest(http.MethodGet, "/new.txt", nil)
	getRec := httptest.NewRecorder()
	h.ServeHTTP(getRec, get)
	assert.Equal(t, http.StatusOK, getRec.Code)
}

func TestServerPropfindRejectsBadDepth(t *testing.T) {
	p, h := newTestServer(t)
	src := filepath.Join(t.TempDir(), "src")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o600))
	_, err := p.Upload(context.Background(), src, "/a.txt", false, 1000)
	require.NoError(t, err)

	for _, depth := range []string{"5", "infinity", ""} {
		req := httptest.NewRequest("PROPFIND", "/a.txt", nil)
		if depth != "" {
			req.Header.Set("Depth", depth)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, "Depth=%q", depth)
	}
}

func TestServerPropfindAllowsDepthZeroAndOne(t *testing.T) {
	p, h := newTestServer(t)
	src := filepath.Join(t.TempDir(), "src")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o600))
	_, err := p.Upload(context.Background(), src, "/a.txt", false, 1000)
	require.NoError(t, err)

	for _, depth := range []string{"0", "1"} {
		req := httptest.NewRequest("PROPFIND", "/a.txt", nil)
		req.Header.Set("Depth", depth)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusMultiStatus, rec.Code, "Depth=%q", depth)
	}
}

func TestServerDirectoryListingForBrowser(t *testing.T) {
	p, h := newTestServer(t)
	src := filepath.Join(t.TempDir(), "src")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o600))
	_, err := p.Upload(context.Background(), src, "/docs/a.txt", false, 1000)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/docs/", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "a.txt")
}
