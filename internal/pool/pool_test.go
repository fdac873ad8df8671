package pool

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/puffious/rclone-pool/internal/poolconfig"
	"github.com/puffious/rclone-pool/internal/poolerrors"
	"github.com/puffious/rclone-pool/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, chunkSize int64) (*Pool, *transport.Fake) {
	t.Helper()
	ft := transport.NewFake()
	cfg := &poolconfig.Config{
		Remotes:            []string{"r0:", "r1:", "r2:"},
		ChunkSize:          chunkSize,
		DataPrefix:         "data",
		ManifestPrefix:     "manifests",
		TempDir:            t.TempDir(),
		MaxParallelWorkers: 4,
		MaxRetries:         0,
		BalancingStrategy:  poolconfig.StrategyLeastUsed,
	}
	p, err := New(context.Background(), cfg, ft)
	require.NoError(t, err)
	return p, ft
}

func writeSourceFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestUploadDownloadRoundTripS1(t *testing.T) {
	p, _ := newTestPool(t, 100)
	src := writeSourceFile(t, strings.Repeat("A", 250))

	m, err := p.Upload(context.Background(), src, "/t/a.bin", false, 1000)
	require.NoError(t, err)
	assert.Equal(t, 3, m.ChunkCount)
	assert.Equal(t, []int64{100, 100, 50}, []int64{m.Chunks[0].Size, m.Chunks[1].Size, m.Chunks[2].Size})
	assert.Equal(t, []int64{0, 100, 200}, []int64{m.Chunks[0].Offset, m.Chunks[1].Offset, m.Chunks[2].Offset})

	var out bytes.Buffer
	require.NoError(t, p.Download(context.Background(), "/t/a.bin", &out))
	assert.Equal(t, strings.Repeat("A", 250), out.String())
}

func TestUploadComputesChecksumOverFileContents(t *testing.T) {
	p, _ := newTestPool(t, 100)
	contents := strings.Repeat("A", 250)
	src := writeSourceFile(t, contents)

	m, err := p.Upload(context.Background(), src, "/t/a.bin", false, 1000)
	require.NoError(t, err)

	sum := md5.Sum([]byte(contents))
	assert.Equal(t, "md5:"+hex.EncodeToString(sum[:]), m.Checksum)
}

func TestDownloadRangeSingleChunkS2(t *testing.T) {
	p, _ := newTestPool(t, 100)
	src := writeSourceFile(t, strings.Repeat("A", 250))
	_, err := p.Upload(context.Background(), src, "/t/a.bin", false, 1000)
	require.NoError(t, err)

	got, err := p.DownloadRange(context.Background(), "/t/a.bin", 120, 10)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("A", 10), string(got))
}

func TestDownloadRangeCrossChunkS3(t *testing.T) {
	p, _ := newTestPool(t, 100)
	src := writeSourceFile(t, strings.Repeat("A", 250))
	_, err := p.Upload(context.Background(), src, "/t/a.bin", false, 1000)
	require.NoError(t, err)

	got, err := p.DownloadRange(context.Background(), "/t/a.bin", 90, 20)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("A", 20), string(got))
}

func TestDownloadRangeClampsLengthToEOF(t *testing.T) {
	p, _ := newTestPool(t, 100)
	src := writeSourceFile(t, strings.Repeat("A", 250))
	_, err := p.Upload(context.Background(), src, "/t/a.bin", false, 1000)
	require.NoError(t, err)

	got, err := p.DownloadRange(context.Background(), "/t/a.bin", 240, 100)
	require.NoError(t, err)
	assert.Len(t, got, 10)
}

func TestDownloadRangeRejectsStartBeyondFile(t *testing.T) {
	p, _ := newTestPool(t, 100)
	src := writeSourceFile(t, strings.Repeat("A", 250))
	_, err := p.Upload(context.Background(), src, "/t/a.bin", false, 1000)
	require.NoError(t, err)

	_, err = p.DownloadRange(context.Background(), "/t/a.bin", 300, 10)
	require.Error(t, err)
	assert.Equal(t, poolerrors.KindUnsatisfiableRange, poolerrors.Kind(err))
}

func TestDownloadRangeAtBoundaryIsNotZeroLength(t *testing.T) {
	p, _ := newTestPool(t, 100)
	src := writeSourceFile(t, strings.Repeat("A", 200))
	_, err := p.Upload(context.Background(), src, "/t/a.bin", false, 1000)
	require.NoError(t, err)

	got, err := p.DownloadRange(context.Background(), "/t/a.bin", 100, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestDeleteDurabilityS6(t *testing.T) {
	p, ft := newTestPool(t, 100)
	src := writeSourceFile(t, strings.Repeat("A", 250))
	m, err := p.Upload(context.Background(), src, "/t/a.bin", false, 1000)
	require.NoError(t, err)

	require.NoError(t, p.Delete(context.Background(), "/t/a.bin"))

	_, err = p.store.Load(context.Background(), "/t/a.bin")
	require.Error(t, err)
	assert.Equal(t, poolerrors.KindManifestNotFound, poolerrors.Kind(err))

	for _, c := range m.Chunks {
		_, ok := ft.Contents(c.Remote, c.Path)
		assert.False(t, ok)
	}
}

func TestUploadRefusesOverwriteWhenDisabled(t *testing.T) {
	p, _ := newTestPool(t, 100)
	src := writeSourceFile(t, "hello")
	_, err := p.Upload(context.Background(), src, "/a", false, 1000)
	require.NoError(t, err)

	_, err = p.Upload(context.Background(), src, "/a", false, 1001)
	require.Error(t, err)
	assert.Equal(t, poolerrors.KindAlreadyExists, poolerrors.Kind(err))
}

func TestUploadOverwriteRemovesOldChunks(t *testing.T) {
	p, ft := newTestPool(t, 100)
	src1 := writeSourceFile(t, strings.Repeat("A", 250))
	first, err := p.Upload(context.Background(), src1, "/a", false, 1000)
	require.NoError(t, err)

	src2 := writeSourceFile(t, strings.Repeat("B", 50))
	second, err := p.Upload(context.Background(), src2, "/a", true, 1001)
	require.NoError(t, err)

	assert.NotEqual(t, first.ChunkCount, second.ChunkCount)
	for _, c := range first.Chunks {
		_, ok := ft.Contents(c.Remote, c.Path)
		assert.False(t, ok, "old chunk %s%s should be gone", c.Remote, c.Path)
	}

	var out bytes.Buffer
	require.NoError(t, p.Download(context.Background(), "/a", &out))
	assert.Equal(t, strings.Repeat("B", 50), out.String())
}

func TestZeroByteFileRoundTrips(t *testing.T) {
	p, _ := newTestPool(t, 100)
	src := writeSourceFile(t, "")
	m, err := p.Upload(context.Background(), src, "/empty", false, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, m.ChunkCount)

	var out bytes.Buffer
	require.NoError(t, p.Download(context.Background(), "/empty", &out))
	assert.Empty(t, out.String())
}

func TestConcurrentUploadsToDistinctPathsDoNotInterfere(t *testing.T) {
	p, _ := newTestPool(t, 100)
	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := 0; i < 5; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			src := writeSourceFile(t, strings.Repeat("X", 10))
			_, err := p.Upload(context.Background(), src, filepath.ToSlash("/concurrent/"+string(rune('a'+i))), false, 1000)
			errs[i] = err
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
}

func TestVerifyQuickReportsMissingChunk(t *testing.T) {
	p, ft := newTestPool(t, 100)
	src := writeSourceFile(t, strings.Repeat("A", 150))
	m, err := p.Upload(context.Background(), src, "/a", false, 1000)
	require.NoError(t, err)

	require.NoError(t, ft.Delete(context.Background(), m.Chunks[0].Remote, m.Chunks[0].Path))

	report, err := p.Verify(context.Background(), "/a", VerifyQuick)
	require.NoError(t, err)
	require.Len(t, report.Missing, 1)
	assert.Equal(t, 0, report.Missing[0].Index)
}

func TestRepairRestoresMissingChunk(t *testing.T) {
	p, ft := newTestPool(t, 100)
	src := writeSourceFile(t, strings.Repeat("A", 150))
	m, err := p.Upload(context.Background(), src, "/a", false, 1000)
	require.NoError(t, err)
	require.NoError(t, ft.Delete(context.Background(), m.Chunks[0].Remote, m.Chunks[0].Path))

	repaired, err := p.Repair(context.Background(), "/a", src)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, p.Download(context.Background(), "/a", &out))
	assert.Equal(t, strings.Repeat("A", 150), out.String())
	_ = repaired
}

func TestMoveRenamesManifestWithoutTouchingChunks(t *testing.T) {
	p, ft := newTestPool(t, 100)
	src := writeSourceFile(t, strings.Repeat("A", 150))
	m, err := p.Upload(context.Background(), src, "/old", false, 1000)
	require.NoError(t, err)

	moved, err := p.Move(context.Background(), "/old", "/new")
	require.NoError(t, err)
	assert.Equal(t, "/new", moved.FilePath)

	_, err = p.store.Load(context.Background(), "/old")
	assert.Error(t, err)

	var out bytes.Buffer
	require.NoError(t, p.Download(context.Background(), "/new", &out))
	assert.Equal(t, strings.Repeat("A", 150), out.String())

	for _, c := range m.Chunks {
		_, ok := ft.Contents(c.Remote, c.Path)
		assert.True(t, ok, "chunk %s%s should survive a move", c.Remote, c.Path)
	}
}

func TestMoveFailsWhenDestinationExists(t *testing.T) {
	p, _ := newTestPool(t, 100)
	src := writeSourceFile(t, "hello")
	_, err := p.Upload(context.Background(), src, "/a", false, 1000)
	require.NoError(t, err)
	_, err = p.Upload(context.Background(), src, "/b", false, 1001)
	require.NoError(t, err)

	_, err = p.Move(context.Background(), "/a", "/b")
	require.Error(t, err)
	assert.Equal(t, poolerrors.KindAlreadyExists, poolerrors.Kind(err))
}

func TestStatusReportsBalancerView(t *testing.T) {
	p, _ := newTestPool(t, 100)
	report := p.Status()
	assert.Len(t, report, 3)
}
