// Package manifest defines the per-file chunk-layout record — the sole
// persisted metadata of the pool — and the rules for building and
// validating one.
package manifest

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/puffious/rclone-pool/internal/poolerrors"
)

// ChunkDescriptor is one chunk's placement record within a Manifest.
type ChunkDescriptor struct {
	Index  int    `json:"index"`
	Remote string `json:"remote"`
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Offset int64  `json:"offset"`
}

// Manifest is the per-file record: version, the virtual path, its derived
// name/directory, total size, the chunk size that was used, and the
// ordered chunk layout.
type Manifest struct {
	Version    int               `json:"version"`
	FilePath   string            `json:"file_path"`
	FileName   string            `json:"file_name"`
	RemoteDir  string            `json:"remote_dir"`
	FileSize   int64             `json:"file_size"`
	ChunkSize  int64             `json:"chunk_size"`
	ChunkCount int               `json:"chunk_count"`
	Chunks     []ChunkDescriptor `json:"chunks"`
	CreatedAt  float64           `json:"created_at"`

	// Checksum is a weak integrity marker, not a durability mechanism:
	// "md5:<hex>" of the whole file as it was read during Upload, the same
	// default digest backend/chunker uses for its own meta object.
	Checksum string `json:"checksum"`

	// Extra preserves JSON keys this struct doesn't know about, so a
	// load-then-save round trip echoes them back unchanged.
	Extra map[string]json.RawMessage `json:"-"`
}

// CurrentVersion is the manifest format version this package writes.
const CurrentVersion = 1

// Split splits filePath into its remote directory and file name components.
func Split(filePath string) (remoteDir, fileName string) {
	remoteDir = path.Dir(filePath)
	if remoteDir == "." {
		remoteDir = "/"
	}
	fileName = path.Base(filePath)
	return
}

// New builds and validates a Manifest from a completed chunk layout. now is
// the unix-seconds creation timestamp (caller-supplied so this package
// never calls time.Now() itself, keeping it a pure function like the rest
// of the module).
func New(filePath string, fileSize, chunkSize int64, chunks []ChunkDescriptor, now float64, checksum string) (*Manifest, error) {
	remoteDir, fileName := Split(filePath)
	m := &Manifest{
		Version:    CurrentVersion,
		FilePath:   filePath,
		FileName:   fileName,
		RemoteDir:  remoteDir,
		FileSize:   fileSize,
		ChunkSize:  chunkSize,
		ChunkCount: len(chunks),
		Chunks:     chunks,
		CreatedAt:  now,
		Checksum:   checksum,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks internal chunk-layout invariants: index order, offset
// contiguity, size bounds, and that chunk sizes sum to file_size. Remote
// membership is checked separately by the caller against the configured
// remote list.
func (m *Manifest) Validate() error {
	if !strings.HasPrefix(m.FilePath, "/") {
		return poolerrors.Newf(poolerrors.KindManifestCorrupt, "file_path %q must start with /", m.FilePath)
	}
	if m.ChunkCount != len(m.Chunks) {
		return poolerrors.Newf(poolerrors.KindManifestCorrupt, "chunk_count %d does not match %d chunks", m.ChunkCount, len(m.Chunks))
	}
	var sum int64
	var wantOffset int64
	for i, c := range m.Chunks {
		if c.Index != i {
			return poolerrors.Newf(poolerrors.KindManifestCorrupt, "chunk %d has index %d", i, c.Index)
		}
		if c.Offset != wantOffset {
			return poolerrors.Newf(poolerrors.KindManifestCorrupt, "chunk %d offset %d, want %d", i, c.Offset, wantOffset)
		}
		if c.Size > m.ChunkSize {
			return poolerrors.Newf(poolerrors.KindManifestCorrupt, "chunk %d size %d exceeds chunk_size %d", i, c.Size, m.ChunkSize)
		}
		if c.Size < m.ChunkSize && i != len(m.Chunks)-1 {
			return poolerrors.Newf(poolerrors.KindManifestCorrupt, "only the last chunk may be smaller than chunk_size, chunk %d is", i)
		}
		if c.Size <= 0 && m.FileSize != 0 {
			return poolerrors.Newf(poolerrors.KindManifestCorrupt, "chunk %d has non-positive size %d", i, c.Size)
		}
		sum += c.Size
		wantOffset += c.Size
	}
	if sum != m.FileSize {
		return poolerrors.Newf(poolerrors.KindManifestCorrupt, "chunk sizes sum to %d, file_size is %d", sum, m.FileSize)
	}
	return nil
}

// Marshal serializes m to its canonical JSON form, echoing any Extra keys
// alongside the recognized fields.
func (m *Manifest) Marshal() ([]byte, error) {
	type alias Manifest
	buf, err := json.Marshal((*alias)(m))
	if err != nil {
		return nil, poolerrors.Wrap(poolerrors.KindManifestCorrupt, err, "marshal manifest")
	}
	if len(m.Extra) == 0 {
		return buf, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(buf, &merged); err != nil {
		return nil, poolerrors.Wrap(poolerrors.KindManifestCorrupt, err, "remarshal manifest")
	}
	for k, v := range m.Extra {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// Unmarshal parses raw JSON into a Manifest, preserving any unrecognized
// keys in Extra and validating the result.
func Unmarshal(raw []byte) (*Manifest, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, poolerrors.Wrap(poolerrors.KindManifestCorrupt, err, "parse manifest json")
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, poolerrors.Wrap(poolerrors.KindManifestCorrupt, err, "decode manifest fields")
	}
	known := map[string]bool{
		"version": true, "file_path": true, "file_name": true, "remote_dir": true,
		"file_size": true, "chunk_size": true, "chunk_count": true, "chunks": true,
		"created_at": true, "checksum": true,
	}
	m.Extra = map[string]json.RawMessage{}
	for k, v := range fields {
		if !known[k] {
			m.Extra[k] = v
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// ChunkName builds the on-remote chunk object name for the given virtual
// file path and zero-based index: "<sanitize(filePath)>.chunk.<index:03d>".
// Keying off the full path rather than the bare file name keeps chunks for
// "/a/x" and "/b/x" from landing on the same object name on a shared
// remote.
func ChunkName(filePath string, index int) string {
	return fmt.Sprintf("%s.chunk.%03d", Sanitize(filePath), index)
}

// Sanitize turns a virtual file path into the flat name used for the
// manifest object: replace "/" with "_", trim leading/trailing "_".
func Sanitize(filePath string) string {
	s := strings.ReplaceAll(filePath, "/", "_")
	return strings.Trim(s, "_")
}

// Name builds the on-remote manifest object name for a virtual file path:
// "<sanitize(filePath)>.manifest.json".
func Name(filePath string) string {
	return Sanitize(filePath) + ".manifest.json"
}

// Remotes returns the distinct set of remotes holding any chunk of m, in
// first-seen order.
func (m *Manifest) Remotes() []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range m.Chunks {
		if !seen[c.Remote] {
			seen[c.Remote] = true
			out = append(out, c.Remote)
		}
	}
	return out
}
