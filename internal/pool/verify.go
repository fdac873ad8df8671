package pool

import (
	"context"

	"github.com/puffious/rclone-pool/internal/manifest"
)

// VerifyMode selects how thoroughly Verify checks a file's chunks.
type VerifyMode int

// Modes, from cheapest to most thorough.
const (
	// VerifyQuick checks presence only.
	VerifyQuick VerifyMode = iota
	// VerifyFull additionally fetches each chunk to check its real length.
	VerifyFull
)

// VerifyReport is the result of verifying one file's chunks against its
// manifest.
type VerifyReport struct {
	FilePath      string
	Missing       []manifest.ChunkDescriptor
	WrongSize     []manifest.ChunkDescriptor
}

// Verify checks a file's chunks against its manifest. Quick mode checks
// existence only; full mode additionally fetches and compares chunk length
// against the manifest's recorded size.
func (p *Pool) Verify(ctx context.Context, filePath string, mode VerifyMode) (*VerifyReport, error) {
	m, err := p.store.Load(ctx, filePath)
	if err != nil {
		return nil, err
	}
	report := &VerifyReport{FilePath: filePath}
	for _, c := range m.Chunks {
		ok, err := p.transport.Exists(ctx, c.Remote, c.Path)
		if err != nil || !ok {
			report.Missing = append(report.Missing, c)
			continue
		}
		if mode == VerifyFull {
			data, err := p.transport.GetBytes(ctx, c.Remote, c.Path)
			if err != nil {
				report.Missing = append(report.Missing, c)
				continue
			}
			if int64(len(data)) != c.Size {
				report.WrongSize = append(report.WrongSize, c)
			}
		}
	}
	return report, nil
}
