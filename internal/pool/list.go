package pool

import "context"

// FileSummary is one row of a List result.
type FileSummary struct {
	FilePath   string
	FileSize   int64
	ChunkCount int
	CreatedAt  float64
	Remotes    []string
}

// List enumerates files whose virtual path has the given prefix, returning
// a per-file summary including the set of remotes holding any of its
// chunks.
func (p *Pool) List(ctx context.Context, dirPrefix string) ([]FileSummary, error) {
	manifests, err := p.store.List(ctx, dirPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]FileSummary, 0, len(manifests))
	for _, m := range manifests {
		out = append(out, FileSummary{
			FilePath:   m.FilePath,
			FileSize:   m.FileSize,
			ChunkCount: m.ChunkCount,
			CreatedAt:  m.CreatedAt,
			Remotes:    m.Remotes(),
		})
	}
	return out, nil
}
