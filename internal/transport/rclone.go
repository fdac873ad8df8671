package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/puffious/rclone-pool/internal/pacer"
	"github.com/puffious/rclone-pool/internal/poolerrors"
	"github.com/puffious/rclone-pool/internal/rclog"
)

// Rclone is the real Transport: it shells out to the rclone binary for
// every operation.
type Rclone struct {
	Binary  string
	Flags   []string
	Timeout time.Duration
	Pacer   *pacer.Pacer
}

// New builds a Rclone transport. retryBase/maxRetries feed the pacer that
// wraps every subprocess call; timeout bounds a single subprocess attempt.
func New(binary string, flags []string, timeout time.Duration, retryBase time.Duration, maxRetries int) *Rclone {
	return &Rclone{
		Binary:  binary,
		Flags:   flags,
		Timeout: timeout,
		Pacer:   pacer.New(retryBase, maxRetries),
	}
}

func (r *Rclone) run(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
	var stdout, stderr []byte
	err := r.Pacer.Call(ctx, poolerrors.Retryable, func(ctx context.Context) error {
		runCtx := ctx
		var cancel context.CancelFunc
		if r.Timeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
			defer cancel()
		}
		fullArgs := append(append([]string{}, r.Flags...), args...)
		cmd := exec.CommandContext(runCtx, r.Binary, fullArgs...)
		if stdin != nil {
			cmd.Stdin = bytes.NewReader(stdin)
		}
		var outBuf, errBuf bytes.Buffer
		cmd.Stdout = &outBuf
		cmd.Stderr = &errBuf
		rclog.Debugf("transport: exec %s %s", r.Binary, strings.Join(fullArgs, " "))
		runErr := cmd.Run()
		stdout, stderr = outBuf.Bytes(), errBuf.Bytes()
		if runErr == nil {
			return nil
		}
		if runCtx.Err() == context.DeadlineExceeded {
			return poolerrors.Wrapf(poolerrors.KindTransportTimeout, runErr, "rclone %s timed out: %s", args[0], strings.TrimSpace(errBuf.String()))
		}
		return poolerrors.Wrapf(poolerrors.KindTransportError, runErr, "rclone %s failed: %s", args[0], strings.TrimSpace(errBuf.String()))
	})
	if err != nil {
		return stderr, err
	}
	return stdout, nil
}

func remotePath(remote, path string) string {
	return remote + path
}

// Put uploads a local file to remote:path.
func (r *Rclone) Put(ctx context.Context, localPath, remote, path string) error {
	_, err := r.run(ctx, nil, "copyto", localPath, remotePath(remote, path))
	return err
}

// PutBytes uploads data directly to remote:path via rclone's rcat, which
// reads the object from stdin without needing a local file.
func (r *Rclone) PutBytes(ctx context.Context, data []byte, remote, path string) error {
	_, err := r.run(ctx, data, "rcat", remotePath(remote, path))
	return err
}

// Get downloads remote:path to a local file.
func (r *Rclone) Get(ctx context.Context, remote, path, localPath string) error {
	_, err := r.run(ctx, nil, "copyto", remotePath(remote, path), localPath)
	return err
}

// GetBytes downloads remote:path fully into memory via rclone cat.
func (r *Rclone) GetBytes(ctx context.Context, remote, path string) ([]byte, error) {
	return r.run(ctx, nil, "cat", remotePath(remote, path))
}

// GetRange downloads a byte window of remote:path via rclone cat's
// --offset/--count flags, the subprocess analogue of an HTTP Range request.
func (r *Rclone) GetRange(ctx context.Context, remote, path string, offset, length int64) ([]byte, error) {
	return r.run(ctx, nil, "cat",
		"--offset", strconv.FormatInt(offset, 10),
		"--count", strconv.FormatInt(length, 10),
		remotePath(remote, path))
}

// Delete removes remote:path.
func (r *Rclone) Delete(ctx context.Context, remote, path string) error {
	_, err := r.run(ctx, nil, "deletefile", remotePath(remote, path))
	return err
}

// ListFiles lists file (not directory) entries directly under remote:prefix.
func (r *Rclone) ListFiles(ctx context.Context, remote, prefix string) ([]string, error) {
	out, err := r.run(ctx, nil, "lsf", "--files-only", remotePath(remote, prefix))
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// ListDirs lists directory entries directly under remote:prefix.
func (r *Rclone) ListDirs(ctx context.Context, remote, prefix string) ([]string, error) {
	out, err := r.run(ctx, nil, "lsf", "--dirs-only", remotePath(remote, prefix))
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

type aboutJSON struct {
	Used  int64 `json:"used"`
	Free  int64 `json:"free"`
	Total int64 `json:"total"`
}

// About reports the remote's used/free/total space via rclone about --json.
func (r *Rclone) About(ctx context.Context, remote string) (About, error) {
	out, err := r.run(ctx, nil, "about", "--json", remote)
	if err != nil {
		return About{}, err
	}
	var a aboutJSON
	if err := json.Unmarshal(out, &a); err != nil {
		return About{}, poolerrors.Wrap(poolerrors.KindTransportError, err, "parse about output")
	}
	return About{Used: a.Used, Free: a.Free, Total: a.Total}, nil
}

// Exists reports whether remote:path names an existing object.
func (r *Rclone) Exists(ctx context.Context, remote, path string) (bool, error) {
	out, err := r.run(ctx, nil, "lsf", remotePath(remote, path))
	if err != nil {
		if poolerrors.Kind(err) == poolerrors.KindTransportError {
			return false, nil
		}
		return false, err
	}
	return len(strings.TrimSpace(string(out))) > 0, nil
}

func splitLines(out []byte) []string {
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	result := make([]string, 0, len(lines))
	for _, l := range lines {
		if l != "" {
			result = append(result, l)
		}
	}
	return result
}
