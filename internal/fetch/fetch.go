// Package fetch implements the idempotent, checksum-gated asset download
// used for model weights and other large artifacts. A fetch whose target
// already carries the expected checksum performs no network I/O at all, and
// a checksum mismatch is always reported, never silently accepted.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// ErrChecksumMismatch is returned when a downloaded artifact does not hash
// to the expected digest. The error message carries both digests so the
// caller can decide what to trust.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// Result reports what one Fetch call actually did.
type Result struct {
	// Skipped is true when the local file already matched and no network
	// transfer happened.
	Skipped bool
	// SHA256 is the hex digest of the file now at the target path, or of
	// the rejected download on a mismatch.
	SHA256 string
	// Bytes is the number of bytes transferred; zero when skipped.
	Bytes int64
}

// Fetch downloads url to target unless target already hashes to wantSHA256.
// Downloads go through a .partial file that is renamed into place only after
// the checksum has been verified, so the target path never holds a
// half-written or mismatching artifact.
func Fetch(ctx context.Context, client *http.Client, target, url, wantSHA256 string) (*Result, error) {
	if wantSHA256 == "" {
		return nil, errors.New("expected checksum must not be empty")
	}
	if client == nil {
		client = http.DefaultClient
	}

	if existing, err := fileSHA256(target); err == nil && existing == wantSHA256 {
		return &Result{Skipped: true, SHA256: existing}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, err
	}
	partial := target + ".partial"
	f, err := os.Create(partial)
	if err != nil {
		return nil, err
	}

	hash := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, hash), resp.Body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(partial)
		return nil, fmt.Errorf("downloading %s: %w", url, err)
	}

	got := hex.EncodeToString(hash.Sum(nil))
	if got != wantSHA256 {
		os.Remove(partial)
		return &Result{SHA256: got, Bytes: n}, fmt.Errorf("%w: %s: want %s, got %s", ErrChecksumMismatch, url, wantSHA256, got)
	}

	if err := os.Rename(partial, target); err != nil {
		os.Remove(partial)
		return nil, err
	}
	return &Result{SHA256: got, Bytes: n}, nil
}

// fileSHA256 hashes an existing file.
func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
