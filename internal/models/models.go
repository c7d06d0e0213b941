// ============================================================================
// EchoType - Hands-Free Dictation
// ============================================================================
//
// Package:     models
// Description: Whisper model catalog and downloader
// Created:     2026-08-30
// License:     MIT
// ============================================================================

package models

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Model describes one downloadable whisper model
type Model struct {
	Name     string // catalog name, e.g. "base.en"
	FileName string // file name on disk, e.g. "ggml-base.en.bin"
	URL      string
	SHA256   string // hex digest, empty means no verification
	SizeMB   int    // approximate, for display only
}

const ggmlBase = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

// catalog lists the models EchoType knows how to fetch. Checksums are not
// pinned upstream, so verification only runs when a digest is configured.
var catalog = []Model{
	{Name: "tiny", FileName: "ggml-tiny.bin", URL: ggmlBase + "ggml-tiny.bin", SizeMB: 75},
	{Name: "tiny.en", FileName: "ggml-tiny.en.bin", URL: ggmlBase + "ggml-tiny.en.bin", SizeMB: 75},
	{Name: "base", FileName: "ggml-base.bin", URL: ggmlBase + "ggml-base.bin", SizeMB: 142},
	{Name: "base.en", FileName: "ggml-base.en.bin", URL: ggmlBase + "ggml-base.en.bin", SizeMB: 142},
	{Name: "small", FileName: "ggml-small.bin", URL: ggmlBase + "ggml-small.bin", SizeMB: 466},
	{Name: "small.en", FileName: "ggml-small.en.bin", URL: ggmlBase + "ggml-small.en.bin", SizeMB: 466},
	{Name: "medium", FileName: "ggml-medium.bin", URL: ggmlBase + "ggml-medium.bin", SizeMB: 1500},
	{Name: "large-v3", FileName: "ggml-large-v3.bin", URL: ggmlBase + "ggml-large-v3.bin", SizeMB: 2900},
}

// List returns the catalog sorted by name
func List() []Model {
	out := make([]Model, len(catalog))
	copy(out, catalog)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup finds a model by catalog name
func Lookup(name string) (Model, error) {
	for _, m := range catalog {
		if m.Name == name {
			return m, nil
		}
	}
	return Model{}, fmt.Errorf("unknown model: %s", name)
}

// ProgressFunc reports download progress. total is 0 when the server does
// not announce a content length.
type ProgressFunc func(downloaded, total int64)

// Store manages downloaded model files in a directory
type Store struct {
	fs     afero.Fs
	dir    string
	client *http.Client
	logger *slog.Logger
}

// NewStore creates a model store rooted at dir
func NewStore(fs afero.Fs, dir string, logger *slog.Logger) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		fs:  fs,
		dir: dir,
		// Large models over slow links take a while
		client: &http.Client{Timeout: time.Hour},
		logger: logger,
	}
}

// Path returns the on-disk path for a model
func (s *Store) Path(m Model) string {
	return filepath.Join(s.dir, m.FileName)
}

// Installed reports whether the model file exists
func (s *Store) Installed(m Model) (bool, error) {
	_, err := s.fs.Stat(s.Path(m))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// InstalledNames returns catalog names of all installed models
func (s *Store) InstalledNames() ([]string, error) {
	var names []string
	for _, m := range catalog {
		ok, err := s.Installed(m)
		if err != nil {
			return nil, err
		}
		if ok {
			names = append(names, m.Name)
		}
	}
	return names, nil
}

// Download fetches a model into the store. The file is written to a .part
// path first and renamed once complete; a checksum mismatch deletes it.
func (s *Store) Download(ctx context.Context, m Model, progress ProgressFunc) error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to download server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	partPath := s.Path(m) + ".part"
	f, err := s.fs.Create(partPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	hasher := sha256.New()
	total := resp.ContentLength
	if total < 0 {
		total = 0
	}

	var downloaded int64
	buf := make([]byte, 64*1024)
	for {
		if err := ctx.Err(); err != nil {
			f.Close()
			s.fs.Remove(partPath)
			return err
		}
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := f.Write(buf[:n]); err != nil {
				f.Close()
				s.fs.Remove(partPath)
				return fmt.Errorf("failed to write to file: %w", err)
			}
			hasher.Write(buf[:n])
			downloaded += int64(n)
			if progress != nil {
				progress(downloaded, total)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			f.Close()
			s.fs.Remove(partPath)
			return fmt.Errorf("failed to read response: %w", readErr)
		}
	}

	if err := f.Close(); err != nil {
		s.fs.Remove(partPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if m.SHA256 != "" {
		sum := hex.EncodeToString(hasher.Sum(nil))
		if !strings.EqualFold(sum, m.SHA256) {
			s.fs.Remove(partPath)
			return fmt.Errorf("checksum mismatch for %s: got %s, want %s", m.Name, sum, m.SHA256)
		}
	}

	if err := s.fs.Rename(partPath, s.Path(m)); err != nil {
		s.fs.Remove(partPath)
		return fmt.Errorf("failed to finalize download: %w", err)
	}

	s.logger.Info("model downloaded", "model", m.Name, "bytes", downloaded)
	return nil
}

// Remove deletes an installed model file
func (s *Store) Remove(m Model) error {
	ok, err := s.Installed(m)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("model not installed: %s", m.Name)
	}
	return s.fs.Remove(s.Path(m))
}
