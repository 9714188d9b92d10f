package metacache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/palletworks/pallet/internal/logger"
)

// Synthesize creates placeholder files for every cached download of
// the listed recipes, so autopkg's check phase sees the same files a
// previous run left behind. A placeholder has the recorded size but no
// real content, plus the etag and last-modified attributes the server
// sent. Existing files are left alone, so running this twice is a
// no-op. The number of files created is returned.
func Synthesize(recipes []string, cache Cache) (int, error) {
	logger.Debug("Creating dummy files...")

	created := 0
	for _, name := range recipes {
		entry, ok := cache[name]
		if !ok {
			continue
		}

		logger.Info("Creating dummy files for %s...", name)
		for _, meta := range entry.Metadata {
			if meta.FilePath == "" {
				logger.Warn("Skipping dummy file creation: missing 'file_path' in %s cache", name)
				continue
			}
			if meta.FileSize <= 0 {
				logger.Warn("Skipping dummy file creation: missing 'file_size' in %s cache", name)
				continue
			}
			if _, err := os.Stat(meta.FilePath); err == nil {
				logger.Info("Skipping dummy file creation: %s already exists.", meta.FilePath)
				continue
			}

			if err := synthesizeFile(meta); err != nil {
				return created, err
			}
			created++
		}
	}

	logger.Debug("Dummy files created.")
	return created, nil
}

func synthesizeFile(meta DownloadMetadata) error {
	if err := os.MkdirAll(filepath.Dir(meta.FilePath), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", meta.FilePath, err)
	}

	if err := setFileSize(meta.FilePath, meta.FileSize); err != nil {
		return err
	}

	// Attribute failures are survivable: the file still matches on
	// size, the next check just cannot reuse the conditional headers.
	if meta.ETag != "" {
		if err := setFileAttr(meta.FilePath, AttrETag, meta.ETag); err != nil {
			logger.Warn("failed to set etag on %s: %v", meta.FilePath, err)
		}
	}
	if meta.LastModified != "" {
		if err := setFileAttr(meta.FilePath, AttrLastModified, meta.LastModified); err != nil {
			logger.Warn("failed to set last-modified on %s: %v", meta.FilePath, err)
		}
	}
	return nil
}

// setFileSize grows an empty file to the wanted length by writing a
// single zero byte at the end, like `mkfile -n` does. Sparse on any
// filesystem that supports holes, so a 2 GB placeholder costs nothing.
func setFileSize(path string, size int64) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create dummy file %s: %w", path, err)
	}

	if _, err := f.Seek(size-1, io.SeekStart); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to seek in dummy file %s: %w", path, err)
	}
	if _, err := f.Write([]byte{0}); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write dummy file %s: %w", path, err)
	}
	return f.Close()
}
