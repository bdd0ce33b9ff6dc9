package file

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
)

// Archive is a temporary zip file handed to the caller as a stream. Closing
// it removes the file from disk, so cleanup happens on every exit path as
// long as the caller defers Close.
type Archive struct {
	file *os.File
	size int64
}

func (a *Archive) Read(p []byte) (int, error) {
	return a.file.Read(p)
}

// Size returns the archive size in bytes.
func (a *Archive) Size() int64 {
	return a.size
}

// Close closes and deletes the underlying temporary file.
func (a *Archive) Close() error {
	path := a.file.Name()
	closeErr := a.file.Close()
	if err := os.Remove(path); err != nil && closeErr == nil {
		return err
	}
	return closeErr
}

// buildArchive streams the given blobs into a temporary zip. On failure the
// partial file is removed before returning.
func buildArchive(ctx context.Context, store objectStore, bucket string, members []Metadata) (*Archive, error) {
	tmp, err := os.CreateTemp("", "filevault-*.zip")
	if err != nil {
		return nil, fmt.Errorf("create archive file: %w", err)
	}

	archive, err := writeArchive(ctx, tmp, store, bucket, members)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, err
	}
	return archive, nil
}

func writeArchive(ctx context.Context, tmp *os.File, store objectStore, bucket string, members []Metadata) (*Archive, error) {
	zw := zip.NewWriter(tmp)
	for _, meta := range members {
		object, err := store.GetObject(ctx, bucket, meta.ObjectName(), minio.GetObjectOptions{})
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("fetch object %s: %w", meta.ID, err)
		}

		entry, err := zw.Create(archiveMemberName(meta))
		if err != nil {
			object.Close()
			zw.Close()
			return nil, fmt.Errorf("add archive member %q: %w", meta.Name, err)
		}

		_, err = io.Copy(entry, object)
		object.Close()
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("write archive member %q: %w", meta.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}

	info, err := tmp.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat archive: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind archive: %w", err)
	}

	return &Archive{file: tmp, size: info.Size()}, nil
}

// archiveMemberName keeps the stored display name, appending the extension
// only when the name does not already end with it.
func archiveMemberName(meta Metadata) string {
	if meta.Extension == "" || strings.HasSuffix(meta.Name, meta.Extension) {
		return meta.Name
	}
	return meta.Name + "." + meta.Extension
}
