// Package archive writes state backups as tar.gz files.
package archive

import (
	"context"
	"os"

	"github.com/mholt/archives"
	"github.com/pkg/errors"
)

var format = archives.CompressedArchive{
	Compression: archives.Gz{},
	Archival:    archives.Tar{},
	Extraction:  archives.Tar{},
}

// TarGz writes the given files to target. The map keys are paths on disk,
// the values their names inside the archive.
func TarGz(ctx context.Context, target string, files map[string]string) error {
	entries, err := archives.FilesFromDisk(ctx, nil, files)
	if err != nil {
		return errors.Wrap(err, "could not collect files")
	}

	out, err := os.Create(target)
	if err != nil {
		return errors.Wrapf(err, "could not create archive: %s", target)
	}
	defer out.Close()

	if err := format.Archive(ctx, out, entries); err != nil {
		return errors.Wrapf(err, "could not write archive: %s", target)
	}

	return out.Close()
}

// List returns the names of the files stored in a tar.gz archive. Backups are read back
// with it to check they are complete.
func List(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open archive: %s", path)
	}
	defer f.Close()

	var names []string
	err = format.Extract(ctx, f, func(ctx context.Context, info archives.FileInfo) error {
		if !info.IsDir() {
			names = append(names, info.NameInArchive)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not read archive: %s", path)
	}

	return names, nil
}
