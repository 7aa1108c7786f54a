package repo

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/gzip"

	"github.com/maxtruxa/bpt"
)

// extractFileFromTargz returns the contents of member from a .tar.gz
// archive, mirroring the original tool's expand_single_file_from_targz.
func extractFileFromTargz(tgzPath, member string) ([]byte, error) {
	f, err := os.Open(tgzPath)
	if err != nil {
		return nil, bpt.Wrap(bpt.ErrPathNotFound, err, fmt.Sprintf("opening %s", tgzPath))
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, bpt.Wrap(bpt.ErrRepoImportFailed, err, fmt.Sprintf("%s is not gzip-compressed", tgzPath))
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil, bpt.New(bpt.ErrRepoImportFailed,
				fmt.Sprintf("%s contains no member named %q", tgzPath, member))
		}
		if err != nil {
			return nil, bpt.Wrap(bpt.ErrRepoImportFailed, err, fmt.Sprintf("reading %s", tgzPath))
		}
		if filepath.Clean(hdr.Name) != member || hdr.Typeflag != tar.TypeReg {
			continue
		}
		return io.ReadAll(tr)
	}
}

// archiveDirToTargz walks dir and writes a deterministic, lexicographically
// sorted .tar.gz of its contents to dst.
func archiveDirToTargz(dir, dst string) error {
	out, err := os.Create(dst)
	if err != nil {
		return bpt.Wrap(bpt.ErrIOOther, err, fmt.Sprintf("creating %s", dst))
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return bpt.Wrap(bpt.ErrIOOther, err, fmt.Sprintf("walking %s", dir))
	}

	sort.Strings(paths)
	for _, path := range paths {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return bpt.Wrap(bpt.ErrIOOther, err, "computing relative archive path")
		}
		if err := addFileToTar(tw, path, filepath.ToSlash(rel)); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return bpt.Wrap(bpt.ErrIOOther, err, "finalizing tar stream")
	}
	if err := gz.Close(); err != nil {
		return bpt.Wrap(bpt.ErrIOOther, err, "finalizing gzip stream")
	}
	return nil
}

func addFileToTar(tw *tar.Writer, path, archiveName string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return bpt.Wrap(bpt.ErrIOOther, err, fmt.Sprintf("stat %s", path))
	}
	hdr, err := tar.FileInfoHeader(fi, "")
	if err != nil {
		return bpt.Wrap(bpt.ErrIOOther, err, fmt.Sprintf("building tar header for %s", path))
	}
	hdr.Name = archiveName
	if err := tw.WriteHeader(hdr); err != nil {
		return bpt.Wrap(bpt.ErrIOOther, err, fmt.Sprintf("writing tar header for %s", archiveName))
	}
	f, err := os.Open(path)
	if err != nil {
		return bpt.Wrap(bpt.ErrIOOther, err, fmt.Sprintf("opening %s", path))
	}
	defer f.Close()
	if _, err := io.Copy(tw, f); err != nil {
		return bpt.Wrap(bpt.ErrIOOther, err, fmt.Sprintf("writing %s into archive", path))
	}
	return nil
}

// compressFileGz writes a gzip-compressed copy of src to dst, replacing the
// local repository's repo.db.gz snapshot after a mutation (spec §4.C:
// "every mutating operation ends by vacuuming and re-publishing a
// compressed snapshot of the metadata database").
func compressFileGz(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return bpt.Wrap(bpt.ErrIOOther, err, fmt.Sprintf("opening %s", src))
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return bpt.Wrap(bpt.ErrIOOther, err, fmt.Sprintf("creating %s", dst))
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		return bpt.Wrap(bpt.ErrIOOther, err, fmt.Sprintf("compressing %s", src))
	}
	return gz.Close()
}
