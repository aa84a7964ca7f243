package bundle

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Writer streams files into rolling tar.zst archives. Archives rotate when
// the uncompressed payload passes the size target, so a huge cache still
// exports into transferable pieces.
type Writer struct {
	outDir      string
	baseName    string
	targetBytes int64

	currentIdx   int
	currentBytes int64
	tw           *tar.Writer
	zw           *zstd.Encoder
	outFile      *os.File
	archives     []string
}

// NewWriter creates a bundle writer. targetGB <= 0 disables rotation.
func NewWriter(outDir, baseName string, targetGB int64) (*Writer, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}
	w := &Writer{
		outDir:      outDir,
		baseName:    baseName,
		targetBytes: targetGB * (1 << 30),
	}
	if err := w.rotate(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) rotate() error {
	if err := w.closeCurrent(); err != nil {
		return err
	}

	name := fmt.Sprintf("%s-%04d.tar.zst", w.baseName, w.currentIdx)
	path := filepath.Join(w.outDir, name)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		f.Close()
		return err
	}

	w.outFile = f
	w.zw = zw
	w.tw = tar.NewWriter(zw)
	w.currentBytes = 0
	w.currentIdx++
	w.archives = append(w.archives, path)
	return nil
}

// AddFile appends one file to the current archive under headerName.
func (w *Writer) AddFile(filePath, headerName string) error {
	fi, err := os.Stat(filePath)
	if err != nil {
		return err
	}

	if w.targetBytes > 0 && w.currentBytes > 0 && w.currentBytes+fi.Size() > w.targetBytes {
		if err := w.rotate(); err != nil {
			return err
		}
	}

	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	hdr := &tar.Header{
		Name:    headerName,
		Mode:    0o644,
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
	}
	if err := w.tw.WriteHeader(hdr); err != nil {
		return err
	}
	n, err := io.Copy(w.tw, f)
	if err != nil {
		return err
	}
	w.currentBytes += n
	return nil
}

// Archives returns the paths of every archive written so far.
func (w *Writer) Archives() []string {
	return w.archives
}

func (w *Writer) closeCurrent() error {
	if w.tw != nil {
		if err := w.tw.Close(); err != nil {
			return err
		}
		w.tw = nil
	}
	if w.zw != nil {
		if err := w.zw.Close(); err != nil {
			return err
		}
		w.zw = nil
	}
	if w.outFile != nil {
		err := w.outFile.Close()
		w.outFile = nil
		return err
	}
	return nil
}

// Close finalizes the current archive.
func (w *Writer) Close() error {
	return w.closeCurrent()
}

// ExportTree bundles every regular file under root into archives named
// <baseName>-NNNN.tar.zst in outDir, with headers relative to root. Index
// backups are left out; the export is a snapshot, not a history.
func ExportTree(root, outDir, baseName string, targetGB int64) ([]string, int, error) {
	w, err := NewWriter(outDir, baseName, targetGB)
	if err != nil {
		return nil, 0, err
	}

	count := 0
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if strings.Contains(d.Name(), ".bak.") || strings.HasSuffix(d.Name(), ".part") || strings.HasSuffix(d.Name(), ".tmp") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if err := w.AddFile(path, filepath.ToSlash(rel)); err != nil {
			return fmt.Errorf("failed to bundle %s: %w", rel, err)
		}
		count++
		return nil
	})

	if closeErr := w.Close(); walkErr == nil {
		walkErr = closeErr
	}
	if walkErr != nil {
		return nil, count, walkErr
	}
	return w.Archives(), count, nil
}
