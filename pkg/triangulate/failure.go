package triangulate

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/chazu/ndview/pkg/logging"
)

// FailureError reports a backend failure. The offending input was written
// to BinPath and TxtPath before the error was returned.
type FailureError struct {
	Backend Kind
	BinPath string
	TxtPath string
	Err     error
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("Triangulation failed. Data saved to %s and %s", e.BinPath, e.TxtPath)
}

func (e *FailureError) Unwrap() error { return e.Err }

// Run calls b.Meshes and turns an error or panic into a *FailureError after
// dumping the input. It never retries with a different backend.
func Run(b Backend, data [][]float64, closed, face, edge bool) (Mesh, error) {
	m, err := safeMeshes(b, data, closed, face, edge)
	if err == nil {
		return m, nil
	}
	log := logging.WithComponent("triangulate")
	bin, txt, derr := DumpFailure(b.Name(), data, closed, face, edge)
	if derr != nil {
		log.Error("failure dump", "backend", b.Name(), "err", derr)
		return Mesh{}, fmt.Errorf("triangulate: %s: %w", b.Name(), err)
	}
	log.Error("triangulation failed", "backend", b.Name(), "bin", bin, "txt", txt, "err", err)
	return Mesh{}, &FailureError{Backend: b.Name(), BinPath: bin, TxtPath: txt, Err: err}
}

func safeMeshes(b Backend, data [][]float64, closed, face, edge bool) (m Mesh, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s backend panicked: %v", b.Name(), r)
		}
	}()
	return b.Meshes(data, closed, face, edge)
}

// DumpFailure writes data to a binary and a text file in the temp dir and
// returns their paths. The binary layout is little-endian: uint32 rows,
// uint32 cols, then rows*cols float64 in row-major order.
func DumpFailure(kind Kind, data [][]float64, closed, face, edge bool) (bin, txt string, err error) {
	base := filepath.Join(os.TempDir(),
		fmt.Sprintf("ndview_failed_triangulation_%s_%d", kind, time.Now().UnixNano()))
	bin, txt = base+".bin", base+".txt"

	cols := 0
	if len(data) > 0 {
		cols = len(data[0])
	}
	if err := writeBinary(bin, data, cols); err != nil {
		return "", "", err
	}
	if err := writeText(txt, kind, data, closed, face, edge); err != nil {
		return "", "", err
	}
	return bin, txt, nil
}

func writeBinary(path string, data [][]float64, cols int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	hdr := [2]uint32{uint32(len(data)), uint32(cols)}
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		f.Close()
		return err
	}
	for _, row := range data {
		if err := binary.Write(w, binary.LittleEndian, row); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeText(path string, kind Kind, data [][]float64, closed, face, edge bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# backend=%s closed=%t face=%t edge=%t rows=%d\n", kind, closed, face, edge, len(data))
	for _, row := range data {
		for j, v := range row {
			if j > 0 {
				w.WriteByte(' ')
			}
			w.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadDump loads a binary dump written by DumpFailure.
func ReadDump(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := bufio.NewReader(f)
	var hdr [2]uint32
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("triangulate: dump header: %w", err)
	}
	out := make([][]float64, hdr[0])
	for i := range out {
		out[i] = make([]float64, hdr[1])
		if err := binary.Read(r, binary.LittleEndian, out[i]); err != nil {
			return nil, fmt.Errorf("triangulate: dump row %d: %w", i, err)
		}
	}
	return out, nil
}
