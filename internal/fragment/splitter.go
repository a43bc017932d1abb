// Package fragment splits one large delimited text file into an ordered
// sequence of bounded-line-count fragment files, each carrying the header.
// Fragments are transient: consumed exactly once and deleted afterwards.
package fragment

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// scanBufferSize accommodates the longest SIRENE rows, which exceed the
// bufio default of 64KiB once free-text address fields pile up.
const scanBufferSize = 1 << 20

// Split divides src into fragments of at most limit data lines each, writing
// them into dir as <stem>_<n><ext>. The header line of src is repeated at the
// top of every fragment. The source file is removed once splitting succeeds.
// Returns the fragment paths in order.
func Split(src, dir string, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("fragment line limit must be positive, got %d", limit)
	}

	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("open source file: %w", err)
	}
	defer f.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create fragment dir: %w", err)
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), scanBufferSize)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		return nil, fmt.Errorf("source file %s has no header", src)
	}
	header := scanner.Text()

	base := filepath.Base(src)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	var (
		paths   []string
		out     *bufio.Writer
		outFile *os.File
		lines   int
	)

	closeCurrent := func() error {
		if outFile == nil {
			return nil
		}
		if err := out.Flush(); err != nil {
			return err
		}
		err := outFile.Close()
		outFile = nil
		return err
	}

	openNext := func() error {
		path := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, len(paths)+1, ext))
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		outFile = file
		out = bufio.NewWriter(file)
		lines = 0
		paths = append(paths, path)
		_, err = out.WriteString(header + "\n")
		return err
	}

	for scanner.Scan() {
		if outFile == nil || lines == limit {
			if err := closeCurrent(); err != nil {
				return nil, fmt.Errorf("close fragment: %w", err)
			}
			if err := openNext(); err != nil {
				return nil, fmt.Errorf("create fragment: %w", err)
			}
		}
		if _, err := out.WriteString(scanner.Text() + "\n"); err != nil {
			return nil, fmt.Errorf("write fragment line: %w", err)
		}
		lines++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read source file: %w", err)
	}
	if err := closeCurrent(); err != nil {
		return nil, fmt.Errorf("close fragment: %w", err)
	}

	f.Close()
	if err := os.Remove(src); err != nil {
		return nil, fmt.Errorf("remove source after splitting: %w", err)
	}
	return paths, nil
}

// List returns the fragment files already present in dir whose names contain
// keyword, in order. A restart after a failed run resumes from these.
func List(dir, keyword string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list fragment dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.Contains(e.Name(), keyword) {
			continue
		}
		// Only numbered fragments count; the source file and archive share
		// the keyword but carry no _<n> suffix.
		if _, ok := fragmentNumber(e.Name()); !ok {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	// Lexical order would put _10 before _2.
	sort.Slice(paths, func(i, j int) bool {
		ni, _ := fragmentNumber(paths[i])
		nj, _ := fragmentNumber(paths[j])
		if ni != nj {
			return ni < nj
		}
		return paths[i] < paths[j]
	})
	return paths, nil
}

func fragmentNumber(path string) (int, bool) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	idx := strings.LastIndex(name, "_")
	if idx < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(name[idx+1:])
	if err != nil {
		return 0, false
	}
	return n, true
}
