// Package listfile reads the newline-separated path lists that drive a run.
package listfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"
)

var (
	// ErrNotFound is returned when a list file does not exist.
	ErrNotFound = errors.New("list file not found")
	// ErrMalformed is returned when a list file is not a text list of paths.
	ErrMalformed = errors.New("malformed list file")
)

// Load reads every list file in order and concatenates their paths.
// Blank lines are skipped; surrounding whitespace is trimmed.
func Load(files ...string) ([]string, error) {
	var paths []string
	for _, name := range files {
		f, err := os.Open(name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
			}
			return nil, fmt.Errorf("open list %s: %w", name, err)
		}
		got, err := Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		paths = append(paths, got...)
	}
	return paths, nil
}

// Parse reads one list from r.
func Parse(r io.Reader) ([]string, error) {
	var paths []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if bytes.IndexByte(raw, 0) >= 0 {
			return nil, fmt.Errorf("%w: line %d contains a NUL byte", ErrMalformed, line)
		}
		if !utf8.Valid(raw) {
			return nil, fmt.Errorf("%w: line %d is not valid UTF-8", ErrMalformed, line)
		}
		path := strings.TrimSpace(string(raw))
		if path == "" {
			continue
		}
		paths = append(paths, path)
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("%w: line %d exceeds the maximum length", ErrMalformed, line+1)
		}
		return nil, err
	}
	return paths, nil
}
