// Package trace reads memory traces and records what the memory hierarchy
// does with them.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/cachesim/mem"
)

// MalformedAccessError reports a trace line that cannot be parsed.
type MalformedAccessError struct {
	Line   int
	Text   string
	Reason string
}

func (e *MalformedAccessError) Error() string {
	return fmt.Sprintf("trace line %d %q: %s", e.Line, e.Text, e.Reason)
}

// Reader parses a trace of "<type> <address>" lines. Both fields are
// hexadecimal, with or without a 0x prefix. Tokens after the address are
// ignored.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader creates a reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next returns the next access, or io.EOF when the trace is exhausted.
func (r *Reader) Next() (mem.Access, error) {
	for r.scanner.Scan() {
		r.line++

		text := r.scanner.Text()
		fields := strings.Fields(text)

		if len(fields) == 0 {
			continue
		}

		return r.parse(text, fields)
	}

	if err := r.scanner.Err(); err != nil {
		return mem.Access{}, err
	}

	return mem.Access{}, io.EOF
}

func (r *Reader) parse(text string, fields []string) (mem.Access, error) {
	if len(fields) < 2 {
		return mem.Access{}, r.malformed(text, "missing address")
	}

	code, err := parseHex(fields[0], 8)
	if err != nil {
		return mem.Access{}, r.malformed(text, "bad type code: "+fields[0])
	}

	accessType := mem.AccessType(code)
	if !accessType.Valid() {
		return mem.Access{}, r.malformed(text,
			fmt.Sprintf("unknown type code %d", code))
	}

	addr, err := parseHex(fields[1], 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return mem.Access{}, r.malformed(text, "address wider than 64 bits")
		}

		return mem.Access{}, r.malformed(text, "bad address: "+fields[1])
	}

	return mem.Access{Type: accessType, Address: addr}, nil
}

func (r *Reader) malformed(text, reason string) error {
	return &MalformedAccessError{Line: r.line, Text: text, Reason: reason}
}

func parseHex(s string, bitSize int) (uint64, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return strconv.ParseUint(s, 16, bitSize)
}

// ReadAll parses every access of r.
func ReadAll(r io.Reader) ([]mem.Access, error) {
	reader := NewReader(r)

	var accesses []mem.Access

	for {
		a, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return accesses, nil
		}

		if err != nil {
			return nil, err
		}

		accesses = append(accesses, a)
	}
}

// ReadFile parses the trace stored in the named file.
func ReadFile(path string) ([]mem.Access, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}
	defer f.Close()

	accesses, err := ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading trace %s: %w", path, err)
	}

	return accesses, nil
}
