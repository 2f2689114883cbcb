package trace

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/sarchlab/cachesim/hooking"
)

// CSVTracer is a hook that writes cache events as CSV rows. Rows are
// buffered; call Flush when the run ends.
type CSVTracer struct {
	w *csv.Writer

	seq        uint64
	rows       [][]string
	bufferSize int
	err        error
}

// NewCSVTracer creates a tracer that writes to w, starting with a header
// row.
func NewCSVTracer(w io.Writer) *CSVTracer {
	t := &CSVTracer{
		w:          csv.NewWriter(w),
		bufferSize: 1000,
	}

	t.rows = append(t.rows, []string{
		"seq", "level", "what", "type", "address", "way", "hit", "dirty",
	})

	return t
}

// Func buffers the event.
func (t *CSVTracer) Func(ctx hooking.HookCtx) {
	e, ok := decode(ctx)
	if !ok {
		return
	}

	t.rows = append(t.rows, []string{
		strconv.FormatUint(t.seq, 10),
		e.level,
		e.what,
		e.access.Type.String(),
		"0x" + strconv.FormatUint(e.access.Address, 16),
		strconv.Itoa(e.result.Way),
		strconv.FormatBool(e.result.Hit),
		strconv.FormatBool(e.result.WasDirty),
	})
	t.seq++

	if len(t.rows) >= t.bufferSize {
		t.Flush()
	}
}

// Flush writes the buffered rows and returns the first write error seen.
func (t *CSVTracer) Flush() error {
	if t.err == nil {
		t.err = t.w.WriteAll(t.rows)
	}

	t.rows = nil

	return t.err
}
