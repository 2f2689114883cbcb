package trace

import (
	"fmt"
	"log"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/hooking"
	"github.com/sarchlab/cachesim/mem"
	"github.com/sarchlab/cachesim/mem/cache"
)

const eventTable = "cache_events"

// eventEntry is one cache event in the database. SQLite integers are signed
// 64-bit, so the address is stored as 16 zero-padded hex digits, which keeps
// text order equal to numeric order.
type eventEntry struct {
	Run     string
	Seq     uint64
	Level   string
	What    string
	Type    string
	Address string
	Way     int
	Hit     bool
	Dirty   bool
}

// event is the decoded form of a cache hook invocation.
type event struct {
	level  string
	what   string
	access mem.Access
	result cache.AccessResult
}

func decode(ctx hooking.HookCtx) (event, bool) {
	var what string

	switch ctx.Pos {
	case cache.HookPosAccess:
		what = "access"
	case cache.HookPosWriteback:
		what = "writeback"
	case cache.HookPosFill:
		what = "fill"
	default:
		return event{}, false
	}

	access, ok := ctx.Item.(mem.Access)
	if !ok {
		return event{}, false
	}

	result, _ := ctx.Detail.(cache.AccessResult)

	return event{
		level:  ctx.Domain.Name(),
		what:   what,
		access: access,
		result: result,
	}, true
}

// A LogTracer is a hook that prints one line per cache event.
type LogTracer struct {
	logger *log.Logger
}

// NewLogTracer creates a tracer that prints to logger.
func NewLogTracer(logger *log.Logger) *LogTracer {
	return &LogTracer{logger: logger}
}

// Func prints the event.
func (t *LogTracer) Func(ctx hooking.HookCtx) {
	e, ok := decode(ctx)
	if !ok {
		return
	}

	t.logger.Printf("%s, %s, %s, 0x%x, way=%d, hit=%t, dirty=%t\n",
		e.level,
		e.what,
		e.access.Type,
		e.access.Address,
		e.result.Way,
		e.result.Hit,
		e.result.WasDirty,
	)
}

// A DBTracer is a hook that stores cache events through a data recorder.
type DBTracer struct {
	recorder datarecording.DataRecorder
	runID    string
	seq      uint64
}

// NewDBTracer creates a tracer that records the events of run runID.
func NewDBTracer(
	recorder datarecording.DataRecorder,
	runID string,
) *DBTracer {
	ensureTable(recorder, eventTable, eventEntry{})

	return &DBTracer{
		recorder: recorder,
		runID:    runID,
	}
}

// Func records the event.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	e, ok := decode(ctx)
	if !ok {
		return
	}

	t.recorder.InsertData(eventTable, eventEntry{
		Run:     t.runID,
		Seq:     t.seq,
		Level:   e.level,
		What:    e.what,
		Type:    e.access.Type.String(),
		Address: formatAddress(e.access.Address),
		Way:     e.result.Way,
		Hit:     e.result.Hit,
		Dirty:   e.result.WasDirty,
	})

	t.seq++
}

func formatAddress(addr uint64) string {
	return fmt.Sprintf("%016x", addr)
}

// NumEvents returns the number of events recorded so far.
func (t *DBTracer) NumEvents() uint64 {
	return t.seq
}

func ensureTable(
	recorder datarecording.DataRecorder,
	name string,
	sample any,
) {
	for _, table := range recorder.ListTables() {
		if table == name {
			return
		}
	}

	recorder.CreateTable(name, sample)
}
