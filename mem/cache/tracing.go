package cache

import (
	"github.com/sarchlab/cachesim/hooking"
	"github.com/sarchlab/cachesim/mem"
)

// Hook positions of a cache. Hooks receive the mem.Access as the item and an
// AccessResult as the detail. For writebacks, Hit reports whether the
// writeback was absorbed.
var (
	HookPosAccess    = &hooking.HookPos{Name: "CacheAccess"}
	HookPosWriteback = &hooking.HookPos{Name: "CacheWriteback"}
	HookPosFill      = &hooking.HookPos{Name: "CacheFill"}
)

func (c *Cache) traceAccess(
	accessType mem.AccessType,
	addr uint64,
	result AccessResult,
) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosAccess,
		Item:   mem.Access{Type: accessType, Address: addr},
		Detail: result,
	})
}

func (c *Cache) traceWriteback(addr uint64, result AccessResult) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosWriteback,
		Item:   mem.Access{Type: mem.AccessWrite, Address: addr},
		Detail: result,
	})
}

func (c *Cache) traceFill(addr uint64, way int) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosFill,
		Item:   mem.Access{Type: mem.AccessRead, Address: addr},
		Detail: AccessResult{Way: way},
	})
}
