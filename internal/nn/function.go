package nn

import "fmt"

// Cache is the scratch area a primitive operation's forward pass uses to
// hand intermediates to its paired backward pass. The call site selects
// the variant and thereby decides whether gradients are obtainable:
//
//   - NewCache() records every slot (training).
//   - NoCache() silently discards writes (inference); reading from it is
//     an error, because a backward pass without a recorded forward is a
//     contract violation, not a zero gradient.
//
// Values stored in a cache are treated as frozen: operations never mutate
// tensors after producing them, so backward always sees forward-time
// values.
type Cache interface {
	// Put stores a named intermediate.
	Put(name string, value any)
	// Get returns a previously stored intermediate. Panics on unknown
	// names and on null caches.
	Get(name string) any
	// Recording reports whether writes are retained.
	Recording() bool
}

type recordingCache struct {
	slots map[string]any
}

// NewCache returns a recording cache for one forward/backward pair.
func NewCache() Cache {
	return &recordingCache{slots: make(map[string]any)}
}

func (c *recordingCache) Put(name string, value any) {
	c.slots[name] = value
}

func (c *recordingCache) Get(name string) any {
	v, ok := c.slots[name]
	if !ok {
		panic(fmt.Sprintf("cache: unknown slot %q", name))
	}
	return v
}

func (c *recordingCache) Recording() bool { return true }

type nullCache struct{}

// NoCache returns the discarding cache variant. All writes are no-ops,
// which keeps inference at the memory cost of a single forward pass.
func NoCache() Cache { return nullCache{} }

func (nullCache) Put(string, any) {}

func (nullCache) Get(name string) any {
	panic(fmt.Sprintf("cache: slot %q requested from a null cache (forward ran without gradient recording)", name))
}

func (nullCache) Recording() bool { return false }

// cacheGet retrieves a typed slot value from a cache.
func cacheGet[T any](c Cache, name string) T {
	v, ok := c.Get(name).(T)
	if !ok {
		panic(fmt.Sprintf("cache: slot %q holds %T, not the requested type", name, c.Get(name)))
	}
	return v
}
