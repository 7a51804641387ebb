// Package dispatch serves on-demand expansion: a table of interfaces is built
// once, then each use site is expanded from its attribute and the item it is
// attached to.
package dispatch

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"martianoff/delegen/delerr"
	"martianoff/delegen/internal/cache"
	"martianoff/delegen/internal/delegate"
	"martianoff/delegen/internal/delegate/expander"
	"martianoff/delegen/internal/delegate/resolver"
	"martianoff/delegen/internal/delegate/source"
	"martianoff/delegen/internal/delegate/spec"
	"martianoff/delegen/internal/logger"
)

// Entry is an interface available to use sites.
type Entry struct {
	Interface *resolver.Interface
	Source    *spec.Source
	// Reference is the table entry that made the interface available.
	Reference *spec.Reference
}

// Table maps interface names to resolved definitions.
//
// Thread-safe: Expand and the lookup methods can be called concurrently.
type Table struct {
	mu       sync.RWMutex
	entries  map[string]*Entry
	expander *expander.Expander
	cache    *cache.DiskCache
	// digest fingerprints the table inputs; it keys cached expansions.
	digest string
}

// Options configures table construction.
type Options struct {
	Loader   source.Loader
	Expander *expander.Expander
	Resolver resolver.Options
	// Cache stores expansions across runs; nil disables caching.
	Cache *cache.DiskCache
	// Settings is folded into cache keys.
	Settings string
}

// NewTable parses the table specification, loads its sources and indexes
// every listed interface by name.
func NewTable(ctx context.Context, tableSpec string, opts Options) (*Table, error) {
	ts, err := spec.ParseTable(tableSpec)
	if err != nil {
		return nil, err
	}
	var sources []*spec.Source
	for _, ref := range ts.References {
		sources = append(sources, ts.SourceFor(ref))
	}
	catalogs, parts, err := delegate.LoadCatalogs(ctx, opts.Loader, opts.Resolver, sources)
	if err != nil {
		return nil, err
	}

	t := &Table{
		entries:  make(map[string]*Entry, len(ts.References)),
		expander: opts.Expander,
		cache:    opts.Cache,
	}
	for _, ref := range ts.References {
		src := ts.SourceFor(ref)
		iface, ok := catalogs[src.Key()].Lookup(ref.Name())
		if !ok {
			return nil, delerr.NewInterfaceNotFound(ref.Pos.Err(), ref.Name())
		}
		if err := t.register(&Entry{Interface: iface, Source: src, Reference: ref}); err != nil {
			return nil, err
		}
	}

	parts = append(parts,
		cache.Part{Name: "table", Content: []byte(tableSpec)},
		cache.Part{Name: "settings", Content: []byte(opts.Settings)})
	t.digest = cache.Fingerprint(parts...)
	logger.Debugw("built dispatch table", "interfaces", t.Names())
	return t, nil
}

func (t *Table) register(e *Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	name := e.Reference.Name()
	if _, exists := t.entries[name]; exists {
		return delerr.NewDuplicateInterface(e.Reference.Pos.Err(), name)
	}
	t.entries[name] = e
	return nil
}

// Lookup returns the entry registered under name.
func (t *Table) Lookup(name string) (*Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[name]
	return e, ok
}

// Names returns the registered interface names, sorted.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Expand parses a use-site attribute and the item it annotates, and returns
// the item followed by its forwarding implementation.
func (t *Table) Expand(args, item []byte) ([]byte, error) {
	attr, err := spec.ParseAttribute(string(args))
	if err != nil {
		return nil, err
	}
	target, err := spec.ParseTargetItem(string(item))
	if err != nil {
		return nil, err
	}
	name := attr.Reference.Name()
	entry, ok := t.Lookup(name)
	if !ok {
		return nil, delerr.NewInterfaceNotFound(attr.Reference.Pos.Err(), name)
	}

	key := cache.Fingerprint(
		cache.Part{Name: "table", Content: []byte(t.digest)},
		cache.Part{Name: "args", Content: args},
		cache.Part{Name: "item", Content: item})
	if cached, hit, err := t.cache.Get(key); err != nil {
		logger.Warnw("ignoring unreadable cache entry", "error", err)
	} else if hit {
		return cached.Output, nil
	}

	req := attr.Request(target, entry.Source)
	block, err := t.expander.ExpandInterface(req, req.References[0], entry.Interface)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.Write(bytes.TrimRight(item, " \t\r\n"))
	out.WriteString("\n\n")
	out.WriteString(block.Text)

	if err := t.cache.Put(&cache.Entry{Fingerprint: key, Interfaces: []string{name}, Output: out.Bytes()}); err != nil {
		logger.Warnw("failed to store expansion", "error", err)
	}
	return out.Bytes(), nil
}
