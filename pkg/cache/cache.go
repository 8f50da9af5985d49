// Package cache memoizes reachability answers behind a content hash of
// the query, the way pkg/device memoizes config_db reads behind a Redis
// connection: an interface a caller can point at memory or a shared
// Redis instance, and a key derivation the engine calls on every query.
package cache

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/flowclass/flowclass/pkg/packet"
	"github.com/flowclass/flowclass/pkg/reachability"
	"github.com/flowclass/flowclass/pkg/topology"
)

// Store memoizes reachability answers by query fingerprint.
type Store interface {
	Get(ctx context.Context, key string) (reachability.AnswerElement, bool)
	Set(ctx context.Context, key string, ans reachability.AnswerElement)
}

// Key derives a stable fingerprint for one Reachable call. Two calls
// with the same header-space predicate, disposition flags, and
// source/sink sets (regardless of slice order) produce the same key, so
// a re-run of a prior query hits the cache instead of re-walking the
// EC index.
func Key(hs packet.HeaderSpace, flags packet.Disposition, sources, sinks []string) string {
	srcs := append([]string(nil), sources...)
	snks := append([]string(nil), sinks...)
	sort.Strings(srcs)
	sort.Strings(snks)

	payload, _ := json.Marshal(struct {
		HS      packet.HeaderSpace
		Flags   packet.Disposition
		Sources []string
		Sinks   []string
	}{hs, flags, srcs, snks})

	sum := blake2b.Sum256(payload)
	return string(sum[:])
}

// MemStore is an in-process, goroutine-safe Store backed by a map. It is
// the default cache New wires in.
type MemStore struct {
	mu      sync.RWMutex
	entries map[string]reachability.AnswerElement
}

// NewMemStore returns an empty in-memory cache.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string]reachability.AnswerElement)}
}

func (m *MemStore) Get(_ context.Context, key string) (reachability.AnswerElement, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ans, ok := m.entries[key]
	return ans, ok
}

func (m *MemStore) Set(_ context.Context, key string, ans reachability.AnswerElement) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = ans
}

// wireAnswer is the JSON shape an AnswerElement takes over Redis: path
// links are stored as indices into the graph's Links slice so they can
// be reattached to the live *topology.Graph on read.
type wireAnswer struct {
	Disposition packet.Disposition
	Alpha       int
	PathLinks   []int
	Example     map[packet.Field]int64
}

func encodeAnswer(ans reachability.AnswerElement) ([]byte, error) {
	w := wireAnswer{
		Disposition: ans.Disposition,
		Alpha:       ans.Alpha,
		Example:     ans.ExampleHeader,
	}
	for _, l := range ans.Path {
		w.PathLinks = append(w.PathLinks, l.Index)
	}
	return json.Marshal(w)
}

func decodeAnswer(buf []byte, g *topology.Graph) (reachability.AnswerElement, error) {
	var w wireAnswer
	if err := json.Unmarshal(buf, &w); err != nil {
		return reachability.AnswerElement{}, err
	}
	ans := reachability.AnswerElement{
		Disposition:   w.Disposition,
		Alpha:         w.Alpha,
		ExampleHeader: w.Example,
	}
	for _, idx := range w.PathLinks {
		if idx >= 0 && idx < len(g.Links) {
			ans.Path = append(ans.Path, g.Links[idx])
		}
	}
	return ans, nil
}
