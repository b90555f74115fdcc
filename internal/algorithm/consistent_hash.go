package algorithm

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
	"sync"
)

// Ring implements consistent hashing with virtual nodes. It is built
// once from the full static node list and never mutated incrementally:
// Build replaces all prior state atomically.
type Ring struct {
	mu        sync.RWMutex
	positions []uint64          // sorted vnode hash positions
	owners    map[uint64]string // position -> physical node ID
	nodeCount int
	vnodes    int
}

// NewRing creates an empty ring
func NewRing() *Ring {
	return &Ring{
		positions: make([]uint64, 0),
		owners:    make(map[uint64]string),
	}
}

// Build constructs the ring from the full node set, placing
// vnodesPerNode virtual positions per physical node. The result is a
// pure function of the node set: input order does not matter.
func (r *Ring) Build(nodes []string, vnodesPerNode int) {
	if vnodesPerNode < 1 {
		vnodesPerNode = 1
	}

	positions := make([]uint64, 0, len(nodes)*vnodesPerNode)
	owners := make(map[uint64]string, len(nodes)*vnodesPerNode)

	for _, node := range nodes {
		for i := 0; i < vnodesPerNode; i++ {
			pos := HashKey(fmt.Sprintf("%s#%d", node, i))
			positions = append(positions, pos)
			owners[pos] = node
		}
	}

	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })

	r.mu.Lock()
	defer r.mu.Unlock()
	r.positions = positions
	r.owners = owners
	r.nodeCount = len(nodes)
	r.vnodes = vnodesPerNode
}

// Owners returns up to rf distinct physical nodes responsible for key,
// in clockwise walk order starting at the first position at or after
// the key's hash. An empty ring yields an empty result, which callers
// must treat as "no replicas available".
func (r *Ring) Owners(key string, rf int) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.positions) == 0 || rf < 1 {
		return nil
	}

	keyHash := HashKey(key)
	idx := sort.Search(len(r.positions), func(i int) bool {
		return r.positions[i] >= keyHash
	})
	if idx == len(r.positions) {
		idx = 0
	}

	nodes := make([]string, 0, rf)
	seen := make(map[string]bool, rf)

	for i := 0; i < len(r.positions) && len(nodes) < rf; i++ {
		pos := r.positions[(idx+i)%len(r.positions)]
		node := r.owners[pos]
		if !seen[node] {
			nodes = append(nodes, node)
			seen[node] = true
		}
	}

	return nodes
}

// Size returns the number of virtual node positions
func (r *Ring) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.positions)
}

// NodeCount returns the number of physical nodes
func (r *Ring) NodeCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nodeCount
}

// HashKey maps a key to its ring position using the first 8 bytes of
// its SHA-256 digest. The same function places virtual nodes and keys.
func HashKey(key string) uint64 {
	h := sha256.New()
	h.Write([]byte(key))
	digest := h.Sum(nil)
	return binary.BigEndian.Uint64(digest[:8])
}
