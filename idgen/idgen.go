// Package idgen supplies the identifiers assigned to new rectangles. The
// store and the ingestion parsers take a Generator so tests can use a
// deterministic sequence while the CLI defaults to random UUIDs.
package idgen

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// Generator hands out unique ids.
type Generator interface {
	NewID() string
}

// Func adapts a plain function to Generator.
type Func func() string

func (f Func) NewID() string { return f() }

// Sequence yields prefix1, prefix2, ... and is safe for concurrent use.
type Sequence struct {
	Prefix string
	n      atomic.Uint64
}

func NewSequence(prefix string) *Sequence { return &Sequence{Prefix: prefix} }

func (s *Sequence) NewID() string {
	return s.Prefix + strconv.FormatUint(s.n.Add(1), 10)
}

// UUID returns random version 4 UUIDs.
type UUID struct{}

func (UUID) NewID() string { return uuid.NewString() }

// Hash derives ids from rectangle content so re-ingesting the same document
// yields the same ids. Identical content seen twice gets a distinct ordinal.
type Hash struct {
	mu   sync.Mutex
	seen map[[32]byte]uint64
}

func NewHash() *Hash { return &Hash{seen: make(map[[32]byte]uint64)} }

// IDFor returns the id for a rectangle with the given geometry and label.
func (h *Hash) IDFor(page int, x, y, w, hgt float64, label string) string {
	buf := make([]byte, 0, 8*5+len(label))
	buf = binary.BigEndian.AppendUint64(buf, uint64(page))
	for _, v := range []float64{x, y, w, hgt} {
		buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(v))
	}
	buf = append(buf, label...)
	sum := blake2b.Sum256(buf)

	h.mu.Lock()
	n := h.seen[sum]
	h.seen[sum] = n + 1
	h.mu.Unlock()

	id := hex.EncodeToString(sum[:8])
	if n > 0 {
		id = fmt.Sprintf("%s-%d", id, n)
	}
	return id
}

// NewID satisfies Generator for callers without content; it hashes a
// running counter.
func (h *Hash) NewID() string {
	h.mu.Lock()
	n := uint64(len(h.seen))
	h.mu.Unlock()
	return h.IDFor(-1, float64(n), 0, 0, 0, "")
}

// ContentIDer is implemented by generators that can derive ids from content.
type ContentIDer interface {
	IDFor(page int, x, y, w, h float64, label string) string
}

// New returns the generator named by kind: "sequence", "uuid" or "hash".
func New(kind string) (Generator, error) {
	switch kind {
	case "", "uuid":
		return UUID{}, nil
	case "sequence":
		return NewSequence("r"), nil
	case "hash":
		return NewHash(), nil
	}
	return nil, fmt.Errorf("unknown id generator %q", kind)
}
