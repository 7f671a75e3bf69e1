package digest

import (
	stdhash "hash"

	"github.com/zeebo/xxh3"
)

// hasherState tracks the Fresh -> Writing -> Sealed lifecycle described
// in spec.md §4.1.
type hasherState int

const (
	stateFresh hasherState = iota
	stateWriting
	stateSealed
)

func (s hasherState) String() string {
	switch s {
	case stateFresh:
		return "fresh"
	case stateWriting:
		return "writing"
	case stateSealed:
		return "sealed"
	default:
		return "unknown"
	}
}

// Hasher is a stateful streaming hasher. Each instance owns its own
// internal hash state; constructing N hashers never shares state
// between them (spec.md §4.1 concurrency guarantee).
type Hasher struct {
	algo  Algorithm
	state hasherState

	xxh *xxh3.Hasher    // used when algo == XXH3_128
	std stdhash.Hash     // used for sha-256 / crc32 / crc32c
}

// CreateStreamHasher constructs a new Hasher for the requested
// algorithm (default XXH3_128), starting in the Fresh state.
func CreateStreamHasher(opts HashOptions) (*Hasher, error) {
	algo := opts.algorithmOrDefault()
	if !isKnownAlgorithm(algo) {
		return nil, unsupportedAlgorithmError(algo)
	}
	h := &Hasher{algo: algo, state: stateFresh}
	h.initBacking()
	return h, nil
}

func (h *Hasher) initBacking() {
	if h.algo == XXH3_128 {
		h.xxh = xxh3.New()
		h.std = nil
		return
	}
	h.std = newStdHash(h.algo)
	h.xxh = nil
}

// Algorithm returns the hasher's configured algorithm.
func (h *Hasher) Algorithm() Algorithm { return h.algo }

// Update feeds more bytes into the hasher. Permitted only in the
// Fresh/Writing states; transitions to Writing.
func (h *Hasher) Update(data []byte) (*Hasher, error) {
	if h.state == stateSealed {
		return nil, digestStateError("update", h.state.String())
	}
	if h.xxh != nil {
		h.xxh.Write(data) //nolint:errcheck // xxh3.Hasher.Write never errors
	} else {
		h.std.Write(data) //nolint:errcheck // hash.Hash.Write never errors
	}
	h.state = stateWriting
	return h, nil
}

// UpdateString is a convenience wrapper over Update for string input.
func (h *Hasher) UpdateString(s string) (*Hasher, error) {
	return h.Update([]byte(s))
}

// Digest seals the hasher and returns the accumulated digest. Permitted
// only in the Fresh/Writing states; transitions to Sealed. Calling
// Digest or Update again without an intervening Reset fails.
func (h *Hasher) Digest() (Digest, error) {
	if h.state == stateSealed {
		return Digest{}, digestStateError("digest", h.state.String())
	}
	h.state = stateSealed

	if h.xxh != nil {
		sum := h.xxh.Sum128()
		b := sum.Bytes()
		return Digest{algorithm: h.algo, bytes: b[:]}, nil
	}
	sum := h.std.Sum(nil)
	return Digest{algorithm: h.algo, bytes: sum}, nil
}

// Reset always succeeds and returns the hasher to the Fresh state,
// discarding any accumulated data.
func (h *Hasher) Reset() *Hasher {
	h.state = stateFresh
	h.initBacking()
	return h
}
