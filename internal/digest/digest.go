// Package digest provides content-addressed hashing for fulmen-go's
// integrity and checksum-verification needs: block and streaming
// xxh3-128, sha-256, crc32, and crc32c, plus a parseable
// "algorithm:hex" checksum format.
package digest

import (
	"encoding/hex"
	"hash"
	"hash/crc32"
	"crypto/sha256"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/fulmenhq/fulmen-go/internal/fulmenerrors"
)

// Algorithm identifies a supported hash function.
type Algorithm string

const (
	XXH3_128 Algorithm = "xxh3-128"
	SHA256   Algorithm = "sha-256"
	CRC32    Algorithm = "crc32"
	CRC32C   Algorithm = "crc32c"

	// DefaultAlgorithm is used when callers don't request one explicitly.
	DefaultAlgorithm = XXH3_128
)

// expectedHexLen is the lowercase hex length for each algorithm's digest.
var expectedHexLen = map[Algorithm]int{
	XXH3_128: 32,
	SHA256:   64,
	CRC32:    8,
	CRC32C:   8,
}

func isKnownAlgorithm(a Algorithm) bool {
	_, ok := expectedHexLen[a]
	return ok
}

// Digest is an immutable (algorithm, bytes) pair.
type Digest struct {
	algorithm Algorithm
	bytes     []byte
}

// Algorithm returns the digest's algorithm.
func (d Digest) Algorithm() Algorithm { return d.algorithm }

// Bytes returns the raw digest bytes. Callers must not mutate the
// returned slice.
func (d Digest) Bytes() []byte { return d.bytes }

// Hex returns the lowercase hex encoding of the digest bytes.
func (d Digest) Hex() string { return hex.EncodeToString(d.bytes) }

// Formatted returns the canonical "algorithm:hex" string form.
func (d Digest) Formatted() string { return string(d.algorithm) + ":" + d.Hex() }

// Equals reports whether two digests have the same algorithm and bytes.
func (d Digest) Equals(other Digest) bool {
	return d.algorithm == other.algorithm && d.Hex() == other.Hex()
}

func (d Digest) String() string { return d.Formatted() }

// Parse reverses Formatted, failing with an InvalidChecksumError-coded
// error if the separator is missing, the algorithm is unknown, or the
// hex length mismatches the algorithm's expectation.
func Parse(formatted string) (Digest, error) {
	idx := strings.IndexByte(formatted, ':')
	if idx < 0 {
		return Digest{}, fulmenerrors.InvalidChecksum("checksum missing \"algorithm:hex\" separator")
	}
	algo := Algorithm(formatted[:idx])
	hexPart := formatted[idx+1:]

	wantLen, ok := expectedHexLen[algo]
	if !ok {
		return Digest{}, fulmenerrors.InvalidChecksum("unknown digest algorithm " + string(algo))
	}
	if len(hexPart) != wantLen {
		return Digest{}, fulmenerrors.InvalidChecksum("hex length mismatch for " + string(algo))
	}
	raw, err := hex.DecodeString(strings.ToLower(hexPart))
	if err != nil {
		return Digest{}, fulmenerrors.InvalidChecksum("invalid hex in checksum: " + err.Error())
	}
	return Digest{algorithm: algo, bytes: raw}, nil
}

// HashOptions configures Hash and CreateStreamHasher.
type HashOptions struct {
	Algorithm Algorithm
}

func (o HashOptions) algorithmOrDefault() Algorithm {
	if o.Algorithm == "" {
		return DefaultAlgorithm
	}
	return o.Algorithm
}

// Hash computes the digest of input in one shot.
func Hash(input []byte, opts HashOptions) (Digest, error) {
	algo := opts.algorithmOrDefault()
	switch algo {
	case XXH3_128:
		sum := xxh3.Hash128(input)
		b := sum.Bytes()
		return Digest{algorithm: algo, bytes: b[:]}, nil
	case SHA256:
		sum := sha256.Sum256(input)
		return Digest{algorithm: algo, bytes: sum[:]}, nil
	case CRC32:
		sum := crc32.ChecksumIEEE(input)
		return Digest{algorithm: algo, bytes: uint32Bytes(sum)}, nil
	case CRC32C:
		sum := crc32.Checksum(input, crc32.MakeTable(crc32.Castagnoli))
		return Digest{algorithm: algo, bytes: uint32Bytes(sum)}, nil
	default:
		return Digest{}, fulmenerrors.UnsupportedAlgorithm(string(algo))
	}
}

// HashString is a convenience wrapper over Hash for string input.
func HashString(input string, opts HashOptions) (Digest, error) {
	return Hash([]byte(input), opts)
}

// Verify reports whether hashing input with the algorithm parsed from
// formatted produces a digest equal to the parsed one.
func Verify(input []byte, formatted string) (bool, error) {
	parsed, err := Parse(formatted)
	if err != nil {
		return false, err
	}
	computed, err := Hash(input, HashOptions{Algorithm: parsed.algorithm})
	if err != nil {
		return false, err
	}
	return computed.Equals(parsed), nil
}

func unsupportedAlgorithmError(algo Algorithm) error {
	return fulmenerrors.UnsupportedAlgorithm(string(algo))
}

func digestStateError(op, state string) error {
	return fulmenerrors.DigestStateError(op, state)
}

func uint32Bytes(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func newStdHash(algo Algorithm) hash.Hash {
	switch algo {
	case SHA256:
		return sha256.New()
	case CRC32:
		return crc32.NewIEEE()
	case CRC32C:
		return crc32.New(crc32.MakeTable(crc32.Castagnoli))
	default:
		return nil
	}
}
