package digest

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_FixtureVectors(t *testing.T) {
	t.Run("crc32", func(t *testing.T) {
		d, err := HashString("123456789", HashOptions{Algorithm: CRC32})
		require.NoError(t, err)
		assert.Equal(t, "cbf43926", d.Hex())
	})

	t.Run("crc32c", func(t *testing.T) {
		d, err := HashString("123456789", HashOptions{Algorithm: CRC32C})
		require.NoError(t, err)
		assert.Equal(t, "e3069283", d.Hex())
	})

	t.Run("xxh3_128 empty input", func(t *testing.T) {
		d, err := HashString("", HashOptions{Algorithm: XXH3_128})
		require.NoError(t, err)
		assert.Equal(t, "99aa06d3014798d86001c324468d497f", d.Hex())
	})

	t.Run("default algorithm is xxh3-128", func(t *testing.T) {
		d, err := HashString("hello", HashOptions{})
		require.NoError(t, err)
		assert.Equal(t, XXH3_128, d.Algorithm())
	})
}

func TestDigest_ParseRoundTrip(t *testing.T) {
	for _, algo := range []Algorithm{XXH3_128, SHA256, CRC32, CRC32C} {
		algo := algo
		t.Run(string(algo), func(t *testing.T) {
			d, err := HashString("roundtrip-input", HashOptions{Algorithm: algo})
			require.NoError(t, err)

			parsed, err := Parse(d.Formatted())
			require.NoError(t, err)
			assert.True(t, d.Equals(parsed))
		})
	}
}

func TestParse_Failures(t *testing.T) {
	_, err := Parse("not-a-checksum")
	assert.Error(t, err)

	_, err = Parse("made-up-algo:deadbeef")
	assert.Error(t, err)

	_, err = Parse(fmt.Sprintf("%s:abcd", SHA256))
	assert.Error(t, err, "hex length mismatch should fail")
}

func TestVerify(t *testing.T) {
	d, err := HashString("verify-me", HashOptions{Algorithm: SHA256})
	require.NoError(t, err)

	ok, err := Verify([]byte("verify-me"), d.Formatted())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify([]byte("something-else"), d.Formatted())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_StateMachine(t *testing.T) {
	h, err := CreateStreamHasher(HashOptions{Algorithm: SHA256})
	require.NoError(t, err)

	_, err = h.UpdateString("part-1")
	require.NoError(t, err)
	_, err = h.UpdateString("part-2")
	require.NoError(t, err)

	sealed, err := h.Digest()
	require.NoError(t, err)

	want, err := HashString("part-1part-2", HashOptions{Algorithm: SHA256})
	require.NoError(t, err)
	assert.True(t, sealed.Equals(want))

	_, err = h.Digest()
	assert.Error(t, err, "digest on a sealed hasher must fail")

	_, err = h.UpdateString("more")
	assert.Error(t, err, "update on a sealed hasher must fail")

	h.Reset()
	_, err = h.Digest()
	require.NoError(t, err, "reset returns the hasher to Fresh")
}

func TestHasher_ParallelConstructionIndependence(t *testing.T) {
	const n = 50
	digests := make([]string, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			h, err := CreateStreamHasher(HashOptions{Algorithm: XXH3_128})
			require.NoError(t, err)
			_, err = h.UpdateString(fmt.Sprintf("stream-%d", i))
			require.NoError(t, err)
			d, err := h.Digest()
			require.NoError(t, err)
			digests[i] = d.Hex()
		}()
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, d := range digests {
		assert.False(t, seen[d], "hashers leaked state across instances")
		seen[d] = true
	}
}
