package keys

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashKey_Deterministic(t *testing.T) {
	a := HashKey("key_live_abc123")
	b := HashKey("key_live_abc123")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestHashKey_KnownVector(t *testing.T) {
	// sha256("abc")
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		HashKey("abc"))
}

func TestHashKey_DistinctInputs(t *testing.T) {
	assert.NotEqual(t, HashKey("key_live_a"), HashKey("key_live_b"))
}

func TestGenerateKey(t *testing.T) {
	k1, err := GenerateKey()
	require.NoError(t, err)
	k2, err := GenerateKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(k1, "key_live_"))
	// prefix + 24 random bytes hex-encoded
	assert.Len(t, k1, len("key_live_")+48)
	assert.NotEqual(t, k1, k2)
}
