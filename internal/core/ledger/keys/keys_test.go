package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goswapd/internal/core/ledger/record"
)

func TestProgramIdentifiers(t *testing.T) {
	require.False(t, EngineProgram.IsZero())
	require.False(t, TokenProgram.IsZero())
	assert.NotEqual(t, EngineProgram, TokenProgram)
}

func TestPoolAuthority(t *testing.T) {
	var poolA, poolB record.Address
	poolA[0] = 1
	poolB[0] = 2

	authA := PoolAuthority(poolA)
	authB := PoolAuthority(poolB)

	assert.Equal(t, authA, PoolAuthority(poolA), "derivation is deterministic")
	assert.NotEqual(t, authA, authB, "distinct pools get distinct authorities")
	assert.NotEqual(t, authA, poolA, "authority never collides with its pool")
}

func TestSpacesDoNotCollide(t *testing.T) {
	// A pool whose address happens to equal a program identifier still
	// derives an authority distinct from every singleton.
	auth := PoolAuthority(EngineProgram)
	assert.NotEqual(t, auth, SequenceKey())
	assert.NotEqual(t, auth, EngineProgram)
}
