package cli

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/LeJamon/goswapd/internal/core/ledger/keys"
	"github.com/LeJamon/goswapd/internal/core/ledger/record"
	"github.com/LeJamon/goswapd/internal/core/op"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureAddress(seed byte) record.Address {
	var addr record.Address
	for i := range addr {
		addr[i] = seed
	}
	return addr
}

func fixtureMint(i int) record.Address {
	var mint record.Address
	mint[0] = 0x10 + byte(i)
	return mint
}

// networkOpFixture builds an initialize-network submission against the
// given network slot, with seven deterministic extra mints.
func networkOpFixture(index int, network record.Address, signed bool) operationFixture {
	accounts := []accountFixture{{Key: network.String(), Signer: signed}}
	for i := 0; i < 7; i++ {
		accounts = append(accounts, accountFixture{Key: fixtureMint(i).String()})
	}
	return operationFixture{
		Index:    index,
		Accounts: accounts,
		Data:     fmt.Sprintf("%02x", byte(op.TagInitializeNetwork)),
	}
}

// initializedNetworkEnvelope is the stored record a successful
// initialize-network leaves behind for the fixture mints.
func initializedNetworkEnvelope() string {
	network := &record.Network{State: record.NetworkInitialized}
	network.Mints[0] = record.PrimaryMint
	for i := 0; i < 7; i++ {
		network.Mints[1+i] = fixtureMint(i)
	}
	return hex.EncodeToString(record.EncodeEnvelope(record.KindNetwork, keys.EngineProgram, network.Encode()))
}

func TestExecuteReplayAppliesFixture(t *testing.T) {
	networkKey := fixtureAddress(0xaa)

	state := &stateFixture{}
	ops := &opsFixture{Operations: []operationFixture{
		networkOpFixture(0, networkKey, true),
		networkOpFixture(1, networkKey, true),
	}}
	expected := &expectedFixture{
		Sequence: 1,
		Results: []resultFixture{
			{Index: 0, Result: "Success", Applied: true},
			{Index: 1, Result: "ConstructorOnce", Applied: false},
		},
		Records: []recordFixture{{Key: networkKey.String(), Data: initializedNetworkEnvelope()}},
	}

	outcome, err := executeReplay(state, ops, expected, false)
	require.NoError(t, err)

	assert.True(t, outcome.Success, "errors: %v", outcome.Errors)
	assert.Empty(t, outcome.Errors)

	require.Len(t, outcome.OpResults, 2)
	assert.Equal(t, "InitializeNetwork", outcome.OpResults[0].Tag)
	assert.True(t, outcome.OpResults[0].Applied)
	assert.Equal(t, uint64(1), outcome.OpResults[0].Seq)
	assert.True(t, outcome.OpResults[0].Match)
	assert.Equal(t, "ConstructorOnce", outcome.OpResults[1].Result)
	assert.False(t, outcome.OpResults[1].Applied)
	assert.True(t, outcome.OpResults[1].Match)

	assert.Equal(t, 0, outcome.PreStateCount)
	assert.Equal(t, 1, outcome.PostStateCount)
	assert.Equal(t, uint64(1), outcome.Sequence)
}

func TestExecuteReplayFlagsMismatches(t *testing.T) {
	networkKey := fixtureAddress(0xab)

	state := &stateFixture{}
	ops := &opsFixture{Operations: []operationFixture{
		networkOpFixture(0, networkKey, false),
		networkOpFixture(1, networkKey, true),
	}}
	// The unsigned first submission is rejected with InvalidOwner, not
	// applied as the expectation claims. The second has no expectation
	// and passes by default.
	expected := &expectedFixture{
		Results: []resultFixture{{Index: 0, Result: "Success", Applied: true}},
	}

	outcome, err := executeReplay(state, ops, expected, false)
	require.NoError(t, err)

	assert.False(t, outcome.Success)
	require.Len(t, outcome.OpResults, 2)
	assert.Equal(t, "InvalidOwner", outcome.OpResults[0].Result)
	assert.False(t, outcome.OpResults[0].Match)
	assert.Equal(t, "Success", outcome.OpResults[0].Expected)
	assert.True(t, outcome.OpResults[1].Match)
}

func TestExecuteReplayComparesPostState(t *testing.T) {
	networkKey := fixtureAddress(0xac)

	state := &stateFixture{}
	ops := &opsFixture{Operations: []operationFixture{
		networkOpFixture(0, networkKey, true),
	}}
	expected := &expectedFixture{
		Results: []resultFixture{{Index: 0, Result: "Success", Applied: true}},
		Records: []recordFixture{
			{Key: fixtureAddress(0xad).String(), Data: initializedNetworkEnvelope()},
		},
	}

	outcome, err := executeReplay(state, ops, expected, false)
	require.NoError(t, err)

	// The network landed under a different key than expected, so the
	// comparison reports one unexpected and one missing record.
	assert.False(t, outcome.Success)
	assert.Len(t, outcome.Errors, 2)
}

func TestExecuteReplaySeedsPreState(t *testing.T) {
	holding := &record.Holding{
		Owner:       fixtureAddress(0x01),
		Mint:        fixtureMint(0),
		Amount:      42,
		Initialized: true,
	}
	envelope := record.EncodeEnvelope(record.KindHolding, keys.TokenProgram, holding.Encode())

	state := &stateFixture{Records: []recordFixture{
		{Key: fixtureAddress(0xb0).String(), Data: hex.EncodeToString(envelope)},
	}}

	outcome, err := executeReplay(state, &opsFixture{}, &expectedFixture{}, false)
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Equal(t, 1, outcome.PreStateCount)
	assert.Equal(t, 1, outcome.PostStateCount)
	assert.Equal(t, uint64(0), outcome.Sequence)
}

func TestExecuteReplayRejectsBrokenFixtures(t *testing.T) {
	// A malformed submission is reported per-operation, not as a hard
	// failure.
	ops := &opsFixture{Operations: []operationFixture{
		{Index: 0, Accounts: []accountFixture{{Key: "zz"}}, Data: "08"},
	}}
	outcome, err := executeReplay(&stateFixture{}, ops, &expectedFixture{}, false)
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	require.Len(t, outcome.OpResults, 1)
	assert.NotEmpty(t, outcome.OpResults[0].Error)

	// A malformed pre-state record aborts the run.
	state := &stateFixture{Records: []recordFixture{{Key: "not-hex", Data: "00"}}}
	_, err = executeReplay(state, &opsFixture{}, &expectedFixture{}, false)
	require.Error(t, err)
}

func TestFixtureSubmission(t *testing.T) {
	entry := operationFixture{
		Accounts: []accountFixture{{Key: fixtureAddress(0x07).String(), Signer: true}},
		Data:     "08",
	}

	sub, err := fixtureSubmission(entry)
	require.NoError(t, err)
	assert.Equal(t, keys.EngineProgram, sub.Program)
	require.Len(t, sub.Accounts, 1)
	assert.True(t, sub.Accounts[0].Signer)
	assert.Equal(t, []byte{0x08}, sub.Data)

	entry.Program = keys.TokenProgram.String()
	sub, err = fixtureSubmission(entry)
	require.NoError(t, err)
	assert.Equal(t, keys.TokenProgram, sub.Program)

	entry.Program = "xyz"
	_, err = fixtureSubmission(entry)
	assert.Error(t, err)

	entry.Program = ""
	entry.Data = "not-hex"
	_, err = fixtureSubmission(entry)
	assert.Error(t, err)
}

func TestLoadReplayFixtures(t *testing.T) {
	dir := t.TempDir()

	writeFixture := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	writeFixture("state.json", `{"records":[{"key":"aa","data":"00"}]}`)
	writeFixture("ops.json", `{"operations":[{"index":0,"accounts":[],"data":"08"}]}`)
	writeFixture("expected.json", `{"results":[{"index":0,"result":"Success","applied":true}],"sequence":1}`)

	state, ops, expected, err := loadReplayFixtures(dir)
	require.NoError(t, err)
	assert.Len(t, state.Records, 1)
	assert.Len(t, ops.Operations, 1)
	assert.Equal(t, uint64(1), expected.Sequence)

	require.NoError(t, os.Remove(filepath.Join(dir, "ops.json")))
	_, _, _, err = loadReplayFixtures(dir)
	assert.ErrorContains(t, err, "ops.json")
}

func TestDescribeRecord(t *testing.T) {
	holding := &record.Holding{
		Owner:       fixtureAddress(0x01),
		Mint:        fixtureMint(3),
		Amount:      1234,
		Initialized: true,
	}
	envelope := record.EncodeEnvelope(record.KindHolding, keys.TokenProgram, holding.Encode())

	decoded := describeRecord(envelope)
	require.NotNil(t, decoded)
	assert.Equal(t, "Holding", decoded["kind"])
	assert.Equal(t, keys.TokenProgram.String(), decoded["program"])
	assert.Equal(t, fixtureAddress(0x01).String(), decoded["owner"])
	assert.Equal(t, uint64(1234), decoded["amount"])

	assert.Nil(t, describeRecord([]byte{0x01, 0x02}))
}
