package amm

import (
	"fmt"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goswapd/internal/core/ledger"
	"github.com/LeJamon/goswapd/internal/core/ledger/keys"
	"github.com/LeJamon/goswapd/internal/core/ledger/record"
	"github.com/LeJamon/goswapd/internal/core/op"
	"github.com/LeJamon/goswapd/internal/core/token"
	"github.com/LeJamon/goswapd/internal/storage/recordstore"
	crypto "github.com/LeJamon/goswapd/internal/crypto/common"
)

// env runs operations through the full stack: an engine over a real ledger
// on the in-memory record store, moving balances with the reference token
// mover.
type env struct {
	t      *testing.T
	ledger *ledger.Ledger
	engine *op.Engine
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store, err := recordstore.Open(recordstore.Config{Backend: "memory", CacheSize: 64})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	l := ledger.New(store)
	engine := op.NewEngine(l, op.EngineConfig{Tokens: token.NewMover(), Sequence: l})
	return &env{t: t, ledger: l, engine: engine}
}

func addr(name string) record.Address {
	return record.Address(crypto.Sha512Half([]byte(name)))
}

func u128(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func signer(key record.Address) op.AccountRef {
	return op.AccountRef{Key: key, Signer: true}
}

func ref(key record.Address) op.AccountRef {
	return op.AccountRef{Key: key}
}

func (e *env) submit(tag op.Tag, payload []byte, refs ...op.AccountRef) op.ApplyResult {
	return e.engine.Apply(op.Submission{
		Program:  keys.EngineProgram,
		Accounts: refs,
		Data:     append([]byte{byte(tag)}, payload...),
	})
}

func (e *env) ok(result op.ApplyResult) op.ApplyResult {
	e.t.Helper()
	require.Equal(e.t, op.Success, result.Result, "unexpected result: %s", result.Message)
	require.True(e.t, result.Applied)
	return result
}

func (e *env) fail(result op.ApplyResult, want op.Result) {
	e.t.Helper()
	require.Equal(e.t, want, result.Result, "unexpected result: %s", result.Message)
	require.False(e.t, result.Applied)
}

// seedHolding writes a funded token account straight to the ledger, the way
// a deployment seeds balances at genesis.
func (e *env) seedHolding(key, owner, mint record.Address, amount uint64) {
	e.t.Helper()
	holding := &record.Holding{Owner: owner, Mint: mint, Amount: amount, Initialized: true}
	err := e.ledger.Insert(key, record.EncodeEnvelope(record.KindHolding, keys.TokenProgram, holding.Encode()))
	require.NoError(e.t, err)
}

// seedForeign occupies a slot with a record from an unrelated storage
// domain.
func (e *env) seedForeign(key record.Address) {
	e.t.Helper()
	foreign := addr("unrelated-program")
	err := e.ledger.Insert(key, record.EncodeEnvelope(record.KindHolding, foreign, (&record.Holding{Initialized: true}).Encode()))
	require.NoError(e.t, err)
}

func (e *env) readEnvelope(key record.Address, kind record.Kind, program record.Address) []byte {
	e.t.Helper()
	data, err := e.ledger.Read(key)
	require.NoError(e.t, err)
	require.NotNil(e.t, data, "record %s is absent", key)
	k, p, payload, err := record.DecodeEnvelope(data)
	require.NoError(e.t, err)
	require.Equal(e.t, kind, k)
	require.Equal(e.t, program, p)
	return payload
}

func (e *env) network(key record.Address) *record.Network {
	e.t.Helper()
	network, err := record.DecodeNetwork(e.readEnvelope(key, record.KindNetwork, keys.EngineProgram))
	require.NoError(e.t, err)
	return network
}

func (e *env) pool(key record.Address) *record.Pool {
	e.t.Helper()
	pool, err := record.DecodePool(e.readEnvelope(key, record.KindPool, keys.EngineProgram))
	require.NoError(e.t, err)
	return pool
}

func (e *env) lptAccount(key record.Address) *record.LPTAccount {
	e.t.Helper()
	account, err := record.DecodeLPTAccount(e.readEnvelope(key, record.KindLPTAccount, keys.EngineProgram))
	require.NoError(e.t, err)
	return account
}

func (e *env) holding(key record.Address) *record.Holding {
	e.t.Helper()
	holding, err := record.DecodeHolding(e.readEnvelope(key, record.KindHolding, keys.TokenProgram))
	require.NoError(e.t, err)
	return holding
}

func (e *env) absent(key record.Address) {
	e.t.Helper()
	data, err := e.ledger.Read(key)
	require.NoError(e.t, err)
	require.Nil(e.t, data, "record %s should be absent", key)
}

// snapshot captures the raw stored bytes under the given keys, for
// asserting that a failed operation left them untouched.
func (e *env) snapshot(addrs ...record.Address) map[record.Address][]byte {
	e.t.Helper()
	out := make(map[record.Address][]byte, len(addrs))
	for _, key := range addrs {
		data, err := e.ledger.Read(key)
		require.NoError(e.t, err)
		out[key] = data
	}
	return out
}

func (e *env) requireUnchanged(before map[record.Address][]byte) {
	e.t.Helper()
	for key, want := range before {
		data, err := e.ledger.Read(key)
		require.NoError(e.t, err)
		require.Equal(e.t, want, data, "record %s changed", key)
	}
}

type networkFixture struct {
	key   record.Address
	mints [record.MaxMints - 1]record.Address
}

func (e *env) createNetwork(name string) *networkFixture {
	e.t.Helper()
	f := &networkFixture{key: addr(name)}
	refs := []op.AccountRef{signer(f.key)}
	for i := range f.mints {
		f.mints[i] = addr(fmt.Sprintf("%s/mint-%d", name, i+1))
		refs = append(refs, ref(f.mints[i]))
	}
	e.ok(e.submit(op.TagInitializeNetwork, nil, refs...))
	return f
}

type poolFixture struct {
	owner     record.Address
	key       record.Address
	treasury  record.Address
	account   record.Address
	authority record.Address
	mint      record.Address
	source    record.Address
}

// createPool seeds a source account holding exactly the initial reserve and
// constructs a pool from it.
func (e *env) createPool(network *networkFixture, name string, mint record.Address, reserve, lpt uint64) *poolFixture {
	e.t.Helper()
	f := &poolFixture{
		owner:    addr(name + "/owner"),
		key:      addr(name + "/pool"),
		treasury: addr(name + "/treasury"),
		account:  addr(name + "/lpt"),
		mint:     mint,
		source:   addr(name + "/source"),
	}
	f.authority = keys.PoolAuthority(f.key)
	e.seedHolding(f.source, f.owner, mint, reserve)

	payload := op.EncodeU64(nil, reserve)
	payload = op.EncodeU128(payload, u128(lpt))
	e.ok(e.submit(op.TagInitializePool, payload,
		signer(f.owner), ref(network.key), signer(f.key), ref(f.treasury),
		signer(f.account), ref(f.source), ref(f.mint), ref(f.authority)))
	return f
}

// marketFixture is the standard three-pool arrangement swaps run against:
// the primary pool the network settles through plus two listed assets.
type marketFixture struct {
	network *networkFixture
	primary *poolFixture
	alpha   *poolFixture
	beta    *poolFixture
}

func (e *env) createMarket(name string) *marketFixture {
	e.t.Helper()
	network := e.createNetwork(name)
	return &marketFixture{
		network: network,
		primary: e.createPool(network, name+"/primary", record.PrimaryMint, 1_000_000_000, 1_000_000_000),
		alpha:   e.createPool(network, name+"/alpha", network.mints[0], 500_000_000, 500_000_000),
		beta:    e.createPool(network, name+"/beta", network.mints[1], 200_000_000, 400_000_000),
	}
}

// swap submits a swap with the standard slot layout.
func (e *env) swap(owner record.Address, amount uint64, bid, ask, settle *poolFixture, source, destination, vault record.Address) op.ApplyResult {
	return e.submit(op.TagSwap, op.EncodeU64(nil, amount),
		signer(owner),
		ref(bid.key), ref(bid.treasury), ref(source),
		ref(ask.key), ref(ask.treasury), ref(destination), ref(ask.authority),
		ref(settle.key), ref(settle.treasury), ref(vault), ref(settle.authority))
}
