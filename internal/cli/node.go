package cli

import (
	"fmt"

	"github.com/LeJamon/goswapd/internal/config"
	"github.com/LeJamon/goswapd/internal/core/ledger"
	"github.com/LeJamon/goswapd/internal/core/op"
	_ "github.com/LeJamon/goswapd/internal/core/op/amm"
	"github.com/LeJamon/goswapd/internal/core/token"
	"github.com/LeJamon/goswapd/internal/storage/history"
	"github.com/LeJamon/goswapd/internal/storage/recordstore"
)

// node bundles the storage and engine stack a command runs against: the
// record store, the optional operations log, and the engine bound to them.
type node struct {
	store      *recordstore.Database
	operations *history.Store
	ledger     *ledger.Ledger
	engine     *op.Engine
}

// openNode opens the configured stores and builds the engine over them.
func openNode(cfg *config.Config) (*node, error) {
	store, err := recordstore.Open(recordstore.Config{
		Backend:     cfg.Store.Backend,
		Path:        cfg.StorePath(),
		CacheSize:   cfg.Store.CacheSize,
		Compression: cfg.Store.Compression,
	})
	if err != nil {
		return nil, fmt.Errorf("opening record store: %w", err)
	}

	var operations *history.Store
	if cfg.History.Enabled {
		hcfg := history.DefaultConfig(cfg.HistoryDSN())
		hcfg.Driver = cfg.History.Driver
		hcfg.MaxOpenConns = cfg.History.MaxOpenConns
		hcfg.MaxIdleConns = cfg.History.MaxIdleConns
		operations, err = history.Open(hcfg)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("opening operations log: %w", err)
		}
	}

	base := ledger.New(store)
	engine := op.NewEngine(base, op.EngineConfig{
		Tokens:   token.NewMover(),
		Sequence: base,
	})

	return &node{
		store:      store,
		operations: operations,
		ledger:     base,
		engine:     engine,
	}, nil
}

// Close releases the node's stores.
func (n *node) Close() {
	if n.operations != nil {
		n.operations.Close()
	}
	n.store.Close()
}
