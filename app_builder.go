package multitest

import (
	"cosmossdk.io/log"
	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/multitest/storage"
)

// AppBuilder assembles an App from parts, with working defaults for
// everything. Override what the test cares about, leave the rest.
type AppBuilder struct {
	api          Api
	block        *wasmvmtypes.BlockInfo
	stor         storage.Storage
	logger       log.Logger
	wasm         *WasmKeeper
	bank         Bank
	staking      Staking
	distribution Distribution
	custom       Custom
	gov          Gov
	ibc          Ibc
}

func NewAppBuilder() *AppBuilder {
	return &AppBuilder{}
}

func (b *AppBuilder) WithApi(api Api) *AppBuilder {
	b.api = api
	return b
}

func (b *AppBuilder) WithBlock(block wasmvmtypes.BlockInfo) *AppBuilder {
	b.block = &block
	return b
}

func (b *AppBuilder) WithStorage(stor storage.Storage) *AppBuilder {
	b.stor = stor
	return b
}

func (b *AppBuilder) WithLogger(logger log.Logger) *AppBuilder {
	b.logger = logger
	return b
}

func (b *AppBuilder) WithWasm(wasm *WasmKeeper) *AppBuilder {
	b.wasm = wasm
	return b
}

func (b *AppBuilder) WithBank(bank Bank) *AppBuilder {
	b.bank = bank
	return b
}

func (b *AppBuilder) WithStaking(staking Staking) *AppBuilder {
	b.staking = staking
	return b
}

func (b *AppBuilder) WithDistribution(distribution Distribution) *AppBuilder {
	b.distribution = distribution
	return b
}

func (b *AppBuilder) WithCustom(custom Custom) *AppBuilder {
	b.custom = custom
	return b
}

func (b *AppBuilder) WithGov(gov Gov) *AppBuilder {
	b.gov = gov
	return b
}

func (b *AppBuilder) WithIbc(ibc Ibc) *AppBuilder {
	b.ibc = ibc
	return b
}

// Build resolves defaults and runs the optional init hook against genesis
// state before handing the app out.
func (b *AppBuilder) Build(init func(router *Router, api Api, stor storage.Storage) error) *App {
	api := b.api
	if api == nil {
		api = NewSimpleApi()
	}
	stor := b.stor
	if stor == nil {
		stor = storage.NewMemoryStorage()
	}
	logger := b.logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	wasm := b.wasm
	if wasm == nil {
		wasm = NewWasmKeeper()
	}
	bank := b.bank
	if bank == nil {
		bank = NewBankKeeper()
	}
	staking := b.staking
	if staking == nil {
		staking = NewStakeKeeper()
	}
	distribution := b.distribution
	if distribution == nil {
		distribution = NewDistributionKeeper(NewStakeKeeper())
	}
	custom := b.custom
	if custom == nil {
		custom = NewCustomFailingModule()
	}
	gov := b.gov
	if gov == nil {
		gov = NewGovFailingModule()
	}
	ibc := b.ibc
	if ibc == nil {
		ibc = NewIbcFailingModule()
	}
	block := DefaultBlock()
	if b.block != nil {
		block = *b.block
	}

	router := &Router{
		Wasm:         wasm,
		Bank:         bank,
		Custom:       custom,
		Staking:      staking,
		Distribution: distribution,
		Ibc:          ibc,
		Gov:          gov,
	}
	app := &App{
		router: router,
		api:    api,
		stor:   stor,
		block:  block,
		logger: logger,
		wasm:   wasm,
	}
	if init != nil {
		if err := app.InitModules(init); err != nil {
			panic(err)
		}
	}
	return app
}
