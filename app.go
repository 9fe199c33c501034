package multitest

import (
	"encoding/json"

	"cosmossdk.io/log"
	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/multitest/storage"
	"github.com/CosmWasm/multitest/types"
)

// App is the simulated chain. It owns the storage, the current block and the
// router, and guarantees that every top-level call runs in one transaction:
// either all its effects land or none do.
type App struct {
	router *Router
	api    Api
	stor   storage.Storage
	block  wasmvmtypes.BlockInfo
	logger log.Logger

	wasm *WasmKeeper
}

// DefaultBlock matches the mock environment contracts are used to.
func DefaultBlock() wasmvmtypes.BlockInfo {
	return wasmvmtypes.BlockInfo{
		Height:  12_345,
		Time:    1_571_797_419_879_305_533,
		ChainID: "cosmos-testnet-14002",
	}
}

// NewApp builds an app with all defaults. Use NewAppBuilder to customize
// modules.
func NewApp() *App {
	return NewAppBuilder().Build(nil)
}

// Block returns the current block info.
func (app *App) Block() wasmvmtypes.BlockInfo { return app.block }

// Router exposes the installed modules, mainly for init and read hooks.
func (app *App) Router() *Router { return app.router }

// Api returns the address handling of this chain.
func (app *App) Api() Api { return app.api }

// Storage returns the root chain storage. Mutating it outside InitModules
// bypasses transaction semantics; prefer messages.
func (app *App) Storage() storage.Storage { return app.stor }

// WasmKeeper exposes the contract keeper for code registration and state
// inspection.
func (app *App) WasmKeeper() *WasmKeeper { return app.wasm }

// InitModules runs fn directly against chain storage, outside any message
// flow. Meant for genesis setup: initial balances, validators, metadata.
func (app *App) InitModules(fn func(router *Router, api Api, stor storage.Storage) error) error {
	return fn(app.router, app.api, app.stor)
}

// ReadModule gives fn read access to committed chain state.
func (app *App) ReadModule(fn func(router *Router, api Api, stor storage.ReadonlyStorage)) {
	fn(app.router, app.api, app.stor)
}

// SetBlock replaces the block info, processing the staking unbonding queue
// against the new time first.
func (app *App) SetBlock(block wasmvmtypes.BlockInfo) error {
	app.block = block
	return app.processStakingQueue()
}

// UpdateBlock mutates the block info in place, processing the staking
// unbonding queue against the result.
func (app *App) UpdateBlock(action func(block *wasmvmtypes.BlockInfo)) error {
	action(&app.block)
	return app.processStakingQueue()
}

// NextBlock advances one block: height plus one, five seconds later.
func (app *App) NextBlock() error {
	return app.UpdateBlock(func(block *wasmvmtypes.BlockInfo) {
		block.Height++
		block.Time += 5 * nanosPerSecond
	})
}

func (app *App) processStakingQueue() error {
	_, err := storage.Transactional(app.stor, func(sub storage.Storage) (struct{}, error) {
		_, err := app.router.Sudo(app.api, sub, app.block, SudoMsg{Staking: &StakingSudo{ProcessQueue: &struct{}{}}})
		return struct{}{}, err
	})
	return err
}

// StoreCode registers contract code under a default creator and returns its
// code id.
func (app *App) StoreCode(contract Contract) uint64 {
	return app.wasm.StoreCode("creator", contract)
}

// StoreCodeWithCreator registers contract code with an explicit creator.
func (app *App) StoreCodeWithCreator(creator string, contract Contract) uint64 {
	return app.wasm.StoreCode(creator, contract)
}

// StoreCodeWithID registers contract code under a fixed code id.
func (app *App) StoreCodeWithID(creator string, codeID uint64, contract Contract) (uint64, error) {
	return app.wasm.StoreCodeWithID(creator, codeID, contract)
}

// DuplicateCode registers a fresh code id sharing an existing code object.
func (app *App) DuplicateCode(codeID uint64) (uint64, error) {
	return app.wasm.DuplicateCode(codeID)
}

// ContractData returns the metadata of an instantiated contract.
func (app *App) ContractData(address string) (ContractData, error) {
	return app.wasm.ContractData(app.stor, address)
}

// DumpWasmRaw returns the raw state of one contract.
func (app *App) DumpWasmRaw(address string) []storage.Record {
	return app.wasm.DumpWasmRaw(app.stor, address)
}

// Execute dispatches one message in its own transaction.
func (app *App) Execute(sender string, msg wasmvmtypes.CosmosMsg) (types.AppResponse, error) {
	responses, err := app.ExecuteMulti(sender, []wasmvmtypes.CosmosMsg{msg})
	if err != nil {
		return types.AppResponse{}, err
	}
	return responses[0], nil
}

// ExecuteMulti dispatches several messages in one shared transaction. One
// failure rolls back all of them.
func (app *App) ExecuteMulti(sender string, msgs []wasmvmtypes.CosmosMsg) ([]types.AppResponse, error) {
	app.logger.Debug("executing messages", "sender", sender, "count", len(msgs))
	return storage.Transactional(app.stor, func(sub storage.Storage) ([]types.AppResponse, error) {
		responses := make([]types.AppResponse, 0, len(msgs))
		for _, msg := range msgs {
			res, err := app.router.Execute(app.api, sub, app.block, sender, msg)
			if err != nil {
				return nil, err
			}
			responses = append(responses, res)
		}
		return responses, nil
	})
}

// Sudo dispatches a privileged module message in its own transaction.
func (app *App) Sudo(msg SudoMsg) (types.AppResponse, error) {
	return storage.Transactional(app.stor, func(sub storage.Storage) (types.AppResponse, error) {
		return app.router.Sudo(app.api, sub, app.block, msg)
	})
}

// WasmSudo calls a contract's sudo entry point in its own transaction.
func (app *App) WasmSudo(contractAddr string, msg []byte) (types.AppResponse, error) {
	return storage.Transactional(app.stor, func(sub storage.Storage) (types.AppResponse, error) {
		return app.router.Wasm.Sudo(app.api, sub, app.router, app.block, contractAddr, msg)
	})
}

// Query answers any supported query against committed state.
func (app *App) Query(request wasmvmtypes.QueryRequest) ([]byte, error) {
	return app.router.Query(app.api, app.stor, app.block, request)
}

// QuerySmart runs a contract query.
func (app *App) QuerySmart(address string, msg []byte) ([]byte, error) {
	return app.Query(wasmvmtypes.QueryRequest{
		Wasm: &wasmvmtypes.WasmQuery{Smart: &wasmvmtypes.SmartQuery{ContractAddr: address, Msg: msg}},
	})
}

// QueryRaw reads one raw key of a contract's state.
func (app *App) QueryRaw(address string, key []byte) ([]byte, error) {
	return app.Query(wasmvmtypes.QueryRequest{
		Wasm: &wasmvmtypes.WasmQuery{Raw: &wasmvmtypes.RawQuery{ContractAddr: address, Key: key}},
	})
}

// QueryContractInfo returns the chain-visible info of a contract instance.
func (app *App) QueryContractInfo(address string) (wasmvmtypes.ContractInfoResponse, error) {
	bz, err := app.Query(wasmvmtypes.QueryRequest{
		Wasm: &wasmvmtypes.WasmQuery{ContractInfo: &wasmvmtypes.ContractInfoQuery{ContractAddr: address}},
	})
	if err != nil {
		return wasmvmtypes.ContractInfoResponse{}, err
	}
	var res wasmvmtypes.ContractInfoResponse
	if err := json.Unmarshal(bz, &res); err != nil {
		return wasmvmtypes.ContractInfoResponse{}, err
	}
	return res, nil
}

// QueryCodeInfo returns creator and checksum of a stored code.
func (app *App) QueryCodeInfo(codeID uint64) (wasmvmtypes.CodeInfoResponse, error) {
	bz, err := app.Query(wasmvmtypes.QueryRequest{
		Wasm: &wasmvmtypes.WasmQuery{CodeInfo: &wasmvmtypes.CodeInfoQuery{CodeID: codeID}},
	})
	if err != nil {
		return wasmvmtypes.CodeInfoResponse{}, err
	}
	var res wasmvmtypes.CodeInfoResponse
	if err := json.Unmarshal(bz, &res); err != nil {
		return wasmvmtypes.CodeInfoResponse{}, err
	}
	return res, nil
}

// QueryBalance returns one denom balance of an account.
func (app *App) QueryBalance(address, denom string) (wasmvmtypes.Coin, error) {
	bz, err := app.Query(wasmvmtypes.QueryRequest{
		Bank: &wasmvmtypes.BankQuery{Balance: &wasmvmtypes.BalanceQuery{Address: address, Denom: denom}},
	})
	if err != nil {
		return wasmvmtypes.Coin{}, err
	}
	var res wasmvmtypes.BalanceResponse
	if err := json.Unmarshal(bz, &res); err != nil {
		return wasmvmtypes.Coin{}, err
	}
	return res.Amount, nil
}

// QueryAllBalances returns the full balance of an account.
func (app *App) QueryAllBalances(address string) ([]wasmvmtypes.Coin, error) {
	bz, err := app.Query(wasmvmtypes.QueryRequest{
		Bank: &wasmvmtypes.BankQuery{AllBalances: &wasmvmtypes.AllBalancesQuery{Address: address}},
	})
	if err != nil {
		return nil, err
	}
	var res wasmvmtypes.AllBalancesResponse
	if err := json.Unmarshal(bz, &res); err != nil {
		return nil, err
	}
	return res.Amount, nil
}

// IBCChannelOpen drives the contract's channel open callback.
func (app *App) IBCChannelOpen(address string, msg wasmvmtypes.IBCChannelOpenMsg) (*wasmvmtypes.IBC3ChannelOpenResponse, error) {
	return storage.Transactional(app.stor, func(sub storage.Storage) (*wasmvmtypes.IBC3ChannelOpenResponse, error) {
		return app.wasm.IBCChannelOpen(app.api, sub, app.router, app.block, address, msg)
	})
}

// IBCChannelConnect drives the contract's channel connect callback.
func (app *App) IBCChannelConnect(address string, msg wasmvmtypes.IBCChannelConnectMsg) (types.AppResponse, error) {
	return storage.Transactional(app.stor, func(sub storage.Storage) (types.AppResponse, error) {
		return app.wasm.IBCChannelConnect(app.api, sub, app.router, app.block, address, msg)
	})
}

// IBCChannelClose drives the contract's channel close callback.
func (app *App) IBCChannelClose(address string, msg wasmvmtypes.IBCChannelCloseMsg) (types.AppResponse, error) {
	return storage.Transactional(app.stor, func(sub storage.Storage) (types.AppResponse, error) {
		return app.wasm.IBCChannelClose(app.api, sub, app.router, app.block, address, msg)
	})
}

// IBCPacketReceive delivers a packet to the contract. The response Data is
// the acknowledgement to relay back.
func (app *App) IBCPacketReceive(address string, msg wasmvmtypes.IBCPacketReceiveMsg) (types.AppResponse, error) {
	return storage.Transactional(app.stor, func(sub storage.Storage) (types.AppResponse, error) {
		return app.wasm.IBCPacketReceive(app.api, sub, app.router, app.block, address, msg)
	})
}

// IBCPacketAck delivers an acknowledgement to the contract.
func (app *App) IBCPacketAck(address string, msg wasmvmtypes.IBCPacketAckMsg) (types.AppResponse, error) {
	return storage.Transactional(app.stor, func(sub storage.Storage) (types.AppResponse, error) {
		return app.wasm.IBCPacketAck(app.api, sub, app.router, app.block, address, msg)
	})
}

// IBCPacketTimeout delivers a packet timeout to the contract.
func (app *App) IBCPacketTimeout(address string, msg wasmvmtypes.IBCPacketTimeoutMsg) (types.AppResponse, error) {
	return storage.Transactional(app.stor, func(sub storage.Storage) (types.AppResponse, error) {
		return app.wasm.IBCPacketTimeout(app.api, sub, app.router, app.block, address, msg)
	})
}
