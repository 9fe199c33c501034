package multitest

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"
	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/multitest/storage"
	"github.com/CosmWasm/multitest/types"
)

// CosmosRouter is the dispatch seam handed to modules and the wasm keeper
// so they can route messages to their peers inside the current transaction.
type CosmosRouter interface {
	Execute(api Api, stor storage.Storage, block wasmvmtypes.BlockInfo, sender string, msg wasmvmtypes.CosmosMsg) (types.AppResponse, error)
	Query(api Api, stor storage.ReadonlyStorage, block wasmvmtypes.BlockInfo, request wasmvmtypes.QueryRequest) ([]byte, error)
	Sudo(api Api, stor storage.Storage, block wasmvmtypes.BlockInfo, msg SudoMsg) (types.AppResponse, error)
}

// SudoMsg addresses a module with a privileged message that has no on-chain
// sender.
type SudoMsg struct {
	Bank    *BankSudo       `json:"bank,omitempty"`
	Custom  json.RawMessage `json:"custom,omitempty"`
	Staking *StakingSudo    `json:"staking,omitempty"`
	Wasm    *WasmSudo       `json:"wasm,omitempty"`
}

// WasmSudo calls a contract's sudo entry point.
type WasmSudo struct {
	ContractAddr string          `json:"contract_addr"`
	Msg          json.RawMessage `json:"message"`
}

// Router owns one handler per message capability and dispatches CosmosMsg,
// QueryRequest and SudoMsg values to them by variant.
type Router struct {
	Wasm         Wasm
	Bank         Bank
	Custom       Custom
	Staking      Staking
	Distribution Distribution
	Ibc          Ibc
	Gov          Gov
}

var _ CosmosRouter = (*Router)(nil)

func (r *Router) Execute(api Api, stor storage.Storage, block wasmvmtypes.BlockInfo, sender string, msg wasmvmtypes.CosmosMsg) (types.AppResponse, error) {
	switch {
	case msg.Wasm != nil:
		return r.Wasm.Execute(api, stor, r, block, sender, *msg.Wasm)
	case msg.Bank != nil:
		return r.Bank.Execute(api, stor, r, block, sender, *msg.Bank)
	case msg.Custom != nil:
		return r.Custom.Execute(api, stor, r, block, sender, json.RawMessage(msg.Custom))
	case msg.Staking != nil:
		return r.Staking.Execute(api, stor, r, block, sender, *msg.Staking)
	case msg.Distribution != nil:
		return r.Distribution.Execute(api, stor, r, block, sender, *msg.Distribution)
	case msg.IBC != nil:
		return r.Ibc.Execute(api, stor, r, block, sender, *msg.IBC)
	case msg.Gov != nil:
		return r.Gov.Execute(api, stor, r, block, sender, *msg.Gov)
	default:
		return types.AppResponse{}, errorsmod.Wrapf(types.ErrUnsupportedMsg, "cannot execute %s", compactJSON(msg))
	}
}

func (r *Router) Query(api Api, stor storage.ReadonlyStorage, block wasmvmtypes.BlockInfo, request wasmvmtypes.QueryRequest) ([]byte, error) {
	querier := r.Querier(api, stor, block)
	switch {
	case request.Wasm != nil:
		return r.Wasm.Query(api, stor, querier, block, *request.Wasm)
	case request.Bank != nil:
		return r.Bank.Query(api, stor, querier, block, *request.Bank)
	case request.Custom != nil:
		return r.Custom.Query(api, stor, querier, block, json.RawMessage(request.Custom))
	case request.Staking != nil:
		return r.Staking.Query(api, stor, querier, block, *request.Staking)
	case request.Distribution != nil:
		return r.Distribution.Query(api, stor, querier, block, *request.Distribution)
	case request.IBC != nil:
		return r.Ibc.Query(api, stor, querier, block, *request.IBC)
	default:
		return nil, errorsmod.Wrapf(types.ErrUnsupportedQuery, "cannot query %s", compactJSON(request))
	}
}

func (r *Router) Sudo(api Api, stor storage.Storage, block wasmvmtypes.BlockInfo, msg SudoMsg) (types.AppResponse, error) {
	switch {
	case msg.Wasm != nil:
		return r.Wasm.Sudo(api, stor, r, block, msg.Wasm.ContractAddr, msg.Wasm.Msg)
	case msg.Bank != nil:
		return r.Bank.Sudo(api, stor, r, block, *msg.Bank)
	case msg.Custom != nil:
		return r.Custom.Sudo(api, stor, r, block, msg.Custom)
	case msg.Staking != nil:
		return r.Staking.Sudo(api, stor, r, block, *msg.Staking)
	default:
		return types.AppResponse{}, errorsmod.Wrapf(types.ErrUnsupportedMsg, "cannot sudo %s", compactJSON(msg))
	}
}

// Querier binds the router to a fixed state snapshot for contract queries.
func (r *Router) Querier(api Api, stor storage.ReadonlyStorage, block wasmvmtypes.BlockInfo) Querier {
	return &routerQuerier{router: r, api: api, stor: stor, block: block}
}

type routerQuerier struct {
	router *Router
	api    Api
	stor   storage.ReadonlyStorage
	block  wasmvmtypes.BlockInfo
}

func (q *routerQuerier) Query(request wasmvmtypes.QueryRequest) ([]byte, error) {
	return q.router.Query(q.api, q.stor, q.block, request)
}
