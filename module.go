// Package multitest is an in-process blockchain simulator for testing
// CosmWasm contracts written as native Go objects. Contracts, bank balances
// and staking state live in layered in-memory storage; every top-level
// message runs in its own transaction with the same all-or-nothing semantics
// a real chain gives.
package multitest

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"
	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/multitest/storage"
	"github.com/CosmWasm/multitest/types"
)

// Querier answers contract-side queries against committed-plus-pending
// state.
type Querier interface {
	Query(request wasmvmtypes.QueryRequest) ([]byte, error)
}

// Module is one message-handling capability of the chain: bank, staking,
// custom, and so on. Execute and Sudo mutate state through the passed
// storage; Query must treat it as read-only. The router reference allows a
// module to dispatch messages to its peers within the same transaction.
type Module[ExecT any, QueryT any, SudoT any] interface {
	Execute(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, sender string, msg ExecT) (types.AppResponse, error)
	Query(api Api, stor storage.ReadonlyStorage, querier Querier, block wasmvmtypes.BlockInfo, request QueryT) ([]byte, error)
	Sudo(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, msg SudoT) (types.AppResponse, error)
}

// FailingModule rejects everything with an error naming the message. It is
// the default for capabilities a test did not configure.
type FailingModule[ExecT any, QueryT any, SudoT any] struct{}

var _ Module[struct{}, struct{}, struct{}] = FailingModule[struct{}, struct{}, struct{}]{}

func NewFailingModule[ExecT any, QueryT any, SudoT any]() FailingModule[ExecT, QueryT, SudoT] {
	return FailingModule[ExecT, QueryT, SudoT]{}
}

func (FailingModule[ExecT, QueryT, SudoT]) Execute(_ Api, _ storage.Storage, _ CosmosRouter, _ wasmvmtypes.BlockInfo, sender string, msg ExecT) (types.AppResponse, error) {
	return types.AppResponse{}, errorsmod.Wrapf(types.ErrUnsupportedMsg, "unexpected exec msg %v from %s", compactJSON(msg), sender)
}

func (FailingModule[ExecT, QueryT, SudoT]) Query(_ Api, _ storage.ReadonlyStorage, _ Querier, _ wasmvmtypes.BlockInfo, request QueryT) ([]byte, error) {
	return nil, errorsmod.Wrapf(types.ErrUnsupportedQuery, "unexpected custom query %v", compactJSON(request))
}

func (FailingModule[ExecT, QueryT, SudoT]) Sudo(_ Api, _ storage.Storage, _ CosmosRouter, _ wasmvmtypes.BlockInfo, msg SudoT) (types.AppResponse, error) {
	return types.AppResponse{}, errorsmod.Wrapf(types.ErrUnsupportedMsg, "unexpected sudo msg %v", compactJSON(msg))
}

// AcceptingModule swallows everything with an empty success. Useful to make
// messages of an uninteresting capability no-ops in a test.
type AcceptingModule[ExecT any, QueryT any, SudoT any] struct{}

var _ Module[struct{}, struct{}, struct{}] = AcceptingModule[struct{}, struct{}, struct{}]{}

func NewAcceptingModule[ExecT any, QueryT any, SudoT any]() AcceptingModule[ExecT, QueryT, SudoT] {
	return AcceptingModule[ExecT, QueryT, SudoT]{}
}

func (AcceptingModule[ExecT, QueryT, SudoT]) Execute(_ Api, _ storage.Storage, _ CosmosRouter, _ wasmvmtypes.BlockInfo, _ string, _ ExecT) (types.AppResponse, error) {
	return types.AppResponse{}, nil
}

func (AcceptingModule[ExecT, QueryT, SudoT]) Query(_ Api, _ storage.ReadonlyStorage, _ Querier, _ wasmvmtypes.BlockInfo, _ QueryT) ([]byte, error) {
	return []byte("null"), nil
}

func (AcceptingModule[ExecT, QueryT, SudoT]) Sudo(_ Api, _ storage.Storage, _ CosmosRouter, _ wasmvmtypes.BlockInfo, _ SudoT) (types.AppResponse, error) {
	return types.AppResponse{}, nil
}

// compactJSON renders a message for error texts without the noise of Go
// struct syntax.
func compactJSON(v any) string {
	bz, err := json.Marshal(v)
	if err != nil {
		return "?"
	}
	return string(bz)
}
