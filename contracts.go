package multitest

import (
	errorsmod "cosmossdk.io/errors"
	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/multitest/storage"
	"github.com/CosmWasm/multitest/types"
)

// Deps is what a contract sees on read-only entry points.
type Deps struct {
	Storage storage.ReadonlyStorage
	Api     Api
	Querier Querier
}

// DepsMut is what a contract sees on mutating entry points. Storage is the
// contract's own namespaced store inside the current transaction.
type DepsMut struct {
	Storage storage.Storage
	Api     Api
	Querier Querier
}

// Contract is a smart contract written as a native Go object. Messages and
// query payloads are raw JSON, exactly as a wasm contract would receive
// them.
type Contract interface {
	Instantiate(deps DepsMut, env wasmvmtypes.Env, info wasmvmtypes.MessageInfo, msg []byte) (*wasmvmtypes.Response, error)
	Execute(deps DepsMut, env wasmvmtypes.Env, info wasmvmtypes.MessageInfo, msg []byte) (*wasmvmtypes.Response, error)
	Query(deps Deps, env wasmvmtypes.Env, msg []byte) ([]byte, error)
	Sudo(deps DepsMut, env wasmvmtypes.Env, msg []byte) (*wasmvmtypes.Response, error)
	Reply(deps DepsMut, env wasmvmtypes.Env, reply wasmvmtypes.Reply) (*wasmvmtypes.Response, error)
	Migrate(deps DepsMut, env wasmvmtypes.Env, msg []byte) (*wasmvmtypes.Response, error)
}

// IBCContract is implemented by contracts that speak IBC in addition to the
// base entry points. The wasm keeper discovers support via type assertion.
type IBCContract interface {
	Contract
	IBCChannelOpen(deps DepsMut, env wasmvmtypes.Env, msg wasmvmtypes.IBCChannelOpenMsg) (*wasmvmtypes.IBC3ChannelOpenResponse, error)
	IBCChannelConnect(deps DepsMut, env wasmvmtypes.Env, msg wasmvmtypes.IBCChannelConnectMsg) (*wasmvmtypes.IBCBasicResponse, error)
	IBCChannelClose(deps DepsMut, env wasmvmtypes.Env, msg wasmvmtypes.IBCChannelCloseMsg) (*wasmvmtypes.IBCBasicResponse, error)
	IBCPacketReceive(deps DepsMut, env wasmvmtypes.Env, msg wasmvmtypes.IBCPacketReceiveMsg) (*wasmvmtypes.IBCReceiveResponse, error)
	IBCPacketAck(deps DepsMut, env wasmvmtypes.Env, msg wasmvmtypes.IBCPacketAckMsg) (*wasmvmtypes.IBCBasicResponse, error)
	IBCPacketTimeout(deps DepsMut, env wasmvmtypes.Env, msg wasmvmtypes.IBCPacketTimeoutMsg) (*wasmvmtypes.IBCBasicResponse, error)
}

// Entry point function types for ContractWrapper.
type (
	InstantiateFn func(deps DepsMut, env wasmvmtypes.Env, info wasmvmtypes.MessageInfo, msg []byte) (*wasmvmtypes.Response, error)
	ExecuteFn     func(deps DepsMut, env wasmvmtypes.Env, info wasmvmtypes.MessageInfo, msg []byte) (*wasmvmtypes.Response, error)
	QueryFn       func(deps Deps, env wasmvmtypes.Env, msg []byte) ([]byte, error)
	SudoFn        func(deps DepsMut, env wasmvmtypes.Env, msg []byte) (*wasmvmtypes.Response, error)
	ReplyFn       func(deps DepsMut, env wasmvmtypes.Env, reply wasmvmtypes.Reply) (*wasmvmtypes.Response, error)
	MigrateFn     func(deps DepsMut, env wasmvmtypes.Env, msg []byte) (*wasmvmtypes.Response, error)
)

// ContractWrapper assembles a Contract from plain functions. Execute,
// instantiate and query are mandatory; the remaining entry points are
// optional and report not-implemented errors unless set.
type ContractWrapper struct {
	instantiateFn InstantiateFn
	executeFn     ExecuteFn
	queryFn       QueryFn
	sudoFn        SudoFn
	replyFn       ReplyFn
	migrateFn     MigrateFn
}

var _ Contract = (*ContractWrapper)(nil)

func NewContract(execute ExecuteFn, instantiate InstantiateFn, query QueryFn) *ContractWrapper {
	return &ContractWrapper{
		instantiateFn: instantiate,
		executeFn:     execute,
		queryFn:       query,
	}
}

func (w *ContractWrapper) WithSudo(fn SudoFn) *ContractWrapper {
	w.sudoFn = fn
	return w
}

func (w *ContractWrapper) WithReply(fn ReplyFn) *ContractWrapper {
	w.replyFn = fn
	return w
}

func (w *ContractWrapper) WithMigrate(fn MigrateFn) *ContractWrapper {
	w.migrateFn = fn
	return w
}

func (w *ContractWrapper) Instantiate(deps DepsMut, env wasmvmtypes.Env, info wasmvmtypes.MessageInfo, msg []byte) (*wasmvmtypes.Response, error) {
	return w.instantiateFn(deps, env, info, msg)
}

func (w *ContractWrapper) Execute(deps DepsMut, env wasmvmtypes.Env, info wasmvmtypes.MessageInfo, msg []byte) (*wasmvmtypes.Response, error) {
	return w.executeFn(deps, env, info, msg)
}

func (w *ContractWrapper) Query(deps Deps, env wasmvmtypes.Env, msg []byte) ([]byte, error) {
	return w.queryFn(deps, env, msg)
}

func (w *ContractWrapper) Sudo(deps DepsMut, env wasmvmtypes.Env, msg []byte) (*wasmvmtypes.Response, error) {
	if w.sudoFn == nil {
		return nil, errorsmod.Wrap(types.ErrNotImplemented, "sudo")
	}
	return w.sudoFn(deps, env, msg)
}

func (w *ContractWrapper) Reply(deps DepsMut, env wasmvmtypes.Env, reply wasmvmtypes.Reply) (*wasmvmtypes.Response, error) {
	if w.replyFn == nil {
		return nil, errorsmod.Wrap(types.ErrNotImplemented, "reply")
	}
	return w.replyFn(deps, env, reply)
}

func (w *ContractWrapper) Migrate(deps DepsMut, env wasmvmtypes.Env, msg []byte) (*wasmvmtypes.Response, error) {
	if w.migrateFn == nil {
		return nil, errorsmod.Wrap(types.ErrNotImplemented, "migrate")
	}
	return w.migrateFn(deps, env, msg)
}
