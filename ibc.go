package multitest

import (
	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"
)

// Ibc is the capability handling IBC transfer and raw packet messages sent
// by contracts. Channel lifecycle and packet delivery towards contracts go
// through the wasm keeper's IBC entry points instead; this module only
// decides what happens to outbound IBC messages.
type Ibc = Module[wasmvmtypes.IBCMsg, wasmvmtypes.IBCQuery, struct{}]

func NewIbcFailingModule() Ibc {
	return NewFailingModule[wasmvmtypes.IBCMsg, wasmvmtypes.IBCQuery, struct{}]()
}

func NewIbcAcceptingModule() Ibc {
	return NewAcceptingModule[wasmvmtypes.IBCMsg, wasmvmtypes.IBCQuery, struct{}]()
}
