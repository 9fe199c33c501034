package multitest

import (
	"encoding/json"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"
)

// Gov is the capability handling governance messages. There is no real
// proposal machinery; tests pick the failing default or an accepting module
// depending on whether gov messages matter to them.
type Gov = Module[wasmvmtypes.GovMsg, json.RawMessage, struct{}]

func NewGovFailingModule() Gov {
	return NewFailingModule[wasmvmtypes.GovMsg, json.RawMessage, struct{}]()
}

func NewGovAcceptingModule() Gov {
	return NewAcceptingModule[wasmvmtypes.GovMsg, json.RawMessage, struct{}]()
}
