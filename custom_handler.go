package multitest

import (
	"encoding/json"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/multitest/storage"
	"github.com/CosmWasm/multitest/types"
)

// Custom is the capability handling CosmosMsg::Custom and custom queries.
// Payloads are opaque JSON owned by the test.
type Custom = Module[json.RawMessage, json.RawMessage, json.RawMessage]

func NewCustomFailingModule() Custom {
	return NewFailingModule[json.RawMessage, json.RawMessage, json.RawMessage]()
}

// CachingCustomHandler accepts every custom message and records it, so a
// test can assert what a contract dispatched without wiring real handlers.
type CachingCustomHandler struct {
	execs []json.RawMessage
	sudos []json.RawMessage
}

var _ Custom = (*CachingCustomHandler)(nil)

func NewCachingCustomHandler() *CachingCustomHandler {
	return &CachingCustomHandler{}
}

// CollectedExecs returns the custom execute messages seen so far.
func (h *CachingCustomHandler) CollectedExecs() []json.RawMessage { return h.execs }

// CollectedSudos returns the custom sudo messages seen so far.
func (h *CachingCustomHandler) CollectedSudos() []json.RawMessage { return h.sudos }

func (h *CachingCustomHandler) Reset() {
	h.execs = nil
	h.sudos = nil
}

func (h *CachingCustomHandler) Execute(_ Api, _ storage.Storage, _ CosmosRouter, _ wasmvmtypes.BlockInfo, _ string, msg json.RawMessage) (types.AppResponse, error) {
	h.execs = append(h.execs, append(json.RawMessage{}, msg...))
	return types.AppResponse{}, nil
}

func (h *CachingCustomHandler) Query(_ Api, _ storage.ReadonlyStorage, _ Querier, _ wasmvmtypes.BlockInfo, _ json.RawMessage) ([]byte, error) {
	return []byte("null"), nil
}

func (h *CachingCustomHandler) Sudo(_ Api, _ storage.Storage, _ CosmosRouter, _ wasmvmtypes.BlockInfo, msg json.RawMessage) (types.AppResponse, error) {
	h.sudos = append(h.sudos, append(json.RawMessage{}, msg...))
	return types.AppResponse{}, nil
}
