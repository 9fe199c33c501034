package testcontracts

import (
	"encoding/json"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	multitest "github.com/CosmWasm/multitest"
)

// CallerContract forwards the message it receives as its own dispatch. The
// execute payload is a JSON CosmosMsg; the contract emits it fire-and-forget
// so failures bubble up as its own failure.
func CallerContract() multitest.Contract {
	execute := func(_ multitest.DepsMut, _ wasmvmtypes.Env, _ wasmvmtypes.MessageInfo, msg []byte) (*wasmvmtypes.Response, error) {
		var forward wasmvmtypes.CosmosMsg
		if err := json.Unmarshal(msg, &forward); err != nil {
			return nil, err
		}
		return &wasmvmtypes.Response{
			Messages: []wasmvmtypes.SubMsg{{ReplyOn: wasmvmtypes.ReplyNever, Msg: forward}},
		}, nil
	}
	instantiate := func(_ multitest.DepsMut, _ wasmvmtypes.Env, _ wasmvmtypes.MessageInfo, _ []byte) (*wasmvmtypes.Response, error) {
		return &wasmvmtypes.Response{}, nil
	}
	query := func(_ multitest.Deps, _ wasmvmtypes.Env, _ []byte) ([]byte, error) {
		return []byte("null"), nil
	}
	return multitest.NewContract(execute, instantiate, query)
}
