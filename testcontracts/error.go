package testcontracts

import (
	"errors"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	multitest "github.com/CosmWasm/multitest"
)

// ErrorContract fails every execute call, and optionally instantiation too.
// Useful to test rollback and error replies.
func ErrorContract(instantiable bool) multitest.Contract {
	execute := func(_ multitest.DepsMut, _ wasmvmtypes.Env, _ wasmvmtypes.MessageInfo, _ []byte) (*wasmvmtypes.Response, error) {
		return nil, errors.New("this contract always fails")
	}
	instantiate := func(_ multitest.DepsMut, _ wasmvmtypes.Env, _ wasmvmtypes.MessageInfo, _ []byte) (*wasmvmtypes.Response, error) {
		if !instantiable {
			return nil, errors.New("this contract cannot be instantiated")
		}
		return &wasmvmtypes.Response{}, nil
	}
	query := func(_ multitest.Deps, _ wasmvmtypes.Env, _ []byte) ([]byte, error) {
		return nil, errors.New("this contract cannot be queried")
	}
	return multitest.NewContract(execute, instantiate, query)
}
