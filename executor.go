package multitest

import (
	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/multitest/types"
)

// High level helpers for the common test flows. They dispatch through
// Execute like any other message and post-process the response envelopes.

// InstantiateContract creates a contract instance and returns its address.
func (app *App) InstantiateContract(sender string, codeID uint64, msg []byte, funds []wasmvmtypes.Coin, label, admin string) (string, error) {
	res, err := app.Execute(sender, wasmvmtypes.CosmosMsg{
		Wasm: &wasmvmtypes.WasmMsg{Instantiate: &wasmvmtypes.InstantiateMsg{
			Admin:  admin,
			CodeID: codeID,
			Msg:    msg,
			Funds:  funds,
			Label:  label,
		}},
	})
	if err != nil {
		return "", err
	}
	parsed, err := ParseInstantiateResponse(res.Data)
	if err != nil {
		return "", err
	}
	return parsed.Address, nil
}

// Instantiate2Contract creates a contract instance at a salt-predicted
// address and returns that address.
func (app *App) Instantiate2Contract(sender string, codeID uint64, msg []byte, funds []wasmvmtypes.Coin, label, admin string, salt []byte) (string, error) {
	res, err := app.Execute(sender, wasmvmtypes.CosmosMsg{
		Wasm: &wasmvmtypes.WasmMsg{Instantiate2: &wasmvmtypes.Instantiate2Msg{
			Admin:  admin,
			CodeID: codeID,
			Msg:    msg,
			Funds:  funds,
			Label:  label,
			Salt:   salt,
		}},
	})
	if err != nil {
		return "", err
	}
	parsed, err := ParseInstantiateResponse(res.Data)
	if err != nil {
		return "", err
	}
	return parsed.Address, nil
}

// ExecuteContract runs a contract execute message and unwraps the data
// envelope, so the returned Data is what the contract chain produced.
func (app *App) ExecuteContract(sender, contractAddr string, msg []byte, funds []wasmvmtypes.Coin) (types.AppResponse, error) {
	res, err := app.Execute(sender, wasmvmtypes.CosmosMsg{
		Wasm: &wasmvmtypes.WasmMsg{Execute: &wasmvmtypes.ExecuteMsg{
			ContractAddr: contractAddr,
			Msg:          msg,
			Funds:        funds,
		}},
	})
	if err != nil {
		return types.AppResponse{}, err
	}
	parsed, err := ParseExecuteResponse(res.Data)
	if err != nil {
		return types.AppResponse{}, err
	}
	res.Data = parsed.Data
	return res, nil
}

// MigrateContract switches a contract to a new code id. Only the admin may
// call this.
func (app *App) MigrateContract(sender, contractAddr string, newCodeID uint64, msg []byte) (types.AppResponse, error) {
	return app.Execute(sender, wasmvmtypes.CosmosMsg{
		Wasm: &wasmvmtypes.WasmMsg{Migrate: &wasmvmtypes.MigrateMsg{
			ContractAddr: contractAddr,
			NewCodeID:    newCodeID,
			Msg:          msg,
		}},
	})
}

// UpdateContractAdmin hands contract admin rights to a new address.
func (app *App) UpdateContractAdmin(sender, contractAddr, newAdmin string) (types.AppResponse, error) {
	return app.Execute(sender, wasmvmtypes.CosmosMsg{
		Wasm: &wasmvmtypes.WasmMsg{UpdateAdmin: &wasmvmtypes.UpdateAdminMsg{
			ContractAddr: contractAddr,
			Admin:        newAdmin,
		}},
	})
}

// ClearContractAdmin removes the contract admin, making the contract
// immutable.
func (app *App) ClearContractAdmin(sender, contractAddr string) (types.AppResponse, error) {
	return app.Execute(sender, wasmvmtypes.CosmosMsg{
		Wasm: &wasmvmtypes.WasmMsg{ClearAdmin: &wasmvmtypes.ClearAdminMsg{
			ContractAddr: contractAddr,
		}},
	})
}

// SendTokens moves native coins between accounts.
func (app *App) SendTokens(sender, recipient string, amount []wasmvmtypes.Coin) (types.AppResponse, error) {
	return app.Execute(sender, wasmvmtypes.CosmosMsg{
		Bank: &wasmvmtypes.BankMsg{Send: &wasmvmtypes.SendMsg{
			ToAddress: recipient,
			Amount:    amount,
		}},
	})
}
