package testcontracts

import (
	"encoding/json"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	multitest "github.com/CosmWasm/multitest"
)

// PayoutInit configures the fixed amount the contract pays per call.
type PayoutInit struct {
	Payout wasmvmtypes.Coin `json:"payout"`
}

// PayoutQuery asks for the configured payout.
type PayoutQuery struct {
	Payout *struct{} `json:"payout,omitempty"`
}

var payoutKey = []byte("payout")

// PayoutContract holds funds given at instantiation and pays the configured
// amount to whoever calls it.
func PayoutContract() multitest.Contract {
	instantiate := func(deps multitest.DepsMut, _ wasmvmtypes.Env, _ wasmvmtypes.MessageInfo, msg []byte) (*wasmvmtypes.Response, error) {
		var m PayoutInit
		if err := json.Unmarshal(msg, &m); err != nil {
			return nil, err
		}
		bz, err := json.Marshal(m.Payout)
		if err != nil {
			return nil, err
		}
		deps.Storage.Set(payoutKey, bz)
		return &wasmvmtypes.Response{}, nil
	}
	execute := func(deps multitest.DepsMut, _ wasmvmtypes.Env, info wasmvmtypes.MessageInfo, _ []byte) (*wasmvmtypes.Response, error) {
		var payout wasmvmtypes.Coin
		if err := json.Unmarshal(deps.Storage.Get(payoutKey), &payout); err != nil {
			return nil, err
		}
		return &wasmvmtypes.Response{
			Messages: []wasmvmtypes.SubMsg{{
				ReplyOn: wasmvmtypes.ReplyNever,
				Msg: wasmvmtypes.CosmosMsg{Bank: &wasmvmtypes.BankMsg{Send: &wasmvmtypes.SendMsg{
					ToAddress: info.Sender,
					Amount:    []wasmvmtypes.Coin{payout},
				}}},
			}},
			Attributes: []wasmvmtypes.EventAttribute{{Key: "action", Value: "payout"}},
		}, nil
	}
	query := func(deps multitest.Deps, _ wasmvmtypes.Env, msg []byte) ([]byte, error) {
		var m PayoutQuery
		if err := json.Unmarshal(msg, &m); err != nil {
			return nil, err
		}
		return deps.Storage.Get(payoutKey), nil
	}
	return multitest.NewContract(execute, instantiate, query)
}
