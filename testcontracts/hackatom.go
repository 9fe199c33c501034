package testcontracts

import (
	"encoding/json"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	multitest "github.com/CosmWasm/multitest"
)

// HackatomInit sets the beneficiary receiving the contract's whole balance
// on release.
type HackatomInit struct {
	Beneficiary string `json:"beneficiary"`
}

// HackatomMigrate switches the beneficiary.
type HackatomMigrate struct {
	NewGuy string `json:"new_guy"`
}

// HackatomQuery reads the stored beneficiary.
type HackatomQuery struct {
	Beneficiary *struct{} `json:"beneficiary,omitempty"`
}

// HackatomBeneficiaryResponse answers HackatomQuery.
type HackatomBeneficiaryResponse struct {
	Beneficiary string `json:"beneficiary"`
}

var beneficiaryKey = []byte("beneficiary")

// HackatomContract stores a beneficiary and releases its full balance to
// them on any execute call. Its migrate handler replaces the beneficiary,
// which makes it the standard fixture for migration tests.
func HackatomContract() multitest.Contract {
	instantiate := func(deps multitest.DepsMut, _ wasmvmtypes.Env, _ wasmvmtypes.MessageInfo, msg []byte) (*wasmvmtypes.Response, error) {
		var m HackatomInit
		if err := json.Unmarshal(msg, &m); err != nil {
			return nil, err
		}
		deps.Storage.Set(beneficiaryKey, []byte(m.Beneficiary))
		return &wasmvmtypes.Response{}, nil
	}
	execute := func(deps multitest.DepsMut, env wasmvmtypes.Env, _ wasmvmtypes.MessageInfo, _ []byte) (*wasmvmtypes.Response, error) {
		beneficiary := string(deps.Storage.Get(beneficiaryKey))
		bz, err := deps.Querier.Query(wasmvmtypes.QueryRequest{
			Bank: &wasmvmtypes.BankQuery{AllBalances: &wasmvmtypes.AllBalancesQuery{Address: env.Contract.Address}},
		})
		if err != nil {
			return nil, err
		}
		var balance wasmvmtypes.AllBalancesResponse
		if err := json.Unmarshal(bz, &balance); err != nil {
			return nil, err
		}
		res := &wasmvmtypes.Response{
			Attributes: []wasmvmtypes.EventAttribute{{Key: "action", Value: "release"}},
		}
		if len(balance.Amount) > 0 {
			res.Messages = []wasmvmtypes.SubMsg{{
				ReplyOn: wasmvmtypes.ReplyNever,
				Msg: wasmvmtypes.CosmosMsg{Bank: &wasmvmtypes.BankMsg{Send: &wasmvmtypes.SendMsg{
					ToAddress: beneficiary,
					Amount:    balance.Amount,
				}}},
			}}
		}
		return res, nil
	}
	query := func(deps multitest.Deps, _ wasmvmtypes.Env, msg []byte) ([]byte, error) {
		var m HackatomQuery
		if err := json.Unmarshal(msg, &m); err != nil {
			return nil, err
		}
		return json.Marshal(HackatomBeneficiaryResponse{Beneficiary: string(deps.Storage.Get(beneficiaryKey))})
	}
	migrate := func(deps multitest.DepsMut, _ wasmvmtypes.Env, msg []byte) (*wasmvmtypes.Response, error) {
		var m HackatomMigrate
		if err := json.Unmarshal(msg, &m); err != nil {
			return nil, err
		}
		deps.Storage.Set(beneficiaryKey, []byte(m.NewGuy))
		return &wasmvmtypes.Response{}, nil
	}
	return multitest.NewContract(execute, instantiate, query).WithMigrate(migrate)
}
