package multitest_test

import (
	"encoding/json"
	"testing"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	multitest "github.com/CosmWasm/multitest"
	"github.com/CosmWasm/multitest/storage"
)

func TestInitBalanceNormalizes(t *testing.T) {
	app := multitest.NewApp()
	fundAccount(t, app, "owner", []wasmvmtypes.Coin{
		{Denom: "eth", Amount: "30"},
		{Denom: "btc", Amount: "4"},
		{Denom: "eth", Amount: "12"},
		{Denom: "usdt", Amount: "0"},
	})

	balances, err := app.QueryAllBalances("owner")
	require.NoError(t, err)
	// merged per denom, sorted, zero amounts dropped
	assert.Equal(t, []wasmvmtypes.Coin{
		{Denom: "btc", Amount: "4"},
		{Denom: "eth", Amount: "42"},
	}, balances)
}

func TestQueryBalanceMissingDenom(t *testing.T) {
	app := multitest.NewApp()

	balance, err := app.QueryBalance("nobody", "eth")
	require.NoError(t, err)
	assert.Equal(t, wasmvmtypes.Coin{Denom: "eth", Amount: "0"}, balance)

	balances, err := app.QueryAllBalances("nobody")
	require.NoError(t, err)
	assert.Empty(t, balances)
}

func TestBurn(t *testing.T) {
	app := multitest.NewApp()
	fundAccount(t, app, "owner", []wasmvmtypes.Coin{{Denom: "eth", Amount: "100"}})

	_, err := app.Execute("owner", wasmvmtypes.CosmosMsg{Bank: &wasmvmtypes.BankMsg{Burn: &wasmvmtypes.BurnMsg{
		Amount: []wasmvmtypes.Coin{{Denom: "eth", Amount: "30"}},
	}}})
	require.NoError(t, err)

	balance, err := app.QueryBalance("owner", "eth")
	require.NoError(t, err)
	assert.Equal(t, "70", balance.Amount)

	// burning more than owned fails
	_, err = app.Execute("owner", wasmvmtypes.CosmosMsg{Bank: &wasmvmtypes.BankMsg{Burn: &wasmvmtypes.BurnMsg{
		Amount: []wasmvmtypes.Coin{{Denom: "eth", Amount: "71"}},
	}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient funds")
}

func TestMintSudo(t *testing.T) {
	app := multitest.NewApp()

	_, err := app.Sudo(multitest.SudoMsg{Bank: &multitest.BankSudo{Mint: &multitest.MintSudo{
		ToAddress: "lucky",
		Amount:    []wasmvmtypes.Coin{{Denom: "eth", Amount: "55"}},
	}}})
	require.NoError(t, err)

	balance, err := app.QueryBalance("lucky", "eth")
	require.NoError(t, err)
	assert.Equal(t, "55", balance.Amount)
}

func TestSupplyQuery(t *testing.T) {
	app := multitest.NewApp()
	fundAccount(t, app, "alice", []wasmvmtypes.Coin{{Denom: "eth", Amount: "100"}, {Denom: "btc", Amount: "5"}})
	fundAccount(t, app, "bob", []wasmvmtypes.Coin{{Denom: "eth", Amount: "20"}})

	bz, err := app.Query(wasmvmtypes.QueryRequest{
		Bank: &wasmvmtypes.BankQuery{Supply: &wasmvmtypes.SupplyQuery{Denom: "eth"}},
	})
	require.NoError(t, err)
	var res wasmvmtypes.SupplyResponse
	require.NoError(t, json.Unmarshal(bz, &res))
	assert.Equal(t, wasmvmtypes.Coin{Denom: "eth", Amount: "120"}, res.Amount)

	// sends do not change the supply
	_, err = app.SendTokens("alice", "bob", []wasmvmtypes.Coin{{Denom: "eth", Amount: "50"}})
	require.NoError(t, err)
	bz, err = app.Query(wasmvmtypes.QueryRequest{
		Bank: &wasmvmtypes.BankQuery{Supply: &wasmvmtypes.SupplyQuery{Denom: "eth"}},
	})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(bz, &res))
	assert.Equal(t, "120", res.Amount.Amount)
}

func TestDenomMetadata(t *testing.T) {
	app := multitest.NewApp()
	metadata := wasmvmtypes.DenomMetadata{
		Description: "the utility token",
		Base:        "ueth",
		Display:     "eth",
		Name:        "Ether",
		Symbol:      "ETH",
	}
	err := app.InitModules(func(router *multitest.Router, _ multitest.Api, stor storage.Storage) error {
		return router.Bank.(multitest.BankKeeper).SetDenomMetadata(stor, "ueth", metadata)
	})
	require.NoError(t, err)

	bz, err := app.Query(wasmvmtypes.QueryRequest{
		Bank: &wasmvmtypes.BankQuery{DenomMetadata: &wasmvmtypes.DenomMetadataQuery{Denom: "ueth"}},
	})
	require.NoError(t, err)
	var res wasmvmtypes.DenomMetadataResponse
	require.NoError(t, json.Unmarshal(bz, &res))
	assert.Equal(t, metadata, res.Metadata)

	_, err = app.Query(wasmvmtypes.QueryRequest{
		Bank: &wasmvmtypes.BankQuery{DenomMetadata: &wasmvmtypes.DenomMetadataQuery{Denom: "unknown"}},
	})
	require.Error(t, err)

	bz, err = app.Query(wasmvmtypes.QueryRequest{
		Bank: &wasmvmtypes.BankQuery{AllDenomMetadata: &wasmvmtypes.AllDenomMetadataQuery{}},
	})
	require.NoError(t, err)
	var allRes wasmvmtypes.AllDenomMetadataResponse
	require.NoError(t, json.Unmarshal(bz, &allRes))
	require.Len(t, allRes.Metadata, 1)
	assert.Equal(t, "ueth", allRes.Metadata[0].Base)
}

func TestInvalidCoinRejected(t *testing.T) {
	app := multitest.NewApp()

	err := app.InitModules(func(router *multitest.Router, _ multitest.Api, stor storage.Storage) error {
		return router.Bank.(multitest.BankKeeper).InitBalance(stor, "owner", []wasmvmtypes.Coin{{Denom: "eth", Amount: "not-a-number"}})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid coin")
}
