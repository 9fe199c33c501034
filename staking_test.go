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

const yearSeconds = 60 * 60 * 24 * 365

// setupStakingApp returns an app with the default staking config, one
// registered validator and a funded delegator.
func setupStakingApp(t *testing.T) *multitest.App {
	t.Helper()
	app := multitest.NewApp()
	err := app.InitModules(func(router *multitest.Router, _ multitest.Api, stor storage.Storage) error {
		if err := router.Staking.(multitest.StakeKeeper).Setup(stor, multitest.DefaultStakingInfo()); err != nil {
			return err
		}
		return router.Bank.(multitest.BankKeeper).InitBalance(stor, "delegator", []wasmvmtypes.Coin{{Denom: "TOKEN", Amount: "100"}})
	})
	require.NoError(t, err)

	_, err = app.Sudo(multitest.SudoMsg{Staking: &multitest.StakingSudo{
		AddValidator: &multitest.AddValidatorSudo{Validator: wasmvmtypes.Validator{Address: "valoper1"}},
	}})
	require.NoError(t, err)
	return app
}

func delegateMsg(validator, amount string) wasmvmtypes.CosmosMsg {
	return wasmvmtypes.CosmosMsg{Staking: &wasmvmtypes.StakingMsg{Delegate: &wasmvmtypes.DelegateMsg{
		Validator: validator,
		Amount:    wasmvmtypes.Coin{Denom: "TOKEN", Amount: amount},
	}}}
}

func queryDelegation(t *testing.T, app *multitest.App, delegator, validator string) *wasmvmtypes.FullDelegation {
	t.Helper()
	bz, err := app.Query(wasmvmtypes.QueryRequest{
		Staking: &wasmvmtypes.StakingQuery{Delegation: &wasmvmtypes.DelegationQuery{
			Delegator: delegator,
			Validator: validator,
		}},
	})
	require.NoError(t, err)
	var res wasmvmtypes.DelegationResponse
	require.NoError(t, json.Unmarshal(bz, &res))
	return res.Delegation
}

func TestDelegate(t *testing.T) {
	app := setupStakingApp(t)

	res, err := app.Execute("delegator", delegateMsg("valoper1", "60"))
	require.NoError(t, err)
	res.AssertEvent(wasmvmtypes.Event{
		Type: "delegate",
		Attributes: []wasmvmtypes.EventAttribute{
			{Key: "validator", Value: "valoper1"},
			{Key: "amount", Value: "60TOKEN"},
		},
	})

	// bonded funds moved to the module account
	balance, err := app.QueryBalance("delegator", "TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "40", balance.Amount)
	balance, err = app.QueryBalance(multitest.StakingModuleAddress, "TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "60", balance.Amount)

	delegation := queryDelegation(t, app, "delegator", "valoper1")
	require.NotNil(t, delegation)
	assert.Equal(t, "60", delegation.Amount.Amount)
	assert.Equal(t, "TOKEN", delegation.Amount.Denom)
}

func TestDelegateValidation(t *testing.T) {
	app := setupStakingApp(t)

	specs := map[string]struct {
		msg    wasmvmtypes.CosmosMsg
		expErr string
	}{
		"unknown validator": {
			msg:    delegateMsg("nobody", "10"),
			expErr: "validator does not exist",
		},
		"wrong denom": {
			msg: wasmvmtypes.CosmosMsg{Staking: &wasmvmtypes.StakingMsg{Delegate: &wasmvmtypes.DelegateMsg{
				Validator: "valoper1",
				Amount:    wasmvmtypes.Coin{Denom: "eth", Amount: "10"},
			}}},
			expErr: "bonded denom",
		},
		"more than owned": {
			msg:    delegateMsg("valoper1", "1000"),
			expErr: "insufficient funds",
		},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			_, err := app.Execute("delegator", spec.msg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), spec.expErr)

			// nothing was bonded
			balance, err := app.QueryBalance("delegator", "TOKEN")
			require.NoError(t, err)
			assert.Equal(t, "100", balance.Amount)
		})
	}
}

func TestUndelegateThroughQueue(t *testing.T) {
	app := setupStakingApp(t)
	_, err := app.Execute("delegator", delegateMsg("valoper1", "60"))
	require.NoError(t, err)

	res, err := app.Execute("delegator", wasmvmtypes.CosmosMsg{Staking: &wasmvmtypes.StakingMsg{Undelegate: &wasmvmtypes.UndelegateMsg{
		Validator: "valoper1",
		Amount:    wasmvmtypes.Coin{Denom: "TOKEN", Amount: "25"},
	}}})
	require.NoError(t, err)
	res.AssertEvent(wasmvmtypes.Event{Type: "unbond"})

	// funds stay locked during the unbonding period
	balance, err := app.QueryBalance("delegator", "TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "40", balance.Amount)

	// five seconds pass, not enough
	require.NoError(t, app.NextBlock())
	balance, err = app.QueryBalance("delegator", "TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "40", balance.Amount)

	// jump past the 60 second unbonding time
	require.NoError(t, app.UpdateBlock(func(block *wasmvmtypes.BlockInfo) {
		block.Height++
		block.Time += 61 * 1_000_000_000
	}))
	balance, err = app.QueryBalance("delegator", "TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "65", balance.Amount)
	balance, err = app.QueryBalance(multitest.StakingModuleAddress, "TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "35", balance.Amount)

	delegation := queryDelegation(t, app, "delegator", "valoper1")
	require.NotNil(t, delegation)
	assert.Equal(t, "35", delegation.Amount.Amount)
}

func TestUndelegateMoreThanBonded(t *testing.T) {
	app := setupStakingApp(t)
	_, err := app.Execute("delegator", delegateMsg("valoper1", "60"))
	require.NoError(t, err)

	_, err = app.Execute("delegator", wasmvmtypes.CosmosMsg{Staking: &wasmvmtypes.StakingMsg{Undelegate: &wasmvmtypes.UndelegateMsg{
		Validator: "valoper1",
		Amount:    wasmvmtypes.Coin{Denom: "TOKEN", Amount: "61"},
	}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient funds")
}

func TestRedelegate(t *testing.T) {
	app := setupStakingApp(t)
	_, err := app.Sudo(multitest.SudoMsg{Staking: &multitest.StakingSudo{
		AddValidator: &multitest.AddValidatorSudo{Validator: wasmvmtypes.Validator{Address: "valoper2"}},
	}})
	require.NoError(t, err)
	_, err = app.Execute("delegator", delegateMsg("valoper1", "60"))
	require.NoError(t, err)

	_, err = app.Execute("delegator", wasmvmtypes.CosmosMsg{Staking: &wasmvmtypes.StakingMsg{Redelegate: &wasmvmtypes.RedelegateMsg{
		SrcValidator: "valoper1",
		DstValidator: "valoper2",
		Amount:       wasmvmtypes.Coin{Denom: "TOKEN", Amount: "20"},
	}}})
	require.NoError(t, err)

	bz, err := app.Query(wasmvmtypes.QueryRequest{
		Staking: &wasmvmtypes.StakingQuery{AllDelegations: &wasmvmtypes.AllDelegationsQuery{Delegator: "delegator"}},
	})
	require.NoError(t, err)
	var res wasmvmtypes.AllDelegationsResponse
	require.NoError(t, json.Unmarshal(bz, &res))
	require.Len(t, res.Delegations, 2)
	assert.Equal(t, "40", res.Delegations[0].Amount.Amount)
	assert.Equal(t, "valoper1", res.Delegations[0].Validator)
	assert.Equal(t, "20", res.Delegations[1].Amount.Amount)
	assert.Equal(t, "valoper2", res.Delegations[1].Validator)
}

func TestRewards(t *testing.T) {
	app := setupStakingApp(t)
	_, err := app.Execute("delegator", delegateMsg("valoper1", "100"))
	require.NoError(t, err)

	// one year at 10 percent APR yields 10 TOKEN on a 100 TOKEN stake
	require.NoError(t, app.UpdateBlock(func(block *wasmvmtypes.BlockInfo) {
		block.Height++
		block.Time += yearSeconds * 1_000_000_000
	}))

	delegation := queryDelegation(t, app, "delegator", "valoper1")
	require.NotNil(t, delegation)
	require.Len(t, delegation.AccumulatedRewards, 1)
	assert.Equal(t, "10", delegation.AccumulatedRewards[0].Amount)

	res, err := app.Execute("delegator", wasmvmtypes.CosmosMsg{Distribution: &wasmvmtypes.DistributionMsg{
		WithdrawDelegatorReward: &wasmvmtypes.WithdrawDelegatorRewardMsg{Validator: "valoper1"},
	}})
	require.NoError(t, err)
	res.AssertEvent(wasmvmtypes.Event{
		Type: "withdraw_rewards",
		Attributes: []wasmvmtypes.EventAttribute{
			{Key: "validator", Value: "valoper1"},
			{Key: "amount", Value: "10TOKEN"},
		},
	})

	balance, err := app.QueryBalance("delegator", "TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "10", balance.Amount)

	// rewards were settled, withdrawing again yields nothing
	_, err = app.Execute("delegator", wasmvmtypes.CosmosMsg{Distribution: &wasmvmtypes.DistributionMsg{
		WithdrawDelegatorReward: &wasmvmtypes.WithdrawDelegatorRewardMsg{Validator: "valoper1"},
	}})
	require.NoError(t, err)
	balance, err = app.QueryBalance("delegator", "TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "10", balance.Amount)
}

func TestWithdrawAddress(t *testing.T) {
	app := setupStakingApp(t)
	_, err := app.Execute("delegator", delegateMsg("valoper1", "100"))
	require.NoError(t, err)

	_, err = app.Execute("delegator", wasmvmtypes.CosmosMsg{Distribution: &wasmvmtypes.DistributionMsg{
		SetWithdrawAddress: &wasmvmtypes.SetWithdrawAddressMsg{Address: "collector"},
	}})
	require.NoError(t, err)

	bz, err := app.Query(wasmvmtypes.QueryRequest{
		Distribution: &wasmvmtypes.DistributionQuery{DelegatorWithdrawAddress: &wasmvmtypes.DelegatorWithdrawAddressQuery{
			DelegatorAddress: "delegator",
		}},
	})
	require.NoError(t, err)
	var withdrawRes wasmvmtypes.DelegatorWithdrawAddressResponse
	require.NoError(t, json.Unmarshal(bz, &withdrawRes))
	assert.Equal(t, "collector", withdrawRes.WithdrawAddress)

	require.NoError(t, app.UpdateBlock(func(block *wasmvmtypes.BlockInfo) {
		block.Time += yearSeconds * 1_000_000_000
	}))
	_, err = app.Execute("delegator", wasmvmtypes.CosmosMsg{Distribution: &wasmvmtypes.DistributionMsg{
		WithdrawDelegatorReward: &wasmvmtypes.WithdrawDelegatorRewardMsg{Validator: "valoper1"},
	}})
	require.NoError(t, err)

	balance, err := app.QueryBalance("collector", "TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "10", balance.Amount)
	balance, err = app.QueryBalance("delegator", "TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "0", balance.Amount)
}

func TestStakingQueries(t *testing.T) {
	app := setupStakingApp(t)

	bz, err := app.Query(wasmvmtypes.QueryRequest{
		Staking: &wasmvmtypes.StakingQuery{BondedDenom: &struct{}{}},
	})
	require.NoError(t, err)
	var denomRes wasmvmtypes.BondedDenomResponse
	require.NoError(t, json.Unmarshal(bz, &denomRes))
	assert.Equal(t, "TOKEN", denomRes.Denom)

	bz, err = app.Query(wasmvmtypes.QueryRequest{
		Staking: &wasmvmtypes.StakingQuery{AllValidators: &wasmvmtypes.AllValidatorsQuery{}},
	})
	require.NoError(t, err)
	var validatorsRes wasmvmtypes.AllValidatorsResponse
	require.NoError(t, json.Unmarshal(bz, &validatorsRes))
	require.Len(t, validatorsRes.Validators, 1)
	assert.Equal(t, "valoper1", validatorsRes.Validators[0].Address)

	bz, err = app.Query(wasmvmtypes.QueryRequest{
		Staking: &wasmvmtypes.StakingQuery{Validator: &wasmvmtypes.ValidatorQuery{Address: "nobody"}},
	})
	require.NoError(t, err)
	var validatorRes wasmvmtypes.ValidatorResponse
	require.NoError(t, json.Unmarshal(bz, &validatorRes))
	assert.Nil(t, validatorRes.Validator)
}
