package multitest

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"
	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/multitest/storage"
	"github.com/CosmWasm/multitest/types"
)

// Distribution is the capability handling reward withdrawal messages.
type Distribution = Module[wasmvmtypes.DistributionMsg, wasmvmtypes.DistributionQuery, struct{}]

// DistributionModuleAddress collects community pool funds.
const DistributionModuleAddress = "distribution_module"

var (
	distributionNamespace = []byte("distribution")
	withdrawAddrNamespace = []byte("withdraw_addr")
)

// DistributionKeeper settles rewards accrued by the stake keeper and mints
// them onto the delegator's withdraw address.
type DistributionKeeper struct {
	stake StakeKeeper
}

var _ Distribution = DistributionKeeper{}

func NewDistributionKeeper(stake StakeKeeper) DistributionKeeper {
	return DistributionKeeper{stake: stake}
}

func (k DistributionKeeper) Execute(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, sender string, msg wasmvmtypes.DistributionMsg) (types.AppResponse, error) {
	switch {
	case msg.WithdrawDelegatorReward != nil:
		return k.withdraw(api, stor, router, block, sender, msg.WithdrawDelegatorReward.Validator)
	case msg.SetWithdrawAddress != nil:
		if _, err := api.AddrValidate(msg.SetWithdrawAddress.Address); err != nil {
			return types.AppResponse{}, err
		}
		k.withdrawAddrStore(stor).Set([]byte(sender), []byte(msg.SetWithdrawAddress.Address))
		return types.AppResponse{}, nil
	case msg.FundCommunityPool != nil:
		_, err := router.Execute(api, stor, block, sender, wasmvmtypes.CosmosMsg{
			Bank: &wasmvmtypes.BankMsg{Send: &wasmvmtypes.SendMsg{
				ToAddress: DistributionModuleAddress,
				Amount:    msg.FundCommunityPool.Amount,
			}},
		})
		if err != nil {
			return types.AppResponse{}, err
		}
		return types.AppResponse{}, nil
	default:
		return types.AppResponse{}, errorsmod.Wrapf(types.ErrUnsupportedMsg, "distribution message %s", compactJSON(msg))
	}
}

func (k DistributionKeeper) Sudo(_ Api, _ storage.Storage, _ CosmosRouter, _ wasmvmtypes.BlockInfo, msg struct{}) (types.AppResponse, error) {
	return types.AppResponse{}, errorsmod.Wrap(types.ErrUnsupportedMsg, "distribution has no sudo messages")
}

func (k DistributionKeeper) Query(_ Api, stor storage.ReadonlyStorage, _ Querier, _ wasmvmtypes.BlockInfo, request wasmvmtypes.DistributionQuery) ([]byte, error) {
	switch {
	case request.DelegatorWithdrawAddress != nil:
		delegator := request.DelegatorWithdrawAddress.DelegatorAddress
		addr := k.withdrawAddress(stor, delegator)
		return json.Marshal(wasmvmtypes.DelegatorWithdrawAddressResponse{WithdrawAddress: addr})
	default:
		return nil, errorsmod.Wrapf(types.ErrUnsupportedQuery, "distribution query %s", compactJSON(request))
	}
}

func (k DistributionKeeper) withdraw(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, delegator, validator string) (types.AppResponse, error) {
	rewards, err := k.stake.withdrawRewards(stor, block, delegator, validator)
	if err != nil {
		return types.AppResponse{}, err
	}
	target := k.withdrawAddress(stor, delegator)
	if rewards.Amount != "0" {
		// rewards are freshly minted, mirroring inflationary issuance
		_, err = router.Sudo(api, stor, block, SudoMsg{Bank: &BankSudo{Mint: &MintSudo{
			ToAddress: target,
			Amount:    []wasmvmtypes.Coin{rewards},
		}}})
		if err != nil {
			return types.AppResponse{}, err
		}
	}
	event := wasmvmtypes.Event{
		Type: "withdraw_rewards",
		Attributes: []wasmvmtypes.EventAttribute{
			{Key: "validator", Value: validator},
			{Key: "amount", Value: rewards.Amount + rewards.Denom},
		},
	}
	return types.AppResponse{Events: []wasmvmtypes.Event{event}}, nil
}

func (k DistributionKeeper) withdrawAddress(stor storage.ReadonlyStorage, delegator string) string {
	raw := storage.NewMultilevelReadonlyPrefixedStorage(stor, [][]byte{distributionNamespace, withdrawAddrNamespace}).Get([]byte(delegator))
	if raw == nil {
		return delegator
	}
	return string(raw)
}

func (k DistributionKeeper) withdrawAddrStore(stor storage.Storage) storage.Storage {
	return storage.NewMultilevelPrefixedStorage(stor, [][]byte{distributionNamespace, withdrawAddrNamespace})
}
