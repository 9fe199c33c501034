package multitest

import (
	"encoding/binary"
	"encoding/json"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/multitest/storage"
	"github.com/CosmWasm/multitest/types"
)

// Staking is the capability handling staking messages and queries.
type Staking = Module[wasmvmtypes.StakingMsg, wasmvmtypes.StakingQuery, StakingSudo]

// StakingSudo are the privileged staking operations available to tests.
type StakingSudo struct {
	AddValidator *AddValidatorSudo `json:"add_validator,omitempty"`
	ProcessQueue *struct{}         `json:"process_queue,omitempty"`
}

// AddValidatorSudo registers a validator delegators can stake with.
type AddValidatorSudo struct {
	Validator wasmvmtypes.Validator `json:"validator"`
}

// StakingInfo is the chain-wide staking configuration.
type StakingInfo struct {
	BondedDenom   string         `json:"bonded_denom"`
	UnbondingTime uint64         `json:"unbonding_time"`
	Apr           math.LegacyDec `json:"apr"`
}

// StakingModuleAddress holds bonded and unbonding funds.
const StakingModuleAddress = "staking_module"

const nanosPerSecond = 1_000_000_000

var secondsPerYear = math.NewInt(60 * 60 * 24 * 365)

var (
	stakingNamespace    = []byte("staking")
	validatorsNamespace = []byte("validators")
	stakesNamespace     = []byte("stakes")
	queueNamespace      = []byte("queue")
	stakingInfoKey      = []byte("info")
	queueSequenceKey    = []byte("queue_seq")
)

// stakeData is one (delegator, validator) position. Rewards accrue lazily;
// PendingRewards is settled up to LastUpdate.
type stakeData struct {
	Amount         math.Int `json:"amount"`
	PendingRewards math.Int `json:"pending_rewards"`
	LastUpdate     uint64   `json:"last_update"`
}

type unbondingEntry struct {
	Delegator  string   `json:"delegator"`
	Amount     math.Int `json:"amount"`
	PayoutTime uint64   `json:"payout_time"`
}

// StakeKeeper implements delegation bookkeeping in the "staking" namespace:
// a validator registry, per-delegator stakes with linear APR reward accrual,
// and an unbonding queue paid out when its entries mature.
type StakeKeeper struct{}

var _ Staking = StakeKeeper{}

func NewStakeKeeper() StakeKeeper { return StakeKeeper{} }

// Setup writes the chain staking configuration. Must run before any staking
// message is dispatched.
func (k StakeKeeper) Setup(stor storage.Storage, info StakingInfo) error {
	bz, err := json.Marshal(info)
	if err != nil {
		return err
	}
	storage.NewPrefixedStorage(stor, stakingNamespace).Set(stakingInfoKey, bz)
	return nil
}

// DefaultStakingInfo matches a small test chain: 60 second unbonding and a
// flat 10 percent APR.
func DefaultStakingInfo() StakingInfo {
	return StakingInfo{
		BondedDenom:   "TOKEN",
		UnbondingTime: 60,
		Apr:           math.LegacyNewDecWithPrec(10, 2),
	}
}

func (k StakeKeeper) getStakingInfo(stor storage.ReadonlyStorage) (StakingInfo, error) {
	raw := storage.NewReadonlyPrefixedStorage(stor, stakingNamespace).Get(stakingInfoKey)
	if raw == nil {
		return DefaultStakingInfo(), nil
	}
	var info StakingInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return StakingInfo{}, err
	}
	return info, nil
}

func (k StakeKeeper) Execute(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, sender string, msg wasmvmtypes.StakingMsg) (types.AppResponse, error) {
	switch {
	case msg.Delegate != nil:
		return k.delegate(api, stor, router, block, sender, msg.Delegate.Validator, msg.Delegate.Amount)
	case msg.Undelegate != nil:
		return k.undelegate(api, stor, router, block, sender, msg.Undelegate.Validator, msg.Undelegate.Amount)
	case msg.Redelegate != nil:
		return k.redelegate(stor, block, sender, msg.Redelegate.SrcValidator, msg.Redelegate.DstValidator, msg.Redelegate.Amount)
	default:
		return types.AppResponse{}, errorsmod.Wrapf(types.ErrUnsupportedMsg, "staking message %s", compactJSON(msg))
	}
}

func (k StakeKeeper) Sudo(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, msg StakingSudo) (types.AppResponse, error) {
	switch {
	case msg.AddValidator != nil:
		if err := k.addValidator(stor, msg.AddValidator.Validator); err != nil {
			return types.AppResponse{}, err
		}
		return types.AppResponse{}, nil
	case msg.ProcessQueue != nil:
		if err := k.ProcessQueue(api, stor, router, block); err != nil {
			return types.AppResponse{}, err
		}
		return types.AppResponse{}, nil
	default:
		return types.AppResponse{}, errorsmod.Wrapf(types.ErrUnsupportedMsg, "staking sudo %s", compactJSON(msg))
	}
}

func (k StakeKeeper) Query(_ Api, stor storage.ReadonlyStorage, _ Querier, block wasmvmtypes.BlockInfo, request wasmvmtypes.StakingQuery) ([]byte, error) {
	switch {
	case request.BondedDenom != nil:
		info, err := k.getStakingInfo(stor)
		if err != nil {
			return nil, err
		}
		return json.Marshal(wasmvmtypes.BondedDenomResponse{Denom: info.BondedDenom})
	case request.AllValidators != nil:
		validators, err := k.allValidators(stor)
		if err != nil {
			return nil, err
		}
		return json.Marshal(wasmvmtypes.AllValidatorsResponse{Validators: validators})
	case request.Validator != nil:
		validators, err := k.allValidators(stor)
		if err != nil {
			return nil, err
		}
		var found *wasmvmtypes.Validator
		for i := range validators {
			if validators[i].Address == request.Validator.Address {
				found = &validators[i]
				break
			}
		}
		return json.Marshal(wasmvmtypes.ValidatorResponse{Validator: found})
	case request.AllDelegations != nil:
		return k.queryAllDelegations(stor, request.AllDelegations.Delegator)
	case request.Delegation != nil:
		return k.queryDelegation(stor, block, request.Delegation.Delegator, request.Delegation.Validator)
	default:
		return nil, errorsmod.Wrapf(types.ErrUnsupportedQuery, "staking query %s", compactJSON(request))
	}
}

func (k StakeKeeper) addValidator(stor storage.Storage, validator wasmvmtypes.Validator) error {
	bz, err := json.Marshal(validator)
	if err != nil {
		return err
	}
	storage.NewMultilevelPrefixedStorage(stor, [][]byte{stakingNamespace, validatorsNamespace}).Set([]byte(validator.Address), bz)
	return nil
}

func (k StakeKeeper) allValidators(stor storage.ReadonlyStorage) ([]wasmvmtypes.Validator, error) {
	var out []wasmvmtypes.Validator
	it := storage.NewMultilevelReadonlyPrefixedStorage(stor, [][]byte{stakingNamespace, validatorsNamespace}).Range(nil, nil, storage.Ascending)
	defer it.Close()
	for ; it.Valid(); it.Next() {
		var v wasmvmtypes.Validator
		if err := json.Unmarshal(it.Value(), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (k StakeKeeper) hasValidator(stor storage.ReadonlyStorage, address string) bool {
	return storage.NewMultilevelReadonlyPrefixedStorage(stor, [][]byte{stakingNamespace, validatorsNamespace}).Get([]byte(address)) != nil
}

func stakeKey(delegator, validator string) []byte {
	key := storage.ToLengthPrefixed([]byte(delegator))
	return append(key, validator...)
}

func stakesStore(stor storage.Storage) storage.Storage {
	return storage.NewMultilevelPrefixedStorage(stor, [][]byte{stakingNamespace, stakesNamespace})
}

func readonlyStakesStore(stor storage.ReadonlyStorage) storage.ReadonlyStorage {
	return storage.NewMultilevelReadonlyPrefixedStorage(stor, [][]byte{stakingNamespace, stakesNamespace})
}

func (k StakeKeeper) getStake(stor storage.ReadonlyStorage, delegator, validator string) (stakeData, bool, error) {
	raw := readonlyStakesStore(stor).Get(stakeKey(delegator, validator))
	if raw == nil {
		return stakeData{Amount: math.ZeroInt(), PendingRewards: math.ZeroInt()}, false, nil
	}
	var stake stakeData
	if err := json.Unmarshal(raw, &stake); err != nil {
		return stakeData{}, false, err
	}
	return stake, true, nil
}

func (k StakeKeeper) setStake(stor storage.Storage, delegator, validator string, stake stakeData) error {
	store := stakesStore(stor)
	if stake.Amount.IsZero() && stake.PendingRewards.IsZero() {
		store.Remove(stakeKey(delegator, validator))
		return nil
	}
	bz, err := json.Marshal(stake)
	if err != nil {
		return err
	}
	store.Set(stakeKey(delegator, validator), bz)
	return nil
}

// settle accrues rewards up to the current block time. Rewards grow linearly
// with the staked amount and the configured APR.
func (k StakeKeeper) settle(stake stakeData, info StakingInfo, block wasmvmtypes.BlockInfo) stakeData {
	now := uint64(block.Time)
	if stake.LastUpdate == 0 || now <= stake.LastUpdate {
		stake.LastUpdate = now
		return stake
	}
	elapsedSeconds := math.NewIntFromUint64((now - stake.LastUpdate) / nanosPerSecond)
	reward := info.Apr.MulInt(stake.Amount).MulInt(elapsedSeconds).QuoInt(secondsPerYear).TruncateInt()
	stake.PendingRewards = stake.PendingRewards.Add(reward)
	stake.LastUpdate = now
	return stake
}

func (k StakeKeeper) delegate(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, delegator, validator string, amount wasmvmtypes.Coin) (types.AppResponse, error) {
	info, err := k.getStakingInfo(stor)
	if err != nil {
		return types.AppResponse{}, err
	}
	if !k.hasValidator(stor, validator) {
		return types.AppResponse{}, errorsmod.Wrap(types.ErrNoSuchValidator, validator)
	}
	if amount.Denom != info.BondedDenom {
		return types.AppResponse{}, errorsmod.Wrapf(types.ErrInvalidCoin, "cannot delegate %s, bonded denom is %s", amount.Denom, info.BondedDenom)
	}
	value, err := parseAmount(amount)
	if err != nil {
		return types.AppResponse{}, err
	}
	stake, _, err := k.getStake(stor, delegator, validator)
	if err != nil {
		return types.AppResponse{}, err
	}
	stake = k.settle(stake, info, block)
	stake.Amount = stake.Amount.Add(value)
	if err := k.setStake(stor, delegator, validator, stake); err != nil {
		return types.AppResponse{}, err
	}
	// bonded funds move to the module account inside this transaction
	_, err = router.Execute(api, stor, block, delegator, wasmvmtypes.CosmosMsg{
		Bank: &wasmvmtypes.BankMsg{Send: &wasmvmtypes.SendMsg{
			ToAddress: StakingModuleAddress,
			Amount:    []wasmvmtypes.Coin{amount},
		}},
	})
	if err != nil {
		return types.AppResponse{}, err
	}
	event := wasmvmtypes.Event{
		Type: "delegate",
		Attributes: []wasmvmtypes.EventAttribute{
			{Key: "validator", Value: validator},
			{Key: "amount", Value: amount.Amount + amount.Denom},
		},
	}
	return types.AppResponse{Events: []wasmvmtypes.Event{event}}, nil
}

func (k StakeKeeper) undelegate(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, delegator, validator string, amount wasmvmtypes.Coin) (types.AppResponse, error) {
	info, err := k.getStakingInfo(stor)
	if err != nil {
		return types.AppResponse{}, err
	}
	if !k.hasValidator(stor, validator) {
		return types.AppResponse{}, errorsmod.Wrap(types.ErrNoSuchValidator, validator)
	}
	if amount.Denom != info.BondedDenom {
		return types.AppResponse{}, errorsmod.Wrapf(types.ErrInvalidCoin, "cannot undelegate %s, bonded denom is %s", amount.Denom, info.BondedDenom)
	}
	value, err := parseAmount(amount)
	if err != nil {
		return types.AppResponse{}, err
	}
	stake, found, err := k.getStake(stor, delegator, validator)
	if err != nil {
		return types.AppResponse{}, err
	}
	if !found || stake.Amount.LT(value) {
		return types.AppResponse{}, errorsmod.Wrapf(types.ErrInsufficientFunds, "cannot undelegate %s%s from %s", amount.Amount, amount.Denom, validator)
	}
	stake = k.settle(stake, info, block)
	stake.Amount = stake.Amount.Sub(value)
	if err := k.setStake(stor, delegator, validator, stake); err != nil {
		return types.AppResponse{}, err
	}
	payoutTime := uint64(block.Time) + info.UnbondingTime*nanosPerSecond
	if err := k.pushUnbonding(stor, unbondingEntry{Delegator: delegator, Amount: value, PayoutTime: payoutTime}); err != nil {
		return types.AppResponse{}, err
	}
	event := wasmvmtypes.Event{
		Type: "unbond",
		Attributes: []wasmvmtypes.EventAttribute{
			{Key: "validator", Value: validator},
			{Key: "amount", Value: amount.Amount + amount.Denom},
		},
	}
	return types.AppResponse{Events: []wasmvmtypes.Event{event}}, nil
}

func (k StakeKeeper) redelegate(stor storage.Storage, block wasmvmtypes.BlockInfo, delegator, srcValidator, dstValidator string, amount wasmvmtypes.Coin) (types.AppResponse, error) {
	info, err := k.getStakingInfo(stor)
	if err != nil {
		return types.AppResponse{}, err
	}
	if !k.hasValidator(stor, srcValidator) {
		return types.AppResponse{}, errorsmod.Wrap(types.ErrNoSuchValidator, srcValidator)
	}
	if !k.hasValidator(stor, dstValidator) {
		return types.AppResponse{}, errorsmod.Wrap(types.ErrNoSuchValidator, dstValidator)
	}
	value, err := parseAmount(amount)
	if err != nil {
		return types.AppResponse{}, err
	}
	src, found, err := k.getStake(stor, delegator, srcValidator)
	if err != nil {
		return types.AppResponse{}, err
	}
	if !found || src.Amount.LT(value) {
		return types.AppResponse{}, errorsmod.Wrapf(types.ErrInsufficientFunds, "cannot redelegate %s%s from %s", amount.Amount, amount.Denom, srcValidator)
	}
	src = k.settle(src, info, block)
	src.Amount = src.Amount.Sub(value)
	if err := k.setStake(stor, delegator, srcValidator, src); err != nil {
		return types.AppResponse{}, err
	}
	dst, _, err := k.getStake(stor, delegator, dstValidator)
	if err != nil {
		return types.AppResponse{}, err
	}
	dst = k.settle(dst, info, block)
	dst.Amount = dst.Amount.Add(value)
	if err := k.setStake(stor, delegator, dstValidator, dst); err != nil {
		return types.AppResponse{}, err
	}
	event := wasmvmtypes.Event{
		Type: "redelegate",
		Attributes: []wasmvmtypes.EventAttribute{
			{Key: "source_validator", Value: srcValidator},
			{Key: "destination_validator", Value: dstValidator},
			{Key: "amount", Value: amount.Amount + amount.Denom},
		},
	}
	return types.AppResponse{Events: []wasmvmtypes.Event{event}}, nil
}

func (k StakeKeeper) pushUnbonding(stor storage.Storage, entry unbondingEntry) error {
	queue := storage.NewMultilevelPrefixedStorage(stor, [][]byte{stakingNamespace, queueNamespace})
	seqStore := storage.NewPrefixedStorage(stor, stakingNamespace)
	seq := uint64(0)
	if raw := seqStore.Get(queueSequenceKey); raw != nil {
		seq = binary.BigEndian.Uint64(raw)
	}
	seq++
	seqBz := make([]byte, 8)
	binary.BigEndian.PutUint64(seqBz, seq)
	seqStore.Set(queueSequenceKey, seqBz)

	// key ordering is payout time first so due entries iterate first
	key := make([]byte, 16)
	binary.BigEndian.PutUint64(key[:8], entry.PayoutTime)
	binary.BigEndian.PutUint64(key[8:], seq)
	bz, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	queue.Set(key, bz)
	return nil
}

// ProcessQueue pays out all matured unbonding entries. Called on every block
// change before the new block becomes visible.
func (k StakeKeeper) ProcessQueue(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo) error {
	info, err := k.getStakingInfo(stor)
	if err != nil {
		return err
	}
	queue := storage.NewMultilevelPrefixedStorage(stor, [][]byte{stakingNamespace, queueNamespace})
	var due []unbondingEntry
	var dueKeys [][]byte
	it := queue.Range(nil, nil, storage.Ascending)
	for ; it.Valid(); it.Next() {
		var entry unbondingEntry
		if err := json.Unmarshal(it.Value(), &entry); err != nil {
			it.Close()
			return err
		}
		if entry.PayoutTime > uint64(block.Time) {
			break
		}
		due = append(due, entry)
		dueKeys = append(dueKeys, it.Key())
	}
	if err := it.Close(); err != nil {
		return err
	}
	for i, entry := range due {
		queue.Remove(dueKeys[i])
		payout := wasmvmtypes.Coin{Denom: info.BondedDenom, Amount: entry.Amount.String()}
		_, err := router.Execute(api, stor, block, StakingModuleAddress, wasmvmtypes.CosmosMsg{
			Bank: &wasmvmtypes.BankMsg{Send: &wasmvmtypes.SendMsg{
				ToAddress: entry.Delegator,
				Amount:    []wasmvmtypes.Coin{payout},
			}},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// withdrawRewards settles and clears the pending rewards of one delegation,
// returning the amount owed. Used by the distribution keeper.
func (k StakeKeeper) withdrawRewards(stor storage.Storage, block wasmvmtypes.BlockInfo, delegator, validator string) (wasmvmtypes.Coin, error) {
	info, err := k.getStakingInfo(stor)
	if err != nil {
		return wasmvmtypes.Coin{}, err
	}
	if !k.hasValidator(stor, validator) {
		return wasmvmtypes.Coin{}, errorsmod.Wrap(types.ErrNoSuchValidator, validator)
	}
	stake, _, err := k.getStake(stor, delegator, validator)
	if err != nil {
		return wasmvmtypes.Coin{}, err
	}
	stake = k.settle(stake, info, block)
	rewards := stake.PendingRewards
	stake.PendingRewards = math.ZeroInt()
	if err := k.setStake(stor, delegator, validator, stake); err != nil {
		return wasmvmtypes.Coin{}, err
	}
	return wasmvmtypes.Coin{Denom: info.BondedDenom, Amount: rewards.String()}, nil
}

func (k StakeKeeper) queryAllDelegations(stor storage.ReadonlyStorage, delegator string) ([]byte, error) {
	info, err := k.getStakingInfo(stor)
	if err != nil {
		return nil, err
	}
	prefix := storage.ToLengthPrefixed([]byte(delegator))
	var delegations []wasmvmtypes.Delegation
	it := readonlyStakesStore(stor).Range(prefix, upperBound(prefix), storage.Ascending)
	defer it.Close()
	for ; it.Valid(); it.Next() {
		var stake stakeData
		if err := json.Unmarshal(it.Value(), &stake); err != nil {
			return nil, err
		}
		validator := string(it.Key()[len(prefix):])
		delegations = append(delegations, wasmvmtypes.Delegation{
			Delegator: delegator,
			Validator: validator,
			Amount:    wasmvmtypes.Coin{Denom: info.BondedDenom, Amount: stake.Amount.String()},
		})
	}
	return json.Marshal(wasmvmtypes.AllDelegationsResponse{Delegations: delegations})
}

func (k StakeKeeper) queryDelegation(stor storage.ReadonlyStorage, block wasmvmtypes.BlockInfo, delegator, validator string) ([]byte, error) {
	info, err := k.getStakingInfo(stor)
	if err != nil {
		return nil, err
	}
	stake, found, err := k.getStake(stor, delegator, validator)
	if err != nil {
		return nil, err
	}
	if !found {
		return json.Marshal(wasmvmtypes.DelegationResponse{})
	}
	settled := k.settle(stake, info, block)
	amount := wasmvmtypes.Coin{Denom: info.BondedDenom, Amount: stake.Amount.String()}
	full := wasmvmtypes.FullDelegation{
		Delegator:          delegator,
		Validator:          validator,
		Amount:             amount,
		CanRedelegate:      amount,
		AccumulatedRewards: []wasmvmtypes.Coin{{Denom: info.BondedDenom, Amount: settled.PendingRewards.String()}},
	}
	return json.Marshal(wasmvmtypes.DelegationResponse{Delegation: &full})
}

// upperBound returns the end of the key range sharing the given prefix.
func upperBound(prefix []byte) []byte {
	out := make([]byte, len(prefix))
	copy(out, prefix)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] < 0xFF {
			out[i]++
			return out[:i+1]
		}
	}
	return nil
}
