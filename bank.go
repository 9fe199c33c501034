package multitest

import (
	"encoding/json"
	"sort"
	"strings"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/multitest/storage"
	"github.com/CosmWasm/multitest/types"
)

// Bank is the capability handling native token messages and queries.
type Bank = Module[wasmvmtypes.BankMsg, wasmvmtypes.BankQuery, BankSudo]

// BankSudo are the privileged bank operations available to tests.
type BankSudo struct {
	Mint *MintSudo `json:"mint,omitempty"`
}

// MintSudo creates coins out of thin air on the given account.
type MintSudo struct {
	ToAddress string             `json:"to_address"`
	Amount    []wasmvmtypes.Coin `json:"amount"`
}

var (
	bankNamespace          = []byte("bank")
	balancesNamespace      = []byte("balances")
	denomMetadataNamespace = []byte("denom_metadata")
)

// BankKeeper keeps per-account balances and denom metadata in the "bank"
// namespace of the chain storage.
type BankKeeper struct{}

var _ Bank = BankKeeper{}

func NewBankKeeper() BankKeeper { return BankKeeper{} }

// InitBalance overwrites the full balance of an account. Meant for genesis
// setup from tests and InitModules hooks.
func (k BankKeeper) InitBalance(stor storage.Storage, address string, amount []wasmvmtypes.Coin) error {
	normalized, err := normalizeCoins(amount)
	if err != nil {
		return err
	}
	return k.setBalance(balanceStore(stor), address, normalized)
}

// SetDenomMetadata records client-facing metadata for a denom.
func (k BankKeeper) SetDenomMetadata(stor storage.Storage, denom string, metadata wasmvmtypes.DenomMetadata) error {
	bz, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	storage.NewMultilevelPrefixedStorage(stor, [][]byte{bankNamespace, denomMetadataNamespace}).Set([]byte(denom), bz)
	return nil
}

// Balance returns the committed balance of one account.
func (k BankKeeper) Balance(stor storage.ReadonlyStorage, address string) ([]wasmvmtypes.Coin, error) {
	return k.getBalance(readonlyBalanceStore(stor), address)
}

func (k BankKeeper) Execute(api Api, stor storage.Storage, _ CosmosRouter, _ wasmvmtypes.BlockInfo, sender string, msg wasmvmtypes.BankMsg) (types.AppResponse, error) {
	switch {
	case msg.Send != nil:
		if _, err := api.AddrValidate(msg.Send.ToAddress); err != nil {
			return types.AppResponse{}, err
		}
		if err := k.send(balanceStore(stor), sender, msg.Send.ToAddress, msg.Send.Amount); err != nil {
			return types.AppResponse{}, err
		}
		event := wasmvmtypes.Event{
			Type: "transfer",
			Attributes: []wasmvmtypes.EventAttribute{
				{Key: "recipient", Value: msg.Send.ToAddress},
				{Key: "sender", Value: sender},
				{Key: "amount", Value: coinsString(msg.Send.Amount)},
			},
		}
		return types.AppResponse{Events: []wasmvmtypes.Event{event}}, nil
	case msg.Burn != nil:
		if err := k.burn(balanceStore(stor), sender, msg.Burn.Amount); err != nil {
			return types.AppResponse{}, err
		}
		return types.AppResponse{}, nil
	default:
		return types.AppResponse{}, errorsmod.Wrapf(types.ErrUnsupportedMsg, "bank message %s", compactJSON(msg))
	}
}

func (k BankKeeper) Sudo(_ Api, stor storage.Storage, _ CosmosRouter, _ wasmvmtypes.BlockInfo, msg BankSudo) (types.AppResponse, error) {
	switch {
	case msg.Mint != nil:
		if err := k.mint(balanceStore(stor), msg.Mint.ToAddress, msg.Mint.Amount); err != nil {
			return types.AppResponse{}, err
		}
		return types.AppResponse{}, nil
	default:
		return types.AppResponse{}, errorsmod.Wrapf(types.ErrUnsupportedMsg, "bank sudo %s", compactJSON(msg))
	}
}

func (k BankKeeper) Query(_ Api, stor storage.ReadonlyStorage, _ Querier, _ wasmvmtypes.BlockInfo, request wasmvmtypes.BankQuery) ([]byte, error) {
	balances := readonlyBalanceStore(stor)
	switch {
	case request.Balance != nil:
		all, err := k.getBalance(balances, request.Balance.Address)
		if err != nil {
			return nil, err
		}
		amount := wasmvmtypes.Coin{Denom: request.Balance.Denom, Amount: "0"}
		for _, c := range all {
			if c.Denom == request.Balance.Denom {
				amount = c
				break
			}
		}
		return json.Marshal(wasmvmtypes.BalanceResponse{Amount: amount})
	case request.AllBalances != nil:
		all, err := k.getBalance(balances, request.AllBalances.Address)
		if err != nil {
			return nil, err
		}
		return json.Marshal(wasmvmtypes.AllBalancesResponse{Amount: all})
	case request.Supply != nil:
		supply, err := k.supplyOf(balances, request.Supply.Denom)
		if err != nil {
			return nil, err
		}
		return json.Marshal(wasmvmtypes.SupplyResponse{Amount: supply})
	case request.DenomMetadata != nil:
		raw := storage.NewMultilevelReadonlyPrefixedStorage(stor, [][]byte{bankNamespace, denomMetadataNamespace}).Get([]byte(request.DenomMetadata.Denom))
		if raw == nil {
			return nil, errorsmod.Wrapf(types.ErrUnsupportedQuery, "no metadata for denom %s", request.DenomMetadata.Denom)
		}
		var metadata wasmvmtypes.DenomMetadata
		if err := json.Unmarshal(raw, &metadata); err != nil {
			return nil, err
		}
		return json.Marshal(wasmvmtypes.DenomMetadataResponse{Metadata: metadata})
	case request.AllDenomMetadata != nil:
		var all []wasmvmtypes.DenomMetadata
		it := storage.NewMultilevelReadonlyPrefixedStorage(stor, [][]byte{bankNamespace, denomMetadataNamespace}).Range(nil, nil, storage.Ascending)
		defer it.Close()
		for ; it.Valid(); it.Next() {
			var metadata wasmvmtypes.DenomMetadata
			if err := json.Unmarshal(it.Value(), &metadata); err != nil {
				return nil, err
			}
			all = append(all, metadata)
		}
		return json.Marshal(wasmvmtypes.AllDenomMetadataResponse{Metadata: all})
	default:
		return nil, errorsmod.Wrapf(types.ErrUnsupportedQuery, "bank query %s", compactJSON(request))
	}
}

func balanceStore(stor storage.Storage) storage.Storage {
	return storage.NewMultilevelPrefixedStorage(stor, [][]byte{bankNamespace, balancesNamespace})
}

func readonlyBalanceStore(stor storage.ReadonlyStorage) storage.ReadonlyStorage {
	return storage.NewMultilevelReadonlyPrefixedStorage(stor, [][]byte{bankNamespace, balancesNamespace})
}

func (k BankKeeper) getBalance(balances storage.ReadonlyStorage, address string) ([]wasmvmtypes.Coin, error) {
	raw := balances.Get([]byte(address))
	if raw == nil {
		return []wasmvmtypes.Coin{}, nil
	}
	var coins []wasmvmtypes.Coin
	if err := json.Unmarshal(raw, &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

func (k BankKeeper) setBalance(balances storage.Storage, address string, coins []wasmvmtypes.Coin) error {
	bz, err := json.Marshal(coins)
	if err != nil {
		return err
	}
	balances.Set([]byte(address), bz)
	return nil
}

func (k BankKeeper) send(balances storage.Storage, from, to string, amount []wasmvmtypes.Coin) error {
	if err := k.burnFrom(balances, from, amount); err != nil {
		return err
	}
	return k.mint(balances, to, amount)
}

func (k BankKeeper) burn(balances storage.Storage, from string, amount []wasmvmtypes.Coin) error {
	return k.burnFrom(balances, from, amount)
}

func (k BankKeeper) burnFrom(balances storage.Storage, from string, amount []wasmvmtypes.Coin) error {
	balance, err := k.getBalance(balances, from)
	if err != nil {
		return err
	}
	updated, err := subCoins(balance, amount)
	if err != nil {
		return errorsmod.Wrapf(err, "account %s", from)
	}
	return k.setBalance(balances, from, updated)
}

func (k BankKeeper) mint(balances storage.Storage, to string, amount []wasmvmtypes.Coin) error {
	balance, err := k.getBalance(balances, to)
	if err != nil {
		return err
	}
	updated, err := addCoins(balance, amount)
	if err != nil {
		return err
	}
	return k.setBalance(balances, to, updated)
}

func (k BankKeeper) supplyOf(balances storage.ReadonlyStorage, denom string) (wasmvmtypes.Coin, error) {
	total := math.ZeroInt()
	it := balances.Range(nil, nil, storage.Ascending)
	defer it.Close()
	for ; it.Valid(); it.Next() {
		var coins []wasmvmtypes.Coin
		if err := json.Unmarshal(it.Value(), &coins); err != nil {
			return wasmvmtypes.Coin{}, err
		}
		for _, c := range coins {
			if c.Denom != denom {
				continue
			}
			v, err := parseAmount(c)
			if err != nil {
				return wasmvmtypes.Coin{}, err
			}
			total = total.Add(v)
		}
	}
	return wasmvmtypes.Coin{Denom: denom, Amount: total.String()}, nil
}

func parseAmount(c wasmvmtypes.Coin) (math.Int, error) {
	v, ok := math.NewIntFromString(c.Amount)
	if !ok || v.IsNegative() {
		return math.Int{}, errorsmod.Wrapf(types.ErrInvalidCoin, "%s%s", c.Amount, c.Denom)
	}
	return v, nil
}

// addCoins merges amount into balance and returns the normalized result.
func addCoins(balance, amount []wasmvmtypes.Coin) ([]wasmvmtypes.Coin, error) {
	byDenom := map[string]math.Int{}
	for _, c := range balance {
		v, err := parseAmount(c)
		if err != nil {
			return nil, err
		}
		byDenom[c.Denom] = v
	}
	for _, c := range amount {
		v, err := parseAmount(c)
		if err != nil {
			return nil, err
		}
		if cur, ok := byDenom[c.Denom]; ok {
			byDenom[c.Denom] = cur.Add(v)
		} else {
			byDenom[c.Denom] = v
		}
	}
	return coinsFromMap(byDenom), nil
}

// subCoins removes amount from balance, failing if any denom would go
// negative.
func subCoins(balance, amount []wasmvmtypes.Coin) ([]wasmvmtypes.Coin, error) {
	byDenom := map[string]math.Int{}
	for _, c := range balance {
		v, err := parseAmount(c)
		if err != nil {
			return nil, err
		}
		byDenom[c.Denom] = v
	}
	for _, c := range amount {
		v, err := parseAmount(c)
		if err != nil {
			return nil, err
		}
		cur, ok := byDenom[c.Denom]
		if !ok || cur.LT(v) {
			return nil, errorsmod.Wrapf(types.ErrInsufficientFunds, "cannot subtract %s%s", c.Amount, c.Denom)
		}
		byDenom[c.Denom] = cur.Sub(v)
	}
	return coinsFromMap(byDenom), nil
}

func normalizeCoins(coins []wasmvmtypes.Coin) ([]wasmvmtypes.Coin, error) {
	return addCoins(nil, coins)
}

// coinsFromMap renders a denom map as coins sorted by denom with zero
// amounts dropped.
func coinsFromMap(byDenom map[string]math.Int) []wasmvmtypes.Coin {
	denoms := make([]string, 0, len(byDenom))
	for denom, v := range byDenom {
		if v.IsZero() {
			continue
		}
		denoms = append(denoms, denom)
	}
	sort.Strings(denoms)
	out := make([]wasmvmtypes.Coin, 0, len(denoms))
	for _, denom := range denoms {
		out = append(out, wasmvmtypes.Coin{Denom: denom, Amount: byDenom[denom].String()})
	}
	return out
}

func coinsString(coins []wasmvmtypes.Coin) string {
	parts := make([]string, len(coins))
	for i, c := range coins {
		parts[i] = c.Amount + c.Denom
	}
	return strings.Join(parts, ",")
}
