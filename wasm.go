package multitest

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	errorsmod "cosmossdk.io/errors"
	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/multitest/storage"
	"github.com/CosmWasm/multitest/types"
)

// Wasm is the router-facing surface of the contract keeper.
type Wasm interface {
	Execute(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, sender string, msg wasmvmtypes.WasmMsg) (types.AppResponse, error)
	Query(api Api, stor storage.ReadonlyStorage, querier Querier, block wasmvmtypes.BlockInfo, request wasmvmtypes.WasmQuery) ([]byte, error)
	Sudo(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, contractAddr string, msg []byte) (types.AppResponse, error)
}

// ContractAddrAttr is the attribute key carrying the emitting contract's
// address. The underscore prefix is reserved for keeper-injected attributes.
const ContractAddrAttr = "_contract_address"

// CustomContractEventPrefix is prepended to contract-emitted event types.
const CustomContractEventPrefix = "wasm-"

const eventTypeMinLength = 2

var (
	wasmNamespace      = []byte("wasm")
	contractsNamespace = []byte("contracts")
	contractSequence   = []byte("contract_sequence")
)

// ContractData is the on-chain metadata of one instantiated contract.
type ContractData struct {
	CodeID  uint64 `json:"code_id"`
	Creator string `json:"creator"`
	Admin   string `json:"admin,omitempty"`
	Label   string `json:"label"`
	Created uint64 `json:"created"`
}

type codeData struct {
	creator  string
	checksum wasmvmtypes.Checksum
	sourceID int
}

// WasmKeeper stores contract code as native Go objects and drives the full
// contract lifecycle: instantiation, execution, migration, admin handling,
// sub-message dispatch and replies, sudo and IBC entry points. Contract
// metadata and state live in the "wasm" namespace of the chain storage; the
// code registry lives in the keeper itself since Go objects cannot be
// serialized.
type WasmKeeper struct {
	codeBase   []Contract
	codeData   map[uint64]codeData
	nextCodeID uint64

	addressGenerator  AddressGenerator
	checksumGenerator ChecksumGenerator
}

var _ Wasm = (*WasmKeeper)(nil)

func NewWasmKeeper() *WasmKeeper {
	return &WasmKeeper{
		codeData:          map[uint64]codeData{},
		nextCodeID:        1,
		addressGenerator:  SimpleAddressGenerator{},
		checksumGenerator: SimpleChecksumGenerator{},
	}
}

// WithAddressGenerator replaces how new contract addresses are derived.
func (k *WasmKeeper) WithAddressGenerator(gen AddressGenerator) *WasmKeeper {
	k.addressGenerator = gen
	return k
}

// WithChecksumGenerator replaces how code checksums are derived.
func (k *WasmKeeper) WithChecksumGenerator(gen ChecksumGenerator) *WasmKeeper {
	k.checksumGenerator = gen
	return k
}

// StoreCode registers a contract under the next free code id.
func (k *WasmKeeper) StoreCode(creator string, contract Contract) uint64 {
	codeID := k.nextCodeID
	k.nextCodeID++
	k.codeBase = append(k.codeBase, contract)
	k.codeData[codeID] = codeData{
		creator:  creator,
		checksum: k.checksumGenerator.Checksum(creator, codeID),
		sourceID: len(k.codeBase) - 1,
	}
	return codeID
}

// StoreCodeWithID registers a contract under a caller-chosen code id, as
// genesis import does. The id must be free.
func (k *WasmKeeper) StoreCodeWithID(creator string, codeID uint64, contract Contract) (uint64, error) {
	if codeID == 0 {
		return 0, types.ErrInvalidCodeID
	}
	if _, exists := k.codeData[codeID]; exists {
		return 0, errorsmod.Wrapf(types.ErrDuplicateCodeID, "%d", codeID)
	}
	k.codeBase = append(k.codeBase, contract)
	k.codeData[codeID] = codeData{
		creator:  creator,
		checksum: k.checksumGenerator.Checksum(creator, codeID),
		sourceID: len(k.codeBase) - 1,
	}
	if codeID >= k.nextCodeID {
		k.nextCodeID = codeID + 1
	}
	return codeID, nil
}

// DuplicateCode registers the contract behind an existing code id under a
// fresh id, sharing the underlying code object.
func (k *WasmKeeper) DuplicateCode(codeID uint64) (uint64, error) {
	data, err := k.getCodeData(codeID)
	if err != nil {
		return 0, err
	}
	newID := k.nextCodeID
	k.nextCodeID++
	k.codeData[newID] = codeData{
		creator:  data.creator,
		checksum: data.checksum,
		sourceID: data.sourceID,
	}
	return newID, nil
}

// ContractCode returns the code object registered under codeID.
func (k *WasmKeeper) ContractCode(codeID uint64) (Contract, error) {
	data, err := k.getCodeData(codeID)
	if err != nil {
		return nil, err
	}
	return k.codeBase[data.sourceID], nil
}

func (k *WasmKeeper) getCodeData(codeID uint64) (codeData, error) {
	if codeID == 0 {
		return codeData{}, types.ErrInvalidCodeID
	}
	data, ok := k.codeData[codeID]
	if !ok {
		return codeData{}, errorsmod.Wrapf(types.ErrNoSuchCode, "code id %d", codeID)
	}
	return data, nil
}

// ContractData loads the metadata of a contract instance.
func (k *WasmKeeper) ContractData(stor storage.ReadonlyStorage, address string) (ContractData, error) {
	raw := storage.NewMultilevelReadonlyPrefixedStorage(stor, [][]byte{wasmNamespace, contractsNamespace}).Get([]byte(address))
	if raw == nil {
		return ContractData{}, errorsmod.Wrap(types.ErrNoSuchContract, address)
	}
	var data ContractData
	if err := json.Unmarshal(raw, &data); err != nil {
		return ContractData{}, err
	}
	return data, nil
}

func (k *WasmKeeper) saveContractData(stor storage.Storage, address string, data ContractData) error {
	bz, err := json.Marshal(data)
	if err != nil {
		return err
	}
	storage.NewMultilevelPrefixedStorage(stor, [][]byte{wasmNamespace, contractsNamespace}).Set([]byte(address), bz)
	return nil
}

func contractNamespace(address string) [][]byte {
	return [][]byte{wasmNamespace, []byte("contract_data/" + address)}
}

func (k *WasmKeeper) contractStorage(stor storage.Storage, address string) storage.Storage {
	return storage.NewMultilevelPrefixedStorage(stor, contractNamespace(address))
}

func (k *WasmKeeper) readonlyContractStorage(stor storage.ReadonlyStorage, address string) storage.ReadonlyStorage {
	return storage.NewMultilevelReadonlyPrefixedStorage(stor, contractNamespace(address))
}

// DumpWasmRaw returns the full raw state of one contract, for test
// assertions and debugging.
func (k *WasmKeeper) DumpWasmRaw(stor storage.ReadonlyStorage, address string) []storage.Record {
	var out []storage.Record
	it := k.readonlyContractStorage(stor, address).Range(nil, nil, storage.Ascending)
	defer it.Close()
	for ; it.Valid(); it.Next() {
		out = append(out, storage.Record{Key: it.Key(), Value: it.Value()})
	}
	return out
}

func (k *WasmKeeper) Execute(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, sender string, msg wasmvmtypes.WasmMsg) (types.AppResponse, error) {
	switch {
	case msg.Execute != nil:
		res, err := k.executeContract(api, stor, router, block, sender, msg.Execute.ContractAddr, msg.Execute.Msg, msg.Execute.Funds)
		if err != nil {
			return types.AppResponse{}, err
		}
		res.Data = encodeExecuteResponse(res.Data)
		return res, nil
	case msg.Instantiate != nil:
		m := msg.Instantiate
		return k.instantiateContract(api, stor, router, block, sender, m.CodeID, m.Msg, m.Funds, m.Label, m.Admin, nil)
	case msg.Instantiate2 != nil:
		m := msg.Instantiate2
		return k.instantiateContract(api, stor, router, block, sender, m.CodeID, m.Msg, m.Funds, m.Label, m.Admin, m.Salt)
	case msg.Migrate != nil:
		return k.migrateContract(api, stor, router, block, sender, msg.Migrate.ContractAddr, msg.Migrate.NewCodeID, msg.Migrate.Msg)
	case msg.UpdateAdmin != nil:
		return k.updateAdmin(api, stor, sender, msg.UpdateAdmin.ContractAddr, msg.UpdateAdmin.Admin)
	case msg.ClearAdmin != nil:
		return k.updateAdmin(api, stor, sender, msg.ClearAdmin.ContractAddr, "")
	default:
		return types.AppResponse{}, errorsmod.Wrapf(types.ErrUnsupportedMsg, "wasm message %s", compactJSON(msg))
	}
}

func (k *WasmKeeper) Query(api Api, stor storage.ReadonlyStorage, querier Querier, block wasmvmtypes.BlockInfo, request wasmvmtypes.WasmQuery) ([]byte, error) {
	switch {
	case request.Smart != nil:
		return k.QuerySmart(api, stor, querier, block, request.Smart.ContractAddr, request.Smart.Msg)
	case request.Raw != nil:
		return k.QueryRaw(stor, request.Raw.ContractAddr, request.Raw.Key), nil
	case request.ContractInfo != nil:
		data, err := k.ContractData(stor, request.ContractInfo.ContractAddr)
		if err != nil {
			return nil, err
		}
		contract, err := k.ContractCode(data.CodeID)
		if err != nil {
			return nil, err
		}
		res := wasmvmtypes.ContractInfoResponse{
			CodeID:  data.CodeID,
			Creator: data.Creator,
			Admin:   data.Admin,
		}
		if _, ok := contract.(IBCContract); ok {
			res.IBCPort = "wasm." + request.ContractInfo.ContractAddr
		}
		return json.Marshal(res)
	case request.CodeInfo != nil:
		data, err := k.getCodeData(request.CodeInfo.CodeID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(wasmvmtypes.CodeInfoResponse{
			CodeID:   request.CodeInfo.CodeID,
			Creator:  data.creator,
			Checksum: data.checksum,
		})
	default:
		return nil, errorsmod.Wrapf(types.ErrUnsupportedQuery, "wasm query %s", compactJSON(request))
	}
}

// QuerySmart runs a contract's query entry point against read-only state.
func (k *WasmKeeper) QuerySmart(api Api, stor storage.ReadonlyStorage, querier Querier, block wasmvmtypes.BlockInfo, address string, msg []byte) ([]byte, error) {
	contract, _, err := k.loadContract(stor, address)
	if err != nil {
		return nil, err
	}
	deps := Deps{
		Storage: k.readonlyContractStorage(stor, address),
		Api:     api,
		Querier: querier,
	}
	return contract.Query(deps, newEnv(block, address), msg)
}

// QueryRaw reads one key of a contract's raw state. Missing keys yield an
// empty result, matching chain behavior.
func (k *WasmKeeper) QueryRaw(stor storage.ReadonlyStorage, address string, key []byte) []byte {
	value := k.readonlyContractStorage(stor, address).Get(key)
	if value == nil {
		return []byte{}
	}
	return value
}

func (k *WasmKeeper) Sudo(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, contractAddr string, msg []byte) (types.AppResponse, error) {
	contract, _, err := k.loadContract(stor, contractAddr)
	if err != nil {
		return types.AppResponse{}, err
	}
	res, err := contract.Sudo(k.depsMut(api, stor, router, block, contractAddr), newEnv(block, contractAddr), msg)
	if err != nil {
		return types.AppResponse{}, err
	}
	customEvent := wasmvmtypes.Event{
		Type:       "sudo",
		Attributes: []wasmvmtypes.EventAttribute{{Key: ContractAddrAttr, Value: contractAddr}},
	}
	return k.finalizeResponse(api, stor, router, block, contractAddr, customEvent, res)
}

func (k *WasmKeeper) loadContract(stor storage.ReadonlyStorage, address string) (Contract, ContractData, error) {
	data, err := k.ContractData(stor, address)
	if err != nil {
		return nil, ContractData{}, err
	}
	contract, err := k.ContractCode(data.CodeID)
	if err != nil {
		return nil, ContractData{}, err
	}
	return contract, data, nil
}

func (k *WasmKeeper) depsMut(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, address string) DepsMut {
	return DepsMut{
		Storage: k.contractStorage(stor, address),
		Api:     api,
		Querier: routerQuerierFor(router, api, stor, block),
	}
}

func newEnv(block wasmvmtypes.BlockInfo, address string) wasmvmtypes.Env {
	return wasmvmtypes.Env{
		Block:    block,
		Contract: wasmvmtypes.ContractInfo{Address: address},
	}
}

func newMessageInfo(sender string, funds []wasmvmtypes.Coin) wasmvmtypes.MessageInfo {
	if funds == nil {
		funds = []wasmvmtypes.Coin{}
	}
	return wasmvmtypes.MessageInfo{Sender: sender, Funds: funds}
}

// sendFunds moves message funds from the sender to the contract before its
// entry point runs, inside the current transaction.
func (k *WasmKeeper) sendFunds(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, sender, recipient string, funds []wasmvmtypes.Coin) error {
	if len(funds) == 0 {
		return nil
	}
	_, err := router.Execute(api, stor, block, sender, wasmvmtypes.CosmosMsg{
		Bank: &wasmvmtypes.BankMsg{Send: &wasmvmtypes.SendMsg{
			ToAddress: recipient,
			Amount:    funds,
		}},
	})
	return err
}

func (k *WasmKeeper) executeContract(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, sender, address string, msg []byte, funds []wasmvmtypes.Coin) (types.AppResponse, error) {
	contract, _, err := k.loadContract(stor, address)
	if err != nil {
		return types.AppResponse{}, err
	}
	if err := k.sendFunds(api, stor, router, block, sender, address, funds); err != nil {
		return types.AppResponse{}, err
	}
	res, err := contract.Execute(k.depsMut(api, stor, router, block, address), newEnv(block, address), newMessageInfo(sender, funds), msg)
	if err != nil {
		return types.AppResponse{}, err
	}
	customEvent := wasmvmtypes.Event{
		Type:       "execute",
		Attributes: []wasmvmtypes.EventAttribute{{Key: ContractAddrAttr, Value: address}},
	}
	return k.finalizeResponse(api, stor, router, block, address, customEvent, res)
}

func (k *WasmKeeper) instantiateContract(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, sender string, codeID uint64, msg []byte, funds []wasmvmtypes.Coin, label, admin string, salt []byte) (types.AppResponse, error) {
	address, err := k.registerContract(api, stor, block, sender, codeID, label, admin, salt)
	if err != nil {
		return types.AppResponse{}, err
	}
	contract, err := k.ContractCode(codeID)
	if err != nil {
		return types.AppResponse{}, err
	}
	if err := k.sendFunds(api, stor, router, block, sender, address, funds); err != nil {
		return types.AppResponse{}, err
	}
	res, err := contract.Instantiate(k.depsMut(api, stor, router, block, address), newEnv(block, address), newMessageInfo(sender, funds), msg)
	if err != nil {
		return types.AppResponse{}, err
	}
	customEvent := wasmvmtypes.Event{
		Type: "instantiate",
		Attributes: []wasmvmtypes.EventAttribute{
			{Key: ContractAddrAttr, Value: address},
			{Key: "code_id", Value: fmt.Sprintf("%d", codeID)},
		},
	}
	appRes, err := k.finalizeResponse(api, stor, router, block, address, customEvent, res)
	if err != nil {
		return types.AppResponse{}, err
	}
	appRes.Data = encodeInstantiateResponse(address, appRes.Data)
	return appRes, nil
}

// registerContract derives the address of a new instance and writes its
// metadata. The instance sequence lives in storage so a failed transaction
// also rolls the counter back.
func (k *WasmKeeper) registerContract(api Api, stor storage.Storage, block wasmvmtypes.BlockInfo, creator string, codeID uint64, label, admin string, salt []byte) (string, error) {
	code, err := k.getCodeData(codeID)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(label) == "" {
		return "", types.ErrEmptyLabel
	}
	if admin != "" {
		if _, err := api.AddrValidate(admin); err != nil {
			return "", err
		}
	}
	wasmStore := storage.NewPrefixedStorage(stor, wasmNamespace)
	instanceID := uint64(0)
	if raw := wasmStore.Get(contractSequence); raw != nil {
		instanceID = binary.BigEndian.Uint64(raw)
	}

	var address string
	if salt == nil {
		address, err = k.addressGenerator.ContractAddress(api, stor, codeID, instanceID)
	} else {
		address, err = k.addressGenerator.PredictableContractAddress(api, stor, codeID, instanceID, code.checksum, creator, salt)
	}
	if err != nil {
		return "", err
	}
	if _, err := k.ContractData(stor, address); err == nil {
		return "", errorsmod.Wrap(types.ErrDuplicateContractAddress, address)
	}

	seqBz := make([]byte, 8)
	binary.BigEndian.PutUint64(seqBz, instanceID+1)
	wasmStore.Set(contractSequence, seqBz)

	data := ContractData{
		CodeID:  codeID,
		Creator: creator,
		Admin:   admin,
		Label:   label,
		Created: block.Height,
	}
	if err := k.saveContractData(stor, address, data); err != nil {
		return "", err
	}
	return address, nil
}

func (k *WasmKeeper) migrateContract(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, sender, address string, newCodeID uint64, msg []byte) (types.AppResponse, error) {
	data, err := k.ContractData(stor, address)
	if err != nil {
		return types.AppResponse{}, err
	}
	if data.Admin == "" || data.Admin != sender {
		return types.AppResponse{}, errorsmod.Wrapf(types.ErrUnauthorized, "only admin can migrate contract: %s", sender)
	}
	contract, err := k.ContractCode(newCodeID)
	if err != nil {
		return types.AppResponse{}, errorsmod.Wrapf(types.ErrNoSuchCode, "cannot migrate contract to unregistered code id %d", newCodeID)
	}
	data.CodeID = newCodeID
	if err := k.saveContractData(stor, address, data); err != nil {
		return types.AppResponse{}, err
	}
	res, err := contract.Migrate(k.depsMut(api, stor, router, block, address), newEnv(block, address), msg)
	if err != nil {
		return types.AppResponse{}, err
	}
	customEvent := wasmvmtypes.Event{
		Type: "migrate",
		Attributes: []wasmvmtypes.EventAttribute{
			{Key: ContractAddrAttr, Value: address},
			{Key: "code_id", Value: fmt.Sprintf("%d", newCodeID)},
		},
	}
	appRes, err := k.finalizeResponse(api, stor, router, block, address, customEvent, res)
	if err != nil {
		return types.AppResponse{}, err
	}
	appRes.Data = encodeExecuteResponse(appRes.Data)
	return appRes, nil
}

func (k *WasmKeeper) updateAdmin(api Api, stor storage.Storage, sender, address, newAdmin string) (types.AppResponse, error) {
	data, err := k.ContractData(stor, address)
	if err != nil {
		return types.AppResponse{}, err
	}
	if data.Admin == "" || data.Admin != sender {
		return types.AppResponse{}, errorsmod.Wrapf(types.ErrUnauthorized, "only admin can update the contract admin: %s", sender)
	}
	if newAdmin != "" {
		if _, err := api.AddrValidate(newAdmin); err != nil {
			return types.AppResponse{}, err
		}
	}
	data.Admin = newAdmin
	if err := k.saveContractData(stor, address, data); err != nil {
		return types.AppResponse{}, err
	}
	return types.AppResponse{}, nil
}

// reply feeds a sub-message outcome back into the calling contract.
func (k *WasmKeeper) reply(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, address string, reply wasmvmtypes.Reply) (types.AppResponse, error) {
	contract, _, err := k.loadContract(stor, address)
	if err != nil {
		return types.AppResponse{}, err
	}
	res, err := contract.Reply(k.depsMut(api, stor, router, block, address), newEnv(block, address), reply)
	if err != nil {
		return types.AppResponse{}, err
	}
	mode := "handle_success"
	if reply.Result.Ok == nil {
		mode = "handle_failure"
	}
	customEvent := wasmvmtypes.Event{
		Type: "reply",
		Attributes: []wasmvmtypes.EventAttribute{
			{Key: ContractAddrAttr, Value: address},
			{Key: "mode", Value: mode},
		},
	}
	return k.finalizeResponse(api, stor, router, block, address, customEvent, res)
}

// finalizeResponse validates a contract response, renders its events and
// runs all spawned sub-messages to completion.
func (k *WasmKeeper) finalizeResponse(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, address string, customEvent wasmvmtypes.Event, res *wasmvmtypes.Response) (types.AppResponse, error) {
	if res == nil {
		res = &wasmvmtypes.Response{}
	}
	built, err := buildAppResponse(address, customEvent, res)
	if err != nil {
		return types.AppResponse{}, err
	}
	return k.processResponse(api, stor, router, block, address, built, res.Messages)
}

// processResponse runs the sub-messages of one response in order. Events of
// every sub-message are appended; the last non-empty data, whether from a
// sub-message or a reply, wins over the contract's own data.
func (k *WasmKeeper) processResponse(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, address string, built types.AppResponse, messages []wasmvmtypes.SubMsg) (types.AppResponse, error) {
	events := built.Events
	data := built.Data
	for _, sub := range messages {
		res, err := k.executeSubMsg(api, stor, router, block, address, sub)
		if err != nil {
			return types.AppResponse{}, err
		}
		events = append(events, res.Events...)
		if res.Data != nil {
			data = res.Data
		}
	}
	return types.AppResponse{Events: events, Data: data}, nil
}

// executeSubMsg runs one sub-message in its own transaction and applies the
// reply protocol to its outcome.
func (k *WasmKeeper) executeSubMsg(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, address string, sub wasmvmtypes.SubMsg) (types.AppResponse, error) {
	switch sub.ReplyOn {
	case wasmvmtypes.ReplyAlways, wasmvmtypes.ReplySuccess, wasmvmtypes.ReplyError, wasmvmtypes.ReplyNever:
	default:
		return types.AppResponse{}, errorsmod.Wrapf(types.ErrInvalidReplyOn, "%v", sub.ReplyOn)
	}

	subRes, err := storage.Transactional(stor, func(subStor storage.Storage) (types.AppResponse, error) {
		return router.Execute(api, subStor, block, address, sub.Msg)
	})
	if err == nil {
		if sub.ReplyOn == wasmvmtypes.ReplyAlways || sub.ReplyOn == wasmvmtypes.ReplySuccess {
			reply := wasmvmtypes.Reply{
				ID:      sub.ID,
				Payload: sub.Payload,
				Result: wasmvmtypes.SubMsgResult{
					Ok: &wasmvmtypes.SubMsgResponse{
						Events: subRes.Events,
						Data:   subRes.Data,
					},
				},
			}
			replyRes, err := k.reply(api, stor, router, block, address, reply)
			if err != nil {
				return types.AppResponse{}, err
			}
			// the reply overrides the sub-message data, even with nothing
			return types.AppResponse{
				Events: append(subRes.Events, replyRes.Events...),
				Data:   replyRes.Data,
			}, nil
		}
		return types.AppResponse{Events: subRes.Events}, nil
	}

	if sub.ReplyOn == wasmvmtypes.ReplyAlways || sub.ReplyOn == wasmvmtypes.ReplyError {
		reply := wasmvmtypes.Reply{
			ID:      sub.ID,
			Payload: sub.Payload,
			Result:  wasmvmtypes.SubMsgResult{Err: err.Error()},
		}
		return k.reply(api, stor, router, block, address, reply)
	}
	return types.AppResponse{}, err
}

// buildAppResponse converts a verified contract response into the event
// stream callers observe: the operation's own event first, a "wasm" event
// for loose attributes, then each contract event with the wasm- prefix and
// the contract address injected.
func buildAppResponse(address string, customEvent wasmvmtypes.Event, res *wasmvmtypes.Response) (types.AppResponse, error) {
	events := make([]wasmvmtypes.Event, 0, 2+len(res.Events))
	events = append(events, customEvent)

	if len(res.Attributes) > 0 {
		attrs, err := validateAttributes(res.Attributes)
		if err != nil {
			return types.AppResponse{}, err
		}
		wasmEvent := wasmvmtypes.Event{
			Type:       "wasm",
			Attributes: append([]wasmvmtypes.EventAttribute{{Key: ContractAddrAttr, Value: address}}, attrs...),
		}
		events = append(events, wasmEvent)
	}

	for _, ev := range res.Events {
		ty := strings.TrimSpace(ev.Type)
		if len(ty) < eventTypeMinLength {
			return types.AppResponse{}, errorsmod.Wrapf(types.ErrEventTypeTooShort, "%q", ev.Type)
		}
		attrs, err := validateAttributes(ev.Attributes)
		if err != nil {
			return types.AppResponse{}, err
		}
		events = append(events, wasmvmtypes.Event{
			Type:       CustomContractEventPrefix + ty,
			Attributes: append([]wasmvmtypes.EventAttribute{{Key: ContractAddrAttr, Value: address}}, attrs...),
		})
	}
	return types.AppResponse{Events: events, Data: res.Data}, nil
}

// validateAttributes trims and checks contract-supplied attributes. Keys
// starting with underscore are rejected so keeper-injected attributes cannot
// be spoofed.
func validateAttributes(attrs []wasmvmtypes.EventAttribute) ([]wasmvmtypes.EventAttribute, error) {
	out := make([]wasmvmtypes.EventAttribute, 0, len(attrs))
	for _, attr := range attrs {
		key := strings.TrimSpace(attr.Key)
		value := strings.TrimSpace(attr.Value)
		if key == "" {
			return nil, errorsmod.Wrapf(types.ErrEmptyAttributeKey, "value: %s", attr.Value)
		}
		if strings.HasPrefix(key, "_") {
			return nil, errorsmod.Wrap(types.ErrReservedAttributeKey, key)
		}
		if value == "" {
			return nil, errorsmod.Wrapf(types.ErrEmptyAttributeValue, "key: %s", attr.Key)
		}
		out = append(out, wasmvmtypes.EventAttribute{Key: key, Value: value})
	}
	return out, nil
}

// routerQuerierFor adapts a CosmosRouter to the contract-facing Querier.
func routerQuerierFor(router CosmosRouter, api Api, stor storage.ReadonlyStorage, block wasmvmtypes.BlockInfo) Querier {
	return querierFunc(func(request wasmvmtypes.QueryRequest) ([]byte, error) {
		return router.Query(api, stor, block, request)
	})
}

type querierFunc func(request wasmvmtypes.QueryRequest) ([]byte, error)

func (f querierFunc) Query(request wasmvmtypes.QueryRequest) ([]byte, error) { return f(request) }
