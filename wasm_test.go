package multitest_test

import (
	"encoding/json"
	"testing"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	multitest "github.com/CosmWasm/multitest"
	"github.com/CosmWasm/multitest/storage"
	"github.com/CosmWasm/multitest/testcontracts"
)

func TestRegisterContract(t *testing.T) {
	app := multitest.NewApp()
	codeID := app.StoreCodeWithCreator("owner", testcontracts.EchoContract())
	require.Equal(t, uint64(1), codeID)

	addr, err := app.InstantiateContract("owner", codeID, []byte("{}"), nil, "echo", "admin")
	require.NoError(t, err)
	assert.Equal(t, "contract0", addr)

	data, err := app.ContractData(addr)
	require.NoError(t, err)
	assert.Equal(t, multitest.ContractData{
		CodeID:  codeID,
		Creator: "owner",
		Admin:   "admin",
		Label:   "echo",
		Created: app.Block().Height,
	}, data)
}

func TestInstantiateUnknownCodeID(t *testing.T) {
	app := multitest.NewApp()

	_, err := app.InstantiateContract("owner", 42, []byte("{}"), nil, "echo", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such code")

	_, err = app.InstantiateContract("owner", 0, []byte("{}"), nil, "echo", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code id: invalid")
}

func TestLabelIsRequired(t *testing.T) {
	app := multitest.NewApp()
	codeID := app.StoreCode(testcontracts.EchoContract())

	_, err := app.InstantiateContract("owner", codeID, []byte("{}"), nil, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "label is required")
}

func TestUsesSimpleAddressGeneratorByDefault(t *testing.T) {
	app := multitest.NewApp()
	codeID := app.StoreCode(testcontracts.EchoContract())

	first, err := app.InstantiateContract("owner", codeID, []byte("{}"), nil, "one", "")
	require.NoError(t, err)
	second, err := app.InstantiateContract("owner", codeID, []byte("{}"), nil, "two", "")
	require.NoError(t, err)

	assert.Equal(t, "contract0", first)
	assert.Equal(t, "contract1", second)
}

type fixedAddressGenerator struct {
	address string
}

func (g fixedAddressGenerator) ContractAddress(_ multitest.Api, _ storage.Storage, _, _ uint64) (string, error) {
	return g.address, nil
}

func (g fixedAddressGenerator) PredictableContractAddress(_ multitest.Api, _ storage.Storage, _, _ uint64, _ wasmvmtypes.Checksum, _ string, _ []byte) (string, error) {
	return g.address, nil
}

func TestCanUseCustomAddressGenerator(t *testing.T) {
	wasm := multitest.NewWasmKeeper().WithAddressGenerator(fixedAddressGenerator{address: "burner"})
	app := multitest.NewAppBuilder().WithWasm(wasm).Build(nil)
	codeID := app.StoreCode(testcontracts.EchoContract())

	addr, err := app.InstantiateContract("owner", codeID, []byte("{}"), nil, "custom", "")
	require.NoError(t, err)
	assert.Equal(t, "burner", addr)

	// the fixed address is taken now
	_, err = app.InstantiateContract("owner", codeID, []byte("{}"), nil, "custom", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestDuplicateCode(t *testing.T) {
	app := multitest.NewApp()
	codeID := app.StoreCode(testcontracts.EchoContract())

	dupID, err := app.DuplicateCode(codeID)
	require.NoError(t, err)
	assert.Equal(t, codeID+1, dupID)

	// both ids are instantiable and share the checksum
	_, err = app.InstantiateContract("owner", dupID, []byte("{}"), nil, "dup", "")
	require.NoError(t, err)

	origInfo, err := app.QueryCodeInfo(codeID)
	require.NoError(t, err)
	dupInfo, err := app.QueryCodeInfo(dupID)
	require.NoError(t, err)
	assert.Equal(t, origInfo.Checksum, dupInfo.Checksum)
	assert.Equal(t, origInfo.Creator, dupInfo.Creator)

	_, err = app.DuplicateCode(0)
	require.Error(t, err)
	_, err = app.DuplicateCode(99)
	require.Error(t, err)
}

func TestStoreCodeWithID(t *testing.T) {
	app := multitest.NewApp()

	id, err := app.StoreCodeWithID("owner", 42, testcontracts.EchoContract())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	// id is now taken
	_, err = app.StoreCodeWithID("owner", 42, testcontracts.EchoContract())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicated code id")

	_, err = app.StoreCodeWithID("owner", 0, testcontracts.EchoContract())
	require.Error(t, err)

	// plain StoreCode continues above the fixed id
	next := app.StoreCode(testcontracts.EchoContract())
	assert.Equal(t, uint64(43), next)
}

func TestUpdateAndClearAdmin(t *testing.T) {
	app := multitest.NewApp()
	codeID := app.StoreCode(testcontracts.EchoContract())
	addr, err := app.InstantiateContract("owner", codeID, []byte("{}"), nil, "echo", "alice")
	require.NoError(t, err)

	// non-admin cannot touch admin rights
	_, err = app.UpdateContractAdmin("mallory", addr, "mallory")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only admin can update the contract admin")

	// admin hands over to bob
	_, err = app.UpdateContractAdmin("alice", addr, "bob")
	require.NoError(t, err)
	data, err := app.ContractData(addr)
	require.NoError(t, err)
	assert.Equal(t, "bob", data.Admin)

	// alice lost her rights
	_, err = app.UpdateContractAdmin("alice", addr, "alice")
	require.Error(t, err)

	// bob clears the admin, making the contract immutable
	_, err = app.ClearContractAdmin("bob", addr)
	require.NoError(t, err)
	data, err = app.ContractData(addr)
	require.NoError(t, err)
	assert.Empty(t, data.Admin)

	_, err = app.UpdateContractAdmin("bob", addr, "bob")
	require.Error(t, err)
}

func TestMigrate(t *testing.T) {
	app := multitest.NewApp()
	hackatomID := app.StoreCode(testcontracts.HackatomContract())
	addr, err := app.InstantiateContract("owner", hackatomID, mustJSON(t, testcontracts.HackatomInit{Beneficiary: "alice"}), nil, "hackatom", "admin")
	require.NoError(t, err)

	newCodeID, err := app.DuplicateCode(hackatomID)
	require.NoError(t, err)

	specs := map[string]struct {
		sender string
		codeID uint64
		expErr string
	}{
		"non-admin rejected":   {sender: "mallory", codeID: newCodeID, expErr: "only admin can migrate contract"},
		"unregistered code id": {sender: "admin", codeID: 99, expErr: "unregistered code id"},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			_, err := app.MigrateContract(spec.sender, addr, spec.codeID, mustJSON(t, testcontracts.HackatomMigrate{NewGuy: "bob"}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), spec.expErr)
		})
	}

	_, err = app.MigrateContract("admin", addr, newCodeID, mustJSON(t, testcontracts.HackatomMigrate{NewGuy: "bob"}))
	require.NoError(t, err)

	data, err := app.ContractData(addr)
	require.NoError(t, err)
	assert.Equal(t, newCodeID, data.CodeID)

	bz, err := app.QuerySmart(addr, mustJSON(t, testcontracts.HackatomQuery{Beneficiary: &struct{}{}}))
	require.NoError(t, err)
	var res testcontracts.HackatomBeneficiaryResponse
	require.NoError(t, json.Unmarshal(bz, &res))
	assert.Equal(t, "bob", res.Beneficiary)
}

func TestInstantiate2Deterministic(t *testing.T) {
	makeAddr := func() string {
		app := multitest.NewApp()
		codeID := app.StoreCodeWithCreator("owner", testcontracts.EchoContract())
		addr, err := app.Instantiate2Contract("owner", codeID, []byte("{}"), nil, "echo", "", []byte("salt"))
		require.NoError(t, err)
		return addr
	}
	assert.Equal(t, makeAddr(), makeAddr())

	app := multitest.NewApp()
	codeID := app.StoreCodeWithCreator("owner", testcontracts.EchoContract())
	first, err := app.Instantiate2Contract("owner", codeID, []byte("{}"), nil, "echo", "", []byte("salt"))
	require.NoError(t, err)
	second, err := app.Instantiate2Contract("owner", codeID, []byte("{}"), nil, "echo", "", []byte("pepper"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	// same salt derives the same, already claimed address
	_, err = app.Instantiate2Contract("owner", codeID, []byte("{}"), nil, "echo", "", []byte("salt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestResponseValidation(t *testing.T) {
	app := multitest.NewApp()
	codeID := app.StoreCode(testcontracts.EchoContract())
	addr, err := app.InstantiateContract("owner", codeID, []byte("{}"), nil, "echo", "")
	require.NoError(t, err)

	specs := map[string]struct {
		msg    testcontracts.EchoMsg
		expErr string
	}{
		"empty attribute key": {
			msg:    testcontracts.EchoMsg{Attributes: []wasmvmtypes.EventAttribute{{Key: "  ", Value: "value"}}},
			expErr: "empty attribute key",
		},
		"empty attribute value": {
			msg:    testcontracts.EchoMsg{Attributes: []wasmvmtypes.EventAttribute{{Key: "key", Value: "  "}}},
			expErr: "empty attribute value",
		},
		"reserved attribute key": {
			msg:    testcontracts.EchoMsg{Attributes: []wasmvmtypes.EventAttribute{{Key: "_reserved", Value: "value"}}},
			expErr: "reserved prefix",
		},
		"event type too short": {
			msg: testcontracts.EchoMsg{Events: []wasmvmtypes.Event{
				{Type: "a", Attributes: []wasmvmtypes.EventAttribute{{Key: "key", Value: "value"}}},
			}},
			expErr: "event type too short",
		},
		"bad attribute inside event": {
			msg: testcontracts.EchoMsg{Events: []wasmvmtypes.Event{
				{Type: "nice-event", Attributes: []wasmvmtypes.EventAttribute{{Key: "_bad", Value: "value"}}},
			}},
			expErr: "reserved prefix",
		},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			_, err := app.ExecuteContract("caller", addr, mustJSON(t, spec.msg), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), spec.expErr)
		})
	}
}

func TestContractEventsRendered(t *testing.T) {
	app := multitest.NewApp()
	codeID := app.StoreCode(testcontracts.EchoContract())
	addr, err := app.InstantiateContract("owner", codeID, []byte("{}"), nil, "echo", "")
	require.NoError(t, err)

	msg := testcontracts.EchoMsg{
		Attributes: []wasmvmtypes.EventAttribute{{Key: "action", Value: "test"}},
		Events: []wasmvmtypes.Event{
			{Type: "custom", Attributes: []wasmvmtypes.EventAttribute{{Key: "inner", Value: "yes"}}},
		},
	}
	res, err := app.ExecuteContract("caller", addr, mustJSON(t, msg), nil)
	require.NoError(t, err)

	require.Len(t, res.Events, 3)
	assert.Equal(t, "execute", res.Events[0].Type)
	assert.Equal(t, []wasmvmtypes.EventAttribute{{Key: "_contract_address", Value: addr}}, []wasmvmtypes.EventAttribute(res.Events[0].Attributes))

	assert.Equal(t, "wasm", res.Events[1].Type)
	assert.Equal(t, []wasmvmtypes.EventAttribute{{Key: "action", Value: "test"}}, res.CustomAttrs(1))

	assert.Equal(t, "wasm-custom", res.Events[2].Type)
	assert.Equal(t, []wasmvmtypes.EventAttribute{
		{Key: "_contract_address", Value: addr},
		{Key: "inner", Value: "yes"},
	}, []wasmvmtypes.EventAttribute(res.Events[2].Attributes))

	res.AssertEvent(wasmvmtypes.Event{
		Type:       "wasm-custom",
		Attributes: []wasmvmtypes.EventAttribute{{Key: "inner", Value: "yes"}},
	})
}

func TestQueryRawAndSmart(t *testing.T) {
	app := multitest.NewApp()
	codeID := app.StoreCode(testcontracts.HackatomContract())
	addr, err := app.InstantiateContract("owner", codeID, mustJSON(t, testcontracts.HackatomInit{Beneficiary: "alice"}), nil, "hackatom", "")
	require.NoError(t, err)

	raw, err := app.QueryRaw(addr, []byte("beneficiary"))
	require.NoError(t, err)
	assert.Equal(t, []byte("alice"), raw)

	// missing key is empty, not an error
	raw, err = app.QueryRaw(addr, []byte("unknown"))
	require.NoError(t, err)
	assert.Empty(t, raw)

	dump := app.DumpWasmRaw(addr)
	require.Len(t, dump, 1)
	assert.Equal(t, []byte("beneficiary"), dump[0].Key)
	assert.Equal(t, []byte("alice"), dump[0].Value)
}

func TestMultiLevelWasmCache(t *testing.T) {
	// a failing nested execution must not leave partial contract state
	app := multitest.NewApp()
	echoID := app.StoreCode(testcontracts.EchoContract())
	hackatomID := app.StoreCode(testcontracts.HackatomContract())

	echoAddr, err := app.InstantiateContract("owner", echoID, []byte("{}"), nil, "echo", "")
	require.NoError(t, err)
	hackAddr, err := app.InstantiateContract("owner", hackatomID, mustJSON(t, testcontracts.HackatomInit{Beneficiary: "alice"}), nil, "hackatom", "admin")
	require.NoError(t, err)

	// migrate inside a sub-message, then fail the outer execution
	migrate := wasmvmtypes.CosmosMsg{Wasm: &wasmvmtypes.WasmMsg{Migrate: &wasmvmtypes.MigrateMsg{
		ContractAddr: hackAddr,
		NewCodeID:    99,
		Msg:          mustJSON(t, testcontracts.HackatomMigrate{NewGuy: "bob"}),
	}}}
	_, err = app.ExecuteContract("caller", echoAddr, mustJSON(t, testcontracts.EchoMsg{
		SubMsg: []wasmvmtypes.SubMsg{{ReplyOn: wasmvmtypes.ReplyNever, Msg: migrate}},
	}), nil)
	require.Error(t, err)

	// the beneficiary write from instantiation is still intact
	bz, err := app.QuerySmart(hackAddr, mustJSON(t, testcontracts.HackatomQuery{Beneficiary: &struct{}{}}))
	require.NoError(t, err)
	var res testcontracts.HackatomBeneficiaryResponse
	require.NoError(t, json.Unmarshal(bz, &res))
	assert.Equal(t, "alice", res.Beneficiary)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	bz, err := json.Marshal(v)
	require.NoError(t, err)
	return bz
}
