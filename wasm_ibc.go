package multitest

import (
	errorsmod "cosmossdk.io/errors"
	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/multitest/storage"
	"github.com/CosmWasm/multitest/types"
)

// IBC entry points of the wasm keeper. There is no channel handshake logic
// here; tests drive the contract-facing callbacks directly and decide what
// a counterparty chain would have sent.

func (k *WasmKeeper) ibcContract(stor storage.ReadonlyStorage, address string) (IBCContract, error) {
	contract, _, err := k.loadContract(stor, address)
	if err != nil {
		return nil, err
	}
	ibc, ok := contract.(IBCContract)
	if !ok {
		return nil, errorsmod.Wrapf(types.ErrUnsupportedMsg, "contract %s does not support IBC", address)
	}
	return ibc, nil
}

// IBCChannelOpen asks the contract to accept or version-negotiate a new
// channel. No state-changing response processing happens here.
func (k *WasmKeeper) IBCChannelOpen(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, address string, msg wasmvmtypes.IBCChannelOpenMsg) (*wasmvmtypes.IBC3ChannelOpenResponse, error) {
	contract, err := k.ibcContract(stor, address)
	if err != nil {
		return nil, err
	}
	return contract.IBCChannelOpen(k.depsMut(api, stor, router, block, address), newEnv(block, address), msg)
}

// IBCChannelConnect confirms an opened channel towards the contract.
func (k *WasmKeeper) IBCChannelConnect(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, address string, msg wasmvmtypes.IBCChannelConnectMsg) (types.AppResponse, error) {
	contract, err := k.ibcContract(stor, address)
	if err != nil {
		return types.AppResponse{}, err
	}
	res, err := contract.IBCChannelConnect(k.depsMut(api, stor, router, block, address), newEnv(block, address), msg)
	if err != nil {
		return types.AppResponse{}, err
	}
	return k.finalizeBasicResponse(api, stor, router, block, address, "ibc_channel_connect", res)
}

// IBCChannelClose notifies the contract of channel closure.
func (k *WasmKeeper) IBCChannelClose(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, address string, msg wasmvmtypes.IBCChannelCloseMsg) (types.AppResponse, error) {
	contract, err := k.ibcContract(stor, address)
	if err != nil {
		return types.AppResponse{}, err
	}
	res, err := contract.IBCChannelClose(k.depsMut(api, stor, router, block, address), newEnv(block, address), msg)
	if err != nil {
		return types.AppResponse{}, err
	}
	return k.finalizeBasicResponse(api, stor, router, block, address, "ibc_channel_close", res)
}

// IBCPacketReceive delivers an inbound packet. The returned Data is the
// acknowledgement: data produced by sub-messages or replies overrides the
// contract's own acknowledgement.
func (k *WasmKeeper) IBCPacketReceive(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, address string, msg wasmvmtypes.IBCPacketReceiveMsg) (types.AppResponse, error) {
	contract, err := k.ibcContract(stor, address)
	if err != nil {
		return types.AppResponse{}, err
	}
	res, err := contract.IBCPacketReceive(k.depsMut(api, stor, router, block, address), newEnv(block, address), msg)
	if err != nil {
		return types.AppResponse{}, err
	}
	if res == nil {
		res = &wasmvmtypes.IBCReceiveResponse{}
	}
	customEvent := wasmvmtypes.Event{
		Type:       "ibc_packet_receive",
		Attributes: []wasmvmtypes.EventAttribute{{Key: ContractAddrAttr, Value: address}},
	}
	built, err := buildAppResponse(address, customEvent, &wasmvmtypes.Response{
		Attributes: res.Attributes,
		Events:     res.Events,
		Data:       res.Acknowledgement,
	})
	if err != nil {
		return types.AppResponse{}, err
	}
	return k.processResponse(api, stor, router, block, address, built, res.Messages)
}

// IBCPacketAck delivers the acknowledgement for a packet the contract sent.
func (k *WasmKeeper) IBCPacketAck(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, address string, msg wasmvmtypes.IBCPacketAckMsg) (types.AppResponse, error) {
	contract, err := k.ibcContract(stor, address)
	if err != nil {
		return types.AppResponse{}, err
	}
	res, err := contract.IBCPacketAck(k.depsMut(api, stor, router, block, address), newEnv(block, address), msg)
	if err != nil {
		return types.AppResponse{}, err
	}
	return k.finalizeBasicResponse(api, stor, router, block, address, "ibc_packet_ack", res)
}

// IBCPacketTimeout notifies the contract that a packet it sent timed out.
func (k *WasmKeeper) IBCPacketTimeout(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, address string, msg wasmvmtypes.IBCPacketTimeoutMsg) (types.AppResponse, error) {
	contract, err := k.ibcContract(stor, address)
	if err != nil {
		return types.AppResponse{}, err
	}
	res, err := contract.IBCPacketTimeout(k.depsMut(api, stor, router, block, address), newEnv(block, address), msg)
	if err != nil {
		return types.AppResponse{}, err
	}
	return k.finalizeBasicResponse(api, stor, router, block, address, "ibc_packet_timeout", res)
}

func (k *WasmKeeper) finalizeBasicResponse(api Api, stor storage.Storage, router CosmosRouter, block wasmvmtypes.BlockInfo, address, eventType string, res *wasmvmtypes.IBCBasicResponse) (types.AppResponse, error) {
	if res == nil {
		res = &wasmvmtypes.IBCBasicResponse{}
	}
	customEvent := wasmvmtypes.Event{
		Type:       eventType,
		Attributes: []wasmvmtypes.EventAttribute{{Key: ContractAddrAttr, Value: address}},
	}
	built, err := buildAppResponse(address, customEvent, &wasmvmtypes.Response{
		Attributes: res.Attributes,
		Events:     res.Events,
	})
	if err != nil {
		return types.AppResponse{}, err
	}
	return k.processResponse(api, stor, router, block, address, built, res.Messages)
}
