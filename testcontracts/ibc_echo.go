package testcontracts

import (
	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	multitest "github.com/CosmWasm/multitest"
)

// ibcEchoContract speaks IBC on top of the echo behavior: channels are
// accepted as proposed and every received packet is acknowledged with its
// own payload.
type ibcEchoContract struct {
	multitest.Contract
}

var _ multitest.IBCContract = ibcEchoContract{}

// IBCEchoContract returns an echo contract that also accepts IBC channels
// and acks packets with their payload.
func IBCEchoContract() multitest.IBCContract {
	return ibcEchoContract{Contract: EchoContract()}
}

func (c ibcEchoContract) IBCChannelOpen(_ multitest.DepsMut, _ wasmvmtypes.Env, _ wasmvmtypes.IBCChannelOpenMsg) (*wasmvmtypes.IBC3ChannelOpenResponse, error) {
	return nil, nil
}

func (c ibcEchoContract) IBCChannelConnect(deps multitest.DepsMut, _ wasmvmtypes.Env, msg wasmvmtypes.IBCChannelConnectMsg) (*wasmvmtypes.IBCBasicResponse, error) {
	deps.Storage.Set([]byte("ibc_connected"), []byte("true"))
	return &wasmvmtypes.IBCBasicResponse{}, nil
}

func (c ibcEchoContract) IBCChannelClose(deps multitest.DepsMut, _ wasmvmtypes.Env, _ wasmvmtypes.IBCChannelCloseMsg) (*wasmvmtypes.IBCBasicResponse, error) {
	deps.Storage.Remove([]byte("ibc_connected"))
	return &wasmvmtypes.IBCBasicResponse{}, nil
}

func (c ibcEchoContract) IBCPacketReceive(deps multitest.DepsMut, _ wasmvmtypes.Env, msg wasmvmtypes.IBCPacketReceiveMsg) (*wasmvmtypes.IBCReceiveResponse, error) {
	deps.Storage.Set([]byte("last_packet"), msg.Packet.Data)
	return &wasmvmtypes.IBCReceiveResponse{Acknowledgement: msg.Packet.Data}, nil
}

func (c ibcEchoContract) IBCPacketAck(deps multitest.DepsMut, _ wasmvmtypes.Env, msg wasmvmtypes.IBCPacketAckMsg) (*wasmvmtypes.IBCBasicResponse, error) {
	deps.Storage.Set([]byte("last_ack"), msg.Acknowledgement.Data)
	return &wasmvmtypes.IBCBasicResponse{}, nil
}

func (c ibcEchoContract) IBCPacketTimeout(_ multitest.DepsMut, _ wasmvmtypes.Env, _ wasmvmtypes.IBCPacketTimeoutMsg) (*wasmvmtypes.IBCBasicResponse, error) {
	return &wasmvmtypes.IBCBasicResponse{}, nil
}
