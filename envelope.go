package multitest

import (
	errorsmod "cosmossdk.io/errors"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/CosmWasm/multitest/types"
)

// Instantiate and execute results travel in the same protobuf envelopes the
// real chain's msg server responses use, so contracts inspecting reply data
// see familiar bytes.
//
// Instantiate envelope: field 1 the contract address, field 2 the contract
// data. Execute envelope: field 1 the contract data.

const (
	instantiateAddressField = 1
	instantiateDataField    = 2
	executeDataField        = 1
)

// InstantiateResponse is the decoded instantiate envelope.
type InstantiateResponse struct {
	Address string
	Data    []byte
}

// ExecuteResponse is the decoded execute envelope.
type ExecuteResponse struct {
	Data []byte
}

func encodeInstantiateResponse(address string, data []byte) []byte {
	var out []byte
	out = protowire.AppendTag(out, instantiateAddressField, protowire.BytesType)
	out = protowire.AppendString(out, address)
	if len(data) > 0 {
		out = protowire.AppendTag(out, instantiateDataField, protowire.BytesType)
		out = protowire.AppendBytes(out, data)
	}
	return out
}

func encodeExecuteResponse(data []byte) []byte {
	var out []byte
	if len(data) > 0 {
		out = protowire.AppendTag(out, executeDataField, protowire.BytesType)
		out = protowire.AppendBytes(out, data)
	}
	return out
}

// ParseInstantiateResponse decodes the envelope returned by contract
// instantiation.
func ParseInstantiateResponse(bz []byte) (InstantiateResponse, error) {
	var res InstantiateResponse
	for len(bz) > 0 {
		num, typ, n := protowire.ConsumeTag(bz)
		if n < 0 {
			return InstantiateResponse{}, errorsmod.Wrap(types.ErrUnsupportedMsg, "malformed instantiate envelope")
		}
		bz = bz[n:]
		if typ != protowire.BytesType {
			return InstantiateResponse{}, errorsmod.Wrapf(types.ErrUnsupportedMsg, "unexpected wire type %d in instantiate envelope", typ)
		}
		val, n := protowire.ConsumeBytes(bz)
		if n < 0 {
			return InstantiateResponse{}, errorsmod.Wrap(types.ErrUnsupportedMsg, "malformed instantiate envelope")
		}
		bz = bz[n:]
		switch num {
		case instantiateAddressField:
			res.Address = string(val)
		case instantiateDataField:
			res.Data = val
		}
	}
	if res.Address == "" {
		return InstantiateResponse{}, errorsmod.Wrap(types.ErrUnsupportedMsg, "instantiate envelope without address")
	}
	return res, nil
}

// ParseExecuteResponse decodes the envelope returned by contract execution.
func ParseExecuteResponse(bz []byte) (ExecuteResponse, error) {
	var res ExecuteResponse
	for len(bz) > 0 {
		num, typ, n := protowire.ConsumeTag(bz)
		if n < 0 {
			return ExecuteResponse{}, errorsmod.Wrap(types.ErrUnsupportedMsg, "malformed execute envelope")
		}
		bz = bz[n:]
		if typ != protowire.BytesType {
			return ExecuteResponse{}, errorsmod.Wrapf(types.ErrUnsupportedMsg, "unexpected wire type %d in execute envelope", typ)
		}
		val, n := protowire.ConsumeBytes(bz)
		if n < 0 {
			return ExecuteResponse{}, errorsmod.Wrap(types.ErrUnsupportedMsg, "malformed execute envelope")
		}
		bz = bz[n:]
		if num == executeDataField {
			res.Data = val
		}
	}
	return res, nil
}
