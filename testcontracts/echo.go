// Package testcontracts provides small native contracts used to exercise
// the simulator: echoing responses, paying out funds, forwarding messages,
// failing on purpose.
package testcontracts

import (
	"encoding/json"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	multitest "github.com/CosmWasm/multitest"
)

// EchoMsg instructs the echo contract what to put into its response. All
// fields are optional.
type EchoMsg struct {
	Data       string                       `json:"data,omitempty"`
	SubMsg     []wasmvmtypes.SubMsg         `json:"sub_msg,omitempty"`
	Attributes []wasmvmtypes.EventAttribute `json:"attributes,omitempty"`
	Events     []wasmvmtypes.Event          `json:"events,omitempty"`
}

func (m EchoMsg) response() *wasmvmtypes.Response {
	res := &wasmvmtypes.Response{
		Messages:   m.SubMsg,
		Attributes: m.Attributes,
		Events:     m.Events,
	}
	if m.Data != "" {
		res.Data = []byte(m.Data)
	}
	return res
}

// EchoContract builds whatever response the caller asks for. Its reply
// handler forwards the data a sub-message produced, so reply chains keep
// data flowing upwards.
func EchoContract() multitest.Contract {
	execute := func(_ multitest.DepsMut, _ wasmvmtypes.Env, _ wasmvmtypes.MessageInfo, msg []byte) (*wasmvmtypes.Response, error) {
		var m EchoMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return nil, err
		}
		return m.response(), nil
	}
	instantiate := func(_ multitest.DepsMut, _ wasmvmtypes.Env, _ wasmvmtypes.MessageInfo, msg []byte) (*wasmvmtypes.Response, error) {
		var m EchoMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return nil, err
		}
		return m.response(), nil
	}
	query := func(_ multitest.Deps, _ wasmvmtypes.Env, msg []byte) ([]byte, error) {
		// echo the query payload straight back
		return msg, nil
	}
	reply := func(_ multitest.DepsMut, _ wasmvmtypes.Env, reply wasmvmtypes.Reply) (*wasmvmtypes.Response, error) {
		if reply.Result.Ok == nil || reply.Result.Ok.Data == nil {
			return &wasmvmtypes.Response{}, nil
		}
		data := reply.Result.Ok.Data
		// sub-message data from wasm messages arrives envelope-wrapped
		if parsed, err := multitest.ParseExecuteResponse(data); err == nil && parsed.Data != nil {
			data = parsed.Data
		}
		return &wasmvmtypes.Response{Data: data}, nil
	}
	return multitest.NewContract(execute, instantiate, query).WithReply(reply)
}
