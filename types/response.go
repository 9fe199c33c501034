package types

import (
	"fmt"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"
)

// AppResponse is the processed outcome of one top-level message: the full
// event stream of the message and all sub-messages it spawned, and the final
// data after reply folding.
type AppResponse struct {
	Events []wasmvmtypes.Event
	Data   []byte
}

// CustomAttrs returns the contract-emitted attributes of the event at idx,
// skipping the injected contract address. Panics if the event is not a
// "wasm" event, as a convenience for tests.
func (r AppResponse) CustomAttrs(idx int) []wasmvmtypes.EventAttribute {
	if ty := r.Events[idx].Type; ty != "wasm" {
		panic(fmt.Sprintf("expected wasm event at index %d, got %q", idx, ty))
	}
	return r.Events[idx].Attributes[1:]
}

// HasEvent reports whether some emitted event has the expected type and
// contains all expected attributes, ignoring extra attributes.
func (r AppResponse) HasEvent(expected wasmvmtypes.Event) bool {
	for _, ev := range r.Events {
		if ev.Type != expected.Type {
			continue
		}
		if containsAllAttributes(ev.Attributes, expected.Attributes) {
			return true
		}
	}
	return false
}

// AssertEvent panics with a readable message when HasEvent fails.
func (r AppResponse) AssertEvent(expected wasmvmtypes.Event) {
	if !r.HasEvent(expected) {
		panic(fmt.Sprintf("expected event of type %q with attributes %v not found in %v", expected.Type, expected.Attributes, r.Events))
	}
}

func containsAllAttributes(have, want []wasmvmtypes.EventAttribute) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h.Key == w.Key && h.Value == w.Value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
