package multitest

import (
	"bytes"

	errorsmod "cosmossdk.io/errors"

	"github.com/CosmWasm/multitest/types"
)

// Api converts between human readable and canonical address forms, the way
// the wasm VM exposes address handling to contracts.
type Api interface {
	AddrValidate(human string) (string, error)
	AddrCanonicalize(human string) ([]byte, error)
	AddrHumanize(canonical []byte) (string, error)
}

// SimpleApi treats any non-empty string as a valid address whose canonical
// form is its raw bytes. Good enough for tests that use readable addresses
// like "owner" or "contract0".
type SimpleApi struct{}

var _ Api = SimpleApi{}

func NewSimpleApi() SimpleApi { return SimpleApi{} }

func (a SimpleApi) AddrValidate(human string) (string, error) {
	canonical, err := a.AddrCanonicalize(human)
	if err != nil {
		return "", err
	}
	normalized, err := a.AddrHumanize(canonical)
	if err != nil {
		return "", err
	}
	if human != normalized {
		return "", errorsmod.Wrapf(types.ErrUnsupportedMsg, "invalid address: %s", human)
	}
	return normalized, nil
}

func (SimpleApi) AddrCanonicalize(human string) ([]byte, error) {
	if human == "" {
		return nil, errorsmod.Wrap(types.ErrUnsupportedMsg, "empty address")
	}
	return []byte(human), nil
}

func (SimpleApi) AddrHumanize(canonical []byte) (string, error) {
	if len(canonical) == 0 {
		return "", errorsmod.Wrap(types.ErrUnsupportedMsg, "empty canonical address")
	}
	return string(bytes.Clone(canonical)), nil
}
