package multitest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/multitest/storage"
	"github.com/CosmWasm/multitest/types"
)

// AddressGenerator derives addresses for newly instantiated contracts.
// ContractAddress is used for plain instantiation and may derive from the
// instance sequence; PredictableContractAddress must depend only on the
// checksum, creator and salt so callers can compute the address up front.
type AddressGenerator interface {
	ContractAddress(api Api, stor storage.Storage, codeID, instanceID uint64) (string, error)
	PredictableContractAddress(api Api, stor storage.Storage, codeID, instanceID uint64, checksum wasmvmtypes.Checksum, creator string, salt []byte) (string, error)
}

// SimpleAddressGenerator issues readable sequential addresses (contract0,
// contract1, ...) and hash-derived predictable ones.
type SimpleAddressGenerator struct{}

var _ AddressGenerator = SimpleAddressGenerator{}

func (SimpleAddressGenerator) ContractAddress(_ Api, _ storage.Storage, _, instanceID uint64) (string, error) {
	return fmt.Sprintf("contract%d", instanceID), nil
}

func (SimpleAddressGenerator) PredictableContractAddress(api Api, _ storage.Storage, _, _ uint64, checksum wasmvmtypes.Checksum, creator string, salt []byte) (string, error) {
	if len(salt) == 0 {
		return "", errorsmod.Wrap(types.ErrUnsupportedMsg, "salt is required for predictable addresses")
	}
	canonical, err := api.AddrCanonicalize(creator)
	if err != nil {
		return "", err
	}
	return BuildContractAddressPredictable(checksum, canonical, salt), nil
}

// BuildContractAddressPredictable derives a contract address from code
// checksum, canonical creator and salt. Each input is length-prefixed before
// hashing so no two input combinations collide.
func BuildContractAddressPredictable(checksum wasmvmtypes.Checksum, creator, salt []byte) string {
	h := sha256.New()
	h.Write([]byte("wasm\x00"))
	writeLengthPrefixed(h, checksum)
	writeLengthPrefixed(h, creator)
	writeLengthPrefixed(h, salt)
	return hex.EncodeToString(h.Sum(nil))
}

func writeLengthPrefixed(h interface{ Write([]byte) (int, error) }, data []byte) {
	if len(data) > 255 {
		panic("address material longer than 255 bytes")
	}
	h.Write([]byte{byte(len(data))})
	h.Write(data)
}
