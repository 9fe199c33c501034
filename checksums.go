package multitest

import (
	"crypto/sha256"
	"fmt"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"
)

// ChecksumGenerator produces the checksum stored alongside a code. There is
// no wasm bytecode here, so the checksum is derived from the code id.
type ChecksumGenerator interface {
	Checksum(creator string, codeID uint64) wasmvmtypes.Checksum
}

// SimpleChecksumGenerator hashes a stable per-code phrase, so the checksum
// is deterministic across runs and unique per code id.
type SimpleChecksumGenerator struct{}

var _ ChecksumGenerator = SimpleChecksumGenerator{}

func (SimpleChecksumGenerator) Checksum(_ string, codeID uint64) wasmvmtypes.Checksum {
	hash := sha256.Sum256([]byte(fmt.Sprintf("contract code %d", codeID)))
	return hash[:]
}
