package multitest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CosmWasm/multitest/storage"
)

func TestSimpleAddressGeneratorSequential(t *testing.T) {
	gen := SimpleAddressGenerator{}
	stor := storage.NewMemoryStorage()

	addr, err := gen.ContractAddress(NewSimpleApi(), stor, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, "contract0", addr)

	addr, err = gen.ContractAddress(NewSimpleApi(), stor, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, "contract1", addr)
}

func TestPredictableAddressDerivation(t *testing.T) {
	checksum := SimpleChecksumGenerator{}.Checksum("creator", 1)

	first := BuildContractAddressPredictable(checksum, []byte("creator"), []byte("salt"))
	again := BuildContractAddressPredictable(checksum, []byte("creator"), []byte("salt"))
	assert.Equal(t, first, again)
	// 32 byte hash, hex encoded
	assert.Len(t, first, 64)

	specs := map[string]struct {
		checksum []byte
		creator  []byte
		salt     []byte
	}{
		"different salt":     {checksum: checksum, creator: []byte("creator"), salt: []byte("other")},
		"different creator":  {checksum: checksum, creator: []byte("someone"), salt: []byte("salt")},
		"different checksum": {checksum: SimpleChecksumGenerator{}.Checksum("creator", 2), creator: []byte("creator"), salt: []byte("salt")},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			got := BuildContractAddressPredictable(spec.checksum, spec.creator, spec.salt)
			assert.NotEqual(t, first, got)
		})
	}
}

func TestPredictableAddressRequiresSalt(t *testing.T) {
	gen := SimpleAddressGenerator{}
	_, err := gen.PredictableContractAddress(NewSimpleApi(), storage.NewMemoryStorage(), 1, 0, SimpleChecksumGenerator{}.Checksum("creator", 1), "creator", nil)
	assert.Error(t, err)
}
