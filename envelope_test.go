package multitest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstantiateEnvelopeRoundTrip(t *testing.T) {
	specs := map[string]struct {
		address string
		data    []byte
	}{
		"address only":      {address: "contract0"},
		"address with data": {address: "contract0", data: []byte("init result")},
		"binary data":       {address: "aabbcc", data: []byte{0x00, 0x01, 0xFF}},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			bz := encodeInstantiateResponse(spec.address, spec.data)
			got, err := ParseInstantiateResponse(bz)
			require.NoError(t, err)
			assert.Equal(t, spec.address, got.Address)
			assert.Equal(t, spec.data, got.Data)
		})
	}
}

func TestInstantiateEnvelopeRejectsGarbage(t *testing.T) {
	_, err := ParseInstantiateResponse([]byte("not proto"))
	assert.Error(t, err)

	// valid proto carrying only the data field, no address
	dataOnly := []byte{0x12, 0x04, 'd', 'a', 't', 'a'}
	_, err = ParseInstantiateResponse(dataOnly)
	assert.Error(t, err)
}

func TestExecuteEnvelopeRoundTrip(t *testing.T) {
	specs := map[string]struct {
		data []byte
	}{
		"empty":  {data: nil},
		"data":   {data: []byte("result")},
		"binary": {data: []byte{0xDE, 0xAD}},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			bz := encodeExecuteResponse(spec.data)
			got, err := ParseExecuteResponse(bz)
			require.NoError(t, err)
			assert.Equal(t, spec.data, got.Data)
		})
	}
}
