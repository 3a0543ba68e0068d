package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 5, Coalesce(0, 5))
	assert.Equal(t, 3, Coalesce(3, 5))
	assert.Equal(t, "fallback", Coalesce("", "fallback"))
}

func TestSliceToBytes(t *testing.T) {
	assert.Nil(t, SliceToBytes[uint32](nil))

	out := SliceToBytes([]uint16{0x0102, 0x0304})
	require.Len(t, out, 4)
	assert.Equal(t, []byte{0x02, 0x01, 0x04, 0x03}, out)

	floats := SliceToBytes([]float32{1.0})
	require.Len(t, floats, 4)
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3F}, floats)
}

func TestDecodeDataURI(t *testing.T) {
	data, err := DecodeDataURI("data:application/octet-stream;base64,AAECAw==")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3}, data)
}

func TestDecodeDataURIRejectsMalformedInput(t *testing.T) {
	_, err := DecodeDataURI("data:application/octet-stream;base64")
	assert.Error(t, err)

	_, err = DecodeDataURI("data:text/plain,hello")
	assert.Error(t, err)

	_, err = DecodeDataURI("data:application/octet-stream;base64,!!!")
	assert.Error(t, err)
}
