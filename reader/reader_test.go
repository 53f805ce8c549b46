package reader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serialFrame(tag uint32) []byte {
	data := []byte{0x09, 0x00, byte(tag >> 24), byte(tag >> 16), byte(tag >> 8), byte(tag)}
	xor := data[0]
	for _, b := range data[1:] {
		xor ^= b
	}
	return append(append([]byte{0x02}, data...), xor, 0x03)
}

func TestDecodeSerialFrame(t *testing.T) {
	tag, err := decodeSerialFrame(serialFrame(0x00A1B2C3))
	require.NoError(t, err)
	assert.Equal(t, uint64(0x00A1B2C3), tag)

	bad := serialFrame(1234)
	bad[7] ^= 0xff
	_, err = decodeSerialFrame(bad)
	assert.ErrorIs(t, err, ErrBadFrame)

	bad = serialFrame(1234)
	bad[8] = 0x04
	_, err = decodeSerialFrame(bad)
	assert.ErrorIs(t, err, ErrBadFrame)

	_, err = decodeSerialFrame([]byte{0x02, 0x09})
	assert.ErrorIs(t, err, ErrBadFrame)
}

func TestDecodeWiegandID(t *testing.T) {
	tests := []struct {
		body string
		want uint64
	}{
		{"00120A1B2C", 0x0A1B2C},
		{"A1B2C", 0x0A1B2C},
		{"ff00ffffff", 0xffffff},
	}
	for _, tt := range tests {
		got, err := decodeWiegandID(tt.body)
		require.NoError(t, err, tt.body)
		assert.Equal(t, tt.want, got, tt.body)
	}

	for _, bad := range []string{"", "0123456789A", "00120A1BZZ", "X0120A1B2C"} {
		_, err := decodeWiegandID(bad)
		assert.ErrorIs(t, err, ErrBadFrame, bad)
	}
}

func TestKeyboardFormat(t *testing.T) {
	f, err := parseKeyboardFormat("")
	require.NoError(t, err)
	assert.Equal(t, 10, f.numDigits)
	assert.True(t, f.isHex)

	tag, err := f.decode("00DEADBEEF")
	require.NoError(t, err)
	assert.Equal(t, uint64(0xDEADBEEF), tag)

	_, err = f.decode("DEADBEEF")
	assert.ErrorIs(t, err, ErrBadFrame)

	f, err = parseKeyboardFormat("8D")
	require.NoError(t, err)
	assert.False(t, f.isHex)
	tag, err = f.decode("00001234")
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), tag)

	// Masked to 32 bits.
	f, err = parseKeyboardFormat("0d")
	require.NoError(t, err)
	tag, err = f.decode("4294967297")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tag)

	_, err = parseKeyboardFormat("tenh")
	assert.Error(t, err)
}

func TestNewWithoutDevice(t *testing.T) {
	r, err := New(Config{})
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.Equal(t, "3735928559", CustomerID(0xDEADBEEF))
}
