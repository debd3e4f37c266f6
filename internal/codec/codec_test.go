package codec

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("hello")))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)
}

func TestReadFrameCleanEOF(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader(nil))
	require.ErrorIs(t, err, io.EOF)
}

func TestReadFrameTruncatedMidBody(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("hello world")))

	truncated := buf.Bytes()[:6] // header + 2 of the 11 body bytes
	_, err := ReadFrame(bytes.NewReader(truncated))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadFrameRejectsDeclaredLengthTooLarge(t *testing.T) {
	header := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	_, err := ReadFrame(bytes.NewReader(header))
	require.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestRequestRoundTripDistinguishesBytesAndStrings(t *testing.T) {
	req := Request{
		ServiceURI: "key_value_store",
		Method:     "add_key",
		Args:       []interface{}{"store", "key", []byte{1, 2, 3}},
		Kwargs:     map[string]interface{}{"readonly": true},
	}

	data, err := EncodeRequest(req)
	require.NoError(t, err)

	got, err := DecodeRequest(data)
	require.NoError(t, err)
	require.Equal(t, "key_value_store", got.ServiceURI)
	require.Equal(t, "add_key", got.Method)
	require.Equal(t, "store", got.Args[0])
	require.Equal(t, []byte{1, 2, 3}, got.Args[2])
	require.Equal(t, true, got.Kwargs["readonly"])
}

func TestResponseRoundTrip(t *testing.T) {
	resp := Response{Result: "v"}
	data, err := EncodeResponse(resp)
	require.NoError(t, err)

	got, err := DecodeResponse(data)
	require.NoError(t, err)
	require.Equal(t, "v", got.Result)
	require.Empty(t, got.Error)
}
