// Package codec implements the RPC wire format (component C1): 4-byte
// big-endian length-prefixed frames carrying a schema-less binary payload.
// The payload codec is MessagePack via ugorji/go/codec configured for
// use_bin_type/raw=False semantics — byte strings and text strings decode
// to distinct Go types ([]byte vs string) instead of collapsing to one.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/ugorji/go/codec"
)

// maxFrameSize bounds a single frame's declared length so a corrupt or
// hostile length prefix can't make the server allocate unbounded memory.
const maxFrameSize = 64 << 20 // 64 MiB

// ErrFrameTooLarge is returned by ReadFrame when a declared length exceeds
// maxFrameSize.
var ErrFrameTooLarge = errors.New("codec: frame exceeds maximum size")

var mpHandle = &codec.MsgpackHandle{
	WriteExt:    true,
	RawToString: false, // keep msgpack "bin" and "str" distinct on decode
}

// Request is the tuple (service_uri, method_name, positional_args,
// keyword_args) spec §4.6 defines as the request payload.
type Request struct {
	ServiceURI string                 `codec:"service_uri"`
	Method     string                 `codec:"method"`
	Args       []interface{}          `codec:"args"`
	Kwargs     map[string]interface{} `codec:"kwargs"`
}

// Response is the method's return value, or an error descriptor when Error
// is non-empty. Exactly one of Result/Error is meaningful at a time.
type Response struct {
	Result interface{} `codec:"result,omitempty"`
	Error  string      `codec:"error,omitempty"`
}

// EncodeRequest serializes req to msgpack bytes (no frame header).
func EncodeRequest(req Request) ([]byte, error) {
	var buf []byte
	enc := codec.NewEncoderBytes(&buf, mpHandle)
	if err := enc.Encode(req); err != nil {
		return nil, fmt.Errorf("codec: encode request: %w", err)
	}
	return buf, nil
}

// DecodeRequest deserializes msgpack bytes (no frame header) into a
// Request.
func DecodeRequest(data []byte) (Request, error) {
	var req Request
	dec := codec.NewDecoderBytes(data, mpHandle)
	if err := dec.Decode(&req); err != nil {
		return Request{}, fmt.Errorf("codec: decode request: %w", err)
	}
	return req, nil
}

// EncodeResponse serializes resp to msgpack bytes (no frame header).
func EncodeResponse(resp Response) ([]byte, error) {
	var buf []byte
	enc := codec.NewEncoderBytes(&buf, mpHandle)
	if err := enc.Encode(resp); err != nil {
		return nil, fmt.Errorf("codec: encode response: %w", err)
	}
	return buf, nil
}

// DecodeResponse deserializes msgpack bytes (no frame header) into a
// Response.
func DecodeResponse(data []byte) (Response, error) {
	var resp Response
	dec := codec.NewDecoderBytes(data, mpHandle)
	if err := dec.Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("codec: decode response: %w", err)
	}
	return resp, nil
}

// WriteFrame writes a 4-byte big-endian length prefix followed by payload.
func WriteFrame(w io.Writer, payload []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame reads one length-prefixed frame from r. A clean EOF on the
// length prefix (zero bytes read) returns io.EOF so callers can tell a
// graceful disconnect apart from a mid-frame truncation, which instead
// surfaces io.ErrUnexpectedEOF from the body read.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		// io.ReadFull reports io.EOF only when no byte was read; a partial
		// header is io.ErrUnexpectedEOF and any other read error is passed on.
		return nil, err
	}

	length := binary.BigEndian.Uint32(header[:])
	if length > maxFrameSize {
		return nil, ErrFrameTooLarge
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
