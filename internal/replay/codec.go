// Package replay encodes a finished match into a compact URL-safe share code
// and decodes it back. The code is a path segment: minimized JSON, deflated
// when that wins, base64url without padding. A one-byte format marker in
// front of the payload says whether the bytes are compressed, so the decoder
// never has to guess; codes from older clients that lack the marker are still
// accepted through a fallback path.
package replay

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/lexiduel/client/internal/match"
)

// Format markers. Exactly one of these is the first byte of every code this
// package produces.
const (
	formatRaw     = 0x00
	formatDeflate = 0x01
)

// DecodeError wraps a failure to turn a share code back into a record. It is
// terminal for the navigation that carried the code; no partial record is
// ever returned alongside it.
type DecodeError struct {
	Stage string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode replay code: %s: %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Encode minimizes the record, serializes it, deflates the bytes and emits a
// marker-prefixed base64url code. If compression does not shrink the payload
// it is stored raw; both forms decode identically.
func Encode(rec *match.MatchRecord) (string, error) {
	min := Minimize(rec)
	raw, err := json.Marshal(min)
	if err != nil {
		return "", fmt.Errorf("marshal replay record: %w", err)
	}

	payload := deflate(raw)
	var buf bytes.Buffer
	buf.Grow(len(payload) + 1)
	if payload != nil && len(payload) < len(raw) {
		buf.WriteByte(formatDeflate)
		buf.Write(payload)
	} else {
		buf.WriteByte(formatRaw)
		buf.Write(raw)
	}
	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// deflate compresses raw, returning nil if the compressor fails for any
// reason. Encoding then falls back to the raw format rather than erroring.
func deflate(raw []byte) []byte {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return nil
	}
	if _, err := w.Write(raw); err != nil {
		return nil
	}
	if err := w.Close(); err != nil {
		return nil
	}
	return buf.Bytes()
}

// Decode reverses Encode. The marker byte selects the payload format, but the
// marker itself is not trusted blindly: codes from clients that never wrote
// one, or whose marker got mangled in transit, are recovered by trying the
// remaining interpretations in order until one parses. Only when every
// interpretation fails is the code rejected, and then with no partial record.
func Decode(code string) (*Record, error) {
	data, err := base64.RawURLEncoding.DecodeString(padless(code))
	if err != nil {
		return nil, &DecodeError{Stage: "base64", Err: err}
	}
	if len(data) == 0 {
		return nil, &DecodeError{Stage: "payload", Err: fmt.Errorf("empty code")}
	}

	for _, raw := range candidatePayloads(data) {
		var rec Record
		if err := json.Unmarshal(raw, &rec); err == nil {
			return &rec, nil
		}
	}
	return nil, &DecodeError{Stage: "payload", Err: fmt.Errorf("no readable format")}
}

// candidatePayloads lists plausible JSON payloads for the decoded bytes, most
// likely first: the marker's own claim, then the marker-less legacy forms,
// then the marker-skipped forms that recover a corrupted first byte.
func candidatePayloads(data []byte) [][]byte {
	var out [][]byte
	body := data[1:]
	switch data[0] {
	case formatRaw:
		out = append(out, body)
	case formatDeflate:
		if raw, err := inflate(body); err == nil {
			out = append(out, raw)
		}
	}
	if raw, err := inflate(data); err == nil {
		out = append(out, raw)
	}
	out = append(out, data)
	if raw, err := inflate(body); err == nil {
		out = append(out, raw)
	}
	return append(out, body)
}

func inflate(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// padless strips any '=' padding a foreign encoder may have left in.
func padless(code string) string {
	for len(code) > 0 && code[len(code)-1] == '=' {
		code = code[:len(code)-1]
	}
	return code
}
