package fabricclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Path records which decoding of a payload succeeded
type Path int

const (
	// PathMalformed means neither decoding worked
	PathMalformed Path = iota
	// PathJSON means the payload was the JSON text itself
	PathJSON
	// PathByteCSV means the payload was the decimal byte values of the JSON
	// text joined by commas, e.g. "123,125" for "{}"
	PathByteCSV
)

func (p Path) String() string {
	switch p {
	case PathJSON:
		return "json"
	case PathByteCSV:
		return "byte-csv"
	default:
		return "malformed"
	}
}

// byteCSV matches a payload that can only be a list of byte values. A
// payload without a comma never matches and is read as JSON.
var byteCSV = regexp.MustCompile(`^\d{1,3}(,\d{1,3})+$`)

// Decoded is the outcome of decoding one contract response
type Decoded[T any] struct {
	Value T
	Path  Path
	// Raw holds the payload as received
	Raw []byte
	Err error
}

// Malformed reports whether both decodings failed
func (d Decoded[T]) Malformed() bool {
	return d.Path == PathMalformed
}

// Repaired reports whether the payload had to be rebuilt from byte values
func (d Decoded[T]) Repaired() bool {
	return d.Path == PathByteCSV
}

// Result returns the value, or an error matching ErrMalformedResponse
func (d Decoded[T]) Result() (T, error) {
	if d.Malformed() {
		var zero T
		return zero, d.Err
	}
	return d.Value, nil
}

// MalformedResponseError carries a payload that could not be decoded
type MalformedResponseError struct {
	Raw     []byte
	JSONErr error
	ByteErr error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%v: %d byte payload %q: json: %v; byte list: %v", ErrMalformedResponse, len(e.Raw), truncate(e.Raw, 64), e.JSONErr, e.ByteErr)
}

func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

func (e *MalformedResponseError) Unwrap() error {
	return e.JSONErr
}

// DecodeResponse parses a contract payload into T. Payloads that match the
// strict byte list pattern are rebuilt from their byte values first and
// parsed directly as a fallback; every other payload is tried the other way
// round.
func DecodeResponse[T any](raw []byte) Decoded[T] {
	return decode(raw, func(data []byte) (T, error) {
		var v T
		err := json.Unmarshal(data, &v)
		return v, err
	})
}

// DecodeText is DecodeResponse for functions that return a plain string
// rather than JSON, such as the previous owner from TransferAsset
func DecodeText(raw []byte) Decoded[string] {
	return decode(raw, func(data []byte) (string, error) {
		if !utf8.Valid(data) {
			return "", errors.New("payload is not valid UTF-8")
		}
		return string(data), nil
	})
}

func decode[T any](raw []byte, parse func([]byte) (T, error)) Decoded[T] {
	trimmed := bytes.TrimSpace(raw)
	direct := func() (T, error) {
		return parse(trimmed)
	}
	repaired := func() (T, error) {
		data, err := bytesFromCSV(trimmed)
		if err != nil {
			var zero T
			return zero, err
		}
		return parse(data)
	}

	first, second := direct, repaired
	firstPath, secondPath := PathJSON, PathByteCSV
	if isByteCSV(trimmed) {
		first, second = repaired, direct
		firstPath, secondPath = PathByteCSV, PathJSON
	}

	v, firstErr := first()
	if firstErr == nil {
		return Decoded[T]{Value: v, Path: firstPath, Raw: raw}
	}
	v, secondErr := second()
	if secondErr == nil {
		return Decoded[T]{Value: v, Path: secondPath, Raw: raw}
	}

	malformed := &MalformedResponseError{Raw: raw, JSONErr: firstErr, ByteErr: secondErr}
	if firstPath == PathByteCSV {
		malformed.JSONErr, malformed.ByteErr = secondErr, firstErr
	}
	return Decoded[T]{Raw: raw, Err: malformed}
}

func isByteCSV(data []byte) bool {
	if !byteCSV.Match(data) {
		return false
	}
	_, err := bytesFromCSV(data)
	return err == nil
}

// bytesFromCSV rebuilds the bytes of a comma separated list of decimal
// values. Spaces around values are tolerated here even though the strict
// pattern does not admit them.
func bytesFromCSV(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty byte list")
	}
	fields := strings.Split(string(data), ",")
	out := make([]byte, 0, len(fields))
	for i, field := range fields {
		n, err := strconv.ParseUint(strings.TrimSpace(field), 10, 8)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out = append(out, byte(n))
	}
	return out, nil
}

func truncate(data []byte, n int) []byte {
	if len(data) <= n {
		return data
	}
	return data[:n]
}

// ScanResult is the decoded form of a GetAll* response. Entries the ledger
// could not parse come back as strings and are kept in Raw.
type ScanResult[T any] struct {
	Records []T      `json:"records"`
	Raw     []string `json:"raw,omitempty"`
}

func decodeScan[T any](raw []byte) Decoded[ScanResult[T]] {
	entries := DecodeResponse[[]json.RawMessage](raw)
	if entries.Malformed() {
		return Decoded[ScanResult[T]]{Raw: raw, Err: entries.Err}
	}

	result := ScanResult[T]{Records: make([]T, 0, len(entries.Value))}
	for _, entry := range entries.Value {
		var text string
		if err := json.Unmarshal(entry, &text); err == nil {
			result.Raw = append(result.Raw, text)
			continue
		}
		var record T
		if err := json.Unmarshal(entry, &record); err != nil {
			result.Raw = append(result.Raw, string(entry))
			continue
		}
		result.Records = append(result.Records, record)
	}
	return Decoded[ScanResult[T]]{Value: result, Path: entries.Path, Raw: raw}
}
