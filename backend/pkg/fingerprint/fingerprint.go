// Package fingerprint derives the hash committed on the ledger for a
// credential document: the CIDv1 (raw codec, sha2-256) of its canonical JSON.
package fingerprint

import (
	"errors"
	"fmt"

	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/canonical"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

var ErrInvalidHash = errors.New("invalid fingerprint")

// Sum returns the fingerprint of payload and the canonical bytes it covers.
// Documents equal up to key order share a fingerprint.
func Sum(payload any) (string, []byte, error) {
	data, err := canonical.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to canonicalize payload: %w", err)
	}
	c, err := SumBytes(data)
	if err != nil {
		return "", nil, err
	}
	return c.String(), data, nil
}

// SumBytes fingerprints bytes that are already canonical
func SumBytes(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// Verify reports whether hash is the fingerprint of payload. A hash that is
// not a raw sha2-256 CID is an error rather than a mismatch.
func Verify(payload any, hash string) (bool, error) {
	want, err := Parse(hash)
	if err != nil {
		return false, err
	}
	got, _, err := Sum(payload)
	if err != nil {
		return false, err
	}
	return got == want.String(), nil
}

// Parse decodes hash and checks it uses the raw codec and sha2-256
func Parse(hash string) (cid.Cid, error) {
	c, err := cid.Decode(hash)
	if err != nil {
		return cid.Undef, fmt.Errorf("%w: %w", ErrInvalidHash, err)
	}
	if c.Version() != 1 || c.Type() != cid.Raw {
		return cid.Undef, fmt.Errorf("%w: %s is not a raw CIDv1", ErrInvalidHash, hash)
	}
	decoded, err := multihash.Decode(c.Hash())
	if err != nil {
		return cid.Undef, fmt.Errorf("%w: %w", ErrInvalidHash, err)
	}
	if decoded.Code != multihash.SHA2_256 {
		return cid.Undef, fmt.Errorf("%w: %s is not sha2-256", ErrInvalidHash, hash)
	}
	return c, nil
}
