package wallet

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// ErrInvalidAddress is returned for addresses that fail to decode or whose
// checksum does not match.
var ErrInvalidAddress = errors.New("invalid address")

func Base58Encode(input []byte) []byte {
	return []byte(base58.Encode(input))
}

func Base58Decode(input []byte) ([]byte, error) {
	decode, err := base58.Decode(string(input))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return decode, nil
}

// EncodeAddress renders a public key hash as version || hash || checksum in
// base58.
func EncodeAddress(pubKeyHash []byte) string {
	versionedHash := append([]byte{version}, pubKeyHash...)
	fullHash := append(versionedHash, Checksum(versionedHash)...)

	return string(Base58Encode(fullHash))
}

// DecodeAddress returns the public key hash an address commits to.
func DecodeAddress(address string) ([]byte, error) {
	fullHash, err := Base58Decode([]byte(address))
	if err != nil {
		return nil, err
	}
	if len(fullHash) != 1+PubKeyHashLength+ChecksumLength {
		return nil, fmt.Errorf("%w: bad length %d", ErrInvalidAddress, len(fullHash))
	}

	actualChecksum := fullHash[len(fullHash)-ChecksumLength:]
	versionedHash := fullHash[:len(fullHash)-ChecksumLength]
	if versionedHash[0] != version {
		return nil, fmt.Errorf("%w: unknown version %#x", ErrInvalidAddress, versionedHash[0])
	}
	if !bytes.Equal(actualChecksum, Checksum(versionedHash)) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidAddress)
	}

	return versionedHash[1:], nil
}

func ValidateAddress(address string) bool {
	_, err := DecodeAddress(address)
	return err == nil
}
