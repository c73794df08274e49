package wallet

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/ripemd160"
)

const (
	// ChecksumLength is the number of checksum bytes at the end of an
	// encoded address.
	ChecksumLength = 4

	// PubKeyHashLength is the size of the hash160 public key commitment
	// stored in transaction outputs.
	PubKeyHashLength = ripemd160.Size

	//hexadecimal representation of 0
	version = byte(0x00)
)

// ErrBadWitness is returned when signature bytes cannot be split into a
// public key and a DER signature.
var ErrBadWitness = errors.New("malformed signature witness")

type Wallet struct {
	PrivateKey *secp256k1.PrivateKey

	// PublicKey is the compressed serialization of the public key.
	PublicKey []byte
}

func NewKeyPair() (*secp256k1.PrivateKey, []byte, error) {
	private, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, nil, fmt.Errorf("generate key: %w", err)
	}

	return private, private.PubKey().SerializeCompressed(), nil
}

func MakeWallet() (*Wallet, error) {
	private, public, err := NewKeyPair()
	if err != nil {
		return nil, err
	}
	return &Wallet{PrivateKey: private, PublicKey: public}, nil
}

// FromPrivateKey rebuilds a wallet from a serialized private key.
func FromPrivateKey(serialized []byte) *Wallet {
	private := secp256k1.PrivKeyFromBytes(serialized)
	return &Wallet{
		PrivateKey: private,
		PublicKey:  private.PubKey().SerializeCompressed(),
	}
}

// PubKeyHash returns the commitment outputs locked to this wallet carry.
func (w *Wallet) PubKeyHash() []byte {
	return PublicKeyHash(w.PublicKey)
}

// Address returns the base58check form of the wallet's public key hash.
func (w *Wallet) Address() string {
	return EncodeAddress(w.PubKeyHash())
}

// Sign signs message and returns a witness carrying the compressed public
// key followed by the DER encoded signature, so that it can later be checked
// against the public key hash alone.
func (w *Wallet) Sign(message []byte) ([]byte, error) {
	if w.PrivateKey == nil {
		return nil, errors.New("wallet has no private key")
	}
	sig := ecdsa.Sign(w.PrivateKey, chainhash.DoubleHashB(message))

	witness := make([]byte, 0, len(w.PublicKey)+72)
	witness = append(witness, w.PublicKey...)
	witness = append(witness, sig.Serialize()...)
	return witness, nil
}

// P2PKHVerifier checks witnesses produced by Wallet.Sign against a hash160
// public key commitment.
type P2PKHVerifier struct{}

// Verify reports whether signature is a valid witness over message for the
// given public key hash.
func (P2PKHVerifier) Verify(pubKeyHash, message, signature []byte) bool {
	pubKey, sig, err := splitWitness(signature)
	if err != nil {
		return false
	}
	if !bytes.Equal(PublicKeyHash(pubKey.SerializeCompressed()), pubKeyHash) {
		return false
	}
	return sig.Verify(chainhash.DoubleHashB(message), pubKey)
}

func splitWitness(witness []byte) (*secp256k1.PublicKey, *ecdsa.Signature, error) {
	if len(witness) <= secp256k1.PubKeyBytesLenCompressed {
		return nil, nil, ErrBadWitness
	}
	pubKey, err := secp256k1.ParsePubKey(witness[:secp256k1.PubKeyBytesLenCompressed])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrBadWitness, err)
	}
	sig, err := ecdsa.ParseDERSignature(witness[secp256k1.PubKeyBytesLenCompressed:])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrBadWitness, err)
	}
	return pubKey, sig, nil
}

// PublicKeyHash is ripemd160(sha256(pubKey)).
func PublicKeyHash(pubKey []byte) []byte {
	pubHash := sha256.Sum256(pubKey)

	hasher := ripemd160.New()
	// hash.Hash never returns an error on Write.
	_, _ = hasher.Write(pubHash[:])

	return hasher.Sum(nil)
}

// Checksum returns the first ChecksumLength bytes of sha256(sha256(payload)).
func Checksum(payload []byte) []byte {
	firstHash := sha256.Sum256(payload)
	secondHash := sha256.Sum256(firstHash[:])

	return secondHash[:ChecksumLength]
}
