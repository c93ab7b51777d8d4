package cryptox

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/dmitrijs2005/sealdrop/internal/common"
	"golang.org/x/crypto/chacha20poly1305"
)

// EscrowSealer seals escrowed file keys at rest under a server master secret.
// Each sealed key is bound to its file and owner through the AEAD associated
// data, so a row copied onto another file does not open.
type EscrowSealer struct {
	masterKey [32]byte
}

// NewEscrowSealer derives the sealing key from the configured master secret.
func NewEscrowSealer(masterSecret string) *EscrowSealer {
	return &EscrowSealer{masterKey: sha256.Sum256([]byte(masterSecret))}
}

func escrowAAD(fileID, ownerID string) []byte {
	return []byte(fileID + "|" + ownerID)
}

// SealEscrowKey returns nonce||ciphertext for keyHex.
func (s *EscrowSealer) SealEscrowKey(keyHex, fileID, ownerID string) ([]byte, error) {
	if err := ValidateKeyHex(keyHex); err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.NewX(s.masterKey[:])
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX, chacha20poly1305.NonceSizeX+len(keyHex)+aead.Overhead())
	if _, err := io.ReadFull(randReader, nonce); err != nil {
		return nil, fmt.Errorf("escrow nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, []byte(keyHex), escrowAAD(fileID, ownerID)), nil
}

// OpenEscrowKey reverses SealEscrowKey. Anything that fails to open under the
// given file and owner is common.ErrEscrowCorrupt.
func (s *EscrowSealer) OpenEscrowKey(sealed []byte, fileID, ownerID string) (string, error) {
	if len(sealed) < chacha20poly1305.NonceSizeX {
		return "", common.ErrEscrowCorrupt
	}

	aead, err := chacha20poly1305.NewX(s.masterKey[:])
	if err != nil {
		return "", err
	}

	nonce := sealed[:chacha20poly1305.NonceSizeX]
	plain, err := aead.Open(nil, nonce, sealed[chacha20poly1305.NonceSizeX:], escrowAAD(fileID, ownerID))
	if err != nil {
		return "", common.ErrEscrowCorrupt
	}

	keyHex := string(plain)
	if ValidateKeyHex(keyHex) != nil {
		return "", common.ErrEscrowCorrupt
	}
	return keyHex, nil
}
