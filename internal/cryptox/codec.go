// Package cryptox implements the file encryption codec shared by the client
// pipelines and the server escrow.
//
// Files are encrypted with AES-256-CBC (PKCS#7 padding) under the caller's
// 256-bit key and a fresh 128-bit IV per call. An HMAC-SHA256 tag over
// iv||ciphertext is appended so a wrong key, wrong iv or damaged blob is
// always rejected before padding is looked at. Every such failure is
// reported as common.ErrDecryptionFailed.
//
// Keys and IVs travel as lowercase hex strings. Base64 is only used by the
// transport helpers, never by Encrypt/Decrypt themselves.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/dmitrijs2005/sealdrop/internal/common"
	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the raw key length in bytes (AES-256).
	KeySize = 32
	// IVSize is the CBC initialization vector length in bytes.
	IVSize = aes.BlockSize
	// TagSize is the length of the appended HMAC-SHA256 tag.
	TagSize = sha256.Size
)

var macKeyInfo = []byte("sealdrop/file-mac/v1")

// randReader is a seam for tests.
var randReader io.Reader = rand.Reader

// GenerateKey returns a new random key as 64 lowercase hex characters.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(randReader, key); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// ValidateKeyHex reports whether keyHex encodes exactly KeySize bytes.
func ValidateKeyHex(keyHex string) error {
	_, err := parseKey(keyHex)
	return err
}

// ValidateIVHex reports whether ivHex encodes exactly IVSize bytes.
func ValidateIVHex(ivHex string) error {
	if _, err := parseIV(ivHex); err != nil {
		return common.ErrorIncorrectMetadata
	}
	return nil
}

// ValidateCiphertext checks that ciphertext has the shape Encrypt produces:
// at least one CBC block, whole blocks, and a trailing tag. It cannot tell a
// well-formed blob from a forged one.
func ValidateCiphertext(ciphertext []byte) error {
	n := len(ciphertext) - TagSize
	if n < aes.BlockSize || n%aes.BlockSize != 0 {
		return common.ErrorIncorrectMetadata
	}
	return nil
}

// Encrypt encrypts plaintext under keyHex with a freshly generated IV and
// returns the ciphertext (CBC blocks followed by the tag) and the hex IV.
func Encrypt(plaintext []byte, keyHex string) ([]byte, string, error) {
	key, err := parseKey(keyHex)
	if err != nil {
		return nil, "", err
	}
	defer common.WipeByteArray(key)

	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(randReader, iv); err != nil {
		return nil, "", fmt.Errorf("generate iv: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, "", err
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	out := make([]byte, len(padded), len(padded)+TagSize)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	macKey, err := deriveMACKey(key)
	if err != nil {
		return nil, "", err
	}
	out = append(out, computeTag(macKey, iv, out)...)

	return out, hex.EncodeToString(iv), nil
}

// Decrypt reverses Encrypt. Any mismatch between ciphertext, iv and key
// yields common.ErrDecryptionFailed; a malformed key yields common.ErrInvalidKey.
func Decrypt(ciphertext []byte, ivHex, keyHex string) ([]byte, error) {
	key, err := parseKey(keyHex)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	iv, err := parseIV(ivHex)
	if err != nil {
		return nil, common.ErrDecryptionFailed
	}

	if len(ciphertext) < aes.BlockSize+TagSize {
		return nil, common.ErrDecryptionFailed
	}
	body := ciphertext[:len(ciphertext)-TagSize]
	tag := ciphertext[len(ciphertext)-TagSize:]

	macKey, err := deriveMACKey(key)
	if err != nil {
		return nil, common.ErrDecryptionFailed
	}
	if !hmac.Equal(tag, computeTag(macKey, iv, body)) {
		return nil, common.ErrDecryptionFailed
	}
	if len(body)%aes.BlockSize != 0 {
		return nil, common.ErrDecryptionFailed
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, common.ErrDecryptionFailed
	}
	plain := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, body)

	out, ok := pkcs7Unpad(plain, aes.BlockSize)
	if !ok {
		return nil, common.ErrDecryptionFailed
	}
	return out, nil
}

func parseKey(keyHex string) ([]byte, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil || len(key) != KeySize {
		return nil, common.ErrInvalidKey
	}
	return key, nil
}

func parseIV(ivHex string) ([]byte, error) {
	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return nil, err
	}
	if len(iv) != IVSize {
		return nil, fmt.Errorf("iv must be %d bytes, got %d", IVSize, len(iv))
	}
	return iv, nil
}

func deriveMACKey(key []byte) ([]byte, error) {
	macKey := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, key, nil, macKeyInfo), macKey); err != nil {
		return nil, err
	}
	return macKey, nil
}

func computeTag(macKey, iv, body []byte) []byte {
	m := hmac.New(sha256.New, macKey)
	m.Write(iv)
	m.Write(body)
	return m.Sum(nil)
}

// pkcs7Pad always adds padding, so empty input becomes one full block.
func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+n)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, bool) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, false
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, false
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, false
		}
	}
	return data[:len(data)-n], true
}
