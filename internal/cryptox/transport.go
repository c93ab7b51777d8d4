package cryptox

import (
	"encoding/base64"
	"strings"

	"github.com/dmitrijs2005/sealdrop/internal/common"
)

// EncodeTransport renders ciphertext as standard base64 for text-oriented
// transmission (the upload form's file part).
func EncodeTransport(ciphertext []byte) string {
	return base64.StdEncoding.EncodeToString(ciphertext)
}

// DecodeTransport reverses EncodeTransport. Surrounding whitespace and line
// breaks are ignored. Malformed input is common.ErrorIncorrectMetadata.
func DecodeTransport(s string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)
	b, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, common.ErrorIncorrectMetadata
	}
	return b, nil
}
