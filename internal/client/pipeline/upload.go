// Package pipeline runs the client side of file transfer: encrypting and
// uploading a file, and fetching and decrypting it again.
//
// Plaintext never leaves the client. The server only sees the ciphertext,
// the IV and, for escrow, the key.
package pipeline

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/sealdrop/internal/client/client"
	"github.com/dmitrijs2005/sealdrop/internal/client/keystore"
	"github.com/dmitrijs2005/sealdrop/internal/client/models"
	"github.com/dmitrijs2005/sealdrop/internal/common"
	"github.com/dmitrijs2005/sealdrop/internal/cryptox"
	"github.com/dmitrijs2005/sealdrop/internal/logging"
)

// Uploader encrypts files under the client's key and posts them.
type Uploader struct {
	keys keystore.KeyProvider
	api  client.Client
	log  logging.Logger
}

func NewUploader(keys keystore.KeyProvider, api client.Client, l logging.Logger) *Uploader {
	return &Uploader{keys: keys, api: api, log: l.With("module", "upload")}
}

// Upload encrypts data with a fresh IV and sends it as filename. The key is
// created on first use. Uploads are not retried.
func (u *Uploader) Upload(ctx context.Context, data []byte, filename string) (*models.File, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: empty filename", common.ErrorIncorrectMetadata)
	}

	key, err := u.keys.GetOrCreateKey(ctx)
	if err != nil {
		return nil, err
	}

	ciphertext, iv, err := cryptox.Encrypt(data, key)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}

	f, err := u.api.UploadFile(ctx, filename, ciphertext, iv, key)
	if err != nil {
		return nil, err
	}

	u.log.Info(ctx, "file uploaded", "file_id", f.ID, "size", len(data))
	return f, nil
}
