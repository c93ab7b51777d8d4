package pipeline

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/sealdrop/internal/client/client"
	"github.com/dmitrijs2005/sealdrop/internal/client/keystore"
	"github.com/dmitrijs2005/sealdrop/internal/client/models"
	"github.com/dmitrijs2005/sealdrop/internal/common"
	"github.com/dmitrijs2005/sealdrop/internal/cryptox"
	"github.com/dmitrijs2005/sealdrop/internal/filex"
	"github.com/dmitrijs2005/sealdrop/internal/logging"
	"github.com/dmitrijs2005/sealdrop/internal/netx"
)

// DefaultMaxBlobSize caps the ciphertext accepted from storage.
const DefaultMaxBlobSize = 512 << 20

// DownloadDir is the working-directory subfolder Save uses by default.
const DownloadDir = "downloads"

// Plaintext is a decrypted file. MimeType is derived from Filename.
type Plaintext struct {
	Bytes    []byte
	Filename string
	MimeType string
}

// Preview is a decrypted file written to a temporary location for viewing.
type Preview struct {
	Path     string
	MimeType string
}

// Downloader fetches ciphertext and decrypts it with the right key: the
// client's own key for owners, the escrowed key for admins.
type Downloader struct {
	keys        keystore.KeyProvider
	api         client.Client
	blobs       *http.Client
	maxBlobSize int64
	log         logging.Logger
}

// NewDownloader returns a Downloader that fetches blobs with hc.
func NewDownloader(keys keystore.KeyProvider, api client.Client, hc *http.Client, l logging.Logger) *Downloader {
	return &Downloader{
		keys:        keys,
		api:         api,
		blobs:       hc,
		maxBlobSize: DefaultMaxBlobSize,
		log:         l.With("module", "download"),
	}
}

// source is everything needed to fetch and decrypt one file.
type source struct {
	url      string
	iv       string
	key      string
	filename string
}

// resolve fetches the file metadata. Admins get the escrowed key with it,
// everyone else uses the local key, which is never created here.
func (d *Downloader) resolve(ctx context.Context, fileID, role string) (*source, error) {
	if role == models.RoleAdmin {
		f, err := d.api.GetAdminFile(ctx, fileID)
		if err != nil {
			return nil, err
		}
		if f.EncryptionKey == "" {
			return nil, fmt.Errorf("%w: file %s", common.ErrEscrowMissing, fileID)
		}
		return &source{url: f.URL, iv: f.IV, key: f.EncryptionKey, filename: f.OriginalFilename}, nil
	}

	f, err := d.api.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	key, err := d.keys.GetKey(ctx)
	if err != nil {
		return nil, err
	}
	return &source{url: f.URL, iv: f.IV, key: key, filename: f.OriginalFilename}, nil
}

func (d *Downloader) fetch(ctx context.Context, src *source) (*Plaintext, error) {
	ciphertext, err := netx.DownloadFromPresignedURL(ctx, d.blobs, src.url, d.maxBlobSize)
	if err != nil {
		return nil, err
	}

	data, err := cryptox.Decrypt(ciphertext, src.iv, src.key)
	if err != nil {
		return nil, err
	}

	return &Plaintext{Bytes: data, Filename: src.filename, MimeType: cryptox.MimeType(src.filename)}, nil
}

// FetchAndDecrypt returns the plaintext of fileID. Errors are
// common.ErrorNotFound, common.ErrNoKeyFound, common.ErrBlobUnavailable,
// common.ErrDecryptionFailed or an API error.
func (d *Downloader) FetchAndDecrypt(ctx context.Context, fileID, role string) (*Plaintext, error) {
	src, err := d.resolve(ctx, fileID, role)
	if err != nil {
		return nil, err
	}
	p, err := d.fetch(ctx, src)
	if err != nil {
		d.log.Warn(ctx, "download failed", "file_id", fileID, "error", err)
		return nil, err
	}
	return p, nil
}

// Preview decrypts fileID into a temporary file with the original extension.
// Types outside the preview allow-list fail with common.ErrNotPreviewable
// before any ciphertext is fetched. The caller removes the file.
func (d *Downloader) Preview(ctx context.Context, fileID, role string) (*Preview, error) {
	src, err := d.resolve(ctx, fileID, role)
	if err != nil {
		return nil, err
	}
	if !cryptox.Previewable(src.filename) {
		return nil, fmt.Errorf("%w: %s", common.ErrNotPreviewable, src.filename)
	}

	p, err := d.fetch(ctx, src)
	if err != nil {
		return nil, err
	}

	path, err := filex.WriteTemp(cryptox.Extension(p.Filename), p.Bytes)
	if err != nil {
		return nil, err
	}
	return &Preview{Path: path, MimeType: p.MimeType}, nil
}

// Save decrypts fileID and writes it under its original name into dir, or
// into DownloadDir when dir is empty. Existing files are not overwritten.
// It returns the path written.
func (d *Downloader) Save(ctx context.Context, fileID, role, dir string) (string, error) {
	p, err := d.FetchAndDecrypt(ctx, fileID, role)
	if err != nil {
		return "", err
	}

	if dir == "" {
		if dir, err = filex.EnsureSubdDir(DownloadDir); err != nil {
			return "", err
		}
	}

	path, err := filex.WriteNew(dir, p.Filename, p.Bytes)
	if err != nil {
		return "", err
	}
	d.log.Info(ctx, "file saved", "file_id", fileID, "path", path)
	return path, nil
}
