package services

import (
	"time"

	"github.com/dmitrijs2005/sealdrop/internal/server/models"
)

// FileView is the file metadata returned to owners and reviewers. URL is a
// short-lived link to the ciphertext; it never carries key material.
type FileView struct {
	ID               string            `json:"id"`
	URL              string            `json:"url"`
	IV               string            `json:"iv"`
	OriginalFilename string            `json:"original_filename"`
	Status           models.FileStatus `json:"status"`
	ApprovedBy       string            `json:"approved_by,omitempty"`
	OwnerEmail       string            `json:"owner_email,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// AdminFileView adds the escrowed key. It is only built for admin callers.
type AdminFileView struct {
	FileView
	OwnerID       string `json:"owner_id"`
	EncryptionKey string `json:"encryptionKey"`
}

// UserView is an account without its password hash.
type UserView struct {
	ID           string               `json:"id"`
	Email        string               `json:"email"`
	Role         models.Role          `json:"role"`
	Status       models.AccountStatus `json:"status"`
	ManagerEmail string               `json:"managerEmail,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

func newFileView(f *models.File, url string) FileView {
	return FileView{
		ID:               f.ID,
		URL:              url,
		IV:               f.IV,
		OriginalFilename: f.OriginalFilename,
		Status:           f.Status,
		ApprovedBy:       f.ApprovedBy,
		CreatedAt:        f.CreatedAt,
	}
}

// NewUserView strips the password hash from u.
func NewUserView(u *models.User) UserView {
	return UserView{
		ID:           u.ID,
		Email:        u.Email,
		Role:         u.Role,
		Status:       u.Status,
		ManagerEmail: u.ManagerEmail,
		CreatedAt:    u.CreatedAt,
	}
}

// NewUserViews maps NewUserView over users.
func NewUserViews(users []*models.User) []UserView {
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserView(u))
	}
	return out
}
