package users

import (
	"strings"

	"github.com/angelmondragon/farmconnect-backend/pkg/models"
)

// Repository exposes user lookups and writes over one snapshot.
type Repository struct {
	snap *models.Snapshot
}

func NewRepository(snap *models.Snapshot) *Repository {
	return &Repository{snap: snap}
}

// FindByID returns a pointer into the snapshot.
func (r *Repository) FindByID(id string) (*models.User, bool) {
	for i := range r.snap.Users {
		if r.snap.Users[i].ID == id {
			return &r.snap.Users[i], true
		}
	}
	return nil, false
}

// FindByEmail matches case-insensitively on the trimmed address.
func (r *Repository) FindByEmail(email string) (*models.User, bool) {
	needle := NormalizeEmail(email)
	if needle == "" {
		return nil, false
	}
	for i := range r.snap.Users {
		if NormalizeEmail(r.snap.Users[i].Email) == needle {
			return &r.snap.Users[i], true
		}
	}
	return nil, false
}

func (r *Repository) Create(user models.User) models.User {
	r.snap.Users = append(r.snap.Users, user)
	return user
}

// Each visits every user in insertion order; fn may mutate the user.
func (r *Repository) Each(fn func(*models.User)) {
	for i := range r.snap.Users {
		fn(&r.snap.Users[i])
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
