package orders

import (
	"sort"

	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	"github.com/angelmondragon/farmconnect-backend/pkg/models"
	"github.com/angelmondragon/farmconnect-backend/pkg/pagination"
)

// Repository exposes orders over one snapshot.
type Repository struct {
	snap *models.Snapshot
}

func NewRepository(snap *models.Snapshot) *Repository {
	return &Repository{snap: snap}
}

func (r *Repository) Create(o models.Order) models.Order {
	r.snap.Orders = append(r.snap.Orders, o)
	return o
}

// FindByID returns a pointer into the snapshot.
func (r *Repository) FindByID(id string) (*models.Order, bool) {
	for i := range r.snap.Orders {
		if r.snap.Orders[i].ID == id {
			return &r.snap.Orders[i], true
		}
	}
	return nil, false
}

// ListFor returns the orders where userID is the seller (farmer role) or
// the buyer (consumer role), newest first.
func (r *Repository) ListFor(userID string, role enums.UserRole) []models.Order {
	out := make([]models.Order, 0)
	for i := len(r.snap.Orders) - 1; i >= 0; i-- {
		o := r.snap.Orders[i]
		switch role {
		case enums.UserRoleFarmer:
			if o.FarmerID != userID {
				continue
			}
		case enums.UserRoleConsumer:
			if o.CustomerID != userID {
				continue
			}
		default:
			continue
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return pagination.Newer(
			pagination.Cursor{CreatedAt: out[i].OrderDate, ID: out[i].ID},
			pagination.Cursor{CreatedAt: out[j].OrderDate, ID: out[j].ID},
		)
	})
	return out
}
