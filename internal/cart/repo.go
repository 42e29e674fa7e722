package cart

import "github.com/angelmondragon/farmconnect-backend/pkg/models"

// Repository exposes cart lines over one snapshot.
type Repository struct {
	snap *models.Snapshot
}

func NewRepository(snap *models.Snapshot) *Repository {
	return &Repository{snap: snap}
}

// ForCustomer returns copies of the customer's lines in insertion order.
func (r *Repository) ForCustomer(customerID string) []models.CartItem {
	out := make([]models.CartItem, 0)
	for _, item := range r.snap.Cart {
		if item.CustomerID == customerID {
			out = append(out, item)
		}
	}
	return out
}

// FindLine returns the customer's line for productID.
func (r *Repository) FindLine(customerID, productID string) (*models.CartItem, bool) {
	for i := range r.snap.Cart {
		if r.snap.Cart[i].CustomerID == customerID && r.snap.Cart[i].ProductID == productID {
			return &r.snap.Cart[i], true
		}
	}
	return nil, false
}

func (r *Repository) FindByID(id string) (*models.CartItem, bool) {
	for i := range r.snap.Cart {
		if r.snap.Cart[i].ID == id {
			return &r.snap.Cart[i], true
		}
	}
	return nil, false
}

func (r *Repository) Add(item models.CartItem) models.CartItem {
	r.snap.Cart = append(r.snap.Cart, item)
	return item
}

// RemoveIDs deletes the given lines and reports how many were removed.
func (r *Repository) RemoveIDs(ids ...string) int {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	return r.removeWhere(func(item models.CartItem) bool {
		_, ok := drop[item.ID]
		return ok
	})
}

// ClearCustomer deletes every line the customer owns.
func (r *Repository) ClearCustomer(customerID string) int {
	return r.removeWhere(func(item models.CartItem) bool { return item.CustomerID == customerID })
}

func (r *Repository) removeWhere(match func(models.CartItem) bool) int {
	kept := r.snap.Cart[:0]
	removed := 0
	for _, item := range r.snap.Cart {
		if match(item) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	r.snap.Cart = kept
	return removed
}
