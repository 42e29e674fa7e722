package products

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/angelmondragon/farmconnect-backend/pkg/models"
)

// Repository exposes product persistence over one snapshot.
type Repository struct {
	snap *models.Snapshot
}

func NewRepository(snap *models.Snapshot) *Repository {
	return &Repository{snap: snap}
}

// FindByID returns a pointer into the snapshot.
func (r *Repository) FindByID(id string) (*models.Product, bool) {
	for i := range r.snap.Products {
		if r.snap.Products[i].ID == id {
			return &r.snap.Products[i], true
		}
	}
	return nil, false
}

func (r *Repository) Create(p models.Product) models.Product {
	r.snap.Products = append(r.snap.Products, p)
	return p
}

// Delete removes the product and reports whether it existed. Cart lines
// holding a snapshot of it are left in place.
func (r *Repository) Delete(id string) bool {
	for i := range r.snap.Products {
		if r.snap.Products[i].ID == id {
			r.snap.Products = append(r.snap.Products[:i], r.snap.Products[i+1:]...)
			return true
		}
	}
	return false
}

// List applies filter and returns copies in listing order.
func (r *Repository) List(filter Filter) []models.Product {
	out := make([]models.Product, 0, len(r.snap.Products))
	for _, p := range r.snap.Products {
		if filter.matches(p) {
			out = append(out, p)
		}
	}
	sortProducts(out, filter.Sort)
	return out
}

// Reserve takes qty units out of inventory.
func (r *Repository) Reserve(id string, qty int) (*models.Product, error) {
	p, ok := r.FindByID(id)
	if !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "product %s not found", id)
	}
	if qty > p.Inventory {
		return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "only %d %s of %s left", p.Inventory, p.Unit, p.Name).
			WithDetails(map[string]any{"productId": p.ID, "available": p.Inventory, "requested": qty})
	}
	p.Inventory -= qty
	return p, nil
}

// Restock returns qty units to inventory; a deleted product is skipped.
func (r *Repository) Restock(id string, qty int) bool {
	p, ok := r.FindByID(id)
	if !ok || qty <= 0 {
		return false
	}
	p.Inventory += qty
	return true
}

// Filter holds the ANDed listing predicates. Zero values match everything.
type Filter struct {
	Category  string
	Location  string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	Organic   *bool
	Available *bool
	FarmerID  string
	Search    string
	Sort      enums.ProductSort
}

func (f Filter) matches(p models.Product) bool {
	if f.Category != "" && !strings.EqualFold(f.Category, enums.ProductCategoryAll) && p.Category != f.Category {
		return false
	}
	if f.Location != "" && !containsFold(p.Location, f.Location) {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.Organic != nil && p.Organic != *f.Organic {
		return false
	}
	if f.Available != nil && p.IsAvailable != *f.Available {
		return false
	}
	if f.FarmerID != "" && p.FarmerID != f.FarmerID {
		return false
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		if !containsFold(p.Name, q) && !containsFold(p.Description, q) &&
			!containsFold(p.FarmerName, q) && !containsFold(p.Category, q) {
			return false
		}
	}
	return true
}

func sortProducts(items []models.Product, by enums.ProductSort) {
	var less func(a, b models.Product) bool
	switch by {
	case enums.ProductSortNewest:
		less = func(a, b models.Product) bool { return a.CreatedAt.After(b.CreatedAt) }
	case enums.ProductSortName:
		less = func(a, b models.Product) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case enums.ProductSortPriceLow:
		less = func(a, b models.Product) bool { return a.Price.LessThan(b.Price) }
	case enums.ProductSortPriceHigh:
		less = func(a, b models.Product) bool { return a.Price.GreaterThan(b.Price) }
	case enums.ProductSortRating:
		less = func(a, b models.Product) bool { return a.Rating > b.Rating }
	default:
		return
	}
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(strings.TrimSpace(needle)))
}
