package reviews

import (
	"sort"

	"github.com/angelmondragon/farmconnect-backend/pkg/models"
)

// Repository exposes reviews over one snapshot.
type Repository struct {
	snap *models.Snapshot
}

func NewRepository(snap *models.Snapshot) *Repository {
	return &Repository{snap: snap}
}

func (r *Repository) Create(rv models.Review) models.Review {
	r.snap.Reviews = append(r.snap.Reviews, rv)
	return rv
}

func (r *Repository) FindByID(id string) (*models.Review, bool) {
	for i := range r.snap.Reviews {
		if r.snap.Reviews[i].ID == id {
			return &r.snap.Reviews[i], true
		}
	}
	return nil, false
}

// ListByProduct returns a product's reviews newest first; equal timestamps
// put the later insert first.
func (r *Repository) ListByProduct(productID string) []models.Review {
	out := make([]models.Review, 0)
	for i := len(r.snap.Reviews) - 1; i >= 0; i-- {
		if r.snap.Reviews[i].ProductID == productID {
			out = append(out, r.snap.Reviews[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Aggregate returns the rating sum and count for a product.
func (r *Repository) Aggregate(productID string) (sum, count int) {
	for _, rv := range r.snap.Reviews {
		if rv.ProductID == productID {
			sum += rv.Rating
			count++
		}
	}
	return sum, count
}
