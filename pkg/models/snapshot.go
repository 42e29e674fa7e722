package models

import "time"

// Snapshot is the whole marketplace document. Every read and write goes
// through one decoded copy of it.
type Snapshot struct {
	Version       int64          `json:"version"`
	Users         []User         `json:"users"`
	Products      []Product      `json:"products"`
	Orders        []Order        `json:"orders"`
	Reviews       []Review       `json:"reviews"`
	Notifications []Notification `json:"notifications"`
	Cart          []CartItem     `json:"cart"`
	UpdatedAt     *time.Time     `json:"updatedAt,omitempty"`
}

// NewSnapshot returns the empty default document.
func NewSnapshot() *Snapshot {
	s := &Snapshot{}
	s.Normalize()
	return s
}

// Normalize replaces nil collections so the encoded document always carries arrays.
func (s *Snapshot) Normalize() {
	if s.Users == nil {
		s.Users = []User{}
	}
	if s.Products == nil {
		s.Products = []Product{}
	}
	if s.Orders == nil {
		s.Orders = []Order{}
	}
	if s.Reviews == nil {
		s.Reviews = []Review{}
	}
	if s.Notifications == nil {
		s.Notifications = []Notification{}
	}
	if s.Cart == nil {
		s.Cart = []CartItem{}
	}
	for i := range s.Products {
		if s.Products[i].Certifications == nil {
			s.Products[i].Certifications = []string{}
		}
	}
}
