package models

import (
	"time"

	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
)

type User struct {
	ID                  string                   `json:"id"`
	Name                string                   `json:"name"`
	Email               string                   `json:"email"`
	PasswordHash        string                   `json:"passwordHash,omitempty"`
	Role                enums.UserRole           `json:"type"`
	Location            string                   `json:"location,omitempty"`
	Avatar              string                   `json:"avatar,omitempty"`
	SubscriptionStatus  enums.SubscriptionStatus `json:"subscriptionStatus,omitempty"`
	SubscriptionEndDate *time.Time               `json:"subscriptionEndDate,omitempty"`
	Phone               string                   `json:"phone,omitempty"`
	Address             string                   `json:"address,omitempty"`
	Preferences         []string                 `json:"preferences,omitempty"`
	JoinedDate          time.Time                `json:"joinedDate"`
	LastLogin           time.Time                `json:"lastLogin"`
}

// Public strips credentials before a user leaves the service layer.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

func (u User) IsFarmer() bool {
	return u.Role == enums.UserRoleFarmer
}

func (u User) IsConsumer() bool {
	return u.Role == enums.UserRoleConsumer
}

// CanAccessFarmerFeatures gates listing and order management on an active subscription.
func (u User) CanAccessFarmerFeatures() bool {
	return u.IsFarmer() && u.SubscriptionStatus == enums.SubscriptionStatusActive
}
