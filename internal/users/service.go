package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/farmconnect-backend/internal/notifications"
	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/angelmondragon/farmconnect-backend/pkg/models"
	"github.com/angelmondragon/farmconnect-backend/pkg/store"
)

const (
	invalidCredentialsMessage = "invalid credentials"

	welcomeTitle           = "Welcome to FarmConnect!"
	welcomeFarmerMessage   = "Start listing your organic products and connect with customers directly."
	welcomeConsumerMessage = "Discover fresh organic produce from local farmers in your area."
)

// Service defines account operations.
type Service interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, id string, in UpdateInput) (*models.User, error)
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// ServiceParams bundles the dependencies of the users service.
type ServiceParams struct {
	Store  store.Transactor
	Hasher passwordHasher
	Clock  func() time.Time
}

type service struct {
	store  store.Transactor
	hasher passwordHasher
	clock  func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if params.Hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	if params.Clock == nil {
		params.Clock = time.Now
	}
	return &service{store: params.Store, hasher: params.Hasher, clock: params.Clock}, nil
}

func (s *service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := NormalizeEmail(in.Email)
	switch {
	case name == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	case email == "" || !strings.Contains(email, "@"):
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	case in.Password == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	case !in.Role.IsValid():
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "type must be farmer or consumer")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	now := s.clock().UTC()
	user := models.User{
		ID:         uuid.NewString(),
		Name:       name,
		Email:      email,
		Role:       in.Role,
		Location:   strings.TrimSpace(in.Location),
		Phone:      strings.TrimSpace(in.Phone),
		Address:    strings.TrimSpace(in.Address),
		JoinedDate: now,
		LastLogin:  now,
	}
	user.PasswordHash = hash
	message := welcomeConsumerMessage
	if user.IsFarmer() {
		user.SubscriptionStatus = enums.SubscriptionStatusNone
		message = welcomeFarmerMessage
	}

	err = s.store.Update(ctx, func(snap *models.Snapshot) error {
		repo := NewRepository(snap)
		if _, exists := repo.FindByEmail(email); exists {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		repo.Create(user)
		notifications.NewRepository(snap).Create(notifications.NewNotification{
			UserID:  user.ID,
			Type:    enums.NotificationTypeSystem,
			Title:   welcomeTitle,
			Message: message,
		}, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

func (s *service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	if NormalizeEmail(email) == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	var candidate models.User
	if err := s.store.View(ctx, func(snap *models.Snapshot) error {
		u, ok := NewRepository(snap).FindByEmail(email)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		candidate = *u
		return nil
	}); err != nil {
		return nil, err
	}

	// Verify outside Update, which may rerun its closure.
	if candidate.PasswordHash == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	ok, err := s.hasher.Verify(password, candidate.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	now := s.clock().UTC()
	var out models.User
	err = s.store.Update(ctx, func(snap *models.Snapshot) error {
		u, ok := NewRepository(snap).FindByID(candidate.ID)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		u.LastLogin = now
		out = u.Public()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) Get(ctx context.Context, id string) (*models.User, error) {
	var out models.User
	err := s.store.View(ctx, func(snap *models.Snapshot) error {
		u, ok := NewRepository(snap).FindByID(id)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		out = u.Public()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) Update(ctx context.Context, id string, in UpdateInput) (*models.User, error) {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
	}

	var out models.User
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		u, ok := NewRepository(snap).FindByID(id)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		applyUpdate(u, in)
		out = u.Public()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func applyUpdate(u *models.User, in UpdateInput) {
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Location != nil {
		u.Location = strings.TrimSpace(*in.Location)
	}
	if in.Avatar != nil {
		u.Avatar = strings.TrimSpace(*in.Avatar)
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		u.Address = strings.TrimSpace(*in.Address)
	}
	if in.Preferences != nil {
		u.Preferences = append([]string(nil), (*in.Preferences)...)
	}
}

// CanAccessFarmerFeatures reports whether user may list products and manage orders.
func CanAccessFarmerFeatures(user *models.User) bool {
	return user != nil && user.CanAccessFarmerFeatures()
}
