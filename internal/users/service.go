package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neinfra/dpr-dashboard/internal/activity"
	"github.com/neinfra/dpr-dashboard/pkg/kvstore"
	"github.com/neinfra/dpr-dashboard/pkg/logger"
)

var (
	// ErrNotFound is returned when no user matches the given id.
	ErrNotFound = errors.New("users: not found")
	// ErrDuplicateEmail is returned when an email is already registered.
	ErrDuplicateEmail = errors.New("users: email already registered")
)

// ActivityRecorder receives audit entries for registry changes.
type ActivityRecorder interface {
	Record(ctx context.Context, user, action, details string, module activity.Module, notify bool) (activity.Record, error)
}

// Service manages the user registry.
type Service struct {
	list       *kvstore.List[User]
	activities ActivityRecorder
	validate   *validator.Validate
	now        func() time.Time
	newID      func() uuid.UUID
}

func NewService(store kvstore.Store, activities ActivityRecorder) *Service {
	return &Service{
		list:       kvstore.NewList[User](store, StorageKey, 0),
		activities: activities,
		validate:   validator.New(),
		now:        time.Now,
		newID:      uuid.New,
	}
}

// WithNow overrides the clock. Intended for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create registers a new active user. Emails are unique,
// case-insensitively.
func (s *Service) Create(ctx context.Context, actor string, input Input) (User, error) {
	if err := s.validate.Struct(input); err != nil {
		return User{}, fmt.Errorf("users: invalid input: %w", err)
	}

	user := User{
		ID:         s.newID(),
		Name:       input.Name,
		Email:      input.Email,
		Department: input.Department,
		Role:       input.Role,
		Active:     true,
		CreatedAt:  s.now(),
	}

	duplicate := false
	_, err := s.list.TryUpdate(ctx, func(items []User) ([]User, bool) {
		duplicate = false
		for _, item := range items {
			if strings.EqualFold(item.Email, user.Email) {
				duplicate = true
				return items, false
			}
		}
		return append([]User{user}, items...), true
	})
	if err != nil {
		return User{}, err
	}
	if duplicate {
		return User{}, ErrDuplicateEmail
	}

	s.audit(ctx, actor, "created user", user.Email)
	logger.Info("User created",
		zap.String("id", user.ID.String()),
		zap.String("email", user.Email))
	return user, nil
}

// Get returns the user with the given id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (User, error) {
	items, _, err := s.list.Load(ctx)
	if err != nil && !kvstore.IsCorrupted(err) {
		return User{}, err
	}

	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}
	return User{}, ErrNotFound
}

// GetAll returns every registered user, newest first.
func (s *Service) GetAll(ctx context.Context) ([]User, error) {
	items, _, err := s.list.Load(ctx)
	if err != nil && !kvstore.IsCorrupted(err) {
		return nil, err
	}
	return items, nil
}

// Search matches query against name, email, department and role,
// case-insensitively.
func (s *Service) Search(ctx context.Context, query string) ([]User, error) {
	items, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	matched := make([]User, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), query) ||
			strings.Contains(strings.ToLower(item.Email), query) ||
			strings.Contains(strings.ToLower(item.Department), query) ||
			strings.Contains(strings.ToLower(string(item.Role)), query) {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

// Update applies validated input to an existing user. The email stays
// unique across the registry.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input Input) (User, error) {
	if err := s.validate.Struct(input); err != nil {
		return User{}, fmt.Errorf("users: invalid input: %w", err)
	}

	var (
		updated   User
		found     bool
		duplicate bool
	)
	_, err := s.list.TryUpdate(ctx, func(items []User) ([]User, bool) {
		updated, found, duplicate = User{}, false, false
		for _, item := range items {
			if item.ID != id && strings.EqualFold(item.Email, input.Email) {
				duplicate = true
				return items, false
			}
		}
		for i := range items {
			if items[i].ID == id {
				items[i].Name = input.Name
				items[i].Email = input.Email
				items[i].Department = input.Department
				items[i].Role = input.Role
				updated = items[i]
				found = true
			}
		}
		return items, found
	})
	if err != nil {
		return User{}, err
	}
	if duplicate {
		return User{}, ErrDuplicateEmail
	}
	if !found {
		return User{}, ErrNotFound
	}
	return updated, nil
}

// SetActive toggles a user's active flag.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	found := false
	_, err := s.list.TryUpdate(ctx, func(items []User) ([]User, bool) {
		found = false
		for i := range items {
			if items[i].ID == id {
				items[i].Active = active
				found = true
			}
		}
		return items, found
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user from the registry.
func (s *Service) Delete(ctx context.Context, actor string, id uuid.UUID) error {
	var removed User
	found := false
	_, err := s.list.TryUpdate(ctx, func(items []User) ([]User, bool) {
		removed, found = User{}, false
		kept := items[:0]
		for _, item := range items {
			if item.ID == id {
				removed = item
				found = true
				continue
			}
			kept = append(kept, item)
		}
		return kept, found
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}

	s.audit(ctx, actor, "deleted user", removed.Email)
	logger.Info("User deleted", zap.String("id", id.String()))
	return nil
}

func (s *Service) audit(ctx context.Context, actor, action, details string) {
	if s.activities == nil {
		return
	}
	if _, err := s.activities.Record(ctx, actor, action, details, activity.ModuleUsers, false); err != nil {
		logger.Warn("Failed to record user registry activity", zap.Error(err))
	}
}
