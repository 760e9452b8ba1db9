package services

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"confbook/internal/domain"
	"confbook/internal/registry"
)

// userIDRegexp matches user IDs: alphanumeric, no spaces.
var userIDRegexp = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

type userService struct {
	regs         *Registries
	maxInterests int
	logger       *slog.Logger
}

// NewUserService creates a UserService backed by the shared registries.
// maxInterests bounds the interest list.
func NewUserService(regs *Registries, maxInterests int, logger *slog.Logger) domain.UserService {
	if maxInterests <= 0 {
		maxInterests = domain.MaxInterests
	}
	return &userService{
		regs:         regs,
		maxInterests: maxInterests,
		logger:       logger,
	}
}

func (s *userService) Create(id string, interests []string) (*domain.User, error) {
	if !userIDRegexp.MatchString(id) {
		return nil, fmt.Errorf("%w: user id must be alphanumeric", domain.ErrValidation)
	}
	if len(interests) > s.maxInterests {
		return nil, fmt.Errorf("%w: at most %d interests allowed", domain.ErrValidation, s.maxInterests)
	}
	for _, interest := range interests {
		if strings.TrimSpace(interest) == "" || !nameRegexp.MatchString(interest) {
			return nil, fmt.Errorf("%w: interest %q must be alphanumeric", domain.ErrValidation, interest)
		}
	}

	user := domain.NewUser(id, interests, time.Now().UTC())
	if err := s.regs.Users.Put(id, user); err != nil {
		if errors.Is(err, registry.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: user %q already exists", domain.ErrValidation, id)
		}
		return nil, fmt.Errorf("register user: %w", err)
	}
	s.logger.Info("user created", "user", id, "interests", len(interests))

	cp := *user
	cp.Bookings = make(map[int64]*domain.Booking)
	return &cp, nil
}

func (s *userService) Snapshot(id string) (*domain.UserSnapshot, error) {
	var snap *domain.UserSnapshot
	err := s.regs.Users.View(id, func(u *domain.User) {
		snap = buildUserSnapshot(u)
	})
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", id, domain.ErrNotFound)
	}
	return snap, nil
}

func (s *userService) List() []*domain.UserSnapshot {
	ids := s.regs.Users.Keys()
	sort.Strings(ids)

	out := make([]*domain.UserSnapshot, 0, len(ids))
	for _, id := range ids {
		_ = s.regs.Users.View(id, func(u *domain.User) {
			out = append(out, buildUserSnapshot(u))
		})
	}
	return out
}

// buildUserSnapshot copies the user's state; the caller holds the user
// registry lock. Bookings are cloned so the snapshot stays stable after the
// lock is released.
func buildUserSnapshot(u *domain.User) *domain.UserSnapshot {
	bookings := make([]*domain.Booking, 0, len(u.Bookings))
	for _, b := range u.Bookings {
		bookings = append(bookings, b.Clone())
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].ID < bookings[j].ID })
	return &domain.UserSnapshot{
		ID:        u.ID,
		Interests: append([]string(nil), u.Interests...),
		Bookings:  bookings,
	}
}
