package services

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"confbook/internal/domain"
	"confbook/internal/registry"
)

// nameRegexp matches names and locations: alphanumeric with spaces allowed.
var nameRegexp = regexp.MustCompile(`^[a-zA-Z0-9 ]+$`)

type conferenceService struct {
	regs      *Registries
	maxTopics int
	// snapshots caches display snapshots for a short TTL. Snapshots are
	// read-only and display-only, so bounded staleness is acceptable.
	snapshots *gocache.Cache
	logger    *slog.Logger
}

// NewConferenceService creates a ConferenceService backed by the shared
// registries. maxTopics bounds the topic list; snapshotTTL bounds snapshot
// staleness for display callers.
func NewConferenceService(regs *Registries, maxTopics int, snapshotTTL time.Duration, logger *slog.Logger) domain.ConferenceService {
	if maxTopics <= 0 {
		maxTopics = domain.MaxTopicsPerConference
	}
	if snapshotTTL <= 0 {
		snapshotTTL = 2 * time.Second
	}
	return &conferenceService{
		regs:      regs,
		maxTopics: maxTopics,
		snapshots: gocache.New(snapshotTTL, 2*snapshotTTL),
		logger:    logger,
	}
}

func (s *conferenceService) Create(name, location string, topics []string, start, end time.Time, capacity int) (*domain.Conference, error) {
	if strings.TrimSpace(name) == "" || !nameRegexp.MatchString(name) {
		return nil, fmt.Errorf("%w: name must be non-blank and alphanumeric", domain.ErrValidation)
	}
	if strings.TrimSpace(location) == "" || !nameRegexp.MatchString(location) {
		return nil, fmt.Errorf("%w: location must be non-blank and alphanumeric", domain.ErrValidation)
	}
	if len(topics) > s.maxTopics {
		return nil, fmt.Errorf("%w: at most %d topics allowed", domain.ErrValidation, s.maxTopics)
	}
	for _, topic := range topics {
		if strings.TrimSpace(topic) == "" || !nameRegexp.MatchString(topic) {
			return nil, fmt.Errorf("%w: topic %q must be alphanumeric", domain.ErrValidation, topic)
		}
	}
	if start.Location() != time.UTC || end.Location() != time.UTC {
		return nil, fmt.Errorf("%w: start and end times must be UTC", domain.ErrValidation)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end time must be after start time", domain.ErrValidation)
	}
	if end.Sub(start) > domain.MaxConferenceDuration {
		return nil, fmt.Errorf("%w: duration must not exceed %s", domain.ErrValidation, domain.MaxConferenceDuration)
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be a positive integer", domain.ErrValidation)
	}

	conf := domain.NewConference(name, location, topics, start, end, capacity, time.Now().UTC())
	if err := s.regs.Conferences.Put(name, conf); err != nil {
		if errors.Is(err, registry.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: conference %q already exists", domain.ErrValidation, name)
		}
		return nil, fmt.Errorf("register conference: %w", err)
	}
	s.logger.Info("conference created", "name", name, "capacity", capacity, "start", start, "end", end)

	cp := *conf
	return &cp, nil
}

func (s *conferenceService) Snapshot(name string) (*domain.ConferenceSnapshot, error) {
	if cached, ok := s.snapshots.Get(name); ok {
		return cached.(*domain.ConferenceSnapshot), nil
	}
	snap, err := s.buildSnapshot(name)
	if err != nil {
		return nil, err
	}
	s.snapshots.Set(name, snap, gocache.DefaultExpiration)
	return snap, nil
}

func (s *conferenceService) List() []*domain.ConferenceSnapshot {
	names := s.regs.Conferences.Keys()
	sort.Strings(names)

	out := make([]*domain.ConferenceSnapshot, 0, len(names))
	for _, name := range names {
		snap, err := s.buildSnapshot(name)
		if err != nil {
			// Conferences are never deleted; skip rather than fail the listing.
			continue
		}
		out = append(out, snap)
	}
	return out
}

// buildSnapshot copies the conference state under the registry read lock.
func (s *conferenceService) buildSnapshot(name string) (*domain.ConferenceSnapshot, error) {
	var snap *domain.ConferenceSnapshot
	err := s.regs.Conferences.View(name, func(c *domain.Conference) {
		snap = &domain.ConferenceSnapshot{
			Name:           c.Name,
			Location:       c.Location,
			Topics:         append([]string(nil), c.Topics...),
			StartTime:      c.StartTime,
			EndTime:        c.EndTime,
			Capacity:       c.Capacity,
			SlotsRemaining: c.SlotsRemaining(),
			Attendees:      append([]string(nil), c.Attendees...),
			Waitlist:       append([]string(nil), c.Waitlist...),
		}
	})
	if err != nil {
		return nil, fmt.Errorf("conference %q: %w", name, domain.ErrNotFound)
	}
	return snap, nil
}
