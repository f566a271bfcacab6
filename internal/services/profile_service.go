package services

import (
	"context"
	"fmt"
	"strings"

	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/store"
)

// ProfileService reads and edits the owner's profile.
type ProfileService struct {
	store  store.ProfileStore
	logger *applog.Logger
}

func NewProfileService(st store.ProfileStore, logger *applog.Logger) *ProfileService {
	return &ProfileService{store: st, logger: componentLogger(logger, applog.ComponentProfile)}
}

func (s *ProfileService) Get(ctx context.Context, owner string) (core.UserProfile, error) {
	return s.store.GetProfile(ctx, owner)
}

func (s *ProfileService) Update(ctx context.Context, owner string, p store.ProfilePatch) (core.UserProfile, error) {
	p.FirstName = trimmed(p.FirstName)
	p.LastName = trimmed(p.LastName)
	updated, err := s.store.UpdateProfile(ctx, owner, p)
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("update profile: %w", err)
	}
	return updated, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
