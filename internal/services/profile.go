package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/AnshRaj112/solace-backend/internal/rbac"
	"github.com/AnshRaj112/solace-backend/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	counselorDirectoryKey = "counselors:all"
	maxListItems          = 20
	maxListItemLength     = 100
)

func counselorKey(id uuid.UUID) string {
	return CacheKey("counselor", id.String())
}

type ProfileService struct {
	store ProfileStore
	cache Cache
	audit Auditor
	log   *zap.SugaredLogger
}

func NewProfileService(store ProfileStore, cache Cache, audit Auditor, log *zap.SugaredLogger) *ProfileService {
	return &ProfileService{store: store, cache: cache, audit: audit, log: log}
}

func (s *ProfileService) Get(ctx context.Context, id uuid.UUID) (models.Profile, error) {
	p, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return models.Profile{}, notFoundAs(err, "profile")
	}
	return p, nil
}

// Update applies the non-nil fields of upd to the caller's own profile.
func (s *ProfileService) Update(ctx context.Context, actor Actor, upd models.ProfileUpdate) (models.Profile, error) {
	if upd.TouchesCounselorFields() && !actor.Can(rbac.EditCounselorProfile) {
		return models.Profile{}, Forbidden("Only counselors can edit counselor profile fields")
	}

	p, err := s.store.GetProfile(ctx, actor.ID)
	if err != nil {
		return models.Profile{}, notFoundAs(err, "profile")
	}

	var errs utils.ValidationErrors
	if upd.DisplayName != nil {
		name := strings.TrimSpace(*upd.DisplayName)
		if err := utils.ValidateDisplayName(name); err != nil {
			errs.Add("display_name", err.(*utils.ValidationError).Message)
		}
		p.DisplayName = name
	}
	if upd.Bio != nil {
		p.Bio = strings.TrimSpace(*upd.Bio)
		checkLength(&errs, "bio", p.Bio, 1000)
	}
	if upd.AvatarURL != nil {
		p.AvatarURL = strings.TrimSpace(*upd.AvatarURL)
		if p.AvatarURL != "" && !isHTTPURL(p.AvatarURL) {
			errs.Add("avatar_url", "must be an http(s) URL")
		}
	}
	if upd.Interests != nil {
		p.Interests = cleanTagList(&errs, "interests", *upd.Interests)
	}
	if upd.Triggers != nil {
		p.Triggers = cleanTagList(&errs, "triggers", *upd.Triggers)
	}
	if upd.CopingStrategies != nil {
		p.CopingStrategies = cleanTagList(&errs, "coping_strategies", *upd.CopingStrategies)
	}
	if upd.Credentials != nil {
		p.Credentials = strings.TrimSpace(*upd.Credentials)
		checkLength(&errs, "credentials", p.Credentials, 500)
	}
	if upd.YearsExperience != nil {
		p.YearsExperience = *upd.YearsExperience
		if p.YearsExperience < 0 || p.YearsExperience > 70 {
			errs.Add("years_experience", "must be between 0 and 70")
		}
	}
	if upd.Specializations != nil {
		p.Specializations = cleanTagList(&errs, "specializations", *upd.Specializations)
	}
	if upd.Availability != nil {
		p.Availability = cleanTagList(&errs, "availability", *upd.Availability)
	}
	if upd.ProfessionalBio != nil {
		p.ProfessionalBio = strings.TrimSpace(*upd.ProfessionalBio)
		checkLength(&errs, "professional_bio", p.ProfessionalBio, 2000)
	}
	if !errs.Empty() {
		return models.Profile{}, Invalid(errs)
	}

	updated, err := s.store.UpdateProfile(ctx, p)
	if err != nil {
		return models.Profile{}, fmt.Errorf("update profile: %w", notFoundAs(err, "profile"))
	}
	if updated.Role == models.RoleCounselor {
		invalidateCounselor(ctx, s.cache, s.log, updated.ID)
	}
	return updated, nil
}

// Counselors lists the public directory, optionally filtered by a
// case-insensitive specialization. The full directory is cached.
func (s *ProfileService) Counselors(ctx context.Context, specialization string) ([]models.CounselorListing, error) {
	var all []models.CounselorListing
	hit, err := s.cache.Get(ctx, counselorDirectoryKey, &all)
	if err != nil {
		s.log.Warnw("counselor directory cache read failed", "error", err)
	}
	if !hit {
		profiles, err := s.store.ListCounselors(ctx)
		if err != nil {
			return nil, fmt.Errorf("list counselors: %w", err)
		}
		all = make([]models.CounselorListing, 0, len(profiles))
		for _, p := range profiles {
			all = append(all, p.Listing())
		}
		if err := s.cache.Set(ctx, counselorDirectoryKey, all, DefaultCacheTTL); err != nil {
			s.log.Warnw("counselor directory cache write failed", "error", err)
		}
	}

	specialization = strings.TrimSpace(specialization)
	if specialization == "" {
		return all, nil
	}
	filtered := make([]models.CounselorListing, 0, len(all))
	for _, c := range all {
		for _, sp := range c.Specializations {
			if strings.EqualFold(sp, specialization) {
				filtered = append(filtered, c)
				break
			}
		}
	}
	return filtered, nil
}

func (s *ProfileService) Counselor(ctx context.Context, id uuid.UUID) (models.CounselorListing, error) {
	var listing models.CounselorListing
	if hit, _ := s.cache.Get(ctx, counselorKey(id), &listing); hit {
		return listing, nil
	}
	p, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return listing, notFoundAs(err, "counselor")
	}
	if p.Role != models.RoleCounselor {
		return listing, NotFound("counselor")
	}
	listing = p.Listing()
	if err := s.cache.Set(ctx, counselorKey(id), listing, DefaultCacheTTL); err != nil {
		s.log.Warnw("counselor cache write failed", "counselor_id", id, "error", err)
	}
	return listing, nil
}

func (s *ProfileService) ListUsers(ctx context.Context, role string, limit, offset int) ([]models.Profile, error) {
	r := models.Role(role)
	if role != "" && !r.Valid() {
		return nil, InvalidField("role", "must be user, counselor or admin")
	}
	limit, offset = clampPage(limit, offset)
	return s.store.ListProfiles(ctx, r, limit, offset)
}

// ChangeRole sets another user's role. Admins cannot change their own role.
func (s *ProfileService) ChangeRole(ctx context.Context, actor Actor, target uuid.UUID, role string) (models.Profile, error) {
	r := models.Role(role)
	if !r.Valid() {
		return models.Profile{}, InvalidField("role", "must be user, counselor or admin")
	}
	if actor.ID == target {
		return models.Profile{}, Forbidden("You cannot change your own role")
	}
	before, err := s.store.GetProfile(ctx, target)
	if err != nil {
		return models.Profile{}, notFoundAs(err, "user")
	}
	if before.Role == r {
		return before, nil
	}
	updated, err := s.store.SetRole(ctx, target, r)
	if err != nil {
		return models.Profile{}, notFoundAs(err, "user")
	}
	invalidateCounselor(ctx, s.cache, s.log, target)

	recordAudit(ctx, s.audit, s.log, models.AuditEvent{
		Kind:       models.AuditRoleChange,
		ActorID:    actor.ID.String(),
		TargetType: "profile",
		TargetID:   target.String(),
		Action:     "set_role",
		IPAddress:  actor.IP,
		Metadata:   map[string]interface{}{"from": string(before.Role), "to": string(r)},
	})
	return updated, nil
}

func invalidateCounselor(ctx context.Context, cache Cache, log *zap.SugaredLogger, id uuid.UUID) {
	if err := cache.Delete(ctx, counselorDirectoryKey, counselorKey(id)); err != nil {
		log.Warnw("counselor cache invalidation failed", "counselor_id", id, "error", err)
	}
}

func checkLength(errs *utils.ValidationErrors, field, value string, max int) {
	if utf8.RuneCountInString(value) > max {
		errs.Add(field, fmt.Sprintf("must be at most %d characters", max))
	}
}

func cleanTagList(errs *utils.ValidationErrors, field string, items []string) []string {
	out := utils.CleanList(items, maxListItems)
	for _, item := range out {
		if utf8.RuneCountInString(item) > maxListItemLength {
			errs.Add(field, fmt.Sprintf("entries must be at most %d characters", maxListItemLength))
			break
		}
	}
	return out
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
