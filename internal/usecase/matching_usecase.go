package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"psych-booking-engine/config"
	"psych-booking-engine/internal/domain/entity"
	"psych-booking-engine/internal/domain/repository"
	"psych-booking-engine/internal/metrics"
	"psych-booking-engine/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type MatchingUsecase interface {
	// MatchProvider never reports a miss as an error; check MatchResult.Matched.
	MatchProvider(ctx context.Context, region, category string) (*entity.MatchResult, error)
	RecordPendingMatch(ctx context.Context, clientID uuid.UUID, region, category, reason string) error
	// ProviderFor resolves a provider the client picked directly. Providers the
	// tiers would skip are refused with no_match.
	ProviderFor(ctx context.Context, providerID uuid.UUID) (*entity.ProviderProfile, error)
}

type matchingUsecase struct {
	db               *gorm.DB
	log              *logrus.Logger
	providerRepo     repository.ProviderProfileRepository
	pendingMatchRepo repository.PendingMatchRepository
	auditService     service.AuditService
	metrics          *metrics.BookingMetrics
	restricted       map[string]struct{}
}

func NewMatchingUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	providerRepo repository.ProviderProfileRepository,
	pendingMatchRepo repository.PendingMatchRepository,
	auditService service.AuditService,
	bookingMetrics *metrics.BookingMetrics,
	cfg config.BookingConfig,
) MatchingUsecase {
	restricted := make(map[string]struct{}, len(cfg.RestrictedRegions))
	for _, region := range cfg.RestrictedRegions {
		restricted[normalize(region)] = struct{}{}
	}
	return &matchingUsecase{
		db:               db,
		log:              log,
		providerRepo:     providerRepo,
		pendingMatchRepo: pendingMatchRepo,
		auditService:     auditService,
		metrics:          bookingMetrics,
		restricted:       restricted,
	}
}

type matchTier struct {
	tier     entity.MatchTier
	region   string
	category string
}

// MatchProvider walks the fallback tiers in order and returns the best-ranked
// provider of the first tier that has one. Restricted regions never fall back
// beyond their own region.
func (u *matchingUsecase) MatchProvider(ctx context.Context, region, category string) (*entity.MatchResult, error) {
	region = normalize(region)
	category = normalize(category)
	if region == "" || category == "" {
		return nil, newError(ReasonValidation, "region and category are required")
	}

	tiers := []matchTier{
		{tier: entity.MatchTierExact, region: region, category: category},
		{tier: entity.MatchTierRegion, region: region},
	}
	_, isRestricted := u.restricted[region]
	if !isRestricted {
		tiers = append(tiers,
			matchTier{tier: entity.MatchTierCategory, category: category},
			matchTier{tier: entity.MatchTierAny},
		)
	}

	for _, t := range tiers {
		candidates, err := u.providerRepo.FindAvailable(u.db.WithContext(ctx), t.region, t.category)
		if err != nil {
			u.log.Warnf("Failed to find providers for tier %s: %+v", t.tier, err)
			return nil, err
		}
		if len(candidates) == 0 {
			continue
		}

		rankProviders(candidates)
		best := candidates[0]
		u.metrics.ObserveMatch(string(t.tier))
		return &entity.MatchResult{
			Provider: &best,
			Tier:     t.tier,
			Message:  matchMessage(t.tier, region, category, &best),
		}, nil
	}

	u.metrics.ObserveMatch(string(entity.MatchTierNone))
	message := "No provider is currently available"
	if isRestricted {
		message = fmt.Sprintf("No provider is currently available in %s", region)
	}
	return &entity.MatchResult{Tier: entity.MatchTierNone, Message: message}, nil
}

// RecordPendingMatch keeps the client's intent so matching can be retried later.
func (u *matchingUsecase) RecordPendingMatch(ctx context.Context, clientID uuid.UUID, region, category, reason string) error {
	match := &entity.PendingMatch{
		ClientID: clientID,
		Region:   normalize(region),
		Category: normalize(category),
		Reason:   reason,
	}
	if err := u.pendingMatchRepo.Create(u.db.WithContext(ctx), match); err != nil {
		u.log.Warnf("Failed to record pending match for client %s: %+v", clientID, err)
		return err
	}

	u.auditService.RecordEvent(ctx, &clientID, entity.AuditActionMatchPending, map[string]interface{}{
		"pending_match_id": match.ID,
		"region":           match.Region,
		"category":         match.Category,
	})
	return nil
}

func (u *matchingUsecase) ProviderFor(ctx context.Context, providerID uuid.UUID) (*entity.ProviderProfile, error) {
	profile, err := u.providerRepo.FindByUserID(u.db.WithContext(ctx), providerID)
	if err != nil {
		u.log.Warnf("Failed to find provider %s: %+v", providerID, err)
		return nil, err
	}
	if profile == nil {
		return nil, newError(ReasonNotFound, "provider not found")
	}
	if !profile.IsAvailable {
		return nil, newError(ReasonNoMatch, fmt.Sprintf("%s is not accepting bookings", profile.DisplayName()))
	}
	return profile, nil
}

// rankProviders orders by rating desc, then experience desc, then id for a stable pick.
func rankProviders(providers []entity.ProviderProfile) {
	sort.SliceStable(providers, func(i, j int) bool {
		a, b := providers[i], providers[j]
		if c := a.Rating.Cmp(b.Rating); c != 0 {
			return c > 0
		}
		if a.ExperienceYears != b.ExperienceYears {
			return a.ExperienceYears > b.ExperienceYears
		}
		return a.UserID.String() < b.UserID.String()
	})
}

func matchMessage(tier entity.MatchTier, region, category string, p *entity.ProviderProfile) string {
	name := p.DisplayName()
	switch tier {
	case entity.MatchTierExact:
		return fmt.Sprintf("Matched %s, a %s specialist in %s", name, category, region)
	case entity.MatchTierRegion:
		return fmt.Sprintf("No %s specialist in %s; matched %s (%s) in the same region", category, region, name, p.Category)
	case entity.MatchTierCategory:
		return fmt.Sprintf("No provider in %s; matched %s, a %s specialist in %s", region, name, category, p.Region)
	default:
		return fmt.Sprintf("No %s specialist available; matched %s (%s, %s)", category, name, p.Category, p.Region)
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
