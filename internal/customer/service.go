package customer

import (
	"context"
	"fmt"
	"time"

	"github.com/mbd888/codtrack/internal/blacklist"
	"github.com/mbd888/codtrack/internal/orders"
	"github.com/mbd888/codtrack/internal/traces"
)

// OrderSource supplies order histories for profile calculation.
type OrderSource interface {
	ListByPhone(ctx context.Context, merchantID, phone string) ([]*orders.Order, error)
	ListPhones(ctx context.Context, merchantID string) ([]string, error)
}

// BlacklistSource supplies blacklist timestamps.
type BlacklistSource interface {
	Get(ctx context.Context, merchantID, phone string) (*blacklist.Entry, error)
}

// Service computes customer risk profiles on demand from the order log.
type Service struct {
	calc      *Calculator
	orders    OrderSource
	blacklist BlacklistSource
}

// NewService creates a customer risk service.
func NewService(orderSource OrderSource, blacklistSource BlacklistSource) *Service {
	return &Service{
		calc:      NewCalculator(),
		orders:    orderSource,
		blacklist: blacklistSource,
	}
}

// Profile replays the phone's entire history for the merchant. Returns
// (nil, nil) when the phone has no orders — an absent customer is not an
// error.
func (s *Service) Profile(ctx context.Context, merchantID, phone string) (*Profile, error) {
	ctx, span := traces.StartSpan(ctx, "customer.profile",
		traces.MerchantID(merchantID), traces.Phone(phone))
	defer span.End()

	history, err := s.orders.ListByPhone(ctx, merchantID, phone)
	if err != nil {
		return nil, fmt.Errorf("customer: load history for %s: %w", phone, err)
	}
	if len(history) == 0 {
		return nil, nil
	}

	listedAt, err := s.blacklistedAt(ctx, merchantID, phone)
	if err != nil {
		return nil, err
	}
	return s.calc.Calculate(phone, history, listedAt), nil
}

// Profiles computes every customer profile for a merchant.
func (s *Service) Profiles(ctx context.Context, merchantID string) (map[string]*Profile, error) {
	ctx, span := traces.StartSpan(ctx, "customer.profiles",
		traces.MerchantID(merchantID))
	defer span.End()

	phones, err := s.orders.ListPhones(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("customer: list phones: %w", err)
	}

	profiles := make(map[string]*Profile, len(phones))
	for _, phone := range phones {
		p, err := s.Profile(ctx, merchantID, phone)
		if err != nil {
			return nil, err
		}
		if p != nil {
			profiles[phone] = p
		}
	}
	return profiles, nil
}

func (s *Service) blacklistedAt(ctx context.Context, merchantID, phone string) (*time.Time, error) {
	entry, err := s.blacklist.Get(ctx, merchantID, phone)
	if err == blacklist.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("customer: check blacklist for %s: %w", phone, err)
	}
	t := entry.CreatedAt
	return &t, nil
}
