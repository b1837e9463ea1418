package rewards

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/resqmed/patient-api/internal/model"
	"github.com/resqmed/patient-api/internal/repository"
	"github.com/resqmed/patient-api/pkg/errors"
)

// Coin thresholds for helper tiers.
const (
	tierSilver   = 500
	tierGold     = 2000
	tierPlatinum = 5000
)

// Service runs the community-helper rewards: open help requests that a
// user can accept for ResQ coins or decline. Backed by the postgres
// ledger when one is wired; otherwise it serves a seeded in-memory set,
// matching the app's demo behavior.
type Service struct {
	repo repository.RewardsRepository

	mu       sync.Mutex
	requests []*model.HelpRequest
	stats    map[string]*model.HelperStats
}

func NewService(repo repository.RewardsRepository) *Service {
	s := &Service{repo: repo}
	if repo == nil {
		s.requests = seedRequests()
		s.stats = make(map[string]*model.HelperStats)
	}
	return s
}

// ListRequests returns the open help requests.
func (s *Service) ListRequests(ctx context.Context) ([]*model.HelpRequest, error) {
	if s.repo != nil {
		reqs, err := s.repo.ListOpenRequests(ctx)
		if err != nil {
			return nil, errors.Internal(err)
		}
		return reqs, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.HelpRequest, len(s.requests))
	copy(out, s.requests)
	return out, nil
}

// Accept awards the request's coins to the user, bumps the assist count
// and closes the request. A request pays out at most once.
func (s *Service) Accept(ctx context.Context, userID, requestID string) (*model.HelperStats, error) {
	if s.repo != nil {
		stats, err := s.repo.ApplyReward(ctx, userID, requestID)
		if err == repository.ErrNotFound {
			return nil, errors.NotFound("help request", err)
		}
		if err != nil {
			return nil, errors.Internal(err)
		}
		stats.Tier = TierFor(stats.Coins)
		return stats, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, r := range s.requests {
		if r.ID == requestID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, errors.NotFound("help request", nil)
	}

	req := s.requests[idx]
	s.requests = append(s.requests[:idx], s.requests[idx+1:]...)

	stats := s.statsFor(userID)
	stats.Coins += req.Reward
	stats.TotalAssists++
	stats.Tier = TierFor(stats.Coins)

	out := *stats
	return &out, nil
}

// Decline removes a request without any payout.
func (s *Service) Decline(ctx context.Context, requestID string) error {
	if s.repo != nil {
		err := s.repo.DeleteRequest(ctx, requestID)
		if err == repository.ErrNotFound {
			return errors.NotFound("help request", err)
		}
		if err != nil {
			return errors.Internal(err)
		}
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.requests {
		if r.ID == requestID {
			s.requests = append(s.requests[:i], s.requests[i+1:]...)
			return nil
		}
	}
	return errors.NotFound("help request", nil)
}

// Stats returns the user's coin balance, assists and tier.
func (s *Service) Stats(ctx context.Context, userID string) (*model.HelperStats, error) {
	if s.repo != nil {
		stats, err := s.repo.GetStats(ctx, userID)
		if err != nil {
			return nil, errors.Internal(err)
		}
		stats.Tier = TierFor(stats.Coins)
		return stats, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.statsFor(userID)
	stats.Tier = TierFor(stats.Coins)
	out := *stats
	return &out, nil
}

// statsFor returns the in-memory stats record, seeding the demo balance
// on first access. Callers hold s.mu.
func (s *Service) statsFor(userID string) *model.HelperStats {
	if st, ok := s.stats[userID]; ok {
		return st
	}
	st := &model.HelperStats{UserID: userID, Coins: 320, TotalAssists: 6}
	s.stats[userID] = st
	return st
}

// TierFor maps a coin balance to a helper tier.
func TierFor(coins int) string {
	switch {
	case coins >= tierPlatinum:
		return "Platinum"
	case coins >= tierGold:
		return "Gold"
	case coins >= tierSilver:
		return "Silver"
	default:
		return "Bronze"
	}
}

func seedRequests() []*model.HelpRequest {
	now := time.Now()
	return []*model.HelpRequest{
		{ID: uuid.NewString(), Name: "Asha Verma", Situation: "Needs a ride to the clinic", Location: "Sector 12 Market", Reward: 40, CreatedAt: now.Add(-10 * time.Minute)},
		{ID: uuid.NewString(), Name: "Ravi Kumar", Situation: "Ran out of blood pressure medicine", Location: "Green Park", Reward: 60, CreatedAt: now.Add(-25 * time.Minute)},
		{ID: uuid.NewString(), Name: "Meena Joshi", Situation: "Elderly neighbour needs groceries", Location: "Lake View Colony", Reward: 30, CreatedAt: now.Add(-40 * time.Minute)},
	}
}
