package services

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/contribhub/backend/internal/models"
	"github.com/contribhub/backend/pkg/logger"
)

// TrendingScore computes the ranking score from raw counters and the age of
// the contribution in hours. Likes weigh full, views a tenth, top-level
// comments double; the time decay denominator keeps brand-new items from
// dividing by zero. Negative ages are clamped to zero so clock skew cannot
// inflate a score.
func TrendingScore(likes, views, topLevelComments int64, ageHours float64) float64 {
	if ageHours < 0 {
		ageHours = 0
	}
	engagement := float64(likes) + float64(views)*0.1 + float64(topLevelComments)*2
	return engagement / math.Pow(ageHours+2, 1.5)
}

// RankedContribution pairs a contribution with its computed score.
type RankedContribution struct {
	Contribution models.Contribution `json:"contribution"`
	Score        float64             `json:"score"`
}

type TrendingRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Type     string `form:"type" binding:"omitempty,oneof=idea question project"`
}

type TrendingResponse struct {
	Total    int                  `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
	Items    []RankedContribution `json:"items"`
}

// TrendingService ranks public contributions by engagement over recency.
// Ranking is computed over the full candidate set and paginated afterwards,
// so page boundaries are consistent within one computation.
type TrendingService struct {
	db *gorm.DB

	mu          sync.RWMutex
	snapshot    []RankedContribution
	snapshotAt  time.Time
	snapshotTTL time.Duration
}

func NewTrendingService(db *gorm.DB) *TrendingService {
	return &TrendingService{db: db, snapshotTTL: 5 * time.Minute}
}

// rank loads the candidate set and scores it as of now.
func (s *TrendingService) rank(now time.Time) ([]RankedContribution, error) {
	var contributions []models.Contribution
	if err := s.db.Where("is_public = ? AND status = ?", true, models.ContributionStatusActive).
		Find(&contributions).Error; err != nil {
		return nil, ErrStorage("failed to load contributions", err)
	}

	if len(contributions) == 0 {
		return []RankedContribution{}, nil
	}

	ids := make([]uint, len(contributions))
	for i, c := range contributions {
		ids[i] = c.ID
	}

	// Top-level comments only: replies do not count toward the score
	type commentCount struct {
		ContributionID uint
		Count          int64
	}
	var counts []commentCount
	if err := s.db.Model(&models.Comment{}).
		Select("contribution_id, COUNT(*) as count").
		Where("contribution_id IN ? AND parent_id IS NULL", ids).
		Group("contribution_id").
		Scan(&counts).Error; err != nil {
		return nil, ErrStorage("failed to count comments", err)
	}
	commentsByID := make(map[uint]int64, len(counts))
	for _, c := range counts {
		commentsByID[c.ContributionID] = c.Count
	}

	ranked := make([]RankedContribution, 0, len(contributions))
	for _, c := range contributions {
		age := now.Sub(c.CreatedAt).Hours()
		score := TrendingScore(int64(c.LikeCount), int64(c.ViewCount), commentsByID[c.ID], age)
		ranked = append(ranked, RankedContribution{Contribution: c, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		// Equal scores: newer first
		return ranked[i].Contribution.CreatedAt.After(ranked[j].Contribution.CreatedAt)
	})
	return ranked, nil
}

// Refresh recomputes the cached ranking immediately.
func (s *TrendingService) Refresh() error {
	ranked, err := s.rank(time.Now())
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.snapshot = ranked
	s.snapshotAt = time.Now()
	s.mu.Unlock()
	return nil
}

// Trending returns a page of the ranked feed. A fresh-enough snapshot is
// served as-is; a stale or missing one triggers recomputation.
func (s *TrendingService) Trending(req *TrendingRequest) (*TrendingResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	s.mu.RLock()
	ranked := s.snapshot
	fresh := !s.snapshotAt.IsZero() && time.Since(s.snapshotAt) < s.snapshotTTL
	s.mu.RUnlock()

	if !fresh {
		if err := s.Refresh(); err != nil {
			return nil, err
		}
		s.mu.RLock()
		ranked = s.snapshot
		s.mu.RUnlock()
	}

	if req.Type != "" {
		filtered := make([]RankedContribution, 0, len(ranked))
		for _, r := range ranked {
			if r.Contribution.Type == req.Type {
				filtered = append(filtered, r)
			}
		}
		ranked = filtered
	}

	total := len(ranked)
	start := (req.Page - 1) * req.PageSize
	if start > total {
		start = total
	}
	end := start + req.PageSize
	if end > total {
		end = total
	}

	return &TrendingResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    ranked[start:end],
	}, nil
}

// StartTrendingScheduler refreshes the trending snapshot on a fixed cron
// schedule so the hot path mostly serves from memory.
func StartTrendingScheduler(service *TrendingService) *cron.Cron {
	c := cron.New()

	_, err := c.AddFunc("*/5 * * * *", func() {
		if err := service.Refresh(); err != nil {
			logger.Error().Err(err).Msg("Trending refresh failed")
		}
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to register trending refresh job")
		return nil
	}

	c.Start()
	logger.Info().Msg("Trending refresh scheduler started (every 5 minutes)")
	return c
}
