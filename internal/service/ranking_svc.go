package service

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/vitrine-app/vitrine-go/internal/model"
)

const (
	engagementWeight = 0.40
	conversionWeight = 0.35
	affiliateWeight  = 0.20
	trendingWeight   = 0.05

	// Engagement sub-score mix
	ctrWeight       = 0.40
	sharesWeight    = 0.30
	commentsWeight  = 0.20
	viewTimeWeight  = 0.10
	shareMultiplier = 2.0
	viewTimeCapSecs = 30.0

	// Conversion uplift caps
	aovDivisor     = 1000.0
	aovUpliftMax   = 0.5
	revenueDivisor = 10000.0
	revenueUplift  = 0.3

	// Publisher sub-score mix
	historyWeight     = 0.6
	trustWeight       = 0.4
	noComplaintBonus  = 1.15
	lowComplaintBonus = 1.05
	lowComplaintRate  = 5.0

	trendingBoost    = 0.20
	highTicketBoost  = 0.10
	highTicketPrice  = 500.0
	maxSubScore      = 100.0
	maxTrendingBonus = 1.0
	topStatsItems    = 5
)

// TierMultipliers maps publisher tiers to their status multiplier.
// Unknown tiers score as bronze.
var TierMultipliers = map[model.Tier]float64{
	model.TierBronze:   1.0,
	model.TierSilver:   1.1,
	model.TierGold:     1.2,
	model.TierPlatinum: 1.3,
}

// RankingService orders content by expected monetization value. It owns the
// trending-category set, which is replaced wholesale by UpdateTrendingCategories.
type RankingService struct {
	seasons []SeasonalWindow
	now     func() time.Time

	mu       sync.RWMutex
	trending map[string]struct{}
}

func NewRankingService(seasons []SeasonalWindow) *RankingService {
	return &RankingService{
		seasons:  seasons,
		now:      time.Now,
		trending: make(map[string]struct{}),
	}
}

// WithClock replaces the clock used for seasonal windows. Tests inject fixed dates here.
func (s *RankingService) WithClock(now func() time.Time) *RankingService {
	s.now = now
	return s
}

// UpdateTrendingCategories replaces the trending set.
func (s *RankingService) UpdateTrendingCategories(categories []string) {
	next := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		if c == "" {
			continue
		}
		next[c] = struct{}{}
	}

	s.mu.Lock()
	s.trending = next
	s.mu.Unlock()
}

// TrendingCategories returns a sorted copy of the trending set.
func (s *RankingService) TrendingCategories() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.trending))
	for c := range s.trending {
		out = append(out, c)
	}
	s.mu.RUnlock()

	sort.Strings(out)
	return out
}

// ActiveSeason returns the seasonal window in effect right now, if any.
func (s *RankingService) ActiveSeason() (SeasonalWindow, bool) {
	return ActiveSeason(s.seasons, s.now())
}

func (s *RankingService) isTrending(category string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.trending[category]
	return ok
}

// EngagementScore weighs click-through rate, shares, comments and view time:
//
//	ctr = clicks / max(views, 1)
//	score = 0.4*ctr*100 + 0.3*shares*2 + 0.2*comments + 0.1*min(avgView/30, 1)*100
func EngagementScore(e model.EngagementSignals) float64 {
	views := math.Max(float64(e.Views), 1)
	ctr := float64(e.Clicks) / views
	viewTime := math.Min(e.AvgViewSeconds/viewTimeCapSecs, 1) * 100

	score := ctr*100*ctrWeight +
		float64(e.Shares)*shareMultiplier*sharesWeight +
		float64(e.Comments)*commentsWeight +
		viewTime*viewTimeWeight
	return clamp(score, 0, maxSubScore)
}

// ConversionScore scales the conversion rate by capped order-value and revenue uplifts:
//
//	score = rate*100 * (1 + min(aov/1000, 0.5)) * (1 + min(revenue/10000, 0.3))
func ConversionScore(c model.ConversionSignals) float64 {
	score := c.ConversionRate * 100
	score *= 1 + math.Min(c.AvgOrderValue/aovDivisor, aovUpliftMax)
	score *= 1 + math.Min(c.Revenue/revenueDivisor, revenueUplift)
	return clamp(score, 0, maxSubScore)
}

// AffiliateScore rewards publisher track record, a clean complaint history and tier.
func AffiliateScore(p model.PublisherProfile) float64 {
	score := p.ConversionHistory*historyWeight + p.TrustScore*trustWeight

	switch {
	case p.ComplaintRate == 0:
		score *= noComplaintBonus
	case p.ComplaintRate < lowComplaintRate:
		score *= lowComplaintBonus
	}

	mult, ok := TierMultipliers[p.Tier]
	if !ok {
		mult = TierMultipliers[model.TierBronze]
	}
	return clamp(score*mult, 0, maxSubScore)
}

// TrendingBonus returns the fractional boost for trending and seasonal relevance.
func (s *RankingService) TrendingBonus(item model.ContentItem, at time.Time) float64 {
	bonus := 0.0
	if item.Trending || s.isTrending(item.Category) {
		bonus += trendingBoost
	}
	if season, ok := ActiveSeason(s.seasons, at); ok {
		bonus *= season.Multiplier
	}
	if item.ProductPrice > highTicketPrice && InDiscountSeason(s.seasons, at) {
		bonus += highTicketBoost
	}
	return clamp(bonus, 0, maxTrendingBonus)
}

// Score computes the boost score for a single item. The input is not modified.
func (s *RankingService) Score(item model.ContentItem) model.RankedItem {
	return s.scoreAt(item, s.now())
}

func (s *RankingService) scoreAt(item model.ContentItem, at time.Time) model.RankedItem {
	factors := model.RankingFactors{
		EngagementScore: EngagementScore(item.Engagement),
		ConversionScore: ConversionScore(item.Conversion),
		AffiliateScore:  AffiliateScore(item.Publisher),
		TrendingBonus:   s.TrendingBonus(item, at),
	}

	base := factors.EngagementScore*engagementWeight +
		factors.ConversionScore*conversionWeight +
		factors.AffiliateScore*affiliateWeight
	final := base + base*factors.TrendingBonus*trendingWeight

	return model.RankedItem{
		ContentItem:    item,
		BoostScore:     round2(final),
		RankingFactors: factors,
	}
}

// Rank scores every item and returns them by descending boost score.
// Ties keep their input order.
func (s *RankingService) Rank(items []model.ContentItem) []model.RankedItem {
	at := s.now()
	ranked := make([]model.RankedItem, 0, len(items))
	for _, it := range items {
		ranked = append(ranked, s.scoreAt(it, at))
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].BoostScore > ranked[j].BoostScore
	})
	return ranked
}

// Stats summarizes a ranked batch. Returns nil for an empty batch.
func (s *RankingService) Stats(ranked []model.RankedItem) *model.RankingStats {
	if len(ranked) == 0 {
		return nil
	}

	var total float64
	seen := make(map[string]struct{})
	stats := &model.RankingStats{Count: len(ranked), Categories: []string{}}
	for _, r := range ranked {
		total += r.BoostScore
		if r.Trending {
			stats.TrendingCount++
		}
		if _, ok := seen[r.Category]; !ok {
			seen[r.Category] = struct{}{}
			stats.Categories = append(stats.Categories, r.Category)
		}
	}
	stats.AverageScore = round2(total / float64(len(ranked)))

	n := min(len(ranked), topStatsItems)
	stats.Top = make([]model.TopItem, 0, n)
	for _, r := range ranked[:n] {
		stats.Top = append(stats.Top, model.TopItem{ID: r.ID, Score: r.BoostScore, Category: r.Category})
	}
	return stats
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
