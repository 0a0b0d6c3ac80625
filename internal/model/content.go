package model

import "time"

// Tier is the publisher quality bucket assigned by the platform.
type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// EngagementSignals holds the interaction counters collected for a post.
type EngagementSignals struct {
	Clicks         int     `json:"clicks" yaml:"clicks"`
	Shares         int     `json:"shares" yaml:"shares"`
	Comments       int     `json:"comments" yaml:"comments"`
	Views          int     `json:"views" yaml:"views"`
	Likes          int     `json:"likes" yaml:"likes"`
	AvgViewSeconds float64 `json:"avgViewSeconds" yaml:"avgViewSeconds"`
}

// ConversionSignals holds the sales results attributed to a post.
// ConversionRate is a fraction in [0,1].
type ConversionSignals struct {
	Sales          int     `json:"sales" yaml:"sales"`
	Revenue        float64 `json:"revenue" yaml:"revenue"`
	AvgOrderValue  float64 `json:"avgOrderValue" yaml:"avgOrderValue"`
	ConversionRate float64 `json:"conversionRate" yaml:"conversionRate"`
}

// PublisherProfile describes the affiliate who published a post.
// All scores are in [0,100].
type PublisherProfile struct {
	ConversionHistory float64 `json:"conversionHistory" yaml:"conversionHistory"`
	TrustScore        float64 `json:"trustScore" yaml:"trustScore"`
	ComplaintRate     float64 `json:"complaintRate" yaml:"complaintRate"`
	Tier              Tier    `json:"tier" yaml:"tier"`
}

// ContentItem is a post as consumed by the ranking engine.
type ContentItem struct {
	ID           string            `json:"id" yaml:"id"`
	Body         string            `json:"body" yaml:"body"`
	ProductPrice float64           `json:"productPrice" yaml:"productPrice"`
	Category     string            `json:"category" yaml:"category"`
	CreatedAt    time.Time         `json:"createdAt" yaml:"createdAt"`
	Engagement   EngagementSignals `json:"engagement" yaml:"engagement"`
	Conversion   ConversionSignals `json:"conversion" yaml:"conversion"`
	Publisher    PublisherProfile  `json:"publisher" yaml:"publisher"`
	Trending     bool              `json:"trending,omitempty" yaml:"trending"`
}

// RankingFactors is the per-item breakdown behind a boost score.
// TrendingBonus is a fraction in [0,1]; the other factors are in [0,100].
type RankingFactors struct {
	EngagementScore float64 `json:"engagementScore"`
	ConversionScore float64 `json:"conversionScore"`
	AffiliateScore  float64 `json:"affiliateScore"`
	TrendingBonus   float64 `json:"trendingBonus"`
}

// RankedItem is a ContentItem annotated with its computed score.
type RankedItem struct {
	ContentItem
	BoostScore     float64        `json:"boostScore"`
	RankingFactors RankingFactors `json:"rankingFactors"`
}

// TopItem is a compact entry of RankingStats.Top.
type TopItem struct {
	ID       string  `json:"id"`
	Score    float64 `json:"score"`
	Category string  `json:"category"`
}

// RankingStats summarizes a ranked batch.
type RankingStats struct {
	Count         int       `json:"count"`
	AverageScore  float64   `json:"averageScore"`
	Top           []TopItem `json:"top"`
	Categories    []string  `json:"categories"`
	TrendingCount int       `json:"trendingCount"`
}

// FeedResponse is the API response for feed lookups.
type FeedResponse struct {
	Items       []RankedItem  `json:"items"`
	Stats       *RankingStats `json:"stats"`
	GeneratedAt time.Time     `json:"generatedAt"`
}

// RankRequest is the API request body for ranking a caller-supplied batch.
type RankRequest struct {
	Items []ContentItem `json:"items"`
}

// TrendingRequest is the API request body for replacing trending categories.
type TrendingRequest struct {
	Categories []string `json:"categories"`
}

// TrendingResponse lists the current trending categories.
type TrendingResponse struct {
	Categories []string `json:"categories"`
	Season     string   `json:"season,omitempty"`
}
