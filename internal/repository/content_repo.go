package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitrine-app/vitrine-go/internal/model"
)

// MaxFeedLimit caps how many posts a single feed request may rank.
const MaxFeedLimit = 200

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var contentColumns = []string{
	"c.id", "c.body", "c.product_price", "c.category", "c.created_at",
	"c.clicks", "c.shares", "c.comments", "c.views", "c.likes", "c.avg_view_seconds",
	"c.sales", "c.revenue", "c.avg_order_value", "c.conversion_rate",
	"p.conversion_history", "p.trust_score", "p.complaint_rate", "p.tier",
	"c.trending",
}

// ContentFilter narrows a feed listing.
type ContentFilter struct {
	Category string
	Since    time.Time
	Limit    int
}

type ContentRepo struct {
	pool *pgxpool.Pool
}

func NewContentRepo(pool *pgxpool.Pool) *ContentRepo {
	return &ContentRepo{pool: pool}
}

// ListRecent returns the newest posts joined with their publisher profile.
func (r *ContentRepo) ListRecent(ctx context.Context, f ContentFilter) ([]model.ContentItem, error) {
	q := buildListRecent(f)
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build content query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.ContentItem{}
	for rows.Next() {
		var it model.ContentItem
		var tier string
		err := rows.Scan(
			&it.ID, &it.Body, &it.ProductPrice, &it.Category, &it.CreatedAt,
			&it.Engagement.Clicks, &it.Engagement.Shares, &it.Engagement.Comments,
			&it.Engagement.Views, &it.Engagement.Likes, &it.Engagement.AvgViewSeconds,
			&it.Conversion.Sales, &it.Conversion.Revenue, &it.Conversion.AvgOrderValue,
			&it.Conversion.ConversionRate,
			&it.Publisher.ConversionHistory, &it.Publisher.TrustScore,
			&it.Publisher.ComplaintRate, &tier,
			&it.Trending,
		)
		if err != nil {
			return nil, err
		}
		it.Publisher.Tier = model.Tier(tier)
		items = append(items, it)
	}
	return items, rows.Err()
}

// TopCategories returns up to n categories ordered by engagement since the given time.
func (r *ContentRepo) TopCategories(ctx context.Context, since time.Time, n int) ([]string, error) {
	query, args, err := buildTopCategories(since, n).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build trending query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		var engagement int64
		if err := rows.Scan(&c, &engagement); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func buildListRecent(f ContentFilter) sq.SelectBuilder {
	limit := f.Limit
	if limit <= 0 || limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}

	q := psql.Select(contentColumns...).
		From("content_items c").
		Join("publishers p ON p.id = c.publisher_id").
		Where(sq.Eq{"c.published": true}).
		OrderBy("c.created_at DESC").
		Limit(uint64(limit))

	if f.Category != "" {
		q = q.Where(sq.Eq{"c.category": f.Category})
	}
	if !f.Since.IsZero() {
		q = q.Where(sq.GtOrEq{"c.created_at": f.Since})
	}
	return q
}

func buildTopCategories(since time.Time, n int) sq.SelectBuilder {
	return psql.Select("category", "SUM(clicks + shares + comments + likes) AS engagement").
		From("content_items").
		Where(sq.Eq{"published": true}).
		Where(sq.GtOrEq{"created_at": since}).
		Where(sq.NotEq{"category": ""}).
		GroupBy("category").
		OrderBy("engagement DESC", "category ASC").
		Limit(uint64(n))
}
