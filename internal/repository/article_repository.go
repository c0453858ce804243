package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/domain"
)

const articleCacheKey = "support:articles:published"

// ArticleRepository provides read-only access to the published knowledge
// base. The corpus is owned by the FAQ side of the product; this service
// never writes it.
type ArticleRepository interface {
	ListPublished(ctx context.Context) ([]domain.Article, error)
}

type articleRepository struct {
	pool     *pgxpool.Pool
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewArticleRepository builds the accessor. cache may be nil; a missing or
// unreachable cache degrades to direct Postgres reads.
func NewArticleRepository(pool *pgxpool.Pool, cache *redis.Client, cacheTTL time.Duration, logger *zap.Logger) ArticleRepository {
	return &articleRepository{pool: pool, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

func (r *articleRepository) ListPublished(ctx context.Context) ([]domain.Article, error) {
	if articles, ok := r.fromCache(ctx); ok {
		return articles, nil
	}

	const query = `
        SELECT id, title, description, category
        FROM articles WHERE published ORDER BY id ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Article
	for rows.Next() {
		var article domain.Article
		if err := rows.Scan(&article.ID, &article.Title, &article.Description, &article.Category); err != nil {
			return nil, err
		}
		result = append(result, article)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.storeCache(ctx, result)
	return result, nil
}

func (r *articleRepository) fromCache(ctx context.Context) ([]domain.Article, bool) {
	if r.cache == nil || r.cacheTTL <= 0 {
		return nil, false
	}
	raw, err := r.cache.Get(ctx, articleCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Debug("article cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var articles []domain.Article
	if err := json.Unmarshal(raw, &articles); err != nil {
		return nil, false
	}
	return articles, true
}

func (r *articleRepository) storeCache(ctx context.Context, articles []domain.Article) {
	if r.cache == nil || r.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(articles)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, articleCacheKey, raw, r.cacheTTL).Err(); err != nil {
		r.logger.Debug("article cache write failed", zap.Error(err))
	}
}
