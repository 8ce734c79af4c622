package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/novelnest/backend/internal/models"
	"github.com/sirupsen/logrus"
)

// CoinPackageStore reads coin packages, caching active ones in Redis.
// Packages are read-mostly, so a deactivated package may still be sold for
// up to one TTL.
type CoinPackageStore struct {
	db    *sql.DB
	redis *redis.Client
	ttl   time.Duration
	log   *logrus.Entry
}

func NewCoinPackageStore(db *sql.DB, redisClient *redis.Client, ttl time.Duration) *CoinPackageStore {
	return &CoinPackageStore{
		db:    db,
		redis: redisClient,
		ttl:   ttl,
		log:   logrus.WithField("component", "coin_packages"),
	}
}

func packageCacheKey(id string) string {
	return fmt.Sprintf("coin_package:%s", id)
}

// GetActive returns the active package with the given id.
func (s *CoinPackageStore) GetActive(ctx context.Context, id string) (*models.CoinPackage, error) {
	if pkg := s.fromCache(ctx, id); pkg != nil {
		return pkg, nil
	}

	var pkg models.CoinPackage
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, price, currency, coins_amount, is_active
		FROM coin_packages
		WHERE id = $1 AND is_active = true`, id).
		Scan(&pkg.ID, &pkg.Name, &pkg.Price, &pkg.Currency, &pkg.CoinsAmount, &pkg.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, newError(KindNotFound, "The selected coin package was not found or is currently unavailable.")
	}
	if err != nil {
		return nil, wrapError(KindPersistenceFailure, "Failed to load coin package.", err)
	}

	s.toCache(ctx, &pkg)
	return &pkg, nil
}

// ListActive returns every package that can currently be bought, cheapest first.
func (s *CoinPackageStore) ListActive(ctx context.Context) ([]models.CoinPackage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, price, currency, coins_amount, is_active
		FROM coin_packages
		WHERE is_active = true
		ORDER BY price ASC`)
	if err != nil {
		return nil, wrapError(KindPersistenceFailure, "Failed to load coin packages.", err)
	}
	defer rows.Close()

	packages := []models.CoinPackage{}
	for rows.Next() {
		var pkg models.CoinPackage
		if err := rows.Scan(&pkg.ID, &pkg.Name, &pkg.Price, &pkg.Currency, &pkg.CoinsAmount, &pkg.IsActive); err != nil {
			return nil, wrapError(KindPersistenceFailure, "Failed to load coin packages.", err)
		}
		packages = append(packages, pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(KindPersistenceFailure, "Failed to load coin packages.", err)
	}
	return packages, nil
}

func (s *CoinPackageStore) fromCache(ctx context.Context, id string) *models.CoinPackage {
	if s.redis == nil {
		return nil
	}

	data, err := s.redis.Get(ctx, packageCacheKey(id)).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		s.log.WithError(err).Warn("coin package cache read failed")
		return nil
	}

	var pkg models.CoinPackage
	if err := json.Unmarshal(data, &pkg); err != nil {
		s.log.WithError(err).Warn("discarding corrupt coin package cache entry")
		s.redis.Del(ctx, packageCacheKey(id))
		return nil
	}
	return &pkg
}

func (s *CoinPackageStore) toCache(ctx context.Context, pkg *models.CoinPackage) {
	if s.redis == nil || s.ttl <= 0 {
		return
	}

	data, err := json.Marshal(pkg)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, packageCacheKey(pkg.ID), data, s.ttl).Err(); err != nil {
		s.log.WithError(err).Warn("coin package cache write failed")
	}
}
