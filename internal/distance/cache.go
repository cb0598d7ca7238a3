package distance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"

	"fieldroute/internal/model"
)

// Cached wraps an Estimator with a Redis cache keyed by the coordinate list.
// Matrices for a recurring stop set are fetched once per TTL, which matters
// when the inner estimator is a rate-limited external routing API.
type Cached struct {
	Inner Estimator
	RDB   *redis.Client
	TTL   time.Duration
}

func NewCached(inner Estimator, rdb *redis.Client) *Cached {
	return &Cached{Inner: inner, RDB: rdb, TTL: 24 * time.Hour}
}

func (c *Cached) Matrix(ctx context.Context, points []model.GeoPoint) (*Matrix, error) {
	key := cacheKey(points)
	if b, err := c.RDB.Get(ctx, key).Bytes(); err == nil {
		var m Matrix
		if err := json.Unmarshal(b, &m); err == nil && m.Size() == len(points) {
			return &m, nil
		}
	} else if err != redis.Nil {
		// Cache trouble is not fatal; fall through to the inner estimator.
		log.Printf("distance cache: get %s: %v", key, err)
	}

	m, err := c.Inner.Matrix(ctx, points)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(m); err == nil {
		if err := c.RDB.Set(ctx, key, b, c.TTL).Err(); err != nil {
			log.Printf("distance cache: set %s: %v", key, err)
		}
	}
	return m, nil
}

func cacheKey(points []model.GeoPoint) string {
	h := sha256.New()
	for _, p := range points {
		fmt.Fprintf(h, "%s,%s;",
			strconv.FormatFloat(p.Lat, 'f', 6, 64),
			strconv.FormatFloat(p.Lng, 'f', 6, 64))
	}
	return "matrix:" + hex.EncodeToString(h.Sum(nil))[:32]
}
