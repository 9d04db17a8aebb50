package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 2 * time.Minute

// Cache provides Redis-backed discover result caching to offload repeated
// identical browses. Results are keyed on the normalized FilterSpec plus the
// viewer, since the viewer changes visibility.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ResultCache = (*Cache)(nil)

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) key(spec FilterSpec, viewer *uuid.UUID) string {
	who := "anon"
	if viewer != nil {
		who = viewer.String()
	}
	return strings.Join([]string{
		"discover",
		who,
		strings.Join(spec.Companies, ","), string(spec.CompanyLogic),
		strings.Join(spec.TimePeriods, ","), string(spec.TimePeriodLogic),
		difficultyList(spec.Difficulties),
		strings.Join(spec.Topics, ","),
		spec.Search,
		string(spec.SortBy), string(spec.SortOrder),
		fmt.Sprint(spec.Page), fmt.Sprint(spec.PageSize),
	}, "|")
}

func (c *Cache) Get(ctx context.Context, spec FilterSpec, viewer *uuid.UUID) (*CachedResult, error) {
	data, err := c.client.Get(ctx, c.key(spec, viewer)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var res CachedResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Cache) Set(ctx context.Context, spec FilterSpec, viewer *uuid.UUID, res CachedResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(spec, viewer), data, c.ttl).Err()
}

func difficultyList(ds []Difficulty) string {
	parts := make([]string, 0, len(ds))
	for _, d := range ds {
		parts = append(parts, string(d))
	}
	return strings.Join(parts, ",")
}
