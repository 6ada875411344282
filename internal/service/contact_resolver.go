package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"
	appErrors "github.com/SadmanHussainChowdhury/community-complaint-api/pkg/errors"
)

const defaultContactTTL = 10 * time.Minute

// ContactCache stores resolved contacts. Get reports a miss with appErrors.ErrCacheMiss.
type ContactCache interface {
	Get(ctx context.Context, userID string) (models.Contact, error)
	Put(ctx context.Context, contact models.Contact, ttl time.Duration) error
	Delete(ctx context.Context, userIDs ...string) error
}

// ContactResolver maps user ids to notification addresses through the user
// directory. The cache is optional and a cache outage only costs a directory read.
type ContactResolver struct {
	users   userDirectory
	cache   ContactCache
	ttl     time.Duration
	metrics *MetricsService
	logger  *zap.Logger
}

// NewContactResolver constructs a resolver. cache and metrics may be nil.
func NewContactResolver(users userDirectory, cache ContactCache, ttl time.Duration, metrics *MetricsService, logger *zap.Logger) *ContactResolver {
	if ttl <= 0 {
		ttl = defaultContactTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactResolver{users: users, cache: cache, ttl: ttl, metrics: metrics, logger: logger}
}

// Resolve returns the contact for userID. Unknown or inactive users resolve to an empty address.
func (r *ContactResolver) Resolve(ctx context.Context, userID string) (models.Contact, error) {
	if userID == "" {
		return models.Contact{}, nil
	}

	if contact, ok := r.cached(ctx, userID); ok {
		return contact, nil
	}

	user, err := r.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Contact{UserID: userID}, nil
		}
		return models.Contact{}, err
	}

	contact := models.Contact{UserID: user.ID, FullName: user.FullName}
	if user.Active {
		contact.Address = strings.TrimSpace(user.Email)
	}
	if r.cache != nil {
		if err := r.cache.Put(ctx, contact, r.ttl); err != nil {
			r.logger.Debug("contact cache write skipped", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return contact, nil
}

// Forget drops the cached contacts of the given users after a directory change.
func (r *ContactResolver) Forget(ctx context.Context, userIDs ...string) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Delete(ctx, userIDs...)
}

func (r *ContactResolver) cached(ctx context.Context, userID string) (models.Contact, bool) {
	if r.cache == nil {
		return models.Contact{}, false
	}
	start := time.Now()
	contact, err := r.cache.Get(ctx, userID)
	r.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		r.logger.Warn("contact cache read failed", zap.String("user_id", userID), zap.Error(err))
	}
	return contact, err == nil
}
