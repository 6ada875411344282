package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"
	appErrors "github.com/SadmanHussainChowdhury/community-complaint-api/pkg/errors"
)

const (
	contactKeyPrefix = "contact:"

	fieldUserID   = "user_id"
	fieldAddress  = "address"
	fieldFullName = "full_name"
)

// ContactCacheRepository keeps resolved contacts as Redis hashes keyed by user id.
type ContactCacheRepository struct {
	client redis.Cmdable
}

// NewContactCacheRepository constructs the repository.
func NewContactCacheRepository(client redis.Cmdable) *ContactCacheRepository {
	return &ContactCacheRepository{client: client}
}

func contactKey(userID string) string {
	return contactKeyPrefix + userID
}

// Get returns the cached contact or appErrors.ErrCacheMiss.
func (r *ContactCacheRepository) Get(ctx context.Context, userID string) (models.Contact, error) {
	values, err := r.client.HGetAll(ctx, contactKey(userID)).Result()
	if err != nil {
		return models.Contact{}, fmt.Errorf("redis hgetall contact %s: %w", userID, err)
	}
	// An entry written before a partial failure may lack the id field.
	if len(values) == 0 || values[fieldUserID] != userID {
		return models.Contact{}, appErrors.ErrCacheMiss
	}
	return models.Contact{
		UserID:   values[fieldUserID],
		Address:  values[fieldAddress],
		FullName: values[fieldFullName],
	}, nil
}

// Put replaces the cached contact and sets its expiry in one round trip.
func (r *ContactCacheRepository) Put(ctx context.Context, contact models.Contact, ttl time.Duration) error {
	key := contactKey(contact.UserID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			fieldUserID, contact.UserID,
			fieldAddress, contact.Address,
			fieldFullName, contact.FullName,
		)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put contact %s: %w", contact.UserID, err)
	}
	return nil
}

// Delete drops the cached contacts of the given users.
func (r *ContactCacheRepository) Delete(ctx context.Context, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = contactKey(id)
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete contacts: %w", err)
	}
	return nil
}
