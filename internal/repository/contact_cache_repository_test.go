package repository

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"
	appErrors "github.com/SadmanHussainChowdhury/community-complaint-api/pkg/errors"
)

// hashStore answers the hash commands the repository issues without a server.
type hashStore struct {
	hashes map[string]map[string]string
	ttls   map[string]time.Duration
	log    []string
	fail   error
}

func newHashClient(t *testing.T) (*redis.Client, *hashStore) {
	t.Helper()
	store := &hashStore{hashes: map[string]map[string]string{}, ttls: map[string]time.Duration{}}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(store)
	t.Cleanup(func() { _ = client.Close() })
	return client, store
}

func (s *hashStore) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, errors.New("hash store does not dial")
	}
}

func (s *hashStore) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		return s.apply(cmd)
	}
}

func (s *hashStore) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			if err := s.apply(cmd); err != nil {
				return err
			}
		}
		return nil
	}
}

func (s *hashStore) apply(cmd redis.Cmder) error {
	if s.fail != nil {
		cmd.SetErr(s.fail)
		return s.fail
	}
	args := cmd.Args()
	s.log = append(s.log, cmd.Name())
	switch strings.ToLower(cmd.Name()) {
	case "hgetall":
		key := args[1].(string)
		out := map[string]string{}
		for k, v := range s.hashes[key] {
			out[k] = v
		}
		cmd.(*redis.MapStringStringCmd).SetVal(out)
	case "hset":
		key := args[1].(string)
		if s.hashes[key] == nil {
			s.hashes[key] = map[string]string{}
		}
		for i := 2; i+1 < len(args); i += 2 {
			s.hashes[key][args[i].(string)] = args[i+1].(string)
		}
		cmd.(*redis.IntCmd).SetVal(int64((len(args) - 2) / 2))
	case "expire":
		key := args[1].(string)
		s.ttls[key] = time.Duration(args[2].(int64)) * time.Second
		cmd.(*redis.BoolCmd).SetVal(true)
	case "del":
		var n int64
		for _, a := range args[1:] {
			if _, ok := s.hashes[a.(string)]; ok {
				n++
			}
			delete(s.hashes, a.(string))
		}
		cmd.(*redis.IntCmd).SetVal(n)
	}
	return nil
}

func TestContactCacheRoundTrip(t *testing.T) {
	client, store := newHashClient(t)
	repo := NewContactCacheRepository(client)
	ctx := context.Background()

	_, err := repo.Get(ctx, "staff-1")
	require.ErrorIs(t, err, appErrors.ErrCacheMiss)

	contact := models.Contact{UserID: "staff-1", Address: "sam@example.com", FullName: "Sam Staff"}
	require.NoError(t, repo.Put(ctx, contact, 5*time.Minute))
	assert.Equal(t, 5*time.Minute, store.ttls["contact:staff-1"])
	assert.Contains(t, store.log, "multi")
	assert.Contains(t, store.log, "exec")

	got, err := repo.Get(ctx, "staff-1")
	require.NoError(t, err)
	assert.Equal(t, contact, got)

	require.NoError(t, repo.Delete(ctx, "staff-1", "staff-2"))
	_, err = repo.Get(ctx, "staff-1")
	require.ErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestContactCacheIgnoresPartialEntries(t *testing.T) {
	client, store := newHashClient(t)
	store.hashes["contact:res-1"] = map[string]string{"address": "rita@example.com"}

	_, err := NewContactCacheRepository(client).Get(context.Background(), "res-1")
	require.ErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestContactCacheWrapsErrors(t *testing.T) {
	client, store := newHashClient(t)
	store.fail = errors.New("READONLY replica")
	repo := NewContactCacheRepository(client)

	_, err := repo.Get(context.Background(), "res-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.Contains(t, err.Error(), "redis hgetall contact res-1")

	err = repo.Put(context.Background(), models.Contact{UserID: "res-1"}, time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis put contact res-1")
}
