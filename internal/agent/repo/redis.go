package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/voicecv-core/server/internal/agent/model"
	errx "github.com/voicecv-core/server/internal/core/error"
	logx "github.com/voicecv-core/server/pkg/logger"
)

// Session hashes hold two fields: "version" and the JSON "data".
const (
	fieldVersion = "version"
	fieldData    = "data"
)

// saveScript writes data only when the stored version equals ARGV[1].
// Returns the new version, -1 on conflict and 0 when the key is gone.
var saveScript = redis.NewScript(`
local current = redis.call("HGET", KEYS[1], "version")
if not current then
	return 0
end
if tonumber(current) ~= tonumber(ARGV[1]) then
	return -1
end
local version = tonumber(current) + 1
redis.call("HSET", KEYS[1], "version", version, "data", ARGV[2])
if tonumber(ARGV[3]) > 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[3])
end
return version
`)

type RedisSessionRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
	now func() time.Time
}

func NewRedisSessionRepository(rdb redis.Cmdable, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{rdb: rdb, ttl: ttl, now: time.Now}
}

func (r *RedisSessionRepository) sessionKey(sessionID string) string {
	return fmt.Sprintf("cv:session:%s", sessionID)
}

func (r *RedisSessionRepository) Create(ctx context.Context) (*model.Session, error) {
	s := model.NewSession(uuid.NewString(), r.now())
	s.Version = 1

	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	key := r.sessionKey(s.ID)

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fieldVersion, s.Version, fieldData, b)
		if r.ttl > 0 {
			pipe.PExpire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to create session in redis")
		return nil, errx.WrapRedis(err)
	}
	return s, nil
}

func (r *RedisSessionRepository) Load(ctx context.Context, sessionID string) (*model.Session, error) {
	key := r.sessionKey(sessionID)

	vals, err := r.rdb.HMGet(ctx, key, fieldVersion, fieldData).Result()
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to load session from redis")
		return nil, errx.WrapRedis(err)
	}
	data, ok := vals[1].(string)
	if !ok {
		return nil, errx.WrapRedis(errx.ErrSessionNotFound)
	}

	var s model.Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("failed to unmarshal session")
		return nil, fmt.Errorf("unmarshal session %s: %w", sessionID, err)
	}
	// the hash field is authoritative for the version
	if v, ok := vals[0].(string); ok {
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse session version %q: %w", v, err)
		}
		s.Version = version
	}
	if s.Turns == nil {
		s.Turns = []model.Turn{}
	}
	return &s, nil
}

func (r *RedisSessionRepository) Save(ctx context.Context, session *model.Session) error {
	key := r.sessionKey(session.ID)

	next := *session
	next.Version = session.Version + 1
	b, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	res, err := saveScript.Run(ctx, r.rdb, []string{key}, session.Version, b, r.ttl.Milliseconds()).Int64()
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save session to redis")
		return errx.WrapRedis(err)
	}
	switch {
	case res == 0:
		return errx.WrapRedis(errx.ErrSessionNotFound)
	case res < 0:
		logx.Warn().Str("session_id", session.ID).Int64("version", session.Version).Msg("stale session write rejected")
		return errx.WrapRedis(errx.ErrVersionConflict)
	}
	session.Version = res
	return nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, sessionID string) error {
	key := r.sessionKey(sessionID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete session from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.SessionRepository = (*RedisSessionRepository)(nil)
