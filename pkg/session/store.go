package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cicgroup/policy-quote-service/pkg/quote"
	redisLocal "github.com/cicgroup/policy-quote-service/pkg/redis"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "session"

	slotQuote = "quote"
	// member set of every slot key written for a session
	slotIndex = "keys"
	// member set of claim keys; they keep their own ttl
	slotClaims = "claims"
)

type Options struct {
	IdleTimeout time.Duration
	Logger      *slog.Logger
	Now         func() time.Time
	NewID       func() string
}

// Store is the explicit owner of session lifecycle: Start creates, Touch
// keeps alive, End tears down. Every key of a session shares its idle TTL.
type Store struct {
	rdb    *redis.Client
	idle   time.Duration
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

func NewStore(rdb *redis.Client, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	return &Store{
		rdb:    rdb,
		idle:   opts.IdleTimeout,
		logger: logger.With(slog.String("component", "session")),
		now:    now,
		newID:  newID,
	}
}

func (s *Store) IdleTimeout() time.Duration {
	return s.idle
}

func metaKey(id string) string {
	return redisLocal.Key(keyPrefix, id)
}

func slotKey(id, slot string) string {
	return redisLocal.Key(keyPrefix, id, slot)
}

func (s *Store) Start(ctx context.Context) (*Session, error) {
	now := s.now().UTC()
	sess := &Session{
		ID:          s.newID(),
		CreatedAt:   now,
		LastSeen:    now,
		IdleTimeout: s.idle,
	}

	err := s.writeMeta(ctx, sess)
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "session started", slog.String("session_id", sess.ID))
	return sess, nil
}

func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	raw, err := s.rdb.Get(ctx, metaKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess Session
	err = json.Unmarshal(raw, &sess)
	if err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	return &sess, nil
}

// Touch records activity and pushes the expiry of every session key out by
// the idle timeout.
func (s *Store) Touch(ctx context.Context, id string) (*Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sess.LastSeen = s.now().UTC()
	err = s.writeMeta(ctx, sess)
	if err != nil {
		return nil, err
	}

	members, err := s.rdb.SMembers(ctx, slotKey(id, slotIndex)).Result()
	if err != nil {
		return nil, fmt.Errorf("list session keys: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.PExpire(ctx, slotKey(id, slotIndex), s.idle)
	pipe.PExpire(ctx, slotKey(id, slotClaims), s.idle)
	for _, key := range members {
		pipe.PExpire(ctx, key, s.idle)
	}
	_, err = pipe.Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh session ttl: %w", err)
	}

	return sess, nil
}

// End deletes the session and everything stored for it, claims included.
func (s *Store) End(ctx context.Context, id string) error {
	members, err := s.rdb.SMembers(ctx, slotKey(id, slotIndex)).Result()
	if err != nil {
		return fmt.Errorf("list session keys: %w", err)
	}

	claims, err := s.rdb.SMembers(ctx, slotKey(id, slotClaims)).Result()
	if err != nil {
		return fmt.Errorf("list session claims: %w", err)
	}

	keys := append(members, claims...)
	keys = append(keys, metaKey(id), slotKey(id, slotIndex), slotKey(id, slotClaims))
	err = s.rdb.Del(ctx, keys...).Err()
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}

	s.logger.DebugContext(ctx, "session ended", slog.String("session_id", id))
	return nil
}

func (s *Store) writeMeta(ctx context.Context, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	err = s.rdb.Set(ctx, metaKey(sess.ID), raw, s.idle).Err()
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Save overwrites slot with the JSON encoding of v.
func (s *Store) Save(ctx context.Context, id, slot string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", slot, err)
	}

	key := slotKey(id, slot)

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, key, raw, s.idle)
	pipe.SAdd(ctx, slotKey(id, slotIndex), key)
	pipe.PExpire(ctx, slotKey(id, slotIndex), s.idle)
	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("save %s: %w", slot, err)
	}
	return nil
}

// Load decodes slot into v, returning ErrNotFound when nothing is stored.
func (s *Store) Load(ctx context.Context, id, slot string, v any) error {
	raw, err := s.rdb.Get(ctx, slotKey(id, slot)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", slot, err)
	}

	err = json.Unmarshal(raw, v)
	if err != nil {
		return fmt.Errorf("decode %s: %w", slot, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string, slots ...string) error {
	if len(slots) == 0 {
		return nil
	}

	keys := make([]string, 0, len(slots))
	for _, slot := range slots {
		keys = append(keys, slotKey(id, slot))
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, keys...)
	pipe.SRem(ctx, slotKey(id, slotIndex), toAny(keys)...)
	pipe.SRem(ctx, slotKey(id, slotClaims), toAny(keys)...)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete session slots: %w", err)
	}
	return nil
}

// Claim sets slot only if it is not already set and reports whether this
// caller got it. Claims keep their own ttl and are not refreshed by Touch,
// but End removes them.
func (s *Store) Claim(ctx context.Context, id, slot string, ttl time.Duration) (bool, error) {
	key := slotKey(id, slot)

	pipe := s.rdb.TxPipeline()
	claimed := pipe.SetNX(ctx, key, s.now().UTC().Format(time.RFC3339Nano), ttl)
	pipe.SAdd(ctx, slotKey(id, slotClaims), key)
	pipe.PExpire(ctx, slotKey(id, slotClaims), s.idle)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", slot, err)
	}
	return claimed.Val(), nil
}

// SaveQuote replaces the session's cached quote. There is only ever one: the
// most recent calculation.
func (s *Store) SaveQuote(ctx context.Context, id string, q quote.Quote) error {
	return s.Save(ctx, id, slotQuote, q)
}

func (s *Store) LoadQuote(ctx context.Context, id string) (quote.Quote, error) {
	var q quote.Quote
	err := s.Load(ctx, id, slotQuote, &q)
	return q, err
}

func toAny(keys []string) []any {
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}
