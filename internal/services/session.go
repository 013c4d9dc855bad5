package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// SessionDuration is 7 days
	SessionDuration = 7 * 24 * time.Hour
	// SessionKeyPrefix maps a session id to its user id
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix holds the set of live session ids for a user
	UserSessionKeyPrefix = "user_sessions:"
)

// SessionService issues signed session tokens and keeps them revocable through Redis.
// A token is accepted only while its signature, expiry and Redis record all check out.
type SessionService struct {
	rdb    *redis.Client
	secret []byte
	now    func() time.Time
}

func NewSessionService(rdb *redis.Client, secret string) *SessionService {
	return &SessionService{rdb: rdb, secret: []byte(secret), now: time.Now}
}

// Create starts a session for userID and returns the signed token and its expiry.
func (s *SessionService) Create(ctx context.Context, userID string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(SessionDuration)
	sessionID := uuid.NewString()

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	userKey := UserSessionKeyPrefix + userID
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, SessionKeyPrefix+sessionID, userID, SessionDuration)
	pipe.SAdd(ctx, userKey, sessionID)
	pipe.Expire(ctx, userKey, SessionDuration)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", time.Time{}, fmt.Errorf("store session: %w", err)
	}

	return token, expiresAt, nil
}

// Validate returns the user id behind token. A bad, expired or revoked token is
// reported as ok=false with a nil error; err is set only when Redis fails.
func (s *SessionService) Validate(ctx context.Context, token string) (string, bool, error) {
	if token == "" {
		return "", false, nil
	}
	claims, err := s.parse(token, true)
	if err != nil {
		return "", false, nil
	}

	userID, err := s.rdb.Get(ctx, SessionKeyPrefix+claims.ID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if userID != claims.Subject {
		return "", false, nil
	}
	return userID, true, nil
}

// Revoke ends the session behind token. Unknown or malformed tokens are ignored.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.parse(token, false)
	if err != nil {
		return nil
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, SessionKeyPrefix+claims.ID)
	pipe.SRem(ctx, UserSessionKeyPrefix+claims.Subject, claims.ID)
	_, err = pipe.Exec(ctx)
	return err
}

// RevokeAll ends every session of userID.
func (s *SessionService) RevokeAll(ctx context.Context, userID string) error {
	userKey := UserSessionKeyPrefix + userID
	ids, err := s.rdb.SMembers(ctx, userKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, SessionKeyPrefix+id)
	}
	keys = append(keys, userKey)
	return s.rdb.Del(ctx, keys...).Err()
}

func (s *SessionService) parse(token string, validateClaims bool) (*jwt.RegisteredClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if !validateClaims {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, errors.New("session token is missing claims")
	}
	return claims, nil
}
