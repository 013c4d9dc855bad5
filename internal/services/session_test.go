package services

import (
	"context"
	"testing"
	"time"
)

func TestSessionLifecycle(t *testing.T) {
	mr, rdb := newTestRedis(t)
	svc := NewSessionService(rdb, "test-secret")
	ctx := context.Background()

	token, expiresAt, err := svc.Create(ctx, "user-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if time.Until(expiresAt) < SessionDuration-time.Minute {
		t.Fatalf("unexpected expiry %v", expiresAt)
	}

	userID, ok, err := svc.Validate(ctx, token)
	if err != nil || !ok || userID != "user-1" {
		t.Fatalf("validate = %q %v %v", userID, ok, err)
	}

	members, err := mr.SMembers(UserSessionKeyPrefix + "user-1")
	if err != nil || len(members) != 1 {
		t.Fatalf("expected one tracked session, got %v (%v)", members, err)
	}
	if ttl := mr.TTL(SessionKeyPrefix + members[0]); ttl != SessionDuration {
		t.Fatalf("session ttl = %v", ttl)
	}

	if err := svc.Revoke(ctx, token); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, ok, _ := svc.Validate(ctx, token); ok {
		t.Fatalf("revoked token still valid")
	}
}

func TestSessionRejectsBadTokens(t *testing.T) {
	_, rdb := newTestRedis(t)
	svc := NewSessionService(rdb, "test-secret")
	other := NewSessionService(rdb, "other-secret")
	ctx := context.Background()

	forged, _, err := other.Create(ctx, "user-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for name, token := range map[string]string{
		"empty":     "",
		"garbage":   "not-a-token",
		"wrong key": forged,
	} {
		t.Run(name, func(t *testing.T) {
			_, ok, err := svc.Validate(ctx, token)
			if ok || err != nil {
				t.Fatalf("validate = %v %v", ok, err)
			}
		})
	}
}

func TestSessionExpiredToken(t *testing.T) {
	_, rdb := newTestRedis(t)
	svc := NewSessionService(rdb, "test-secret")
	ctx := context.Background()

	svc.now = func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) }
	token, _, err := svc.Create(ctx, "user-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	svc.now = time.Now

	if _, ok, err := svc.Validate(ctx, token); ok || err != nil {
		t.Fatalf("expired token accepted: %v %v", ok, err)
	}
	// Expired tokens can still be revoked.
	if err := svc.Revoke(ctx, token); err != nil {
		t.Fatalf("revoke: %v", err)
	}
}

func TestSessionRevokeAll(t *testing.T) {
	mr, rdb := newTestRedis(t)
	svc := NewSessionService(rdb, "test-secret")
	ctx := context.Background()

	a, _, _ := svc.Create(ctx, "user-1")
	b, _, _ := svc.Create(ctx, "user-1")
	c, _, _ := svc.Create(ctx, "user-2")

	if err := svc.RevokeAll(ctx, "user-1"); err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	for _, token := range []string{a, b} {
		if _, ok, _ := svc.Validate(ctx, token); ok {
			t.Fatalf("session survived RevokeAll")
		}
	}
	if _, ok, _ := svc.Validate(ctx, c); !ok {
		t.Fatalf("other user's session was revoked")
	}
	if mr.Exists(UserSessionKeyPrefix + "user-1") {
		t.Fatalf("session set not removed")
	}
}
