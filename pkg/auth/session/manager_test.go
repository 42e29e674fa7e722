package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/farmconnect-backend/pkg/config"
	pkgredis "github.com/angelmondragon/farmconnect-backend/pkg/redis"
)

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := pkgredis.NewFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })

	manager, err := NewManager(client, config.JWTConfig{ExpirationMinutes: 15, RefreshTokenTTLMinutes: 60})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return manager, mr
}

func TestManagerStartAndRotate(t *testing.T) {
	manager, mr := newTestManager(t)
	ctx := context.Background()

	first, err := manager.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	stored, err := mr.Get("fc:session:access:" + first.AccessID)
	if err != nil || stored != first.RefreshToken {
		t.Fatalf("expected stored token %q, got %q (%v)", first.RefreshToken, stored, err)
	}
	if ttl := mr.TTL("fc:session:access:" + first.AccessID); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %s", ttl)
	}

	if _, err := manager.Rotate(ctx, first.AccessID, "wrong"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid refresh token error, got %v", err)
	}

	second, err := manager.Rotate(ctx, first.AccessID, first.RefreshToken)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if second.AccessID == first.AccessID {
		t.Fatal("expected a fresh access id")
	}
	if ok, _ := manager.HasSession(ctx, first.AccessID); ok {
		t.Fatal("old session left behind")
	}
	if ok, _ := manager.HasSession(ctx, second.AccessID); !ok {
		t.Fatal("rotated session missing")
	}

	if _, err := manager.Rotate(ctx, first.AccessID, first.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected replayed refresh token to fail, got %v", err)
	}
}

func TestManagerRevoke(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	sess, err := manager.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := manager.Revoke(ctx, sess.AccessID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err := manager.HasSession(ctx, sess.AccessID)
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if ok {
		t.Fatal("expected revoked session to be gone")
	}
	if err := manager.Revoke(ctx, " "); err == nil {
		t.Fatal("expected error for blank access id")
	}
}

func TestNewManagerRejectsShortRefreshTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := pkgredis.NewFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	defer client.Close()

	if _, err := NewManager(client, config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 30}); err == nil {
		t.Fatal("expected refresh ttl validation error")
	}
	if _, err := NewManager(nil, config.JWTConfig{}); err == nil {
		t.Fatal("expected nil client error")
	}
}
