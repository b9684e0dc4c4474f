package infra

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRevocationStore registra tokens revocados por logout hasta que su
// propia expiración los vuelve irrelevantes. El middleware de autenticación
// lo consulta en cada request; el servicio de auth escribe en logout.
type TokenRevocationStore interface {
	Revocar(ctx context.Context, jti string, ttl time.Duration) error
	EstaRevocado(ctx context.Context, jti string) (bool, error)
}

// ── Redis ────────────────────────────────────────────────────────────────────

// RedisRevocationStore persiste revocaciones en redis con TTL igual a la vida
// restante del token, de modo que sobreviven reinicios del servidor y se
// comparten entre réplicas.
type RedisRevocationStore struct {
	rdb *redis.Client
}

func NewRedisRevocationStore(rdb *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{rdb: rdb}
}

func revocationKey(jti string) string { return "auth:revoked:" + jti }

func (s *RedisRevocationStore) Revocar(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		// Token ya vencido: no hay nada que revocar.
		return nil
	}
	return s.rdb.Set(ctx, revocationKey(jti), "1", ttl).Err()
}

func (s *RedisRevocationStore) EstaRevocado(ctx context.Context, jti string) (bool, error) {
	n, err := s.rdb.Exists(ctx, revocationKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation store: %w", err)
	}
	return n > 0, nil
}

// ── Memoria ──────────────────────────────────────────────────────────────────

// MemoryRevocationStore es la variante para tests y despliegues de una sola
// réplica sin redis. Las entradas vencidas se purgan de forma perezosa en
// cada escritura.
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time // jti → expiración
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{entries: map[string]time.Time{}}
}

func (s *MemoryRevocationStore) Revocar(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, exp := range s.entries {
		if now.After(exp) {
			delete(s.entries, k)
		}
	}
	s.entries[jti] = now.Add(ttl)
	return nil
}

func (s *MemoryRevocationStore) EstaRevocado(_ context.Context, jti string) (bool, error) {
	s.mu.RLock()
	exp, ok := s.entries[jti]
	s.mu.RUnlock()
	return ok && time.Now().Before(exp), nil
}
