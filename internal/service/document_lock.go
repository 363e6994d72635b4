package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SLatz18/thoughtsAI/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// docLockTTL is a safety net against locks leaked by crashed processes; a
// healthy session releases explicitly on end.
const docLockTTL = 2 * time.Hour

// IDocumentLock guards the single-writer invariant: at most one live session
// may hold a document at a time.
type IDocumentLock interface {
	Acquire(ctx context.Context, documentId string, sessionId string) (bool, error)
	Release(ctx context.Context, documentId string, sessionId string)
}

func docLockKey(documentId string) string {
	return fmt.Sprintf("doc-lock:%s", documentId)
}

// redisDocumentLock takes locks with SETNX so the guard holds across
// instances.
type redisDocumentLock struct {
	client *redis.Client
	log    logger.ILogger
}

func NewRedisDocumentLock(client *redis.Client, log logger.ILogger) IDocumentLock {
	return &redisDocumentLock{client: client, log: log}
}

func (l *redisDocumentLock) Acquire(ctx context.Context, documentId string, sessionId string) (bool, error) {
	ok, err := l.client.SetNX(ctx, docLockKey(documentId), sessionId, docLockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire document lock: %w", err)
	}
	return ok, nil
}

func (l *redisDocumentLock) Release(ctx context.Context, documentId string, sessionId string) {
	// Only the holder may release. Read and delete are not atomic; the TTL
	// covers the narrow overlap.
	val, err := l.client.Get(ctx, docLockKey(documentId)).Result()
	if err != nil {
		if err != redis.Nil {
			l.log.Warn("DocumentLock", "Failed to read lock for release", map[string]interface{}{
				"document_id": documentId,
				"error":       err.Error(),
			})
		}
		return
	}
	if val != sessionId {
		return
	}
	if err := l.client.Del(ctx, docLockKey(documentId)).Err(); err != nil {
		l.log.Warn("DocumentLock", "Failed to release lock", map[string]interface{}{
			"document_id": documentId,
			"error":       err.Error(),
		})
	}
}

// localDocumentLock is the in-process fallback when Redis is unavailable. It
// only sees sessions on this instance.
type localDocumentLock struct {
	mu   sync.Mutex
	held map[string]string
}

func NewLocalDocumentLock() IDocumentLock {
	return &localDocumentLock{held: make(map[string]string)}
}

func (l *localDocumentLock) Acquire(_ context.Context, documentId string, sessionId string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, taken := l.held[documentId]; taken {
		return false, nil
	}
	l.held[documentId] = sessionId
	return true, nil
}

func (l *localDocumentLock) Release(_ context.Context, documentId string, sessionId string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[documentId] == sessionId {
		delete(l.held, documentId)
	}
}
