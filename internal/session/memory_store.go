package session

import (
	"context"
	"sync"
	"time"

	"github.com/vansh1925/NexPrep-v2/internal/models"
)

// MemoryStore keeps transcripts and session records in process memory with a TTL so
// abandoned sessions do not leak. Everything is lost on restart; use RedisStore when that matters.
type MemoryStore struct {
	logs     map[string]*transcriptLog
	sessions map[string]storedRecord
	calls    map[string]string
	mu       sync.RWMutex
	ttl  time.Duration
	stop chan struct{}
	once sync.Once
}

type transcriptLog struct {
	entries   []models.TranscriptEntry
	expiresAt time.Time
}

type storedRecord struct {
	rec       Record
	expiresAt time.Time
}

// NewMemoryStore creates a store whose logs expire ttl after their last append
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	ms := &MemoryStore{
		logs:     make(map[string]*transcriptLog),
		sessions: make(map[string]storedRecord),
		calls:    make(map[string]string),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}

	go ms.cleanupLoop()

	return ms
}

func (ms *MemoryStore) Append(_ context.Context, interviewID string, entry models.TranscriptEntry) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	log, exists := ms.logs[interviewID]
	if !exists {
		log = &transcriptLog{}
		ms.logs[interviewID] = log
	}
	log.entries = append(log.entries, entry)
	log.expiresAt = time.Now().Add(ms.ttl)
	return nil
}

// List returns a copy of the log; an unknown or expired id yields an empty slice
func (ms *MemoryStore) List(_ context.Context, interviewID string) ([]models.TranscriptEntry, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	log, exists := ms.logs[interviewID]
	if !exists || time.Now().After(log.expiresAt) {
		return []models.TranscriptEntry{}, nil
	}

	out := make([]models.TranscriptEntry, len(log.entries))
	copy(out, log.entries)
	return out, nil
}

func (ms *MemoryStore) Delete(_ context.Context, interviewID string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.logs, interviewID)
	return nil
}

func (ms *MemoryStore) SaveSession(_ context.Context, rec Record) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.sessions[rec.InterviewID] = storedRecord{rec: rec, expiresAt: time.Now().Add(ms.ttl)}
	if rec.CallID != "" {
		ms.calls[rec.CallID] = rec.InterviewID
	}
	return nil
}

func (ms *MemoryStore) LoadSession(_ context.Context, interviewID string) (*Record, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	stored, exists := ms.sessions[interviewID]
	if !exists || time.Now().After(stored.expiresAt) {
		return nil, nil
	}
	rec := stored.rec
	return &rec, nil
}

func (ms *MemoryStore) InterviewForCall(_ context.Context, callID string) (string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	id := ms.calls[callID]
	if stored, exists := ms.sessions[id]; !exists || time.Now().After(stored.expiresAt) {
		return "", nil
	}
	return id, nil
}

func (ms *MemoryStore) DeleteSession(_ context.Context, rec Record) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.sessions, rec.InterviewID)
	delete(ms.calls, rec.CallID)
	return nil
}

// Close stops the cleanup goroutine
func (ms *MemoryStore) Close() {
	ms.once.Do(func() { close(ms.stop) })
}

// cleanupLoop runs periodically to remove expired logs
func (ms *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ms.stop:
			return
		case <-ticker.C:
			ms.cleanup()
		}
	}
}

func (ms *MemoryStore) cleanup() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	for interviewID, log := range ms.logs {
		if now.After(log.expiresAt) {
			delete(ms.logs, interviewID)
		}
	}
	for interviewID, stored := range ms.sessions {
		if now.After(stored.expiresAt) {
			delete(ms.sessions, interviewID)
			delete(ms.calls, stored.rec.CallID)
		}
	}
}

// Size returns the current number of transcript logs
func (ms *MemoryStore) Size() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	return len(ms.logs)
}
