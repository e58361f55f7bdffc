// Package feedback is the public comment board: an append-only list of short
// messages persisted as one JSON document.
package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"videoads/internal/domain"
	"videoads/internal/storage"
)

const (
	DocumentKey      = "feedback.json"
	DefaultNickname  = "匿名用户"
	MaxMessageLength = 800
	MaxNickLength    = 40
)

// Entry is one posted message.
type Entry struct {
	ID        string    `json:"id"`
	Nickname  string    `json:"nickname"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Documents is the persistence the board needs.
type Documents interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) (string, error)
}

// Board serializes posts so concurrent writers never lose an entry.
type Board struct {
	docs    Documents
	limiter *Limiter
	logger  zerolog.Logger
	now     func() time.Time

	mu sync.Mutex
}

// NewBoard returns a board backed by docs. A nil limiter disables rate
// limiting.
func NewBoard(docs Documents, limiter *Limiter, logger zerolog.Logger) *Board {
	return &Board{
		docs:    docs,
		limiter: limiter,
		logger:  logger.With().Str("component", "feedback").Logger(),
		now:     time.Now,
	}
}

// List returns every entry, newest first.
func (b *Board) List(ctx context.Context) ([]Entry, error) {
	b.mu.Lock()
	entries, err := b.load(ctx)
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out, nil
}

// Post validates and appends one message from source, the caller's network
// address.
func (b *Board) Post(ctx context.Context, source, nickname, message string) (Entry, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Entry{}, fmt.Errorf("%w: message is required", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return Entry{}, fmt.Errorf("%w: message exceeds %d characters", domain.ErrInvalidInput, MaxMessageLength)
	}
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		nickname = DefaultNickname
	}
	if utf8.RuneCountInString(nickname) > MaxNickLength {
		nickname = string([]rune(nickname)[:MaxNickLength])
	}

	cancel, err := b.limiter.Reserve(source)
	if err != nil {
		return Entry{}, err
	}
	entry, err := b.append(ctx, nickname, message)
	if err != nil {
		cancel()
		return Entry{}, err
	}
	b.logger.Info().Str("id", entry.ID).Msg("feedback posted")
	return entry, nil
}

func (b *Board) append(ctx context.Context, nickname, message string) (Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries, err := b.load(ctx)
	if err != nil {
		return Entry{}, err
	}
	entry := Entry{
		ID:        uuid.NewString(),
		Nickname:  nickname,
		Message:   message,
		CreatedAt: b.now().UTC(),
	}
	entries = append(entries, entry)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return Entry{}, fmt.Errorf("feedback: encode: %w", err)
	}
	if _, err := b.docs.Write(ctx, DocumentKey, data); err != nil {
		return Entry{}, fmt.Errorf("feedback: persist: %w", err)
	}
	return entry, nil
}

func (b *Board) load(ctx context.Context) ([]Entry, error) {
	data, err := b.docs.Read(ctx, DocumentKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("feedback: load: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("feedback: decode: %w", err)
	}
	return entries, nil
}
