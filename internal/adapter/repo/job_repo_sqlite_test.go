package repo

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videoads/internal/domain"
	"videoads/internal/infra"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newSQLiteRepo(t *testing.T) *JobRepositorySQLite {
	t.Helper()
	ctx := context.Background()
	db, err := infra.OpenSQLite(ctx, filepath.Join(t.TempDir(), "ad_videos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	r, err := NewJobRepositorySQLite(ctx, db)
	require.NoError(t, err)
	clock := &stepClock{now: time.Date(2025, 7, 24, 9, 0, 0, 0, time.UTC)}
	r.now = clock.Now
	return r
}

func TestSQLiteInsertAndGet(t *testing.T) {
	r := newSQLiteRepo(t)
	ctx := context.Background()

	id, err := r.Insert(ctx, domain.Fields{
		domain.ColTitle:  "T",
		domain.ColPrompt: "P",
		domain.ColStatus: domain.JobStatusInProgress,
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	job, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "T", job.Title)
	assert.Equal(t, "P", job.Prompt)
	assert.Equal(t, domain.JobStatusInProgress, job.Status)
	assert.Empty(t, job.TaskID)
	assert.Equal(t, time.Date(2025, 7, 24, 9, 0, 1, 0, time.UTC), job.CreatedAt)
	assert.Equal(t, job.CreatedAt, job.UpdatedAt)
}

func TestSQLiteInsertIDsIncrease(t *testing.T) {
	r := newSQLiteRepo(t)
	ctx := context.Background()

	first, err := r.Insert(ctx, domain.Fields{domain.ColTitle: "a"})
	require.NoError(t, err)
	second, err := r.Insert(ctx, domain.Fields{domain.ColTitle: "b"})
	require.NoError(t, err)
	assert.Greater(t, second, first)

	job, err := r.Get(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusInProgress, job.Status, "status defaults to in_progress")
}

func TestSQLiteUpdateOverwritesOnlyGivenFields(t *testing.T) {
	r := newSQLiteRepo(t)
	ctx := context.Background()

	id, err := r.Insert(ctx, domain.Fields{domain.ColTitle: "T", domain.ColPrompt: "P"})
	require.NoError(t, err)
	require.NoError(t, r.Update(ctx, id, domain.Fields{domain.ColTaskID: "models/veo/operations/abc"}))

	job, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "T", job.Title)
	assert.Equal(t, "P", job.Prompt)
	assert.Equal(t, "models/veo/operations/abc", job.TaskID)
	assert.True(t, job.UpdatedAt.After(job.CreatedAt))
}

func TestSQLiteUpdateIsIdempotent(t *testing.T) {
	r := newSQLiteRepo(t)
	ctx := context.Background()

	id, err := r.Insert(ctx, domain.Fields{domain.ColTitle: "T"})
	require.NoError(t, err)

	fields := domain.Fields{
		domain.ColStatus:   domain.JobStatusCompleted,
		domain.ColVideoURL: "https://x/video.mp4",
	}
	require.NoError(t, r.Update(ctx, id, fields))
	once, err := r.Get(ctx, id)
	require.NoError(t, err)

	require.NoError(t, r.Update(ctx, id, fields))
	twice, err := r.Get(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestSQLiteUpdateMissingRecord(t *testing.T) {
	r := newSQLiteRepo(t)

	err := r.Update(context.Background(), 42, domain.Fields{domain.ColTitle: "x"})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLiteReadsBackAfterMissingUpdate(t *testing.T) {
	r := newSQLiteRepo(t)
	ctx := context.Background()

	id, err := r.Insert(ctx, domain.Fields{domain.ColTitle: "T"})
	require.NoError(t, err)

	_, err = r.Get(ctx, id+1)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, r.Update(ctx, id+1, domain.Fields{domain.ColError: "x"}), domain.ErrNotFound)

	job, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusInProgress, job.Status)
}

func TestSQLiteTerminalRowKeepsItsFields(t *testing.T) {
	r := newSQLiteRepo(t)
	ctx := context.Background()

	id, err := r.Insert(ctx, domain.Fields{domain.ColTitle: "T"})
	require.NoError(t, err)
	completion := domain.Fields{
		domain.ColStatus:   domain.JobStatusCompleted,
		domain.ColVideoURL: "https://x/video.mp4",
	}
	require.NoError(t, r.Update(ctx, id, completion))

	err = r.Update(ctx, id, domain.Fields{domain.ColError: "boom", domain.ColVideoURL: ""})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	err = r.Update(ctx, id, domain.Fields{domain.ColStatus: domain.JobStatusCompleted, domain.ColVideoURL: "https://x/other.mp4"})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	require.NoError(t, r.Update(ctx, id, completion), "repeating the completion is idempotent")

	job, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Equal(t, "https://x/video.mp4", job.VideoURL)
	assert.Empty(t, job.Error)
}

func TestSQLiteTerminalStatusIsFinal(t *testing.T) {
	r := newSQLiteRepo(t)
	ctx := context.Background()

	id, err := r.Insert(ctx, domain.Fields{domain.ColTitle: "T"})
	require.NoError(t, err)
	require.NoError(t, r.Update(ctx, id, domain.Fields{
		domain.ColStatus: domain.JobStatusFailed,
		domain.ColError:  "429 RESOURCE_EXHAUSTED",
	}))

	err = r.Update(ctx, id, domain.Fields{domain.ColStatus: domain.JobStatusInProgress})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	err = r.Update(ctx, id, domain.Fields{domain.ColStatus: domain.JobStatusCompleted})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	job, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Equal(t, "429 RESOURCE_EXHAUSTED", job.Error)
}

func TestSQLiteRejectsImmutableAndUnknownFields(t *testing.T) {
	r := newSQLiteRepo(t)
	ctx := context.Background()

	id, err := r.Insert(ctx, domain.Fields{domain.ColTitle: "T"})
	require.NoError(t, err)

	require.ErrorIs(t, r.Update(ctx, id, domain.Fields{domain.ColCreatedAt: time.Now()}), domain.ErrImmutableField)
	require.ErrorIs(t, r.Update(ctx, id, domain.Fields{"owner": "x"}), domain.ErrUnknownField)
	require.ErrorIs(t, r.Update(ctx, id, domain.Fields{}), domain.ErrEmptyUpdate)
	_, err = r.Insert(ctx, domain.Fields{domain.ColID: int64(7)})
	require.ErrorIs(t, err, domain.ErrImmutableField)
}

func TestSQLiteStoresCompositeValuesAsText(t *testing.T) {
	r := newSQLiteRepo(t)
	ctx := context.Background()

	id, err := r.Insert(ctx, domain.Fields{
		domain.ColStatus: domain.JobStatusFailed,
		domain.ColError:  map[string]any{"status": "INTERNAL"},
	})
	require.NoError(t, err)

	job, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"INTERNAL"}`, job.Error)
}

func TestSQLiteList(t *testing.T) {
	r := newSQLiteRepo(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 4; i++ {
		id, err := r.Insert(ctx, domain.Fields{domain.ColTitle: "T"})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.NoError(t, r.Update(ctx, ids[1], domain.Fields{
		domain.ColStatus:   domain.JobStatusCompleted,
		domain.ColVideoURL: "https://x/video.mp4",
	}))

	all, err := r.List(ctx, domain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, ids[3], all[0].ID, "newest first")

	pending, err := r.List(ctx, domain.ListFilter{Status: domain.JobStatusInProgress})
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	third, err := r.Get(ctx, ids[2])
	require.NoError(t, err)
	older, err := r.List(ctx, domain.ListFilter{CreatedBefore: third.CreatedAt})
	require.NoError(t, err)
	require.Len(t, older, 2)
	assert.Equal(t, ids[1], older[0].ID)

	limited, err := r.List(ctx, domain.ListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSerializedStoreConcurrentInserts(t *testing.T) {
	store := Serialize(newSQLiteRepo(t))
	ctx := context.Background()

	const n = 20
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[int64]struct{}, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := store.Insert(ctx, domain.Fields{domain.ColTitle: "T"})
			if !assert.NoError(t, err) {
				return
			}
			assert.NoError(t, store.Update(ctx, id, domain.Fields{domain.ColTaskID: "op"}))
			mu.Lock()
			ids[id] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, ids, n)
	jobs, err := store.List(ctx, domain.ListFilter{Limit: n})
	require.NoError(t, err)
	for _, job := range jobs {
		assert.Equal(t, "op", job.TaskID)
	}
}
