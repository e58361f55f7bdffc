package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videoads/internal/domain"
	"videoads/internal/providers/prompt"
	"videoads/internal/providers/video"
)

type seeded struct {
	withTask    int64
	withoutTask int64
	completed   int64
}

func seedJobs(t *testing.T, store domain.JobLogStore) seeded {
	t.Helper()
	ctx := context.Background()
	var s seeded
	var err error

	s.withTask, err = store.Insert(ctx, domain.Fields{
		domain.ColTitle:  "resumable",
		domain.ColPrompt: "P",
		domain.ColTaskID: "models/veo/operations/7",
	})
	require.NoError(t, err)

	s.withoutTask, err = store.Insert(ctx, domain.Fields{domain.ColTitle: "lost before submit", domain.ColPrompt: "P"})
	require.NoError(t, err)

	s.completed, err = store.Insert(ctx, domain.Fields{
		domain.ColStatus:   domain.JobStatusCompleted,
		domain.ColVideoURL: "https://x/done.mp4",
	})
	require.NoError(t, err)
	return s
}

func TestReconcilerAbandonsWithoutProvider(t *testing.T) {
	engine, store := newEngine(t, fastPolicy())
	ids := seedJobs(t, store)

	rec := NewReconciler(store, engine, ReconcilerOptions{}, zerolog.Nop())
	report, err := rec.Run(context.Background(), time.Now().Add(time.Second))
	require.NoError(t, err)

	assert.Equal(t, Report{Scanned: 2, Abandoned: 2}, report)
	for _, id := range []int64{ids.withTask, ids.withoutTask} {
		job, err := store.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusFailed, job.Status)
		assert.Equal(t, AbandonedMessage, job.Error)
	}

	job, err := store.Get(context.Background(), ids.completed)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
}

func TestReconcilerResumesJobsWithTaskID(t *testing.T) {
	engine, store := newEngine(t, fastPolicy())
	ids := seedJobs(t, store)

	factory := &video.ScriptedFactory{Provider: video.NewScripted(prompt.VideoDetails{}, 1, "https://x/late.mp4")}
	rec := NewReconciler(store, engine, ReconcilerOptions{Factory: factory, APIKey: "k"}, zerolog.Nop())
	report, err := rec.Run(context.Background(), time.Now().Add(time.Second))
	require.NoError(t, err)

	assert.Equal(t, Report{Scanned: 2, Completed: 1, Abandoned: 1}, report)
	assert.Equal(t, []string{"k"}, factory.Keys())

	job, err := store.Get(context.Background(), ids.withTask)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Equal(t, "https://x/late.mp4", job.VideoURL)

	job, err = store.Get(context.Background(), ids.withoutTask)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, job.Status)
}

func TestReconcilerCountsFailedResumptions(t *testing.T) {
	engine, store := newEngine(t, fastPolicy())
	seedJobs(t, store)

	provider := video.NewScripted(prompt.VideoDetails{}, 0, "unused")
	provider.PollErr = assert.AnError
	rec := NewReconciler(store, engine, ReconcilerOptions{Factory: &video.ScriptedFactory{Provider: provider}, APIKey: "k"}, zerolog.Nop())
	report, err := rec.Run(context.Background(), time.Now().Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Abandoned)
}

func TestReconcilerIgnoresRecentJobs(t *testing.T) {
	engine, store := newEngine(t, fastPolicy())
	seedJobs(t, store)

	rec := NewReconciler(store, engine, ReconcilerOptions{StaleAfter: time.Hour}, zerolog.Nop())
	report, err := rec.Run(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, Report{}, report)
}

func TestReconcilerSkipsResumptionOnceEngineCloses(t *testing.T) {
	engine, store := newEngine(t, fastPolicy())
	ids := seedJobs(t, store)
	require.NoError(t, engine.Wait(context.Background()))

	factory := &video.ScriptedFactory{Provider: video.NewScripted(prompt.VideoDetails{}, 1, "https://x/late.mp4")}
	rec := NewReconciler(store, engine, ReconcilerOptions{Factory: factory, APIKey: "k"}, zerolog.Nop())
	report, err := rec.Run(context.Background(), time.Now().Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, Report{Scanned: 2, Abandoned: 1, Skipped: 1}, report)

	job, err := store.Get(context.Background(), ids.withTask)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusInProgress, job.Status, "left for the next startup")
}
