package synclog

import (
	"context"
	"errors"
	"testing"

	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	logs []model.SyncLog
	err  error
}

func (m *memRepo) Create(_ context.Context, l *model.SyncLog) error {
	if m.err != nil {
		return m.err
	}
	m.logs = append(m.logs, *l)
	return nil
}

func (m *memRepo) ListRecent(_ context.Context, platform string, limit int) ([]model.SyncLog, error) {
	var out []model.SyncLog
	for _, l := range m.logs {
		if l.Platform == platform && len(out) < limit {
			out = append(out, l)
		}
	}
	return out, nil
}

func TestRecordDerivesStatus(t *testing.T) {
	repo := &memRepo{}
	r := NewRecorder(repo, logger.NewNop())

	entry := r.Record(context.Background(), model.PlatformMeta, "sync", 498, 2, "", nil)
	assert.Equal(t, model.SyncStatusPartial, entry.Status)
	assert.Equal(t, 500, entry.ItemsTotal)
	require.Len(t, repo.logs, 1)
	assert.Equal(t, entry.ID, repo.logs[0].ID)

	entry = r.Failure(context.Background(), model.PlatformPayment, "create_payment", errors.New("timeout"), nil)
	assert.Equal(t, model.SyncStatusFailed, entry.Status)
	assert.Equal(t, "timeout", entry.Message)
}

func TestRecordSurvivesWriteFailure(t *testing.T) {
	r := NewRecorder(&memRepo{err: errors.New("db down")}, logger.NewNop())
	entry := r.Record(context.Background(), model.PlatformGoogle, "sync", 3, 0, "", nil)
	assert.Equal(t, model.SyncStatusSuccess, entry.Status)
	assert.NotEmpty(t, entry.ID)
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotNil(t, r.Record(context.Background(), model.PlatformEmail, "send", 1, 0, "", nil))
}

func TestRecentClampsLimit(t *testing.T) {
	repo := &memRepo{}
	r := NewRecorder(repo, logger.NewNop())
	for i := 0; i < 30; i++ {
		r.Record(context.Background(), model.PlatformMeta, "sync", 1, 0, "", nil)
	}
	logs, err := r.Recent(context.Background(), model.PlatformMeta, 0)
	require.NoError(t, err)
	assert.Len(t, logs, DefaultListLimit)
}
