package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"firecert/internal/repository"
	"firecert/internal/storage"
	"firecert/internal/wizard"
)

// blockingDocumentStore parks the first upload until release is closed so a
// test can observe the session while a submission round trip is outstanding.
type blockingDocumentStore struct {
	inner   *storage.MemoryStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingDocumentStore) Upload(ctx context.Context, slug string, f *wizard.StagedFile) (string, error) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return b.inner.Upload(ctx, slug, f)
}

func TestWizardCancelRefusedDuringSubmission(t *testing.T) {
	env := newServiceTestEnv(t)
	docs := &blockingDocumentStore{inner: env.docs, entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewApplicationService(env.apps, env.audits, env.txm, docs, env.notifier, zaptest.NewLogger(t))
	ctx := context.Background()
	owner := uuid.New()
	est := uuid.New()

	state, err := svc.OpenWizard(ctx, owner, nil)
	require.NoError(t, err)
	sid := state.ID
	_, err = svc.SetFields(sid, owner, certificationBusinessFields(est))
	require.NoError(t, err)
	for _, slug := range businessNewDocSlugs {
		_, err = svc.StageDocument(sid, owner, slug, &wizard.StagedFile{Name: "f.pdf", Size: 1, Content: []byte("x")})
		require.NoError(t, err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(ctx, sid, owner)
		done <- err
	}()
	<-docs.entered

	// Cancelling mid-upload must be refused, not silently race the write.
	err = svc.CloseWizard(sid, owner)
	assert.ErrorIs(t, err, wizard.ErrSubmissionInFlight)

	close(docs.release)
	require.NoError(t, <-done)

	// The submission landed and discarded the session itself.
	_, err = svc.State(sid, owner)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, total, err := svc.ListApplications(ctx, repository.ApplicationFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}
