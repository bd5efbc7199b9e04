package ingest

import (
	"context"
	"errors"
	"testing"

	"dealdocs-be/internal/entity"
	"dealdocs-be/internal/model"
	"dealdocs-be/internal/repository/contract"
	"dealdocs-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJobRepo struct {
	contract.IngestionJobRepository
	created   []*entity.IngestionJob
	createErr error
}

func (f *fakeJobRepo) Create(ctx context.Context, job *entity.IngestionJob) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, job)
	return nil
}

type fakeQueueUow struct {
	unitofwork.UnitOfWork
	jobs *fakeJobRepo
}

func (f *fakeQueueUow) IngestionJobRepository() contract.IngestionJobRepository { return f.jobs }

type fakeQueueUowFactory struct {
	uow *fakeQueueUow
}

func (f *fakeQueueUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

func newTestQueue(jobs *fakeJobRepo) *Queue {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	factory := &fakeQueueUowFactory{uow: &fakeQueueUow{jobs: jobs}}
	return NewQueue(pubSub, "INGEST_TEST", 1, factory, nil)
}

func TestEnqueueCreatesQueuedJob(t *testing.T) {
	jobs := &fakeJobRepo{}
	queue := newTestQueue(jobs)

	documentId := uuid.New()
	dealId := uuid.New()

	job, err := queue.Enqueue(context.Background(), documentId, dealId)
	require.NoError(t, err)

	assert.Equal(t, documentId, job.DocumentId)
	assert.Equal(t, dealId, job.DealId)
	assert.Equal(t, model.IngestionJobStatusQueued, job.Status)

	// The job row exists before any worker could have seen the message.
	require.Len(t, jobs.created, 1)
	assert.Equal(t, job.Id, jobs.created[0].Id)
}

func TestEnqueueRejectsDuplicateDocument(t *testing.T) {
	queue := newTestQueue(&fakeJobRepo{})
	documentId := uuid.New()
	dealId := uuid.New()

	_, err := queue.Enqueue(context.Background(), documentId, dealId)
	require.NoError(t, err)
	assert.True(t, queue.Busy(documentId))

	_, err = queue.Enqueue(context.Background(), documentId, dealId)
	assert.ErrorIs(t, err, ErrDocumentBusy)

	// A different document is unaffected.
	_, err = queue.Enqueue(context.Background(), uuid.New(), dealId)
	assert.NoError(t, err)
}

func TestEnqueueReleasesSlotOnCreateFailure(t *testing.T) {
	jobs := &fakeJobRepo{createErr: errors.New("database down")}
	queue := newTestQueue(jobs)
	documentId := uuid.New()

	_, err := queue.Enqueue(context.Background(), documentId, uuid.New())
	require.Error(t, err)
	assert.False(t, queue.Busy(documentId))

	// The slot is free again, so the retry is not rejected as busy.
	jobs.createErr = nil
	_, err = queue.Enqueue(context.Background(), documentId, uuid.New())
	assert.NoError(t, err)
}

func TestNewQueueDefaultsWorkerCount(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	queue := NewQueue(pubSub, "INGEST_TEST", 0, &fakeQueueUowFactory{uow: &fakeQueueUow{}}, nil)

	assert.Equal(t, DefaultWorkerCount, queue.workers)
}
