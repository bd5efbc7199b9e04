package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"dealdocs-be/internal/entity"
	"dealdocs-be/internal/model"
	"dealdocs-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// ErrDocumentBusy is returned when a document already has an ingestion
// job in flight. Callers should retry after the current job settles.
var ErrDocumentBusy = errors.New("document already has an ingestion job in flight")

const DefaultWorkerCount = 4

// JobMessage is the payload published per ingestion job.
type JobMessage struct {
	JobId      uuid.UUID `json:"job_id"`
	DocumentId uuid.UUID `json:"document_id"`
	DealId     uuid.UUID `json:"deal_id"`
}

// Queue accepts ingestion jobs and fans them out to a fixed pool of
// workers over an in-process pub/sub channel. At most one job per
// document is in flight at a time.
type Queue struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	workers    int
	uowFactory unitofwork.RepositoryFactory
	pipeline   *Pipeline

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{} // keyed by document id
}

func NewQueue(
	pubSub *gochannel.GoChannel,
	topicName string,
	workers int,
	uowFactory unitofwork.RepositoryFactory,
	pipeline *Pipeline,
) *Queue {
	if workers <= 0 {
		workers = DefaultWorkerCount
	}
	return &Queue{
		pubSub:     pubSub,
		topicName:  topicName,
		workers:    workers,
		uowFactory: uowFactory,
		pipeline:   pipeline,
		inFlight:   make(map[uuid.UUID]struct{}),
	}
}

// Enqueue records a queued job for the document and publishes it to the
// worker pool. The job row exists before the message goes out so status
// polling never races the publish.
func (q *Queue) Enqueue(ctx context.Context, documentId, dealId uuid.UUID) (*entity.IngestionJob, error) {
	q.mu.Lock()
	if _, busy := q.inFlight[documentId]; busy {
		q.mu.Unlock()
		return nil, ErrDocumentBusy
	}
	q.inFlight[documentId] = struct{}{}
	q.mu.Unlock()

	job := &entity.IngestionJob{
		Id:         uuid.New(),
		DocumentId: documentId,
		DealId:     dealId,
		Status:     model.IngestionJobStatusQueued,
	}

	uow := q.uowFactory.NewUnitOfWork(ctx)
	if err := uow.IngestionJobRepository().Create(ctx, job); err != nil {
		q.release(documentId)
		return nil, fmt.Errorf("failed to create ingestion job: %w", err)
	}

	payload, err := json.Marshal(JobMessage{
		JobId:      job.Id,
		DocumentId: documentId,
		DealId:     dealId,
	})
	if err != nil {
		q.release(documentId)
		return nil, err
	}

	msg := message.NewMessage(job.Id.String(), payload)
	if err := q.pubSub.Publish(q.topicName, msg); err != nil {
		q.release(documentId)
		return nil, fmt.Errorf("failed to publish ingestion job: %w", err)
	}

	return job, nil
}

// Start subscribes to the job topic and launches the worker pool. It
// returns immediately; workers drain until ctx is cancelled.
func (q *Queue) Start(ctx context.Context) error {
	messages, err := q.pubSub.Subscribe(ctx, q.topicName)
	if err != nil {
		return err
	}

	for i := 0; i < q.workers; i++ {
		go q.worker(ctx, i, messages)
	}

	log.Printf("[INFO] Ingestion queue started with %d workers on topic %s", q.workers, q.topicName)
	return nil
}

func (q *Queue) worker(ctx context.Context, id int, messages <-chan *message.Message) {
	for msg := range messages {
		q.processMessage(ctx, id, msg)
	}
}

func (q *Queue) processMessage(ctx context.Context, workerId int, msg *message.Message) {
	var payload JobMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Worker %d: failed to unmarshal job message: %v", workerId, err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	defer q.release(payload.DocumentId)

	started := time.Now()
	log.Printf("[INFO] Worker %d: processing job %s for document %s", workerId, payload.JobId, payload.DocumentId)

	if err := q.pipeline.Process(ctx, payload); err != nil {
		log.Printf("[ERROR] Worker %d: job %s failed after %s: %v", workerId, payload.JobId, time.Since(started), err)
	} else {
		log.Printf("[INFO] Worker %d: job %s finished in %s", workerId, payload.JobId, time.Since(started))
	}

	// Terminal job state is recorded by the pipeline; redelivery would
	// only repeat work against a settled job.
	msg.Ack()
}

func (q *Queue) release(documentId uuid.UUID) {
	q.mu.Lock()
	delete(q.inFlight, documentId)
	q.mu.Unlock()
}

// Busy reports whether the document currently has a job in flight.
func (q *Queue) Busy(documentId uuid.UUID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, busy := q.inFlight[documentId]
	return busy
}
