package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"dealdocs-be/internal/dto"
	"dealdocs-be/internal/entity"
	"dealdocs-be/internal/model"
	"dealdocs-be/internal/repository/specification"
	"dealdocs-be/internal/repository/unitofwork"
	"dealdocs-be/pkg/events"
	"dealdocs-be/pkg/generate"
	"dealdocs-be/pkg/ingest"
	"dealdocs-be/pkg/storage"

	"github.com/google/uuid"
)

// ErrInvalidParentRun rejects rerun requests whose parent run does not
// exist or belongs to a different deal.
var ErrInvalidParentRun = errors.New("parent run not found for this deal")

type IRunService interface {
	Create(ctx context.Context, req *dto.CreateRunRequest) (*dto.CreateRunResponse, error)
	Show(ctx context.Context, dealId, runId uuid.UUID) (*dto.ShowRunResponse, error)
	List(ctx context.Context, dealId uuid.UUID) ([]*dto.ShowRunResponse, error)
	Artifacts(ctx context.Context, runId uuid.UUID) ([]*dto.ShowArtifactResponse, error)
	DownloadArtifact(ctx context.Context, artifactId uuid.UUID) (filename string, content []byte, err error)
}

// DocumentGenerator is the orchestrator surface the run service needs.
// Satisfied by *generate.Orchestrator.
type DocumentGenerator interface {
	GenerateDocument(ctx context.Context, deal *entity.Deal, opts generate.Options) (*generate.Result, error)
}

type runService struct {
	uowFactory   unitofwork.RepositoryFactory
	store        storage.Backend
	orchestrator DocumentGenerator
	publisher    ingest.EventPublisher // optional
}

func NewRunService(
	uowFactory unitofwork.RepositoryFactory,
	store storage.Backend,
	orchestrator DocumentGenerator,
	publisher ingest.EventPublisher,
) IRunService {
	return &runService{
		uowFactory:   uowFactory,
		store:        store,
		orchestrator: orchestrator,
		publisher:    publisher,
	}
}

// Create registers a pending run and kicks off generation in the
// background. A parent run id switches the new run to fast mode.
func (s *runService) Create(ctx context.Context, req *dto.CreateRunRequest) (*dto.CreateRunResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	deal, err := uow.DealRepository().FindOne(ctx, specification.ByID{ID: req.DealId})
	if err != nil {
		return nil, err
	}
	if deal == nil {
		return nil, nil
	}

	mode := model.RunModeFull
	if req.ParentRunId != nil {
		parent, err := uow.RunRepository().FindOne(ctx, specification.ByID{ID: *req.ParentRunId})
		if err != nil {
			return nil, err
		}
		if parent == nil || parent.DealId != deal.Id {
			return nil, ErrInvalidParentRun
		}
		mode = model.RunModeFast
	}

	run := entity.Run{
		Id:           uuid.New(),
		DealId:       deal.Id,
		ParentRunId:  req.ParentRunId,
		Mode:         mode,
		ResearchMode: req.ResearchMode,
		Status:       model.RunStatusPending,
		Params:       req.Params,
		CreatedAt:    time.Now(),
	}
	if err := uow.RunRepository().Create(ctx, &run); err != nil {
		return nil, err
	}

	// Generation outlives the HTTP request.
	go s.execute(context.Background(), run.Id)

	return &dto.CreateRunResponse{
		Id:     run.Id,
		DealId: run.DealId,
		Mode:   run.Mode,
		Status: run.Status,
	}, nil
}

// execute drives one run to a terminal state. Artifacts exist only for
// successful runs; a failed run keeps its error message and nothing else.
func (s *runService) execute(ctx context.Context, runId uuid.UUID) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	run, err := uow.RunRepository().FindOne(ctx, specification.ByID{ID: runId})
	if err != nil || run == nil {
		log.Printf("[ERROR] Run %s vanished before execution: %v", runId, err)
		return
	}

	deal, err := uow.DealRepository().FindOne(ctx, specification.ByID{ID: run.DealId})
	if err != nil || deal == nil {
		s.finishFailed(ctx, uow, run, fmt.Errorf("deal %s not found", run.DealId))
		return
	}

	started := time.Now()
	run.Status = model.RunStatusRunning
	run.StartedAt = &started
	if err := uow.RunRepository().Update(ctx, run); err != nil {
		log.Printf("[ERROR] Failed to mark run %s running: %v", runId, err)
		return
	}

	result, err := s.orchestrator.GenerateDocument(ctx, deal, runOptions(run))
	if err != nil {
		s.finishFailed(ctx, uow, run, err)
		return
	}

	docKey := storage.Key(deal.Id.String(), fmt.Sprintf("output/offering_memorandum_%s.md", run.Id))
	if err := s.store.Put(ctx, docKey, []byte(result.Rendered)); err != nil {
		s.finishFailed(ctx, uow, run, fmt.Errorf("failed to store rendered document: %w", err))
		return
	}

	varsJSON, err := json.MarshalIndent(result.Variables, "", "  ")
	if err != nil {
		s.finishFailed(ctx, uow, run, fmt.Errorf("failed to encode variables: %w", err))
		return
	}
	varsKey := storage.Key(deal.Id.String(), fmt.Sprintf("output/variables_%s.json", run.Id))
	if err := s.store.Put(ctx, varsKey, varsJSON); err != nil {
		s.finishFailed(ctx, uow, run, fmt.Errorf("failed to store variables: %w", err))
		return
	}

	artifacts := []*entity.Artifact{
		{
			Id:          uuid.New(),
			RunId:       run.Id,
			Kind:        model.ArtifactKindRenderedDoc,
			StoragePath: docKey,
			Meta: map[string]interface{}{
				"deal_name": deal.Name,
				"sections":  len(result.Variables),
			},
		},
		{
			Id:          uuid.New(),
			RunId:       run.Id,
			Kind:        model.ArtifactKindVariables,
			StoragePath: varsKey,
		},
	}
	for _, artifact := range artifacts {
		if err := uow.ArtifactRepository().Create(ctx, artifact); err != nil {
			s.finishFailed(ctx, uow, run, fmt.Errorf("failed to record artifact: %w", err))
			return
		}
	}

	finished := time.Now()
	run.Status = model.RunStatusSuccess
	run.ErrorMessage = ""
	run.FinishedAt = &finished
	if err := uow.RunRepository().Update(ctx, run); err != nil {
		log.Printf("[ERROR] Failed to mark run %s successful: %v", runId, err)
		return
	}

	s.notify(ctx, events.NewRunCompleted(run.Id, run.DealId))
	log.Printf("[INFO] Run %s completed in %s", run.Id, time.Since(started))
}

// runOptions translates the persisted run row and its free-form params
// into orchestrator options. Unknown or malformed params are ignored.
func runOptions(run *entity.Run) generate.Options {
	opts := generate.Options{
		Mode:                run.Mode,
		ResearchMode:        run.ResearchMode,
		AttachFullDocuments: run.Mode != model.RunModeFast,
	}

	if raw, ok := run.Params["included_file_ids"].([]interface{}); ok {
		for _, v := range raw {
			str, ok := v.(string)
			if !ok {
				continue
			}
			id, err := uuid.Parse(str)
			if err != nil {
				continue
			}
			opts.IncludedFileIds = append(opts.IncludedFileIds, id)
		}
	}
	if instructions, ok := run.Params["instructions"].(string); ok {
		opts.Instructions = instructions
	}
	if attach, ok := run.Params["attach_full_documents"].(bool); ok {
		opts.AttachFullDocuments = attach
	}

	return opts
}

func (s *runService) finishFailed(ctx context.Context, uow unitofwork.UnitOfWork, run *entity.Run, cause error) {
	now := time.Now()
	run.Status = model.RunStatusFailed
	run.ErrorMessage = cause.Error()
	run.FinishedAt = &now
	if err := uow.RunRepository().Update(ctx, run); err != nil {
		log.Printf("[ERROR] Failed to record run failure for %s: %v", run.Id, err)
	}
	s.notify(ctx, events.NewRunFailed(run.Id, run.DealId, cause.Error()))
	log.Printf("[ERROR] Run %s failed: %v", run.Id, cause)
}

func (s *runService) notify(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("[WARN] Failed to publish %s event: %v", event.EventType(), err)
	}
}

func (s *runService) Show(ctx context.Context, dealId, runId uuid.UUID) (*dto.ShowRunResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	run, err := uow.RunRepository().FindOne(ctx,
		specification.ByID{ID: runId},
		specification.ByDealID{DealID: dealId},
	)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, nil
	}
	return toShowRunResponse(run), nil
}

func (s *runService) List(ctx context.Context, dealId uuid.UUID) ([]*dto.ShowRunResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	runs, err := uow.RunRepository().FindAll(ctx,
		specification.ByDealID{DealID: dealId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.ShowRunResponse, len(runs))
	for i, run := range runs {
		responses[i] = toShowRunResponse(run)
	}
	return responses, nil
}

func (s *runService) Artifacts(ctx context.Context, runId uuid.UUID) ([]*dto.ShowArtifactResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	artifacts, err := uow.ArtifactRepository().FindAll(ctx,
		specification.ByRunID{RunID: runId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.ShowArtifactResponse, len(artifacts))
	for i, artifact := range artifacts {
		responses[i] = &dto.ShowArtifactResponse{
			Id:        artifact.Id,
			RunId:     artifact.RunId,
			Kind:      artifact.Kind,
			Meta:      artifact.Meta,
			CreatedAt: artifact.CreatedAt,
		}
	}
	return responses, nil
}

func (s *runService) DownloadArtifact(ctx context.Context, artifactId uuid.UUID) (string, []byte, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	artifact, err := uow.ArtifactRepository().FindOne(ctx, specification.ByID{ID: artifactId})
	if err != nil {
		return "", nil, err
	}
	if artifact == nil {
		return "", nil, nil
	}

	content, err := s.store.Get(ctx, artifact.StoragePath)
	if err != nil {
		return "", nil, err
	}

	return storage.Basename(artifact.StoragePath), content, nil
}

func toShowRunResponse(run *entity.Run) *dto.ShowRunResponse {
	return &dto.ShowRunResponse{
		Id:           run.Id,
		DealId:       run.DealId,
		ParentRunId:  run.ParentRunId,
		Mode:         run.Mode,
		ResearchMode: run.ResearchMode,
		Status:       run.Status,
		Params:       run.Params,
		ErrorMessage: run.ErrorMessage,
		StartedAt:    run.StartedAt,
		FinishedAt:   run.FinishedAt,
		CreatedAt:    run.CreatedAt,
	}
}
