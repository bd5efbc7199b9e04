package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"strings"
	"testing"
	"time"

	"dealdocs-be/internal/dto"
	"dealdocs-be/internal/entity"
	"dealdocs-be/internal/model"
	"dealdocs-be/internal/repository/contract"
	"dealdocs-be/internal/repository/specification"
	"dealdocs-be/internal/repository/unitofwork"
	"dealdocs-be/pkg/ingest"
	"dealdocs-be/pkg/storage"
	"dealdocs-be/pkg/summarize"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type uploadDealRepo struct {
	contract.DealRepository
	created []*entity.Deal
}

func (f *uploadDealRepo) Create(ctx context.Context, deal *entity.Deal) error {
	f.created = append(f.created, deal)
	return nil
}

func (f *uploadDealRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Deal, error) {
	return nil, nil
}

type uploadDocRepo struct {
	contract.DocumentRepository
	created []*entity.Document
}

func (f *uploadDocRepo) Create(ctx context.Context, doc *entity.Document) error {
	f.created = append(f.created, doc)
	return nil
}

type uploadJobRepo struct {
	contract.IngestionJobRepository
	created []*entity.IngestionJob
}

func (f *uploadJobRepo) Create(ctx context.Context, job *entity.IngestionJob) error {
	f.created = append(f.created, job)
	return nil
}

type uploadUow struct {
	unitofwork.UnitOfWork
	deals *uploadDealRepo
	docs  *uploadDocRepo
	jobs  *uploadJobRepo
}

func (f *uploadUow) DealRepository() contract.DealRepository                 { return f.deals }
func (f *uploadUow) DocumentRepository() contract.DocumentRepository         { return f.docs }
func (f *uploadUow) IngestionJobRepository() contract.IngestionJobRepository { return f.jobs }

type uploadUowFactory struct {
	uow *uploadUow
}

func (f *uploadUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

// multipartFiles builds real file headers the way fiber hands them to
// the service.
func multipartFiles(t *testing.T, files map[string]string) []*multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["files"]
}

func newDealFixture(t *testing.T, limits UploadLimits) (IDealService, *uploadUow, *storage.LocalBackend) {
	t.Helper()

	uow := &uploadUow{
		deals: &uploadDealRepo{},
		docs:  &uploadDocRepo{},
		jobs:  &uploadJobRepo{},
	}
	factory := &uploadUowFactory{uow: uow}

	store, err := storage.NewLocalBackend(t.TempDir())
	require.NoError(t, err)

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	queue := ingest.NewQueue(pubSub, "INGEST_TEST", 1, factory, nil)

	summarizer := summarize.NewSummarizer(nil, summarize.NewMemoryCache(time.Minute), log.Default())
	svc := NewDealService(factory, store, queue, summarizer, limits)
	return svc, uow, store
}

func TestCreateDealUploadsAndEnqueues(t *testing.T) {
	svc, uow, store := newDealFixture(t, UploadLimits{MaxNativeTokens: 25000})
	files := multipartFiles(t, map[string]string{"report.txt": "short report body"})

	resp, err := svc.Create(context.Background(), &dto.CreateDealRequest{
		Name:  "Acme Corp",
		Focus: "recurring revenue",
	}, files)
	require.NoError(t, err)

	require.Len(t, uow.deals.created, 1)
	assert.Equal(t, "Acme Corp", uow.deals.created[0].Name)

	require.Len(t, resp.Documents, 1)
	docStatus := resp.Documents[0]
	assert.Equal(t, "report.txt", docStatus.Filename)
	assert.Equal(t, model.DocumentStatusQueued, docStatus.Status)
	assert.False(t, docStatus.IsTooLarge)
	assert.False(t, docStatus.IsSummarized)

	require.Len(t, uow.docs.created, 1)
	doc := uow.docs.created[0]
	assert.NotEmpty(t, doc.Checksum)
	assert.Equal(t, int64(len("short report body")), doc.SizeBytes)

	// The uploaded bytes are retrievable under the recorded key.
	data, err := store.Get(context.Background(), doc.StoragePath)
	require.NoError(t, err)
	assert.Equal(t, "short report body", string(data))

	// One ingestion job per uploaded document.
	require.Len(t, uow.jobs.created, 1)
	assert.Equal(t, doc.Id, uow.jobs.created[0].DocumentId)
}

func TestCreateDealOversizedUploadDefaultsToSummaryMode(t *testing.T) {
	// Limit low enough that a few hundred words of text trips it.
	svc, uow, _ := newDealFixture(t, UploadLimits{MaxNativeTokens: 10})
	files := multipartFiles(t, map[string]string{
		"big.txt": strings.Repeat("all work and no play makes a dull memorandum. ", 50),
	})

	resp, err := svc.Create(context.Background(), &dto.CreateDealRequest{Name: "Acme Corp"}, files)
	require.NoError(t, err)

	require.Len(t, resp.Documents, 1)
	assert.True(t, resp.Documents[0].IsTooLarge)
	assert.True(t, resp.Documents[0].IsSummarized)

	require.Len(t, uow.docs.created, 1)
	doc := uow.docs.created[0]
	assert.True(t, doc.UseSummaryForGeneration)
	assert.NotEmpty(t, doc.Summary)
	assert.Equal(t, doc.SummaryTokenCount, doc.TokenCount)
	assert.Greater(t, doc.NativeTokenCount, doc.SummaryTokenCount)
}

func TestCreateDealIdenticalFilenamesGetDistinctKeys(t *testing.T) {
	svc, uow, _ := newDealFixture(t, UploadLimits{MaxNativeTokens: 25000})

	// Two separate uploads with the same name.
	first := multipartFiles(t, map[string]string{"report.txt": "first version"})
	second := multipartFiles(t, map[string]string{"report.txt": "second version"})

	_, err := svc.Create(context.Background(), &dto.CreateDealRequest{Name: "Acme"}, append(first, second...))
	require.NoError(t, err)

	require.Len(t, uow.docs.created, 2)
	assert.NotEqual(t, uow.docs.created[0].StoragePath, uow.docs.created[1].StoragePath)
}

func TestDeleteMissingDealIsNoop(t *testing.T) {
	svc, _, _ := newDealFixture(t, UploadLimits{})

	// FindOne on the zero-value fake returns nil, nil.
	assert.NoError(t, svc.Delete(context.Background(), uuid.New()))
}

// pdfBytes builds a valid PDF whose pages carry real text content
// streams, so analyze can both count pages and extract text.
func pdfBytes(pages int) string {
	var buf bytes.Buffer
	var offsets []int
	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	// Object layout: 1 catalog, 2 pages, 3..pages+2 page nodes,
	// pages+3..2*pages+2 content streams, 2*pages+3 font.
	fontObj := 2*pages + 3

	buf.WriteString("%PDF-1.4\n")
	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	writeObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	writeObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", strings.Join(kids, " "), pages))
	for i := 0; i < pages; i++ {
		writeObj(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>\nendobj\n", i+3, fontObj, pages+3+i))
	}
	for i := 0; i < pages; i++ {
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (Deck page %d body text) Tj ET", i+1)
		writeObj(fmt.Sprintf("%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", pages+3+i, len(stream), stream))
	}
	writeObj(fmt.Sprintf("%d 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n", fontObj))

	xrefPos := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", fontObj+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", fontObj+1, xrefPos)
	return buf.String()
}

func TestCreateDealPersistsPdfPageCount(t *testing.T) {
	svc, uow, _ := newDealFixture(t, UploadLimits{MaxNativeTokens: 25000, MaxNativePDFPages: 100})
	files := multipartFiles(t, map[string]string{"deck.pdf": pdfBytes(3)})

	resp, err := svc.Create(context.Background(), &dto.CreateDealRequest{Name: "Acme"}, files)
	require.NoError(t, err)

	require.Len(t, uow.docs.created, 1)
	assert.Equal(t, 3, uow.docs.created[0].PdfPageCount)

	require.Len(t, resp.Documents, 1)
	assert.False(t, resp.Documents[0].IsTooLarge)
}

func TestCreateDealPdfOverPageLimitSwitchesToSummary(t *testing.T) {
	svc, uow, _ := newDealFixture(t, UploadLimits{MaxNativeTokens: 25000, MaxNativePDFPages: 2})
	files := multipartFiles(t, map[string]string{"deck.pdf": pdfBytes(3)})

	resp, err := svc.Create(context.Background(), &dto.CreateDealRequest{Name: "Acme"}, files)
	require.NoError(t, err)

	require.Len(t, resp.Documents, 1)
	assert.True(t, resp.Documents[0].IsTooLarge)

	require.Len(t, uow.docs.created, 1)
	doc := uow.docs.created[0]
	assert.Equal(t, 3, doc.PdfPageCount)
	assert.True(t, doc.UseSummaryForGeneration)
}
