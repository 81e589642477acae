package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/lectern/internal/core/ports/driving"
)

type resourceFixture struct {
	store     *mocks.MockResourceStore
	files     *mocks.MockFileStore
	artifacts *mocks.MockArtifactWriter
	queue     *mocks.MockTaskQueue
	svc       driving.ResourceService
}

func newResourceFixture(maxBytes int64) *resourceFixture {
	f := &resourceFixture{
		store:     mocks.NewMockResourceStore(),
		files:     mocks.NewMockFileStore(),
		artifacts: mocks.NewMockArtifactWriter(),
		queue:     mocks.NewMockTaskQueue(),
	}
	f.svc = NewResourceService(ResourceServiceConfig{
		Store:          f.store,
		Files:          f.files,
		Artifacts:      f.artifacts,
		Queue:          f.queue,
		Status:         NewStatusManager(f.store, nil),
		MaxUploadBytes: maxBytes,
	})
	return f
}

var teacher = &domain.AuthContext{UserID: "user-1", Email: "t@school.test", Role: domain.RoleTeacher}

func pdfUpload(body string) driving.UploadRequest {
	return driving.UploadRequest{
		FileName:    "lesson.pdf",
		ContentType: "application/pdf",
		Size:        int64(len(body)),
		SubjectID:   "bio-101",
		Body:        strings.NewReader(body),
	}
}

func TestResourceService_Upload(t *testing.T) {
	f := newResourceFixture(0)

	r, err := f.svc.Upload(context.Background(), teacher, pdfUpload("%PDF-1.4"))
	require.NoError(t, err)

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "lesson.pdf", r.FileName)
	assert.Equal(t, "application/pdf", r.MimeType)
	assert.Equal(t, "bio-101", r.SubjectID)
	assert.Equal(t, "user-1", r.UploadedBy)
	assert.Equal(t, int64(8), r.FileSize)
	assert.Equal(t, domain.ExtractionStatusProcessing, r.ExtractionStatus)
	assert.Equal(t, domain.JSONFileStatusPending, r.JSONFileStatus)
	assert.True(t, f.files.Has(r.FilePath))

	stored, err := f.store.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionStatusProcessing, stored.ExtractionStatus)

	pending := f.queue.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, domain.TaskTypeExtractResource, pending[0].Type)
	assert.Equal(t, r.ID, pending[0].ResourceID())
	assert.Equal(t, "bio-101", pending[0].SubjectID)
}

func TestResourceService_Upload_Validation(t *testing.T) {
	tests := []struct {
		name   string
		caller *domain.AuthContext
		mutate func(*driving.UploadRequest)
		want   error
	}{
		{"no caller", nil, func(*driving.UploadRequest) {}, domain.ErrUnauthorized},
		{"student", &domain.AuthContext{UserID: "s", Role: domain.RoleStudent}, func(*driving.UploadRequest) {}, domain.ErrForbidden},
		{"missing subject", teacher, func(r *driving.UploadRequest) { r.SubjectID = "  " }, domain.ErrInvalidInput},
		{"missing file name", teacher, func(r *driving.UploadRequest) { r.FileName = "" }, domain.ErrInvalidInput},
		{"missing body", teacher, func(r *driving.UploadRequest) { r.Body = nil }, domain.ErrInvalidInput},
		{"docx", teacher, func(r *driving.UploadRequest) {
			r.FileName = "notes.docx"
			r.ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
		}, domain.ErrUnsupportedType},
		{"declared too large", teacher, func(r *driving.UploadRequest) { r.Size = 1 << 20 }, domain.ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newResourceFixture(1024)
			req := pdfUpload("%PDF-1.4")
			tt.mutate(&req)

			_, err := f.svc.Upload(context.Background(), tt.caller, req)

			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Empty(t, f.queue.Pending())
		})
	}
}

func TestResourceService_Upload_AcceptsPDFContentType(t *testing.T) {
	f := newResourceFixture(0)
	req := pdfUpload("%PDF-1.4")
	req.FileName = "scan"
	req.ContentType = "Application/PDF; charset=binary"

	_, err := f.svc.Upload(context.Background(), teacher, req)
	assert.NoError(t, err)
}

func TestResourceService_Upload_BodyOverLimit(t *testing.T) {
	f := newResourceFixture(4)
	req := pdfUpload("%PDF-1.4")
	req.Size = 0

	_, err := f.svc.Upload(context.Background(), teacher, req)
	assert.True(t, errors.Is(err, domain.ErrFileTooLarge))
}

func TestResourceService_Upload_CreateFailsRemovesFile(t *testing.T) {
	f := newResourceFixture(0)
	var savedPath string
	f.store.CreateFn = func(r *domain.Resource) error {
		savedPath = r.FilePath
		return errors.New("db down")
	}

	_, err := f.svc.Upload(context.Background(), teacher, pdfUpload("%PDF-1.4"))

	require.Error(t, err)
	assert.NotEmpty(t, savedPath)
	assert.False(t, f.files.Has(savedPath))
	assert.Empty(t, f.queue.Pending())
}

func TestResourceService_Upload_EnqueueFails(t *testing.T) {
	f := newResourceFixture(0)
	var id string
	f.queue.EnqueueFn = func(task *domain.Task) error {
		id = task.ResourceID()
		return domain.ErrQueueFull
	}

	_, err := f.svc.Upload(context.Background(), teacher, pdfUpload("%PDF-1.4"))
	assert.True(t, errors.Is(err, domain.ErrQueueFull))
	assert.True(t, errors.Is(err, domain.ErrQueueUnavailable))

	r, err := f.store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionStatusFailed, r.ExtractionStatus)
	assert.Equal(t, domain.JSONFileStatusFailed, r.JSONFileStatus)
}

func TestResourceService_GetAndList(t *testing.T) {
	f := newResourceFixture(0)
	ctx := context.Background()

	a, err := f.svc.Upload(ctx, teacher, pdfUpload("%PDF-a"))
	require.NoError(t, err)
	other := pdfUpload("%PDF-b")
	other.SubjectID = "chem-1"
	_, err = f.svc.Upload(ctx, teacher, other)
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = f.svc.Get(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	list, err := f.svc.List(ctx, domain.ResourceFilter{SubjectID: "bio-101"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	all, err := f.svc.List(ctx, domain.ResourceFilter{Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestResourceService_ChunksAndContent(t *testing.T) {
	f := newResourceFixture(0)
	ctx := context.Background()

	r := domain.NewResource("res-1", "lesson.pdf", "/uploads/res-1/lesson.pdf", 10, "application/pdf", "bio-101", "user-1")
	f.store.Put(r)

	chunks, err := f.svc.Chunks(ctx, "res-1")
	require.NoError(t, err)
	assert.NotNil(t, chunks)
	assert.Empty(t, chunks)

	_, err = f.svc.Content(ctx, "res-1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	r.ExtractionStatus = domain.ExtractionStatusCompleted
	r.TextChunks = []domain.Chunk{{ID: 1, Section: 1, Content: "cells", WordCount: 1}}
	r.JSONFileStatus = domain.JSONFileStatusCreated
	r.JSONFilePath = "/uploads/res-1/lesson_content.json"
	f.store.Put(r)
	require.NoError(t, f.artifacts.Write(ctx, r.JSONFilePath, map[string]any{"chunks": []any{}}))

	chunks, err = f.svc.Chunks(ctx, "res-1")
	require.NoError(t, err)
	assert.Len(t, chunks, 1)

	body, err := f.svc.Content(ctx, "res-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"chunks":[]}`, string(body))
}
