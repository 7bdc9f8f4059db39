package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"metabarcoding-web/internal/model"
	"metabarcoding-web/pkg/apierror"
)

type JobStore interface {
	Create(ctx context.Context, job model.AnalysisJob) error
	ListByOwner(ctx context.Context, userID string) ([]model.JobSummary, error)
	FindByOwner(ctx context.Context, userID string, jobID string) (model.AnalysisJob, error)
}

type UploadStore interface {
	Save(jobID string, filename string, r io.Reader) (string, error)
}

// AnalysisService is the upload intake: it persists the FASTQ stream, then
// records the job. The file write deliberately precedes record creation — a
// stray file without a row is tolerable, a row pointing at a missing file is
// not.
type AnalysisService struct {
	jobs    JobStore
	uploads UploadStore
}

func NewAnalysisService(jobs JobStore, uploads UploadStore) *AnalysisService {
	return &AnalysisService{jobs: jobs, uploads: uploads}
}

func (s *AnalysisService) Submit(ctx context.Context, owner model.Identity, jobType model.JobType, filename string, file io.Reader, params any) (model.AnalysisResponse, error) {
	jobID := uuid.NewString()

	filePath, err := s.uploads.Save(jobID, filename, file)
	if err != nil {
		return model.AnalysisResponse{}, apierror.Internal("failed to store uploaded file", err.Error())
	}

	blob, err := json.Marshal(params)
	if err != nil {
		return model.AnalysisResponse{}, apierror.Internal("failed to serialize analysis parameters", err.Error())
	}

	job := model.AnalysisJob{
		JobID:      jobID,
		UserID:     owner.ID,
		Type:       jobType,
		FilePath:   filePath,
		Parameters: string(blob),
		Status:     model.JobStatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return model.AnalysisResponse{}, apierror.Internal("failed to record analysis job", err.Error())
	}

	return model.AnalysisResponse{
		JobID:   jobID,
		Status:  "received",
		Message: fmt.Sprintf("%s data processing started", jobTypeTitle(jobType)),
	}, nil
}

func (s *AnalysisService) ListJobs(ctx context.Context, owner model.Identity) ([]model.JobSummary, error) {
	return s.jobs.ListByOwner(ctx, owner.ID)
}

func (s *AnalysisService) GetJob(ctx context.Context, owner model.Identity, jobID string) (model.JobDetail, error) {
	job, err := s.jobs.FindByOwner(ctx, owner.ID, jobID)
	if err != nil {
		return model.JobDetail{}, err
	}
	return job.Detail(), nil
}

func jobTypeTitle(jobType model.JobType) string {
	switch jobType {
	case model.JobTypeIllumina:
		return "Illumina"
	case model.JobTypeNanopore:
		return "Nanopore"
	default:
		return string(jobType)
	}
}
