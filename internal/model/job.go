package model

import (
	"encoding/json"
	"time"
)

type JobType string

const (
	JobTypeIllumina JobType = "illumina"
	JobTypeNanopore JobType = "nanopore"
)

type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// AnalysisJob is the durable record of a submitted analysis. The status
// transition out of "pending" is owned by the external analysis worker.
type AnalysisJob struct {
	JobID       string     `json:"job_id"`
	UserID      string     `json:"-"`
	Type        JobType    `json:"type"`
	FilePath    string     `json:"file_path"`
	Parameters  string     `json:"-"`
	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ResultPath  *string    `json:"result_path,omitempty"`
}

type JobSummary struct {
	JobID     string    `json:"job_id"`
	Type      JobType   `json:"type"`
	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type JobDetail struct {
	JobID       string          `json:"job_id"`
	Type        JobType         `json:"type"`
	FilePath    string          `json:"file_path"`
	Parameters  json.RawMessage `json:"parameters"`
	Status      JobStatus       `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	ResultPath  *string         `json:"result_path,omitempty"`
}

func (j AnalysisJob) Detail() JobDetail {
	return JobDetail{
		JobID:       j.JobID,
		Type:        j.Type,
		FilePath:    j.FilePath,
		Parameters:  json.RawMessage(j.Parameters),
		Status:      j.Status,
		CreatedAt:   j.CreatedAt,
		CompletedAt: j.CompletedAt,
		ResultPath:  j.ResultPath,
	}
}

type AnalysisResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// AnalysisParams holds the parameter fields shared by both sequencing
// platforms. Zero-valued optional fields are omitted from the stored blob.
type AnalysisParams struct {
	Classifier         string  `json:"classifier"`
	ReferenceSequences string  `json:"reference_sequences"`
	ReferenceDB        string  `json:"reference_db"`
	MinLen             int     `json:"minlen"`
	MaxNs              int     `json:"maxns"`
	MaxEE              float64 `json:"maxee"`
	AdditionalEmail    string  `json:"additional_email,omitempty"`
	AnalysisName       string  `json:"analysis_name,omitempty"`
}

type IlluminaParams struct {
	AnalysisParams
	SequencingType string `json:"sequencing_type"`
	Adapter        string `json:"adapter"`
	MinQuality     int    `json:"min_quality"`
	MaxAmbiguous   int    `json:"max_ambiguous"`
}

type NanoporeParams struct {
	AnalysisParams
	TrimFirstBases int  `json:"trim_first_bases"`
	TrimAfterBase  int  `json:"trim_after_base"`
	MinQuality     *int `json:"min_quality,omitempty"`
	MaxAmbiguous   *int `json:"max_ambiguous,omitempty"`
}

const (
	SequencingSingleEnd = "single-end"
	SequencingPairedEnd = "paired-end"
)

func defaultAnalysisParams() AnalysisParams {
	return AnalysisParams{
		Classifier:         "naive-bayes",
		ReferenceSequences: "silva",
		ReferenceDB:        "gtdb",
		MinLen:             150,
		MaxNs:              5,
		MaxEE:              2.0,
	}
}

func DefaultIlluminaParams() IlluminaParams {
	return IlluminaParams{
		AnalysisParams: defaultAnalysisParams(),
		SequencingType: SequencingSingleEnd,
		Adapter:        "default",
		MinQuality:     20,
		MaxAmbiguous:   2,
	}
}

func DefaultNanoporeParams() NanoporeParams {
	return NanoporeParams{
		AnalysisParams: defaultAnalysisParams(),
		TrimFirstBases: 80,
		TrimAfterBase:  700,
	}
}
