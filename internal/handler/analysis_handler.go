package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"metabarcoding-web/internal/middleware"
	"metabarcoding-web/internal/model"
	"metabarcoding-web/internal/service"
	"metabarcoding-web/pkg/apierror"
)

// fastqFileField is the multipart field carrying the sequencing reads.
const fastqFileField = "fastq_file"

type AnalysisHandler struct {
	service       *service.AnalysisService
	maxUploadSize int64
}

func NewAnalysisHandler(service *service.AnalysisService, maxUploadSize int64) *AnalysisHandler {
	return &AnalysisHandler{service: service, maxUploadSize: maxUploadSize}
}

func (h *AnalysisHandler) Illumina(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, model.JobTypeIllumina)
}

func (h *AnalysisHandler) Nanopore(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, model.JobTypeNanopore)
}

func (h *AnalysisHandler) submit(w http.ResponseWriter, r *http.Request, jobType model.JobType) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	// Form fields may follow the file part in the stream, so the request is
	// spooled first; large files land in a temp file, not memory.
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if isPayloadTooLarge(err) {
			writeError(w, apierror.New("PAYLOAD_TOO_LARGE", "request body exceeds MAX_UPLOAD_SIZE", "MAX_UPLOAD_SIZE", http.StatusRequestEntityTooLarge))
			return
		}
		writeError(w, apierror.BadRequest("invalid multipart body", err.Error()))
		return
	}

	file, header, err := r.FormFile(fastqFileField)
	if err != nil {
		writeError(w, apierror.BadRequest("multipart field 'fastq_file' is required", fastqFileField))
		return
	}
	defer file.Close()

	var params any
	switch jobType {
	case model.JobTypeIllumina:
		params = parseIlluminaParams(r.PostForm)
	case model.JobTypeNanopore:
		params = parseNanoporeParams(r.PostForm)
	}

	response, err := h.service.Submit(r.Context(), *identity, jobType, header.Filename, file, params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, response)
}

func (h *AnalysisHandler) Jobs(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	jobs, err := h.service.ListJobs(r.Context(), *identity)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, jobs)
}

func (h *AnalysisHandler) Job(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	jobID := strings.TrimSpace(chi.URLParam(r, "job_id"))
	if jobID == "" {
		writeError(w, apierror.BadRequest("job_id is required", "job_id"))
		return
	}

	job, err := h.service.GetJob(r.Context(), *identity, jobID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, job)
}

func isPayloadTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr) ||
		strings.Contains(strings.ToLower(err.Error()), "request body too large")
}

func parseCommonParams(values url.Values, params *model.AnalysisParams) {
	setString(values, "classifier", &params.Classifier)
	setString(values, "reference_sequences", &params.ReferenceSequences)
	setString(values, "reference_db", &params.ReferenceDB)
	setInt(values, "minlen", &params.MinLen)
	setInt(values, "maxns", &params.MaxNs)
	setFloat(values, "maxee", &params.MaxEE)
	setString(values, "additional_email", &params.AdditionalEmail)
	setString(values, "analysis_name", &params.AnalysisName)
}

func parseIlluminaParams(values url.Values) model.IlluminaParams {
	params := model.DefaultIlluminaParams()
	parseCommonParams(values, &params.AnalysisParams)

	if v := strings.TrimSpace(values.Get("sequencing_type")); v == model.SequencingSingleEnd || v == model.SequencingPairedEnd {
		params.SequencingType = v
	}
	setString(values, "adapter", &params.Adapter)
	setInt(values, "min_quality", &params.MinQuality)
	setInt(values, "max_ambiguous", &params.MaxAmbiguous)

	return params
}

func parseNanoporeParams(values url.Values) model.NanoporeParams {
	params := model.DefaultNanoporeParams()
	parseCommonParams(values, &params.AnalysisParams)

	setInt(values, "trim_first_bases", &params.TrimFirstBases)
	setInt(values, "trim_after_base", &params.TrimAfterBase)
	setOptionalInt(values, "min_quality", &params.MinQuality)
	setOptionalInt(values, "max_ambiguous", &params.MaxAmbiguous)

	return params
}

func setString(values url.Values, key string, target *string) {
	if v := strings.TrimSpace(values.Get(key)); v != "" {
		*target = v
	}
}

func setInt(values url.Values, key string, target *int) {
	if v, err := strconv.Atoi(strings.TrimSpace(values.Get(key))); err == nil {
		*target = v
	}
}

func setOptionalInt(values url.Values, key string, target **int) {
	if v, err := strconv.Atoi(strings.TrimSpace(values.Get(key))); err == nil {
		*target = &v
	}
}

func setFloat(values url.Values, key string, target *float64) {
	if v, err := strconv.ParseFloat(strings.TrimSpace(values.Get(key)), 64); err == nil {
		*target = v
	}
}
