package handlers

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"policyreview-backend/models"
	"policyreview-backend/repository"
	"policyreview-backend/service"
	"policyreview-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AnalysisHandler handles HTTP requests for document analyses.
type AnalysisHandler struct {
	jobRepo         *repository.AnalysisJobRepository
	docRepo         *repository.DocumentRecordRepository
	storage         storage.Storage
	analysisService *service.AnalysisService
	maxFileSize     int64
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(jobRepo *repository.AnalysisJobRepository, docRepo *repository.DocumentRecordRepository, fileStorage storage.Storage, analysisService *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		jobRepo:         jobRepo,
		docRepo:         docRepo,
		storage:         fileStorage,
		analysisService: analysisService,
		maxFileSize:     50 * 1024 * 1024, // 50MB
	}
}

// CreateAnalysis handles POST /api/analyses. It accepts a multipart form
// with one or more "reference" PDFs and exactly one "target" PDF, stores the
// uploads, creates the job, and returns its id immediately. The pipeline
// runs in the background; callers poll the status endpoint.
func (h *AnalysisHandler) CreateAnalysis(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FORM",
				"message": "Multipart form could not be parsed",
			},
		})
		return
	}

	references := form.File["reference"]
	targets := form.File["target"]

	if len(references) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_REFERENCE",
				"message": "At least one reference document is required",
			},
		})
		return
	}
	if len(targets) != 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_TARGET",
				"message": "Exactly one target document is required",
			},
		})
		return
	}

	for _, fh := range append(append([]*multipart.FileHeader{}, references...), targets...) {
		if !strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf") {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNSUPPORTED_FILE_TYPE",
					"message": fmt.Sprintf("Only PDF files are supported: %s", fh.Filename),
				},
			})
			return
		}
		if fh.Size > h.maxFileSize {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FILE_TOO_LARGE",
					"message": fmt.Sprintf("File exceeds the %dMB limit: %s", h.maxFileSize/(1024*1024), fh.Filename),
				},
			})
			return
		}
	}

	job := &models.AnalysisJob{
		Status: models.JobStatusPending,
		Steps:  models.NewAnalysisSteps(),
	}
	if err := h.jobRepo.Create(c.Request.Context(), job); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "JOB_CREATION_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	for _, fh := range references {
		if err := h.storeUpload(c, job.ID, models.RoleReference, fh); err != nil {
			h.respondUploadFailure(c, job.ID, fh.Filename, err)
			return
		}
	}
	if err := h.storeUpload(c, job.ID, models.RoleTarget, targets[0]); err != nil {
		h.respondUploadFailure(c, job.ID, targets[0].Filename, err)
		return
	}

	// Fire and continue: the heavy pipeline runs detached from the request.
	go func() {
		if err := h.analysisService.ProcessAnalysis(context.Background(), job.ID); err != nil {
			log.Printf("Warning: analysis job %s failed: %v", job.ID, err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data": gin.H{
			"job_id":  job.ID,
			"status":  job.Status,
			"message": "Documents are being analyzed. Poll the status endpoint with job_id.",
		},
	})
}

// storeUpload writes one uploaded file to storage and records it.
func (h *AnalysisHandler) storeUpload(c *gin.Context, jobID uuid.UUID, role models.DocumentRole, fh *multipart.FileHeader) error {
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	docID := uuid.New()
	storagePath, err := h.storage.Upload(c.Request.Context(), docID, fh.Filename, src)
	if err != nil {
		return fmt.Errorf("failed to store upload: %w", err)
	}

	record := &models.DocumentRecord{
		ID:          docID,
		JobID:       jobID,
		Role:        role,
		Filename:    fh.Filename,
		MimeType:    "application/pdf",
		Size:        fh.Size,
		StoragePath: storagePath,
	}
	if err := h.docRepo.Create(c.Request.Context(), record); err != nil {
		return fmt.Errorf("failed to record upload: %w", err)
	}
	return nil
}

func (h *AnalysisHandler) respondUploadFailure(c *gin.Context, jobID uuid.UUID, filename string, err error) {
	log.Printf("Warning: upload for job %s failed on %s: %v", jobID, filename, err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UPLOAD_FAILED",
			"message": fmt.Sprintf("Failed to store %s", filename),
		},
	})
}

// GetAnalysis handles GET /api/analyses/:id and returns job status including
// per-phase progress and, for finished jobs, the assessment summary.
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid analysis job ID format",
			},
		})
		return
	}

	job, err := h.jobRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "JOB_NOT_FOUND",
				"message": "Analysis job not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    job,
	})
}

// DownloadReport handles GET /api/analyses/:id/report and streams the
// rendered PDF report.
func (h *AnalysisHandler) DownloadReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid analysis job ID format",
			},
		})
		return
	}

	job, err := h.jobRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "JOB_NOT_FOUND",
				"message": "Analysis job not found",
			},
		})
		return
	}

	if job.ReportPath == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "REPORT_NOT_READY",
				"message": "Report has not been generated yet",
			},
		})
		return
	}

	reader, err := h.storage.Download(c.Request.Context(), *job.ReportPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "REPORT_UNAVAILABLE",
				"message": "Failed to retrieve report from storage",
			},
		})
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="compliance_report_%s.pdf"`, job.ID))
	c.Header("Content-Type", "application/pdf")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		log.Printf("Warning: failed to stream report for job %s: %v", job.ID, err)
	}
}
