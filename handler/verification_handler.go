package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/Aashish23092/travel-document-verification/dto"
	"github.com/Aashish23092/travel-document-verification/pkg/logger"
	"github.com/Aashish23092/travel-document-verification/service"

	"github.com/gin-gonic/gin"
)

type VerificationHandler struct {
	verificationService *service.VerificationService
	documentReader      *service.DocumentReader
	policy              dto.EligibilityPolicy
}

// NewVerificationHandler wires the endpoints to the service. policy is used
// whenever a request carries none, and as the base a partial policy is
// layered over.
func NewVerificationHandler(verificationService *service.VerificationService, documentReader *service.DocumentReader, policy dto.EligibilityPolicy) *VerificationHandler {
	return &VerificationHandler{
		verificationService: verificationService,
		documentReader:      documentReader,
		policy:              policy,
	}
}

// RegisterRoutes mounts the travel document endpoints on an API group
func (h *VerificationHandler) RegisterRoutes(api *gin.RouterGroup) {
	docs := api.Group("/travel-documents")
	{
		docs.POST("/verify", h.VerifyDocuments)
		docs.POST("/evaluate", h.EvaluateDocuments)
	}
}

// VerifyDocuments handles POST /travel-documents/verify with uploaded images
func (h *VerificationHandler) VerifyDocuments(c *gin.Context) {
	ctx := c.Request.Context()

	form, err := c.MultipartForm()
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Failed to parse multipart form", err)
		return
	}

	request := &dto.DocumentUploadRequest{
		Files:     form.File["files[]"],
		Applicant: c.PostForm("applicant"),
		Policy:    c.PostForm("policy"),
		Barcodes:  c.PostForm("barcodes"),
	}
	if err := request.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	applicant, err := request.ParseApplicant()
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Invalid applicant", err)
		return
	}
	policy, err := dto.ParsePolicyJSON([]byte(request.Policy), h.policy)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Invalid policy", err)
		return
	}
	barcodes, err := request.ParseBarcodes()
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Invalid barcodes", err)
		return
	}

	sources := make([]service.DocumentSource, 0, len(request.Files))
	for i, file := range request.Files {
		data, err := readUpload(file)
		if err != nil {
			h.sendError(c, http.StatusBadRequest, "Failed to read uploaded file", err)
			return
		}
		sources = append(sources, h.documentReader.Source(file.Filename, data, barcodes[i]))
	}

	logger.Info(ctx, "processing travel document upload", "files", len(sources))
	response := h.verificationService.Evaluate(ctx, sources, applicant, &policy)
	c.JSON(http.StatusOK, response)
}

// EvaluateDocuments handles POST /travel-documents/evaluate with text that was
// already recognised by the caller
func (h *VerificationHandler) EvaluateDocuments(c *gin.Context) {
	var request dto.EvaluateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := request.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, err.Error(), err)
		return
	}
	policy, err := dto.ParsePolicyJSON(request.Policy, h.policy)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Invalid policy", err)
		return
	}

	response := h.verificationService.EvaluateDocuments(c.Request.Context(), request.Documents, request.Applicant, &policy)
	c.JSON(http.StatusOK, response)
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", file.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", file.Filename, err)
	}
	return data, nil
}

// sendError sends a structured error response
func (h *VerificationHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		logger.WithContext(c.Request.Context()).Warn(message, slog.Any("error", err))
	}

	code := "bad_request"
	switch {
	case statusCode >= http.StatusInternalServerError:
		code = "internal_error"
	case errors.Is(err, dto.ErrNoDocuments):
		code = "no_documents"
	case errors.Is(err, dto.ErrInvalidApplicant):
		code = "invalid_applicant"
	case errors.Is(err, dto.ErrInvalidPolicy):
		code = "invalid_policy"
	case errors.Is(err, dto.ErrInvalidBarcodes):
		code = "invalid_barcodes"
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   code,
		Message: errorMsg,
		Code:    statusCode,
	})
}
