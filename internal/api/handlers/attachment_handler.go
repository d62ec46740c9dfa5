// internal/api/handlers/attachment_handler.go
package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"military-logistics-api-server/internal/api/middleware"
	"military-logistics-api-server/internal/apperror"
	"military-logistics-api-server/internal/rbac"
	"military-logistics-api-server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxAttachmentSize = 10 << 20

// FileUploader stores an object and returns its public URL.
type FileUploader interface {
	UploadFile(ctx context.Context, file io.Reader, objectKey, contentType string) (string, error)
}

type AttachmentHandler struct {
	Uploader FileUploader
	Services *service.Services
}

// attachFunc authorizes the write before anything is uploaded and then
// records the uploaded URL.
type attachFunc struct {
	check  func(ctx context.Context, p *rbac.Principal, id string) error
	attach func(ctx context.Context, p *rbac.Principal, id, url string) (interface{}, error)
}

func (h *AttachmentHandler) UploadPurchaseAttachment(c *gin.Context) {
	s := h.Services.Purchases
	h.upload(c, "purchases", attachFunc{
		check: s.CanAttach,
		attach: func(ctx context.Context, p *rbac.Principal, id, url string) (interface{}, error) {
			return s.AddAttachment(ctx, p, id, url)
		},
	})
}

func (h *AttachmentHandler) UploadTransferAttachment(c *gin.Context) {
	s := h.Services.Transfers
	h.upload(c, "transfers", attachFunc{
		check: s.CanAttach,
		attach: func(ctx context.Context, p *rbac.Principal, id, url string) (interface{}, error) {
			return s.AddAttachment(ctx, p, id, url)
		},
	})
}

func (h *AttachmentHandler) UploadAssignmentAttachment(c *gin.Context) {
	s := h.Services.Assignments
	h.upload(c, "assignments", attachFunc{
		check: s.CanAttach,
		attach: func(ctx context.Context, p *rbac.Principal, id, url string) (interface{}, error) {
			return s.AddAttachment(ctx, p, id, url)
		},
	})
}

func (h *AttachmentHandler) UploadExpenditureAttachment(c *gin.Context) {
	s := h.Services.Expenditures
	h.upload(c, "expenditures", attachFunc{
		check: s.CanAttach,
		attach: func(ctx context.Context, p *rbac.Principal, id, url string) (interface{}, error) {
			return s.AddAttachment(ctx, p, id, url)
		},
	})
}

func (h *AttachmentHandler) upload(c *gin.Context, prefix string, fn attachFunc) {
	if h.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "File uploads are not configured"})
		return
	}
	ctx := c.Request.Context()
	p := middleware.Principal(c)
	id := c.Param("id")
	if err := fn.check(ctx, p, id); err != nil {
		respondError(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAttachmentSize)
	header, err := c.FormFile("file")
	if err != nil {
		respondError(c, apperror.Validation("file", "File is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, apperror.Validation("file", "Failed to read file"))
		return
	}
	defer file.Close()

	key := fmt.Sprintf("%s/%s/%s-%s", prefix, id, uuid.NewString(), sanitizeFilename(header.Filename))
	url, err := h.Uploader.UploadFile(ctx, file, key, header.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, apperror.Dependency("Failed to upload file", err))
		return
	}

	record, err := fn.attach(ctx, p, id, url)
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.Logger(c).Info("Attachment uploaded", "resource", prefix, "id", id, "key", key)
	c.JSON(http.StatusCreated, gin.H{"url": url, "data": record})
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}
