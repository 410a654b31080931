package domain

import (
	"bytes"
	"context"
	"io"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicekit/pkg/db/pagination"
	"gorm.io/gorm"
)

// TemplateInfo describes one selectable template.
type TemplateInfo struct {
	Selection int    `json:"selection"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	Family    Kind   `json:"family"`
}

// ExportedFile is a rendered artifact ready for download or attachment.
type ExportedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Reader exposes the file body.
func (f *ExportedFile) Reader() io.Reader {
	return bytes.NewReader(f.Data)
}

// EmailRequest asks for a document to be delivered by mail.
type EmailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// EmailResult reports which delivery strategy succeeded.
type EmailResult struct {
	Path     string `json:"path"`
	FileName string `json:"file_name"`
}

// Service is the application surface used by HTTP handlers.
type Service interface {
	Compute(ctx context.Context, doc Document) (Document, error)
	Templates(kind Kind) []TemplateInfo
	Preview(ctx context.Context, userID string, doc Document) (string, error)
	Export(ctx context.Context, userID string, doc Document) (*ExportedFile, error)
	Save(ctx context.Context, userID string, doc Document) (*Record, error)
	Load(ctx context.Context, userID, id string) (Document, error)
	List(ctx context.Context, userID string, page pagination.Pagination) (ListResult, error)
	Email(ctx context.Context, userID string, doc Document, req EmailRequest) (EmailResult, error)
}

// ListResult is one page of saved documents, newest first.
type ListResult struct {
	Items    []Record            `json:"items"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

// Repository persists invoice records.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *Record) error
	FindByID(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) (*Record, error)
	// ListByUser returns up to limit rows strictly older than after, when set.
	ListByUser(ctx context.Context, db *gorm.DB, userID string, after *pagination.Cursor, limit int) ([]Record, error)
}
