package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"vulnsphere/internal/models"
	"vulnsphere/internal/signals"
	"vulnsphere/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxAttachmentBytes caps one uploaded attachment.
const MaxAttachmentBytes = 25 << 20

// Attachments keeps project and vulnerability files in the media store, so
// Markdown can reference them by URL and reports can embed them.
type Attachments struct {
	db       *gorm.DB
	media    storage.ObjectStorage
	mediaURL string
	logger   *slog.Logger
}

func NewAttachments(db *gorm.DB, media storage.ObjectStorage, mediaURL string, logger *slog.Logger) *Attachments {
	if logger == nil {
		logger = slog.Default()
	}
	if mediaURL == "" {
		mediaURL = "/media/"
	}
	if !strings.HasSuffix(mediaURL, "/") {
		mediaURL += "/"
	}
	return &Attachments{db: db, media: media, mediaURL: mediaURL, logger: logger.With("component", "attachments")}
}

type AttachmentUpload struct {
	ProjectID       *uuid.UUID
	VulnerabilityID *uuid.UUID
	FileName        string
	Description     string
	Body            io.Reader
}

type AttachmentFilter struct {
	ProjectID       *uuid.UUID
	VulnerabilityID *uuid.UUID
}

func (a *Attachments) withURL(att *models.Attachment) *models.Attachment {
	att.URL = a.mediaURL + att.FileKey
	return att
}

// resolveAttachmentScope checks the target exists. A vulnerability implies
// its project; a conflicting project id is rejected.
func resolveAttachmentScope(tx *gorm.DB, att *models.Attachment, projectID, vulnID *uuid.UUID) error {
	switch {
	case vulnID != nil:
		v, err := find[models.Vulnerability](tx, *vulnID)
		if err != nil {
			return err
		}
		if projectID != nil && *projectID != v.ProjectID {
			return invalid("vulnerability does not belong to the project")
		}
		att.VulnerabilityID = &v.ID
		att.ProjectID = &v.ProjectID
	case projectID != nil:
		p, err := find[models.Project](tx, *projectID)
		if err != nil {
			return err
		}
		att.ProjectID = &p.ID
	default:
		return invalid("project_id or vulnerability_id is required")
	}
	return nil
}

func (a *Attachments) Upload(ctx context.Context, actor *signals.Actor, up AttachmentUpload) (*models.Attachment, error) {
	fileName := filepath.Base(strings.TrimSpace(up.FileName))
	if fileName == "." || fileName == "/" || fileName == "" {
		return nil, invalid("file is required")
	}
	body, err := io.ReadAll(io.LimitReader(up.Body, MaxAttachmentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(body) > MaxAttachmentBytes {
		return nil, invalid("attachment is larger than %d bytes", MaxAttachmentBytes)
	}

	att := &models.Attachment{
		FileName:     fileName,
		Description:  strings.TrimSpace(up.Description),
		ContentType:  mimetype.Detect(body).String(),
		Size:         int64(len(body)),
		UploadedByID: actorID(actor),
	}
	att.ID = uuid.New()
	// the stored name is derived from the id; the original name is kept in the row
	att.FileKey = storage.AttachmentsPrefix + att.ID.String() + strings.ToLower(path.Ext(fileName))

	err = a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := resolveAttachmentScope(tx, att, up.ProjectID, up.VulnerabilityID); err != nil {
			return err
		}
		meta := storage.ObjectMetadata{ContentType: att.ContentType, ContentLength: att.Size}
		if err := a.media.Put(ctx, att.FileKey, bytes.NewReader(body), meta); err != nil {
			return fmt.Errorf("store attachment: %w", err)
		}
		if err := tx.Omit(clause.Associations).Create(att).Error; err != nil {
			_ = a.media.Delete(ctx, att.FileKey)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	a.logger.Info("attachment uploaded", "attachment_id", att.ID, "file_name", att.FileName, "size", att.Size)
	return a.withURL(att), nil
}

func (a *Attachments) List(ctx context.Context, f AttachmentFilter) ([]models.Attachment, error) {
	q := a.db.WithContext(ctx).Order("created_at desc").Order("id")
	if f.ProjectID != nil {
		q = q.Where("project_id = ?", *f.ProjectID)
	}
	if f.VulnerabilityID != nil {
		q = q.Where("vulnerability_id = ?", *f.VulnerabilityID)
	}
	var out []models.Attachment
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	for i := range out {
		a.withURL(&out[i])
	}
	return out, nil
}

func (a *Attachments) Get(ctx context.Context, id uuid.UUID) (*models.Attachment, error) {
	att, err := find[models.Attachment](a.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return a.withURL(att), nil
}

func (a *Attachments) Open(ctx context.Context, id uuid.UUID) (*models.Attachment, io.ReadCloser, error) {
	att, err := a.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := a.media.Get(ctx, att.FileKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return att, nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return att, nil, err
	}
	return att, rc, nil
}

// Delete removes the row, then the file. A file that is already gone is fine.
func (a *Attachments) Delete(ctx context.Context, id uuid.UUID) error {
	att, err := find[models.Attachment](a.db.WithContext(ctx), id)
	if err != nil {
		return err
	}
	if err := a.db.WithContext(ctx).Delete(att).Error; err != nil {
		return err
	}
	if err := a.media.Delete(ctx, att.FileKey); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		return fmt.Errorf("delete attachment file: %w", err)
	}
	a.logger.Info("attachment deleted", "attachment_id", att.ID)
	return nil
}
