package reports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"vulnsphere/internal/models"
	"vulnsphere/internal/service"
	"vulnsphere/internal/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxTemplateBytes caps an uploaded template file.
const MaxTemplateBytes = 20 << 20

type Templates struct {
	db    *gorm.DB
	store storage.ObjectStorage
}

func NewTemplates(db *gorm.DB, store storage.ObjectStorage) *Templates {
	return &Templates{db: db, store: store}
}

type TemplateUpload struct {
	Name        string
	Description string
	FileName    string
	Body        io.Reader
}

func (t *Templates) Upload(ctx context.Context, up TemplateUpload) (*models.ReportTemplate, error) {
	name := strings.TrimSpace(up.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", service.ErrValidation)
	}
	fileName := filepath.Base(strings.TrimSpace(up.FileName))
	if fileName == "." || fileName == "/" || fileName == "" {
		return nil, fmt.Errorf("%w: file is required", service.ErrValidation)
	}

	body, err := io.ReadAll(io.LimitReader(up.Body, MaxTemplateBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(body) > MaxTemplateBytes {
		return nil, fmt.Errorf("%w: template file is larger than %d bytes", service.ErrValidation, MaxTemplateBytes)
	}

	tmpl := &models.ReportTemplate{
		Name:        name,
		Description: strings.TrimSpace(up.Description),
		FileName:    fileName,
	}
	tmpl.ID = uuid.New()
	// the body is stored as is; a broken package fails when it is rendered
	format := tmpl.Format()

	key := storage.TemplatesPrefix + tmpl.ID.String() + "." + format.Ext()
	meta := storage.ObjectMetadata{ContentType: format.ContentType(), ContentLength: int64(len(body))}
	if err := t.store.Put(ctx, key, bytes.NewReader(body), meta); err != nil {
		return nil, fmt.Errorf("store template: %w", err)
	}
	tmpl.FileKey = key

	if err := t.db.WithContext(ctx).Create(tmpl).Error; err != nil {
		_ = t.store.Delete(ctx, key)
		return nil, fmt.Errorf("create template: %w", err)
	}
	return tmpl, nil
}

func (t *Templates) List(ctx context.Context) ([]models.ReportTemplate, error) {
	var out []models.ReportTemplate
	err := t.db.WithContext(ctx).Order("name").Find(&out).Error
	return out, err
}

func (t *Templates) Get(ctx context.Context, id uuid.UUID) (*models.ReportTemplate, error) {
	var tmpl models.ReportTemplate
	if err := t.db.WithContext(ctx).First(&tmpl, "id = ?", id).Error; err != nil {
		return nil, notFound("template", id, err)
	}
	return &tmpl, nil
}

func (t *Templates) Open(ctx context.Context, id uuid.UUID) (*models.ReportTemplate, io.ReadCloser, error) {
	tmpl, err := t.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if tmpl.FileKey == "" {
		return tmpl, nil, fmt.Errorf("%w: template %s has no file", service.ErrNotFound, id)
	}
	rc, err := t.store.Get(ctx, tmpl.FileKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return tmpl, nil, fmt.Errorf("%w: %w", service.ErrNotFound, err)
		}
		return tmpl, nil, err
	}
	return tmpl, rc, nil
}

// Delete removes the template row and its file. Generated reports keep
// their outputs.
func (t *Templates) Delete(ctx context.Context, id uuid.UUID) error {
	tmpl, err := t.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := t.db.WithContext(ctx).Delete(tmpl).Error; err != nil {
		return err
	}
	if tmpl.FileKey != "" {
		if err := t.store.Delete(ctx, tmpl.FileKey); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			return fmt.Errorf("delete template file: %w", err)
		}
	}
	return nil
}
