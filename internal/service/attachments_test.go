package service

import (
	"io"
	"strings"
	"testing"

	"vulnsphere/internal/models"
	"vulnsphere/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAttachments(t *testing.T, e *env) *Attachments {
	t.Helper()
	media, err := storage.NewFilesystem(t.TempDir(), nil, nil)
	require.NoError(t, err)
	return NewAttachments(e.db, media, "/media", nil)
}

func TestAttachmentUploadToVulnerability(t *testing.T) {
	e := setup(t)
	att := newAttachments(t, e)

	png := "\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 16)
	a, err := att.Upload(e.ctx, e.actor, AttachmentUpload{
		VulnerabilityID: &e.vuln.ID,
		FileName:        "../../Proof.PNG",
		Description:     " login bypass ",
		Body:            strings.NewReader(png),
	})
	require.NoError(t, err)

	assert.Equal(t, "Proof.PNG", a.FileName)
	assert.Equal(t, "login bypass", a.Description)
	assert.Equal(t, "image/png", a.ContentType)
	assert.EqualValues(t, len(png), a.Size)
	assert.Equal(t, e.project.ID, *a.ProjectID)
	assert.Equal(t, storage.AttachmentsPrefix+a.ID.String()+".png", a.FileKey)
	assert.Equal(t, "/media/"+a.FileKey, a.URL)
	assert.Equal(t, e.actor.ID, *a.UploadedByID)

	_, rc, err := att.Open(e.ctx, a.ID)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, png, string(body))

	list, err := att.List(e.ctx, AttachmentFilter{ProjectID: &e.project.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.URL, list[0].URL)

	require.NoError(t, att.Delete(e.ctx, a.ID))
	_, _, err = att.Open(e.ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAttachmentUploadValidation(t *testing.T) {
	e := setup(t)
	att := newAttachments(t, e)
	other := uuid.New()

	tests := []struct {
		name string
		up   AttachmentUpload
		want error
	}{
		{"no scope", AttachmentUpload{FileName: "a.txt"}, ErrValidation},
		{"no file name", AttachmentUpload{ProjectID: &e.project.ID}, ErrValidation},
		{"unknown project", AttachmentUpload{ProjectID: &other, FileName: "a.txt"}, ErrNotFound},
		{"project mismatch", AttachmentUpload{ProjectID: &other, VulnerabilityID: &e.vuln.ID, FileName: "a.txt"}, ErrValidation},
		{"too large", AttachmentUpload{ProjectID: &e.project.ID, FileName: "a.bin", Body: io.LimitReader(zeroReader{}, MaxAttachmentBytes+1)}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.up.Body == nil {
				tt.up.Body = strings.NewReader("x")
			}
			_, err := att.Upload(e.ctx, e.actor, tt.up)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	var n int64
	require.NoError(t, e.db.Model(&models.Attachment{}).Count(&n).Error)
	assert.Zero(t, n)
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}
