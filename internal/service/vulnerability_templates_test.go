package service

import (
	"testing"

	"vulnsphere/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVulnerabilityFromTemplate(t *testing.T) {
	e := setup(t)

	tmpl, err := e.svc.CreateVulnerabilityTemplate(e.ctx, e.actor, VulnerabilityTemplateInput{
		Title:      ptr("Reflected XSS"),
		Severity:   ptr(models.SeverityMedium),
		CVSSScore:  ptr(6.1),
		DetailsMD:  ptr("Input is echoed back."),
		References: &[]string{"https://owasp.org/www-community/attacks/xss/"},
	})
	require.NoError(t, err)
	assert.Equal(t, e.actor.ID, *tmpl.CreatedByID)

	v, err := e.svc.CreateVulnerabilityFromTemplate(e.ctx, e.actor, tmpl.ID, e.project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Reflected XSS", v.Title)
	assert.Equal(t, models.SeverityMedium, v.Severity)
	assert.Equal(t, models.VulnOpen, v.Status)
	assert.Equal(t, e.project.ID, v.ProjectID)
	require.NotNil(t, v.CVSSScore)
	assert.InDelta(t, 6.1, *v.CVSSScore, 0.001)
	assert.Equal(t, []string{"https://owasp.org/www-community/attacks/xss/"}, []string(v.References))

	logs := e.logs(t, models.EntityVulnerability, v.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, models.ActionCreated, logs[0].Action)
	assert.Equal(t, tmpl.ID.String(), logs[0].Metadata["template_id"])

	// the copy is independent of later template edits
	_, err = e.svc.UpdateVulnerabilityTemplate(e.ctx, tmpl.ID, VulnerabilityTemplateInput{Title: ptr("Stored XSS")})
	require.NoError(t, err)
	var reloaded models.Vulnerability
	require.NoError(t, e.db.First(&reloaded, "id = ?", v.ID).Error)
	assert.Equal(t, "Reflected XSS", reloaded.Title)
}

func TestVulnerabilityTemplateValidation(t *testing.T) {
	e := setup(t)

	_, err := e.svc.CreateVulnerabilityTemplate(e.ctx, e.actor, VulnerabilityTemplateInput{Severity: ptr(models.SeverityLow)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.svc.CreateVulnerabilityTemplate(e.ctx, e.actor, VulnerabilityTemplateInput{Title: ptr("x"), Severity: ptr(models.Severity("SEVERE"))})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.svc.CreateVulnerabilityFromTemplate(e.ctx, e.actor, uuid.New(), e.project.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	tmpl, err := e.svc.CreateVulnerabilityTemplate(e.ctx, e.actor, VulnerabilityTemplateInput{Title: ptr("Open redirect")})
	require.NoError(t, err)
	assert.Equal(t, models.SeverityUnclassified, tmpl.Severity)

	require.NoError(t, e.svc.DeleteVulnerabilityTemplate(e.ctx, tmpl.ID))
	assert.ErrorIs(t, e.svc.DeleteVulnerabilityTemplate(e.ctx, tmpl.ID), ErrNotFound)
}
