package signals

import (
	"testing"

	"vulnsphere/internal/database/dbtest"
	"vulnsphere/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	company models.Company
	project models.Project
	asset   models.Asset
	vuln    models.Vulnerability
}

func seed(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()
	f := &fixture{}
	f.company = models.Company{Name: "Acme", Slug: "acme-" + uuid.NewString()[:8], IsActive: true}
	require.NoError(t, db.Create(&f.company).Error)
	f.project = models.Project{CompanyID: f.company.ID, Title: "Q1", Status: models.ProjectDraft}
	require.NoError(t, db.Create(&f.project).Error)
	f.asset = models.Asset{CompanyID: f.company.ID, Name: "web", Type: models.AssetWebApp}
	require.NoError(t, db.Create(&f.asset).Error)
	f.vuln = models.Vulnerability{ProjectID: f.project.ID, Title: "SQLi", Severity: models.SeverityHigh, Status: models.VulnRetestPending}
	require.NoError(t, db.Create(&f.vuln).Error)
	return f
}

func TestFireAutoAttachIsIdempotent(t *testing.T) {
	db := dbtest.New(t)
	f := seed(t, db)
	g := Default(nil, nil)

	for i := 0; i < 2; i++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			return g.Fire(tx, Event{
				Op:        OpCreate,
				Entity:    &models.VulnerabilityAsset{VulnerabilityID: f.vuln.ID, AssetID: f.asset.ID},
				ProjectID: f.project.ID,
				CompanyID: f.company.ID,
			})
		})
		require.NoError(t, err)
	}

	var links []models.ProjectAsset
	require.NoError(t, db.Find(&links).Error)
	require.Len(t, links, 1)
	assert.True(t, links[0].AutoAttached)
}

func TestFireAutoAttachKeepsManualLink(t *testing.T) {
	db := dbtest.New(t)
	f := seed(t, db)
	manual := models.ProjectAsset{ProjectID: f.project.ID, AssetID: f.asset.ID, AutoAttached: false}
	require.NoError(t, db.Create(&manual).Error)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Default(nil, nil).Fire(tx, Event{
			Op:        OpCreate,
			Entity:    &models.VulnerabilityAsset{AssetID: f.asset.ID},
			ProjectID: f.project.ID,
		})
	})
	require.NoError(t, err)

	var got models.ProjectAsset
	require.NoError(t, db.First(&got, "id = ?", manual.ID).Error)
	assert.False(t, got.AutoAttached)
}

func TestFireLogFailureDoesNotAbortMutation(t *testing.T) {
	db := dbtest.New(t)
	f := seed(t, db)
	require.NoError(t, db.Migrator().DropTable(&models.ActivityLog{}))

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&f.company).Update("name", "Acme Corp").Error; err != nil {
			return err
		}
		return Default(nil, nil).Fire(tx, Event{Op: OpUpdate, Entity: &f.company})
	})
	require.NoError(t, err)

	var got models.Company
	require.NoError(t, db.First(&got, "id = ?", f.company.ID).Error)
	assert.Equal(t, "Acme Corp", got.Name)
}

func TestFireRetestRewriteIsAtomic(t *testing.T) {
	db := dbtest.New(t)
	f := seed(t, db)
	passed := models.RetestPassed
	retest := &models.Retest{VulnerabilityID: f.vuln.ID, RequestType: models.RetestRetest, Status: &passed}
	retest.ID = uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		return Default(nil, nil).Fire(tx, Event{Op: OpCreate, Entity: retest})
	})
	require.NoError(t, err)

	var v models.Vulnerability
	require.NoError(t, db.First(&v, "id = ?", f.vuln.ID).Error)
	assert.Equal(t, models.VulnResolved, v.Status)

	var logs []models.ActivityLog
	require.NoError(t, db.Where("action = ?", models.ActionStatusChanged).Find(&logs).Error)
	require.Len(t, logs, 1)

	// without somewhere to write the record, the status stays put
	require.NoError(t, db.Model(&v).Update("status", models.VulnRetestPending).Error)
	require.NoError(t, db.Migrator().DropTable(&models.ActivityLog{}))

	err = db.Transaction(func(tx *gorm.DB) error {
		return Default(nil, nil).Fire(tx, Event{Op: OpCreate, Entity: retest})
	})
	require.Error(t, err)

	require.NoError(t, db.First(&v, "id = ?", f.vuln.ID).Error)
	assert.Equal(t, models.VulnRetestPending, v.Status)
}
