package database_test

import (
	"fmt"
	"testing"
	"time"

	"vulnsphere/internal/config"
	"vulnsphere/internal/database"
	"vulnsphere/internal/database/dbtest"
	"vulnsphere/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func sqliteConfig() *config.Config {
	return &config.Config{
		DBDriver:      "sqlite",
		DBDSN:         fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		DBMaxAttempts: 1,
		AutoMigrate:   true,
		AdminUsername: "admin",
		AdminEmail:    "admin@example.com",
		AdminPassword: "s3cret-pass",
	}
}

func TestInitCreatesAdminOnce(t *testing.T) {
	cfg := sqliteConfig()

	db, err := database.Init(cfg)
	require.NoError(t, err)
	assert.Same(t, db, database.DB)

	var admins []models.User
	require.NoError(t, db.Where("role = ?", models.RoleAdmin).Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin", admins[0].Username)
	assert.True(t, admins[0].IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admins[0].PasswordHash), []byte("s3cret-pass")))

	_, err = database.Init(cfg)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := database.Open("mysql", "whatever", 1)
	assert.ErrorContains(t, err, "unsupported db driver")
}

func TestListActivityLogs(t *testing.T) {
	db := dbtest.New(t)
	companyA, companyB := uuid.New(), uuid.New()
	entity := uuid.New()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	logs := []models.ActivityLog{
		{CompanyID: &companyA, EntityType: models.EntityProject, EntityID: entity, Action: models.ActionCreated, CreatedAt: base},
		{CompanyID: &companyA, EntityType: models.EntityProject, EntityID: entity, Action: models.ActionUpdated, CreatedAt: base.Add(time.Hour)},
		{CompanyID: &companyA, EntityType: models.EntityAsset, EntityID: uuid.New(), Action: models.ActionCreated, CreatedAt: base.Add(2 * time.Hour)},
		{CompanyID: &companyB, EntityType: models.EntityProject, EntityID: uuid.New(), Action: models.ActionCreated, CreatedAt: base.Add(3 * time.Hour)},
	}
	for i := range logs {
		require.NoError(t, db.Create(&logs[i]).Error)
	}

	got, err := database.ListActivityLogs(db, database.ActivityFilter{CompanyID: &companyA})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, models.EntityAsset, got[0].EntityType, "newest first")

	got, err = database.ListActivityLogs(db, database.ActivityFilter{EntityType: models.EntityProject, EntityID: &entity})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.ActionUpdated, got[0].Action)

	got, err = database.ListActivityLogs(db, database.ActivityFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, companyB, *got[0].CompanyID)
}

func TestLoadProjectForReport(t *testing.T) {
	db := dbtest.New(t)
	company := models.Company{Name: "Acme", Slug: "acme"}
	require.NoError(t, db.Create(&company).Error)
	project := models.Project{CompanyID: company.ID, Title: "Q1", Status: models.ProjectDraft}
	require.NoError(t, db.Create(&project).Error)
	asset := models.Asset{CompanyID: company.ID, Name: "web", Type: models.AssetWebApp}
	require.NoError(t, db.Create(&asset).Error)
	vuln := models.Vulnerability{ProjectID: project.ID, Title: "XSS", Severity: models.SeverityLow, Status: models.VulnOpen}
	require.NoError(t, db.Create(&vuln).Error)
	require.NoError(t, db.Create(&models.VulnerabilityAsset{VulnerabilityID: vuln.ID, AssetID: asset.ID}).Error)

	p, err := database.LoadProjectForReport(db, project.ID)
	require.NoError(t, err)
	require.NotNil(t, p.Company)
	assert.Equal(t, "Acme", p.Company.Name)
	require.Len(t, p.Vulnerabilities, 1)
	require.Len(t, p.Vulnerabilities[0].Assets, 1)
	assert.Equal(t, "web", p.Vulnerabilities[0].Assets[0].Asset.Name)

	_, err = database.LoadProjectForReport(db, uuid.New())
	assert.Error(t, err)
}

func TestDashboardOverview(t *testing.T) {
	db := dbtest.New(t)
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	mine := models.Company{Name: "Acme", Slug: "acme", IsActive: true}
	other := models.Company{Name: "Globex", Slug: "globex", IsActive: true}
	require.NoError(t, db.Create(&mine).Error)
	require.NoError(t, db.Create(&other).Error)

	p := models.Project{CompanyID: mine.ID, Title: "Q1", Status: models.ProjectDraft}
	q := models.Project{CompanyID: other.ID, Title: "Q2", Status: models.ProjectDraft}
	require.NoError(t, db.Create(&p).Error)
	require.NoError(t, db.Create(&q).Error)

	for i, sev := range []models.Severity{models.SeverityCritical, models.SeverityHigh, models.SeverityUnclassified} {
		v := models.Vulnerability{ProjectID: p.ID, Title: string(sev), Severity: sev, Status: models.VulnOpen}
		v.CreatedAt = now.AddDate(0, 0, -i)
		require.NoError(t, db.Create(&v).Error)
	}
	stale := models.Vulnerability{ProjectID: q.ID, Title: "old", Severity: models.SeverityLow, Status: models.VulnResolved}
	stale.CreatedAt = now.AddDate(0, 0, -90)
	require.NoError(t, db.Create(&stale).Error)

	o, err := database.DashboardOverviewFor(db, []uuid.UUID{mine.ID}, now)
	require.NoError(t, err)
	assert.EqualValues(t, 3, o.TotalVulnerabilities)
	assert.EqualValues(t, 1, o.TotalProjects)
	assert.EqualValues(t, 1, o.CriticalVulnerabilities)
	assert.EqualValues(t, 1, o.SeverityDistribution["info"])
	assert.EqualValues(t, 3, o.StatusDistribution["open"])
	require.Len(t, o.RecentProjects, 1)
	assert.EqualValues(t, 3, o.RecentProjects[0].VulnerabilityCount)
	require.Len(t, o.VulnerabilityTrend, 30)
	assert.Equal(t, "2026-03-15", o.VulnerabilityTrend[29].Date)
	assert.EqualValues(t, 1, o.VulnerabilityTrend[29].Count)
	assert.EqualValues(t, 1, o.VulnerabilityTrend[27].Count)

	all, err := database.DashboardOverviewFor(db, nil, now)
	require.NoError(t, err)
	assert.EqualValues(t, 4, all.TotalVulnerabilities)
	assert.EqualValues(t, 0, all.VulnerabilityTrend[0].Count)

	none, err := database.DashboardOverviewFor(db, []uuid.UUID{}, now)
	require.NoError(t, err)
	assert.Zero(t, none.TotalVulnerabilities)
	assert.Empty(t, none.RecentVulnerabilities)
}
