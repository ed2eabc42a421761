package signals

import (
	"testing"

	"vulnsphere/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusPtr(s models.RetestStatus) *models.RetestStatus { return &s }

func TestAutoAttachAsset(t *testing.T) {
	projectID, assetID := uuid.New(), uuid.New()
	actor := &Actor{ID: uuid.New(), Name: "tester"}
	va := &models.VulnerabilityAsset{AssetID: assetID}

	out := AutoAttachAsset(Event{Op: OpCreate, Entity: va, ProjectID: projectID, Actor: actor})
	require.Len(t, out.Writes, 1)
	w := out.Writes[0].(AttachAsset)
	assert.Equal(t, projectID, w.ProjectID)
	assert.Equal(t, assetID, w.AssetID)
	assert.Equal(t, actor.ID, *w.ActorID)
	assert.Empty(t, out.Logs)

	assert.Empty(t, AutoAttachAsset(Event{Op: OpDelete, Entity: va, ProjectID: projectID}).Writes)
	assert.Empty(t, AutoAttachAsset(Event{Op: OpCreate, Entity: va}).Writes, "no project scope")
	assert.Empty(t, AutoAttachAsset(Event{Op: OpCreate, Entity: &models.Asset{}, ProjectID: projectID}).Writes)
}

func TestRetestStatus(t *testing.T) {
	vuln := &models.Vulnerability{Title: "SQLi", Status: models.VulnRetestPending, Project: &models.Project{CompanyID: uuid.New()}}
	vuln.ID = uuid.New()

	cases := []struct {
		name   string
		typ    models.RetestRequestType
		status *models.RetestStatus
		want   models.VulnStatus
	}{
		{"passed", models.RetestRetest, statusPtr(models.RetestPassed), models.VulnResolved},
		{"failed", models.RetestRetest, statusPtr(models.RetestFailed), models.VulnRetestFailed},
		{"partial", models.RetestRetest, statusPtr(models.RetestPartial), ""},
		{"pending", models.RetestRetest, nil, ""},
		{"request", models.RetestRequest, statusPtr(models.RetestPassed), ""},
		{"initial", models.RetestInitial, statusPtr(models.RetestFailed), ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &models.Retest{VulnerabilityID: vuln.ID, Vulnerability: vuln, RequestType: tc.typ, Status: tc.status}
			r.ID = uuid.New()

			out := RetestStatus(Event{Op: OpCreate, Entity: r})
			if tc.want == "" {
				assert.Empty(t, out.Writes)
				return
			}
			require.Len(t, out.Writes, 1)
			w := out.Writes[0].(RewriteStatus)
			assert.Equal(t, vuln.ID, w.VulnerabilityID)
			assert.Equal(t, tc.want, w.Status)
			assert.Equal(t, models.ActionStatusChanged, w.Log.Action)
			assert.Equal(t, string(tc.want), w.Log.Metadata["new_status"])
			assert.Equal(t, "RETEST_PENDING", w.Log.Metadata["old_status"])
			assert.Equal(t, r.ID.String(), w.Log.Metadata["retest_id"])
			assert.Equal(t, vuln.Project.CompanyID, *w.Log.CompanyID)
		})
	}

	r := &models.Retest{VulnerabilityID: vuln.ID, RequestType: models.RetestRetest, Status: statusPtr(models.RetestPassed)}
	assert.Empty(t, RetestStatus(Event{Op: OpDelete, Entity: r}).Writes)
}

func TestRetestStatusOnUpdate(t *testing.T) {
	vuln := &models.Vulnerability{Title: "SQLi", Status: models.VulnOpen}
	vuln.ID = uuid.New()
	retest := func(typ models.RetestRequestType, st *models.RetestStatus) *models.Retest {
		return &models.Retest{VulnerabilityID: vuln.ID, Vulnerability: vuln, RequestType: typ, Status: st}
	}

	cases := []struct {
		name   string
		before *models.Retest
		after  *models.Retest
		want   bool
	}{
		{"notes only on passed", retest(models.RetestRetest, statusPtr(models.RetestPassed)), retest(models.RetestRetest, statusPtr(models.RetestPassed)), false},
		{"pending to passed", retest(models.RetestRetest, nil), retest(models.RetestRetest, statusPtr(models.RetestPassed)), true},
		{"passed to failed", retest(models.RetestRetest, statusPtr(models.RetestPassed)), retest(models.RetestRetest, statusPtr(models.RetestFailed)), true},
		{"partial to passed", retest(models.RetestRetest, statusPtr(models.RetestPartial)), retest(models.RetestRetest, statusPtr(models.RetestPassed)), true},
		{"request becomes retest", retest(models.RetestRequest, statusPtr(models.RetestFailed)), retest(models.RetestRetest, statusPtr(models.RetestFailed)), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := RetestStatus(Event{Op: OpUpdate, Entity: tc.after, Before: tc.before})
			if tc.want {
				assert.Len(t, out.Writes, 1)
			} else {
				assert.Empty(t, out.Writes)
			}
		})
	}
}

func TestAuditLogEntities(t *testing.T) {
	companyID := uuid.New()
	actor := &Actor{ID: uuid.New(), Name: "Alice Admin"}

	company := &models.Company{Name: "Acme"}
	company.ID = companyID
	out := AuditLog(Event{Op: OpCreate, Entity: company, Actor: actor})
	require.Len(t, out.Logs, 1)
	l := out.Logs[0]
	assert.Equal(t, "COMPANY", l.EntityType)
	assert.Equal(t, models.ActionCreated, l.Action)
	assert.Equal(t, companyID, *l.CompanyID)
	assert.Equal(t, actor.ID, *l.UserID)
	assert.Equal(t, "Alice Admin", l.UserName)
	assert.Equal(t, "Acme", l.Metadata["name"])

	project := &models.Project{CompanyID: companyID, Title: "Q1", Status: models.ProjectDraft}
	out = AuditLog(Event{Op: OpDelete, Entity: project})
	require.Len(t, out.Logs, 1)
	assert.Equal(t, models.ActionDeleted, out.Logs[0].Action)
	assert.Equal(t, "Q1", out.Logs[0].Metadata["title"])
	assert.NotContains(t, out.Logs[0].Metadata, "status")
	assert.Nil(t, out.Logs[0].UserID, "system actor")

	asset := &models.Asset{CompanyID: companyID, Name: "web", Type: models.AssetWebApp}
	out = AuditLog(Event{Op: OpUpdate, Entity: asset})
	assert.Equal(t, models.ActionUpdated, out.Logs[0].Action)
	assert.Equal(t, "WEB_APP", out.Logs[0].Metadata["type"])

	author := uuid.New()
	comment := &models.Comment{CompanyID: companyID, AuthorID: &author}
	out = AuditLog(Event{Op: OpDelete, Entity: comment})
	assert.Equal(t, map[string]any{"author_id": author.String()}, map[string]any(out.Logs[0].Metadata))
}

func TestAuditLogVulnerabilityStatusChangeIsExclusive(t *testing.T) {
	before := &models.Vulnerability{Title: "XSS", Status: models.VulnOpen}
	after := &models.Vulnerability{Title: "XSS", Status: models.VulnResolved, Project: &models.Project{CompanyID: uuid.New()}}

	out := AuditLog(Event{Op: OpUpdate, Entity: after, Before: before, Reason: ReasonStatusChange})
	require.Len(t, out.Logs, 1)
	assert.Equal(t, models.ActionStatusChanged, out.Logs[0].Action)
	assert.Equal(t, "OPEN", out.Logs[0].Metadata["old_status"])
	assert.Equal(t, "RESOLVED", out.Logs[0].Metadata["new_status"])

	// a generic update that touches status is still UPDATED
	out = AuditLog(Event{Op: OpUpdate, Entity: after, Before: before})
	require.Len(t, out.Logs, 1)
	assert.Equal(t, models.ActionUpdated, out.Logs[0].Action)
	assert.Equal(t, "RESOLVED", out.Logs[0].Metadata["status"])
}

func TestAuditLogEventMetaMerged(t *testing.T) {
	v := &models.Vulnerability{Title: "x", Status: models.VulnRetestPending}
	out := AuditLog(Event{Op: OpUpdate, Entity: v, Reason: ReasonStatusChange, Meta: map[string]any{"old_status": "various", "notes": "please"}})
	assert.Equal(t, "various", out.Logs[0].Metadata["old_status"])
	assert.Equal(t, "please", out.Logs[0].Metadata["notes"])
}

func TestAuditLogUserFanOut(t *testing.T) {
	a, b := models.Company{}, models.Company{}
	a.ID, b.ID = uuid.New(), uuid.New()
	u := &models.User{Username: "client1", Role: models.RoleClient, Companies: []models.Company{a, b}}
	u.ID = uuid.New()

	out := AuditLog(Event{Op: OpCreate, Entity: u})
	require.Len(t, out.Logs, 2)
	assert.Equal(t, a.ID, *out.Logs[0].CompanyID)
	assert.Equal(t, b.ID, *out.Logs[1].CompanyID)
	for _, l := range out.Logs {
		assert.Equal(t, models.EntityUser, l.EntityType)
		assert.Equal(t, "client1", l.Metadata["username"])
		assert.Equal(t, "CLIENT", l.Metadata["role"])
	}

	assert.Empty(t, AuditLog(Event{Op: OpCreate, Entity: &models.User{}}).Logs)
}
