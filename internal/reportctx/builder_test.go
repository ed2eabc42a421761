package reportctx

import (
	"testing"
	"time"

	"vulnsphere/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMarkdown struct {
	embedFlags []bool
}

func (f *fakeMarkdown) Render(text string, embedImages bool) string {
	f.embedFlags = append(f.embedFlags, embedImages)
	if text == "" {
		return ""
	}
	return "<p>" + text + "</p>"
}

var base = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func vuln(title string, sev models.Severity, age time.Duration) models.Vulnerability {
	v := models.Vulnerability{
		Title:    title,
		Severity: sev,
		Status:   models.VulnOpen,
	}
	v.ID = uuid.New()
	v.CreatedAt = base.Add(-age)
	return v
}

func titles(v Value) []string {
	var out []string
	for _, it := range v.Items() {
		out = append(out, it.Get("title").Str())
	}
	return out
}

func TestProjectContextOrderingAndCounts(t *testing.T) {
	p := &models.Project{
		Title:   "Q1 External",
		Status:  models.ProjectFinal,
		Company: &models.Company{Name: "Acme"},
		Vulnerabilities: []models.Vulnerability{
			vuln("XSS", models.SeverityHigh, time.Hour),
			vuln("RCE", models.SeverityCritical, 2*time.Hour),
			vuln("Banner", models.SeverityLow, 0),
		},
	}
	p.ID = uuid.New()

	ctx := NewBuilder(&fakeMarkdown{}).BuildProjectContext(p, true)

	assert.Equal(t, []string{"RCE", "XSS", "Banner"}, titles(ctx["vulnerabilities"]))
	assert.Equal(t, Map(map[string]Value{
		"critical": Int(1), "high": Int(1), "medium": Int(0), "low": Int(1), "info": Int(0), "total": Int(3),
	}), ctx["severity_counts"])

	proj := ctx["project"]
	assert.Equal(t, p.ID.String(), proj.Get("id").Str())
	assert.Equal(t, "Acme", proj.Get("company").Str())
	assert.Equal(t, "Final", proj.Get("status").Str())
	assert.Equal(t, "FINAL", proj.Get("status_code").Str())

	sev := ctx["severities"].Items()
	require.Len(t, sev, 5)
	assert.Equal(t, "critical", sev[0].Get("severity").Str())
	assert.Equal(t, int64(1), sev[0].Get("count").IntVal())
	assert.Equal(t, "Info", sev[4].Get("label").Str())
}

func TestOrderingTieBreaks(t *testing.T) {
	older := vuln("older", models.SeverityHigh, time.Hour)
	newer := vuln("newer", models.SeverityHigh, 0)
	a := vuln("a", models.SeverityMedium, 0)
	b := vuln("b", models.SeverityMedium, 0)
	a.ID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b.ID = uuid.MustParse("00000000-0000-0000-0000-000000000002")

	got := sortVulnerabilities([]models.Vulnerability{b, older, a, newer})
	var names []string
	for _, v := range got {
		names = append(names, v.Title)
	}
	assert.Equal(t, []string{"newer", "older", "a", "b"}, names)
}

func TestHistogramSumsToTotal(t *testing.T) {
	vulns := []models.Vulnerability{
		vuln("a", models.SeverityInfo, 0),
		vuln("b", models.SeverityUnclassified, 0),
		vuln("c", models.SeverityMedium, 0),
	}
	c := countSeverities(vulns)

	var sum int64
	for _, b := range buckets {
		sum += c[b.key]
	}
	assert.Equal(t, c["total"], sum)
	assert.Equal(t, int64(2), c["info"])
}

func TestVulnerabilityFields(t *testing.T) {
	score := 9.81
	zero := 0.0
	passed := models.RetestPassed

	v := vuln("SQLi", models.SeverityInfo, 0)
	v.CVSSScore = &score
	v.DetailsMD = "details"
	v.References = []string{"https://owasp.org"}
	v.Assets = []models.VulnerabilityAsset{
		{AssetID: uuid.New(), Asset: &models.Asset{Name: "web", Identifier: "https://app.acme.test"}, NotesMD: "login form"},
	}
	first := models.Retest{RequestType: models.RetestRequest}
	first.ID = uuid.New()
	first.CreatedAt = base.Add(-time.Hour)
	second := models.Retest{
		RequestType: models.RetestRetest,
		Status:      &passed,
		PerformedBy: &models.User{Username: "tess", FirstName: "Tess", LastName: "Ter"},
	}
	second.ID = uuid.New()
	second.CreatedAt = base
	v.Retests = []models.Retest{first, second}

	other := vuln("Info leak", models.SeverityLow, 0)
	other.CVSSScore = &zero

	p := &models.Project{Vulnerabilities: []models.Vulnerability{v, other}}
	ctx := NewBuilder(&fakeMarkdown{}).BuildProjectContext(p, false)
	items := ctx["vulnerabilities"].Items()
	require.Len(t, items, 2)

	got := items[1]
	assert.Equal(t, "SQLi", got.Get("title").Str())
	assert.Equal(t, "Info", got.Get("severity").Str())
	assert.Equal(t, "Info", got.Get("severity_display").Str())
	assert.Equal(t, "INFO", got.Get("severity_code").Str())
	assert.Equal(t, "9.8", got.Get("cvss_score").Str())
	assert.Equal(t, "<p>details</p>", got.Get("description").Str())
	assert.Equal(t, "March 01, 2025", got.Get("created_at").Str())
	assert.Equal(t, List(String("https://owasp.org")), got.Get("references"))

	assets := got.Get("assets").Items()
	require.Len(t, assets, 1)
	assert.Equal(t, "https://app.acme.test", assets[0].Get("url").Str())

	rts := got.Get("retests").Items()
	require.Len(t, rts, 2)
	assert.Equal(t, "Retest Completed", rts[0].Get("request_type").Str())
	assert.Equal(t, "Passed (Fixed)", rts[0].Get("status").Str())
	assert.Equal(t, "Tess Ter", rts[0].Get("performed_by").Str())
	assert.Equal(t, "N/A", rts[0].Get("requested_by").Str())
	assert.Equal(t, "N/A", rts[1].Get("status").Str())

	assert.Equal(t, "N/A", items[0].Get("cvss_score").Str())
}

func TestEmbedFlagForwarded(t *testing.T) {
	md := &fakeMarkdown{}
	v := vuln("x", models.SeverityLow, 0)
	v.Retests = []models.Retest{{RequestType: models.RetestInitial}}
	p := &models.Project{Summary: "s", Vulnerabilities: []models.Vulnerability{v}}

	NewBuilder(md).BuildProjectContext(p, false)
	require.NotEmpty(t, md.embedFlags)
	for _, f := range md.embedFlags {
		assert.False(t, f)
	}

	md.embedFlags = nil
	NewBuilder(md).BuildProjectContext(p, true)
	for _, f := range md.embedFlags {
		assert.True(t, f)
	}
}

func TestProjectAssets(t *testing.T) {
	p := &models.Project{Assets: []models.ProjectAsset{
		{AutoAttached: true, Asset: &models.Asset{Name: "zeta", Type: models.AssetAPI, Identifier: "api.acme.test", IsActive: true}},
		{Asset: &models.Asset{Name: "alpha", Type: models.AssetWebApp}},
		{Asset: nil},
	}}

	ctx := NewBuilder(&fakeMarkdown{}).BuildProjectContext(p, false)
	assets := ctx["assets"].Items()
	require.Len(t, assets, 2)
	assert.Equal(t, "alpha", assets[0].Get("name").Str())
	assert.Equal(t, "Web Application", assets[0].Get("type").Str())
	assert.Equal(t, "api.acme.test", assets[1].Get("url").Str())
	assert.Equal(t, Bool(true), assets[1].Get("auto_attached"))
}

func TestCompanyContext(t *testing.T) {
	older := models.Project{Title: "old", Status: models.ProjectArchived, Vulnerabilities: []models.Vulnerability{
		vuln("a", models.SeverityCritical, 0),
	}}
	older.ID = uuid.New()
	older.CreatedAt = base.Add(-48 * time.Hour)

	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	newer := models.Project{Title: "new", StartDate: &start, Status: models.ProjectDraft, Vulnerabilities: []models.Vulnerability{
		vuln("b", models.SeverityHigh, 0),
		vuln("c", models.SeverityUnclassified, 0),
	}}
	newer.ID = uuid.New()
	newer.CreatedAt = base

	c := &models.Company{Name: "Acme", ContactEmail: "sec@acme.test", Notes: "vip", Projects: []models.Project{older, newer}}
	c.ID = uuid.New()

	ctx := NewBuilder(&fakeMarkdown{}).BuildCompanyContext(c, true)

	assert.Equal(t, c.ID.String(), ctx["company"].Get("id").Str())
	assert.Equal(t, "sec@acme.test", ctx["company"].Get("email").Str())
	assert.Equal(t, "<p>vip</p>", ctx["company"].Get("notes").Str())

	counts := ctx["company_severity_counts"]
	assert.Equal(t, int64(3), counts.Get("total").IntVal())
	assert.Equal(t, int64(1), counts.Get("critical").IntVal())
	assert.Equal(t, int64(1), counts.Get("info").IntVal())

	projects := ctx["projects"].Items()
	require.Len(t, projects, 2)
	assert.Equal(t, "new", projects[0].Get("title").Str())
	assert.Equal(t, "January 06, 2025", projects[0].Get("start_date").Str())
	assert.Equal(t, int64(2), projects[0].Get("vuln_count").IntVal())
	assert.Equal(t, "Archived", projects[1].Get("status").Str())

	_, hasVulns := ctx["vulnerabilities"]
	assert.False(t, hasVulns)
}
