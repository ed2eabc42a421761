package reportctx

import (
	"sort"

	"vulnsphere/internal/models"
)

type MarkdownRenderer interface {
	Render(text string, embedImages bool) string
}

// Builder assembles report contexts from loaded models. Callers preload the
// associations (see database.LoadProjectForReport).
type Builder struct {
	md MarkdownRenderer
}

func NewBuilder(md MarkdownRenderer) *Builder {
	return &Builder{md: md}
}

type severityCounts map[string]int64

func countSeverities(vulns []models.Vulnerability) severityCounts {
	c := severityCounts{"critical": 0, "high": 0, "medium": 0, "low": 0, "info": 0}
	for _, v := range vulns {
		c[SeverityBucket(v.Severity)]++
	}
	c["total"] = int64(len(vulns))
	return c
}

func (c severityCounts) value() Value {
	m := make(map[string]Value, len(c))
	for k, n := range c {
		m[k] = Int(n)
	}
	return Map(m)
}

func (c severityCounts) list() Value {
	out := make([]Value, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, Map(map[string]Value{
			"severity": String(b.key),
			"label":    String(b.label),
			"count":    Int(c[b.key]),
		}))
	}
	return List(out...)
}

// sortVulnerabilities: severity rank desc, newest first, then id.
func sortVulnerabilities(vulns []models.Vulnerability) []models.Vulnerability {
	out := append([]models.Vulnerability(nil), vulns...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := SeverityRank(out[i].Severity), SeverityRank(out[j].Severity)
		if ri != rj {
			return ri > rj
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (b *Builder) BuildProjectContext(p *models.Project, embedImages bool) Context {
	vulns := sortVulnerabilities(p.Vulnerabilities)
	counts := countSeverities(vulns)

	companyName := ""
	if p.Company != nil {
		companyName = p.Company.Name
	}

	items := make([]Value, 0, len(vulns))
	for _, v := range vulns {
		items = append(items, b.vulnerability(v, embedImages))
	}

	return Context{
		"project": Map(map[string]Value{
			"id":              String(p.ID.String()),
			"title":           String(p.Title),
			"company":         String(companyName),
			"engagement_type": String(p.EngagementType),
			"summary":         String(b.md.Render(p.Summary, embedImages)),
			"scope":           String(b.md.Render(p.ScopeDescription, embedImages)),
			"start_date":      String(FormatDate(p.StartDate)),
			"end_date":        String(FormatDate(p.EndDate)),
			"status":          String(p.Status.Label()),
			"status_code":     String(string(p.Status)),
		}),
		"severity_counts": counts.value(),
		"severities":      counts.list(),
		"assets":          projectAssets(p.Assets),
		"vulnerabilities": List(items...),
	}
}

func projectAssets(links []models.ProjectAsset) Value {
	links = append([]models.ProjectAsset(nil), links...)
	sort.SliceStable(links, func(i, j int) bool {
		ni, nj := assetName(links[i].Asset), assetName(links[j].Asset)
		if ni != nj {
			return ni < nj
		}
		return links[i].AssetID.String() < links[j].AssetID.String()
	})

	out := make([]Value, 0, len(links))
	for _, l := range links {
		if l.Asset == nil {
			continue
		}
		a := l.Asset
		out = append(out, Map(map[string]Value{
			"id":            String(a.ID.String()),
			"name":          String(a.Name),
			"type":          String(a.Type.Label()),
			"type_code":     String(string(a.Type)),
			"url":           String(a.Identifier),
			"is_active":     Bool(a.IsActive),
			"auto_attached": Bool(l.AutoAttached),
		}))
	}
	return List(out...)
}

func assetName(a *models.Asset) string {
	if a == nil {
		return ""
	}
	return a.Name
}

func (b *Builder) vulnerability(v models.Vulnerability, embedImages bool) Value {
	refs := make([]Value, 0, len(v.References))
	for _, r := range v.References {
		refs = append(refs, String(r))
	}

	links := append([]models.VulnerabilityAsset(nil), v.Assets...)
	sort.SliceStable(links, func(i, j int) bool {
		return assetName(links[i].Asset) < assetName(links[j].Asset)
	})
	assets := make([]Value, 0, len(links))
	for _, l := range links {
		if l.Asset == nil {
			continue
		}
		assets = append(assets, Map(map[string]Value{
			"name":  String(l.Asset.Name),
			"url":   String(l.Asset.Identifier),
			"notes": String(b.md.Render(l.NotesMD, embedImages)),
		}))
	}

	retests := append([]models.Retest(nil), v.Retests...)
	sort.SliceStable(retests, func(i, j int) bool {
		if !retests[i].CreatedAt.Equal(retests[j].CreatedAt) {
			return retests[i].CreatedAt.After(retests[j].CreatedAt)
		}
		return retests[i].ID.String() < retests[j].ID.String()
	})
	rts := make([]Value, 0, len(retests))
	for _, r := range retests {
		rts = append(rts, b.retest(r, embedImages))
	}

	label := SeverityLabel(v.Severity)
	created := v.CreatedAt
	return Map(map[string]Value{
		"id":               String(v.ID.String()),
		"title":            String(v.Title),
		"severity":         String(label),
		"severity_display": String(label),
		"severity_code":    String(string(v.Severity)),
		"status":           String(v.Status.Label()),
		"status_code":      String(string(v.Status)),
		"cvss_score":       String(formatCVSS(v.CVSSScore)),
		"cvss_vector":      String(v.CVSSVector),
		"description":      String(b.md.Render(v.DetailsMD, embedImages)),
		"references":       List(refs...),
		"created_at":       String(FormatDate(&created)),
		"assets":           List(assets...),
		"retests":          List(rts...),
	})
}

func (b *Builder) retest(r models.Retest, embedImages bool) Value {
	status := notAvailable
	if r.Status != nil {
		status = r.Status.Label()
	}
	return Map(map[string]Value{
		"id":           String(r.ID.String()),
		"request_type": String(r.RequestType.Label()),
		"status":       String(status),
		"retest_date":  String(FormatDate(r.RetestDate)),
		"performed_by": String(userName(r.PerformedBy)),
		"requested_by": String(userName(r.RequestedBy)),
		"notes":        String(b.md.Render(r.NotesMD, embedImages)),
	})
}

func userName(u *models.User) string {
	if u == nil {
		return notAvailable
	}
	return u.DisplayName()
}

// BuildCompanyContext summarises every project of the company. It does not
// list individual vulnerabilities.
func (b *Builder) BuildCompanyContext(c *models.Company, embedImages bool) Context {
	var all []models.Vulnerability
	projects := append([]models.Project(nil), c.Projects...)
	for _, p := range projects {
		all = append(all, p.Vulnerabilities...)
	}
	counts := countSeverities(all)

	sort.SliceStable(projects, func(i, j int) bool {
		if !projects[i].CreatedAt.Equal(projects[j].CreatedAt) {
			return projects[i].CreatedAt.After(projects[j].CreatedAt)
		}
		return projects[i].ID.String() < projects[j].ID.String()
	})

	items := make([]Value, 0, len(projects))
	for _, p := range projects {
		items = append(items, Map(map[string]Value{
			"id":              String(p.ID.String()),
			"title":           String(p.Title),
			"engagement_type": String(p.EngagementType),
			"start_date":      String(FormatDate(p.StartDate)),
			"end_date":        String(FormatDate(p.EndDate)),
			"status":          String(p.Status.Label()),
			"status_code":     String(string(p.Status)),
			"vuln_count":      Int(int64(len(p.Vulnerabilities))),
		}))
	}

	return Context{
		"company": Map(map[string]Value{
			"id":      String(c.ID.String()),
			"name":    String(c.Name),
			"email":   String(c.ContactEmail),
			"address": String(c.Address),
			"notes":   String(b.md.Render(c.Notes, embedImages)),
		}),
		"company_severity_counts": counts.value(),
		"company_severities":      counts.list(),
		"projects":                List(items...),
	}
}
