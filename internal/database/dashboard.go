package database

import (
	"strings"
	"time"

	"vulnsphere/internal/models"
	"vulnsphere/internal/reportctx"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	dashboardRecent     = 10
	dashboardTrendDays  = 30
	dashboardActivityIn = 7 * 24 * time.Hour
)

type DashboardVulnerability struct {
	ID           uuid.UUID         `json:"id"`
	Title        string            `json:"title"`
	Severity     models.Severity   `json:"severity"`
	Status       models.VulnStatus `json:"status"`
	ProjectID    uuid.UUID         `json:"project_id"`
	ProjectTitle string            `json:"project_title"`
	CompanyID    uuid.UUID         `json:"company_id"`
	CompanyName  string            `json:"company_name"`
	CreatedAt    time.Time         `json:"created_at"`
}

type DashboardProject struct {
	ID                 uuid.UUID            `json:"id"`
	Title              string               `json:"title"`
	Status             models.ProjectStatus `json:"status"`
	CompanyID          uuid.UUID            `json:"company_id"`
	CompanyName        string               `json:"company_name"`
	StartDate          *time.Time           `json:"start_date"`
	EndDate            *time.Time           `json:"end_date"`
	VulnerabilityCount int64                `json:"vulnerability_count"`
	CreatedAt          time.Time            `json:"created_at"`
}

type TrendPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type DashboardOverview struct {
	TotalVulnerabilities    int64                    `json:"total_vulnerabilities"`
	TotalProjects           int64                    `json:"total_projects"`
	CriticalVulnerabilities int64                    `json:"critical_vulnerabilities"`
	RecentActivityCount     int64                    `json:"recent_activity_count"`
	SeverityDistribution    map[string]int64         `json:"severity_distribution"`
	StatusDistribution      map[string]int64         `json:"status_distribution"`
	RecentVulnerabilities   []DashboardVulnerability `json:"recent_vulnerabilities"`
	RecentProjects          []DashboardProject       `json:"recent_projects"`
	VulnerabilityTrend      []TrendPoint             `json:"vulnerability_trend"`
}

func emptyOverview(now time.Time) *DashboardOverview {
	o := &DashboardOverview{
		SeverityDistribution:  map[string]int64{"critical": 0, "high": 0, "medium": 0, "low": 0, "info": 0},
		StatusDistribution:    make(map[string]int64, len(models.VulnStatuses)),
		RecentVulnerabilities: []DashboardVulnerability{},
		RecentProjects:        []DashboardProject{},
		VulnerabilityTrend:    make([]TrendPoint, dashboardTrendDays),
	}
	for _, st := range models.VulnStatuses {
		o.StatusDistribution[strings.ToLower(string(st))] = 0
	}
	day := truncateDay(now)
	for i := range o.VulnerabilityTrend {
		d := day.AddDate(0, 0, i-(dashboardTrendDays-1))
		o.VulnerabilityTrend[i] = TrendPoint{Date: d.Format(time.DateOnly)}
	}
	return o
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DashboardOverviewFor aggregates the companies in companyIDs; nil means
// every company. Days of the trend are UTC.
func DashboardOverviewFor(db *gorm.DB, companyIDs []uuid.UUID, now time.Time) (*DashboardOverview, error) {
	o := emptyOverview(now)
	if companyIDs != nil && len(companyIDs) == 0 {
		return o, nil
	}

	projects := func() *gorm.DB {
		q := db.Model(&models.Project{})
		if companyIDs != nil {
			q = q.Where("projects.company_id IN ?", companyIDs)
		}
		return q
	}
	vulns := func() *gorm.DB {
		q := db.Model(&models.Vulnerability{}).Joins("JOIN projects ON projects.id = vulnerabilities.project_id")
		if companyIDs != nil {
			q = q.Where("projects.company_id IN ?", companyIDs)
		}
		return q
	}

	if err := projects().Count(&o.TotalProjects).Error; err != nil {
		return nil, err
	}

	// гистограммы
	var sev []struct {
		Key string
		N   int64
	}
	if err := vulns().Select("vulnerabilities.severity AS key, count(*) AS n").Group("vulnerabilities.severity").Scan(&sev).Error; err != nil {
		return nil, err
	}
	for _, r := range sev {
		o.SeverityDistribution[reportctx.SeverityBucket(models.Severity(r.Key))] += r.N
		o.TotalVulnerabilities += r.N
		if models.Severity(r.Key) == models.SeverityCritical {
			o.CriticalVulnerabilities += r.N
		}
	}

	var st []struct {
		Key string
		N   int64
	}
	if err := vulns().Select("vulnerabilities.status AS key, count(*) AS n").Group("vulnerabilities.status").Scan(&st).Error; err != nil {
		return nil, err
	}
	for _, r := range st {
		o.StatusDistribution[strings.ToLower(r.Key)] += r.N
	}

	activity := db.Model(&models.ActivityLog{}).Where("created_at >= ?", now.Add(-dashboardActivityIn))
	if companyIDs != nil {
		activity = activity.Where("company_id IN ?", companyIDs)
	}
	if err := activity.Count(&o.RecentActivityCount).Error; err != nil {
		return nil, err
	}

	// последние уязвимости и проекты
	var recent []models.Vulnerability
	err := vulns().Preload("Project.Company").
		Order("vulnerabilities.created_at desc").Order("vulnerabilities.id").
		Limit(dashboardRecent).Find(&recent).Error
	if err != nil {
		return nil, err
	}
	for _, v := range recent {
		item := DashboardVulnerability{
			ID: v.ID, Title: v.Title, Severity: v.Severity, Status: v.Status,
			ProjectID: v.ProjectID, CreatedAt: v.CreatedAt,
		}
		if v.Project != nil {
			item.ProjectTitle = v.Project.Title
			item.CompanyID = v.Project.CompanyID
			if v.Project.Company != nil {
				item.CompanyName = v.Project.Company.Name
			}
		}
		o.RecentVulnerabilities = append(o.RecentVulnerabilities, item)
	}

	var recentProjects []models.Project
	err = projects().Preload("Company").
		Order("projects.created_at desc").Order("projects.id").
		Limit(dashboardRecent).Find(&recentProjects).Error
	if err != nil {
		return nil, err
	}
	if len(recentProjects) > 0 {
		ids := make([]uuid.UUID, len(recentProjects))
		for i, p := range recentProjects {
			ids[i] = p.ID
		}
		var counts []struct {
			ProjectID uuid.UUID
			N         int64
		}
		err := db.Model(&models.Vulnerability{}).Select("project_id, count(*) AS n").
			Where("project_id IN ?", ids).Group("project_id").Scan(&counts).Error
		if err != nil {
			return nil, err
		}
		byProject := make(map[uuid.UUID]int64, len(counts))
		for _, c := range counts {
			byProject[c.ProjectID] = c.N
		}
		for _, p := range recentProjects {
			item := DashboardProject{
				ID: p.ID, Title: p.Title, Status: p.Status, CompanyID: p.CompanyID,
				StartDate: p.StartDate, EndDate: p.EndDate,
				VulnerabilityCount: byProject[p.ID], CreatedAt: p.CreatedAt,
			}
			if p.Company != nil {
				item.CompanyName = p.Company.Name
			}
			o.RecentProjects = append(o.RecentProjects, item)
		}
	}

	// тренд за 30 дней
	start := truncateDay(now).AddDate(0, 0, -(dashboardTrendDays - 1))
	var created []time.Time
	if err := vulns().Where("vulnerabilities.created_at >= ?", start).Pluck("vulnerabilities.created_at", &created).Error; err != nil {
		return nil, err
	}
	for _, c := range created {
		i := int(truncateDay(c).Sub(start) / (24 * time.Hour))
		if i >= 0 && i < dashboardTrendDays {
			o.VulnerabilityTrend[i].Count++
		}
	}
	return o, nil
}
