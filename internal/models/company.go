package models

type Company struct {
	Base
	Name         string `gorm:"size:255;not null" json:"name"`
	Slug         string `gorm:"uniqueIndex;size:255;not null" json:"slug"`
	ContactEmail string `gorm:"size:254" json:"contact_email"`
	Address      string `gorm:"type:text" json:"address"`
	Notes        string `gorm:"type:text" json:"notes"` // markdown
	IsActive     bool   `json:"is_active"`

	Assets   []Asset   `gorm:"constraint:OnDelete:CASCADE;" json:"assets,omitempty"`
	Projects []Project `gorm:"constraint:OnDelete:CASCADE;" json:"projects,omitempty"`
}
