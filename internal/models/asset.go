package models

import "github.com/google/uuid"

type AssetType string

const (
	AssetWebApp        AssetType = "WEB_APP"
	AssetServer        AssetType = "SERVER"
	AssetAPI           AssetType = "API"
	AssetMobileApp     AssetType = "MOBILE_APP"
	AssetNetworkDevice AssetType = "NETWORK_DEVICE"
	AssetOther         AssetType = "OTHER"
)

var assetTypeLabels = map[AssetType]string{
	AssetWebApp:        "Web Application",
	AssetServer:        "Server",
	AssetAPI:           "API",
	AssetMobileApp:     "Mobile Application",
	AssetNetworkDevice: "Network Device",
	AssetOther:         "Other",
}

func (t AssetType) Valid() bool {
	_, ok := assetTypeLabels[t]
	return ok
}

func (t AssetType) Label() string {
	if l, ok := assetTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

type Asset struct {
	Base
	CompanyID uuid.UUID `gorm:"type:uuid;index;not null" json:"company_id"`
	Company   *Company  `gorm:"constraint:OnDelete:CASCADE;" json:"company,omitempty"`

	Name        string    `gorm:"size:255;not null" json:"name"`
	Type        AssetType `gorm:"type:varchar(32);not null" json:"type"`
	Identifier  string    `gorm:"size:512" json:"identifier"` // URL / IP / hostname
	Description string    `gorm:"type:text" json:"description"`
	IsActive    bool      `json:"is_active"`
}
