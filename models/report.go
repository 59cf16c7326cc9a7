package models

import "time"

type ReportStatus string

const (
	StatusUnverified ReportStatus = "unverified"
	StatusVerified   ReportStatus = "verified"
)

// Report is a geotagged incident submitted by the community.
type Report struct {
	ID            uint         `json:"id" gorm:"primaryKey;autoIncrement"`
	Category      string       `json:"category"`
	Description   string       `json:"description" gorm:"type:text"`
	Status        ReportStatus `json:"status" gorm:"type:varchar(16);not null;default:unverified"`
	Lat           float64      `json:"lat" gorm:"not null"`
	Lng           float64      `json:"lng" gorm:"not null"`
	Verifications int          `json:"verifications" gorm:"not null;default:0"`
	// Flags is reserved; no operation writes it.
	Flags     int       `json:"flags" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"<-:create;autoCreateTime"`
}

func (r *Report) IsVerified() bool {
	return r.Status == StatusVerified
}

type CreateReportRequest struct {
	Category    string   `json:"category" conform:"trim"`
	Description string   `json:"description" conform:"trim"`
	Lat         *float64 `json:"lat" binding:"required"`
	Lng         *float64 `json:"lng" binding:"required"`
}
