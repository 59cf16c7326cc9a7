package models

import "time"

// Vote records one user's verification of one report. A user can vote on a
// report at most once; idx_votes_user_report enforces it in the store.
type Vote struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    string    `json:"user_id" gorm:"size:255;not null;uniqueIndex:idx_votes_user_report,priority:1"`
	ReportID  uint      `json:"report_id" gorm:"not null;index;uniqueIndex:idx_votes_user_report,priority:2"`
	Report    *Report   `json:"-" gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

type CastVoteRequest struct {
	UserID string `json:"user_id" binding:"required" conform:"trim"`
}

type VoteResult struct {
	ReportID      uint         `json:"report_id"`
	Status        ReportStatus `json:"status"`
	Verifications int          `json:"verifications"`
}
