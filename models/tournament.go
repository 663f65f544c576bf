package models

import (
	"time"
)

type TournamentStatus string

const (
	StatusUpcoming  TournamentStatus = "upcoming"
	StatusLive      TournamentStatus = "live"
	StatusCompleted TournamentStatus = "completed"
	StatusCancelled TournamentStatus = "cancelled"
)

// Tournament is admin-authored. RoomID/RoomPassword are stored AES-GCM
// encrypted and only decrypted for enrolled players once the tournament
// goes live.
type Tournament struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	GameName    string `json:"game_name"`
	BannerURL   string `json:"banner_url"`

	EntryFee       int64 `gorm:"not null;default:0" json:"entry_fee"`
	MaxPlayers     int   `gorm:"not null" json:"max_players"`
	CurrentPlayers int   `gorm:"not null;default:0" json:"current_players"`

	StartTime  time.Time        `gorm:"not null" json:"start_time"`
	RevealTime *time.Time       `json:"reveal_time,omitempty"`
	Status     TournamentStatus `gorm:"type:varchar(16);not null;default:'upcoming'" json:"status"`

	// Payout bookkeeping. Once PaidAt is set the kill list is immutable.
	PointsPerKill int64      `gorm:"not null;default:0" json:"points_per_kill"`
	TotalPaid     int64      `gorm:"not null;default:0" json:"total_paid"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`

	// Encrypted room credentials, never serialized raw.
	RoomID       string `json:"-"`
	RoomPassword string `json:"-"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Enrollments []Enrollment `json:"enrollments,omitempty" gorm:"foreignKey:TournamentID"`
	Kills       []KillEntry  `json:"kills,omitempty" gorm:"foreignKey:TournamentID"`

	// Calculated fields (not stored in DB)
	EffectiveStatusField TournamentStatus `json:"effective_status,omitempty" gorm:"-"`
	SlotsLeft            int              `json:"slots_left" gorm:"-"`
}

// EffectiveStatus derives the displayed lifecycle state from the stored
// status plus time comparisons. Completed and cancelled are authoritative;
// a stored "upcoming" flips to live once the reveal time (or the start time
// when no reveal time is set) has passed.
func EffectiveStatus(status TournamentStatus, startTime time.Time, revealTime *time.Time, now time.Time) TournamentStatus {
	switch status {
	case StatusCompleted, StatusCancelled, StatusLive:
		return status
	}
	gate := startTime
	if revealTime != nil {
		gate = *revealTime
	}
	if !now.Before(gate) {
		return StatusLive
	}
	return StatusUpcoming
}

// Derive fills the calculated response fields.
func (t *Tournament) Derive(now time.Time) {
	t.EffectiveStatusField = EffectiveStatus(t.Status, t.StartTime, t.RevealTime, now)
	t.SlotsLeft = t.MaxPlayers - t.CurrentPlayers
	if t.SlotsLeft < 0 {
		t.SlotsLeft = 0
	}
}

// Enrollment records one paid seat. The composite unique index is what makes
// a double enroll a constraint violation even under concurrent requests.
type Enrollment struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	TournamentID string    `gorm:"not null;index;uniqueIndex:idx_enroll_tournament_user" json:"tournament_id"`
	UserID       string    `gorm:"not null;index;uniqueIndex:idx_enroll_tournament_user" json:"user_id"`
	PaidPoints   int64     `gorm:"not null" json:"paid_points"`
	JoinedAt     time.Time `json:"joined_at" gorm:"autoCreateTime"`
}

// KillEntry maps an enrolled player to a kill count and, after payout, the
// credited prize. Seeded with zero kills at enrollment time.
type KillEntry struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	TournamentID string `gorm:"not null;index;uniqueIndex:idx_kill_tournament_user" json:"tournament_id"`
	UserID       string `gorm:"not null;index;uniqueIndex:idx_kill_tournament_user" json:"user_id"`
	Kills        int    `gorm:"not null;default:0" json:"kills"`

	// CustomAmount > 0 overrides the kills * points_per_kill calculation.
	CustomAmount   int64      `gorm:"not null;default:0" json:"custom_amount"`
	PointsCredited int64      `gorm:"not null;default:0" json:"points_credited"`
	CreditedAt     *time.Time `json:"credited_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// ComputeCredit converts a kill count into a point credit. A positive custom
// amount wins over the multiplier.
func ComputeCredit(kills int, pointsPerKill, custom int64) int64 {
	if custom > 0 {
		return custom
	}
	return int64(kills) * pointsPerKill
}
