package services

import (
	"time"

	"battle-manager/models"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

// AdvanceStatuses flips stored upcoming tournaments to live using the same
// gate as EffectiveStatus: the reveal time when set, the start time
// otherwise. Stored live is authoritative for room reveals, so flipping on
// start_time alone would leak room credentials before the reveal gate.
func (s *TournamentService) AdvanceStatuses(now time.Time) (int64, error) {
	res := s.DB.Model(&models.Tournament{}).
		Where("status = ? AND COALESCE(reveal_time, start_time) <= ?", models.StatusUpcoming, now).
		Update("status", models.StatusLive)
	return res.RowsAffected, res.Error
}

// StartStatusScheduler runs AdvanceStatuses every minute. Reads already
// derive the effective status on the fly; this job keeps the column itself
// converged so database queries stay honest.
func (s *TournamentService) StartStatusScheduler() (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	sched.Start()

	_, err = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			flipped, err := s.AdvanceStatuses(time.Now())
			if err != nil {
				log.Error().Err(err).Msg("❌ Status sweep failed")
				return
			}
			if flipped > 0 {
				log.Info().Int64("tournaments", flipped).Msg("🎮 Tournaments went live")
			}
		}),
	)
	if err != nil {
		return nil, err
	}
	return sched, nil
}
