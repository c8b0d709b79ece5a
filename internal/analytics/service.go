// Package analytics reads the activity log back out: a recent-history feed
// and a seven-day XP chart bucketed in the configured time zone.
package analytics

import (
	"context"
	"time"

	"github.com/rohitkumar-vc/lifequest-backend/internal/activity"
	"github.com/rohitkumar-vc/lifequest-backend/internal/model"
)

const recentLimit = 20

type Service struct {
	log activity.Repo
	loc *time.Location
	now func() time.Time
}

func NewService(logRepo activity.Repo, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		log: logRepo,
		loc: loc,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Recent(ctx context.Context, userID model.UserID) ([]activity.Entry, error) {
	return s.log.ListRecent(ctx, userID, recentLimit)
}

type DayXP struct {
	Date     string `json:"date"`
	Day      string `json:"day"`
	XPGained int    `json:"xp_gained"`
}

// WeeklyXP sums positive XP deltas per local calendar day over the last
// seven days, oldest first. Reverts carry negative deltas and are excluded,
// matching the chart's "gains only" framing.
func (s *Service) WeeklyXP(ctx context.Context, userID model.UserID) ([]DayXP, error) {
	now := s.now().In(s.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc).AddDate(0, 0, -6)

	entries, err := s.log.ListSince(ctx, userID, start.UTC())
	if err != nil {
		return nil, err
	}

	byDate := map[string]int{}
	for _, e := range entries {
		if e.Effect.XP <= 0 {
			continue
		}
		byDate[e.CreatedAt.In(s.loc).Format("2006-01-02")] += e.Effect.XP
	}

	out := make([]DayXP, 0, 7)
	for i := 0; i < 7; i++ {
		d := start.AddDate(0, 0, i)
		key := d.Format("2006-01-02")
		out = append(out, DayXP{
			Date:     key,
			Day:      d.Format("Mon"),
			XPGained: byDate[key],
		})
	}
	return out, nil
}
