package jobs

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type ReservationExpirer interface {
	ExpireStale(ctx context.Context, cutoff time.Time) (int, error)
}

type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context, now time.Time) (int, error)
}

// Report summarises one cleanup pass.
type Report struct {
	ExpiredReservations int       `json:"expired_reservations"`
	PurgedSessions      int       `json:"purged_sessions"`
	RanAt               time.Time `json:"ran_at"`
}

// Cleaner expires pending reservations nobody acted on and drops refresh
// sessions past their expiry.
type Cleaner struct {
	reservations ReservationExpirer
	sessions     SessionPurger
	interval     time.Duration
	grace        time.Duration
	log          *logrus.Entry
	now          func() time.Time
}

func NewCleaner(reservations ReservationExpirer, sessions SessionPurger, interval, grace time.Duration, log *logrus.Entry) *Cleaner {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Cleaner{
		reservations: reservations,
		sessions:     sessions,
		interval:     interval,
		grace:        grace,
		log:          log.WithField("job", "cleanup"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// RunOnce performs a single pass relative to now. Pending reservations
// whose time lies more than the grace period before now become expired.
func (c *Cleaner) RunOnce(ctx context.Context, now time.Time) (Report, error) {
	report := Report{RanAt: now}

	expired, err := c.reservations.ExpireStale(ctx, now.Add(-c.grace))
	if err != nil {
		return report, errors.Wrap(err, "expire stale reservations")
	}
	report.ExpiredReservations = expired

	purged, err := c.sessions.PurgeExpiredSessions(ctx, now)
	if err != nil {
		return report, errors.Wrap(err, "purge expired sessions")
	}
	report.PurgedSessions = purged

	return report, nil
}

// Run repeats RunOnce every interval until ctx is cancelled. Failed passes
// are logged and retried on the next tick.
func (c *Cleaner) Run(ctx context.Context) {
	if c.interval <= 0 {
		c.log.Warn("cleanup interval not positive, job disabled")
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.log.WithField("interval", c.interval).Info("cleanup job started")
	for {
		select {
		case <-ctx.Done():
			c.log.Info("cleanup job stopped")
			return
		case <-ticker.C:
			report, err := c.RunOnce(ctx, c.now())
			if err != nil {
				c.log.WithError(err).Error("cleanup pass failed")
				continue
			}
			c.log.WithFields(logrus.Fields{
				"expired_reservations": report.ExpiredReservations,
				"purged_sessions":      report.PurgedSessions,
			}).Debug("cleanup pass finished")
		}
	}
}
