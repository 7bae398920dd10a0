package cleanup

import (
	"time"

	"github.com/sirupsen/logrus"
)

// TripPurger is the store slice the retention worker needs.
type TripPurger interface {
	DeleteTerminalBefore(cutoff time.Time) (int64, error)
}

// Service periodically purges terminal trips older than the retention
// window so the trips collection doesn't grow without bound.
type Service struct {
	trips     TripPurger
	interval  time.Duration
	retention time.Duration
	stopChan  chan bool
	log       *logrus.Logger
}

func NewService(trips TripPurger, interval, retention time.Duration, log *logrus.Logger) *Service {
	return &Service{
		trips:     trips,
		interval:  interval,
		retention: retention,
		stopChan:  make(chan bool),
		log:       log,
	}
}

// Start begins the retention loop. Runs one purge immediately, then on the
// configured interval.
func (s *Service) Start() {
	s.log.WithFields(logrus.Fields{
		"interval":  s.interval,
		"retention": s.retention,
	}).Info("Trip retention service started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.purge()

	for {
		select {
		case <-ticker.C:
			s.purge()
		case <-s.stopChan:
			s.log.Info("Trip retention service stopped")
			return
		}
	}
}

// Stop stops the retention loop.
func (s *Service) Stop() {
	s.stopChan <- true
}

func (s *Service) purge() {
	cutoff := time.Now().Add(-s.retention)

	count, err := s.trips.DeleteTerminalBefore(cutoff)
	if err != nil {
		s.log.WithError(err).Error("Failed to purge old trips")
		return
	}

	if count > 0 {
		s.log.WithField("count", count).Info("Purged old terminal trips")
	}
}
