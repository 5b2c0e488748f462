package cache

import (
	"github.com/robfig/cron/v3"

	"patrimonio/internal/log"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is a cache that can drop its expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager runs expiry cleanup for registered caches on a cron schedule.
type Manager struct {
	cron   *cron.Cron
	caches []Cleaner
	logger *log.Logger
}

func NewManager(logger *log.Logger) *Manager {
	return &Manager{
		cron:   cron.New(),
		logger: logger.WithComponent(log.ComponentCache),
	}
}

// Register adds a cache to the cleanup run. Call before Start.
func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// Sweep cleans every registered cache once and returns the total removed.
func (m *Manager) Sweep() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// Start schedules Sweep. Schedule uses cron syntax, e.g. "@every 10m".
func (m *Manager) Start(schedule string) error {
	_, err := m.cron.AddFunc(schedule, func() {
		if n := m.Sweep(); n > 0 {
			m.logger.Debug("Expired cache entries removed", log.FieldCount, n)
		}
	})
	if err != nil {
		return err
	}
	m.cron.Start()
	m.logger.Info("Cache cleanup scheduled", log.FieldSchedule, schedule)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (m *Manager) Stop() {
	<-m.cron.Stop().Done()
}
