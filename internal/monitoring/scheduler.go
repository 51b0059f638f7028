package monitoring

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/isdelr/userexport/internal/export"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Sweeper periodically deletes export files left behind in the export
// directory. Requests delete their own files; this only catches files
// orphaned by a crash or kill.
type Sweeper struct {
	dir    string
	maxAge time.Duration
	cron   *cron.Cron
	now    func() time.Time
}

// NewSweeper creates a sweeper that runs on schedule (standard cron syntax or
// a descriptor such as "@every 15m") and removes files older than maxAge.
func NewSweeper(dir, schedule string, maxAge time.Duration) (*Sweeper, error) {
	s := &Sweeper{
		dir:    dir,
		maxAge: maxAge,
		cron:   cron.New(),
		now:    time.Now,
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.Sweep() }); err != nil {
		return nil, err
	}
	return s, nil
}

// Start runs one sweep immediately, then starts the schedule.
func (s *Sweeper) Start() {
	log.Info().Str("dir", s.dir).Dur("max_age", s.maxAge).Msg("Starting export sweeper")
	s.Sweep()
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped export sweeper")
}

// Sweep removes stale export files and returns how many were deleted.
func (s *Sweeper) Sweep() int {
	matches, err := filepath.Glob(filepath.Join(s.dir, export.TempPattern))
	if err != nil {
		log.Error().Err(err).Msg("Sweeper: bad export file pattern")
		return 0
	}

	cutoff := s.now().Add(-s.maxAge)
	removed := 0
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				log.Warn().Err(err).Str("path", path).Msg("Sweeper: failed to stat export file")
			}
			continue
		}
		if info.IsDir() || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("path", path).Msg("Sweeper: failed to remove export file")
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Info().Int("removed", removed).Msg("Sweeper: removed stale export files")
	}
	return removed
}
