package habitstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/migration"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/storage"
	"github.com/julianstephens/habitflow/internal/utils"
)

// snapshot is the decoded persisted state. dirty is set when loading had
// to repair or upgrade something that should be written back.
type snapshot struct {
	habits   []models.Habit
	stats    models.UserStats
	carried  map[string]string
	revision string
	dirty    bool
}

func (s *Store) get(key string) ([]byte, bool, error) {
	data, err := s.provider.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, true, nil
}

// loadSnapshot decodes the persisted state. Corrupt values are replaced
// with empty defaults and logged; only an unreadable provider is an error.
func (s *Store) loadSnapshot(today time.Time, seed bool) (snapshot, error) {
	snap := snapshot{carried: make(map[string]string)}

	rawHabits, haveHabits, err := s.get(constants.KeyHabits)
	if err != nil {
		return snap, err
	}
	rawStats, haveStats, err := s.get(constants.KeyUserStats)
	if err != nil {
		return snap, err
	}
	rawVersion, haveVersion, err := s.get(constants.KeySchemaVersion)
	if err != nil {
		return snap, err
	}
	rawCarried, haveCarried, err := s.get(constants.KeyCarried)
	if err != nil {
		return snap, err
	}
	rawRevision, _, err := s.get(constants.KeyRevision)
	if err != nil {
		return snap, err
	}
	snap.revision = string(rawRevision)

	version := migration.CurrentRecordVersion
	if haveHabits && !haveVersion {
		// Snapshots written before the version key existed.
		version = 0
	}
	if haveVersion {
		v, err := strconv.Atoi(string(rawVersion))
		if err != nil {
			s.log.Warn("Unreadable schema version, assuming legacy records", "value", string(rawVersion))
			v = 0
		}
		version = v
	}
	if version > migration.CurrentRecordVersion {
		return snap, fmt.Errorf("snapshot version %d is newer than this build supports (%d)", version, migration.CurrentRecordVersion)
	}
	if version < migration.CurrentRecordVersion {
		snap.dirty = true
	}

	switch {
	case !haveHabits && seed:
		snap.habits = SeedHabits(s.now())
		snap.dirty = true
		s.log.Info("Seeded starter habits", "count", len(snap.habits))
	case !haveHabits:
		snap.habits = []models.Habit{}
	default:
		habits, dropped, err := migration.DecodeHabits(rawHabits, version)
		if err != nil {
			s.log.Warn("Discarding malformed habit collection", "error", err)
			habits = []models.Habit{}
			snap.dirty = true
		}
		for _, d := range dropped {
			s.log.Warn("Dropped unreadable habit record", "error", d)
		}
		if len(dropped) > 0 {
			snap.dirty = true
		}
		snap.habits = s.dedupe(habits)
	}

	todayStr := utils.FormatDate(today)
	snap.stats = models.DefaultStats(todayStr)
	if haveStats {
		var st models.UserStats
		if err := json.Unmarshal(rawStats, &st); err != nil {
			s.log.Warn("Discarding malformed stats", "error", err)
			snap.dirty = true
		} else {
			snap.stats = clampStats(st)
		}
	} else {
		snap.dirty = true
	}

	if haveCarried {
		if err := json.Unmarshal(rawCarried, &snap.carried); err != nil {
			s.log.Debug("Ignoring unreadable carried-over list", "error", err)
			snap.carried = make(map[string]string)
		}
		if snap.carried == nil {
			snap.carried = make(map[string]string)
		}
	}
	return snap, nil
}

// dedupe keeps the first habit for each id.
func (s *Store) dedupe(habits []models.Habit) []models.Habit {
	seen := make(map[string]bool, len(habits))
	out := habits[:0:0]
	for _, h := range habits {
		if seen[h.ID] {
			s.log.Warn("Dropped habit with duplicate id", "id", h.ID, "title", h.Title)
			continue
		}
		seen[h.ID] = true
		out = append(out, h)
	}
	return out
}

func clampStats(st models.UserStats) models.UserStats {
	st.CurrentStreak = max(st.CurrentStreak, 0)
	st.LongestStreak = max(st.LongestStreak, st.CurrentStreak)
	return st
}

// encode renders the in-memory state as one batch stamped with revision,
// a JSON string.
func (s *Store) encode(revision string) (map[string][]byte, error) {
	habits := s.habits
	if habits == nil {
		habits = []models.Habit{}
	}
	h, err := json.Marshal(habits)
	if err != nil {
		return nil, fmt.Errorf("failed to encode habits: %w", err)
	}
	st, err := json.Marshal(s.stats)
	if err != nil {
		return nil, fmt.Errorf("failed to encode stats: %w", err)
	}
	c, err := json.Marshal(s.carried)
	if err != nil {
		return nil, fmt.Errorf("failed to encode carried-over list: %w", err)
	}
	return map[string][]byte{
		constants.KeyHabits:        h,
		constants.KeyUserStats:     st,
		constants.KeySchemaVersion: []byte(strconv.Itoa(migration.CurrentRecordVersion)),
		constants.KeyCarried:       c,
		constants.KeyRevision:      []byte(revision),
	}, nil
}

// persist writes habits and stats in one batch, retrying a few times.
// When every attempt fails the store keeps running from memory and the
// error is kept for Degraded.
func (s *Store) persist(ctx context.Context) {
	revision := strconv.Quote(uuid.NewString())
	batch, err := s.encode(revision)
	if err != nil {
		s.degraded = err
		s.log.Error("Snapshot not written", "error", err)
		return
	}

retry:
	for attempt := 1; ; attempt++ {
		err = s.provider.PutBatch(batch)
		if err == nil {
			s.revision = revision
			if s.degraded != nil {
				s.log.Info("Snapshot writes recovered")
			}
			s.degraded = nil
			return
		}
		s.log.Warn("Snapshot write failed", "attempt", attempt, "error", err)
		if attempt >= constants.PersistMaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break retry
		case <-time.After(s.retryDelay):
		}
	}
	s.degraded = fmt.Errorf("snapshot not persisted after %d attempts: %w", constants.PersistMaxRetries, err)
	s.log.Error("Continuing with in-memory state only", "error", err)
}

// stale reports whether another process has written the snapshot since
// this store last read or wrote it. A snapshot without a revision was
// never written by a revision-aware store and counts as current.
func (s *Store) stale() bool {
	raw, ok, err := s.get(constants.KeyRevision)
	if err != nil {
		s.log.Warn("Cannot check snapshot revision", "error", err)
		return false
	}
	return ok && string(raw) != s.revision
}

// catchUp swaps in the persisted snapshot when it is stale. It returns
// the collection it replaced so reminders can be rebuilt; ok is false
// when the in-memory state was already current.
func (s *Store) catchUp(today time.Time) (previous []models.Habit, ok bool, err error) {
	if !s.stale() {
		return nil, false, nil
	}
	snap, err := s.loadSnapshot(today, false)
	if err != nil {
		return nil, false, err
	}
	previous = s.habits
	s.habits, s.stats, s.carried, s.revision = snap.habits, snap.stats, snap.carried, snap.revision
	s.log.Debug("Picked up snapshot written elsewhere", "revision", snap.revision, "habits", len(s.habits))
	return previous, true, nil
}
