package migration

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/julianstephens/habitflow/internal/models"
)

// CurrentRecordVersion is the habit record shape this build writes. It is
// stored under the schema version key next to the habit collection.
const CurrentRecordVersion = 1

// ErrInvalidRecord marks a habit record that cannot be upgraded.
var ErrInvalidRecord = errors.New("invalid habit record")

type recordStep func(rec map[string]json.RawMessage) error

// recordSteps[i] upgrades a record from version i to i+1.
var recordSteps = []recordStep{
	completedFlagToStatus,
}

// completedFlagToStatus replaces the boolean isCompleted of the first
// mobile releases with the status enum.
func completedFlagToStatus(rec map[string]json.RawMessage) error {
	raw, ok := rec["isCompleted"]
	if !ok {
		return nil
	}
	delete(rec, "isCompleted")
	if _, has := rec["status"]; has {
		return nil
	}

	var completed bool
	if err := json.Unmarshal(raw, &completed); err != nil {
		return fmt.Errorf("isCompleted: %w", err)
	}
	status := models.StatusPending
	if completed {
		status = models.StatusDone
	}
	enc, _ := json.Marshal(status)
	rec["status"] = enc
	return nil
}

// UpgradeHabitRecord decodes one persisted habit written at fromVersion,
// running every upgrade step up to CurrentRecordVersion. Fields the steps
// do not know about are carried through unchanged.
func UpgradeHabitRecord(raw json.RawMessage, fromVersion int) (models.Habit, error) {
	var rec map[string]json.RawMessage
	if err := json.Unmarshal(raw, &rec); err != nil {
		return models.Habit{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if rec == nil {
		return models.Habit{}, fmt.Errorf("%w: null record", ErrInvalidRecord)
	}

	// A legacy flag can appear on any version when an old export is
	// imported, so the first step always runs.
	if err := recordSteps[0](rec); err != nil {
		return models.Habit{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	for v := max(fromVersion, 1); v < len(recordSteps); v++ {
		if err := recordSteps[v](rec); err != nil {
			return models.Habit{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		}
	}

	upgraded, err := json.Marshal(rec)
	if err != nil {
		return models.Habit{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	var h models.Habit
	if err := json.Unmarshal(upgraded, &h); err != nil {
		return models.Habit{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if h.Status == "" {
		h.Status = models.StatusPending
	}
	if err := checkRecord(h); err != nil {
		return models.Habit{}, err
	}
	if h.Status != models.StatusPostponed {
		h.PostponedUntil = ""
	}
	return h, nil
}

func checkRecord(h models.Habit) error {
	if h.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}
	if !h.Status.Valid() {
		return fmt.Errorf("%w: habit %s has unknown status %q", ErrInvalidRecord, h.ID, h.Status)
	}
	return nil
}

// DecodeHabits decodes a persisted collection record by record. Records
// that fail to upgrade are reported in dropped and left out of the result;
// only a payload that is not a JSON array fails outright.
func DecodeHabits(data []byte, fromVersion int) (habits []models.Habit, dropped []error, err error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, nil, fmt.Errorf("malformed habit collection: %w", err)
	}
	habits = make([]models.Habit, 0, len(raws))
	for i, raw := range raws {
		h, err := UpgradeHabitRecord(raw, fromVersion)
		if err != nil {
			dropped = append(dropped, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		habits = append(habits, h)
	}
	return habits, dropped, nil
}
