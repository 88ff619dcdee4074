package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/utils"
)

// ErrInvalidDraft wraps every draft validation failure.
var ErrInvalidDraft = errors.New("invalid habit")

// ConflictType represents the type of integrity problem found in a
// stored collection
type ConflictType string

const (
	ConflictMissingID            ConflictType = "missing_id"
	ConflictDuplicateID          ConflictType = "duplicate_id"
	ConflictDuplicateTitle       ConflictType = "duplicate_title"
	ConflictInvalidStatus        ConflictType = "invalid_status"
	ConflictInvalidTime          ConflictType = "invalid_time"
	ConflictInvalidDate          ConflictType = "invalid_date"
	ConflictPostponedWithoutDate ConflictType = "postponed_without_date"
	ConflictStrayPostponement    ConflictType = "stray_postponement"
	ConflictReminderWindow       ConflictType = "reminder_window"
	ConflictUnknownCategory      ConflictType = "unknown_category"
)

// Conflict is one problem with one or more habits.
type Conflict struct {
	Type        ConflictType
	Description string
	HabitIDs    []string
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, c := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", c.Description)
	}
	return b.String()
}

// Validator checks drafts before they become habits and audits stored
// collections for doctor.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator with the habit field rules registered. It
// panics if a rule cannot be registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	mustRegister(v, "hhmm", validateHHMM)
	mustRegister(v, "category", validateCategory)
	mustRegister(v, "recurrence", validateRecurrence)
	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

func validateHHMM(fl validator.FieldLevel) bool {
	return utils.ValidateTimeFormat(fl.Field().String())
}

func validateCategory(fl validator.FieldLevel) bool {
	return models.Category(fl.Field().String()).Known()
}

func validateRecurrence(fl validator.FieldLevel) bool {
	r, ok := fl.Field().Interface().(models.Recurrence)
	if !ok {
		if p, isPtr := fl.Field().Interface().(*models.Recurrence); isPtr && p != nil {
			r, ok = *p, true
		}
	}
	if !ok {
		return false
	}
	return RecurrenceError(r.Rule) == nil
}

// RecurrenceError reports why a rule cannot be evaluated, or nil.
func RecurrenceError(rule models.RecurrenceRule) error {
	switch r := rule.(type) {
	case nil, models.Daily, models.SpecificDays:
		return nil
	case models.EveryOtherDay:
		if r.StartDate == "" {
			return fmt.Errorf("every other day needs a start date")
		}
		if !utils.ValidateDateFormat(r.StartDate) {
			return fmt.Errorf("invalid start date %q", r.StartDate)
		}
	case models.Weekly:
		if len(r.Days) == 0 && r.StartDate == "" {
			return fmt.Errorf("weekly needs days or a start date")
		}
		if r.StartDate != "" && !utils.ValidateDateFormat(r.StartDate) {
			return fmt.Errorf("invalid start date %q", r.StartDate)
		}
	case models.Monthly:
		if r.DayOfMonth < 0 || r.DayOfMonth > 31 {
			return fmt.Errorf("day of month must be between 1 and 31, got %d", r.DayOfMonth)
		}
	default:
		return fmt.Errorf("unsupported recurrence %T", rule)
	}
	return nil
}

// ValidateDraft checks field rules plus the cross-field reminder rules.
// Every error wraps ErrInvalidDraft.
func (v *Validator) ValidateDraft(d models.HabitDraft) error {
	if err := v.v.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fieldMessage(fe))
			}
			return fmt.Errorf("%w: %s", ErrInvalidDraft, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}
	if d.Recurrence != nil {
		if err := RecurrenceError(d.Recurrence.Rule); err != nil {
			return fmt.Errorf("%w: recurrence: %v", ErrInvalidDraft, err)
		}
	}
	if d.ReminderTime == "" && (d.ReminderEndTime != "" || d.ReminderFrequencyHours > 0) {
		return fmt.Errorf("%w: reminder window set without a reminder time", ErrInvalidDraft)
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "hhmm":
		return fmt.Sprintf("%s must be HH:MM, got %q", fe.Field(), fe.Value())
	case "category":
		return fmt.Sprintf("unknown category %q", fe.Value())
	case "recurrence":
		return "recurrence is incomplete"
	default:
		return fmt.Sprintf("%s failed %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value())
	}
}

// ValidateHabits audits a stored collection. Unknown categories are
// reported but are not errors for the store.
func (v *Validator) ValidateHabits(habits []models.Habit) ValidationResult {
	var result ValidationResult
	add := func(t ConflictType, desc string, ids ...string) {
		result.Conflicts = append(result.Conflicts, Conflict{Type: t, Description: desc, HabitIDs: ids})
	}

	byID := make(map[string][]string)
	byTitle := make(map[string][]string)

	for _, h := range habits {
		name := h.Title
		if name == "" {
			name = h.ID
		}
		if h.ID == "" {
			add(ConflictMissingID, fmt.Sprintf("Habit %q has no id", h.Title))
		} else {
			byID[h.ID] = append(byID[h.ID], h.Title)
		}
		if t := strings.ToLower(strings.TrimSpace(h.Title)); t != "" {
			byTitle[t] = append(byTitle[t], h.ID)
		}

		if !h.Status.Valid() {
			add(ConflictInvalidStatus, fmt.Sprintf("Habit %q has unknown status %q", name, h.Status), h.ID)
		}
		if !h.Category.Known() {
			add(ConflictUnknownCategory, fmt.Sprintf("Habit %q has unknown category %q (shown under %s)", name, h.Category, h.Category.Label()), h.ID)
		}

		for _, f := range []struct{ field, val string }{
			{"due time", h.DueTime},
			{"reminder time", h.ReminderTime},
			{"reminder end time", h.ReminderEndTime},
		} {
			if f.val != "" && !utils.ValidateTimeFormat(f.val) {
				add(ConflictInvalidTime, fmt.Sprintf("Habit %q has invalid %s %q", name, f.field, f.val), h.ID)
			}
		}
		if h.ReminderTime == "" && (h.ReminderEndTime != "" || h.ReminderFrequencyHours > 0) {
			add(ConflictReminderWindow, fmt.Sprintf("Habit %q has a reminder window but no reminder time", name), h.ID)
		}

		switch {
		case h.Status == models.StatusPostponed && h.PostponedUntil == "":
			add(ConflictPostponedWithoutDate, fmt.Sprintf("Habit %q is postponed without a date", name), h.ID)
		case h.Status == models.StatusPostponed && !utils.ValidateDateFormat(h.PostponedUntil):
			add(ConflictInvalidDate, fmt.Sprintf("Habit %q has invalid postpone date %q", name, h.PostponedUntil), h.ID)
		case h.Status != models.StatusPostponed && h.PostponedUntil != "":
			add(ConflictStrayPostponement, fmt.Sprintf("Habit %q is %s but carries postpone date %s", name, h.Status, h.PostponedUntil), h.ID)
		}

		if h.Recurrence != nil {
			if err := RecurrenceError(h.Recurrence.Rule); err != nil {
				add(ConflictInvalidDate, fmt.Sprintf("Habit %q: %v", name, err), h.ID)
			}
		}
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if titles := byID[id]; len(titles) > 1 {
			add(ConflictDuplicateID, fmt.Sprintf("Id %s is shared by %s", id, strings.Join(titles, ", ")), id)
		}
	}

	titles := make([]string, 0, len(byTitle))
	for t := range byTitle {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	for _, t := range titles {
		if owners := byTitle[t]; len(owners) > 1 {
			add(ConflictDuplicateTitle, fmt.Sprintf("Title %q is used by %d habits", t, len(owners)), owners...)
		}
	}

	return result
}
