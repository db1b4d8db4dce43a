package locale

import (
	"sort"
	"strings"
	"unicode"

	"github.com/fitgram/exercise-bot/internal/apperrors"
	"github.com/fitgram/exercise-bot/internal/catalog"
)

// identityLanguage is the language of the catalog itself; its overlay is the
// identity transform.
const identityLanguage = "en"

// Option pairs an origin identifier (the stable catalog key, also the
// selection payload) with its localized display label.
type Option struct {
	Origin string
	Label  string
}

// Localize maps a record's translatable fields through the bundle. Every
// field falls back to its original value when untranslated; list fields are
// translated element by element. The video link is never touched.
func Localize(b *Bundle, rec catalog.Record) catalog.Record {
	if b == nil || b.Code == identityLanguage {
		return rec
	}

	out := rec.Clone()
	out.Name = b.Lookup(CategoryExerciseName, rec.Name)
	out.Force = b.Lookup(CategoryForceType, rec.Force)
	out.Type = b.Lookup(CategoryExerciseType, rec.Type)
	for i, muscle := range out.PrimaryMuscles {
		out.PrimaryMuscles[i] = b.Lookup(CategoryMuscles, muscle)
	}
	for i, muscle := range out.SecondaryMuscles {
		out.SecondaryMuscles[i] = b.Lookup(CategoryMuscles, muscle)
	}
	for i, workout := range out.WorkoutTypes {
		out.WorkoutTypes[i] = b.Lookup(CategoryWorkoutType, workout)
	}

	return out
}

// LocalizeStrict is the full-record path used by the by-name flow: muscle and
// workout-type entries are mandatory and a gap is a data-integrity error, not
// a silent fallback. Name, force and exercise type still fall back. The
// asymmetry is inherited behavior; see DESIGN.md.
func LocalizeStrict(b *Bundle, rec catalog.Record) (catalog.Record, error) {
	if b == nil || b.Code == identityLanguage {
		return rec, nil
	}

	out := rec.Clone()
	out.Name = b.Lookup(CategoryExerciseName, rec.Name)
	out.Force = b.Lookup(CategoryForceType, rec.Force)
	out.Type = b.Lookup(CategoryExerciseType, rec.Type)

	for i, muscle := range out.PrimaryMuscles {
		if !b.Has(CategoryMuscles, muscle) {
			return catalog.Record{}, apperrors.NewTranslationError(CategoryMuscles, muscle)
		}
		out.PrimaryMuscles[i] = b.Lookup(CategoryMuscles, muscle)
	}
	for i, muscle := range out.SecondaryMuscles {
		if !b.Has(CategoryMuscles, muscle) {
			return catalog.Record{}, apperrors.NewTranslationError(CategoryMuscles, muscle)
		}
		out.SecondaryMuscles[i] = b.Lookup(CategoryMuscles, muscle)
	}
	for i, workout := range out.WorkoutTypes {
		if !b.Has(CategoryWorkoutType, workout) {
			return catalog.Record{}, apperrors.NewTranslationError(CategoryWorkoutType, workout)
		}
		out.WorkoutTypes[i] = b.Lookup(CategoryWorkoutType, workout)
	}

	return out, nil
}

// Capitalize upper-cases the first rune. Catalog values arrive lower-cased
// and every user-facing place shows them capitalized.
func Capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])

	return string(runes)
}

// MuscleOptions builds selection options for the given origin muscle names,
// preserving order. Labels are capitalized; for the identity language they
// otherwise equal the origin names.
func MuscleOptions(b *Bundle, names []string) []Option {
	options := make([]Option, 0, len(names))
	for _, name := range names {
		label := name
		if b != nil && b.Code != identityLanguage {
			label = b.Lookup(CategoryMuscles, name)
		}
		options = append(options, Option{Origin: name, Label: Capitalize(label)})
	}

	return options
}

// SuggestExercises returns options whose translated display name contains
// query, case-insensitively. The match runs over translated names, not origin
// names, so users search in their own language.
func SuggestExercises(b *Bundle, query string) []Option {
	if b == nil {
		return nil
	}

	needle := strings.ToLower(query)
	options := make([]Option, 0)
	for origin, translated := range b.ExerciseNames() {
		if strings.Contains(strings.ToLower(translated), needle) {
			options = append(options, Option{Origin: origin, Label: Capitalize(translated)})
		}
	}

	sort.Slice(options, func(i, j int) bool { return options[i].Label < options[j].Label })

	return options
}
