package handlers

import (
	"fmt"
	"html"
	"strings"

	"github.com/fitgram/exercise-bot/internal/catalog"
	"github.com/fitgram/exercise-bot/internal/locale"
)

// renderExercise formats one localized record as an HTML block: bold name,
// labeled scalar fields, list fields as indented bullet lines. Field labels
// come from the obj_field_names category keyed by the origin field name; the
// video link is shown as-is.
func renderExercise(b *locale.Bundle, rec catalog.Record) string {
	label := func(field string) string {
		return html.EscapeString(b.Lookup(locale.CategoryFieldNames, field))
	}
	value := func(s string) string {
		return html.EscapeString(locale.Capitalize(s))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b>\n\n", value(rec.Name))
	fmt.Fprintf(&sb, "%s: <b>%s</b>\n", label("Force"), value(rec.Force))

	fmt.Fprintf(&sb, "%s:\n", label("Primary Muscles"))
	for _, muscle := range rec.PrimaryMuscles {
		fmt.Fprintf(&sb, "  - <b>%s</b>\n", value(muscle))
	}

	fmt.Fprintf(&sb, "%s:\n", label("SecondaryMuscles"))
	for _, muscle := range rec.SecondaryMuscles {
		fmt.Fprintf(&sb, "  - <b>%s</b>\n", value(muscle))
	}

	fmt.Fprintf(&sb, "%s: <b>%s</b>\n", label("Type"), value(rec.Type))

	fmt.Fprintf(&sb, "%s:\n", label("Workout Type"))
	for _, workout := range rec.WorkoutTypes {
		fmt.Fprintf(&sb, "  - <b>%s</b>\n", value(workout))
	}

	fmt.Fprintf(&sb, "%s: %s", label("Youtube link"), html.EscapeString(rec.YoutubeLink))

	return sb.String()
}