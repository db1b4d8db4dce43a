package catalog

// Record is one exercise as returned by the catalog service. JSON tags match
// the wire field names exactly; they are also the keys used by the
// localization overlay.
type Record struct {
	Name             string   `json:"Name"`
	Force            string   `json:"Force"`
	PrimaryMuscles   []string `json:"Primary Muscles"`
	SecondaryMuscles []string `json:"SecondaryMuscles"`
	Type             string   `json:"Type"`
	WorkoutTypes     []string `json:"Workout Type"`
	YoutubeLink      string   `json:"Youtube link"`
}

// Clone returns a deep copy so the overlay can rewrite fields without
// mutating the original response.
func (r Record) Clone() Record {
	out := r
	out.PrimaryMuscles = append([]string(nil), r.PrimaryMuscles...)
	out.SecondaryMuscles = append([]string(nil), r.SecondaryMuscles...)
	out.WorkoutTypes = append([]string(nil), r.WorkoutTypes...)
	return out
}
