package domain

import "strings"

// ExerciseType is the coarse category derived from an exercise name.
type ExerciseType string

const (
	TypeStrength   ExerciseType = "strength"
	TypeCardio     ExerciseType = "cardio"
	TypeMobility   ExerciseType = "mobility"
	TypePlyometric ExerciseType = "plyometric"
	TypePower      ExerciseType = "power"
)

// Classification bundles the name-derived fields stored on a library
// exercise. The four tracking flags are independent of each other and of
// the exercise type.
type Classification struct {
	ExerciseType   ExerciseType
	TracksWeight   bool
	TracksReps     bool
	TracksDuration bool
	TracksDistance bool
}

// typeRule maps name keywords to an exercise type. Rules are evaluated in
// order; the first rule with a matching keyword wins.
type typeRule struct {
	keywords []string
	result   ExerciseType
}

var exerciseTypeRules = []typeRule{
	{[]string{"squat", "deadlift", "press"}, TypeStrength},
	{[]string{"run", "sprint", "jog"}, TypeCardio},
	{[]string{"stretch", "mobility", "yoga"}, TypeMobility},
	{[]string{"plyo", "jump", "box"}, TypePlyometric},
	{[]string{"throw", "medicine ball", "slam"}, TypePower},
}

// Keyword sets for the tracking flags. Weight and reps are opt-out
// (matching names do NOT track them); duration and distance are opt-in.
var (
	noWeightKeywords = []string{"push up", "pull up", "bodyweight", "plank", "burpee"}
	noRepsKeywords   = []string{"plank", "hold", "carry", "run", "row"}
	durationKeywords = []string{"plank", "hold", "carry", "run", "row", "bike"}
	distanceKeywords = []string{"run", "sprint", "row", "bike", "swim"}
)

func containsAny(name string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// ClassifyExercise derives type and tracking flags from an exercise name.
// Matching is case-insensitive substring matching, nothing fuzzier.
func ClassifyExercise(name string) Classification {
	folded := strings.ToLower(name)

	c := Classification{ExerciseType: TypeStrength}
	for _, rule := range exerciseTypeRules {
		if containsAny(folded, rule.keywords) {
			c.ExerciseType = rule.result
			break
		}
	}

	c.TracksWeight = !containsAny(folded, noWeightKeywords)
	c.TracksReps = !containsAny(folded, noRepsKeywords)
	c.TracksDuration = containsAny(folded, durationKeywords)
	c.TracksDistance = containsAny(folded, distanceKeywords)
	return c
}

// FoldName normalizes an exercise name for case-insensitive library
// matching. Exact match after folding; no trimming beyond whitespace.
func FoldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
