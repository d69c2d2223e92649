package domain

import (
	"reflect"
	"testing"
)

func strPtr(s string) *string          { return &s }
func f64Ptr(f float64) *float64        { return &f }
func slicePtr(s []string) *[]string    { return &s }
func f64sPtr(s []float64) *[]float64   { return &s }
func diffPtr(d Difficulty) *Difficulty { return &d }

func sampleExercise() AnalyzedExercise {
	return AnalyzedExercise{
		Name:            "Barbell Squat",
		StartTime:       12.5,
		EndTime:         48.0,
		Instructions:    []string{"Set the bar on your traps", "Squat to depth"},
		Cues:            []string{"Chest up"},
		ScreenshotTimes: []float64{15.0, 30.0},
		Difficulty:      DifficultyIntermediate,
		Equipment:       []string{"barbell", "rack"},
	}
}

func TestApplyEdit_NilEditIsIdentity(t *testing.T) {
	original := sampleExercise()
	merged := ApplyEdit(original, nil)
	if !reflect.DeepEqual(merged, original) {
		t.Errorf("ApplyEdit(original, nil) = %+v, want %+v", merged, original)
	}
}

func TestApplyEdit_EmptyEditIsIdentity(t *testing.T) {
	original := sampleExercise()
	merged := ApplyEdit(original, &ExerciseEdit{})
	if !reflect.DeepEqual(merged, original) {
		t.Errorf("ApplyEdit(original, {}) = %+v, want %+v", merged, original)
	}
}

func TestApplyEdit_FullOverrideIgnoresOriginal(t *testing.T) {
	edit := &ExerciseEdit{
		Name:            strPtr("Front Squat"),
		StartTime:       f64Ptr(1.0),
		EndTime:         f64Ptr(2.0),
		Instructions:    slicePtr([]string{"Rack the bar on your shoulders"}),
		Cues:            slicePtr([]string{"Elbows high"}),
		ScreenshotTimes: f64sPtr([]float64{1.5}),
		Difficulty:      diffPtr(DifficultyAdvanced),
		Equipment:       slicePtr([]string{"barbell"}),
	}

	want := AnalyzedExercise{
		Name:            "Front Squat",
		StartTime:       1.0,
		EndTime:         2.0,
		Instructions:    []string{"Rack the bar on your shoulders"},
		Cues:            []string{"Elbows high"},
		ScreenshotTimes: []float64{1.5},
		Difficulty:      DifficultyAdvanced,
		Equipment:       []string{"barbell"},
	}

	for _, original := range []AnalyzedExercise{sampleExercise(), {}} {
		got := ApplyEdit(original, edit)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("ApplyEdit(%+v, full edit) = %+v, want %+v", original, got, want)
		}
	}
}

func TestApplyEdit_SlicesReplaceNotAppend(t *testing.T) {
	original := sampleExercise()
	edit := &ExerciseEdit{Instructions: slicePtr([]string{"Only step"})}

	merged := ApplyEdit(original, edit)
	if len(merged.Instructions) != 1 || merged.Instructions[0] != "Only step" {
		t.Errorf("Instructions = %v, want full replacement [Only step]", merged.Instructions)
	}
	// Untouched fields inherit.
	if merged.Name != original.Name || merged.Difficulty != original.Difficulty {
		t.Errorf("unedited fields changed: %+v", merged)
	}
}

func TestApplyEdit_ClearedSliceStaysCleared(t *testing.T) {
	merged := ApplyEdit(sampleExercise(), &ExerciseEdit{Cues: slicePtr([]string{})})
	if len(merged.Cues) != 0 {
		t.Errorf("Cues = %v, want cleared", merged.Cues)
	}
}

func TestMergeExercise_RequestLayerWins(t *testing.T) {
	original := sampleExercise()
	sessionEdit := &ExerciseEdit{
		Name:       strPtr("Back Squat"),
		Difficulty: diffPtr(DifficultyBeginner),
	}
	requestEdit := &ExerciseEdit{Name: strPtr("Low-Bar Squat")}

	merged := MergeExercise(original, sessionEdit, requestEdit)
	if merged.Name != "Low-Bar Squat" {
		t.Errorf("Name = %q, want request layer to win", merged.Name)
	}
	if merged.Difficulty != DifficultyBeginner {
		t.Errorf("Difficulty = %q, want session layer value where request is silent", merged.Difficulty)
	}
	if merged.StartTime != original.StartTime {
		t.Errorf("StartTime = %v, want original value where both layers are silent", merged.StartTime)
	}
}

func TestOverlayEdit_LastWriteWinsPerField(t *testing.T) {
	base := ExerciseEdit{
		Name:      strPtr("Back Squat"),
		StartTime: f64Ptr(10.0),
	}
	overlay := ExerciseEdit{
		Name:       strPtr("Pause Squat"),
		Difficulty: diffPtr(DifficultyAdvanced),
	}

	got := OverlayEdit(base, overlay)
	if got.Name == nil || *got.Name != "Pause Squat" {
		t.Errorf("Name = %v, want overlay value", got.Name)
	}
	if got.StartTime == nil || *got.StartTime != 10.0 {
		t.Errorf("StartTime = %v, want base value preserved", got.StartTime)
	}
	if got.Difficulty == nil || *got.Difficulty != DifficultyAdvanced {
		t.Errorf("Difficulty = %v, want overlay value", got.Difficulty)
	}
}

func TestEditIsZero(t *testing.T) {
	if !(ExerciseEdit{}).IsZero() {
		t.Error("empty edit should be zero")
	}
	if (ExerciseEdit{Name: strPtr("x")}).IsZero() {
		t.Error("edit with a set field should not be zero")
	}
}
