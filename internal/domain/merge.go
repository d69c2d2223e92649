package domain

import "strconv"

// EditKey converts an exercise index into the string key used by the
// session's edit map.
func EditKey(i int) string {
	return strconv.Itoa(i)
}

// ApplyEdit overlays an edit onto an analyzed exercise, field by field.
// Fields the edit leaves nil are inherited from the original; set fields
// replace the original value wholesale (an edited instruction list is a
// full replacement, never a concatenation). A nil edit returns the
// original unchanged.
func ApplyEdit(original AnalyzedExercise, edit *ExerciseEdit) AnalyzedExercise {
	if edit == nil {
		return original
	}
	out := original
	if edit.Name != nil {
		out.Name = *edit.Name
	}
	if edit.StartTime != nil {
		out.StartTime = *edit.StartTime
	}
	if edit.EndTime != nil {
		out.EndTime = *edit.EndTime
	}
	if edit.Instructions != nil {
		out.Instructions = *edit.Instructions
	}
	if edit.Cues != nil {
		out.Cues = *edit.Cues
	}
	if edit.ScreenshotTimes != nil {
		out.ScreenshotTimes = *edit.ScreenshotTimes
	}
	if edit.Difficulty != nil {
		out.Difficulty = *edit.Difficulty
	}
	if edit.Equipment != nil {
		out.Equipment = *edit.Equipment
	}
	return out
}

// MergeExercise resolves the final value of an exercise from its original
// analyzer output plus up to two edit layers: the edits accumulated on the
// session, then any edits supplied with the current request. The request
// layer wins per field.
func MergeExercise(original AnalyzedExercise, sessionEdit, requestEdit *ExerciseEdit) AnalyzedExercise {
	return ApplyEdit(ApplyEdit(original, sessionEdit), requestEdit)
}

// OverlayEdit folds a new edit layer into an accumulated one. Per field,
// the overlay wins when set; otherwise the base value is kept. Used to grow
// a session's edit map with last-write-wins semantics.
func OverlayEdit(base, overlay ExerciseEdit) ExerciseEdit {
	out := base
	if overlay.Name != nil {
		out.Name = overlay.Name
	}
	if overlay.StartTime != nil {
		out.StartTime = overlay.StartTime
	}
	if overlay.EndTime != nil {
		out.EndTime = overlay.EndTime
	}
	if overlay.Instructions != nil {
		out.Instructions = overlay.Instructions
	}
	if overlay.Cues != nil {
		out.Cues = overlay.Cues
	}
	if overlay.ScreenshotTimes != nil {
		out.ScreenshotTimes = overlay.ScreenshotTimes
	}
	if overlay.Difficulty != nil {
		out.Difficulty = overlay.Difficulty
	}
	if overlay.Equipment != nil {
		out.Equipment = overlay.Equipment
	}
	return out
}
