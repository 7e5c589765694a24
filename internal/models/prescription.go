package models

// Prescription is the normalized form of a free-text reps/time cell.
type Prescription struct {
	Unit           Unit `json:"unit"`
	RepsMin        *int `json:"repsMin"`
	RepsMax        *int `json:"repsMax"`
	TimeSecondsMin *int `json:"timeSecondsMin"`
	TimeSecondsMax *int `json:"timeSecondsMax"`
	StepsCount     *int `json:"stepsCount"`
	PerSide        bool `json:"perSide"`
}

// Malformed reports whether the parser could not classify the input:
// the default unit with no bounds at all.
func (p Prescription) Malformed() bool {
	return p.Unit == UnitReps && p.RepsMin == nil && p.RepsMax == nil
}

// ApplyTo copies the unit, bounds and side flag onto ex.
func (p Prescription) ApplyTo(ex *SessionExercise) {
	ex.Unit = p.Unit
	ex.PerSide = p.PerSide
	ex.RepsMin = clonePtr(p.RepsMin)
	ex.RepsMax = clonePtr(p.RepsMax)
	ex.TimeSecondsMin = clonePtr(p.TimeSecondsMin)
	ex.TimeSecondsMax = clonePtr(p.TimeSecondsMax)
	ex.StepsCount = clonePtr(p.StepsCount)
}

// PrescriptionOf extracts the prescription fields from ex.
func PrescriptionOf(ex SessionExercise) Prescription {
	return Prescription{
		Unit:           ex.Unit,
		RepsMin:        ex.RepsMin,
		RepsMax:        ex.RepsMax,
		TimeSecondsMin: ex.TimeSecondsMin,
		TimeSecondsMax: ex.TimeSecondsMax,
		StepsCount:     ex.StepsCount,
		PerSide:        ex.PerSide,
	}
}
