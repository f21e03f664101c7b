package state

// validTransitions lists the step changes the funnel permits. Moving to StepIdle is always allowed.
var validTransitions = map[Step][]Step{
	StepIdle: {
		StepLanguageSelect,
	},
	StepLanguageSelect: {
		StepCategorySelect,
	},
	StepCategorySelect: {
		StepCenterSelect,
	},
	StepCenterSelect: {
		StepDepartmentSelect,
		StepCategorySelect,
	},
	StepDepartmentSelect: {
		StepServiceSelect,
		StepCategorySelect,
	},
	StepServiceSelect: {
		StepPostBooking,
		StepCategorySelect,
	},
	StepPostBooking: {
		StepCategorySelect,
	},
}

// IsTransitionAllowed reports whether moving from one step to another is valid.
func IsTransitionAllowed(from, to Step) bool {
	if to == StepIdle || from == to {
		return true
	}

	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, step := range allowed {
		if step == to {
			return true
		}
	}

	return false
}

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe step changes.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

// RecordTransition reports a committed step change to the registered recorder.
func RecordTransition(from, to Step) {
	if from == to {
		return
	}
	transitionRecorder(string(from), string(to))
}
