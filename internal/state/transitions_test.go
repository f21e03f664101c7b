package state

import "testing"

func TestIsTransitionAllowed(t *testing.T) {
	testCases := []struct {
		name     string
		from     Step
		to       Step
		expected bool
	}{
		{name: "idle to language", from: StepIdle, to: StepLanguageSelect, expected: true},
		{name: "language to category", from: StepLanguageSelect, to: StepCategorySelect, expected: true},
		{name: "category to center", from: StepCategorySelect, to: StepCenterSelect, expected: true},
		{name: "center to department", from: StepCenterSelect, to: StepDepartmentSelect, expected: true},
		{name: "center back to category", from: StepCenterSelect, to: StepCategorySelect, expected: true},
		{name: "department to service", from: StepDepartmentSelect, to: StepServiceSelect, expected: true},
		{name: "service to post booking", from: StepServiceSelect, to: StepPostBooking, expected: true},
		{name: "department restart", from: StepDepartmentSelect, to: StepCategorySelect, expected: true},
		{name: "service book more", from: StepServiceSelect, to: StepCategorySelect, expected: true},
		{name: "post booking book more", from: StepPostBooking, to: StepCategorySelect, expected: true},
		{name: "same step", from: StepCenterSelect, to: StepCenterSelect, expected: true},
		{name: "any step to idle", from: Step("whatever"), to: StepIdle, expected: true},
		{name: "idle to category invalid", from: StepIdle, to: StepCategorySelect, expected: false},
		{name: "category to department invalid", from: StepCategorySelect, to: StepDepartmentSelect, expected: false},
		{name: "department back to center invalid", from: StepDepartmentSelect, to: StepCenterSelect, expected: false},
		{name: "unknown step invalid", from: Step("unknown"), to: StepCenterSelect, expected: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if actual := IsTransitionAllowed(tc.from, tc.to); actual != tc.expected {
				t.Errorf("IsTransitionAllowed(%s -> %s) = %t, expected %t", tc.from, tc.to, actual, tc.expected)
			}
		})
	}
}

func TestRecordTransition(t *testing.T) {
	var calls [][2]string
	RegisterTransitionRecorder(func(from, to string) {
		calls = append(calls, [2]string{from, to})
	})
	t.Cleanup(func() { RegisterTransitionRecorder(nil) })

	RecordTransition(StepIdle, StepLanguageSelect)
	RecordTransition(StepCenterSelect, StepCenterSelect)

	if len(calls) != 1 || calls[0] != [2]string{"idle", "language_select"} {
		t.Fatalf("unexpected recorded transitions: %v", calls)
	}
}
