package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDUnmarshal(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  ID
	}{
		{name: "number", input: `7`, want: "7"},
		{name: "string", input: `"abc-1"`, want: "abc-1"},
		{name: "null", input: `null`, want: ""},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var id ID
			require.NoError(t, json.Unmarshal([]byte(tc.input), &id))
			assert.Equal(t, tc.want, id)
		})
	}

	var id ID
	assert.Error(t, json.Unmarshal([]byte(`true`), &id))
}

func TestServiceInDepartment(t *testing.T) {
	var svc Service
	require.NoError(t, json.Unmarshal([]byte(`{"id":3,"name":"Massage","price":120.5,"duration":"60 min","department_ids":[1,"2"]}`), &svc))

	assert.Equal(t, ID("3"), svc.ID)
	assert.Equal(t, Label("120.5"), svc.Price)
	assert.Equal(t, Label("60 min"), svc.Duration)
	assert.True(t, svc.InDepartment("1"))
	assert.True(t, svc.InDepartment("2"))
	assert.False(t, svc.InDepartment("9"))
}

func TestParseLocale(t *testing.T) {
	locale, ok := ParseLocale(" EN ")
	assert.True(t, ok)
	assert.Equal(t, LocaleEnglish, locale)

	_, ok = ParseLocale("fr")
	assert.False(t, ok)
	assert.Equal(t, []Locale{LocaleEnglish, LocaleArabic}, SupportedLocales())
}
