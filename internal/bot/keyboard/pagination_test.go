package keyboard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/weva-assistant/internal/bot/keyboard"
)

type mockTranslator struct {
	translations map[string]string
	lang         string
}

func (m *mockTranslator) T(key string) string {
	if val, ok := m.translations[key]; ok {
		return val
	}
	return key
}

func (m *mockTranslator) Lang() string {
	if m.lang == "" {
		return "en"
	}
	return m.lang
}

func TestPaginationButtons(t *testing.T) {
	translator := &mockTranslator{
		translations: map[string]string{
			"pagination.pagination_prev": "◀️ Prev",
			"pagination.pagination_next": "Next ▶️",
			"pagination.pagination_page": "Page {{.Page}}/{{.Total}}",
		},
	}

	testCases := []struct {
		name      string
		page      int
		total     int
		wantTexts []string
		wantData  []string
	}{
		{
			name:      "first page",
			page:      1,
			total:     5,
			wantTexts: []string{"Page 1/5", "Next ▶️"},
			wantData:  []string{"4.1", "4.2"},
		},
		{
			name:      "middle page",
			page:      3,
			total:     5,
			wantTexts: []string{"◀️ Prev", "Page 3/5", "Next ▶️"},
			wantData:  []string{"4.2", "4.3", "4.4"},
		},
		{
			name:      "last page",
			page:      5,
			total:     5,
			wantTexts: []string{"◀️ Prev", "Page 5/5"},
			wantData:  []string{"4.4", "4.5"},
		},
		{
			name:      "page beyond total is clamped",
			page:      9,
			total:     1,
			wantTexts: []string{"Page 1/1"},
			wantData:  []string{"4.1"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buttons := keyboard.PaginationButtons(translator, keyboard.UniquePage, "4", tc.page, tc.total)
			require.Len(t, buttons, len(tc.wantTexts))

			for i := range tc.wantTexts {
				assert.Equal(t, tc.wantTexts[i], buttons[i].Text)
				assert.Equal(t, keyboard.UniquePage, buttons[i].Unique)
				assert.Equal(t, tc.wantData[i], buttons[i].Data)
			}
		})
	}
}

func TestPaginationFallbackLabels(t *testing.T) {
	buttons := keyboard.PaginationButtons(nil, keyboard.UniquePage, "", 2, 3)

	require.Len(t, buttons, 3)
	assert.Equal(t, "◀️ Prev", buttons[0].Text)
	assert.Equal(t, "Page 2/3", buttons[1].Text)
	assert.Equal(t, "3", buttons[2].Data)
}

func TestDecodePage(t *testing.T) {
	ref, page, err := keyboard.DecodePage("12.3")
	require.NoError(t, err)
	assert.Equal(t, "12", ref)
	assert.Equal(t, 3, page)

	ref, page, err = keyboard.DecodePage("2")
	require.NoError(t, err)
	assert.Empty(t, ref)
	assert.Equal(t, 2, page)

	for _, bad := range []string{"", "x", "4.0", "4.-1", "4."} {
		_, _, err := keyboard.DecodePage(bad)
		assert.Error(t, err, bad)
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	got, page, total := keyboard.Paginate(items, 2, 3)
	assert.Equal(t, []int{4, 5, 6}, got)
	assert.Equal(t, 2, page)
	assert.Equal(t, 3, total)

	got, page, _ = keyboard.Paginate(items, 10, 3)
	assert.Equal(t, []int{7}, got)
	assert.Equal(t, 3, page)

	got, page, total = keyboard.Paginate([]int{}, 1, 3)
	assert.Empty(t, got)
	assert.Equal(t, 1, page)
	assert.Equal(t, 1, total)
}
