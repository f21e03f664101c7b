package keyboard_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/weva-assistant/internal/bot/keyboard"
)

func TestEncodeCallback(t *testing.T) {
	tests := []struct {
		name      string
		unique    string
		data      string
		want      string
		wantError bool
	}{
		{
			name:   "with data",
			unique: keyboard.UniqueCategory,
			data:   "2",
			want:   "cat:2",
		},
		{
			name:   "without data",
			unique: keyboard.UniqueChangeCategory,
			data:   "",
			want:   "chg",
		},
		{
			name:      "exceeds limit",
			unique:    strings.Repeat("x", keyboard.CallbackDataLimitBytes+1),
			data:      "",
			wantError: true,
		},
		{
			name:      "data pushes over limit",
			unique:    keyboard.UniqueService,
			data:      strings.Repeat("9", keyboard.CallbackDataLimitBytes),
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := keyboard.EncodeCallback(tt.unique, tt.data)
			if tt.wantError {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeCallback(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantUnique string
		wantData   string
		wantErr    bool
	}{
		{
			name:       "unique and data",
			input:      "ctr:17",
			wantUnique: "ctr",
			wantData:   "17",
		},
		{
			name:       "only unique",
			input:      "chg",
			wantUnique: "chg",
			wantData:   "",
		},
		{
			name:       "multiple separators",
			input:      "svc:part1:part2",
			wantUnique: "svc",
			wantData:   "part1:part2",
		},
		{
			name:       "telebot prefix",
			input:      "\fmore:yes",
			wantUnique: "more",
			wantData:   "yes",
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unique, data, err := keyboard.DecodeCallback(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantUnique, unique)
			assert.Equal(t, tt.wantData, data)
		})
	}
}

func TestIsKnownUnique(t *testing.T) {
	for _, unique := range keyboard.Uniques() {
		assert.True(t, keyboard.IsKnownUnique(unique), unique)
	}

	assert.False(t, keyboard.IsKnownUnique("garbage"))
	assert.False(t, keyboard.IsKnownUnique(""))
}
