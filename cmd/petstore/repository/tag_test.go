package repository

import (
	"testing"

	"github.com/lyzr/petstore/cmd/petstore/models"
	"github.com/stretchr/testify/assert"
)

func TestMissingIDs(t *testing.T) {
	selected := []models.Tag{{ID: 1, Name: "a"}, {ID: 3, Name: "c"}}

	tests := []struct {
		name      string
		requested []int64
		want      []int64
	}{
		{
			name:      "all found",
			requested: []int64{1, 3},
		},
		{
			name:      "one missing",
			requested: []int64{1, 2, 3},
			want:      []int64{2},
		},
		{
			name:      "all missing",
			requested: []int64{7, 8},
			want:      []int64{7, 8},
		},
		{
			name:      "duplicates reported once",
			requested: []int64{2, 2, 2},
			want:      []int64{2},
		},
		{
			name:      "empty request",
			requested: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, missingIDs(tt.requested, selected))
		})
	}
}
