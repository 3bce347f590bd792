package domain

import (
	"testing"

	"github.com/rezkam/awe/internal/ptr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateTaskParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  UpdateTaskParams
		wantErr error
	}{
		{
			name:    "empty mask",
			params:  UpdateTaskParams{TaskID: "t1"},
			wantErr: ErrEmptyUpdateMask,
		},
		{
			name:    "unknown field",
			params:  UpdateTaskParams{TaskID: "t1", UpdateMask: []string{"due_date"}},
			wantErr: ErrUnknownField,
		},
		{
			name:    "status in mask without value",
			params:  UpdateTaskParams{TaskID: "t1", UpdateMask: []string{"status"}},
			wantErr: ErrRequiredField,
		},
		{
			name: "status with value",
			params: UpdateTaskParams{
				TaskID:     "t1",
				UpdateMask: []string{"status"},
				Status:     ptr.To(TaskStatusWIP),
			},
		},
		{
			name: "remarks may be cleared",
			params: UpdateTaskParams{
				TaskID:     "t1",
				UpdateMask: []string{"remarks", "reviewer_status"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestUpdateTaskParams_Has(t *testing.T) {
	p := UpdateTaskParams{UpdateMask: []string{"status", "link"}}
	assert.True(t, p.Has("status"))
	assert.True(t, p.Has("link"))
	assert.False(t, p.Has("remarks"))
}
