package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name     string  `json:"name" validate:"min=2" msg:"Name must be at least 2 characters"`
	Email    string  `json:"email" validate:"required,email" msg:"Invalid email address"`
	Password string  `json:"password" validate:"min=6,maxbytes=72" msg_maxbytes:"Password is too long"`
	Role     *string `json:"role" validate:"omitempty,oneof=manager employee" msg:"Invalid role"`
}

func strPtr(s string) *string { return &s }

type statusChange struct {
	Task      *string `json:"task" validate:"omitempty,task_status" msg:"Invalid status"`
	Complaint *string `json:"complaint" validate:"omitempty,complaint_status" msg:"Invalid status"`
}

func TestStatusRules(t *testing.T) {
	require.NoError(t, ValidateStruct(&statusChange{}))
	require.NoError(t, ValidateStruct(&statusChange{Task: strPtr("in_progress"), Complaint: strPtr("in_review")}))

	var ve *ValidationError
	require.ErrorAs(t, ValidateStruct(&statusChange{Task: strPtr("resolved")}), &ve)
	assert.Equal(t, "task", ve.Field)
	require.ErrorAs(t, ValidateStruct(&statusChange{Complaint: strPtr("completed")}), &ve)
	assert.Equal(t, "complaint", ve.Field)
	assert.Equal(t, "Invalid status", ve.Message)
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		in      signup
		field   string
		message string
	}{
		{"valid", signup{Name: "Ann", Email: "ann@example.com", Password: "secret1"}, "", ""},
		{"valid role", signup{Name: "Ann", Email: "ann@example.com", Password: "secret1", Role: strPtr("manager")}, "", ""},
		{"first violation wins", signup{Name: "A", Email: "bad", Password: "x"}, "name", "Name must be at least 2 characters"},
		{"bad email", signup{Name: "Ann", Email: "bad", Password: "secret1"}, "email", "Invalid email address"},
		{"fallback message", signup{Name: "Ann", Email: "ann@example.com", Password: "short"}, "password", "Invalid password"},
		{"password over 72 bytes", signup{Name: "Ann", Email: "ann@example.com", Password: strings.Repeat("a", 73)}, "password", "Password is too long"},
		{"multibyte password over 72 bytes", signup{Name: "Ann", Email: "ann@example.com", Password: strings.Repeat("é", 40)}, "password", "Password is too long"},
		{"password of exactly 72 bytes", signup{Name: "Ann", Email: "ann@example.com", Password: strings.Repeat("a", 72)}, "", ""},
		{"bad role", signup{Name: "Ann", Email: "ann@example.com", Password: "secret1", Role: strPtr("admin")}, "role", "Invalid role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.in)
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, tt.message, ve.Message)
		})
	}
}
