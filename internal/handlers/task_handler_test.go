package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clientx/internal/services"
)

func TestTaskUpdateRequestDistinguishesAbsentAndNull(t *testing.T) {
	var absent taskUpdateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"x"}`), &absent))
	assert.False(t, absent.Group.Present)
	assert.Nil(t, absent.AssignedTo)

	var null taskUpdateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"group":null}`), &null))
	assert.True(t, null.Group.Present)
	assert.Nil(t, null.Group.Value)

	var set taskUpdateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"group":5,"assigned_to":[]}`), &set))
	assert.True(t, set.Group.Present)
	require.NotNil(t, set.Group.Value)
	assert.Equal(t, int64(5), *set.Group.Value)
	require.NotNil(t, set.AssignedTo)
	assert.Empty(t, *set.AssignedTo)
}

func TestParseDueDate(t *testing.T) {
	got, err := parseDueDate("2026-09-01")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2026-09-01", got.Format(dueDateLayout))

	got, err = parseDueDate("2026-09-01T10:30:00Z")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2026-09-01", got.Format(dueDateLayout))

	_, err = parseDueDate("tomorrow")
	assert.Error(t, err)

	got, err = parseDueDate("")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRespondServiceErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"permission denied", services.ErrPermissionDenied, 403},
		{"not found", services.ErrNotFound, 404},
		{"conflict", services.ErrConflict, 409},
		{"validation", &services.ValidationError{Field: "title", Message: "title is required"}, 400},
		{"unknown", assert.AnError, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondServiceError(c, tt.err)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestAddedIDs(t *testing.T) {
	assert.Equal(t, []int64{3}, addedIDs([]int64{1, 2, 3}, []int64{1, 2}))
	assert.Nil(t, addedIDs([]int64{1}, []int64{1}))
	assert.Equal(t, []int64{1}, addedIDs([]int64{1}, nil))
}
