package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Format(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"with cause", NewError(KindExecution, "InsertData", "insert failed", cause), "InsertData: insert failed: boom"},
		{"no cause", Errorf(KindValidation, "CreateDatabase", "invalid name %q", "a-b"), `CreateDatabase: invalid name "a-b"`},
		{"no op", NewError(KindConnection, "", "refused", nil), "refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestIsKind(t *testing.T) {
	cause := errors.New("driver fault")
	err := fmt.Errorf("wrapped: %w", NewError(KindCatalogMismatch, "TableData", "no such table", cause))

	assert.True(t, IsKind(err, KindCatalogMismatch))
	assert.False(t, IsKind(err, KindExecution))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindCatalogMismatch, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(cause))
	assert.False(t, IsKind(nil, KindConnection))
}

func TestInsertMode(t *testing.T) {
	m, ok := ParseInsertMode("atomic")
	assert.True(t, ok)
	assert.Equal(t, InsertAtomic, m)
	assert.Equal(t, "atomic", m.String())

	m, ok = ParseInsertMode("")
	assert.True(t, ok)
	assert.Equal(t, InsertBestEffort, m)

	_, ok = ParseInsertMode("yolo")
	assert.False(t, ok)
}

func TestInsertResult_Complete(t *testing.T) {
	assert.True(t, InsertResult{Attempted: 2, Inserted: 2}.Complete())
	assert.False(t, InsertResult{Attempted: 2, Inserted: 1, Failed: 1}.Complete())
	assert.True(t, InsertResult{}.Complete())
}
