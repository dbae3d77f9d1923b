package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewStatus_Valid(t *testing.T) {
	for _, s := range ReviewStatuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, ReviewStatus("approved").Valid())
	assert.False(t, ReviewStatus("").Valid())
}

func TestApplicationFields_ColumnsMatchValues(t *testing.T) {
	f := ApplicationFields{StudentName: "Ada", OptionalInfo: "last"}

	cols := f.Columns()
	vals := f.Values()
	ptrs := f.Pointers()

	require.Len(t, cols, 23)
	require.Len(t, vals, len(cols))
	require.Len(t, ptrs, len(cols))

	assert.Equal(t, "student_name", cols[0])
	assert.Equal(t, "Ada", vals[0])
	assert.Equal(t, "optional_info", cols[len(cols)-1])
	assert.Equal(t, "last", vals[len(vals)-1])

	*(ptrs[1].(*string)) = "f"
	assert.Equal(t, "f", f.StudentGender)
}

func TestApplicationFields_ColumnsIsACopy(t *testing.T) {
	f := ApplicationFields{}
	cols := f.Columns()
	cols[0] = "id; DROP TABLE users"
	assert.Equal(t, "student_name", f.Columns()[0])
}

func TestApplicationFields_GroupsCoverEveryField(t *testing.T) {
	f := ApplicationFields{}
	n := 0
	for _, g := range f.Groups() {
		n += len(g.Fields)
	}
	assert.Equal(t, len(f.Columns()), n)
}
