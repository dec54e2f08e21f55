package fields

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCoerce_Integer(t *testing.T) {
	assert.Equal(t, 2, Coerce(RefPriority, 2))
	assert.Equal(t, 2, Coerce(RefPriority, 2.0))
	assert.Equal(t, 2, Coerce(RefPriority, "2"))
	assert.Equal(t, 2, Coerce(RefPriority, " 2 "))
}

func TestCoerce_Double(t *testing.T) {
	assert.Equal(t, 5.0, Coerce(RefStoryPoints, 5))
	assert.Equal(t, 3.5, Coerce(RefStoryPoints, "3.5"))
	assert.Equal(t, 8.0, Coerce(RefStoryPoints, 8.0))
}

func TestCoerce_DateTime(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-01T10:30:00Z", Coerce(RefCreatedDate, ts))
	assert.Equal(t, "2026-03-01T00:00:00Z", Coerce("Microsoft.VSTS.Scheduling.DueDate", "2026-03-01"))
	assert.Equal(t, "2026-03-01T10:30:00Z", Coerce(RefCreatedDate, "2026-03-01T10:30:00Z"))
}

func TestCoerce_Identity(t *testing.T) {
	assert.Equal(t, "jane@example.com", Coerce(RefAssignedTo, "jane@example.com"))
	assert.Equal(t, "Jane Doe", Coerce(RefAssignedTo, map[string]any{"displayName": "Jane Doe", "id": "abc"}))
}

func TestCoerce_Lists(t *testing.T) {
	assert.Equal(t, "frontend; urgent", Coerce(RefTags, []string{"frontend", "urgent"}))
	assert.Equal(t, "a; b", Coerce(RefTags, []any{"a", "b"}))
}

func TestCoerce_String(t *testing.T) {
	assert.Equal(t, "hello", Coerce(RefTitle, "hello"))
	assert.Equal(t, "42", Coerce(RefTitle, 42))
	assert.Equal(t, "true", Coerce("Custom.Flag", true))
}

func TestCoerce_Nil(t *testing.T) {
	assert.Nil(t, Coerce(RefTitle, nil))
}

// Coercion never errors: garbage input comes back unchanged for the
// backend to reject.
func TestCoerce_UnparseableFallsThrough(t *testing.T) {
	assert.Equal(t, "not a number", Coerce(RefPriority, "not a number"))
	assert.Equal(t, "many", Coerce(RefStoryPoints, "many"))
	assert.Equal(t, "whenever", Coerce(RefCreatedDate, "whenever"))
	assert.Equal(t, 3.7, Coerce(RefCreatedDate, 3.7))
}
