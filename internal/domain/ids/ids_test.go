package ids

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testULID = "01HYX3KQW7ERTV9XNBM2P8QJZF"

func TestNewULIDReturnsValid(t *testing.T) {
	value := NewULID()

	require.NoError(t, ValidateULID(value))
}

func TestNewULIDIsMonotonic(t *testing.T) {
	prev := NewULID()
	for i := 0; i < 100; i++ {
		next := NewULID()
		require.Greater(t, next, prev)
		prev = next
	}
}

func TestNewULIDAt(t *testing.T) {
	early, err := NewULIDAt(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	late, err := NewULIDAt(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Less(t, early, late)
}

func TestIsULIDAndValidateULID(t *testing.T) {
	require.True(t, IsULID(testULID))
	require.True(t, IsULID(" "+testULID+" "))
	require.NoError(t, ValidateULID(testULID))

	require.False(t, IsULID("not-a-ulid"))
	require.ErrorIs(t, ValidateULID("not-a-ulid"), ErrInvalidULID)
}

func TestNormalize(t *testing.T) {
	require.Equal(t, testULID, Normalize("  01hyx3kqw7ertv9xnbm2p8qjzf "))
}
