package grading

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAggregateEmptyGradesIsReviewing(t *testing.T) {
	require.Equal(t, VerdictReviewing, Aggregate([]uint{1, 2}, nil, BinaryScale()))
	require.Equal(t, VerdictReviewing, Aggregate([]uint{1, 2}, map[uint]int{}, BinaryScale()))
}

func TestAggregateSingleBadGradeFailsImmediately(t *testing.T) {
	verdict := Aggregate([]uint{1, 2}, map[uint]int{1: 1}, BinaryScale())
	require.Equal(t, VerdictFailed, verdict)
}

func TestAggregateAllGoodIsPassed(t *testing.T) {
	verdict := Aggregate([]uint{1, 2}, map[uint]int{1: 2, 2: 2}, BinaryScale())
	require.Equal(t, VerdictPassed, verdict)
}

func TestAggregatePartialGoodIsReviewing(t *testing.T) {
	verdict := Aggregate([]uint{1, 2}, map[uint]int{1: 2}, BinaryScale())
	require.Equal(t, VerdictReviewing, verdict)
}

func TestAggregateMixedGradesFail(t *testing.T) {
	verdict := Aggregate([]uint{1, 2}, map[uint]int{1: 2, 2: 1}, BinaryScale())
	require.Equal(t, VerdictFailed, verdict)
}

func TestAggregateWiderScaleUsesPassGrade(t *testing.T) {
	scale, err := NewScale(5, 3)
	require.NoError(t, err)

	require.Equal(t, VerdictPassed, Aggregate([]uint{1, 2}, map[uint]int{1: 3, 2: 5}, scale))
	require.Equal(t, VerdictFailed, Aggregate([]uint{1, 2, 3}, map[uint]int{2: 2}, scale))
	require.Equal(t, VerdictReviewing, Aggregate([]uint{1, 2, 3}, map[uint]int{1: 4, 2: 3}, scale))
}

func TestNewScale(t *testing.T) {
	scale, err := NewScale(2, 0)
	require.NoError(t, err)
	require.Equal(t, BinaryScale(), scale)

	_, err = NewScale(0, 0)
	require.Error(t, err)

	_, err = NewScale(3, 4)
	require.Error(t, err)

	require.True(t, scale.InRange(1))
	require.True(t, scale.InRange(2))
	require.False(t, scale.InRange(0))
	require.False(t, scale.InRange(3))
}
