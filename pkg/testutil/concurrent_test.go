package testutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"termyx/pkg/platform/sentinel"
)

func TestRunConcurrentBucketsOutcomes(t *testing.T) {
	res := RunConcurrent(10, func(idx int) error {
		switch idx % 5 {
		case 0:
			return nil
		case 1:
			return fmt.Errorf("deduct: %w", sentinel.ErrInsufficientCredits)
		case 2:
			return fmt.Errorf("save: %w", sentinel.ErrAlreadyUsed)
		case 3:
			return fmt.Errorf("find: %w", sentinel.ErrNotFound)
		default:
			return errors.New("boom")
		}
	})

	assert.Equal(t, int32(2), res.Successes)
	assert.Equal(t, int32(2), res.Refusals)
	assert.Equal(t, int32(2), res.Conflicts)
	assert.Equal(t, int32(2), res.NotFounds)
	assert.Equal(t, int32(2), res.Errors)
	assert.Equal(t, int32(10), res.Total())
}
