package memrepo

import (
	"testing"

	"task_tracker/internal/repository"
	"task_tracker/internal/repository/repotest"
)

func TestStorageContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T, clock repository.Clock) repository.Storage {
		return New(WithClock(clock))
	})
}
