package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeRetryBackoff_CuadraticoAcotado(t *testing.T) {
	casos := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Minute},
		{1, time.Minute},
		{2, 4 * time.Minute},
		{3, 9 * time.Minute},
		{5, 25 * time.Minute},
		{6, 30 * time.Minute}, // 36m se acota a 30m
		{100, 30 * time.Minute},
	}
	for _, c := range casos {
		assert.Equal(t, c.want, computeRetryBackoff(c.attempt), "attempt %d", c.attempt)
	}
}
