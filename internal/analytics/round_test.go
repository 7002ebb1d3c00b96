package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 66.67, round2(200.0/3.0))
	assert.Equal(t, 33.33, round2(100.0/3.0))
	assert.Equal(t, 11.67, round2(35.0/3.0))
	assert.Equal(t, 0.04, round2(2.0/52.0))
	assert.Equal(t, 0.0, round2(0))
	assert.Equal(t, 10.0, round2(10))
}
