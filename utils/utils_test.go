package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestContainsString(t *testing.T) {
	assert.True(t, ContainsString([]string{"a", "b"}, "b"))
	assert.False(t, ContainsString([]string{"a", "b"}, "c"))
	assert.False(t, ContainsString(nil, "a"))
}

func TestRandomAlphabetString(t *testing.T) {
	s := RandomAlphabetString(12)
	assert.Len(t, s, 12)
	for _, r := range s {
		assert.True(t, r >= 'a' && r <= 'z')
	}
}

func TestStartOfDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	assert.Nil(t, err)

	at := time.Date(2021, 11, 3, 23, 59, 59, 123, loc)
	start := StartOfDay(at)

	assert.Equal(t, time.Date(2021, 11, 3, 0, 0, 0, 0, loc), start)
	assert.Equal(t, loc, start.Location())
}
