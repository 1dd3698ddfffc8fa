package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePackList(t *testing.T) {
	packs, err := ParsePackList("1586, 1587,1600")
	require.NoError(t, err)
	assert.Equal(t, []int{1586, 1587, 1600}, packs)

	packs, err = ParsePackList("42,,43,")
	require.NoError(t, err)
	assert.Equal(t, []int{42, 43}, packs)

	_, err = ParsePackList("1,abc")
	assert.Error(t, err)
	_, err = ParsePackList("0")
	assert.Error(t, err)
	_, err = ParsePackList("-5")
	assert.Error(t, err)
}

func TestExpandRange(t *testing.T) {
	packs, err := ExpandRange(10, 12)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 11, 12}, packs)

	packs, err = ExpandRange(7, 7)
	require.NoError(t, err)
	assert.Equal(t, []int{7}, packs)

	_, err = ExpandRange(12, 10)
	assert.Error(t, err)
	_, err = ExpandRange(0, 5)
	assert.Error(t, err)
}

func TestDedupeSort(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, DedupeSort([]int{3, 1, 2, 3, 1}))
	assert.Empty(t, DedupeSort(nil))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.00 KB", FormatBytes(1024))
	assert.Equal(t, "5.00 MB", FormatBytes(5*1024*1024))
	assert.Equal(t, "1.50 GB", FormatBytes(3*512*1024*1024))
}

func TestFormatSpeed(t *testing.T) {
	assert.Equal(t, "0 B/s", FormatSpeed(1000, 0))
	assert.Equal(t, "1.00 MB/s", FormatSpeed(2*1024*1024, 2))
}
