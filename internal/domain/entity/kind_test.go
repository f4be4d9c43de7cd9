package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for _, k := range All {
		got, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
		assert.NotEmpty(t, got.Title())
	}
	_, err := ParseKind("widgets")
	assert.Error(t, err)
}

func TestDeletable(t *testing.T) {
	assert.True(t, KindMembers.Deletable())
	assert.True(t, KindScheduleEvents.Deletable())
	assert.False(t, KindPayments.Deletable())
	assert.False(t, KindAccessLogs.Deletable())
	assert.False(t, KindSales.Deletable())
	assert.False(t, KindCheckIns.Deletable())
}
