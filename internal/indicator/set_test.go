package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_Update(t *testing.T) {
	s, err := NewSet(SetConfig{EMAPeriod: 3, RSIPeriod: 3, BBPeriod: 3, BBWidth: 2})
	require.NoError(t, err)

	s.Update(10)
	s.Update(20)
	assert.False(t, s.Ready())

	r := s.Update(30)
	assert.True(t, s.Ready())
	assert.Equal(t, 30.0, r.Price)
	assert.Equal(t, 22.5, r.EMA)
	assert.Equal(t, 100.0, r.RSI)
	assert.Equal(t, 20.0, r.Bands.Middle)
	assert.Equal(t, r, s.Value(30))
	assert.Equal(t, s.Value(30), s.Value(30))

	s.Reset()
	assert.False(t, s.Ready())
}

func TestSet_InvalidConfig(t *testing.T) {
	_, err := NewSet(SetConfig{EMAPeriod: 3, RSIPeriod: 0, BBPeriod: 3, BBWidth: 2})
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}
