package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDay(t *testing.T) {
	cases := map[string]Day{
		"LUNES":     DayMonday,
		" martes ":  DayTuesday,
		"Miércoles": DayWednesday,
		"MIERCOLES": DayWednesday,
		"viernes":   DayFriday,
	}
	for in, want := range cases {
		got, err := ParseDay(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDay("SABADO")
	assert.Error(t, err)
}

func TestParseShift(t *testing.T) {
	s, err := ParseShift("matutino")
	require.NoError(t, err)
	assert.Equal(t, ShiftMorning, s)

	s, err = ParseShift("AFTERNOON")
	require.NoError(t, err)
	assert.Equal(t, ShiftAfternoon, s)

	_, err = ParseShift("NOCTURNO")
	assert.Error(t, err)
}

func TestScopeIncludes(t *testing.T) {
	assert.True(t, ScopeBoth.Includes(ShiftMorning))
	assert.True(t, ScopeBoth.Includes(ShiftAfternoon))
	assert.False(t, ScopeMorning.Includes(ShiftAfternoon))
	assert.False(t, Scope("NIGHT").Valid())
	assert.Nil(t, Scope("NIGHT").Shifts())
}

func TestMetricsPenalty(t *testing.T) {
	assert.Zero(t, Metrics{}.Penalty())
	assert.True(t, Metrics{}.IsZero())

	m := Metrics{ReservationViolations: 1, TeacherConflicts: 2}
	assert.Equal(t, PenaltyReservation+2*PenaltyTeacherConflict, m.Penalty())
	assert.False(t, m.IsZero())
}
