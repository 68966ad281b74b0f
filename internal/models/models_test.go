package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "10:00", want: "10:00"},
		{in: "09:30", want: "09:30"},
		{in: "9:30", want: "09:30"},
		{in: " 23:59 ", want: "23:59"},
		{in: "00:00", want: "00:00"},
		{in: "25:99", wantErr: true},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "1230", wantErr: true},
		{in: "12:30pm", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClockTime(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestIsWeekend(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Bangkok")
	require.NoError(t, err)

	// 2026-10-17 is a Saturday.
	assert.True(t, IsWeekend(time.Date(2026, 10, 17, 10, 0, 0, 0, loc), loc))
	assert.True(t, IsWeekend(time.Date(2026, 10, 18, 10, 0, 0, 0, loc), loc))
	assert.False(t, IsWeekend(time.Date(2026, 10, 19, 10, 0, 0, 0, loc), loc))
	assert.False(t, IsWeekend(time.Date(2026, 10, 16, 23, 59, 0, 0, loc), loc))

	// Friday 20:00 UTC is already Saturday in Bangkok.
	assert.True(t, IsWeekend(time.Date(2026, 10, 16, 20, 0, 0, 0, time.UTC), loc))
}

func TestErrorsMatchSentinels(t *testing.T) {
	assert.True(t, errors.Is(ErrEmptyReport, ErrValidation))
	assert.True(t, errors.Is(&StorageError{Op: "x", Err: errors.New("disk")}, ErrStorage))
	assert.True(t, errors.Is(&DeliveryError{ChatID: 1, Err: errors.New("boom")}, ErrDelivery))
	assert.False(t, errors.Is(&StorageError{Op: "x", Err: errors.New("disk")}, ErrValidation))
}
