package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "0ns"},
		{500 * time.Nanosecond, "500ns"},
		{2500 * time.Microsecond, "2ms 500us 0ns"},
		{3*time.Second + 10*time.Millisecond, "3s 10ms 0us 0ns"},
		{90 * time.Minute, "5400s 0ms 0us 0ns"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatDuration(c.d))
	}
}

func TestFormatDuration_NegativeIsRenderedAsMagnitude(t *testing.T) {
	assert.Equal(t, FormatDuration(5*time.Millisecond), FormatDuration(-5*time.Millisecond))
}
