package report

import (
	"strings"
	"time"
)

// FormatDuration renders d as "Ns Nms Nus Nns", omitting any leading
// zero-valued unit. A zero duration renders as "0ns".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}

	ns := d.Nanoseconds()
	seconds := ns / int64(time.Second)
	ns -= seconds * int64(time.Second)
	millis := ns / int64(time.Millisecond)
	ns -= millis * int64(time.Millisecond)
	micros := ns / int64(time.Microsecond)
	ns -= micros * int64(time.Microsecond)

	var parts []string
	if seconds > 0 {
		parts = append(parts, itoa(seconds)+"s")
	}
	if millis > 0 || len(parts) > 0 {
		parts = append(parts, itoa(millis)+"ms")
	}
	if micros > 0 || len(parts) > 0 {
		parts = append(parts, itoa(micros)+"us")
	}
	parts = append(parts, itoa(ns)+"ns")

	return strings.Join(parts, " ")
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
