package script

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dop251/goja"
)

// parseDurationArg accepts either a human-readable duration string
// ("1s500ms", "2m") or an integer number of milliseconds.
// time.ParseDuration already understands
// ns|us|µs|ms|s|m|h and composite forms, so no third-party duration
// parser is needed here.
func parseDurationArg(v goja.Value) (time.Duration, error) {
	if goja.IsUndefined(v) || goja.IsNull(v) {
		return 0, fmt.Errorf("duration argument is required")
	}

	exported := v.Export()
	switch t := exported.(type) {
	case string:
		d, err := time.ParseDuration(t)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", t, err)
		}
		return d, nil
	case int64:
		return time.Duration(t) * time.Millisecond, nil
	case float64:
		return time.Duration(t) * time.Millisecond, nil
	default:
		return 0, fmt.Errorf("duration must be a string or integer milliseconds, got %T", exported)
	}
}

func toJSON(v interface{}) (string, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func toJSONPretty(v interface{}) (string, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}
