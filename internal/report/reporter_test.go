package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saltyorg/sam/internal/registry"
)

func TestReporter_AggregatesTotalsFromCaseEndOnly(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)

	r.Handle(Event{Kind: GroupStart, Name: "g", Depth: 0})
	r.Handle(Event{Kind: CaseEnd, Name: "a", Depth: 1, Outcome: registry.Pass})
	r.Handle(Event{Kind: CaseEnd, Name: "b", Depth: 1, Outcome: registry.Fail, Message: "nope", Location: "x:1"})
	r.Handle(Event{Kind: GroupEnd, Name: "g", Depth: 0, Counts: registry.Counts{Passed: 1, Failed: 1}})

	totals := r.Totals()
	assert.Equal(t, 1, totals.Passed)
	assert.Equal(t, 1, totals.Failed)
	assert.Contains(t, buf.String(), "nope (x:1)")
}

func TestReporter_Finish_ExitCodeReflectsFailures(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	r.Handle(Event{Kind: CaseEnd, Name: "a", Depth: 0, Outcome: registry.Pass})
	assert.Equal(t, 0, r.Finish())

	var buf2 bytes.Buffer
	r2 := New(&buf2)
	r2.Handle(Event{Kind: CaseEnd, Name: "b", Depth: 0, Outcome: registry.Errored})
	assert.Equal(t, 1, r2.Finish())
}

func TestReporter_LogEventRendersMessageAndLocation(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	r.Handle(Event{Kind: LogEvent, Message: "hello", Location: "script.js:3", Depth: 1})
	assert.Contains(t, buf.String(), "hello (script.js:3)")
}
