package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"croner/internal/job"
	"croner/internal/schedule"
)

func TestSummarizeJobChange(t *testing.T) {
	t.Parallel()
	a := job.Spec{ID: "a", Schedule: schedule.Every(), Command: []string{"true"}}
	b := job.Spec{ID: "b", Schedule: schedule.Every(), Command: []string{"true"}}
	c := job.Spec{ID: "c", Schedule: schedule.Every(), Command: []string{"true"}}
	b2 := b
	b2.Command = []string{"false"}

	oldCfg := &Config{Location: time.UTC, Jobs: []job.Spec{a, b}}
	newCfg := &Config{Location: time.UTC, Jobs: []job.Spec{b2, c}}

	added, removed, changed, attrs := SummarizeJobChange(oldCfg, newCfg)
	assert.Equal(t, []string{"c"}, added)
	assert.Equal(t, []string{"a"}, removed)
	assert.Equal(t, []string{"b"}, changed)
	assert.Len(t, attrs, 4)

	added, removed, changed, _ = SummarizeJobChange(nil, newCfg)
	assert.Equal(t, []string{"b", "c"}, added)
	assert.Empty(t, removed)
	assert.Empty(t, changed)
}
