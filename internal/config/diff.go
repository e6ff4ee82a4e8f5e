package config

import (
	"reflect"
	"sort"

	"croner/internal/job"
	logx "croner/pkg/logx"
)

// SummarizeJobChange compares two configurations and returns the ids of added,
// removed and modified jobs plus structured attrs for logging.
func SummarizeJobChange(oldCfg, newCfg *Config) (added, removed, changed []string, attrs []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	oldJobs := indexJobs(oldCfg.Jobs)
	newJobs := indexJobs(newCfg.Jobs)

	for id, n := range newJobs {
		o, ok := oldJobs[id]
		switch {
		case !ok:
			added = append(added, id)
		case !reflect.DeepEqual(o, n):
			changed = append(changed, id)
		}
	}
	for id := range oldJobs {
		if _, ok := newJobs[id]; !ok {
			removed = append(removed, id)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	sort.Strings(changed)

	attrs = []logx.Field{
		logx.Int("jobs", len(newCfg.Jobs)),
		logx.Strs("added", added),
		logx.Strs("removed", removed),
		logx.Strs("changed", changed),
	}
	if locName(oldCfg) != locName(newCfg) {
		attrs = append(attrs, logx.String("timezone", locName(newCfg)))
	}
	return added, removed, changed, attrs
}

func indexJobs(jobs []job.Spec) map[string]job.Spec {
	m := make(map[string]job.Spec, len(jobs))
	for _, j := range jobs {
		m[j.ID] = j
	}
	return m
}

func locName(c *Config) string {
	if c.Location == nil {
		return ""
	}
	return c.Location.String()
}
