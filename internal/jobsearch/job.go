package jobsearch

import (
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/placement-engine/internal/types"
)

const (
	defaultTitle   = "Untitled position"
	defaultCompany = "Unknown company"
	defaultSource  = "jsearch"
)

// rawJob mirrors the provider item. Items are loosely typed, so decoding is weak.
type rawJob struct {
	Title          string `mapstructure:"job_title"`
	Employer       string `mapstructure:"employer_name"`
	Description    string `mapstructure:"job_description"`
	ApplyLink      string `mapstructure:"job_apply_link"`
	GoogleLink     string `mapstructure:"job_google_link"`
	City           string `mapstructure:"job_city"`
	State          string `mapstructure:"job_state"`
	Country        string `mapstructure:"job_country"`
	Publisher      string `mapstructure:"job_publisher"`
	PostedAtUTC    string `mapstructure:"job_posted_at_datetime_utc"`
	PostedAtUnix   int64  `mapstructure:"job_posted_at_timestamp"`
	IsRemote       bool   `mapstructure:"job_is_remote"`
	EmploymentType string `mapstructure:"job_employment_type"`
}

func decodeJobs(items []map[string]any, log *zap.Logger) []types.ExternalJob {
	jobs := make([]types.ExternalJob, 0, len(items))
	for i, item := range items {
		var raw rawJob
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &raw,
			WeaklyTypedInput: true,
		})
		if err != nil {
			log.Warn("create decoder", zap.Error(err))
			continue
		}
		if err := decoder.Decode(item); err != nil {
			log.Debug("skip undecodable provider item", zap.Int("index", i), zap.Error(err))
			continue
		}

		job, ok := raw.toExternalJob()
		if !ok {
			log.Debug("skip provider item without url", zap.Int("index", i), zap.String("title", raw.Title))
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs
}

func (r rawJob) toExternalJob() (types.ExternalJob, bool) {
	link := firstNonEmpty(r.ApplyLink, r.GoogleLink)
	if link == "" {
		return types.ExternalJob{}, false
	}

	job := types.ExternalJob{
		ExternalURL: link,
		Title:       firstNonEmpty(r.Title, defaultTitle),
		Company:     firstNonEmpty(r.Employer, defaultCompany),
		Description: strings.TrimSpace(r.Description),
		Location:    r.location(),
		Source:      firstNonEmpty(r.Publisher, defaultSource),
	}

	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(r.PostedAtUTC)); err == nil {
		t = t.UTC()
		job.PostedAt = &t
	} else if r.PostedAtUnix > 0 {
		t := time.Unix(r.PostedAtUnix, 0).UTC()
		job.PostedAt = &t
	}

	return job, true
}

func (r rawJob) location() string {
	var parts []string
	for _, p := range []string{r.City, r.State, r.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 && r.IsRemote {
		return "Remote"
	}
	return strings.Join(parts, ", ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
