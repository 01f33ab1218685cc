package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/placement-engine/internal/types"
)

const notRequested = "not requested"

// textFilter keeps postings whose field contains the requested value, case-insensitively.
type textFilter struct {
	name     string
	field    func(types.JobPosting) string
	value    func(*Config) string
	needle   string
	disabled bool
	reason   string
}

// NewRole creates a filter matching the requested role against posting titles.
func NewRole() Filter {
	return &textFilter{
		name:  "role",
		field: func(p types.JobPosting) string { return p.Title },
		value: func(c *Config) string { return c.Role },
	}
}

// NewLocation creates a filter matching the requested location against posting locations.
func NewLocation() Filter {
	return &textFilter{
		name:  "location",
		field: func(p types.JobPosting) string { return p.Location },
		value: func(c *Config) string { return c.Location },
	}
}

func (f *textFilter) Name() string { return f.name }

func (f *textFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *textFilter) IsEnabled() bool { return !f.disabled }

func (f *textFilter) Validate(cfg *Config) error {
	f.needle = ""
	if cfg != nil {
		f.needle = strings.ToLower(strings.TrimSpace(f.value(cfg)))
	}
	if f.needle == "" {
		f.Disable(notRequested)
	}
	return nil
}

func (f *textFilter) Apply(_ context.Context, deps Deps, postings []types.JobPosting) ([]types.JobPosting, Step, error) {
	initial := len(postings)
	left, excluded := keep(postings, func(p types.JobPosting) bool {
		return strings.Contains(strings.ToLower(f.field(p)), f.needle)
	})

	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Debug("excluding postings by "+f.name,
			zap.String(f.name, f.needle),
			zap.Strings("excluded_postings", excluded),
			zap.Int("postings_left", len(left)),
		)
	}

	return left, Step{Initial: initial, Dropped: len(excluded), Left: len(left)}, nil
}

func (f *textFilter) Status() Status {
	details := map[string]string{}
	if f.needle != "" {
		details["value"] = f.needle
	}
	return Status{Name: f.name, Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type skillsFilter struct {
	skills   []string
	disabled bool
	reason   string
}

// NewSkills creates a filter keeping postings that mention at least one requested skill.
func NewSkills() Filter {
	return &skillsFilter{}
}

func (f *skillsFilter) Name() string { return "skills" }

func (f *skillsFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *skillsFilter) IsEnabled() bool { return !f.disabled }

func (f *skillsFilter) Validate(cfg *Config) error {
	f.skills = nil
	if cfg != nil {
		for _, s := range cfg.Skills {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				f.skills = append(f.skills, s)
			}
		}
	}
	if len(f.skills) == 0 {
		f.Disable(notRequested)
	}
	return nil
}

func (f *skillsFilter) Apply(_ context.Context, deps Deps, postings []types.JobPosting) ([]types.JobPosting, Step, error) {
	initial := len(postings)
	left, excluded := keep(postings, f.matches)

	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Debug("excluding postings by skills",
			zap.Strings("skills", f.skills),
			zap.Strings("excluded_postings", excluded),
			zap.Int("postings_left", len(left)),
		)
	}

	return left, Step{Initial: initial, Dropped: len(excluded), Left: len(left)}, nil
}

func (f *skillsFilter) matches(p types.JobPosting) bool {
	text := strings.ToLower(p.Title + "\n" + p.Description)
	for _, want := range f.skills {
		for _, have := range p.RequiredSkills {
			if strings.EqualFold(strings.TrimSpace(have), want) {
				return true
			}
		}
		if strings.Contains(text, want) {
			return true
		}
	}
	return false
}

func (f *skillsFilter) Status() Status {
	details := map[string]string{}
	if len(f.skills) > 0 {
		details["skills"] = strings.Join(f.skills, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
