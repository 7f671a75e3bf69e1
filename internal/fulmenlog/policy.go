package fulmenlog

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fulmenhq/fulmen-go/internal/fulmenerrors"
)

// EnvironmentRule constrains which profiles are allowed in a named
// deployment environment (e.g. "production" must use ENTERPRISE).
type EnvironmentRule struct {
	Environment     string   `yaml:"environment"`
	AllowedProfiles []string `yaml:"allowed_profiles"`
}

// Policy is a loadable constraint set: which profiles are acceptable
// at all, which are mandatory, and per-environment overrides. Loggers
// built under an enforced policy reject a disallowed profile at
// construction time instead of silently logging insecurely (spec.md
// §4.5 "policy enforcement").
type Policy struct {
	AllowedProfiles  []string          `yaml:"allowed_profiles"`
	RequiredProfiles []string          `yaml:"required_profiles"`
	EnvironmentRules []EnvironmentRule `yaml:"environment_rules"`
}

// LoadPolicy reads and decodes a policy document from path.
func LoadPolicy(path string) (*Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fulmenerrors.Wrap(fulmenerrors.CodeFileNotFound, "failed to read logging policy "+path, err)
	}
	var p Policy
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fulmenerrors.Wrap(fulmenerrors.CodeConfigInvalid, "failed to decode logging policy "+path, err)
	}
	return &p, nil
}

// Enforce checks profile against every applicable rule: the global
// allow/require lists, and the list scoped to environment (when the
// policy defines rules for it). All configured constraints must pass
// conjunctively (spec.md §8 "policy conjunction enforcement").
func (p *Policy) Enforce(profile Profile, environment string) error {
	if len(p.AllowedProfiles) > 0 && !contains(p.AllowedProfiles, string(profile)) {
		return fulmenerrors.PolicyViolation("profile " + string(profile) + " is not in allowed_profiles").
			WithContext("profile", string(profile))
	}
	if len(p.RequiredProfiles) > 0 && !contains(p.RequiredProfiles, string(profile)) {
		return fulmenerrors.PolicyViolation("profile " + string(profile) + " does not satisfy required_profiles").
			WithContext("profile", string(profile)).
			WithContext("required_profiles", p.RequiredProfiles)
	}
	for _, rule := range p.EnvironmentRules {
		if rule.Environment != environment {
			continue
		}
		if !contains(rule.AllowedProfiles, string(profile)) {
			return fulmenerrors.PolicyViolation("profile " + string(profile) + " is not allowed in environment " + environment).
				WithContext("profile", string(profile)).
				WithContext("environment", environment)
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
