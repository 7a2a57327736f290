// Package rules matches windows against the configured auto-pin rules.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lowtide/winsink/internal/config"
	"github.com/lowtide/winsink/internal/x11"
)

// Rule is a compiled auto-pin rule. A nil pattern matches any value.
type Rule struct {
	class   *regexp.Regexp
	title   *regexp.Regexp
	desktop *int
	monitor string
}

// Matches reports whether the window satisfies every constraint the rule
// sets. Desktop comparison includes -1, so a rule with desktop: -1 matches
// sticky windows.
func (r *Rule) Matches(win x11.WindowInfo) bool {
	if r.class != nil && !r.class.MatchString(win.Class) {
		return false
	}
	if r.title != nil && !r.title.MatchString(win.Title) {
		return false
	}
	if r.desktop != nil && *r.desktop != win.Desktop {
		return false
	}
	if r.monitor != "" && r.monitor != win.Monitor {
		return false
	}
	return true
}

// String renders the rule's constraints for log lines and status output.
func (r *Rule) String() string {
	var parts []string
	if r.class != nil {
		parts = append(parts, "class="+r.class.String())
	}
	if r.title != nil {
		parts = append(parts, "title="+r.title.String())
	}
	if r.desktop != nil {
		parts = append(parts, fmt.Sprintf("desktop=%d", *r.desktop))
	}
	if r.monitor != "" {
		parts = append(parts, "monitor="+r.monitor)
	}
	return strings.Join(parts, " ")
}

// Matcher evaluates windows against a compiled rule set in order.
type Matcher struct {
	rules []Rule
}

// NewMatcher compiles the configured rules. Patterns are validated at config
// load; compile errors here still report which rule is broken.
func NewMatcher(cfgRules []config.Rule) (*Matcher, error) {
	compiled := make([]Rule, 0, len(cfgRules))
	for i, cr := range cfgRules {
		var rule Rule
		if cr.Class != "" {
			re, err := regexp.Compile(cr.Class)
			if err != nil {
				return nil, fmt.Errorf("rules[%d].class: %w", i, err)
			}
			rule.class = re
		}
		if cr.Title != "" {
			re, err := regexp.Compile(cr.Title)
			if err != nil {
				return nil, fmt.Errorf("rules[%d].title: %w", i, err)
			}
			rule.title = re
		}
		rule.desktop = cr.Desktop
		rule.monitor = cr.Monitor
		compiled = append(compiled, rule)
	}
	return &Matcher{rules: compiled}, nil
}

// Match returns the first rule the window satisfies.
func (m *Matcher) Match(win x11.WindowInfo) (*Rule, bool) {
	for i := range m.rules {
		if m.rules[i].Matches(win) {
			return &m.rules[i], true
		}
	}
	return nil, false
}

// Empty reports whether any rules are configured.
func (m *Matcher) Empty() bool {
	return len(m.rules) == 0
}
