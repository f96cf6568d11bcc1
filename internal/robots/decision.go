package robots

import "strings"

// canFetch implements the decision algorithm from spec §4.4: for each
// disallowed prefix that matches path, check whether any allowed
// prefix also matches; if so, allow; otherwise deny. If no disallowed
// prefix matches, allow. This is deterministic and longest-match-free
// — unlike the teacher's original most-specific-user-agent-group
// resolution (findBestMatchingGroup, kept in mapper.go as the group
// selection step feeding this function's ruleSet), the allow/deny math
// itself never picks a "most specific" rule among competing prefixes.
func canFetch(rs ruleSet, path string) (bool, DecisionReason) {
	if !rs.hasGroups {
		return true, EmptyRuleSet
	}
	if !rs.matchedGroup {
		return true, UserAgentNotMatched
	}

	disallowMatched := false
	for _, rule := range rs.disallowRules {
		if matchesPrefix(path, rule.prefix) {
			disallowMatched = true
			break
		}
	}
	if !disallowMatched {
		return true, NoMatchingRules
	}

	for _, rule := range rs.allowRules {
		if matchesPrefix(path, rule.prefix) {
			return true, AllowedByRobots
		}
	}
	return false, DisallowedByRobots
}

func matchesPrefix(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	return strings.HasPrefix(path, prefix)
}
