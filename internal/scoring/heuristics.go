package scoring

import "strings"

// The Looks* functions guess repository traits from names, READMEs and
// topics by substring matching. They are approximations: a repository can
// have tests without ever saying so.

// minDocumentedReadme is the README length above which a repository is
// assumed to be documented.
const minDocumentedReadme = 500

// LooksDocumented guesses whether a repository is documented from its README.
func LooksDocumented(readme string) bool {
	return len(readme) > minDocumentedReadme
}

// LooksTested guesses whether a repository has tests.
func LooksTested(name, readme string, topics []string) bool {
	if strings.Contains(strings.ToLower(name), "test") {
		return true
	}
	if containsAny(strings.ToLower(readme), "pytest", "unittest", "testing") {
		return true
	}
	return anyTopicContains(topics, "test")
}

// LooksExampled guesses whether a repository ships examples.
func LooksExampled(readme string, topics []string) bool {
	if containsAny(strings.ToLower(readme), "example", "demo", "tutorial") {
		return true
	}
	return anyTopicContains(topics, "example")
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func anyTopicContains(topics []string, needle string) bool {
	for _, t := range topics {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}
