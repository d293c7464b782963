package models

import (
	"fmt"
	"sort"
	"strings"
)

// Matching mode constants
const (
	ModeStrict = "strict"
	ModeLoose  = "loose"
)

// UserPreferences represents the declared preference profile attached to a
// join request. Immutable once submitted.
type UserPreferences struct {
	Language           string   `json:"language"`
	TechStack          []string `json:"techStack"`
	Domain             string   `json:"domain"`
	Region             string   `json:"region"`
	Experience         string   `json:"experience"`
	Availability       string   `json:"availability"`
	Timezone           string   `json:"timezone"`
	ProjectType        string   `json:"projectType"`
	CommunicationStyle string   `json:"communicationStyle"`
	Goals              []string `json:"goals"`
}

// StrictKey derives the canonical strict-match key from the preferences.
// Two profiles that are field-equal up to techStack ordering produce the
// same key. The techStack sort is case-sensitive and the input slice is
// never modified.
func (p UserPreferences) StrictKey() string {
	stack := make([]string, len(p.TechStack))
	copy(stack, p.TechStack)
	sort.Strings(stack)

	return fmt.Sprintf("lang=%s|domain=%s|exp=%s|stack=%s",
		p.Language, p.Domain, p.Experience, strings.Join(stack, ","))
}

// PartitionKey returns the queue partition key for the given mode: the
// strict key for strict mode, the declared language for loose mode. Keys
// are namespaced by discipline so a strict join can never see a loose
// queue entry.
func (p UserPreferences) PartitionKey(mode string) string {
	if mode == ModeStrict {
		return "strict:" + p.StrictKey()
	}
	return "loose:" + p.Language
}
