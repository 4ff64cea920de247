package skill

import (
	"errors"
	"strings"
)

var (
	ErrNotFound     = errors.New("skill not found")
	ErrUnknownSkill = errors.New("unknown skill id")
)

type Skill struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// StarterSet is what the seed operation guarantees to exist.
var StarterSet = []string{
	"React",
	"Node.js",
	"TypeScript",
	"Python",
	"UI/UX Design",
	"JavaScript",
	"GraphQL",
	"React Native",
	"AWS",
	"Docker",
}

// Refs lists the skills a job should carry. IDs must already exist; names are
// upserted case-insensitively.
type Refs struct {
	IDs   []string
	Names []string
}

func (r Refs) Empty() bool {
	return len(r.IDs) == 0 && len(r.Names) == 0
}

// NormalizeName trims and collapses inner whitespace. Case is preserved for
// display; comparisons use Key.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

func Key(name string) string {
	return strings.ToLower(NormalizeName(name))
}

// Dedupe drops empty and repeated ids, preserving order.
func Dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))

	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
