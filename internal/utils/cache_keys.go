package utils

import (
	"sort"
	"strings"
)

const SkillsCachePrefix = "skills:list:v1:"

// BuildSkillsListCacheKey is order insensitive: {b,a} and {a,b} share a key.
func BuildSkillsListCacheKey(ids []string) string {
	if len(ids) == 0 {
		return SkillsCachePrefix + "all"
	}

	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	return SkillsCachePrefix + "ids=" + strings.Join(sorted, ",")
}
