package utils

import (
	"reflect"
	"testing"
)

func TestBuildSkillsListCacheKey(t *testing.T) {
	a := BuildSkillsListCacheKey([]string{"b", "a"})
	b := BuildSkillsListCacheKey([]string{"a", "b"})
	if a != b {
		t.Fatalf("keys differ: %q vs %q", a, b)
	}
	if BuildSkillsListCacheKey(nil) != SkillsCachePrefix+"all" {
		t.Fatalf("unexpected key for all skills")
	}
}

func TestSplitCSV(t *testing.T) {
	got := SplitCSV("a, b,,", " c ", "")
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestIsUUID(t *testing.T) {
	if !IsUUID("0b0a6b8e-4d6b-4c0e-9a55-0b3c2f0f6c11") {
		t.Fatalf("expected valid uuid")
	}
	for _, s := range []string{"", "123", "{0b0a6b8e-4d6b-4c0e-9a55-0b3c2f0f6c11}", "urn:uuid:0b0a6b8e-4d6b-4c0e-9a55-0b3c2f0f6c11"} {
		if IsUUID(s) {
			t.Fatalf("%q should be rejected", s)
		}
	}
}
