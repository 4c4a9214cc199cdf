package storage

import (
	"regexp"
	"testing"
)

func TestGenerateTempKeyFormat(t *testing.T) {
	key := generateTempKey(".jpg")

	pattern := regexp.MustCompile(`^temp/\d{8}_\d{6}_[0-9a-f]{8}\.jpg$`)
	if !pattern.MatchString(key) {
		t.Fatalf("unexpected temp key format: %s", key)
	}
}

func TestGenerateTempKeyUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		key := generateTempKey(".png")
		if seen[key] {
			t.Fatalf("duplicate temp key: %s", key)
		}
		seen[key] = true
	}
}
