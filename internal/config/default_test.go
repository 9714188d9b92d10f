package config

import "testing"

func TestDefaultCheckerConfig(t *testing.T) {
	c := DefaultCheckerConfig()
	if c.CheckFrequency == 0 {
		t.Fatal("want non-zero CheckFrequency")
	}
	if c.ReleaseURL == "" {
		t.Fatal("want ReleaseURL")
	}
}
