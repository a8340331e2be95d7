package main

import (
	"strings"
	"syscall"
	"testing"
)

func TestParseID(t *testing.T) {
	if id, err := parseID(" 42 "); err != nil || id != 42 {
		t.Fatalf("parseID(\" 42 \") = %d, %v", id, err)
	}
	for _, raw := range []string{"", "abc", "0", "-3"} {
		if _, err := parseID(raw); err == nil {
			t.Fatalf("parseID(%q) should fail", raw)
		}
	}
}

func TestFlagValueDistinguishesUnsetFromEmpty(t *testing.T) {
	var unset flagValue
	if unset.ptr() != nil {
		t.Fatal("unset flag should yield nil pointer")
	}

	var cleared flagValue
	if err := cleared.Set(""); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ptr := cleared.ptr()
	if ptr == nil || *ptr != "" {
		t.Fatalf("explicitly empty flag should yield pointer to empty string, got %v", ptr)
	}

	var set flagValue
	if err := set.Set("2026-09-01"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ptr := set.ptr(); ptr == nil || *ptr != "2026-09-01" {
		t.Fatalf("set flag lost its value: %v", ptr)
	}
}

func TestWrapDialError(t *testing.T) {
	err := wrapDialError(syscall.ENOENT, "/tmp/prodflowd.sock")
	if !strings.Contains(err.Error(), "start prodflowd first") {
		t.Fatalf("missing socket should suggest starting the daemon: %v", err)
	}

	err = wrapDialError(syscall.ECONNREFUSED, "/tmp/prodflowd.sock")
	if !strings.Contains(err.Error(), "refused the connection") {
		t.Fatalf("refused connection message wrong: %v", err)
	}
}

func TestYesNo(t *testing.T) {
	if yesNo(true) != "yes" || yesNo(false) != "no" {
		t.Fatal("yesNo mapping broken")
	}
}
