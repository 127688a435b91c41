package config

import (
	"testing"
	"time"
)

// TestParseIntEnv проверяет разбор целочисленной переменной окружения.
func TestParseIntEnv(t *testing.T) {
	t.Setenv("TEST_INT_ENV", "42")

	got, err := parseIntEnv("TEST_INT_ENV", 7)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}

	if got, err = parseIntEnv("TEST_INT_ENV_MISSING", 7); err != nil || got != 7 {
		t.Fatalf("expected fallback 7, got %d (%v)", got, err)
	}

	t.Setenv("TEST_INT_ENV", "not-a-number")
	if _, err = parseIntEnv("TEST_INT_ENV", 7); err == nil {
		t.Fatal("expected error for invalid integer")
	}
}

// TestParseDurationEnv проверяет разбор длительности.
func TestParseDurationEnv(t *testing.T) {
	t.Setenv("TEST_DURATION_ENV", "90s")

	got, err := parseDurationEnv("TEST_DURATION_ENV", time.Second)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != 90*time.Second {
		t.Fatalf("expected 90s, got %s", got)
	}

	t.Setenv("TEST_DURATION_ENV", "oops")
	if _, err = parseDurationEnv("TEST_DURATION_ENV", time.Second); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

// TestParseTimezoneEnv проверяет разбор часового пояса.
func TestParseTimezoneEnv(t *testing.T) {
	t.Setenv("TEST_TZ_ENV", "Asia/Kolkata")

	location, err := parseTimezoneEnv("TEST_TZ_ENV")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if location.String() != "Asia/Kolkata" {
		t.Fatalf("expected Asia/Kolkata, got %s", location)
	}

	if location, err = parseTimezoneEnv("TEST_TZ_ENV_MISSING"); err != nil || location != time.Local {
		t.Fatalf("expected local fallback, got %v (%v)", location, err)
	}

	t.Setenv("TEST_TZ_ENV", "Nowhere/Invalid")
	if _, err = parseTimezoneEnv("TEST_TZ_ENV"); err == nil {
		t.Fatal("expected error for invalid timezone")
	}
}
