package handlers

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

// TestTodayDate проверяет, что "сегодня" считается в заданном поясе
// и нормализуется к полуночи UTC.
func TestTodayDate(t *testing.T) {
	loc := time.FixedZone("ahead", 14*60*60)
	got := todayDate(loc)

	if got.Location() != time.UTC {
		t.Fatalf("expected UTC date, got %s", got.Location())
	}
	if h, m, s := got.Clock(); h != 0 || m != 0 || s != 0 {
		t.Fatalf("expected midnight, got %02d:%02d:%02d", h, m, s)
	}

	want := time.Now().In(loc)
	if got.Format(dateLayout) != want.Format(dateLayout) {
		t.Fatalf("expected %s, got %s", want.Format(dateLayout), got.Format(dateLayout))
	}

	// Отстающий пояс никогда не опережает опережающий по календарной дате.
	behind := todayDate(time.FixedZone("behind", -12*60*60))
	if behind.After(got) {
		t.Fatalf("expected %s not after %s", behind.Format(dateLayout), got.Format(dateLayout))
	}
}

// TestParseDateWindowValid проверяет корректный разбор окна дат.
func TestParseDateWindowValid(t *testing.T) {
	start, end, err := parseDateWindow("2024-01-01", "2024-01-31", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if start.Format(dateLayout) != "2024-01-01" {
		t.Fatalf("unexpected start: %s", start.Format(dateLayout))
	}
	if end.Format(dateLayout) != "2024-01-31" {
		t.Fatalf("unexpected end: %s", end.Format(dateLayout))
	}
}

// TestParseDateWindowDefaults проверяет подстановку текущего месяца.
func TestParseDateWindowDefaults(t *testing.T) {
	start, end, err := parseDateWindow("", "", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if start.Day() != 1 {
		t.Fatalf("expected window to start on the 1st, got %d", start.Day())
	}
	if end.Before(start) {
		t.Fatal("expected end after start")
	}
	if start.Month() != end.Month() {
		t.Fatalf("expected one-month window, got %s..%s", start.Month(), end.Month())
	}
}

// TestParseDateWindowInvalid проверяет ошибки при неверном окне.
func TestParseDateWindowInvalid(t *testing.T) {
	if _, _, err := parseDateWindow("2024/01/01", "2024-01-31", nil); err == nil {
		t.Fatal("expected error for invalid start format")
	}

	if _, _, err := parseDateWindow("2024-02-01", "2024-01-31", nil); err == nil {
		t.Fatal("expected error for end before start")
	}
}

// TestParsePeriod проверяет разбор месяца и года.
func TestParsePeriod(t *testing.T) {
	month, year, err := parsePeriod("3", "2024", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if month != 3 || year != 2024 {
		t.Fatalf("unexpected period: %d/%d", month, year)
	}

	if _, _, err := parsePeriod("13", "2024", nil); err == nil {
		t.Fatal("expected error for month out of range")
	}
	if _, _, err := parsePeriod("1", "1999", nil); err == nil {
		t.Fatal("expected error for year out of range")
	}
}

// TestParsePositiveAmount проверяет разбор денежной суммы.
func TestParsePositiveAmount(t *testing.T) {
	amount, err := parsePositiveAmount("125.50")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if amount.String() != "125.5" {
		t.Fatalf("unexpected amount: %s", amount)
	}

	if _, err := parsePositiveAmount("0"); err == nil {
		t.Fatal("expected error for zero amount")
	}
	if _, err := parsePositiveAmount("-5"); err == nil {
		t.Fatal("expected error for negative amount")
	}
	if _, err := parsePositiveAmount("abc"); err == nil {
		t.Fatal("expected error for non-numeric amount")
	}
}

// TestParseOptionalUUID проверяет разбор необязательного идентификатора.
func TestParseOptionalUUID(t *testing.T) {
	if got, err := parseOptionalUUID(nil); err != nil || got != nil {
		t.Fatalf("expected nil for nil input, got %v, %v", got, err)
	}

	empty := "  "
	if got, err := parseOptionalUUID(&empty); err != nil || got != nil {
		t.Fatalf("expected nil for blank input, got %v, %v", got, err)
	}

	id := uuid.New()
	raw := id.String()
	got, err := parseOptionalUUID(&raw)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got == nil || *got != id {
		t.Fatalf("unexpected id: %v", got)
	}

	bad := "not-a-uuid"
	if _, err := parseOptionalUUID(&bad); err == nil {
		t.Fatal("expected error for malformed id")
	}
}
