package mailer

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMaskAccountNumber(t *testing.T) {
	if got := maskAccountNumber("1234567890"); got != "XXXXXX7890" {
		t.Fatalf("expected XXXXXX7890, got %q", got)
	}
	if got := maskAccountNumber("1234"); got != "1234" {
		t.Fatalf("expected short numbers to pass through, got %q", got)
	}
}

func TestDebitAlertMasksBeneficiaryAccount(t *testing.T) {
	_, body := DebitAlert(decimal.RequireFromString("200.00"), "1234567890", decimal.RequireFromString("300.00"), "04:05 PM, 02 Jan 2026")
	if strings.Contains(body, "1234567890") {
		t.Fatal("expected the full beneficiary account number to be masked")
	}
	if !strings.Contains(body, "XXXXXX7890") {
		t.Fatalf("expected masked account number in body, got %q", body)
	}
	if !strings.Contains(body, "200.00") || !strings.Contains(body, "300.00") {
		t.Fatalf("expected amount and balance in body, got %q", body)
	}
}
