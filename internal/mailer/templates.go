/**
 * @description
 * Email subjects and bodies for transfer and beneficiary notifications. The
 * service renders these and hands them to the event producer; delivery is the
 * notification pipeline's job.
 */

package mailer

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TimestampLayout renders times the way customer emails show them,
// e.g. "04:05 PM, 02 Jan 2006".
const TimestampLayout = "03:04 PM, 02 Jan 2006"

// DebitAlert is sent to the sender after a completed transfer.
func DebitAlert(amount decimal.Decimal, receiverAccountNumber string, balanceAfter decimal.Decimal, when string) (subject, body string) {
	subject = "Account Debited - Transaction Alert"
	body = fmt.Sprintf(
		"Your account has been debited with %s on %s.\n"+
			"Beneficiary account: %s\n"+
			"Available balance: %s\n\n"+
			"If you did not authorize this transfer, contact support immediately.",
		amount.StringFixed(2), when, maskAccountNumber(receiverAccountNumber), balanceAfter.StringFixed(2),
	)
	return subject, body
}

// CreditAlert is sent to the receiver after a completed transfer.
func CreditAlert(amount decimal.Decimal, senderName string, balanceAfter decimal.Decimal, when string) (subject, body string) {
	subject = "Account Credited - Payment Received"
	from := senderName
	if from == "" {
		from = "another customer"
	}
	body = fmt.Sprintf(
		"You received %s from %s on %s.\n"+
			"Available balance: %s",
		amount.StringFixed(2), from, when, balanceAfter.StringFixed(2),
	)
	return subject, body
}

// BeneficiaryAdded confirms a new beneficiary and states when transfers to it
// become possible (after the cooling window).
func BeneficiaryAdded(name, accountNumber, activeFrom string) (subject, body string) {
	subject = "New Beneficiary Added Successfully"
	body = fmt.Sprintf(
		"Beneficiary %s (account %s) was added to your profile.\n"+
			"Transfers to this beneficiary will be enabled from %s.\n\n"+
			"If you did not make this change, contact support immediately.",
		name, maskAccountNumber(accountNumber), activeFrom,
	)
	return subject, body
}

// TransferLimitUpdated confirms a limit change on an existing beneficiary.
func TransferLimitUpdated(name string, limit decimal.Decimal, activeFrom string) (subject, body string) {
	subject = "Beneficiary Transfer Limit Updated"
	body = fmt.Sprintf(
		"The per-transfer limit for beneficiary %s is now %s.\n"+
			"The new limit takes effect for transfers from %s.\n\n"+
			"If you did not make this change, contact support immediately.",
		name, limit.StringFixed(2), activeFrom,
	)
	return subject, body
}

// maskAccountNumber keeps only the last four digits visible.
func maskAccountNumber(accountNumber string) string {
	if len(accountNumber) <= 4 {
		return accountNumber
	}
	masked := make([]byte, len(accountNumber)-4)
	for i := range masked {
		masked[i] = 'X'
	}
	return string(masked) + accountNumber[len(accountNumber)-4:]
}
