package ledger

import "fmt"

// Account is a semantic account in the chart of accounts. Journal builders
// reference accounts by meaning; the deployment-specific account codes are
// resolved through an AccountLookup owned by configuration.
type Account string

const (
	AccountReceivable     Account = "ACCOUNTS_RECEIVABLE"
	AccountRentRevenue    Account = "RENT_REVENUE"
	AccountCAMRevenue     Account = "CAM_REVENUE"
	AccountLateFeeRevenue Account = "LATE_FEE_REVENUE"
	AccountCash           Account = "CASH"
	AccountTDSWithholding Account = "TDS_WITHHOLDING"
)

// IsValid checks if the account is a known semantic account
func (a Account) IsValid() bool {
	switch a {
	case AccountReceivable, AccountRentRevenue, AccountCAMRevenue,
		AccountLateFeeRevenue, AccountCash, AccountTDSWithholding:
		return true
	}
	return false
}

// String returns the string representation of Account
func (a Account) String() string {
	return string(a)
}

// AccountLookup resolves semantic accounts to deployment account codes.
// Implementations must fail for accounts they cannot resolve rather than
// return an empty or default code.
type AccountLookup interface {
	Code(account Account) (string, error)
}

// StaticAccountLookup resolves accounts from a fixed code map, the common
// case where the chart of accounts is part of the deployment configuration.
type StaticAccountLookup map[Account]string

// Code implements AccountLookup
func (l StaticAccountLookup) Code(account Account) (string, error) {
	code, ok := l[account]
	if !ok || code == "" {
		return "", fmt.Errorf("no account code configured for %s", account)
	}
	return code, nil
}
