package accounts

import "time"

// AccountType enumerates chart of accounts categories.
type AccountType string

const (
	TypeAsset     AccountType = "asset"
	TypeLiability AccountType = "liability"
	TypeEquity    AccountType = "equity"
	TypeIncome    AccountType = "income"
	TypeExpense   AccountType = "expense"
)

// Account models a chart of accounts node. Accounts referenced by journal
// lines are immutable; the chart is created during organisation setup.
type Account struct {
	ID        int64
	Code      string
	Name      string
	Type      AccountType
	IsSystem  bool
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Role names a logical ledger slot that postings resolve to a concrete
// account at runtime.
type Role string

const (
	RoleBank               Role = "bank"
	RoleAccountsReceivable Role = "accounts_receivable"
	RoleAccountsPayable    Role = "accounts_payable"
	RoleOutputVAT          Role = "output_vat"
	RoleInputVAT           Role = "input_vat"
	RoleSales              Role = "sales"
	RoleOperatingExpenses  Role = "operating_expenses"
)

// roleCodes pins each role to its system account code in the default chart.
var roleCodes = map[Role]string{
	RoleBank:               "1010",
	RoleAccountsReceivable: "1100",
	RoleAccountsPayable:    "2100",
	RoleOutputVAT:          "2610",
	RoleSales:              "4000",
	RoleOperatingExpenses:  "5300",
	RoleInputVAT:           "5710",
}

// SystemRoles lists the roles that must resolve before any posting can run.
func SystemRoles() []Role {
	return []Role{
		RoleBank,
		RoleAccountsReceivable,
		RoleAccountsPayable,
		RoleOutputVAT,
		RoleInputVAT,
		RoleSales,
		RoleOperatingExpenses,
	}
}

// CodeForRole returns the chart code a role resolves through.
func CodeForRole(role Role) (string, bool) {
	code, ok := roleCodes[role]
	return code, ok
}
