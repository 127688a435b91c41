package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AccountType string

type CategoryType string

type TransactionType string

type BudgetItemType string

type AssetType string

type LiabilityType string

const (
	AccountTypeCash       AccountType = "cash"
	AccountTypeBank       AccountType = "bank"
	AccountTypeCreditCard AccountType = "credit_card"

	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeNeeds   CategoryType = "needs"
	CategoryTypeWants   CategoryType = "wants"
	CategoryTypeSavings CategoryType = "savings"

	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"

	BudgetItemTypeLimit   BudgetItemType = "limit"
	BudgetItemTypePayment BudgetItemType = "payment"

	AssetTypeInvestment   AssetType = "investment"
	AssetTypeFixedDeposit AssetType = "fixed_deposit"
	AssetTypeRetirement   AssetType = "retirement"

	LiabilityTypeHomeLoan     LiabilityType = "home_loan"
	LiabilityTypePersonalLoan LiabilityType = "personal_loan"
	LiabilityTypeOther        LiabilityType = "other"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         *string   `json:"name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type RefreshToken struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	TokenHash  string     `json:"-"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	ReplacedBy *uuid.UUID `json:"replaced_by,omitempty"`
}

type Account struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	Name       string          `json:"name"`
	Type       AccountType     `json:"type"`
	Balance    decimal.Decimal `json:"balance"`
	IsDefault  bool            `json:"is_default"`
	IsArchived bool            `json:"is_archived"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type Category struct {
	ID         uuid.UUID    `json:"id"`
	UserID     uuid.UUID    `json:"user_id"`
	Name       string       `json:"name"`
	Type       CategoryType `json:"type"`
	SortOrder  int          `json:"sort_order"`
	IsArchived bool         `json:"is_archived"`
	CreatedAt  time.Time    `json:"created_at"`
}

type SubCategory struct {
	ID         uuid.UUID `json:"id"`
	CategoryID uuid.UUID `json:"category_id"`
	Name       string    `json:"name"`
	SortOrder  int       `json:"sort_order"`
	IsArchived bool      `json:"is_archived"`
	CreatedAt  time.Time `json:"created_at"`
}

// Transaction is a ledger fact: once written it is only touched by its
// owning CRUD surface, never by reconciliation.
type Transaction struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	Type            TransactionType `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	CategoryID      uuid.UUID       `json:"category_id"`
	SubCategoryID   *uuid.UUID      `json:"sub_category_id,omitempty"`
	AccountID       *uuid.UUID      `json:"account_id,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
	Description     string          `json:"description"`
	Notes           *string         `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

type RecurringBill struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	Name          string          `json:"name"`
	Amount        decimal.Decimal `json:"amount"`
	CategoryID    *uuid.UUID      `json:"category_id,omitempty"`
	SubCategoryID *uuid.UUID      `json:"sub_category_id,omitempty"`
	AccountID     *uuid.UUID      `json:"account_id,omitempty"`
	DueDay        int             `json:"due_day"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// BillPayment tracks the paid state of one bill for one (month, year).
// Unique per (bill_id, month, year); TransactionID is set only once paid.
type BillPayment struct {
	ID            uuid.UUID        `json:"id"`
	BillID        uuid.UUID        `json:"bill_id"`
	Month         int              `json:"month"`
	Year          int              `json:"year"`
	IsPaid        bool             `json:"is_paid"`
	PaidDate      *time.Time       `json:"paid_date,omitempty"`
	PaidAmount    *decimal.Decimal `json:"paid_amount,omitempty"`
	AccountID     *uuid.UUID       `json:"account_id,omitempty"`
	TransactionID *uuid.UUID       `json:"transaction_id,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

type MonthlyBudget struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Month     int       `json:"month"`
	Year      int       `json:"year"`
	CreatedAt time.Time `json:"created_at"`
}

type BudgetItem struct {
	ID            uuid.UUID        `json:"id"`
	UserID        uuid.UUID        `json:"user_id"`
	BudgetID      uuid.UUID        `json:"budget_id"`
	ItemType      BudgetItemType   `json:"item_type"`
	CategoryID    *uuid.UUID       `json:"category_id,omitempty"`
	SubCategoryID *uuid.UUID       `json:"sub_category_id,omitempty"`
	Name          string           `json:"name"`
	Amount        decimal.Decimal  `json:"amount"`
	IsPaid        bool             `json:"is_paid"`
	PaidDate      *time.Time       `json:"paid_date,omitempty"`
	PaidAmount    *decimal.Decimal `json:"paid_amount,omitempty"`
	AccountID     *uuid.UUID       `json:"account_id,omitempty"`
	TransactionID *uuid.UUID       `json:"transaction_id,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

type Asset struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	Name          string          `json:"name"`
	Type          AssetType       `json:"type"`
	Subtype       *string         `json:"subtype,omitempty"`
	CurrentValue  decimal.Decimal `json:"current_value"`
	PurchaseValue decimal.Decimal `json:"purchase_value"`
	IsArchived    bool            `json:"is_archived"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type Liability struct {
	ID                 uuid.UUID       `json:"id"`
	UserID             uuid.UUID       `json:"user_id"`
	Name               string          `json:"name"`
	Type               LiabilityType   `json:"type"`
	PrincipalAmount    decimal.Decimal `json:"principal_amount"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	InterestRate       decimal.Decimal `json:"interest_rate"`
	IsArchived         bool            `json:"is_archived"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

type LiabilityPayment struct {
	ID          uuid.UUID       `json:"id"`
	LiabilityID uuid.UUID       `json:"liability_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaidDate    time.Time       `json:"paid_date"`
	Notes       *string         `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NetworthSnapshot is append-only; later account/asset/liability changes
// never touch a stored row.
type NetworthSnapshot struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	SnapshotDate     time.Time       `json:"snapshot_date"`
	TotalAssets      decimal.Decimal `json:"total_assets"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
	NetWorth         decimal.Decimal `json:"net_worth"`
	Breakdown        json.RawMessage `json:"breakdown"`
	CreatedAt        time.Time       `json:"created_at"`
}
