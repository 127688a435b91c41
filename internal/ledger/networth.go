// Package ledger содержит чистую расчетную логику поверх данных леджера:
// агрегацию капитала и разбивки трат. Пакет не ходит в базу: все входы
// передаются явно, округление применяется один раз на границе представления.
package ledger

import (
	"github.com/shopspring/decimal"

	"example.com/fintrack/backend/internal/models"
)

const (
	BucketBankAccounts  = "bankAccounts"
	BucketCash          = "cash"
	BucketInvestments   = "investments"
	BucketFixedDeposits = "fixedDeposits"
	BucketRetirement    = "retirement"
	BucketCreditCards   = "creditCards"
	BucketLoans         = "loans"
)

// Breakdown содержит сырые корзины; нулевые значения всегда присутствуют.
type Breakdown struct {
	BankAccounts  decimal.Decimal `json:"bankAccounts"`
	Cash          decimal.Decimal `json:"cash"`
	Investments   decimal.Decimal `json:"investments"`
	FixedDeposits decimal.Decimal `json:"fixedDeposits"`
	Retirement    decimal.Decimal `json:"retirement"`
	CreditCards   decimal.Decimal `json:"creditCards"`
	Loans         decimal.Decimal `json:"loans"`
}

type Bucket struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

type NetWorth struct {
	TotalAssets       decimal.Decimal `json:"totalAssets"`
	TotalLiabilities  decimal.Decimal `json:"totalLiabilities"`
	NetWorth          decimal.Decimal `json:"netWorth"`
	Breakdown         Breakdown       `json:"breakdown"`
	AssetsByType      []Bucket        `json:"assetsByType"`
	LiabilitiesByType []Bucket        `json:"liabilitiesByType"`
}

// ComputeNetWorth классифицирует текущие счета, активы и обязательства
// в корзины и считает итоги. Архивные записи игнорируются. Кредитная карта
// с отрицательным балансом попадает в creditCards как долг, с неотрицательным
// в bankAccounts как предоплата. Округление до 2 знаков только на выходе.
func ComputeNetWorth(accounts []models.Account, assets []models.Asset, liabilities []models.Liability) NetWorth {
	var b Breakdown

	for _, account := range accounts {
		if account.IsArchived {
			continue
		}

		switch account.Type {
		case models.AccountTypeBank:
			b.BankAccounts = b.BankAccounts.Add(account.Balance)
		case models.AccountTypeCash:
			b.Cash = b.Cash.Add(account.Balance)
		case models.AccountTypeCreditCard:
			if account.Balance.IsNegative() {
				b.CreditCards = b.CreditCards.Add(account.Balance.Abs())
			} else {
				b.BankAccounts = b.BankAccounts.Add(account.Balance)
			}
		}
	}

	for _, asset := range assets {
		if asset.IsArchived {
			continue
		}

		switch asset.Type {
		case models.AssetTypeInvestment:
			b.Investments = b.Investments.Add(asset.CurrentValue)
		case models.AssetTypeFixedDeposit:
			b.FixedDeposits = b.FixedDeposits.Add(asset.CurrentValue)
		case models.AssetTypeRetirement:
			b.Retirement = b.Retirement.Add(asset.CurrentValue)
		}
	}

	for _, liability := range liabilities {
		if liability.IsArchived {
			continue
		}
		// Тип обязательства влияет только на графики, не на итоги.
		b.Loans = b.Loans.Add(liability.OutstandingBalance)
	}

	totalAssets := b.BankAccounts.Add(b.Cash).Add(b.Investments).Add(b.FixedDeposits).Add(b.Retirement)
	totalLiabilities := b.CreditCards.Add(b.Loans)

	b.BankAccounts = b.BankAccounts.Round(2)
	b.Cash = b.Cash.Round(2)
	b.Investments = b.Investments.Round(2)
	b.FixedDeposits = b.FixedDeposits.Round(2)
	b.Retirement = b.Retirement.Round(2)
	b.CreditCards = b.CreditCards.Round(2)
	b.Loans = b.Loans.Round(2)

	assetBuckets := nonZeroBuckets([]Bucket{
		{Name: BucketBankAccounts, Value: b.BankAccounts},
		{Name: BucketCash, Value: b.Cash},
		{Name: BucketInvestments, Value: b.Investments},
		{Name: BucketFixedDeposits, Value: b.FixedDeposits},
		{Name: BucketRetirement, Value: b.Retirement},
	})
	liabilityBuckets := nonZeroBuckets([]Bucket{
		{Name: BucketCreditCards, Value: b.CreditCards},
		{Name: BucketLoans, Value: b.Loans},
	})

	return NetWorth{
		TotalAssets:       totalAssets.Round(2),
		TotalLiabilities:  totalLiabilities.Round(2),
		NetWorth:          totalAssets.Sub(totalLiabilities).Round(2),
		Breakdown:         b,
		AssetsByType:      assetBuckets,
		LiabilitiesByType: liabilityBuckets,
	}
}

func nonZeroBuckets(buckets []Bucket) []Bucket {
	result := make([]Bucket, 0, len(buckets))
	for _, bucket := range buckets {
		if !bucket.Value.IsZero() {
			result = append(result, bucket)
		}
	}
	return result
}
