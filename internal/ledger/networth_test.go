package ledger

import (
	"testing"

	"github.com/shopspring/decimal"

	"example.com/fintrack/backend/internal/models"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

// TestComputeNetWorthExample проверяет базовый сценарий расчета капитала.
func TestComputeNetWorthExample(t *testing.T) {
	accounts := []models.Account{
		{Type: models.AccountTypeBank, Balance: dec("1000")},
		{Type: models.AccountTypeCash, Balance: dec("200")},
	}
	assets := []models.Asset{
		{Type: models.AssetTypeInvestment, CurrentValue: dec("5000")},
	}
	liabilities := []models.Liability{
		{Type: models.LiabilityTypeHomeLoan, OutstandingBalance: dec("3000")},
	}

	got := ComputeNetWorth(accounts, assets, liabilities)

	if !got.TotalAssets.Equal(dec("6200")) {
		t.Fatalf("expected total assets 6200, got %s", got.TotalAssets)
	}
	if !got.TotalLiabilities.Equal(dec("3000")) {
		t.Fatalf("expected total liabilities 3000, got %s", got.TotalLiabilities)
	}
	if !got.NetWorth.Equal(dec("3200")) {
		t.Fatalf("expected net worth 3200, got %s", got.NetWorth)
	}
}

// TestComputeNetWorthCreditCardAsymmetry проверяет классификацию кредитных карт.
func TestComputeNetWorthCreditCardAsymmetry(t *testing.T) {
	negative := ComputeNetWorth([]models.Account{
		{Type: models.AccountTypeCreditCard, Balance: dec("-500")},
	}, nil, nil)

	if !negative.Breakdown.CreditCards.Equal(dec("500")) {
		t.Fatalf("expected creditCards 500, got %s", negative.Breakdown.CreditCards)
	}
	if !negative.Breakdown.BankAccounts.IsZero() {
		t.Fatalf("expected bankAccounts 0, got %s", negative.Breakdown.BankAccounts)
	}

	positive := ComputeNetWorth([]models.Account{
		{Type: models.AccountTypeCreditCard, Balance: dec("200")},
	}, nil, nil)

	if !positive.Breakdown.BankAccounts.Equal(dec("200")) {
		t.Fatalf("expected bankAccounts 200, got %s", positive.Breakdown.BankAccounts)
	}
	if !positive.Breakdown.CreditCards.IsZero() {
		t.Fatalf("expected creditCards 0, got %s", positive.Breakdown.CreditCards)
	}

	zero := ComputeNetWorth([]models.Account{
		{Type: models.AccountTypeCreditCard, Balance: decimal.Zero},
	}, nil, nil)

	if !zero.Breakdown.BankAccounts.IsZero() || !zero.Breakdown.CreditCards.IsZero() {
		t.Fatal("expected zero balance to contribute to neither bucket")
	}
}

// TestComputeNetWorthSkipsArchived проверяет исключение архивных записей.
func TestComputeNetWorthSkipsArchived(t *testing.T) {
	got := ComputeNetWorth(
		[]models.Account{
			{Type: models.AccountTypeBank, Balance: dec("1000")},
			{Type: models.AccountTypeBank, Balance: dec("9999"), IsArchived: true},
		},
		[]models.Asset{
			{Type: models.AssetTypeRetirement, CurrentValue: dec("500"), IsArchived: true},
		},
		[]models.Liability{
			{Type: models.LiabilityTypeOther, OutstandingBalance: dec("700"), IsArchived: true},
		},
	)

	if !got.TotalAssets.Equal(dec("1000")) {
		t.Fatalf("expected total assets 1000, got %s", got.TotalAssets)
	}
	if !got.TotalLiabilities.IsZero() {
		t.Fatalf("expected total liabilities 0, got %s", got.TotalLiabilities)
	}
}

// TestComputeNetWorthBucketsConsistent проверяет согласованность итогов и корзин.
func TestComputeNetWorthBucketsConsistent(t *testing.T) {
	got := ComputeNetWorth(
		[]models.Account{
			{Type: models.AccountTypeBank, Balance: dec("1500.55")},
			{Type: models.AccountTypeCash, Balance: dec("99.45")},
			{Type: models.AccountTypeCreditCard, Balance: dec("-250.10")},
		},
		[]models.Asset{
			{Type: models.AssetTypeFixedDeposit, CurrentValue: dec("10000")},
			{Type: models.AssetTypeRetirement, CurrentValue: dec("2500.25")},
		},
		[]models.Liability{
			{Type: models.LiabilityTypeHomeLoan, OutstandingBalance: dec("120000")},
			{Type: models.LiabilityTypePersonalLoan, OutstandingBalance: dec("4000.40")},
		},
	)

	if !got.NetWorth.Equal(got.TotalAssets.Sub(got.TotalLiabilities)) {
		t.Fatalf("net worth %s != assets %s - liabilities %s", got.NetWorth, got.TotalAssets, got.TotalLiabilities)
	}

	assetSum := decimal.Zero
	for _, bucket := range got.AssetsByType {
		assetSum = assetSum.Add(bucket.Value)
	}
	if !assetSum.Equal(got.TotalAssets) {
		t.Fatalf("asset buckets sum %s != total assets %s", assetSum, got.TotalAssets)
	}

	liabilitySum := decimal.Zero
	for _, bucket := range got.LiabilitiesByType {
		liabilitySum = liabilitySum.Add(bucket.Value)
	}
	if !liabilitySum.Equal(got.TotalLiabilities) {
		t.Fatalf("liability buckets sum %s != total liabilities %s", liabilitySum, got.TotalLiabilities)
	}
}

// TestComputeNetWorthOmitsZeroBuckets проверяет фильтрацию нулевых корзин в графиках.
func TestComputeNetWorthOmitsZeroBuckets(t *testing.T) {
	got := ComputeNetWorth([]models.Account{
		{Type: models.AccountTypeBank, Balance: dec("100")},
	}, nil, nil)

	if len(got.AssetsByType) != 1 || got.AssetsByType[0].Name != BucketBankAccounts {
		t.Fatalf("expected single bankAccounts bucket, got %v", got.AssetsByType)
	}
	if len(got.LiabilitiesByType) != 0 {
		t.Fatalf("expected no liability buckets, got %v", got.LiabilitiesByType)
	}

	// В сырой разбивке нулевые корзины присутствуют всегда.
	if !got.Breakdown.Cash.IsZero() || !got.Breakdown.Loans.IsZero() {
		t.Fatal("expected raw breakdown to carry zero buckets")
	}
}
