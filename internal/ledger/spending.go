package ledger

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"example.com/fintrack/backend/internal/models"
)

// OtherSubCategoryName задает синтетическую подкатегорию для трат без
// подкатегории, отдельную внутри каждой категории.
const OtherSubCategoryName = "Other"

// SpendingEntry описывает одну расходную транзакцию, подготовленную
// хранилищем (доходы исключаются до вызова).
type SpendingEntry struct {
	Amount          decimal.Decimal
	CategoryID      uuid.UUID
	CategoryName    string
	SubCategoryID   *uuid.UUID
	SubCategoryName *string
}

type SubCategorySpend struct {
	SubCategoryID *uuid.UUID      `json:"sub_category_id,omitempty"`
	Name          string          `json:"name"`
	Amount        decimal.Decimal `json:"amount"`
	Percentage    decimal.Decimal `json:"percentage"`
}

type CategorySpend struct {
	CategoryID    uuid.UUID          `json:"category_id"`
	Name          string             `json:"name"`
	Amount        decimal.Decimal    `json:"amount"`
	Percentage    decimal.Decimal    `json:"percentage"`
	SubCategories []SubCategorySpend `json:"sub_categories"`
}

type SpendingBreakdown struct {
	Total      decimal.Decimal `json:"total"`
	Categories []CategorySpend `json:"categories"`
}

// BuildSpendingBreakdown группирует траты по категориям и подкатегориям.
// Процент категории считается от общего итога, подкатегории от итога
// категории; при нулевом родительском итоге процент равен 0.
func BuildSpendingBreakdown(entries []SpendingEntry) SpendingBreakdown {
	type subKey struct {
		id    uuid.UUID
		isNil bool
	}

	type subAgg struct {
		spend SubCategorySpend
	}

	type categoryAgg struct {
		spend CategorySpend
		subs  map[subKey]*subAgg
	}

	total := decimal.Zero
	categories := make(map[uuid.UUID]*categoryAgg)

	for _, entry := range entries {
		total = total.Add(entry.Amount)

		agg, ok := categories[entry.CategoryID]
		if !ok {
			agg = &categoryAgg{
				spend: CategorySpend{CategoryID: entry.CategoryID, Name: entry.CategoryName},
				subs:  make(map[subKey]*subAgg),
			}
			categories[entry.CategoryID] = agg
		}
		agg.spend.Amount = agg.spend.Amount.Add(entry.Amount)

		key := subKey{isNil: entry.SubCategoryID == nil}
		name := OtherSubCategoryName
		var subID *uuid.UUID
		if entry.SubCategoryID != nil {
			key.id = *entry.SubCategoryID
			subID = entry.SubCategoryID
			if entry.SubCategoryName != nil {
				name = *entry.SubCategoryName
			}
		}

		sub, ok := agg.subs[key]
		if !ok {
			sub = &subAgg{spend: SubCategorySpend{SubCategoryID: subID, Name: name}}
			agg.subs[key] = sub
		}
		sub.spend.Amount = sub.spend.Amount.Add(entry.Amount)
	}

	result := SpendingBreakdown{
		Total:      total.Round(2),
		Categories: make([]CategorySpend, 0, len(categories)),
	}

	for _, agg := range categories {
		agg.spend.Percentage = percentage(agg.spend.Amount, total)

		subs := make([]SubCategorySpend, 0, len(agg.subs))
		for _, sub := range agg.subs {
			sub.spend.Percentage = percentage(sub.spend.Amount, agg.spend.Amount)
			sub.spend.Amount = sub.spend.Amount.Round(2)
			subs = append(subs, sub.spend)
		}
		sortSubCategories(subs)

		agg.spend.Amount = agg.spend.Amount.Round(2)
		agg.spend.SubCategories = subs
		result.Categories = append(result.Categories, agg.spend)
	}

	sort.SliceStable(result.Categories, func(i, j int) bool {
		a, b := result.Categories[i], result.Categories[j]
		if !a.Amount.Equal(b.Amount) {
			return a.Amount.GreaterThan(b.Amount)
		}
		return a.Name < b.Name
	})

	return result
}

// percentage = round(amount/total*10000)/100, 0 при нулевом итоге.
func percentage(amount, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return amount.Div(total).Mul(decimal.NewFromInt(100)).Round(2)
}

func sortSubCategories(subs []SubCategorySpend) {
	sort.SliceStable(subs, func(i, j int) bool {
		a, b := subs[i], subs[j]
		if !a.Amount.Equal(b.Amount) {
			return a.Amount.GreaterThan(b.Amount)
		}
		return a.Name < b.Name
	})
}

type TransactionGroup struct {
	Date         string               `json:"date"`
	Transactions []models.Transaction `json:"transactions"`
}

// GroupTransactionsByDate группирует транзакции по календарной дате.
// Порядок групп задается sortOrder ("asc"/"desc", по умолчанию desc);
// внутри группы всегда новые первыми по времени создания.
func GroupTransactionsByDate(transactions []models.Transaction, sortOrder string) []TransactionGroup {
	groups := make(map[string][]models.Transaction)
	for _, t := range transactions {
		key := t.TransactionDate.Format("2006-01-02")
		groups[key] = append(groups[key], t)
	}

	dates := make([]string, 0, len(groups))
	for date := range groups {
		dates = append(dates, date)
	}

	if sortOrder == "asc" {
		sort.Strings(dates)
	} else {
		sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	}

	result := make([]TransactionGroup, 0, len(dates))
	for _, date := range dates {
		group := groups[date]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].CreatedAt.After(group[j].CreatedAt)
		})
		result = append(result, TransactionGroup{Date: date, Transactions: group})
	}

	return result
}
