package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"example.com/fintrack/backend/internal/models"
)

// TestBuildSpendingBreakdown проверяет группировку и проценты.
func TestBuildSpendingBreakdown(t *testing.T) {
	foodID := uuid.New()
	transportID := uuid.New()
	groceriesID := uuid.New()
	groceries := "Groceries"

	entries := []SpendingEntry{
		{Amount: dec("300"), CategoryID: foodID, CategoryName: "Food", SubCategoryID: &groceriesID, SubCategoryName: &groceries},
		{Amount: dec("100"), CategoryID: foodID, CategoryName: "Food"},
		{Amount: dec("100"), CategoryID: transportID, CategoryName: "Transport"},
	}

	got := BuildSpendingBreakdown(entries)

	if !got.Total.Equal(dec("500")) {
		t.Fatalf("expected total 500, got %s", got.Total)
	}
	if len(got.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(got.Categories))
	}

	food := got.Categories[0]
	if food.Name != "Food" || !food.Amount.Equal(dec("400")) {
		t.Fatalf("expected Food 400 first, got %s %s", food.Name, food.Amount)
	}
	if !food.Percentage.Equal(dec("80")) {
		t.Fatalf("expected Food percentage 80, got %s", food.Percentage)
	}

	if len(food.SubCategories) != 2 {
		t.Fatalf("expected 2 subcategories, got %d", len(food.SubCategories))
	}
	if food.SubCategories[0].Name != "Groceries" || !food.SubCategories[0].Percentage.Equal(dec("75")) {
		t.Fatalf("unexpected first subcategory: %+v", food.SubCategories[0])
	}
	if food.SubCategories[1].Name != OtherSubCategoryName || !food.SubCategories[1].Percentage.Equal(dec("25")) {
		t.Fatalf("unexpected synthetic subcategory: %+v", food.SubCategories[1])
	}
}

// TestBuildSpendingBreakdownZeroTotal проверяет отсутствие деления на ноль.
func TestBuildSpendingBreakdownZeroTotal(t *testing.T) {
	got := BuildSpendingBreakdown(nil)

	if !got.Total.IsZero() {
		t.Fatalf("expected total 0, got %s", got.Total)
	}
	if len(got.Categories) != 0 {
		t.Fatalf("expected no categories, got %d", len(got.Categories))
	}

	categoryID := uuid.New()
	got = BuildSpendingBreakdown([]SpendingEntry{
		{Amount: decimal.Zero, CategoryID: categoryID, CategoryName: "Empty"},
	})

	if !got.Categories[0].Percentage.IsZero() {
		t.Fatalf("expected percentage 0 on zero total, got %s", got.Categories[0].Percentage)
	}
}

// TestBuildSpendingBreakdownRounding проверяет округление процентов до 2 знаков.
func TestBuildSpendingBreakdownRounding(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	got := BuildSpendingBreakdown([]SpendingEntry{
		{Amount: dec("1"), CategoryID: a, CategoryName: "A"},
		{Amount: dec("1"), CategoryID: b, CategoryName: "B"},
		{Amount: dec("1"), CategoryID: c, CategoryName: "C"},
	})

	// 1/3 => 33.33 после округления.
	for _, category := range got.Categories {
		if !category.Percentage.Equal(dec("33.33")) {
			t.Fatalf("expected 33.33, got %s", category.Percentage)
		}
	}
}

// TestGroupTransactionsByDate проверяет порядок групп и порядок внутри группы.
func TestGroupTransactionsByDate(t *testing.T) {
	day3 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	day5 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	older := models.Transaction{ID: uuid.New(), TransactionDate: day5, CreatedAt: time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)}
	newer := models.Transaction{ID: uuid.New(), TransactionDate: day5, CreatedAt: time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)}
	third := models.Transaction{ID: uuid.New(), TransactionDate: day3, CreatedAt: time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)}

	groups := GroupTransactionsByDate([]models.Transaction{older, third, newer}, "desc")

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Date != "2024-01-05" || groups[1].Date != "2024-01-03" {
		t.Fatalf("unexpected desc order: %s, %s", groups[0].Date, groups[1].Date)
	}

	// Внутри даты свежие по времени создания первыми независимо от sortOrder.
	if groups[0].Transactions[0].ID != newer.ID {
		t.Fatal("expected most recently created transaction first within group")
	}

	groups = GroupTransactionsByDate([]models.Transaction{older, third, newer}, "asc")
	if groups[0].Date != "2024-01-03" || groups[1].Date != "2024-01-05" {
		t.Fatalf("unexpected asc order: %s, %s", groups[0].Date, groups[1].Date)
	}
	if groups[1].Transactions[0].ID != newer.ID {
		t.Fatal("expected creation-time tie-break to ignore sortOrder")
	}
}
