package schedule

import (
	"errors"
	"testing"

	"github.com/dojoware/collect/internal/ledger"
)

func validSchedule() *Schedule {
	return &Schedule{
		Name:       "Monthly dues",
		DayOfMonth: 1,
		TimeOfDay:  "06:00",
		Categories: Categories{ledger.CategoryDues},
	}
}

func TestValidate(t *testing.T) {
	if err := validate(validSchedule()); err != nil {
		t.Fatalf("valid schedule rejected: %v", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Schedule)
	}{
		{"empty name", func(s *Schedule) { s.Name = "" }},
		{"day zero", func(s *Schedule) { s.DayOfMonth = 0 }},
		{"day 29", func(s *Schedule) { s.DayOfMonth = 29 }},
		{"bad time", func(s *Schedule) { s.TimeOfDay = "6am" }},
		{"out of range time", func(s *Schedule) { s.TimeOfDay = "25:00" }},
		{"no categories", func(s *Schedule) { s.Categories = nil }},
		{"unknown category", func(s *Schedule) { s.Categories = Categories{"REFUNDS"} }},
		{"duplicate category", func(s *Schedule) {
			s.Categories = Categories{ledger.CategoryDues, ledger.CategoryDues}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sched := validSchedule()
			tc.mutate(sched)
			if err := validate(sched); !errors.Is(err, ErrInvalidSchedule) {
				t.Fatalf("expected ErrInvalidSchedule, got %v", err)
			}
		})
	}
}

func TestCategoriesValueScan(t *testing.T) {
	categories := Categories{ledger.CategoryDues, ledger.CategorySales}
	value, err := categories.Value()
	if err != nil {
		t.Fatalf("Value error: %v", err)
	}

	var scanned Categories
	if err := scanned.Scan(value); err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(scanned) != 2 || scanned[0] != ledger.CategoryDues || scanned[1] != ledger.CategorySales {
		t.Fatalf("round trip mismatch: %v", scanned)
	}
}

func TestCategoriesScan_UnknownCategory(t *testing.T) {
	var scanned Categories
	if err := scanned.Scan("{DUES,REFUNDS}"); err == nil {
		t.Fatal("expected an error for an unknown category")
	}
}
