package menu

import (
	"testing"

	"github.com/nina031/MenuScanner-backend/internal/errs"
)

func menuWith(sections ...Section) *Menu {
	return &Menu{Name: "Chez Test", Sections: sections}
}

func TestValidateAcceptsPopulatedMenu(t *testing.T) {
	m := menuWith(Section{Name: "PLATS", Items: []Item{{Name: "Poulet"}}})
	if err := Validate(m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsNoSections(t *testing.T) {
	err := Validate(menuWith())
	assertCode(t, err, errs.CodeNoMenuSections)

	err = Validate(nil)
	assertCode(t, err, errs.CodeNoMenuSections)
}

func TestValidateRejectsEmptySections(t *testing.T) {
	m := menuWith(Section{Name: "ENTREES"}, Section{Name: "PLATS"})
	err := Validate(m)
	assertCode(t, err, errs.CodeNoMenuItems)
}

func TestComputeCoverage(t *testing.T) {
	m := menuWith(Section{Name: "PLATS", Items: []Item{
		{Name: "Poulet", Price: Price{Value: 15, Currency: "€"}, Description: "Poulet fermier rôti"},
		{Name: "Salade", Price: Price{Value: 0, Currency: "€"}},
		{Name: "Frites", Price: Price{Value: 4, Currency: "€"}, Description: "ok"},
		{Name: "Soupe"},
	}})

	cov := ComputeCoverage(m)
	if cov.Price != 0.5 {
		t.Fatalf("expected price coverage 0.5, got %.2f", cov.Price)
	}
	if cov.Description != 0.25 {
		t.Fatalf("expected description coverage 0.25, got %.2f", cov.Description)
	}
}

func TestComputeCoverageEmptyMenu(t *testing.T) {
	cov := ComputeCoverage(menuWith(Section{Name: "PLATS"}))
	if cov.Price != 0 || cov.Description != 0 {
		t.Fatalf("expected zero coverage, got %+v", cov)
	}
}

func TestTotalItems(t *testing.T) {
	m := menuWith(
		Section{Name: "ENTREES", Items: []Item{{Name: "Salade"}}},
		Section{Name: "PLATS", Items: []Item{{Name: "Poulet"}, {Name: "Pizza"}}},
	)
	if got := m.TotalItems(); got != 3 {
		t.Fatalf("expected 3 items, got %d", got)
	}
}
