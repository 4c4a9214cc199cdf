package menu

import (
	"log"
	"strings"

	"github.com/nina031/MenuScanner-backend/internal/errs"
)

const (
	// Coverage thresholds below which a quality warning is logged.
	PriceCoverageThreshold       = 0.5
	DescriptionCoverageThreshold = 0.3
)

// Validate rejects structurally unusable menus: no sections at all, or
// sections with zero items in total. Both are hard failures.
func Validate(m *Menu) error {
	if m == nil || len(m.Sections) == 0 {
		return errs.LLM(errs.CodeNoMenuSections, "aucune section détectée dans le menu")
	}
	if m.TotalItems() == 0 {
		return errs.LLM(errs.CodeNoMenuItems, "aucun item dans les sections du menu")
	}
	return nil
}

// Coverage stats over the assembled menu, used as a non-blocking quality
// signal.
type Coverage struct {
	Price       float64
	Description float64
}

// ComputeCoverage returns the fraction of items with a usable price and with
// a substantive description. Empty menus report zero coverage.
func ComputeCoverage(m *Menu) Coverage {
	total := m.TotalItems()
	if total == 0 {
		return Coverage{}
	}

	withPrice := 0
	withDescription := 0
	for _, s := range m.Sections {
		for _, it := range s.Items {
			if it.Price.Value > 0 {
				withPrice++
			}
			if len(strings.TrimSpace(it.Description)) >= 10 {
				withDescription++
			}
		}
	}

	return Coverage{
		Price:       float64(withPrice) / float64(total),
		Description: float64(withDescription) / float64(total),
	}
}

// LogCoverageWarnings logs diagnostics when coverage falls below the
// thresholds. Never blocks completion.
func LogCoverageWarnings(scanID string, m *Menu) {
	cov := ComputeCoverage(m)
	if cov.Price < PriceCoverageThreshold {
		log.Printf("LOW_PRICE_COVERAGE scan_id=%s coverage=%.2f threshold=%.2f",
			scanID, cov.Price, PriceCoverageThreshold)
	}
	if cov.Description < DescriptionCoverageThreshold {
		log.Printf("LOW_DESCRIPTION_COVERAGE scan_id=%s coverage=%.2f threshold=%.2f",
			scanID, cov.Description, DescriptionCoverageThreshold)
	}
}
