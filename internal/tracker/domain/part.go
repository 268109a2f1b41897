package domain

import (
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/qjcoder/sunlife-lab-system-sub003/internal/platform/errors"
)

// PartLine is one line of a factory part dispatch: a part code, its display
// name, a quantity, and the unit cost used for claim bookkeeping.
type PartLine struct {
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Qty      int             `json:"qty"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// Validate checks the line carries a code and a positive quantity.
func (l PartLine) Validate() error {
	if strings.TrimSpace(l.Code) == "" {
		return apperrors.New(apperrors.CodePartDispatchMissingPart, "part code is required")
	}
	if l.Qty <= 0 {
		return apperrors.WithMetadata(apperrors.CodePartDispatchInvalidQty, "part quantity must be positive", map[string]string{
			"code": l.Code,
		})
	}
	if l.UnitCost.IsNegative() {
		return apperrors.WithMetadata(apperrors.CodePartDispatchInvalidQty, "part unit cost must not be negative", map[string]string{
			"code": l.Code,
		})
	}
	return nil
}

// ReplacementKind distinguishes stock-consuming replacements from repairs.
type ReplacementKind string

const (
	// KindReplacement consumes part stock at the service center.
	KindReplacement ReplacementKind = "REPLACEMENT"
	// KindRepair reuses the existing part and never affects stock.
	KindRepair ReplacementKind = "REPAIR"
)

// ParseReplacementKind validates a caller-supplied kind label.
func ParseReplacementKind(value string) (ReplacementKind, error) {
	switch ReplacementKind(strings.ToUpper(strings.TrimSpace(value))) {
	case KindReplacement:
		return KindReplacement, nil
	case KindRepair:
		return KindRepair, nil
	default:
		return "", apperrors.WithMetadata(apperrors.CodeReplacementInvalidKind, "replacement kind must be REPLACEMENT or REPAIR", map[string]string{
			"kind": value,
		})
	}
}

// CostLiability names who bears a replacement's cost.
type CostLiability string

const (
	// LiabilityFactory applies while the parts warranty is valid.
	LiabilityFactory CostLiability = "FACTORY"
	// LiabilityCustomer applies after the parts warranty lapses.
	LiabilityCustomer CostLiability = "CUSTOMER"
)
