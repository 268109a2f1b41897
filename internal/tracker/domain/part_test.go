package domain

import (
	"testing"

	"github.com/shopspring/decimal"

	apperrors "github.com/qjcoder/sunlife-lab-system-sub003/internal/platform/errors"
)

func TestPartLineValidate(t *testing.T) {
	cases := []struct {
		name string
		line PartLine
		code apperrors.Code
	}{
		{
			name: "valid",
			line: PartLine{Code: "P-100", Name: "Compressor", Qty: 2, UnitCost: decimal.NewFromInt(40)},
		},
		{
			name: "missing code",
			line: PartLine{Qty: 1},
			code: apperrors.CodePartDispatchMissingPart,
		},
		{
			name: "zero qty",
			line: PartLine{Code: "P-100"},
			code: apperrors.CodePartDispatchInvalidQty,
		},
		{
			name: "negative cost",
			line: PartLine{Code: "P-100", Qty: 1, UnitCost: decimal.NewFromInt(-1)},
			code: apperrors.CodePartDispatchInvalidQty,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.line.Validate()
			if tc.code == "" {
				if err != nil {
					t.Fatalf("expected valid line, got %v", err)
				}
				return
			}
			domainErr := apperrors.AsError(err)
			if domainErr == nil || domainErr.Code != tc.code {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestParseReplacementKindNormalizesCase(t *testing.T) {
	kind, err := ParseReplacementKind(" repair ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if kind != KindRepair {
		t.Fatalf("expected REPAIR, got %s", kind)
	}

	if _, err := ParseReplacementKind("upgrade"); err == nil {
		t.Fatal("expected unknown kind to be rejected")
	}
}
