package domain

import (
	"fmt"
	"strings"

	apperrors "github.com/qjcoder/sunlife-lab-system-sub003/internal/platform/errors"
)

// HolderKind names the class of party that can hold a unit or receive parts.
type HolderKind string

const (
	// HolderFactory is the manufacturer itself.
	HolderFactory HolderKind = "factory"
	// HolderDealer is a first-tier distribution partner.
	HolderDealer HolderKind = "dealer"
	// HolderSubDealer is a second-tier partner supplied by a dealer.
	HolderSubDealer HolderKind = "subdealer"
	// HolderCustomer is the end buyer after a sale.
	HolderCustomer HolderKind = "customer"
	// HolderServiceCenter receives part dispatches and runs service visits.
	HolderServiceCenter HolderKind = "service_center"
)

// HolderRef is a typed, opaque ownership reference.
//
// It replaces free-text holder names so renames or typos cannot silently
// detach a unit from its custodian. The ID is resolved by the identity
// collaborator; the core never interprets it.
type HolderRef struct {
	Kind HolderKind `json:"kind"`
	ID   string     `json:"id"`
}

// Factory is the well-known reference for the manufacturer.
func Factory() HolderRef {
	return HolderRef{Kind: HolderFactory, ID: "factory"}
}

// IsZero reports whether the reference is unset.
func (h HolderRef) IsZero() bool {
	return h.Kind == "" && h.ID == ""
}

// Equal reports whether two references name the same party.
func (h HolderRef) Equal(other HolderRef) bool {
	return h.Kind == other.Kind && h.ID == other.ID
}

// String renders the reference for logs and stream keys.
func (h HolderRef) String() string {
	return string(h.Kind) + ":" + h.ID
}

// Validate checks the reference names a known kind and a non-empty party.
func (h HolderRef) Validate() error {
	switch h.Kind {
	case HolderFactory, HolderDealer, HolderSubDealer, HolderCustomer, HolderServiceCenter:
	default:
		return apperrors.WithMetadata(apperrors.CodeHolderRefInvalid, "holder kind is not recognized", map[string]string{
			"kind": string(h.Kind),
		})
	}
	if strings.TrimSpace(h.ID) == "" {
		return apperrors.New(apperrors.CodeHolderRefInvalid, "holder id is required")
	}
	return nil
}

// ParseHolderRef parses the "kind:id" form produced by String.
func ParseHolderRef(value string) (HolderRef, error) {
	kind, rawID, found := strings.Cut(strings.TrimSpace(value), ":")
	if !found {
		return HolderRef{}, apperrors.New(apperrors.CodeHolderRefInvalid, fmt.Sprintf("holder reference %q is not kind:id", value))
	}
	ref := HolderRef{Kind: HolderKind(kind), ID: rawID}
	if err := ref.Validate(); err != nil {
		return HolderRef{}, err
	}
	return ref, nil
}
