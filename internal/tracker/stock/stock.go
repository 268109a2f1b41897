// Package stock derives holder and part quantities by folding the event
// journal.
//
// The folds here are the authority. The persisted part_stock table is an
// advisory cache maintained alongside appends; it must always be
// recomputable from these folds and is never trusted on its own.
package stock

import (
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain/event"
)

// BalanceKey identifies the part balance of one service center.
type BalanceKey struct {
	CenterID string
	Code     string
}

// Balance tracks quantities dispatched to and consumed at a center.
type Balance struct {
	Dispatched int
	Consumed   int
}

// Available is the derived stock on hand.
func (b Balance) Available() int {
	return b.Dispatched - b.Consumed
}

// FoldPartBalances folds part dispatches and replacements into per-(center,
// part code) balances. REPAIR replacements never affect the balance.
func FoldPartBalances(events []event.Event) (map[BalanceKey]Balance, error) {
	balances := make(map[BalanceKey]Balance)
	for _, evt := range events {
		switch evt.Type {
		case event.TypePartsDispatched:
			payload, err := event.DecodePayload[event.PartsDispatchedPayload](evt)
			if err != nil {
				return nil, err
			}
			for _, line := range payload.Lines {
				key := BalanceKey{CenterID: payload.Center.ID, Code: line.Code}
				balance := balances[key]
				balance.Dispatched += line.Qty
				balances[key] = balance
			}
		case event.TypePartReplaced:
			payload, err := event.DecodePayload[event.PartReplacedPayload](evt)
			if err != nil {
				return nil, err
			}
			if payload.Kind != domain.KindReplacement {
				continue
			}
			key := BalanceKey{CenterID: payload.Center.ID, Code: payload.Code}
			balance := balances[key]
			balance.Consumed += payload.Qty
			balances[key] = balance
		}
	}
	return balances, nil
}

// PartStock derives the current stock of one part code at one center.
func PartStock(events []event.Event, centerID, code string) (int, error) {
	balances, err := FoldPartBalances(events)
	if err != nil {
		return 0, err
	}
	return balances[BalanceKey{CenterID: centerID, Code: code}].Available(), nil
}

// CountUnitsAtHolder counts unsold units whose projected holder matches.
func CountUnitsAtHolder(units []domain.Unit, holder domain.HolderRef) int {
	count := 0
	for _, unit := range units {
		if !unit.Sold && unit.Holder.Equal(holder) {
			count++
		}
	}
	return count
}
