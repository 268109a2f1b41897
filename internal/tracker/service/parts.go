package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/qjcoder/sunlife-lab-system-sub003/internal/platform/errors"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain/event"
)

// DispatchPartsInput sends spare part lines from the factory to a service
// center.
type DispatchPartsInput struct {
	Center domain.HolderRef
	Lines  []domain.PartLine
}

// PartDispatchReceipt is the accepted dispatch with its journal identity.
// The event id is the lineage reference later replacements must name.
type PartDispatchReceipt struct {
	EventID string
	Center  domain.HolderRef
	Lines   []domain.PartLine
}

// DispatchParts appends a part dispatch to the center's stream and credits
// the center's stock.
func (s *Service) DispatchParts(ctx context.Context, in DispatchPartsInput) (PartDispatchReceipt, error) {
	ctx, span := s.tracer.Start(ctx, "DispatchParts")
	defer span.End()
	span.SetAttributes(attribute.String("center.id", in.Center.ID))

	if err := in.Center.Validate(); err != nil {
		return PartDispatchReceipt{}, err
	}
	if in.Center.Kind != domain.HolderServiceCenter {
		return PartDispatchReceipt{}, apperrors.New(apperrors.CodeHolderRefInvalid, "part dispatches target a service center")
	}
	if len(in.Lines) == 0 {
		return PartDispatchReceipt{}, apperrors.New(apperrors.CodePartDispatchNoLines, "part dispatch needs at least one line")
	}
	seen := make(map[string]bool, len(in.Lines))
	for _, line := range in.Lines {
		if err := line.Validate(); err != nil {
			return PartDispatchReceipt{}, err
		}
		if seen[line.Code] {
			return PartDispatchReceipt{}, apperrors.WithMetadata(apperrors.CodePartDispatchInvalidQty, "part code repeats across lines",
				map[string]string{"code": line.Code})
		}
		seen[line.Code] = true
	}

	payload, err := event.MarshalPayload(event.PartsDispatchedPayload{
		Center: in.Center,
		Lines:  in.Lines,
	})
	if err != nil {
		return PartDispatchReceipt{}, err
	}

	// Dispatches only add stock, so the store may assign the next center
	// sequence itself.
	evt := event.Event{
		StreamID:    event.CenterStream(in.Center.ID),
		Type:        event.TypePartsDispatched,
		Timestamp:   s.clock().UTC(),
		CenterID:    in.Center.ID,
		PayloadJSON: payload,
	}
	stored, err := s.stores.Events.AppendEvent(ctx, s.stamp(ctx, evt))
	if err != nil {
		return PartDispatchReceipt{}, err
	}
	return PartDispatchReceipt{
		EventID: stored.ID,
		Center:  in.Center,
		Lines:   in.Lines,
	}, nil
}
