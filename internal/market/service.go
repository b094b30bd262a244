package market

import (
	"context"
	"fmt"
	"log"

	"github.com/agrolink/backend/internal/notify"
)

// Service wires the repository transactions to the notification sink.
// Every notification goes out after the transaction committed and is
// fire-and-forget: a dispatch failure is logged and swallowed.
type Service struct {
	Repo   *Repo
	Notify notify.Dispatcher
}

const notificationKind = "commande"

func orderEvent(orderID, title, message string) notify.Event {
	return notify.Event{
		Kind:          notificationKind,
		Title:         title,
		Message:       message,
		Link:          "/orders/" + orderID,
		ReferenceID:   orderID,
		ReferenceType: "commande",
	}
}

// CreateDemand opens a demand and broadcasts it to the farmers who have
// matching stock nearby.
func (s *Service) CreateDemand(ctx context.Context, collectorID string, d CreateDemand) (Order, error) {
	o, err := s.Repo.CreateDemand(ctx, collectorID, d)
	if err != nil {
		return Order{}, err
	}
	s.broadcastDemand(ctx, o)
	return o, nil
}

// AllocateDirect creates a direct order and notifies the listing owner.
func (s *Service) AllocateDirect(ctx context.Context, req AllocationRequest) (Order, error) {
	o, farmerID, err := s.Repo.AllocateDirect(ctx, req)
	if err != nil {
		return Order{}, err
	}
	ev := orderEvent(o.ID, "Nouvelle commande reçue",
		fmt.Sprintf("Une commande de %s a été enregistrée", o.ProductName))
	if err := s.Notify.NotifyOne(ctx, farmerID, ev); err != nil {
		log.Printf("notify farmer %s for order %s: %v", farmerID, o.ID, err)
	}
	return o, nil
}

// Propose adds a fulfillment line to an open demand and notifies the
// collector who opened it.
func (s *Service) Propose(ctx context.Context, orderID string, req ProposalRequest) (ProposalResult, error) {
	res, collectorID, err := s.Repo.Propose(ctx, orderID, req)
	if err != nil {
		return ProposalResult{}, err
	}
	ev := orderEvent(orderID, "Proposition reçue",
		fmt.Sprintf("Un paysan a proposé %s pour votre demande", res.Line.Quantity))
	if err := s.Notify.NotifyOne(ctx, collectorID, ev); err != nil {
		log.Printf("notify collector %s for order %s: %v", collectorID, orderID, err)
	}
	return res, nil
}

func (s *Service) AcceptLine(ctx context.Context, farmerID, orderID string) (Line, error) {
	return s.Repo.AcceptLine(ctx, farmerID, orderID)
}

func (s *Service) RefuseLine(ctx context.Context, farmerID, orderID, reason string) (Line, error) {
	return s.Repo.RefuseLine(ctx, farmerID, orderID, reason)
}

func (s *Service) DeliverLine(ctx context.Context, farmerID, orderID string) (Line, error) {
	return s.Repo.DeliverLine(ctx, farmerID, orderID)
}

// Cancel compensates the order and notifies every farmer who had a line
// on it.
func (s *Service) Cancel(ctx context.Context, collectorID, orderID, reason string) (Order, error) {
	o, farmerIDs, err := s.Repo.Cancel(ctx, collectorID, orderID, reason)
	if err != nil {
		return Order{}, err
	}
	ev := orderEvent(o.ID, "Commande annulée",
		fmt.Sprintf("La commande de %s a été annulée", o.ProductName))
	if err := s.Notify.NotifyMany(ctx, farmerIDs, ev); err != nil {
		log.Printf("notify cancel order %s: %v", o.ID, err)
	}
	return o, nil
}

// MarkPaid flags the order paid and notifies the same farmer set.
func (s *Service) MarkPaid(ctx context.Context, collectorID, orderID string) (Order, error) {
	o, farmerIDs, err := s.Repo.MarkPaid(ctx, collectorID, orderID)
	if err != nil {
		return Order{}, err
	}
	ev := orderEvent(o.ID, "Commande payée",
		fmt.Sprintf("La commande de %s a été payée", o.ProductName))
	if err := s.Notify.NotifyMany(ctx, farmerIDs, ev); err != nil {
		log.Printf("notify payment order %s: %v", o.ID, err)
	}
	return o, nil
}
