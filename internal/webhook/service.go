// Package webhook reconciles asynchronous gateway events with the local
// collection state. Every event is persisted before it is processed, so a
// crash mid-processing leaves a visible unprocessed row instead of a silent
// gap.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dojoware/collect/internal/collection"
	"github.com/dojoware/collect/internal/ledger"
	"github.com/dojoware/collect/internal/mandate"
	"github.com/dojoware/collect/internal/member"
	"github.com/dojoware/collect/internal/notify"
	"github.com/dojoware/collect/internal/org"
	"github.com/dojoware/collect/internal/returncode"
	"github.com/dojoware/collect/internal/timeutil"
)

type Service struct {
	db                *gorm.DB
	orgService        org.Service
	memberService     member.Service
	mandateService    mandate.Service
	ledgerService     ledger.Service
	collectionService collection.Service
	dispatcher        notify.Dispatcher
}

func NewService(
	db *gorm.DB,
	orgService org.Service,
	memberService member.Service,
	mandateService mandate.Service,
	ledgerService ledger.Service,
	collectionService collection.Service,
	dispatcher notify.Dispatcher,
) Service {
	return Service{
		db:                db,
		orgService:        orgService,
		memberService:     memberService,
		mandateService:    mandateService,
		ledgerService:     ledgerService,
		collectionService: collectionService,
		dispatcher:        dispatcher,
	}
}

// Process handles one inbound gateway event exactly once. The event row is
// inserted before any processing; a redelivered event that was already
// processed is acknowledged without side effects, while one that was
// persisted but never finished is processed again.
func (s Service) Process(ctx context.Context, inbound InboundEvent) error {
	if inbound.ID == "" || inbound.Type == "" {
		return ErrInvalidEvent
	}

	event := &Event{
		ID:         inbound.ID,
		Type:       inbound.Type,
		Payload:    inbound.Data,
		ReceivedAt: timeutil.DateTimeNow(),
	}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event)
	if result.Error != nil {
		return fmt.Errorf("could not persist event: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		existing := &Event{}
		if err := s.db.WithContext(ctx).First(existing, "id = ?", inbound.ID).Error; err != nil {
			return fmt.Errorf("could not load event: %w", err)
		}
		if existing.ProcessedAt != nil {
			slog.InfoContext(ctx, "event already processed", "event_id", inbound.ID, "type", inbound.Type)
			return nil
		}
		event = existing
	}

	if err := s.handle(ctx, event); err != nil {
		detail := err.Error()
		s.db.WithContext(ctx).
			Model(&Event{}).
			Where("id = ?", event.ID).
			Update("error", detail)
		return err
	}

	return s.db.WithContext(ctx).
		Model(&Event{}).
		Where("id = ?", event.ID).
		Updates(map[string]any{
			"processed_at": timeutil.DateTimeNow().Time,
			"error":        nil,
		}).Error
}

func (s Service) handle(ctx context.Context, event *Event) error {
	var data eventData
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &data); err != nil {
			return fmt.Errorf("could not decode event payload: %w", err)
		}
	}

	switch event.Type {
	case EventTypeChargeSucceeded:
		return s.handleChargeSucceeded(ctx, data)
	case EventTypeChargeFailed:
		return s.handleChargeFailed(ctx, data)
	case EventTypeDisputeCreated:
		return s.handleDisputeCreated(ctx, data)
	case EventTypeDisputeUpdated:
		return s.handleDisputeUpdated(ctx, data)
	case EventTypeDisputeClosed:
		return s.handleDisputeClosed(ctx, data)
	default:
		// Unknown types are acknowledged so the gateway stops retrying.
		slog.InfoContext(ctx, "ignoring unsupported event type", "type", event.Type)
		return nil
	}
}

func (s Service) handleChargeSucceeded(ctx context.Context, data eventData) error {
	tx, err := s.collectionService.TransactionByGatewayRef(ctx, data.ChargeID)
	if err != nil {
		if errors.Is(err, collection.ErrTransactionNotFound) {
			return fmt.Errorf("%w: charge %s", ErrUnknownTransaction, data.ChargeID)
		}
		return err
	}

	if tx.Status == collection.TransactionStatusSucceeded {
		return nil
	}
	if err := s.collectionService.MarkTransactionSucceeded(ctx, tx.ID, tx.OrgID); err != nil {
		return fmt.Errorf("could not mark transaction succeeded: %w", err)
	}
	return s.ledgerService.MarkPaid(ctx, tx.OrgID, tx.SourceRefs, timeutil.DateTimeNow())
}

func (s Service) handleChargeFailed(ctx context.Context, data eventData) error {
	tx, err := s.collectionService.TransactionByGatewayRef(ctx, data.ChargeID)
	if err != nil {
		if errors.Is(err, collection.ErrTransactionNotFound) {
			return fmt.Errorf("%w: charge %s", ErrUnknownTransaction, data.ChargeID)
		}
		return err
	}

	code := returncode.Lookup(data.FailureCode)
	reason := fmt.Sprintf("%s: %s", code.Code, code.Description)
	if data.FailureMessage != "" {
		reason = fmt.Sprintf("%s: %s", code.Code, data.FailureMessage)
	}

	if err := s.collectionService.MarkTransactionFailed(ctx, tx.ID, tx.OrgID, reason); err != nil {
		return fmt.Errorf("could not mark transaction failed: %w", err)
	}

	if code.Class == returncode.ClassFatal {
		if err := s.mandateService.Revoke(ctx, tx.MandateID, tx.OrgID, reason); err != nil &&
			!errors.Is(err, mandate.ErrAlreadyRevoked) {
			return fmt.Errorf("could not revoke mandate: %w", err)
		}
	}

	if err := s.ledgerService.CreateOpenPayment(ctx, &ledger.OpenPayment{
		MemberID:  tx.MemberID,
		Amount:    tx.Amount,
		Type:      ledger.OpenPaymentTypeFailedCharge,
		Reference: tx.ID.String(),
		OrgID:     tx.OrgID,
	}); err != nil {
		return fmt.Errorf("could not create open payment: %w", err)
	}

	return s.memberService.FlagPaymentProblem(ctx, tx.MemberID.String(), tx.OrgID, reason)
}

func (s Service) handleDisputeCreated(ctx context.Context, data eventData) error {
	tx, err := s.collectionService.TransactionByGatewayRef(ctx, data.ChargeID)
	if err != nil {
		if errors.Is(err, collection.ErrTransactionNotFound) {
			return fmt.Errorf("%w: charge %s", ErrUnknownTransaction, data.ChargeID)
		}
		return err
	}

	amount := data.Amount
	if amount.IsZero() {
		amount = tx.Amount
	}
	dispute := &Dispute{
		GatewayDisputeID: data.DisputeID,
		TransactionID:    tx.ID,
		MemberID:         tx.MemberID,
		Amount:           amount,
		Status:           DisputeStatusCreated,
		Reason:           data.Reason,
		OrgID:            tx.OrgID,
		CreatedAt:        timeutil.DateTimeNow(),
		UpdatedAt:        timeutil.DateTimeNow(),
	}
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "gateway_dispute_id"}},
			DoNothing: true,
		}).
		Create(dispute).Error; err != nil {
		return fmt.Errorf("could not persist dispute: %w", err)
	}

	reason := fmt.Sprintf("chargeback %s", data.DisputeID)
	if data.Reason != "" {
		reason = fmt.Sprintf("chargeback %s: %s", data.DisputeID, data.Reason)
	}
	if err := s.collectionService.MarkTransactionFailed(ctx, tx.ID, tx.OrgID, reason); err != nil {
		return fmt.Errorf("could not mark transaction failed: %w", err)
	}

	if err := s.ledgerService.CreateOpenPayment(ctx, &ledger.OpenPayment{
		MemberID:  tx.MemberID,
		Amount:    amount,
		Type:      ledger.OpenPaymentTypeChargeback,
		Reference: data.DisputeID,
		OrgID:     tx.OrgID,
	}); err != nil {
		return fmt.Errorf("could not create open payment: %w", err)
	}

	return s.memberService.FlagPaymentProblem(ctx, tx.MemberID.String(), tx.OrgID, reason)
}

func (s Service) handleDisputeUpdated(ctx context.Context, data eventData) error {
	result := s.db.WithContext(ctx).
		Model(&Dispute{}).
		Where("gateway_dispute_id = ? AND status IN ?", data.DisputeID,
			[]DisputeStatus{DisputeStatusCreated, DisputeStatusUpdated}).
		Updates(map[string]any{
			"status":     DisputeStatusUpdated,
			"reason":     data.Reason,
			"updated_at": timeutil.DateTimeNow().Time,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		slog.InfoContext(ctx, "dispute update for unknown or closed dispute", "dispute_id", data.DisputeID)
	}
	return nil
}

// handleDisputeClosed records the outcome. A dispute won by the tenant
// resolves the chargeback's remediation row; a lost one keeps it open so an
// admin chases the member by other means.
func (s Service) handleDisputeClosed(ctx context.Context, data eventData) error {
	dispute := &Dispute{}
	if err := s.db.WithContext(ctx).
		First(dispute, "gateway_dispute_id = ?", data.DisputeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrDisputeNotFound, data.DisputeID)
		}
		return err
	}
	if dispute.Status.Terminal() {
		return nil
	}

	status := DisputeStatusLost
	if data.Status == "won" {
		status = DisputeStatusWon
	}
	if err := s.db.WithContext(ctx).
		Model(&Dispute{}).
		Where("id = ?", dispute.ID).
		Updates(map[string]any{
			"status":     status,
			"updated_at": timeutil.DateTimeNow().Time,
		}).Error; err != nil {
		return err
	}

	if status == DisputeStatusWon {
		if err := s.ledgerService.ResolveOpenPayment(ctx, dispute.OrgID, dispute.GatewayDisputeID); err != nil &&
			!errors.Is(err, ledger.ErrOpenPaymentNotFound) {
			return fmt.Errorf("could not resolve open payment: %w", err)
		}
	}

	s.notifyDisputeClosed(ctx, dispute, status)
	return nil
}

func (s Service) notifyDisputeClosed(ctx context.Context, dispute *Dispute, status DisputeStatus) {
	notice := notify.DisputeNotice{
		OrgID:     dispute.OrgID,
		Amount:    dispute.Amount,
		Outcome:   string(status),
		Reference: dispute.GatewayDisputeID,
	}

	if o, err := s.orgService.Org(ctx, dispute.OrgID); err == nil && o.NotificationEmail != nil {
		notice.Recipient = *o.NotificationEmail
	}
	if m, err := s.memberService.Member(ctx, dispute.MemberID.String(), dispute.OrgID); err == nil {
		notice.MemberName = m.Name
	}

	s.dispatcher.DisputeClosed(ctx, notice)
}

// Unprocessed returns persisted events that never finished processing, for
// operators replaying after a crash.
func (s Service) Unprocessed(ctx context.Context) ([]*Event, error) {
	var events []*Event
	if err := s.db.WithContext(ctx).
		Where("processed_at IS NULL").
		Order("received_at ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
