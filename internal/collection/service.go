package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dojoware/collect/internal/debtor"
	"github.com/dojoware/collect/internal/ledger"
	"github.com/dojoware/collect/internal/notify"
	"github.com/dojoware/collect/internal/org"
	"github.com/dojoware/collect/internal/provider"
	"github.com/dojoware/collect/internal/schedule"
	"github.com/dojoware/collect/internal/timeutil"
)

type Service struct {
	db              *gorm.DB
	orgService      org.Service
	debtorService   debtor.Service
	scheduleService schedule.Service
	ledgerService   ledger.Service
	providers       provider.Registry
	dispatcher      notify.Dispatcher
}

func NewService(
	db *gorm.DB,
	orgService org.Service,
	debtorService debtor.Service,
	scheduleService schedule.Service,
	ledgerService ledger.Service,
	providers provider.Registry,
	dispatcher notify.Dispatcher,
) Service {
	return Service{
		db:              db,
		orgService:      orgService,
		debtorService:   debtorService,
		scheduleService: scheduleService,
		ledgerService:   ledgerService,
		providers:       providers,
		dispatcher:      dispatcher,
	}
}

// Execute runs one collection for the schedule: aggregate debtors, charge
// them through the tenant's strategy, persist one transaction per debtor
// and roll the batch up to a terminal status. It implements
// schedule.Executor. The returned execution is always persisted, also on
// failure, so the schedule history stays complete.
func (s Service) Execute(ctx context.Context, sched *schedule.Schedule) (*schedule.Execution, error) {
	o, err := s.orgService.Org(ctx, sched.OrgID)
	if err != nil {
		return nil, fmt.Errorf("could not load org: %w", err)
	}

	now := timeutil.DateTimeNow()
	exec := &schedule.Execution{
		ScheduleID: sched.ID,
		Status:     schedule.ExecutionStatusStarted,
		StartedAt:  now,
		OrgID:      sched.OrgID,
	}
	if err := s.scheduleService.CreateExecution(ctx, exec); err != nil {
		return nil, fmt.Errorf("could not create execution: %w", err)
	}

	strategy := s.providers.ForOrg(o)
	if !strategy.Configured(o) {
		// Surfaced before any charge attempt, never silently skipped.
		err := fmt.Errorf("%w: org %s mode %s", provider.ErrNotConfigured, o.ID, o.ProviderMode)
		s.finishFailed(ctx, o, sched, exec, err)
		return exec, err
	}

	period := now.Format("2006-01")
	collected, err := s.debtorService.Collect(ctx, sched.OrgID, sched.Categories, now.ToDate())
	if err != nil {
		// Aggregation errors abort the run before any batch exists.
		err = fmt.Errorf("debtor aggregation failed: %w", err)
		s.finishFailed(ctx, o, sched, exec, err)
		return exec, err
	}

	slog.InfoContext(ctx, "debtors aggregated",
		"org_id", sched.OrgID,
		"eligible", len(collected.Debtors),
		"outstanding_raw", collected.OutstandingRaw,
		"excluded", collected.ExcludedMembers,
	)

	if len(collected.Debtors) == 0 {
		exec.Status = schedule.ExecutionStatusSuccess
		if err := s.scheduleService.FinishExecution(ctx, exec); err != nil {
			slog.ErrorContext(ctx, "could not finish execution", "execution_id", exec.ID, "error", err)
		}
		s.notifyRun(ctx, o, sched, exec, period)
		return exec, nil
	}

	total := decimal.Zero
	for _, d := range collected.Debtors {
		total = total.Add(d.Amount)
	}

	batch := &Batch{
		Reference:        NewBatchReference(period),
		ExecutionID:      &exec.ID,
		Period:           period,
		CollectionDate:   now.ToDate(),
		TransactionCount: len(collected.Debtors),
		TotalAmount:      total,
		Status:           BatchStatusCreated,
		OrgID:            sched.OrgID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.db.WithContext(ctx).Create(batch).Error; err != nil {
		err = fmt.Errorf("could not create batch: %w", err)
		s.finishFailed(ctx, o, sched, exec, err)
		return exec, err
	}
	exec.GatewayBatchRef = &batch.Reference

	s.updateBatchStatus(ctx, batch, BatchStatusProcessing)
	result := strategy.ChargeBatch(ctx, o, collected.Debtors, period)

	for _, outcome := range result.Outcomes {
		tx := &Transaction{
			BatchID:    batch.ID,
			MandateID:  outcome.Debtor.MandateID,
			MemberID:   outcome.Debtor.MemberID,
			Amount:     outcome.Debtor.Amount,
			EndToEndID: NewEndToEndID(),
			GatewayRef: outcome.Result.ExternalRef,
			SourceRefs: outcome.Debtor.SourceRefs,
			OrgID:      sched.OrgID,
			CreatedAt:  timeutil.DateTimeNow(),
			UpdatedAt:  timeutil.DateTimeNow(),
		}

		if outcome.Result.Status == provider.ChargeSucceeded {
			tx.Status = TransactionStatusSucceeded
		} else {
			tx.Status = TransactionStatusFailed
			reason := failureReason(outcome.Result)
			tx.FailureReason = &reason
		}

		if err := s.db.WithContext(ctx).Create(tx).Error; err != nil {
			slog.ErrorContext(ctx, "could not persist transaction", "batch_id", batch.ID, "member_id", tx.MemberID, "error", err)
			continue
		}

		if tx.Status == TransactionStatusSucceeded {
			if err := s.ledgerService.MarkPaid(ctx, sched.OrgID, tx.SourceRefs, timeutil.DateTimeNow()); err != nil {
				slog.ErrorContext(ctx, "could not settle ledger rows", "transaction_id", tx.ID, "error", err)
			}
		}
	}

	succeeded, failed := result.Counts()
	exec.ProcessedCount = len(result.Outcomes)
	exec.SucceededCount = succeeded
	exec.FailedCount = failed
	exec.TotalAmount = total
	exec.Status = rollUp(succeeded, failed)

	s.updateBatchStatus(ctx, batch, batchStatusFor(exec.Status))
	if err := s.scheduleService.FinishExecution(ctx, exec); err != nil {
		slog.ErrorContext(ctx, "could not finish execution", "execution_id", exec.ID, "error", err)
	}

	s.notifyRun(ctx, o, sched, exec, period)
	return exec, nil
}

// rollUp computes the aggregate run status: success only when nothing
// failed, failed only when nothing succeeded, partial otherwise.
func rollUp(succeeded, failed int) schedule.ExecutionStatus {
	switch {
	case failed == 0:
		return schedule.ExecutionStatusSuccess
	case succeeded == 0:
		return schedule.ExecutionStatusFailed
	default:
		return schedule.ExecutionStatusPartial
	}
}

func batchStatusFor(status schedule.ExecutionStatus) BatchStatus {
	switch status {
	case schedule.ExecutionStatusSuccess:
		return BatchStatusCompleted
	case schedule.ExecutionStatusFailed:
		return BatchStatusFailed
	default:
		return BatchStatusPartial
	}
}

func failureReason(result provider.ChargeResult) string {
	if result.FailureCode != "" {
		return fmt.Sprintf("%s (%s): %s", result.FailureKind, result.FailureCode, result.FailureMessage)
	}
	return fmt.Sprintf("%s: %s", result.FailureKind, result.FailureMessage)
}

func (s Service) finishFailed(ctx context.Context, o *org.Org, sched *schedule.Schedule, exec *schedule.Execution, cause error) {
	detail := cause.Error()
	exec.Status = schedule.ExecutionStatusFailed
	exec.ErrorDetail = &detail
	if err := s.scheduleService.FinishExecution(ctx, exec); err != nil {
		slog.ErrorContext(ctx, "could not finish execution", "execution_id", exec.ID, "error", err)
	}
	s.notifyRun(ctx, o, sched, exec, exec.StartedAt.Format("2006-01"))
}

// notifyRun emits exactly one summary per run, whatever the outcome.
func (s Service) notifyRun(ctx context.Context, o *org.Org, sched *schedule.Schedule, exec *schedule.Execution, period string) {
	summary := notify.BatchSummary{
		OrgID:        o.ID.String(),
		OrgName:      o.Name,
		ScheduleName: sched.Name,
		Period:       period,
		Status:       string(exec.Status),
		Processed:    exec.ProcessedCount,
		Succeeded:    exec.SucceededCount,
		Failed:       exec.FailedCount,
		TotalAmount:  exec.TotalAmount,
	}
	if o.NotificationEmail != nil {
		summary.Recipient = *o.NotificationEmail
	}
	if exec.ErrorDetail != nil {
		summary.ErrorDetail = *exec.ErrorDetail
	}
	s.dispatcher.BatchFinished(ctx, summary)
}

func (s Service) updateBatchStatus(ctx context.Context, batch *Batch, status BatchStatus) {
	batch.Status = status
	batch.UpdatedAt = timeutil.DateTimeNow()
	if err := s.db.WithContext(ctx).
		Model(&Batch{}).
		Where("id = ?", batch.ID).
		Updates(map[string]any{"status": status, "updated_at": batch.UpdatedAt.Time}).Error; err != nil {
		slog.ErrorContext(ctx, "could not update batch status", "batch_id", batch.ID, "status", status, "error", err)
	}
}

func (s Service) Batches(ctx context.Context, orgID string) ([]*Batch, error) {
	var batches []*Batch
	if err := s.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("created_at DESC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

func (s Service) Batch(ctx context.Context, id, orgID string) (*Batch, error) {
	batch := &Batch{}
	if err := s.db.WithContext(ctx).First(batch, "id = ? AND org_id = ?", id, orgID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}
	return batch, nil
}

// CreateManualBatches builds uncharged batches straight from eligible
// mandates, one per tenant, for the manual settlement path. Tenants
// without outstanding eligible balance are skipped.
func (s Service) CreateManualBatches(ctx context.Context, executionDate timeutil.Date, orgFilter []string) ([]*Batch, error) {
	orgs, err := s.orgService.Orgs(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not load orgs: %w", err)
	}

	filter := map[string]bool{}
	for _, id := range orgFilter {
		filter[id] = true
	}

	categories := []ledger.Category{ledger.CategoryDues, ledger.CategoryInvoices, ledger.CategorySales}

	var batches []*Batch
	for _, o := range orgs {
		if len(filter) > 0 && !filter[o.ID.String()] {
			continue
		}

		collected, err := s.debtorService.CollectForExport(ctx, o.ID.String(), categories, executionDate)
		if err != nil {
			return nil, fmt.Errorf("debtor aggregation failed for org %s: %w", o.ID, err)
		}
		if len(collected.Debtors) == 0 {
			continue
		}

		total := decimal.Zero
		for _, d := range collected.Debtors {
			total = total.Add(d.Amount)
		}

		now := timeutil.DateTimeNow()
		period := executionDate.Format("2006-01")
		batch := &Batch{
			Reference:        NewBatchReference(period),
			Period:           period,
			CollectionDate:   executionDate,
			TransactionCount: len(collected.Debtors),
			TotalAmount:      total,
			Status:           BatchStatusCreated,
			OrgID:            o.ID.String(),
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := s.db.WithContext(ctx).Create(batch).Error; err != nil {
			return nil, fmt.Errorf("could not create batch for org %s: %w", o.ID, err)
		}

		for _, d := range collected.Debtors {
			tx := &Transaction{
				BatchID:    batch.ID,
				MandateID:  d.MandateID,
				MemberID:   d.MemberID,
				Amount:     d.Amount,
				EndToEndID: NewEndToEndID(),
				Status:     TransactionStatusPlanned,
				SourceRefs: d.SourceRefs,
				OrgID:      o.ID.String(),
				CreatedAt:  timeutil.DateTimeNow(),
				UpdatedAt:  timeutil.DateTimeNow(),
			}
			if err := s.db.WithContext(ctx).Create(tx).Error; err != nil {
				return nil, fmt.Errorf("could not create transaction for org %s: %w", o.ID, err)
			}
		}

		batches = append(batches, batch)
	}

	if len(batches) == 0 {
		return nil, ErrNoEligibleMandates
	}
	return batches, nil
}

// ExportItem is a transaction joined with its mandate, which is everything
// the SEPA renderer needs.
type ExportItem struct {
	EndToEndID       string
	Amount           decimal.Decimal
	MandateReference string
	SignedAt         timeutil.Date
	AccountHolder    string
	IBAN             string
	BIC              string
}

func (s Service) ExportItems(ctx context.Context, batchID, orgID string) ([]ExportItem, error) {
	var items []ExportItem
	if err := s.db.WithContext(ctx).
		Table("transactions").
		Select("transactions.end_to_end_id, transactions.amount, mandates.reference AS mandate_reference, mandates.signed_at, mandates.account_holder, mandates.iban, mandates.bic").
		Joins("JOIN mandates ON mandates.id = transactions.mandate_id").
		Where("transactions.batch_id = ? AND transactions.org_id = ?", batchID, orgID).
		Order("transactions.end_to_end_id ASC").
		Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// MarkExported flips the batch after its SEPA file was rendered and
// handed out.
func (s Service) MarkExported(ctx context.Context, batchID, orgID string) error {
	result := s.db.WithContext(ctx).
		Model(&Batch{}).
		Where("id = ? AND org_id = ? AND status IN ?", batchID, orgID,
			[]BatchStatus{BatchStatusCreated, BatchStatusExported}).
		Updates(map[string]any{
			"status":     BatchStatusExported,
			"updated_at": timeutil.DateTimeNow().Time,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBatchNotExportable
	}
	return nil
}

// TransactionByGatewayRef locates a transaction by the gateway's charge id,
// across tenants, since inbound events are platform wide.
func (s Service) TransactionByGatewayRef(ctx context.Context, gatewayRef string) (*Transaction, error) {
	tx := &Transaction{}
	if err := s.db.WithContext(ctx).First(tx, "gateway_ref = ?", gatewayRef).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return tx, nil
}

func (s Service) Transactions(ctx context.Context, batchID, orgID string) ([]*Transaction, error) {
	var transactions []*Transaction
	if err := s.db.WithContext(ctx).
		Where("batch_id = ? AND org_id = ?", batchID, orgID).
		Order("created_at ASC").
		Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}

// MarkTransactionFailed moves the transaction to failed. Chargebacks may
// move an already succeeded transaction back to failed.
func (s Service) MarkTransactionFailed(ctx context.Context, id uuid.UUID, orgID, reason string) error {
	return s.db.WithContext(ctx).
		Model(&Transaction{}).
		Where("id = ? AND org_id = ?", id, orgID).
		Updates(map[string]any{
			"status":         TransactionStatusFailed,
			"failure_reason": reason,
			"updated_at":     timeutil.DateTimeNow().Time,
		}).Error
}

func (s Service) MarkTransactionSucceeded(ctx context.Context, id uuid.UUID, orgID string) error {
	return s.db.WithContext(ctx).
		Model(&Transaction{}).
		Where("id = ? AND org_id = ? AND status IN ?", id, orgID,
			[]TransactionStatus{TransactionStatusPlanned, TransactionStatusProcessing}).
		Updates(map[string]any{
			"status":         TransactionStatusSucceeded,
			"failure_reason": nil,
			"updated_at":     timeutil.DateTimeNow().Time,
		}).Error
}
