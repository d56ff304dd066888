package billing

import (
	"context"

	"github.com/gharbeti/backend/internal/domain/billing"
	"github.com/gharbeti/backend/internal/domain/calendar"
	"github.com/gharbeti/backend/internal/domain/ledger"
	"github.com/gharbeti/backend/internal/domain/shared"
	"github.com/gharbeti/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentService records tenant payments against billing records. The
// record mutation and the payment journal commit in one transaction, the
// same atomicity unit the orchestrator uses for charges.
type PaymentService struct {
	uow     UnitOfWork
	builder *ledger.Builder
	clock   Clock
	logger  *zap.Logger
}

// NewPaymentService creates a payment service
func NewPaymentService(uow UnitOfWork, builder *ledger.Builder, clock Clock, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		uow:     uow,
		builder: builder,
		clock:   clock,
		logger:  logger,
	}
}

// PaymentResult reports the record state after a payment was applied
type PaymentResult struct {
	PaymentID   uuid.UUID            `json:"payment_id"`
	RecordID    uuid.UUID            `json:"record_id"`
	Amount      valueobject.Money    `json:"amount_paisa"`
	PaidAmount  valueobject.Money    `json:"paid_amount_paisa"`
	Outstanding valueobject.Money    `json:"outstanding_paisa"`
	Status      billing.RecordStatus `json:"status"`
}

// RecordPayment applies a payment to a billing record and posts the
// payment-received journal atomically. bankAccountCode selects the cash
// account leg; empty means the default cash account.
func (s *PaymentService) RecordPayment(ctx context.Context, recordID uuid.UUID, amount valueobject.Money, bankAccountCode string) (*PaymentResult, error) {
	if recordID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RECORD", "Record ID cannot be empty")
	}

	now := s.clock.Now()
	today, err := calendar.FromGregorian(now)
	if err != nil {
		return nil, err
	}

	paymentID := uuid.New()
	var result *PaymentResult
	err = s.uow.Execute(ctx, func(ctx context.Context, repos TxRepos) error {
		rec, err := repos.Records.FindByID(ctx, recordID)
		if err != nil {
			return err
		}
		if rec == nil {
			return shared.ErrNotFound
		}
		if err := rec.ApplyPayment(amount, now); err != nil {
			return err
		}
		if err := repos.Records.Update(ctx, rec); err != nil {
			return err
		}

		payload, err := s.builder.BuildPaymentReceived(rec, paymentID, amount, bankAccountCode, now, today)
		if err != nil {
			return err
		}
		if err := repos.Journals.Post(ctx, payload); err != nil {
			return err
		}

		result = &PaymentResult{
			PaymentID:   paymentID,
			RecordID:    rec.ID,
			Amount:      amount,
			PaidAmount:  rec.PaidAmount,
			Outstanding: rec.OverdueBalance(),
			Status:      rec.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment recorded",
		zap.String("record_id", recordID.String()),
		zap.String("payment_id", paymentID.String()),
		zap.String("amount", amount.String()),
		zap.String("status", string(result.Status)))
	return result, nil
}

// CancelRecord cancels an unpaid billing record with a reason
func (s *PaymentService) CancelRecord(ctx context.Context, recordID uuid.UUID, reason string) error {
	if recordID == uuid.Nil {
		return shared.NewDomainError("INVALID_RECORD", "Record ID cannot be empty")
	}

	now := s.clock.Now()
	err := s.uow.Execute(ctx, func(ctx context.Context, repos TxRepos) error {
		rec, err := repos.Records.FindByID(ctx, recordID)
		if err != nil {
			return err
		}
		if rec == nil {
			return shared.ErrNotFound
		}
		if err := rec.Cancel(reason, now); err != nil {
			return err
		}
		return repos.Records.Update(ctx, rec)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Billing record cancelled",
		zap.String("record_id", recordID.String()),
		zap.String("reason", reason))
	return nil
}
