package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"powerpay/internal/clients"
	"powerpay/internal/metrics"
	"powerpay/internal/models"
	"powerpay/internal/payments"
)

// PaymentGateway is the remote API subset the payment flow needs.
type PaymentGateway interface {
	STKPush(ctx context.Context, contact string, amount float64, reference string) (*clients.STKPushResponse, error)
}

// PaymentAuditStore persists the history of payment attempts. Storage
// failures are logged and never block the live handshake.
type PaymentAuditStore interface {
	Insert(ctx context.Context, audit *models.PaymentAudit) error
	MarkResolved(ctx context.Context, audit *models.PaymentAudit) error
	ListRecent(ctx context.Context, limit int) ([]models.PaymentAudit, error)
}

// PaymentService runs the STK push flow: prompt the phone, wait for the
// webhook, answer polls.
type PaymentService struct {
	gateway PaymentGateway
	tracker *payments.Tracker
	audits  PaymentAuditStore
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewPaymentService builds the service. audits may be nil.
func NewPaymentService(gateway PaymentGateway, tracker *payments.Tracker, audits PaymentAuditStore, m *metrics.Metrics, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		gateway: gateway,
		tracker: tracker,
		audits:  audits,
		metrics: m,
		logger:  logger,
	}
}

// Prompt registers the reference and pushes the payment prompt to the
// contact's phone. The pending entry is rolled back when the push never
// reaches the gateway or is rejected outright.
func (s *PaymentService) Prompt(ctx context.Context, contact string, amount float64, reference string) (*clients.STKPushResponse, error) {
	if _, err := s.tracker.Initiate(contact, amount, reference); err != nil {
		return nil, err
	}

	resp, err := s.gateway.STKPush(ctx, contact, amount, reference)
	if err != nil {
		s.tracker.Drop(reference)
		s.logger.Error("stk push failed", zap.String("reference", reference), zap.Error(err))
		return nil, err
	}
	if resp.ResponseCode != 0 {
		s.tracker.Drop(reference)
		return resp, fmt.Errorf("payments: gateway rejected push: %s", resp.ResponseDescription)
	}

	if s.metrics != nil {
		s.metrics.PaymentsInitiated.Inc()
	}
	s.recordInitiated(ctx, contact, amount, reference)

	s.logger.Info("stk push sent",
		zap.String("reference", reference),
		zap.String("contact", contact),
		zap.Float64("amount", amount),
	)
	return resp, nil
}

// Confirm applies a webhook callback. reference may be empty when the
// gateway only carries it inside the payload. The returned error is for
// the caller's logging; webhook handlers ack regardless unless the
// payload itself was malformed.
func (s *PaymentService) Confirm(ctx context.Context, reference string, body []byte) (payments.Request, error) {
	payloadRef, outcome, err := payments.ParseCallback(body)
	if err != nil {
		if s.metrics != nil {
			s.metrics.CallbackErrors.Inc()
		}
		return payments.Request{}, err
	}
	if reference == "" {
		reference = payloadRef
	}

	req, err := s.tracker.Resolve(reference, outcome)
	if err != nil {
		var resolvedErr *payments.AlreadyResolvedError
		if errors.As(err, &resolvedErr) {
			// Conflicting terminal callbacks are an upstream anomaly:
			// surface loudly, keep the stored outcome.
			if s.metrics != nil {
				s.metrics.CallbackErrors.Inc()
			}
			s.logger.Error("conflicting payment callback ignored",
				zap.String("reference", reference),
				zap.String("existing", string(resolvedErr.Existing)),
				zap.String("attempted", string(resolvedErr.Attempted)),
			)
		}
		return req, err
	}

	if s.metrics != nil {
		s.metrics.PaymentsResolved.WithLabelValues(string(req.Status)).Inc()
	}
	s.recordResolved(ctx, req)

	s.logger.Info("payment resolved",
		zap.String("reference", reference),
		zap.String("status", string(req.Status)),
	)
	return req, nil
}

// Status answers a poll for the reference.
func (s *PaymentService) Status(ctx context.Context, reference string) (payments.Request, error) {
	return s.tracker.Poll(reference)
}

// Watch exposes the tracker's resolution channel for push delivery.
func (s *PaymentService) Watch(reference string) (<-chan payments.Request, error) {
	return s.tracker.Watch(reference)
}

// History lists the newest audited payment attempts.
func (s *PaymentService) History(ctx context.Context, limit int) ([]models.PaymentAudit, error) {
	if s.audits == nil {
		return nil, nil
	}
	return s.audits.ListRecent(ctx, limit)
}

func (s *PaymentService) recordInitiated(ctx context.Context, contact string, amount float64, reference string) {
	if s.audits == nil {
		return
	}
	audit := &models.PaymentAudit{
		Reference: reference,
		Contact:   contact,
		Amount:    amount,
		Status:    string(payments.StatusPending),
	}
	if err := s.audits.Insert(ctx, audit); err != nil {
		s.logger.Warn("payment audit insert failed", zap.String("reference", reference), zap.Error(err))
	}
}

func (s *PaymentService) recordResolved(ctx context.Context, req payments.Request) {
	if s.audits == nil {
		return
	}
	audit := &models.PaymentAudit{
		Reference:       req.Reference,
		Status:          string(req.Status),
		Message:         req.Message,
		ReceiptNumber:   req.ReceiptNumber,
		TransactionDate: req.TransactionDate,
		PhoneNumber:     req.PhoneNumber,
	}
	if err := s.audits.MarkResolved(ctx, audit); err != nil {
		s.logger.Warn("payment audit update failed", zap.String("reference", req.Reference), zap.Error(err))
	}
}
