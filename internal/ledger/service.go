// AngelaMos | 2026
// service.go

package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carterperez-dev/vipledger/internal/catalog"
	"github.com/carterperez-dev/vipledger/internal/config"
	"github.com/carterperez-dev/vipledger/internal/core"
	"github.com/carterperez-dev/vipledger/internal/events"
)

const recentWithdrawalLimit = 10

type Service struct {
	repo      Repository
	cache     DashboardCache
	publisher events.Publisher
	cfg       config.LedgerConfig
	tracer    trace.Tracer
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(
	repo Repository,
	cache DashboardCache,
	publisher events.Publisher,
	cfg config.LedgerConfig,
) *Service {
	if cache == nil {
		cache = NewNoopDashboardCache()
	}
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	return &Service{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		cfg:       cfg,
		tracer:    otel.Tracer("vipledger/ledger"),
		logger:    slog.Default().With("component", "ledger"),
		now:       time.Now,
	}
}

func (s *Service) start(
	ctx context.Context,
	op string,
	actor Actor,
	attrs ...attribute.KeyValue,
) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("actor.id", actor.UserID),
		attribute.Bool("actor.admin", actor.Admin),
	)
	return s.tracer.Start(ctx, "ledger."+op, trace.WithAttributes(attrs...))
}

// finish closes span and logs the outcome. Business failures are expected
// and logged at info; anything else is a storage failure.
func (s *Service) finish(span trace.Span, op string, err error) {
	defer span.End()

	if err == nil {
		return
	}

	code := Code(err)
	span.SetAttributes(attribute.String("ledger.error_code", code))

	if IsBusinessError(err) {
		s.logger.Info("ledger operation rejected", "op", op, "code", code)
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger.Error("ledger operation failed", "op", op, "error", err)
}

func requireUser(actor Actor) error {
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}

func requireAdmin(actor Actor) error {
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	if !actor.Admin {
		return ErrUnauthorized
	}
	return nil
}

// validID rejects ids that cannot exist so malformed input reads as not found
// rather than reaching the database as a cast error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *Service) committed(ctx context.Context, event events.Event, userIDs ...string) {
	s.cache.Invalidate(ctx, userIDs...)

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("ledger event not published",
			"type", event.Type,
			"event_id", event.ID,
			"error", err,
		)
	}
}

// PurchasePackage debits the package price and opens an ACTIVE investment in
// one transaction.
func (s *Service) PurchasePackage(
	ctx context.Context,
	actor Actor,
	packageID string,
) (inv *Investment, err error) {
	ctx, span := s.start(ctx, "PurchasePackage", actor,
		attribute.String("package.id", packageID),
	)
	defer func() { s.finish(span, "purchase_package", err) }()

	if err := requireUser(actor); err != nil {
		return nil, err
	}

	pkg, ok := catalog.Lookup(packageID)
	if !ok {
		return nil, ErrUnknownPackage
	}

	now := s.now().UTC()
	inv = &Investment{
		ID:           uuid.New().String(),
		UserID:       actor.UserID,
		PackageID:    pkg.ID,
		Amount:       pkg.Price,
		DailyReturn:  pkg.DailyReturn,
		DurationDays: pkg.DurationDays,
		Status:       InvestmentActive,
		StartDate:    now,
		EndDate:      now.AddDate(0, 0, pkg.DurationDays),
	}

	err = s.repo.WithTx(ctx, func(tx Repository) error {
		if _, err := tx.DebitBalance(ctx, actor.UserID, pkg.Price); err != nil {
			return err
		}

		active, err := tx.CountActiveInvestments(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if active >= s.cfg.MaxActiveInvestments {
			return ErrInvestmentLimitReached
		}

		return tx.CreateInvestment(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	event := events.New(events.TypeInvestmentPurchased, actor.UserID, inv.ID, inv.Amount)
	s.committed(ctx, event, actor.UserID)

	return inv, nil
}

// RequestWithdrawal reserves amount from the withdrawal balance and files a
// PENDING request.
func (s *Service) RequestWithdrawal(
	ctx context.Context,
	actor Actor,
	destination string,
	amount int64,
) (req *WithdrawalRequest, err error) {
	ctx, span := s.start(ctx, "RequestWithdrawal", actor,
		attribute.Int64("amount", amount),
	)
	defer func() { s.finish(span, "request_withdrawal", err) }()

	if err := requireUser(actor); err != nil {
		return nil, err
	}

	if amount < s.cfg.MinWithdrawal {
		return nil, ErrBelowMinimum
	}

	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, ErrMissingDestination
	}

	req = &WithdrawalRequest{
		ID:          uuid.New().String(),
		UserID:      actor.UserID,
		Amount:      amount,
		Destination: destination,
		Status:      WithdrawalPending,
	}

	err = s.repo.WithTx(ctx, func(tx Repository) error {
		if _, err := tx.DebitWithdrawalBalance(ctx, actor.UserID, amount); err != nil {
			return err
		}
		return tx.CreateWithdrawal(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	event := events.New(events.TypeWithdrawalRequested, actor.UserID, req.ID, amount)
	s.committed(ctx, event, actor.UserID)

	return req, nil
}

func (s *Service) ApproveWithdrawal(
	ctx context.Context,
	actor Actor,
	id string,
) (req *WithdrawalRequest, err error) {
	ctx, span := s.start(ctx, "ApproveWithdrawal", actor,
		attribute.String("withdrawal.id", id),
	)
	defer func() { s.finish(span, "approve_withdrawal", err) }()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, core.ErrNotFound
	}

	req, err = s.repo.TransitionWithdrawal(ctx, id, WithdrawalApproved, actor.UserID)
	if err != nil {
		return nil, err
	}

	event := events.New(events.TypeWithdrawalApproved, req.UserID, req.ID, req.Amount)
	event.ActorID = actor.UserID
	s.committed(ctx, event, req.UserID)

	return req, nil
}

// RejectWithdrawal moves a PENDING request to REJECTED and refunds its amount
// to the owner's withdrawal balance in the same transaction.
func (s *Service) RejectWithdrawal(
	ctx context.Context,
	actor Actor,
	id string,
) (req *WithdrawalRequest, err error) {
	ctx, span := s.start(ctx, "RejectWithdrawal", actor,
		attribute.String("withdrawal.id", id),
	)
	defer func() { s.finish(span, "reject_withdrawal", err) }()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, core.ErrNotFound
	}

	err = s.repo.WithTx(ctx, func(tx Repository) error {
		var err error
		req, err = tx.TransitionWithdrawal(ctx, id, WithdrawalRejected, actor.UserID)
		if err != nil {
			return err
		}
		_, err = tx.CreditWithdrawalBalance(ctx, req.UserID, req.Amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	event := events.New(events.TypeWithdrawalRejected, req.UserID, req.ID, req.Amount)
	event.ActorID = actor.UserID
	s.committed(ctx, event, req.UserID)

	return req, nil
}

// CancelInvestment cancels an ACTIVE investment and refunds its principal.
// Returns already credited are kept by the user.
func (s *Service) CancelInvestment(
	ctx context.Context,
	actor Actor,
	id string,
) (inv *Investment, err error) {
	ctx, span := s.start(ctx, "CancelInvestment", actor,
		attribute.String("investment.id", id),
	)
	defer func() { s.finish(span, "cancel_investment", err) }()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, core.ErrNotFound
	}

	err = s.repo.WithTx(ctx, func(tx Repository) error {
		var err error
		inv, err = tx.CancelInvestment(ctx, id)
		if err != nil {
			return err
		}
		_, err = tx.CreditBalance(ctx, inv.UserID, inv.Amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	event := events.New(events.TypeInvestmentCancelled, inv.UserID, inv.ID, inv.Amount)
	event.ActorID = actor.UserID
	s.committed(ctx, event, inv.UserID)

	return inv, nil
}

// ProcessReturns credits one daily return to every ACTIVE investment, each in
// its own transaction, and completes those past their end date. Without the
// daily guard a second run on the same day credits again.
func (s *Service) ProcessReturns(
	ctx context.Context,
	actor Actor,
) (result *ProcessResult, err error) {
	ctx, span := s.start(ctx, "ProcessReturns", actor,
		attribute.Bool("ledger.daily_guard", s.cfg.DailyGuard),
	)
	defer func() { s.finish(span, "process_returns", err) }()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	active, err := s.repo.ListActiveInvestments(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	result = &ProcessResult{}
	touched := make(map[string]struct{})

	for i := range active {
		var credited *Investment

		err := s.repo.WithTx(ctx, func(tx Repository) error {
			var err error
			credited, err = tx.CreditInvestmentReturn(ctx, active[i].ID, today, now, s.cfg.DailyGuard)
			if err != nil {
				return err
			}
			_, err = tx.CreditWithdrawalBalance(ctx, credited.UserID, credited.DailyReturn)
			return err
		})
		if errors.Is(err, errNotCredited) {
			result.Skipped++
			continue
		}
		if err != nil {
			s.invalidate(ctx, touched)
			return result, err
		}

		result.Processed++
		result.Credited += credited.DailyReturn
		if credited.Status == InvestmentCompleted {
			result.Completed++
		}
		touched[credited.UserID] = struct{}{}
	}

	span.SetAttributes(
		attribute.Int("ledger.processed", result.Processed),
		attribute.Int("ledger.completed", result.Completed),
		attribute.Int("ledger.skipped", result.Skipped),
	)

	s.invalidate(ctx, touched)

	event := events.New(events.TypeReturnsProcessed, "", "", result.Credited)
	event.ActorID = actor.UserID
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("ledger event not published", "type", event.Type, "error", err)
	}

	s.logger.Info("returns processed",
		"processed", result.Processed,
		"completed", result.Completed,
		"skipped", result.Skipped,
		"credited", result.Credited,
	)

	return result, nil
}

func (s *Service) invalidate(ctx context.Context, users map[string]struct{}) {
	if len(users) == 0 {
		return
	}
	ids := make([]string, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	s.cache.Invalidate(ctx, ids...)
}

// CreditBalance adds funds to a user's purchase balance. Admin only.
func (s *Service) CreditBalance(
	ctx context.Context,
	actor Actor,
	userID string,
	amount int64,
) (*Wallet, error) {
	return s.adminCredit(ctx, actor, userID, amount, "CreditBalance",
		func(repo Repository) (*Wallet, error) {
			return repo.CreditBalance(ctx, userID, amount)
		},
	)
}

// CreditWithdrawalBalance adds funds to a user's withdrawal balance. Admin only.
func (s *Service) CreditWithdrawalBalance(
	ctx context.Context,
	actor Actor,
	userID string,
	amount int64,
) (*Wallet, error) {
	return s.adminCredit(ctx, actor, userID, amount, "CreditWithdrawalBalance",
		func(repo Repository) (*Wallet, error) {
			return repo.CreditWithdrawalBalance(ctx, userID, amount)
		},
	)
}

func (s *Service) adminCredit(
	ctx context.Context,
	actor Actor,
	userID string,
	amount int64,
	op string,
	apply func(repo Repository) (*Wallet, error),
) (w *Wallet, err error) {
	ctx, span := s.start(ctx, op, actor,
		attribute.String("user.id", userID),
		attribute.Int64("amount", amount),
	)
	defer func() { s.finish(span, op, err) }()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !validID(userID) {
		return nil, core.ErrNotFound
	}

	w, err = apply(s.repo)
	if err != nil {
		return nil, err
	}

	event := events.New(events.TypeWalletCredited, userID, w.ID, amount)
	event.ActorID = actor.UserID
	s.committed(ctx, event, userID)

	return w, nil
}

func (s *Service) GetWallet(ctx context.Context, actor Actor) (*Wallet, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	return s.repo.GetWallet(ctx, actor.UserID)
}

// Dashboard returns the caller's wallet, active investments and recent
// withdrawals, served from cache when possible.
func (s *Service) Dashboard(ctx context.Context, actor Actor) (*Dashboard, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}

	cached, gen, ok := s.cache.Get(ctx, actor.UserID)
	if ok {
		return cached, nil
	}

	wallet, err := s.repo.GetWallet(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	investments, err := s.repo.ListInvestmentsByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	withdrawals, err := s.repo.ListWithdrawalsByUser(ctx, actor.UserID, recentWithdrawalLimit)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Wallet:            ToWalletResponse(wallet),
		ActiveInvestments: make([]InvestmentResponse, 0),
		RecentWithdrawals: ToWithdrawalResponseList(withdrawals),
	}
	for i := range investments {
		if !investments[i].IsActive() {
			continue
		}
		d.ActiveInvestments = append(d.ActiveInvestments, ToInvestmentResponse(&investments[i]))
		d.TotalInvested += investments[i].Amount
		d.DailyIncome += investments[i].DailyReturn
	}

	s.cache.Set(ctx, actor.UserID, gen, d)

	return d, nil
}

func (s *Service) ListMyInvestments(ctx context.Context, actor Actor) ([]Investment, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	return s.repo.ListInvestmentsByUser(ctx, actor.UserID)
}

func (s *Service) ListMyWithdrawals(
	ctx context.Context,
	actor Actor,
	limit int,
) ([]WithdrawalRequest, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if limit < 1 || limit > 100 {
		limit = 100
	}
	return s.repo.ListWithdrawalsByUser(ctx, actor.UserID, limit)
}

func (s *Service) ListUserInvestments(
	ctx context.Context,
	actor Actor,
	userID string,
) ([]Investment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !validID(userID) {
		return nil, core.ErrNotFound
	}
	return s.repo.ListInvestmentsByUser(ctx, userID)
}

func (s *Service) ListInvestments(
	ctx context.Context,
	actor Actor,
	params ListParams,
) ([]InvestmentWithUser, int, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, 0, err
	}
	params.Normalize()
	return s.repo.ListInvestments(ctx, params)
}

func (s *Service) ListWithdrawals(
	ctx context.Context,
	actor Actor,
	params ListParams,
) ([]WithdrawalWithUser, int, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, 0, err
	}
	params.Normalize()
	return s.repo.ListWithdrawals(ctx, params)
}
