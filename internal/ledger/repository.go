// AngelaMos | 2026
// repository.go

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/vipledger/internal/core"
)

// errNotCredited is returned by CreditInvestmentReturn when the investment
// no longer qualifies for a credit (status changed or already credited today).
var errNotCredited = errors.New("investment not credited")

type Repository interface {
	WithTx(ctx context.Context, fn func(repo Repository) error) error

	GetWallet(ctx context.Context, userID string) (*Wallet, error)
	DebitBalance(ctx context.Context, userID string, amount int64) (*Wallet, error)
	CreditBalance(ctx context.Context, userID string, amount int64) (*Wallet, error)
	DebitWithdrawalBalance(ctx context.Context, userID string, amount int64) (*Wallet, error)
	CreditWithdrawalBalance(ctx context.Context, userID string, amount int64) (*Wallet, error)

	CountActiveInvestments(ctx context.Context, userID string) (int, error)
	CreateInvestment(ctx context.Context, inv *Investment) error
	GetInvestment(ctx context.Context, id string) (*Investment, error)
	CancelInvestment(ctx context.Context, id string) (*Investment, error)
	ListActiveInvestments(ctx context.Context) ([]Investment, error)
	CreditInvestmentReturn(ctx context.Context, id string, today, now time.Time, guard bool) (*Investment, error)
	ListInvestmentsByUser(ctx context.Context, userID string) ([]Investment, error)
	ListInvestments(ctx context.Context, params ListParams) ([]InvestmentWithUser, int, error)

	CreateWithdrawal(ctx context.Context, w *WithdrawalRequest) error
	GetWithdrawal(ctx context.Context, id string) (*WithdrawalRequest, error)
	TransitionWithdrawal(ctx context.Context, id, status, adminID string) (*WithdrawalRequest, error)
	ListWithdrawalsByUser(ctx context.Context, userID string, limit int) ([]WithdrawalRequest, error)
	ListWithdrawals(ctx context.Context, params ListParams) ([]WithdrawalWithUser, int, error)
}

type repository struct {
	db   core.DBTX
	root *core.Database
}

func NewRepository(db *core.Database) Repository {
	return &repository{db: db, root: db}
}

// WithTx runs fn against a repository bound to a single transaction.
// Calls made on an already transactional repository join the outer
// transaction.
func (r *repository) WithTx(
	ctx context.Context,
	fn func(repo Repository) error,
) error {
	if r.root == nil {
		return fn(r)
	}
	return r.root.InTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&repository{db: tx})
	})
}

const walletColumns = `id, user_id, balance, withdrawal_balance, updated_at`

func (r *repository) GetWallet(ctx context.Context, userID string) (*Wallet, error) {
	query := `
		SELECT w.id, w.user_id, w.balance, w.withdrawal_balance, w.updated_at,
		       u.phone
		FROM wallets w
		JOIN users u ON u.id = w.user_id
		WHERE w.user_id = $1`

	var w Wallet
	err := r.db.GetContext(ctx, &w, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get wallet: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get wallet: %w", err)
	}

	return &w, nil
}

func (r *repository) DebitBalance(
	ctx context.Context,
	userID string,
	amount int64,
) (*Wallet, error) {
	query := `
		UPDATE wallets
		SET balance = balance - $2, updated_at = NOW()
		WHERE user_id = $1 AND balance >= $2
		RETURNING ` + walletColumns

	return r.debit(ctx, "debit balance", query, userID, amount, ErrInsufficientFunds)
}

func (r *repository) DebitWithdrawalBalance(
	ctx context.Context,
	userID string,
	amount int64,
) (*Wallet, error) {
	query := `
		UPDATE wallets
		SET withdrawal_balance = withdrawal_balance - $2, updated_at = NOW()
		WHERE user_id = $1 AND withdrawal_balance >= $2
		RETURNING ` + walletColumns

	return r.debit(
		ctx, "debit withdrawal balance", query, userID, amount,
		ErrInsufficientWithdrawalBalance,
	)
}

// debit runs a conditional debit. When no row matches, a missing wallet is
// reported as not found and an existing one as insufficient.
func (r *repository) debit(
	ctx context.Context,
	op, query, userID string,
	amount int64,
	insufficient error,
) (*Wallet, error) {
	var w Wallet
	err := r.db.GetContext(ctx, &w, query, userID, amount)
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var exists bool
	if err := r.db.GetContext(
		ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM wallets WHERE user_id = $1)`,
		userID,
	); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil, fmt.Errorf("%s: %w", op, insufficient)
}

func (r *repository) CreditBalance(
	ctx context.Context,
	userID string,
	amount int64,
) (*Wallet, error) {
	query := `
		UPDATE wallets
		SET balance = balance + $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING ` + walletColumns

	return r.credit(ctx, "credit balance", query, userID, amount)
}

func (r *repository) CreditWithdrawalBalance(
	ctx context.Context,
	userID string,
	amount int64,
) (*Wallet, error) {
	query := `
		UPDATE wallets
		SET withdrawal_balance = withdrawal_balance + $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING ` + walletColumns

	return r.credit(ctx, "credit withdrawal balance", query, userID, amount)
}

func (r *repository) credit(
	ctx context.Context,
	op, query, userID string,
	amount int64,
) (*Wallet, error) {
	var w Wallet
	err := r.db.GetContext(ctx, &w, query, userID, amount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &w, nil
}

func (r *repository) CountActiveInvestments(
	ctx context.Context,
	userID string,
) (int, error) {
	query := `SELECT COUNT(*) FROM investments WHERE user_id = $1 AND status = 'ACTIVE'`

	var n int
	if err := r.db.GetContext(ctx, &n, query, userID); err != nil {
		return 0, fmt.Errorf("count active investments: %w", err)
	}

	return n, nil
}

const investmentColumns = `id, user_id, package_id, amount, daily_return, duration_days,
		       status, start_date, end_date, last_credited_on, credited_days,
		       total_returned, created_at, updated_at`

func (r *repository) CreateInvestment(ctx context.Context, inv *Investment) error {
	query := `
		INSERT INTO investments (id, user_id, package_id, amount, daily_return,
		                         duration_days, status, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING credited_days, total_returned, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		inv.ID,
		inv.UserID,
		inv.PackageID,
		inv.Amount,
		inv.DailyReturn,
		inv.DurationDays,
		inv.Status,
		inv.StartDate,
		inv.EndDate,
	).Scan(&inv.CreditedDays, &inv.TotalReturned, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create investment: %w", err)
	}

	return nil
}

func (r *repository) GetInvestment(ctx context.Context, id string) (*Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE id = $1`

	var inv Investment
	err := r.db.GetContext(ctx, &inv, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get investment: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get investment: %w", err)
	}

	return &inv, nil
}

func (r *repository) CancelInvestment(ctx context.Context, id string) (*Investment, error) {
	query := `
		UPDATE investments
		SET status = 'CANCELLED', updated_at = NOW()
		WHERE id = $1 AND status = 'ACTIVE'
		RETURNING ` + investmentColumns

	var inv Investment
	err := r.db.GetContext(ctx, &inv, query, id)
	if err == nil {
		return &inv, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("cancel investment: %w", err)
	}

	if _, err := r.GetInvestment(ctx, id); err != nil {
		return nil, fmt.Errorf("cancel investment: %w", err)
	}

	return nil, fmt.Errorf("cancel investment: %w", ErrNotActive)
}

func (r *repository) ListActiveInvestments(ctx context.Context) ([]Investment, error) {
	query := `
		SELECT ` + investmentColumns + `
		FROM investments
		WHERE status = 'ACTIVE'
		ORDER BY created_at`

	var out []Investment
	if err := r.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("list active investments: %w", err)
	}

	return out, nil
}

// CreditInvestmentReturn records one daily credit on an ACTIVE investment
// and completes it once now has reached its end date. With guard set, an
// investment already credited on today is left alone.
func (r *repository) CreditInvestmentReturn(
	ctx context.Context,
	id string,
	today, now time.Time,
	guard bool,
) (*Investment, error) {
	query := `
		UPDATE investments
		SET credited_days = credited_days + 1,
		    total_returned = total_returned + daily_return,
		    last_credited_on = $2,
		    status = CASE WHEN end_date <= $3 THEN 'COMPLETED' ELSE status END,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'ACTIVE'`
	if guard {
		query += `
		  AND (last_credited_on IS NULL OR last_credited_on < $2)`
	}
	query += `
		RETURNING ` + investmentColumns

	var inv Investment
	err := r.db.GetContext(ctx, &inv, query, id, today, now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNotCredited
	}
	if err != nil {
		return nil, fmt.Errorf("credit investment return: %w", err)
	}

	return &inv, nil
}

func (r *repository) ListInvestmentsByUser(
	ctx context.Context,
	userID string,
) ([]Investment, error) {
	query := `
		SELECT ` + investmentColumns + `
		FROM investments
		WHERE user_id = $1
		ORDER BY created_at DESC`

	var out []Investment
	if err := r.db.SelectContext(ctx, &out, query, userID); err != nil {
		return nil, fmt.Errorf("list user investments: %w", err)
	}

	return out, nil
}

func (r *repository) ListInvestments(
	ctx context.Context,
	params ListParams,
) ([]InvestmentWithUser, int, error) {
	where, args := params.filter("i")

	countQuery := `
		SELECT COUNT(*)
		FROM investments i
		JOIN users u ON u.id = i.user_id` + where

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count investments: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT i.id, i.user_id, i.package_id, i.amount, i.daily_return,
		       i.duration_days, i.status, i.start_date, i.end_date,
		       i.last_credited_on, i.credited_days, i.total_returned,
		       i.created_at, i.updated_at,
		       u.name AS user_name, u.phone AS user_phone
		FROM investments i
		JOIN users u ON u.id = i.user_id%s
		ORDER BY i.created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)

	args = append(args, params.PageSize, params.Offset())

	var out []InvestmentWithUser
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list investments: %w", err)
	}

	return out, total, nil
}

const withdrawalColumns = `id, user_id, amount, destination, status,
		       processed_by, processed_at, created_at`

func (r *repository) CreateWithdrawal(ctx context.Context, w *WithdrawalRequest) error {
	query := `
		INSERT INTO withdrawal_requests (id, user_id, amount, destination, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &w.CreatedAt, query,
		w.ID,
		w.UserID,
		w.Amount,
		w.Destination,
		w.Status,
	)
	if err != nil {
		return fmt.Errorf("create withdrawal: %w", err)
	}

	return nil
}

func (r *repository) GetWithdrawal(
	ctx context.Context,
	id string,
) (*WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE id = $1`

	var w WithdrawalRequest
	err := r.db.GetContext(ctx, &w, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get withdrawal: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get withdrawal: %w", err)
	}

	return &w, nil
}

// TransitionWithdrawal moves a PENDING request to status. Requests that are
// missing or already decided are reported as not found or not pending.
func (r *repository) TransitionWithdrawal(
	ctx context.Context,
	id, status, adminID string,
) (*WithdrawalRequest, error) {
	query := `
		UPDATE withdrawal_requests
		SET status = $2, processed_by = $3, processed_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
		RETURNING ` + withdrawalColumns

	var w WithdrawalRequest
	err := r.db.GetContext(ctx, &w, query, id, status, adminID)
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transition withdrawal: %w", err)
	}

	if _, err := r.GetWithdrawal(ctx, id); err != nil {
		return nil, fmt.Errorf("transition withdrawal: %w", err)
	}

	return nil, fmt.Errorf("transition withdrawal: %w", ErrNotPending)
}

func (r *repository) ListWithdrawalsByUser(
	ctx context.Context,
	userID string,
	limit int,
) ([]WithdrawalRequest, error) {
	query := `
		SELECT ` + withdrawalColumns + `
		FROM withdrawal_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	var out []WithdrawalRequest
	if err := r.db.SelectContext(ctx, &out, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list user withdrawals: %w", err)
	}

	return out, nil
}

func (r *repository) ListWithdrawals(
	ctx context.Context,
	params ListParams,
) ([]WithdrawalWithUser, int, error) {
	where, args := params.filter("w")

	countQuery := `
		SELECT COUNT(*)
		FROM withdrawal_requests w
		JOIN users u ON u.id = w.user_id` + where

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count withdrawals: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT w.id, w.user_id, w.amount, w.destination, w.status,
		       w.processed_by, w.processed_at, w.created_at,
		       u.name AS user_name, u.phone AS user_phone
		FROM withdrawal_requests w
		JOIN users u ON u.id = w.user_id%s
		ORDER BY (w.status = 'PENDING') DESC, w.created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)

	args = append(args, params.PageSize, params.Offset())

	var out []WithdrawalWithUser
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list withdrawals: %w", err)
	}

	return out, total, nil
}

// filter builds the WHERE clause shared by the admin listings. alias is the
// table alias of the ledger table; users is always joined as u.
func (p ListParams) filter(alias string) (string, []any) {
	var conditions []string
	var args []any
	argIdx := 1

	if p.Status != "" {
		conditions = append(conditions, fmt.Sprintf("%s.status = $%d", alias, argIdx))
		args = append(args, p.Status)
		argIdx++
	}

	if p.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("%s.user_id = $%d", alias, argIdx))
		args = append(args, p.UserID)
		argIdx++
	}

	if p.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(u.name ILIKE $%d OR u.phone ILIKE $%d)", argIdx, argIdx,
		))
		args = append(args, "%"+core.EscapeLike(p.Search)+"%")
	}

	if len(conditions) == 0 {
		return "", args
	}

	return "\n\t\tWHERE " + strings.Join(conditions, " AND "), args
}
