// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/vipledger/internal/core"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(repo Repository) error) error

	Create(ctx context.Context, user *User) error
	CreateWallet(ctx context.Context, userID string) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
	GetByReferralCode(ctx context.Context, code string) (*User, error)
	ReferralCodeExists(ctx context.Context, code string) (bool, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateRole(ctx context.Context, id, role string) (*User, error)

	GetWithWallet(ctx context.Context, id string) (*UserWithWallet, error)
	List(ctx context.Context, params ListUsersParams) ([]UserWithWallet, int, error)
	ListReferrals(ctx context.Context, referrerID string) ([]Referral, error)
	ListAllReferrals(ctx context.Context, params ListUsersParams) ([]ReferralWithReferrer, int, error)
}

type repository struct {
	db   core.DBTX
	root *core.Database
}

func NewRepository(db *core.Database) Repository {
	return &repository{db: db, root: db}
}

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

const userColumns = `id, name, phone, password_hash, role, referral_code,
		       referrer_id, created_at, updated_at`

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, name, phone, password_hash, role, referral_code, referrer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		user.ID,
		user.Name,
		user.Phone,
		user.PasswordHash,
		user.Role,
		user.ReferralCode,
		user.ReferrerID,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) CreateWallet(ctx context.Context, userID string) error {
	query := `
		INSERT INTO wallets (id, user_id, balance, withdrawal_balance)
		VALUES ($1, $2, 0, 0)`

	if _, err := r.db.ExecContext(ctx, query, uuid.New().String(), userID); err != nil {
		return fmt.Errorf("create wallet: %w", err)
	}

	return nil
}

func (r *repository) getOne(ctx context.Context, op, where string, arg any) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	var user User
	err := r.db.GetContext(ctx, &user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, "get user", "id = $1", id)
}

func (r *repository) GetByPhone(ctx context.Context, phone string) (*User, error) {
	return r.getOne(ctx, "get user by phone", "phone = $1", phone)
}

func (r *repository) GetByReferralCode(ctx context.Context, code string) (*User, error) {
	return r.getOne(ctx, "get user by referral code", "referral_code = $1", code)
}

func (r *repository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE referral_code = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, code); err != nil {
		return false, fmt.Errorf("check referral code: %w", err)
	}

	return exists, nil
}

func (r *repository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) UpdateRole(ctx context.Context, id, role string) (*User, error) {
	query := `
		UPDATE users
		SET role = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	var user User
	err := r.db.GetContext(ctx, &user, query, id, role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update role: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}

	return &user, nil
}

const userWithWalletColumns = `u.id, u.name, u.phone, u.role, u.referral_code,
		       u.referrer_id, u.created_at, u.updated_at,
		       COALESCE(w.balance, 0) AS balance,
		       COALESCE(w.withdrawal_balance, 0) AS withdrawal_balance`

func (r *repository) GetWithWallet(ctx context.Context, id string) (*UserWithWallet, error) {
	query := `
		SELECT ` + userWithWalletColumns + `
		FROM users u
		LEFT JOIN wallets w ON w.user_id = u.id
		WHERE u.id = $1`

	var user UserWithWallet
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user with wallet: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user with wallet: %w", err)
	}

	return &user, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]UserWithWallet, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(u.name ILIKE $%d OR u.phone ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+core.EscapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("u.role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM users u " + whereClause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users u
		LEFT JOIN wallets w ON w.user_id = u.id
		%s
		ORDER BY u.created_at DESC
		LIMIT $%d OFFSET $%d`,
		userWithWalletColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var users []UserWithWallet
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

const referralColumns = `u.id, u.name, u.phone, u.created_at,
		       EXISTS (
		           SELECT 1 FROM investments i
		           WHERE i.user_id = u.id AND i.status = 'ACTIVE'
		       ) AS is_active`

func (r *repository) ListReferrals(ctx context.Context, referrerID string) ([]Referral, error) {
	query := `
		SELECT ` + referralColumns + `
		FROM users u
		WHERE u.referrer_id = $1
		ORDER BY u.created_at DESC`

	var refs []Referral
	if err := r.db.SelectContext(ctx, &refs, query, referrerID); err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}

	return refs, nil
}

func (r *repository) ListAllReferrals(
	ctx context.Context,
	params ListUsersParams,
) ([]ReferralWithReferrer, int, error) {
	params.Normalize()

	var args []any
	argIdx := 1
	whereClause := ""

	if params.Search != "" {
		whereClause = fmt.Sprintf(`AND (u.name ILIKE $%d OR u.phone ILIKE $%d
		       OR ref.name ILIKE $%d OR ref.phone ILIKE $%d)`,
			argIdx, argIdx, argIdx, argIdx)
		args = append(args, "%"+core.EscapeLike(params.Search)+"%")
		argIdx++
	}

	countQuery := `
		SELECT COUNT(*)
		FROM users u
		JOIN users ref ON ref.id = u.referrer_id
		WHERE u.referrer_id IS NOT NULL ` + whereClause

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count referrals: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s,
		       ref.id AS referrer_id, ref.name AS referrer_name,
		       ref.phone AS referrer_phone
		FROM users u
		JOIN users ref ON ref.id = u.referrer_id
		WHERE u.referrer_id IS NOT NULL %s
		ORDER BY u.created_at DESC
		LIMIT $%d OFFSET $%d`,
		referralColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var refs []ReferralWithReferrer
	if err := r.db.SelectContext(ctx, &refs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list all referrals: %w", err)
	}

	return refs, total, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
