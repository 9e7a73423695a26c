package loyalty

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrRewardNotFound indicates the reward id is unknown.
	ErrRewardNotFound = errors.New("loyalty: reward not found")
	// ErrReferralNotFound indicates the referral code is unknown.
	ErrReferralNotFound = errors.New("loyalty: referral code not found")
)

// ReferralCode is a stored referral code.
type ReferralCode struct {
	Code              string
	RewardDescription string
	Active            bool
}

// Repository provides loyalty storage.
type Repository interface {
	GetCustomerPoints(ctx context.Context, customerID string) (int, error)
	AwardPoints(ctx context.Context, customerID string, points int) error
	GetReward(ctx context.Context, rewardID string) (*Reward, error)
	GetReferralCode(ctx context.Context, code string) (*ReferralCode, error)
}

type db interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores loyalty state in Postgres.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository creates a loyalty repository backed by a pgx pool.
func NewPostgresRepository(db db) *PostgresRepository {
	if db == nil {
		panic("loyalty: db required")
	}
	return &PostgresRepository{db: db}
}

// GetCustomerPoints returns a customer's current balance; unknown customers
// have zero points rather than an error.
func (r *PostgresRepository) GetCustomerPoints(ctx context.Context, customerID string) (int, error) {
	var points int
	err := r.db.QueryRow(ctx,
		`SELECT points FROM loyalty_accounts WHERE customer_id = $1`, customerID).Scan(&points)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("loyalty: get points: %w", err)
	}
	return points, nil
}

// AwardPoints adds earned points to a customer's balance, creating the
// account row on first award.
func (r *PostgresRepository) AwardPoints(ctx context.Context, customerID string, points int) error {
	if points <= 0 {
		return nil
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO loyalty_accounts (customer_id, points) VALUES ($1, $2)
		 ON CONFLICT (customer_id) DO UPDATE SET points = loyalty_accounts.points + EXCLUDED.points`,
		customerID, points)
	if err != nil {
		return fmt.Errorf("loyalty: award points: %w", err)
	}
	return nil
}

// GetReward loads a reward definition.
func (r *PostgresRepository) GetReward(ctx context.Context, rewardID string) (*Reward, error) {
	var reward Reward
	err := r.db.QueryRow(ctx,
		`SELECT id, name, points_cost FROM loyalty_rewards WHERE id = $1`, rewardID).
		Scan(&reward.ID, &reward.Name, &reward.PointsCost)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRewardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loyalty: get reward: %w", err)
	}
	return &reward, nil
}

// GetReferralCode loads a referral code; the caller passes a normalized code.
func (r *PostgresRepository) GetReferralCode(ctx context.Context, code string) (*ReferralCode, error) {
	var ref ReferralCode
	err := r.db.QueryRow(ctx,
		`SELECT code, reward_description, active FROM referral_codes WHERE code = $1`, code).
		Scan(&ref.Code, &ref.RewardDescription, &ref.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReferralNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loyalty: get referral code: %w", err)
	}
	return &ref, nil
}
