/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains the SQL needed to read credit requests (with their applicant and
 * financial-profile associations), persist ML scores, and manage the lifecycle
 * of credit decisions.
 *
 * Key implementation detail: the one-decision-per-request invariant is owned by
 * a unique index on credit_decisions.credit_request_id. A duplicate-key error
 * (SQLSTATE 23505) from InsertDecision is translated to ErrDecisionExists, so
 * two concurrent creates that both pass the application-level lookup still
 * resolve to exactly one decision.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lendwise/credit-service/internal/domain"
)

const pgUniqueViolation = "23505"

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const creditRequestColumns = `id, user_id, financial_profile_id, requested_amount, repayment_amount,
	repayment_period_months, interest_rate, purpose, status, ml_score,
	submitted_at, reviewed_at, approved_at, created_at, updated_at`

func scanCreditRequest(row pgx.Row, cr *domain.CreditRequest) error {
	return row.Scan(
		&cr.ID, &cr.UserID, &cr.FinancialProfileID, &cr.RequestedAmount, &cr.RepaymentAmount,
		&cr.RepaymentPeriodMonths, &cr.InterestRate, &cr.Purpose, &cr.Status, &cr.MLScore,
		&cr.SubmittedAt, &cr.ReviewedAt, &cr.ApprovedAt, &cr.CreatedAt, &cr.UpdatedAt,
	)
}

// FindCreditRequestByID retrieves a credit request, optionally hydrating the
// user and financial-profile associations the scoring payload needs.
func (r *PostgresRepository) FindCreditRequestByID(ctx context.Context, id uuid.UUID, withAssociations bool) (*domain.CreditRequest, error) {
	var cr domain.CreditRequest
	query := fmt.Sprintf("SELECT %s FROM credit_requests WHERE id = $1", creditRequestColumns)
	if err := scanCreditRequest(r.db.QueryRow(ctx, query, id), &cr); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrCreditRequestNotFound
		}
		return nil, err
	}

	if !withAssociations {
		return &cr, nil
	}

	var user domain.User
	err := r.db.QueryRow(ctx,
		`SELECT id, email, first_name, last_name, date_of_birth, status, created_at FROM users WHERE id = $1`,
		cr.UserID,
	).Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.DateOfBirth, &user.Status, &user.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	cr.User = &user

	if cr.FinancialProfileID == nil {
		return nil, ErrFinancialProfileNotFound
	}
	var profile domain.FinancialProfile
	err = r.db.QueryRow(ctx,
		`SELECT id, user_id, monthly_income, monthly_expenses, existing_debts, employment_status,
			employer_name, employment_duration, credit_score, verification_status, created_at, updated_at
		FROM financial_profiles WHERE id = $1`,
		*cr.FinancialProfileID,
	).Scan(&profile.ID, &profile.UserID, &profile.MonthlyIncome, &profile.MonthlyExpenses, &profile.ExistingDebts,
		&profile.EmploymentStatus, &profile.EmployerName, &profile.EmploymentDuration, &profile.CreditScore,
		&profile.VerificationStatus, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrFinancialProfileNotFound
		}
		return nil, err
	}
	cr.FinancialProfile = &profile

	return &cr, nil
}

// UpdateCreditRequestFields applies a partial update; nil patch fields are skipped.
func (r *PostgresRepository) UpdateCreditRequestFields(ctx context.Context, id uuid.UUID, patch CreditRequestPatch) error {
	sets := []string{"updated_at = now()"}
	args := []interface{}{id}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.MLScore != nil {
		add("ml_score", *patch.MLScore)
	}
	if patch.ReviewedAt != nil {
		add("reviewed_at", *patch.ReviewedAt)
	}
	if patch.ApprovedAt != nil {
		add("approved_at", *patch.ApprovedAt)
	}

	query := fmt.Sprintf("UPDATE credit_requests SET %s WHERE id = $1", strings.Join(sets, ", "))
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCreditRequestNotFound
	}
	return nil
}

// ListCreditRequestsByUserID returns the user's most recent requests, newest first.
func (r *PostgresRepository) ListCreditRequestsByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]domain.CreditRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM credit_requests WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2", creditRequestColumns)
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []domain.CreditRequest
	for rows.Next() {
		var cr domain.CreditRequest
		if err := scanCreditRequest(rows, &cr); err != nil {
			return nil, err
		}
		requests = append(requests, cr)
	}
	return requests, rows.Err()
}

const creditDecisionColumns = `id, credit_request_id, decision, approved_amount, final_interest_rate,
	approved_repayment_period, monthly_payment, reason, decision_factors, risk_score,
	reviewed_by, reviewed_at, expires_at, is_accepted, accepted_at, created_at, updated_at`

func scanCreditDecision(row pgx.Row, d *domain.CreditDecision) error {
	var factors []byte
	err := row.Scan(
		&d.ID, &d.CreditRequestID, &d.Decision, &d.ApprovedAmount, &d.FinalInterestRate,
		&d.ApprovedRepaymentPeriod, &d.MonthlyPayment, &d.Reason, &factors, &d.RiskScore,
		&d.ReviewedBy, &d.ReviewedAt, &d.ExpiresAt, &d.IsAccepted, &d.AcceptedAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if len(factors) > 0 {
		if err := json.Unmarshal(factors, &d.DecisionFactors); err != nil {
			return fmt.Errorf("decode decision factors: %w", err)
		}
	}
	return nil
}

// FindDecisionByID retrieves a credit decision by its id.
func (r *PostgresRepository) FindDecisionByID(ctx context.Context, id uuid.UUID) (*domain.CreditDecision, error) {
	var d domain.CreditDecision
	query := fmt.Sprintf("SELECT %s FROM credit_decisions WHERE id = $1", creditDecisionColumns)
	if err := scanCreditDecision(r.db.QueryRow(ctx, query, id), &d); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrDecisionNotFound
		}
		return nil, err
	}
	return &d, nil
}

// FindDecisionByCreditRequestID retrieves the decision rendered for a request, if any.
func (r *PostgresRepository) FindDecisionByCreditRequestID(ctx context.Context, creditRequestID uuid.UUID) (*domain.CreditDecision, error) {
	var d domain.CreditDecision
	query := fmt.Sprintf("SELECT %s FROM credit_decisions WHERE credit_request_id = $1", creditDecisionColumns)
	if err := scanCreditDecision(r.db.QueryRow(ctx, query, creditRequestID), &d); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrDecisionNotFound
		}
		return nil, err
	}
	return &d, nil
}

// ListDecisions returns all decisions, newest first.
func (r *PostgresRepository) ListDecisions(ctx context.Context) ([]domain.CreditDecision, error) {
	query := fmt.Sprintf("SELECT %s FROM credit_decisions ORDER BY created_at DESC", creditDecisionColumns)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decisions []domain.CreditDecision
	for rows.Next() {
		var d domain.CreditDecision
		if err := scanCreditDecision(rows, &d); err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

// InsertDecision persists a new decision. A unique-index violation on
// credit_request_id is reported as ErrDecisionExists.
func (r *PostgresRepository) InsertDecision(ctx context.Context, decision *domain.CreditDecision) error {
	if decision.ID == uuid.Nil {
		decision.ID = uuid.New()
	}
	now := time.Now().UTC()
	decision.CreatedAt = now
	decision.UpdatedAt = now

	factors, err := json.Marshal(decision.DecisionFactors)
	if err != nil {
		return fmt.Errorf("encode decision factors: %w", err)
	}

	query := `INSERT INTO credit_decisions (
		id, credit_request_id, decision, approved_amount, final_interest_rate,
		approved_repayment_period, monthly_payment, reason, decision_factors, risk_score,
		reviewed_by, reviewed_at, expires_at, is_accepted, accepted_at, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err = r.db.Exec(ctx, query,
		decision.ID, decision.CreditRequestID, decision.Decision, decision.ApprovedAmount, decision.FinalInterestRate,
		decision.ApprovedRepaymentPeriod, decision.MonthlyPayment, decision.Reason, factors, decision.RiskScore,
		decision.ReviewedBy, decision.ReviewedAt, decision.ExpiresAt, decision.IsAccepted, decision.AcceptedAt,
		decision.CreatedAt, decision.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDecisionExists
		}
		return err
	}
	return nil
}

// UpdateDecisionFields applies a partial update; nil patch fields are skipped.
func (r *PostgresRepository) UpdateDecisionFields(ctx context.Context, id uuid.UUID, patch DecisionPatch) error {
	sets := []string{"updated_at = now()"}
	args := []interface{}{id}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Decision != nil {
		add("decision", *patch.Decision)
	}
	if patch.ApprovedAmount != nil {
		add("approved_amount", *patch.ApprovedAmount)
	}
	if patch.FinalInterestRate != nil {
		add("final_interest_rate", *patch.FinalInterestRate)
	}
	if patch.ApprovedRepaymentPeriod != nil {
		add("approved_repayment_period", *patch.ApprovedRepaymentPeriod)
	}
	if patch.MonthlyPayment != nil {
		add("monthly_payment", *patch.MonthlyPayment)
	}
	if patch.Reason != nil {
		add("reason", *patch.Reason)
	}
	if patch.DecisionFactors != nil {
		factors, err := json.Marshal(patch.DecisionFactors)
		if err != nil {
			return fmt.Errorf("encode decision factors: %w", err)
		}
		add("decision_factors", factors)
	}
	if patch.RiskScore != nil {
		add("risk_score", *patch.RiskScore)
	}
	if patch.ReviewedBy != nil {
		add("reviewed_by", *patch.ReviewedBy)
	}
	if patch.IsAccepted != nil {
		add("is_accepted", *patch.IsAccepted)
	}
	if patch.AcceptedAt != nil {
		add("accepted_at", *patch.AcceptedAt)
	}

	query := fmt.Sprintf("UPDATE credit_decisions SET %s WHERE id = $1", strings.Join(sets, ", "))
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDecisionNotFound
	}
	return nil
}

// DeleteDecision removes a decision unconditionally.
func (r *PostgresRepository) DeleteDecision(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM credit_decisions WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDecisionNotFound
	}
	return nil
}
