// Package repository persists lead aggregates, score observations, and audit
// entries in PostgreSQL.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatlead_backend/internal/leads/domain"
	"chatlead_backend/platform/apperr"
)

// Repository is the PostgreSQL store for the leads module.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a lead repository backed by the given pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ScoreObservation is one persisted scoring pass.
type ScoreObservation struct {
	ID        uuid.UUID          `json:"id"`
	LeadID    uuid.UUID          `json:"leadId"`
	Score     float64            `json:"score"`
	Factors   map[string]float64 `json:"factors"`
	Degraded  bool               `json:"degraded"`
	Version   string             `json:"version"`
	CreatedAt time.Time          `json:"createdAt"`
}

// ListFilter narrows List results. Zero values mean no filtering.
type ListFilter struct {
	Stage    domain.QualificationStage
	Priority domain.LeadPriority
	Status   domain.LeadStatus
	MinScore float64
	Limit    int
	Offset   int
}

// LeadStats aggregates qualification outcomes for a tenant.
type LeadStats struct {
	TotalLeads     int                               `json:"totalLeads"`
	AverageScore   float64                           `json:"averageScore"`
	ByPriority     map[domain.LeadPriority]int       `json:"byPriority"`
	ByStage        map[domain.QualificationStage]int `json:"byStage"`
	QualifiedCount int                               `json:"qualifiedCount"`
}

const leadColumns = `
	id, tenant_id, conversation_id, chatbot_id,
	contact, qualification, metrics,
	strategy, lead_score, priority, status, stage, source,
	tags, notes, created_at, updated_at, last_interaction`

// Create inserts a new lead. A duplicate (tenant, conversation) pair maps to
// a conflict error.
func (r *Repository) Create(ctx context.Context, lead *domain.EnhancedLead) error {
	contact, qualification, metrics, err := marshalLeadDocs(lead)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO leads (
			id, tenant_id, conversation_id, chatbot_id,
			contact, qualification, metrics,
			strategy, lead_score, priority, status, stage, source,
			tags, notes, created_at, updated_at, last_interaction
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		lead.ID, lead.TenantID, lead.ConversationID, lead.ChatbotID,
		contact, qualification, metrics,
		lead.Strategy, lead.LeadScore, lead.Priority, lead.Status, lead.Stage, lead.Source,
		lead.Tags, lead.Notes, lead.CreatedAt, lead.UpdatedAt, lead.LastInteraction,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.Conflict("lead already exists for conversation")
		}
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

// GetByID fetches a lead scoped to its tenant.
func (r *Repository) GetByID(ctx context.Context, tenantID, leadID uuid.UUID) (*domain.EnhancedLead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE tenant_id = $1 AND id = $2`,
		tenantID, leadID,
	)
	return scanLead(row)
}

// GetByConversation fetches the lead attached to a conversation, if any.
func (r *Repository) GetByConversation(ctx context.Context, tenantID uuid.UUID, conversationID string) (*domain.EnhancedLead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE tenant_id = $1 AND conversation_id = $2`,
		tenantID, conversationID,
	)
	return scanLead(row)
}

// Update persists the full aggregate. The expected updated_at implements
// optimistic concurrency: a mismatch means another writer got there first and
// maps to a conflict error.
func (r *Repository) Update(ctx context.Context, lead *domain.EnhancedLead, expectedUpdatedAt time.Time) error {
	contact, qualification, metrics, err := marshalLeadDocs(lead)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET
			contact = $1, qualification = $2, metrics = $3,
			strategy = $4, lead_score = $5, priority = $6, status = $7, stage = $8,
			tags = $9, notes = $10, updated_at = $11, last_interaction = $12
		WHERE tenant_id = $13 AND id = $14 AND updated_at = $15`,
		contact, qualification, metrics,
		lead.Strategy, lead.LeadScore, lead.Priority, lead.Status, lead.Stage,
		lead.Tags, lead.Notes, lead.UpdatedAt, lead.LastInteraction,
		lead.TenantID, lead.ID, expectedUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("lead was modified concurrently")
	}
	return nil
}

// List returns leads for a tenant, newest first.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]domain.EnhancedLead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE tenant_id = $1`
	args := []any{tenantID}

	if filter.Stage != "" {
		args = append(args, filter.Stage)
		query += fmt.Sprintf(" AND stage = $%d", len(args))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		query += fmt.Sprintf(" AND priority = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.MinScore > 0 {
		args = append(args, filter.MinScore)
		query += fmt.Sprintf(" AND lead_score >= $%d", len(args))
	}

	query += " ORDER BY updated_at DESC"

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var leads []domain.EnhancedLead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	return leads, rows.Err()
}

// ListStale returns non-terminal leads whose last write is older than the
// cutoff, for periodic rescoring.
func (r *Repository) ListStale(ctx context.Context, olderThan time.Time, limit int) ([]domain.EnhancedLead, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE updated_at < $1 AND stage NOT IN ($2, $3)
		ORDER BY updated_at ASC
		LIMIT $4`,
		olderThan, domain.StageQualified, domain.StageDisqualified, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list stale leads: %w", err)
	}
	defer rows.Close()

	var leads []domain.EnhancedLead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	return leads, rows.Err()
}

// AppendScore records one scoring pass in the score history.
func (r *Repository) AppendScore(ctx context.Context, observation ScoreObservation) error {
	factors, err := json.Marshal(observation.Factors)
	if err != nil {
		return fmt.Errorf("marshal factors: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO lead_scores (id, lead_id, score, factors, degraded, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		observation.ID, observation.LeadID, observation.Score,
		factors, observation.Degraded, observation.Version, observation.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert score observation: %w", err)
	}
	return nil
}

// LatestScore returns the most recent score observation for a lead.
func (r *Repository) LatestScore(ctx context.Context, leadID uuid.UUID) (ScoreObservation, error) {
	var (
		observation ScoreObservation
		factors     []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, lead_id, score, factors, degraded, version, created_at
		FROM lead_scores
		WHERE lead_id = $1
		ORDER BY created_at DESC
		LIMIT 1`,
		leadID,
	).Scan(
		&observation.ID, &observation.LeadID, &observation.Score,
		&factors, &observation.Degraded, &observation.Version, &observation.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return ScoreObservation{}, apperr.NotFound("no score recorded for lead")
	}
	if err != nil {
		return ScoreObservation{}, fmt.Errorf("load latest score: %w", err)
	}
	if err := json.Unmarshal(factors, &observation.Factors); err != nil {
		return ScoreObservation{}, fmt.Errorf("unmarshal factors: %w", err)
	}
	return observation, nil
}

// ScoreHistory returns the most recent scores for a lead, oldest first, up to
// the given limit.
func (r *Repository) ScoreHistory(ctx context.Context, leadID uuid.UUID, limit int) ([]float64, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx, `
		SELECT score FROM (
			SELECT score, created_at
			FROM lead_scores
			WHERE lead_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC`,
		leadID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("load score history: %w", err)
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var score float64
		if err := rows.Scan(&score); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		scores = append(scores, score)
	}
	return scores, rows.Err()
}

// AppendAudit records audit entries for a lead.
func (r *Repository) AppendAudit(ctx context.Context, entries ...domain.AuditEntry) error {
	for _, entry := range entries {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO lead_audit (id, lead_id, event, from_value, to_value, note, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			entry.ID, entry.LeadID, entry.Event, entry.FromValue, entry.ToValue, entry.Note, entry.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert audit entry: %w", err)
		}
	}
	return nil
}

// AuditTrail returns the audit entries for a lead, oldest first.
func (r *Repository) AuditTrail(ctx context.Context, tenantID, leadID uuid.UUID) ([]domain.AuditEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.lead_id, a.event, a.from_value, a.to_value, a.note, a.created_at
		FROM lead_audit a
		JOIN leads l ON l.id = a.lead_id
		WHERE l.tenant_id = $1 AND a.lead_id = $2
		ORDER BY a.created_at ASC`,
		tenantID, leadID,
	)
	if err != nil {
		return nil, fmt.Errorf("load audit trail: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		if err := rows.Scan(&entry.ID, &entry.LeadID, &entry.Event, &entry.FromValue, &entry.ToValue, &entry.Note, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Stats aggregates lead counts and the average score per tenant.
func (r *Repository) Stats(ctx context.Context, tenantID uuid.UUID) (LeadStats, error) {
	stats := LeadStats{
		ByPriority: make(map[domain.LeadPriority]int),
		ByStage:    make(map[domain.QualificationStage]int),
	}

	row := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(AVG(lead_score), 0)
		FROM leads
		WHERE tenant_id = $1`,
		tenantID,
	)
	if err := row.Scan(&stats.TotalLeads, &stats.AverageScore); err != nil {
		return LeadStats{}, fmt.Errorf("lead totals: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT priority, stage, COUNT(*)
		FROM leads
		WHERE tenant_id = $1
		GROUP BY priority, stage`,
		tenantID,
	)
	if err != nil {
		return LeadStats{}, fmt.Errorf("lead breakdown: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var priority domain.LeadPriority
		var stage domain.QualificationStage
		var count int
		if err := rows.Scan(&priority, &stage, &count); err != nil {
			return LeadStats{}, fmt.Errorf("scan breakdown: %w", err)
		}
		stats.ByPriority[priority] += count
		stats.ByStage[stage] += count
		if stage == domain.StageQualified {
			stats.QualifiedCount += count
		}
	}
	return stats, rows.Err()
}

func marshalLeadDocs(lead *domain.EnhancedLead) (contact, qualification, metrics []byte, err error) {
	if contact, err = json.Marshal(lead.Contact); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal contact: %w", err)
	}
	if qualification, err = json.Marshal(lead.Qualification); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal qualification: %w", err)
	}
	if metrics, err = json.Marshal(lead.Metrics); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal metrics: %w", err)
	}
	return contact, qualification, metrics, nil
}

func scanLead(row pgx.Row) (*domain.EnhancedLead, error) {
	var lead domain.EnhancedLead
	var contact, qualification, metrics []byte

	err := row.Scan(
		&lead.ID, &lead.TenantID, &lead.ConversationID, &lead.ChatbotID,
		&contact, &qualification, &metrics,
		&lead.Strategy, &lead.LeadScore, &lead.Priority, &lead.Status, &lead.Stage, &lead.Source,
		&lead.Tags, &lead.Notes, &lead.CreatedAt, &lead.UpdatedAt, &lead.LastInteraction,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, fmt.Errorf("scan lead: %w", err)
	}

	if err := json.Unmarshal(contact, &lead.Contact); err != nil {
		return nil, fmt.Errorf("unmarshal contact: %w", err)
	}
	if err := json.Unmarshal(qualification, &lead.Qualification); err != nil {
		return nil, fmt.Errorf("unmarshal qualification: %w", err)
	}
	if err := json.Unmarshal(metrics, &lead.Metrics); err != nil {
		return nil, fmt.Errorf("unmarshal metrics: %w", err)
	}
	return &lead, nil
}
