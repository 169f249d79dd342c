package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"

	"swipefeed/models"
	"swipefeed/query"
)

// CandidateColumns is the column order every candidate query must select in.
// The ranking procedure returns these columns and the fallback query aliases
// its expressions to them.
var CandidateColumns = []string{
	"user_id",
	"name",
	"age",
	"gender",
	"bio",
	"city",
	"region",
	"country",
	"distance_km",
	"occupation",
	"company",
	"education",
	"interests",
	"photos",
	"score",
	"interest_score",
	"proximity_score",
	"activity_score",
	"last_active_at",
}

// DB handles all database operations with a shared connection pool
type DB struct {
	db *sql.DB
}

func NewDB(ctx context.Context, cfg ConnectionConfig) (*DB, error) {
	conn, err := connection(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &DB{db: conn}, nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

// Ping is used by the health endpoint
func (db *DB) Ping(ctx context.Context) error {
	return db.db.PingContext(ctx)
}

// Read operations

// GetRankedCandidates calls the ranking procedure for one page of candidates.
func (db *DB) GetRankedCandidates(ctx context.Context, procedure string, viewerID string, limit int, cursor *models.Cursor) ([]models.CandidateProfile, error) {
	sql, args := rankingQuery(procedure, viewerID, limit, cursor)

	log.WithFields(log.Fields{
		"procedure": procedure,
		"viewer":    viewerID,
		"limit":     limit,
		"cursor":    cursor,
	}).Debug("Calling ranking procedure")

	rows, err := db.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ranking procedure error: %w", err)
	}
	return scanCandidates(rows)
}

// GetCandidates runs a candidate query built outside this package.
func (db *DB) GetCandidates(ctx context.Context, builder query.Builder, viewerID string, limit int) ([]models.CandidateProfile, error) {
	sql, args := builder.Build(viewerID, limit)

	log.WithFields(log.Fields{
		"sql":  sql,
		"args": args,
	}).Debug("Generated SQL query")

	rows, err := db.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	return scanCandidates(rows)
}

func rankingQuery(procedure string, viewerID string, limit int, cursor *models.Cursor) (string, []interface{}) {
	var afterScore, afterUser interface{}
	if cursor != nil {
		afterScore = cursor.AfterScore
		afterUser = cursor.AfterUser
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(CandidateColumns...)
	sb.From(fmt.Sprintf("%s(%s::uuid, %s::integer, %s::double precision, %s::uuid)",
		quoteProcedure(procedure),
		sb.Args.Add(viewerID),
		sb.Args.Add(limit),
		sb.Args.Add(afterScore),
		sb.Args.Add(afterUser),
	))

	return sb.Build()
}

// quoteProcedure quotes each part of a possibly schema qualified name
func quoteProcedure(name string) string {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		parts[i] = pq.QuoteIdentifier(part)
	}
	return strings.Join(parts, ".")
}

func scanCandidates(rows *sql.Rows) ([]models.CandidateProfile, error) {
	defer rows.Close()

	candidates := []models.CandidateProfile{}
	for rows.Next() {
		var c models.CandidateProfile
		if err := rows.Scan(
			&c.UserID,
			&c.Name,
			&c.Age,
			&c.Gender,
			&c.Bio,
			&c.City,
			&c.Region,
			&c.Country,
			&c.DistanceKm,
			&c.Occupation,
			&c.Company,
			&c.Education,
			pq.Array(&c.Interests),
			pq.Array(&c.Photos),
			&c.Score,
			&c.InterestScore,
			&c.ProximityScore,
			&c.ActivityScore,
			&c.LastActiveAt,
		); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return candidates, nil
}

// Write operations

// CreateInteraction stores a swipe decision. A repeated swipe on the same
// user replaces the earlier decision.
func (db *DB) CreateInteraction(ctx context.Context, interaction models.Interaction) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	log.WithFields(log.Fields{
		"from": interaction.FromUserID,
		"to":   interaction.ToUserID,
		"kind": interaction.Kind,
	}).Info("Creating interaction")

	sql, args := interactionInsert(interaction)
	if _, err := db.db.ExecContext(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert error: %w", err)
	}

	return nil
}

func interactionInsert(interaction models.Interaction) (string, []interface{}) {
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto("interactions").
		Cols("from_user_id", "to_user_id", "interaction_type").
		Values(interaction.FromUserID, interaction.ToUserID, string(interaction.Kind))
	ib.SQL("ON CONFLICT (from_user_id, to_user_id) DO UPDATE SET interaction_type = EXCLUDED.interaction_type, created_at = now()")
	return ib.Build()
}

// BumpActivity calls the activity procedure for the user
func (db *DB) BumpActivity(ctx context.Context, procedure string, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(fmt.Sprintf("%s(%s::uuid)", quoteProcedure(procedure), sb.Args.Add(userID)))
	sql, args := sb.Build()

	if _, err := db.db.ExecContext(ctx, sql, args...); err != nil {
		return fmt.Errorf("activity procedure error: %w", err)
	}
	return nil
}
