package writer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
)

// HolocronWriter persists picks, their signals and their tier audit trail to Holocron
type HolocronWriter struct {
	db *sql.DB
}

// NewHolocronWriter creates a new Holocron writer
func NewHolocronWriter(db *sql.DB) *HolocronWriter {
	return &HolocronWriter{
		db: db,
	}
}

// WritePick inserts a new pick and its signals. Writing the same pick twice is a no-op.
func (w *HolocronWriter) WritePick(ctx context.Context, pick *models.Pick) error {
	signalsJSON, err := json.Marshal(pick.Signals)
	if err != nil {
		return fmt.Errorf("failed to marshal signals: %w", err)
	}
	historyJSON, err := json.Marshal(pick.TierHistory)
	if err != nil {
		return fmt.Errorf("failed to marshal tier history: %w", err)
	}

	types := make([]string, 0, len(pick.Signals))
	for _, sig := range pick.Signals {
		types = append(types, string(sig.Type))
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	pickQuery := `
		INSERT INTO picks (
			id, game_id, sport_key, home_team, away_team, market, side,
			line, best_book, best_price, base_confidence, confidence, tier,
			signal_types, signals, tier_history, created_at, last_evaluated_at, last_line
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO NOTHING
	`

	res, err := tx.ExecContext(
		ctx,
		pickQuery,
		pick.ID,
		pick.GameID,
		pick.SportKey,
		pick.HomeTeam,
		pick.AwayTeam,
		string(pick.Market),
		string(pick.Side),
		pick.Line,
		pick.BestBook,
		pick.BestPrice,
		pick.BaseConfidence,
		pick.Confidence,
		string(pick.Tier),
		pq.Array(types),
		signalsJSON,
		historyJSON,
		pick.CreatedAt,
		pick.LastEvaluatedAt,
		pick.LastLine,
	)
	if err != nil {
		return fmt.Errorf("failed to insert pick: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return tx.Commit()
	}

	signalQuery := `
		INSERT INTO pick_signals (
			pick_id, signal_type, category, market, side, confidence, magnitude, description
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, sig := range pick.Signals {
		_, err = tx.ExecContext(
			ctx,
			signalQuery,
			pick.ID,
			string(sig.Type),
			string(sig.Category),
			string(sig.Market),
			string(sig.Side),
			sig.Confidence,
			sig.Magnitude,
			sig.Description,
		)
		if err != nil {
			return fmt.Errorf("failed to insert pick signal: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdatePick stores the pick's evaluated state and appends any tier changes to the audit table
func (w *HolocronWriter) UpdatePick(ctx context.Context, pick *models.Pick, changes []models.TierChange) error {
	adjustmentsJSON, err := json.Marshal(pick.Adjustments)
	if err != nil {
		return fmt.Errorf("failed to marshal adjustments: %w", err)
	}
	historyJSON, err := json.Marshal(pick.TierHistory)
	if err != nil {
		return fmt.Errorf("failed to marshal tier history: %w", err)
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	updateQuery := `
		UPDATE picks
		SET confidence = $2, tier = $3, last_evaluated_at = $4, last_line = $5,
		    injury_applied = $6, leak_jumps = $7, adjustments = $8, tier_history = $9
		WHERE id = $1 AND graded = false
	`

	res, err := tx.ExecContext(
		ctx,
		updateQuery,
		pick.ID,
		pick.Confidence,
		string(pick.Tier),
		pick.LastEvaluatedAt,
		pick.LastLine,
		pick.InjuryApplied,
		pick.LeakJumps,
		adjustmentsJSON,
		historyJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to update pick: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: pick %s missing or graded", models.ErrInvalidState, pick.ID)
	}

	historyQuery := `
		INSERT INTO pick_tier_history (
			pick_id, from_tier, to_tier, confidence, reason, changed_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, change := range changes {
		_, err = tx.ExecContext(
			ctx,
			historyQuery,
			pick.ID,
			string(change.FromTier),
			string(change.ToTier),
			change.Confidence,
			change.Reason,
			change.At,
		)
		if err != nil {
			return fmt.Errorf("failed to insert tier change: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// MarkGraded closes every open pick of a game and returns how many were closed
func (w *HolocronWriter) MarkGraded(ctx context.Context, gameID string) (int64, error) {
	res, err := w.db.ExecContext(ctx, `
		UPDATE picks
		SET graded = true, graded_at = NOW()
		WHERE game_id = $1 AND graded = false
	`, gameID)
	if err != nil {
		return 0, fmt.Errorf("failed to grade picks for game %s: %w", gameID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read graded count: %w", err)
	}
	return n, nil
}

// LoadOpenPicks returns every ungraded pick for the given sports, oldest first.
// An empty sport list loads all sports.
func (w *HolocronWriter) LoadOpenPicks(ctx context.Context, sportKeys []string) ([]*models.Pick, error) {
	query := `
		SELECT id, game_id, sport_key, home_team, away_team, market, side,
		       line, best_book, best_price, base_confidence, confidence, tier,
		       signals, tier_history, created_at, last_evaluated_at, last_line,
		       injury_applied, leak_jumps
		FROM picks
		WHERE graded = false AND (cardinality($1::text[]) = 0 OR sport_key = ANY($1))
		ORDER BY created_at
	`

	rows, err := w.db.QueryContext(ctx, query, pq.Array(sportKeys))
	if err != nil {
		return nil, fmt.Errorf("failed to query open picks: %w", err)
	}
	defer rows.Close()

	var out []*models.Pick
	for rows.Next() {
		var (
			p                   models.Pick
			market, side, tier  string
			signalsRaw, histRaw []byte
		)
		err := rows.Scan(
			&p.ID,
			&p.GameID,
			&p.SportKey,
			&p.HomeTeam,
			&p.AwayTeam,
			&market,
			&side,
			&p.Line,
			&p.BestBook,
			&p.BestPrice,
			&p.BaseConfidence,
			&p.Confidence,
			&tier,
			&signalsRaw,
			&histRaw,
			&p.CreatedAt,
			&p.LastEvaluatedAt,
			&p.LastLine,
			&p.InjuryApplied,
			&p.LeakJumps,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pick: %w", err)
		}

		p.Market, p.Side, p.Tier = models.Market(market), models.Side(side), models.Tier(tier)
		if err := json.Unmarshal(signalsRaw, &p.Signals); err != nil {
			return nil, fmt.Errorf("failed to decode signals for pick %s: %w", p.ID, err)
		}
		if err := json.Unmarshal(histRaw, &p.TierHistory); err != nil {
			return nil, fmt.Errorf("failed to decode tier history for pick %s: %w", p.ID, err)
		}
		out = append(out, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating picks: %w", err)
	}
	return out, nil
}
