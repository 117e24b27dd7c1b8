package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MarketSnapshot is one game's market state at a point in time.
// Opening lines are frozen upstream by the line tracker; current lines are the
// latest observation. Optional fields are pointers: nil means "not observed".
type MarketSnapshot struct {
	GameID    string    `json:"game_id"`
	SportKey  string    `json:"sport_key,omitempty"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	Timestamp time.Time `json:"timestamp"`

	// Spreads are quoted from the home perspective (negative = home favored)
	OpeningSpread *float64 `json:"opening_spread,omitempty"`
	CurrentSpread *float64 `json:"current_spread,omitempty"`
	OpeningTotal  *float64 `json:"opening_total,omitempty"`
	CurrentTotal  *float64 `json:"current_total,omitempty"`

	// Public splits, 0-100
	PublicSpreadPct    *float64 `json:"public_spread_pct,omitempty"`     // % of spread bets on home
	PublicTotalPct     *float64 `json:"public_total_pct,omitempty"`      // % of total bets on the Over
	PublicMoneylinePct *float64 `json:"public_moneyline_pct,omitempty"`  // % of moneyline bets on home
	AltPublicSpreadPct *float64 `json:"alt_public_spread_pct,omitempty"` // second split source, % on home

	BooksQuotes []BookQuote `json:"books_quotes,omitempty"`

	HomeATSLast10 *ATSRecord `json:"home_ats_last10,omitempty"`
	AwayATSLast10 *ATSRecord `json:"away_ats_last10,omitempty"`

	HomeRestDays *int `json:"home_rest_days,omitempty"`
	AwayRestDays *int `json:"away_rest_days,omitempty"`

	// LineHistory is the time-ordered consensus line trail for the day
	LineHistory []LineObservation `json:"line_history,omitempty"`

	// InjuryReported is set externally when injury or news broke for this game
	InjuryReported bool `json:"injury_reported,omitempty"`
}

// BookQuote is a single sportsbook's lines for the game
type BookQuote struct {
	BookName  string   `json:"book_name"`
	Spread    *float64 `json:"spread,omitempty"`    // home spread
	Total     *float64 `json:"total,omitempty"`
	Moneyline *int     `json:"moneyline,omitempty"` // home moneyline, American odds
	Price     *int     `json:"price,omitempty"`     // American odds on the quoted line
}

// LineObservation is one point of the consensus line trail
type LineObservation struct {
	ObservedAt time.Time `json:"observed_at"`
	Spread     *float64  `json:"spread,omitempty"`
	Total      *float64  `json:"total,omitempty"`
}

// Validate checks the identity fields every snapshot must carry
func (s MarketSnapshot) Validate() error {
	if strings.TrimSpace(s.GameID) == "" {
		return fmt.Errorf("%w: game_id is required", ErrMalformedSnapshot)
	}
	if s.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required for game %s", ErrMalformedSnapshot, s.GameID)
	}
	return nil
}

// CurrentLine returns the raw current number for a market (home spread or total)
func (s MarketSnapshot) CurrentLine(m Market) (float64, bool) {
	switch m {
	case MarketSpread:
		if s.CurrentSpread != nil {
			return *s.CurrentSpread, true
		}
	case MarketTotal:
		if s.CurrentTotal != nil {
			return *s.CurrentTotal, true
		}
	}
	return 0, false
}

// Team returns the team name for a spread/moneyline side
func (s MarketSnapshot) Team(side Side) string {
	switch side {
	case SideHome:
		return s.HomeTeam
	case SideAway:
		return s.AwayTeam
	}
	return ""
}

// ATSRecord is a team's against-the-spread record over its last games
type ATSRecord struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

// Games returns the number of decided games in the record
func (r ATSRecord) Games() int {
	return r.Wins + r.Losses
}

// WinRate returns wins / games, or false when the record is empty
func (r ATSRecord) WinRate() (float64, bool) {
	if r.Games() <= 0 {
		return 0, false
	}
	return float64(r.Wins) / float64(r.Games()), true
}

func (r ATSRecord) String() string {
	return fmt.Sprintf("%d-%d", r.Wins, r.Losses)
}

// ParseATSRecord parses records like "7-3"
func ParseATSRecord(value string) (ATSRecord, error) {
	parts := strings.Split(strings.TrimSpace(value), "-")
	if len(parts) != 2 {
		return ATSRecord{}, fmt.Errorf("invalid ATS record %q", value)
	}

	wins, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return ATSRecord{}, fmt.Errorf("invalid ATS wins in %q: %w", value, err)
	}
	losses, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return ATSRecord{}, fmt.Errorf("invalid ATS losses in %q: %w", value, err)
	}
	if wins < 0 || losses < 0 {
		return ATSRecord{}, fmt.Errorf("invalid ATS record %q", value)
	}

	return ATSRecord{Wins: wins, Losses: losses}, nil
}

// UnmarshalJSON accepts "7-3", [7, 3] or {"wins": 7, "losses": 3}
func (r *ATSRecord) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		parsed, err := ParseATSRecord(text)
		if err != nil {
			return err
		}
		*r = parsed
		return nil
	}

	var pair []int
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 || pair[0] < 0 || pair[1] < 0 {
			return fmt.Errorf("invalid ATS record pair %s", string(data))
		}
		*r = ATSRecord{Wins: pair[0], Losses: pair[1]}
		return nil
	}

	type plain ATSRecord
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid ATS record %s: %w", string(data), err)
	}
	*r = ATSRecord(obj)
	return nil
}
