package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	MinFace = 1
	MaxFace = 6
)

// RoundOutcome is the pair of dice a round resolves on.
type RoundOutcome struct {
	Die1 int `json:"die1"`
	Die2 int `json:"die2"`
}

func (o RoundOutcome) Sum() int {
	return o.Die1 + o.Die2
}

func (o RoundOutcome) Validate() error {
	if !ValidFace(o.Die1) || !ValidFace(o.Die2) {
		return fmt.Errorf("dice must be between %d and %d, got (%d, %d)", MinFace, MaxFace, o.Die1, o.Die2)
	}
	return nil
}

func ValidFace(f int) bool {
	return f >= MinFace && f <= MaxFace
}

// Frame is the pair of faces drawn in one animation frame.
type Frame struct {
	Face1 int `json:"face1"`
	Face2 int `json:"face2"`
}

// AnimationSequence is the ordered list of frames rendered into a round's
// video. Its last frame always shows the round outcome.
type AnimationSequence []Frame

// Final returns the last frame. ok is false for an empty sequence.
func (s AnimationSequence) Final() (f Frame, ok bool) {
	if len(s) == 0 {
		return Frame{}, false
	}
	return s[len(s)-1], true
}

// Matches reports whether f shows exactly the faces of o.
func (f Frame) Matches(o RoundOutcome) bool {
	return f.Face1 == o.Die1 && f.Face2 == o.Die2
}

// RoundResult is returned to the caller once a round is resolved.
type RoundResult struct {
	ID            string          `json:"id"`
	Wager         decimal.Decimal `json:"wager"`
	Payout        decimal.Decimal `json:"payout"`
	NetGain       decimal.Decimal `json:"net_gain"`
	VideoFile     string          `json:"video_file"`
	Win           bool            `json:"win"`
	BetType       BetType         `json:"bet_type"`
	Die1          int             `json:"die1"`
	Die2          int             `json:"die2"`
	DieSum        int             `json:"die_sum"`
	GameSessionID int64           `json:"game_session_id"`
}

// MarshalJSON writes the money fields as JSON numbers with two decimals.
func (r RoundResult) MarshalJSON() ([]byte, error) {
	type plain RoundResult
	return json.Marshal(struct {
		plain
		Wager   json.Number `json:"wager"`
		Payout  json.Number `json:"payout"`
		NetGain json.Number `json:"net_gain"`
	}{
		plain:   plain(r),
		Wager:   json.Number(r.Wager.StringFixed(2)),
		Payout:  json.Number(r.Payout.StringFixed(2)),
		NetGain: json.Number(r.NetGain.StringFixed(2)),
	})
}
