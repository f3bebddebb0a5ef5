package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	MinScore = 0
	MaxScore = 99
)

// ValidScore reports whether s is unset or within [MinScore, MaxScore].
func ValidScore(s *int) bool {
	return s == nil || (*s >= MinScore && *s <= MaxScore)
}

// ParseScore converts raw score input: "" means unset, anything other than
// an integer in range is rejected with ErrInvalidScore.
func ParseScore(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidScore, raw)
	}
	if !ValidScore(&v) {
		return nil, fmt.Errorf("%w: %d is out of range", ErrInvalidScore, v)
	}
	return &v, nil
}

// ScoreInput accepts null, a JSON number or a string for one side's score.
// Present is set when the field occurred in the decoded body.
type ScoreInput struct {
	Value   *int
	Present bool
}

func (s *ScoreInput) UnmarshalJSON(data []byte) error {
	s.Present = true
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		s.Value = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidScore, err)
		}
		v, err := ParseScore(raw)
		if err != nil {
			return err
		}
		s.Value = v
		return nil
	}
	v, err := ParseScore(string(data))
	if err != nil {
		return err
	}
	s.Value = v
	return nil
}

func (s ScoreInput) MarshalJSON() ([]byte, error) {
	if s.Value == nil {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(*s.Value)), nil
}

// UpdateScoreInput это тело запроса на изменение счёта матча.
// Оба поля обязательны, очистка счёта передаётся явным null или "".
type UpdateScoreInput struct {
	HomeScore ScoreInput `json:"home_score"`
	AwayScore ScoreInput `json:"away_score"`
}

// Validate rejects bodies that omit one side of the score.
func (in UpdateScoreInput) Validate() error {
	var missing []string
	if !in.HomeScore.Present {
		missing = append(missing, "home_score")
	}
	if !in.AwayScore.Present {
		missing = append(missing, "away_score")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidationFailed, strings.Join(missing, ", "))
	}
	if !ValidScore(in.HomeScore.Value) || !ValidScore(in.AwayScore.Value) {
		return ErrInvalidScore
	}
	return nil
}
