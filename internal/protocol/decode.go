package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMalformedMessage = errors.New("malformed message")

type envelope struct {
	Type *string `json:"type"`
}

type wireNotice struct {
	Message string `json:"message"`
}

type wireInit struct {
	PlayerName     string `json:"playerName"`
	PlayerUnitName string `json:"playerUnitName"`
}

type wireDuelResult struct {
	ResultText   string `json:"resultText"`
	TargetPlayer string `json:"targetPlayer"`
}

type wireBodyPartDestroyed struct {
	Player         string `json:"player"`
	BodyPart       string `json:"bodyPart"`
	Message        string `json:"message"`
	PlayerUnitName string `json:"playerUnitName"`
}

type wireUnit struct {
	PlayerID          int64           `json:"playerId"`
	Player            *string         `json:"player"`
	DisplayName       *string         `json:"displayName"`
	UnitName          string          `json:"unitName"`
	ImagePath         string          `json:"imagePath"`
	HP                int64           `json:"hp"`
	HPMax             int64           `json:"hpMax"`
	DeflectionCurrent *int            `json:"deflectionCurrent"`
	DeflectionCharges json.RawMessage `json:"deflectionCharges"`
}

type wireUnitsState struct {
	Units []wireUnit `json:"units"`
}

type wireChat struct {
	Message    *string `json:"message"`
	Text       *string `json:"text"`
	PlayerName *string `json:"playerName"`
	Sender     *string `json:"sender"`
}

type wireLobbyState struct {
	Rooms []Room `json:"rooms"`
}

// Decode parses one raw text frame into its variant. Any error wraps
// ErrMalformedMessage; an unknown but well formed type yields Unrecognized.
func Decode(raw []byte) (Frame, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if env.Type == nil {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}

	switch Kind(*env.Type) {
	case KindInit:
		var w wireInit
		if err := unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return Init(w), nil

	case KindJoin, KindReconnect, KindInfo, KindError:
		var w wireNotice
		if err := unmarshal(raw, &w); err != nil {
			return nil, err
		}
		switch Kind(*env.Type) {
		case KindJoin:
			return Joined{Message: w.Message}, nil
		case KindReconnect:
			return Reconnected{Message: w.Message}, nil
		case KindInfo:
			return Info{Message: w.Message}, nil
		default:
			return ServerError{Message: w.Message}, nil
		}

	case KindBothSelected:
		return BothSelected{}, nil

	case KindDuelResult:
		var w wireDuelResult
		if err := unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return DuelResult(w), nil

	case KindBodyPartDestroyed:
		var w wireBodyPartDestroyed
		if err := unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return BodyPartDestroyed(w), nil

	case KindUnitsState:
		var w wireUnitsState
		if err := unmarshal(raw, &w); err != nil {
			return nil, err
		}
		units := make([]UnitSnapshot, 0, len(w.Units))
		for _, u := range w.Units {
			units = append(units, u.snapshot())
		}
		return UnitsState{Units: units}, nil

	case KindChat:
		var w wireChat
		if err := unmarshal(raw, &w); err != nil {
			return nil, err
		}
		if w.Message != nil {
			if rr, ok := parseRoundResult(*w.Message); ok {
				return rr, nil
			}
		}
		return Chat{
			Sender: firstOf(w.PlayerName, w.Sender),
			Text:   firstOf(w.Message, w.Text),
		}, nil

	case KindLobbyState:
		var w wireLobbyState
		if err := unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return LobbyState(w), nil

	default:
		return Unrecognized{Type: *env.Type}, nil
	}
}

func unmarshal(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return nil
}

// parseRoundResult reports whether a chat body is a JSON object carrying a
// non-null turnMessages. Once it does, the body is a round result whatever
// shape the other fields have.
func parseRoundResult(message string) (RoundResult, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(message), &fields); err != nil {
		return RoundResult{}, false
	}
	tm, ok := fields["turnMessages"]
	if !ok || bytes.Equal(bytes.TrimSpace(tm), []byte("null")) {
		return RoundResult{}, false
	}

	return RoundResult{
		Attacker:     scalarText(fields["attacker"]),
		Defender:     scalarText(fields["defender"]),
		TurnMessages: turnLines(tm),
		AttackerHP:   scalarText(fields["attackerHp"]),
		DefenderHP:   scalarText(fields["defenderHp"]),
	}, true
}

// scalarText renders a JSON scalar as it was sent: strings unquoted, numbers
// and booleans verbatim. Objects, arrays and null give "".
func scalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	switch raw[0] {
	case '{', '[':
		return ""
	}
	return string(raw)
}

// turnLines accepts an array of strings, an array of mixed scalars, or a
// single scalar. Anything else yields no lines.
func turnLines(raw json.RawMessage) []string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		if line := scalarText(raw); line != "" {
			return []string{line}
		}
		return nil
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		if line := scalarText(it); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func (u wireUnit) snapshot() UnitSnapshot {
	s := UnitSnapshot{
		PlayerID:    u.PlayerID,
		DisplayName: firstOf(u.Player, u.DisplayName),
		UnitName:    u.UnitName,
		ImagePath:   u.ImagePath,
		HP:          u.HP,
		HPMax:       u.HPMax,
	}
	switch {
	case u.DeflectionCurrent != nil:
		s.DeflectionCurrent = *u.DeflectionCurrent
	case len(u.DeflectionCharges) > 0:
		s.DeflectionCurrent = deflectionCharges(u.DeflectionCharges)
	}
	return s
}

// deflectionCharges accepts either a bare count or a {current, max} object.
func deflectionCharges(raw json.RawMessage) int {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var obj struct {
		Current int `json:"current"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Current
	}
	return 0
}

func firstOf(vals ...*string) string {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return ""
}
