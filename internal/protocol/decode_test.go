package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Malformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: `{"type":`},
		{name: "array", raw: `[1,2]`},
		{name: "missing type", raw: `{"message":"hi"}`},
		{name: "null type", raw: `{"type":null}`},
		{name: "numeric type", raw: `{"type":7}`},
		{name: "bad units", raw: `{"type":"UNITS_STATE","units":"nope"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := Decode([]byte(tc.raw))
			require.ErrorIs(t, err, ErrMalformedMessage)
			assert.Nil(t, f)
		})
	}
}

func TestDecode_UnknownTypeIsUnrecognized(t *testing.T) {
	f, err := Decode([]byte(`{"type":"PING","x":1}`))
	require.NoError(t, err)
	assert.Equal(t, Unrecognized{Type: "PING"}, f)
}

func TestDecode_Notices(t *testing.T) {
	cases := []struct {
		raw  string
		want Frame
	}{
		{`{"type":"join","message":"Bob joined"}`, Joined{Message: "Bob joined"}},
		{`{"type":"reconnect","message":"back"}`, Reconnected{Message: "back"}},
		{`{"type":"info","message":"wait"}`, Info{Message: "wait"}},
		{`{"type":"error","message":"not your turn"}`, ServerError{Message: "not your turn"}},
		{`{"type":"bothSelected"}`, BothSelected{}},
		{`{"type":"INIT","playerName":"Alice","playerUnitName":"Knight"}`, Init{PlayerName: "Alice", PlayerUnitName: "Knight"}},
		{`{"type":"duelResult","resultText":"You win","targetPlayer":"Alice"}`, DuelResult{ResultText: "You win", TargetPlayer: "Alice"}},
	}

	for _, tc := range cases {
		f, err := Decode([]byte(tc.raw))
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, f, tc.raw)
	}
}

func TestDecode_BodyPartDestroyed(t *testing.T) {
	f, err := Decode([]byte(`{"type":"BODY_PART_DESTROYED","player":"Bob","bodyPart":"HEAD","message":"Bob lost his head!","playerUnitName":"Orc"}`))
	require.NoError(t, err)
	assert.Equal(t, BodyPartDestroyed{Player: "Bob", BodyPart: "HEAD", Message: "Bob lost his head!", PlayerUnitName: "Orc"}, f)
}

func TestDecode_UnitsStateAliases(t *testing.T) {
	raw := `{"type":"UNITS_STATE","units":[
		{"playerId":1,"player":"Alice","unitName":"Knight","imagePath":"/img/k.png","hp":80,"hpMax":100,"deflectionCurrent":3},
		{"playerId":2,"displayName":"Bob","unitName":"Orc","hp":50,"hpMax":120,"deflectionCharges":{"current":2,"max":4}}
	]}`

	f, err := Decode([]byte(raw))
	require.NoError(t, err)

	us, ok := f.(UnitsState)
	require.True(t, ok)
	require.Len(t, us.Units, 2)
	assert.Equal(t, UnitSnapshot{PlayerID: 1, DisplayName: "Alice", UnitName: "Knight", ImagePath: "/img/k.png", HP: 80, HPMax: 100, DeflectionCurrent: 3}, us.Units[0])
	assert.Equal(t, "Bob", us.Units[1].DisplayName)
	assert.Equal(t, 2, us.Units[1].DeflectionCurrent)
}

func TestDecode_EmptyUnitsState(t *testing.T) {
	f, err := Decode([]byte(`{"type":"UNITS_STATE","units":[]}`))
	require.NoError(t, err)
	assert.Equal(t, UnitsState{Units: []UnitSnapshot{}}, f)
}

func TestDecode_ChatAliases(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Chat
	}{
		{"playerName wins", `{"type":"chat","playerName":"Bob","sender":"Eve","message":"hi"}`, Chat{Sender: "Bob", Text: "hi"}},
		{"sender fallback", `{"type":"chat","sender":"Bob","message":"hi"}`, Chat{Sender: "Bob", Text: "hi"}},
		{"text fallback", `{"type":"chat","sender":"Bob","text":"yo"}`, Chat{Sender: "Bob", Text: "yo"}},
		{"empty message still wins", `{"type":"chat","sender":"Bob","message":"","text":"yo"}`, Chat{Sender: "Bob", Text: ""}},
		{"json but no turnMessages", `{"type":"chat","sender":"Bob","message":"{\"a\":1}"}`, Chat{Sender: "Bob", Text: `{"a":1}`}},
		{"null turnMessages", `{"type":"chat","sender":"Bob","message":"{\"turnMessages\":null}"}`, Chat{Sender: "Bob", Text: `{"turnMessages":null}`}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := Decode([]byte(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.want, f)
		})
	}
}

func TestDecode_RoundResultOnChatChannel(t *testing.T) {
	inner := `{"turnMessages":["A hits B"],"attackerHp":80,"defenderHp":95}`
	raw, err := json.Marshal(map[string]string{"type": "chat", "message": inner})
	require.NoError(t, err)

	f, err := Decode(raw)
	require.NoError(t, err)

	rr, ok := f.(RoundResult)
	require.True(t, ok, "expected RoundResult, got %T", f)
	assert.Equal(t, []string{"A hits B"}, rr.TurnMessages)
	assert.Equal(t, "80", rr.AttackerHP)
	assert.Equal(t, "95", rr.DefenderHP)
}

func TestDecode_RoundResultToleratesOddFields(t *testing.T) {
	cases := []struct {
		name  string
		inner string
		want  RoundResult
	}{
		{
			"hp as strings",
			`{"turnMessages":["A hits B"],"attackerHp":"80","defenderHp":95}`,
			RoundResult{TurnMessages: []string{"A hits B"}, AttackerHP: "80", DefenderHP: "95"},
		},
		{
			"fractional hp kept as sent",
			`{"attacker":"A","defender":"B","turnMessages":[],"attackerHp":95.5,"defenderHp":0}`,
			RoundResult{Attacker: "A", Defender: "B", TurnMessages: []string{}, AttackerHP: "95.5", DefenderHP: "0"},
		},
		{
			"turnMessages as a single string",
			`{"turnMessages":"A misses","attackerHp":1,"defenderHp":2}`,
			RoundResult{TurnMessages: []string{"A misses"}, AttackerHP: "1", DefenderHP: "2"},
		},
		{
			"turnMessages as an object",
			`{"turnMessages":{"x":1},"attackerHp":{"v":3}}`,
			RoundResult{},
		},
		{
			"mixed array",
			`{"turnMessages":["A hits B",7,null,{"n":1}]}`,
			RoundResult{TurnMessages: []string{"A hits B", "7"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := json.Marshal(map[string]string{"type": "chat", "message": tc.inner})
			require.NoError(t, err)

			f, err := Decode(raw)
			require.NoError(t, err)
			rr, ok := f.(RoundResult)
			require.True(t, ok, "expected RoundResult, got %T", f)
			assert.Equal(t, tc.want, rr)
		})
	}
}

func TestDecode_LobbyState(t *testing.T) {
	raw := `{"type":"LOBBY_STATE","rooms":[{"gameCode":"ABC","players":[{"name":"Alice","imagePath":"/a.png","hp":10,"hpMax":20}]}]}`
	f, err := Decode([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, LobbyState{Rooms: []Room{{
		GameCode: "ABC",
		Players:  []LobbyPlayer{{Name: "Alice", ImagePath: "/a.png", HP: 10, HPMax: 20}},
	}}}, f)
}

func TestClientMessage_JSON(t *testing.T) {
	b, err := json.Marshal(Attack("TORSO"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"attack","body":"TORSO"}`, string(b))

	b, err = json.Marshal(JoinDuel("ABC", "Alice"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"joinDuel","gameCode":"ABC","playerName":"Alice"}`, string(b))
}
