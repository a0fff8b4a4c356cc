package protocol

// Client -> Server
type ClientMessage struct {
	Type       string `json:"type"` // "join" | "attack" | "chat" | "joinLobby" | "joinDuel"
	PlayerName string `json:"playerName,omitempty"`
	Body       string `json:"body,omitempty"`
	Message    string `json:"message,omitempty"`
	GameCode   string `json:"gameCode,omitempty"`
}

func Join(playerName string) ClientMessage {
	return ClientMessage{Type: "join", PlayerName: playerName}
}

func Attack(body string) ClientMessage {
	return ClientMessage{Type: "attack", Body: body}
}

func ChatMessage(message string) ClientMessage {
	return ClientMessage{Type: "chat", Message: message}
}

func JoinLobby(playerName string) ClientMessage {
	return ClientMessage{Type: "joinLobby", PlayerName: playerName}
}

func JoinDuel(gameCode, playerName string) ClientMessage {
	return ClientMessage{Type: "joinDuel", GameCode: gameCode, PlayerName: playerName}
}

// Server -> Client
type Kind string

const (
	KindInit              Kind = "INIT"
	KindJoin              Kind = "join"
	KindReconnect         Kind = "reconnect"
	KindInfo              Kind = "info"
	KindError             Kind = "error"
	KindBothSelected      Kind = "bothSelected"
	KindDuelResult        Kind = "duelResult"
	KindBodyPartDestroyed Kind = "BODY_PART_DESTROYED"
	KindUnitsState        Kind = "UNITS_STATE"
	KindChat              Kind = "chat"
	KindLobbyState        Kind = "LOBBY_STATE"
)

// Frame is one decoded server frame. The set of implementations is closed.
type Frame interface{ isFrame() }

type Init struct {
	PlayerName     string
	PlayerUnitName string
}

type Joined struct{ Message string }

type Reconnected struct{ Message string }

type Info struct{ Message string }

type ServerError struct{ Message string }

type BothSelected struct{}

type DuelResult struct {
	ResultText   string
	TargetPlayer string
}

type BodyPartDestroyed struct {
	Player         string
	BodyPart       string
	Message        string
	PlayerUnitName string
}

type UnitsState struct {
	Units []UnitSnapshot
}

// Chat is a plain chat line with its aliases already resolved.
type Chat struct {
	Sender string
	Text   string
}

// RoundResult is the per-turn outcome the server piggybacks on the chat channel.
type RoundResult struct {
	Attacker     string
	Defender     string
	TurnMessages []string
	AttackerHP   string // as sent, e.g. "80" or "95.5"
	DefenderHP   string
}

type LobbyState struct {
	Rooms []Room
}

// Unrecognized carries the type of a well formed frame nobody handles.
type Unrecognized struct{ Type string }

func (Init) isFrame()              {}
func (Joined) isFrame()            {}
func (Reconnected) isFrame()       {}
func (Info) isFrame()              {}
func (ServerError) isFrame()       {}
func (BothSelected) isFrame()      {}
func (DuelResult) isFrame()        {}
func (BodyPartDestroyed) isFrame() {}
func (UnitsState) isFrame()        {}
func (Chat) isFrame()              {}
func (RoundResult) isFrame()       {}
func (LobbyState) isFrame()        {}
func (Unrecognized) isFrame()      {}

type UnitSnapshot struct {
	PlayerID          int64
	DisplayName       string
	UnitName          string
	ImagePath         string
	HP                int64
	HPMax             int64
	DeflectionCurrent int
}

type Room struct {
	GameCode string        `json:"gameCode"`
	Players  []LobbyPlayer `json:"players"`
}

type LobbyPlayer struct {
	Name      string `json:"name"`
	ImagePath string `json:"imagePath"`
	HP        int64  `json:"hp"`
	HPMax     int64  `json:"hpMax"`
}
