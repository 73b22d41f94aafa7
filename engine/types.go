package engine

// Seat identifies one of the two sides of the table.
type Seat uint8

const (
	SeatNone   Seat = iota // 0: no seat (unset winner, open slot)
	SeatPlayer             // 1: the human player
	SeatAI                 // 2: the artificial opponent
)

// Other returns the opposing seat.
func (s Seat) Other() Seat {
	switch s {
	case SeatPlayer:
		return SeatAI
	case SeatAI:
		return SeatPlayer
	}
	return SeatNone
}

func (s Seat) String() string {
	switch s {
	case SeatPlayer:
		return "player"
	case SeatAI:
		return "ai"
	}
	return "none"
}

// Phase is the game-phase state machine position.
type Phase uint8

const (
	PhaseTrick1           Phase = iota // 0
	PhaseTrick2                        // 1
	PhaseTrick3                        // 2
	PhaseEnvidoCalled                  // 3: envido chain awaiting a response
	PhaseTrucoCalled                   // 4
	PhaseRetrucoCalled                 // 5
	PhaseValeCuatroCalled              // 6
	PhaseFlorCalled                    // 7: flor met by a second flor, awaiting response
	PhaseContraflorCalled              // 8
	PhaseRoundEnd                      // 9
	PhaseGameOver                      // 10: terminal
)

// trickPhase maps a trick index 0..2 to its phase.
func trickPhase(trick uint8) Phase { return Phase(trick) }

// IsTrick reports whether p is one of the three trick-play phases.
func (p Phase) IsTrick() bool { return p <= PhaseTrick3 }

// IsCallPending reports whether an unresolved call is outstanding.
func (p Phase) IsCallPending() bool {
	return p >= PhaseEnvidoCalled && p <= PhaseContraflorCalled
}

func (p Phase) String() string {
	names := [...]string{
		"trick_1", "trick_2", "trick_3",
		"envido_called", "truco_called", "retruco_called", "vale_cuatro_called",
		"flor_called", "contraflor_called",
		"round_end", "game_over",
	}
	if int(p) < len(names) {
		return names[p]
	}
	return "unknown"
}

// TrickWinner records the outcome of one trick slot.
type TrickWinner uint8

const (
	TrickOpen   TrickWinner = iota // 0: not yet resolved
	TrickPlayer                    // 1
	TrickAI                        // 2
	TrickParda                     // 3: tied
)

// seat converts a resolved trick winner to a Seat (SeatNone for open/parda).
func (t TrickWinner) seat() Seat {
	switch t {
	case TrickPlayer:
		return SeatPlayer
	case TrickAI:
		return SeatAI
	}
	return SeatNone
}

func (t TrickWinner) String() string {
	switch t {
	case TrickPlayer:
		return "player"
	case TrickAI:
		return "ai"
	case TrickParda:
		return "parda"
	}
	return "open"
}

// ---------------------------------------------------------------------------
// Action index constants
// ---------------------------------------------------------------------------

// Action is an index into the closed action space.
type Action uint8

const (
	ActionStartRound Action = 0

	ActionBasePlayCard Action = 1 // PlayCard(0)..PlayCard(2)

	ActionCallEnvido      Action = 4
	ActionCallRealEnvido  Action = 5
	ActionCallFaltaEnvido Action = 6
	ActionCallTruco       Action = 7
	ActionCallRetruco     Action = 8
	ActionCallValeCuatro  Action = 9
	ActionDeclareFlor     Action = 10
	ActionCallContraflor  Action = 11
	ActionAccept          Action = 12
	ActionDecline         Action = 13

	NumActions Action = 14
)

// EncodePlayCard returns the action index for playing the hand card at idx.
func EncodePlayCard(idx uint8) Action { return ActionBasePlayCard + Action(idx) }

// ActionIsPlayCard returns the hand index if a encodes a PlayCard action.
func ActionIsPlayCard(a Action) (idx uint8, ok bool) {
	if a >= ActionBasePlayCard && a < ActionBasePlayCard+HandSize {
		return uint8(a - ActionBasePlayCard), true
	}
	return 0, false
}

func (a Action) String() string {
	if idx, ok := ActionIsPlayCard(a); ok {
		names := [...]string{"play_card_0", "play_card_1", "play_card_2"}
		return names[idx]
	}
	switch a {
	case ActionStartRound:
		return "start_round"
	case ActionCallEnvido:
		return "call_envido"
	case ActionCallRealEnvido:
		return "call_real_envido"
	case ActionCallFaltaEnvido:
		return "call_falta_envido"
	case ActionCallTruco:
		return "call_truco"
	case ActionCallRetruco:
		return "call_retruco"
	case ActionCallValeCuatro:
		return "call_vale_cuatro"
	case ActionDeclareFlor:
		return "declare_flor"
	case ActionCallContraflor:
		return "call_contraflor"
	case ActionAccept:
		return "accept"
	case ActionDecline:
		return "decline"
	}
	return "unknown"
}

// ---------------------------------------------------------------------------
// Reasoning trace types
// ---------------------------------------------------------------------------

// TraceItem is one entry of an AI reasoning trace: either literal text or a
// structured {Key, Opts} record resolved to a display string elsewhere.
type TraceItem struct {
	Text string            `json:"text,omitempty"`
	Key  string            `json:"key,omitempty"`
	Opts map[string]string `json:"opts,omitempty"`
}

// TraceText builds a literal trace item.
func TraceText(text string) TraceItem { return TraceItem{Text: text} }

// TraceKey builds a structured trace item for later interpolation.
func TraceKey(key string, opts map[string]string) TraceItem {
	return TraceItem{Key: key, Opts: opts}
}

// ReasoningEntry groups the trace emitted for one AI decision, tagged with
// the round it was produced in.
type ReasoningEntry struct {
	Round  int         `json:"round"`
	Action string      `json:"action"`
	Items  []TraceItem `json:"items"`
}
