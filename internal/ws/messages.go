package ws

// Message type constants used in the Envelope Type field. The game service
// pushes the per-pilot types; announcements go to every socket.
const (
	MsgTypeStateUpdate     = "state_update"     // fresh game-state snapshot
	MsgTypeDayReport       = "day_report"       // morning briefing after a day advance
	MsgTypeEncounterPrompt = "encounter_prompt" // a jump is suspended awaiting a decision
	MsgTypeGameOver        = "game_over"        // the run has ended
	MsgTypeAnnouncement    = "announcement"     // server-wide notice
	MsgTypeError           = "error"
)

// Envelope wraps every outbound message with its type tag.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// AnnouncementMessage is a server-wide notice.
type AnnouncementMessage struct {
	Text string `json:"text"`
}

// ErrorMessage reports a per-socket delivery problem.
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
