// Package protocol defines the JSON envelope exchanged with browser clients.
package protocol

// Inbound frame sent by the client over the websocket
type ClientMessage struct {
	Message string `json:"message"`
}

// Event types pushed to the client
const (
	TypeWelcome      = "welcome"
	TypeStatus       = "status"
	TypeTextResponse = "text_response"
	TypeVideoReady   = "video_ready"
	TypeError        = "error"
)

// Client-facing strings. Internal failure detail never reaches the
// transport; it is logged server-side instead.
const (
	MsgThinking     = "Thinking..."
	MsgSpeaking     = "Speaking..."
	MsgServerError  = "Server error"
	MsgVideoFailed  = "Failed to start video"
	MsgVideoTimeout = "Video timed out"
	MsgBusy         = "Still working on the previous message"
)

// Event is the tagged outbound envelope. Only the fields relevant to a
// given type are populated.
type Event struct {
	Type     string `json:"type"`
	Message  string `json:"message,omitempty"`
	Image    string `json:"image,omitempty"`
	VideoURL string `json:"video_url,omitempty"`
}

// Welcome builds the one-time welcome event carrying the intro video URL.
func Welcome(videoURL string) Event {
	return Event{Type: TypeWelcome, VideoURL: videoURL}
}

// Status builds a pipeline progress event with a placeholder image.
func Status(message, image string) Event {
	return Event{Type: TypeStatus, Message: message, Image: image}
}

// TextResponse builds the event carrying the generated reply text.
func TextResponse(message string) Event {
	return Event{Type: TypeTextResponse, Message: message}
}

// VideoReady builds the terminal event for a successful turn.
func VideoReady(videoURL, message string) Event {
	return Event{Type: TypeVideoReady, VideoURL: videoURL, Message: message}
}

// Error builds a generic client-facing failure event.
func Error(message string) Event {
	return Event{Type: TypeError, Message: message}
}
