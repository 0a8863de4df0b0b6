package models

// -----------------------------------------------------------------------------
// Draw Command Model
// -----------------------------------------------------------------------------

// CommandType identifies the shape family of a draw command.
type CommandType string

const (
	CommandAxis       CommandType = "axis"
	CommandDrawSeries CommandType = "drawSeries"
)

// Vertex strides per series kind.
const (
	LineStride   = 2
	CandleStride = 12
)

// MStyleSpec carries the fixed styling of a series kind. Empty colors are unset
// and are left out of the encoded message.
type MStyleSpec struct {
	Kind      string `json:"type,omitempty"` // "line" | "candlestick"
	Color     string `json:"color,omitempty"`
	AltColor  string `json:"altColor,omitempty"`
	WickColor string `json:"wickColor,omitempty"`
	Thickness int    `json:"thickness"`
}

// MDrawCommand is the transport-ready description of one renderable shape.
// Vertices are flat [x0, y0, x1, y1, ...] pairs in clip space.
type MDrawCommand struct {
	Type     CommandType `json:"type"`
	Label    string      `json:"label,omitempty"`
	Pane     string      `json:"pane"`
	SeriesID string      `json:"seriesId"`
	Vertices []float32   `json:"vertices"`
	Style    MStyleSpec  `json:"style"`
}

// IsZero reports whether the command is the zero value, which generators return
// for record kinds they do not support.
func (c MDrawCommand) IsZero() bool {
	return c.Type == "" && c.Pane == "" && c.SeriesID == "" && len(c.Vertices) == 0 && c.Style == MStyleSpec{}
}

// -----------------------------------------------------------------------------
// Wire envelopes
// -----------------------------------------------------------------------------

const (
	MessageDrawCommands = "drawCommands"
	MessageError        = "error"
	MessageSubscribe    = "subscribe"
	MessageUnsubscribe  = "unsubscribe"
	MessageAppendData   = "appendData"
)

// MDrawBatch wraps every command sent in one transmission.
type MDrawBatch struct {
	Type     string         `json:"type"`
	Commands []MDrawCommand `json:"commands"`
}

// MErrorMessage reports a rejected request to the requesting connection only.
type MErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// MClientMessage is the raw inbound control message.
type MClientMessage struct {
	Type        string   `json:"type"`
	SeriesType  string   `json:"seriesType,omitempty"`
	SeriesTypes []string `json:"seriesTypes,omitempty"`
	FromIndex   *int64   `json:"fromIndex,omitempty"`
}
