package protocol

import (
	"chart-stream/src/helpers"
	"chart-stream/src/models"

	"github.com/segmentio/encoding/json"
)

// -----------------------------------------------------------------------------
// Control messages
// -----------------------------------------------------------------------------

// ControlKind enumerates the inbound requests a session understands.
type ControlKind int

const (
	ControlSubscribe ControlKind = iota + 1
	ControlUnsubscribe
	ControlAppendData
)

func (k ControlKind) String() string {
	switch k {
	case ControlSubscribe:
		return models.MessageSubscribe
	case ControlUnsubscribe:
		return models.MessageUnsubscribe
	case ControlAppendData:
		return models.MessageAppendData
	}
	return "unknown"
}

// ControlMessage is a validated inbound request.
//
// SeriesTypes holds one entry for the single form of subscribe and every entry
// of the batch form. SeriesType and FromIndex are set for appendData.
type ControlMessage struct {
	Kind        ControlKind
	SeriesTypes []string
	SeriesType  string
	FromIndex   int
}

// -----------------------------------------------------------------------------
// Decoding
// -----------------------------------------------------------------------------

// Decode parses and validates one inbound control message. Every failure is a
// *helpers.InputError carrying the text for the error envelope.
func Decode(raw []byte) (ControlMessage, error) {
	var msg models.MClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return ControlMessage{}, helpers.NewInputError("Malformed message: %v", err)
	}

	switch msg.Type {
	case models.MessageSubscribe:
		return decodeSubscribe(msg)
	case models.MessageUnsubscribe:
		return ControlMessage{Kind: ControlUnsubscribe}, nil
	case models.MessageAppendData:
		return decodeAppendData(msg)
	case "":
		return ControlMessage{}, helpers.NewInputError("Missing required field: type")
	}
	return ControlMessage{}, helpers.NewInputError("Unknown message type: %s", msg.Type)
}

// -----------------------------------------------------------------------------

func decodeSubscribe(msg models.MClientMessage) (ControlMessage, error) {
	var types []string
	switch {
	case len(msg.SeriesTypes) > 0:
		types = make([]string, 0, len(msg.SeriesTypes))
		for _, t := range msg.SeriesTypes {
			if t == "" {
				return ControlMessage{}, helpers.NewInputError("Missing required field: seriesTypes entry")
			}
			types = append(types, t)
		}
	case msg.SeriesType != "":
		types = []string{msg.SeriesType}
	default:
		return ControlMessage{}, helpers.NewInputError("Missing required field: seriesType")
	}
	return ControlMessage{Kind: ControlSubscribe, SeriesTypes: types}, nil
}

// -----------------------------------------------------------------------------

func decodeAppendData(msg models.MClientMessage) (ControlMessage, error) {
	if msg.SeriesType == "" {
		return ControlMessage{}, helpers.NewInputError("Missing required field: seriesType")
	}
	if msg.FromIndex == nil {
		return ControlMessage{}, helpers.NewInputError("Missing required field: fromIndex")
	}
	if *msg.FromIndex < 0 {
		return ControlMessage{}, helpers.NewInputError("fromIndex must be a non-negative integer")
	}
	return ControlMessage{
		Kind:       ControlAppendData,
		SeriesType: msg.SeriesType,
		FromIndex:  int(*msg.FromIndex),
	}, nil
}

// -----------------------------------------------------------------------------
// Encoding
// -----------------------------------------------------------------------------

// EncodeBatch wraps commands into a single drawCommands envelope. Vertex
// buffers are always encoded as arrays, never null.
func EncodeBatch(commands []models.MDrawCommand) ([]byte, error) {
	batch := models.MDrawBatch{
		Type:     models.MessageDrawCommands,
		Commands: make([]models.MDrawCommand, 0, len(commands)),
	}
	for _, cmd := range commands {
		if cmd.Vertices == nil {
			cmd.Vertices = []float32{}
		}
		batch.Commands = append(batch.Commands, cmd)
	}
	return json.Marshal(batch)
}

// -----------------------------------------------------------------------------

// EncodeError builds the error envelope returned to the requesting client.
func EncodeError(message string) []byte {
	b, err := json.Marshal(models.MErrorMessage{Type: models.MessageError, Message: message})
	if err != nil {
		// a struct of two strings always marshals
		return []byte(`{"type":"error","message":"internal error"}`)
	}
	return b
}
