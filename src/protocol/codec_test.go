package protocol

import (
	stdjson "encoding/json"
	"strings"
	"testing"

	"chart-stream/src/helpers"
	"chart-stream/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Subscribe(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"subscribe","seriesType":"line"}`))
	require.NoError(t, err)
	assert.Equal(t, ControlSubscribe, msg.Kind)
	assert.Equal(t, []string{"line"}, msg.SeriesTypes)

	msg, err = Decode([]byte(`{"type":"subscribe","seriesTypes":["line","candlestick"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"line", "candlestick"}, msg.SeriesTypes)
}

func TestDecode_UnsubscribeAndAppendData(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"unsubscribe"}`))
	require.NoError(t, err)
	assert.Equal(t, ControlUnsubscribe, msg.Kind)

	msg, err = Decode([]byte(`{"type":"appendData","seriesType":"candlestick","fromIndex":0}`))
	require.NoError(t, err)
	assert.Equal(t, ControlAppendData, msg.Kind)
	assert.Equal(t, "candlestick", msg.SeriesType)
	assert.Equal(t, 0, msg.FromIndex)

	msg, err = Decode([]byte(`{"type":"appendData","seriesType":"line","fromIndex":42}`))
	require.NoError(t, err)
	assert.Equal(t, 42, msg.FromIndex)
}

func TestDecode_Errors(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		message string
		prefix  bool
	}{
		{"not json", `{nope`, "Malformed message:", true},
		{"array", `[1,2]`, "Malformed message:", true},
		{"missing type", `{"seriesType":"line"}`, "Missing required field: type", false},
		{"unknown type", `{"type":"ping"}`, "Unknown message type: ping", false},
		{"subscribe without series", `{"type":"subscribe"}`, "Missing required field: seriesType", false},
		{"subscribe empty batch entry", `{"type":"subscribe","seriesTypes":[""]}`, "Missing required field: seriesTypes entry", false},
		{"append without series", `{"type":"appendData","fromIndex":1}`, "Missing required field: seriesType", false},
		{"append without index", `{"type":"appendData","seriesType":"line"}`, "Missing required field: fromIndex", false},
		{"append negative index", `{"type":"appendData","seriesType":"line","fromIndex":-1}`, "fromIndex must be a non-negative integer", false},
		{"append fractional index", `{"type":"appendData","seriesType":"line","fromIndex":1.5}`, "Malformed message:", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.raw))
			require.Error(t, err)

			text, ok := helpers.IsInputError(err)
			require.True(t, ok, "expected an input error, got %T", err)
			if tc.prefix {
				assert.True(t, strings.HasPrefix(text, tc.message), "got %q", text)
			} else {
				assert.Equal(t, tc.message, text)
			}
		})
	}
}

func TestEncodeBatch_Shape(t *testing.T) {
	payload, err := EncodeBatch([]models.MDrawCommand{
		{
			Type:     models.CommandDrawSeries,
			Pane:     "main",
			SeriesID: "price",
			Vertices: []float32{-1, -1, 1, 1},
			Style:    models.MStyleSpec{Kind: "line", Color: "#00ff00", Thickness: 1},
		},
		{
			Type:     models.CommandDrawSeries,
			Pane:     "main",
			SeriesID: "ohlc",
			Style:    models.MStyleSpec{Kind: "candlestick", Color: "#00ff00", AltColor: "#ff0000", Thickness: 1},
		},
	})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, stdjson.Unmarshal(payload, &decoded))
	assert.Equal(t, "drawCommands", decoded["type"])

	commands := decoded["commands"].([]interface{})
	require.Len(t, commands, 2)

	line := commands[0].(map[string]interface{})
	assert.Equal(t, "drawSeries", line["type"])
	assert.Equal(t, "main", line["pane"])
	assert.Equal(t, "price", line["seriesId"])
	assert.Equal(t, []interface{}{-1.0, -1.0, 1.0, 1.0}, line["vertices"])
	assert.NotContains(t, line, "label")

	style := line["style"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"type": "line", "color": "#00ff00", "thickness": 1.0}, style)

	candle := commands[1].(map[string]interface{})
	assert.Equal(t, []interface{}{}, candle["vertices"], "empty vertex buffer is an array, not null")
	candleStyle := candle["style"].(map[string]interface{})
	assert.Equal(t, "#ff0000", candleStyle["altColor"])
	assert.NotContains(t, candleStyle, "wickColor")
}

func TestEncodeBatch_Empty(t *testing.T) {
	payload, err := EncodeBatch(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"drawCommands","commands":[]}`, string(payload))
}

func TestEncodeError(t *testing.T) {
	assert.JSONEq(t,
		`{"type":"error","message":"Unknown series type: bogus"}`,
		string(EncodeError(helpers.UnknownSeriesType("bogus").Message)),
	)
}
