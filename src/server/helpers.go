package server

import (
	"strconv"

	"chart-stream/src/helpers"
	"chart-stream/src/interfaces"
	"chart-stream/src/models"
	"chart-stream/src/protocol"
	"chart-stream/src/session"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------

func queryFromIndex(c *gin.Context) (int, error) {
	raw := c.Query("from")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, helpers.NewInputError("fromIndex must be a non-negative integer")
	}
	return n, nil
}

// -----------------------------------------------------------------------------

func renderSeries(gen interfaces.ISeriesGenerator, ds *models.MDataset, from int) ([]byte, error) {
	var commands []models.MDrawCommand
	if cmd, ok := session.Delta(gen, gen.DefaultSeriesID(), ds, from); ok {
		commands = append(commands, cmd)
	}
	return protocol.EncodeBatch(commands)
}

// -----------------------------------------------------------------------------

func errorEnvelope(err error) []byte {
	text, ok := helpers.IsInputError(err)
	if !ok {
		text = err.Error()
	}
	return protocol.EncodeError(text)
}

func unknownSeriesEnvelope(name string) []byte {
	return protocol.EncodeError(helpers.UnknownSeriesType(name).Message)
}

func writeEnvelope(c *gin.Context, status int, payload []byte) {
	c.Data(status, "application/json; charset=utf-8", payload)
}
