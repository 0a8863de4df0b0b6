package datasource

import (
	"context"
	"fmt"
	"os"
	"strings"

	"chart-stream/src/helpers"
	"chart-stream/src/logger"
	"chart-stream/src/models"
	"chart-stream/src/network"

	"github.com/segmentio/encoding/json"
)

const JSONProviderName = "json"

// JSONProvider reads record arrays from local files or http(s) URLs.
//
// Elements that are not objects, lack a field, or carry a field of the wrong
// type are skipped; the remaining records keep their source order.
type JSONProvider struct {
	Fetcher *network.HTTPFetcher
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewJSONProvider(fetcher *network.HTTPFetcher, log *logger.Logger) *JSONProvider {
	return &JSONProvider{Fetcher: fetcher, Logger: log}
}

func (p *JSONProvider) Name() string { return JSONProviderName }

// -----------------------------------------------------------------------------

type rawTimeValue struct {
	Timestamp *int64   `json:"timestamp"`
	Value     *float64 `json:"value"`
}

type rawOhlc struct {
	Timestamp *int64   `json:"timestamp"`
	Open      *float64 `json:"open"`
	High      *float64 `json:"high"`
	Low       *float64 `json:"low"`
	Close     *float64 `json:"close"`
}

// -----------------------------------------------------------------------------

func (p *JSONProvider) LoadTimeValueRecords(ctx context.Context, source string) ([]models.MTimeValueRecord, error) {
	elements, err := p.readArray(ctx, source)
	if err != nil {
		return []models.MTimeValueRecord{}, err
	}

	records := make([]models.MTimeValueRecord, 0, len(elements))
	for _, el := range elements {
		var r rawTimeValue
		if json.Unmarshal(el, &r) != nil || r.Timestamp == nil || r.Value == nil {
			continue
		}
		records = append(records, models.MTimeValueRecord{Timestamp: *r.Timestamp, Value: *r.Value})
	}

	p.reportSkipped(source, len(elements), len(records))
	return records, nil
}

// -----------------------------------------------------------------------------

func (p *JSONProvider) LoadOhlcRecords(ctx context.Context, source string) ([]models.MOhlcRecord, error) {
	elements, err := p.readArray(ctx, source)
	if err != nil {
		return []models.MOhlcRecord{}, err
	}

	records := make([]models.MOhlcRecord, 0, len(elements))
	for _, el := range elements {
		var r rawOhlc
		if json.Unmarshal(el, &r) != nil || r.Timestamp == nil || r.Open == nil || r.High == nil || r.Low == nil || r.Close == nil {
			continue
		}
		records = append(records, models.MOhlcRecord{
			Timestamp: *r.Timestamp,
			Open:      *r.Open,
			High:      *r.High,
			Low:       *r.Low,
			Close:     *r.Close,
		})
	}

	p.reportSkipped(source, len(elements), len(records))
	return records, nil
}

// -----------------------------------------------------------------------------

func (p *JSONProvider) readArray(ctx context.Context, source string) ([]json.RawMessage, error) {
	raw, err := p.read(ctx, source)
	if err != nil {
		return nil, err
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, helpers.NewDataError(fmt.Sprintf("%s is not a JSON array", source), err)
	}
	return elements, nil
}

func (p *JSONProvider) read(ctx context.Context, source string) ([]byte, error) {
	if isRemote(source) {
		if p.Fetcher == nil {
			return nil, helpers.NewDataError(fmt.Sprintf("no http client for %s", source), nil)
		}
		return p.Fetcher.Get(ctx, source)
	}

	raw, err := os.ReadFile(source)
	if err != nil {
		return nil, helpers.NewDataError(fmt.Sprintf("cannot read %s", source), err)
	}
	return raw, nil
}

func (p *JSONProvider) reportSkipped(source string, total, kept int) {
	if skipped := total - kept; skipped > 0 && p.Logger != nil {
		p.Logger.Warning("Skipped %d malformed record(s) in %s", skipped, source)
	}
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
