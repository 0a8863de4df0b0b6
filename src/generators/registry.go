package generators

import (
	"sort"

	"chart-stream/src/interfaces"
	"chart-stream/src/models"
)

// -----------------------------------------------------------------------------
// Generator Registry
// -----------------------------------------------------------------------------

// Registry maps a series kind name to its generator. It is filled once by
// NewRegistry and only read afterwards, so it needs no locking.
type Registry struct {
	generators map[string]interfaces.ISeriesGenerator
}

// NewRegistry builds the registry with every built-in series kind.
func NewRegistry() *Registry {
	return newRegistry(
		NewLineGenerator(),
		NewCandlestickGenerator(),
	)
}

func newRegistry(gens ...interfaces.ISeriesGenerator) *Registry {
	r := &Registry{generators: make(map[string]interfaces.ISeriesGenerator, len(gens))}
	for _, g := range gens {
		r.generators[g.Name()] = g
	}
	return r
}

// -----------------------------------------------------------------------------

// Resolve looks a kind up by exact, case-sensitive name.
func (r *Registry) Resolve(name string) (interfaces.ISeriesGenerator, bool) {
	g, ok := r.generators[name]
	return g, ok
}

// Names returns the registered kinds in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// -----------------------------------------------------------------------------
// Dispatch
// -----------------------------------------------------------------------------

// Generate runs gen over the records of its kind in ds, starting at index from.
// from is clamped to the collection length.
func Generate(gen interfaces.ISeriesGenerator, seriesID string, ds *models.MDataset, from int) models.MDrawCommand {
	if ds == nil {
		ds = &models.MDataset{}
	}
	if from < 0 {
		from = 0
	}

	switch gen.RecordKind() {
	case models.KindTimeValue:
		return gen.GenerateTimeValues(seriesID, ds.TimeValues[min(from, len(ds.TimeValues)):])
	case models.KindOhlc:
		return gen.GenerateOhlc(seriesID, ds.Ohlc[min(from, len(ds.Ohlc)):])
	}
	return models.MDrawCommand{}
}
