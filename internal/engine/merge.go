package engine

import (
	"sort"
	"time"

	"backtest_go/internal/domain"
)

// eventKind ranks record types for the tie-break at equal timestamps:
// quotes before trades before bars.
type eventKind int

const (
	kindQuoteTick eventKind = iota
	kindTradeTick
	kindBar
)

// event is one replayable record tagged with its merge keys.
type event struct {
	timestamp time.Time
	kind      eventKind
	source    int // registration order of the originating source
	seq       int // position within the source
	quoteTick domain.QuoteTick
	tradeTick domain.TradeTick
	bar       domain.Bar
	barType   domain.BarType
}

// merge flattens all sources into one globally ordered sequence:
// timestamp ascending, then kind (quote < trade < bar), then source
// registration order, then per-source sequence. The sort is total over
// those keys, so replay order is bit-reproducible for identical inputs
// no matter how many sources are merged.
func merge(data *DataContainer) []event {
	events := make([]event, 0, data.EventCount())
	for sourceIdx, source := range data.sources {
		switch source.kind {
		case kindQuoteTick:
			for i, tick := range source.quoteTicks {
				events = append(events, event{
					timestamp: tick.Timestamp,
					kind:      kindQuoteTick,
					source:    sourceIdx,
					seq:       i,
					quoteTick: tick,
				})
			}
		case kindTradeTick:
			for i, tick := range source.tradeTicks {
				events = append(events, event{
					timestamp: tick.Timestamp,
					kind:      kindTradeTick,
					source:    sourceIdx,
					seq:       i,
					tradeTick: tick,
				})
			}
		case kindBar:
			for i, bar := range source.bars {
				events = append(events, event{
					timestamp: bar.Timestamp,
					kind:      kindBar,
					source:    sourceIdx,
					seq:       i,
					bar:       bar,
					barType:   source.barType,
				})
			}
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.timestamp.Equal(b.timestamp) {
			return a.timestamp.Before(b.timestamp)
		}
		if a.kind != b.kind {
			return a.kind < b.kind
		}
		if a.source != b.source {
			return a.source < b.source
		}
		return a.seq < b.seq
	})
	return events
}
