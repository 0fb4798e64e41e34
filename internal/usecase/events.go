package usecase

import (
	"context"
	"sort"
	"time"

	"SigBoard/internal/domain/models"
	"SigBoard/pkg/logger"
)

// EventPublisher pushes dashboard events to an external topic.
// *kafka.Producer satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

// SignalChangeNotifier publishes an event whenever a symbol's classification
// flips between two consecutive snapshots.
type SignalChangeNotifier struct {
	publisher EventPublisher
	topic     string
	logger    *logger.Logger
}

// NewSignalChangeNotifier creates a notifier for the given topic.
func NewSignalChangeNotifier(publisher EventPublisher, topic string, l *logger.Logger) *SignalChangeNotifier {
	return &SignalChangeNotifier{
		publisher: publisher,
		topic:     topic,
		logger:    l,
	}
}

// DiffSignals compares two snapshots and returns one change per symbol whose
// signal flipped. Symbols present in only one snapshot are not changes; the
// first snapshot after startup produces none.
func DiffSignals(prev, next models.Snapshot) []models.SignalChange {
	if prev.Entries == nil || next.Entries == nil {
		return nil
	}

	var changes []models.SignalChange
	for symbol, entry := range next.Entries {
		old, ok := prev.Entries[symbol]
		if !ok || old.Signal == entry.Signal {
			continue
		}
		changes = append(changes, models.SignalChange{
			Symbol:    symbol,
			From:      old.Signal,
			To:        entry.Signal,
			Score:     entry.Score,
			Price:     entry.Price,
			Timestamp: next.FetchedAt,
		})
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Symbol < changes[j].Symbol })
	return changes
}

// Notify publishes the changes, one message per symbol. Publish failures are
// logged and swallowed; eventing never blocks or fails a poll.
func (n *SignalChangeNotifier) Notify(ctx context.Context, changes []models.SignalChange) {
	for _, ch := range changes {
		pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := n.publisher.Publish(pubCtx, n.topic, []byte(ch.Symbol), ch)
		cancel()
		if err != nil {
			n.logger.Warn("signal change publish failed",
				logger.String("symbol", ch.Symbol),
				logger.Error(err),
			)
			continue
		}
		n.logger.Debug("signal change published",
			logger.String("symbol", ch.Symbol),
			logger.String("from", string(ch.From)),
			logger.String("to", string(ch.To)),
		)
	}
}
