package business

import (
	"sync"
	"time"

	"settlecontrol/internal/models"
	dbconfig "settlecontrol/pkg/config"

	logger "github.com/sirupsen/logrus"
)

// EventQueue is the queue settlement events are published to. Notification
// delivery itself is an external consumer of this queue.
const EventQueue = "settlement_events"

// Event is the envelope for everything the engine announces.
type Event struct {
	Kind      string      `json:"kind"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

var (
	eventsMu sync.RWMutex
	events   *dbconfig.Publisher

	ledgerListenersMu sync.RWMutex
	ledgerListeners   []func(models.WalletLedgerEntry)
)

// SetEventPublisher wires the RabbitMQ publisher in. Passing nil disables
// publishing (worker-less deployments, tests).
func SetEventPublisher(p *dbconfig.Publisher) {
	eventsMu.Lock()
	defer eventsMu.Unlock()
	events = p
}

// publishEvent sends an event if a publisher is configured. Publishing is
// best effort: a broker outage must not fail a committed settlement
// operation, so errors are logged and dropped.
func publishEvent(kind string, payload interface{}) {
	eventsMu.RLock()
	p := events
	eventsMu.RUnlock()
	if p == nil {
		return
	}
	evt := Event{Kind: kind, Timestamp: time.Now(), Payload: payload}
	if err := p.Publish(EventQueue, evt); err != nil {
		logger.Errorf("publish %s event failed: %v", kind, err)
	}
}

// RegisterLedgerListener subscribes to committed ledger appends. The
// websocket feed uses this; listeners must not block.
func RegisterLedgerListener(fn func(models.WalletLedgerEntry)) {
	ledgerListenersMu.Lock()
	defer ledgerListenersMu.Unlock()
	ledgerListeners = append(ledgerListeners, fn)
}

func notifyLedgerListeners(entry models.WalletLedgerEntry) {
	ledgerListenersMu.RLock()
	defer ledgerListenersMu.RUnlock()
	for _, fn := range ledgerListeners {
		fn(entry)
	}
}
