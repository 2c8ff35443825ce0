package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"settlecontrol/internal/handlers/business"
	"settlecontrol/internal/models"
)

var ledgerUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the CORS layer in front of this service.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ledgerFeedHub fans committed ledger entries out to connected dashboards.
// Slow clients are dropped rather than allowed to block the feed.
type ledgerFeedHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan models.WalletLedgerEntry
}

var (
	ledgerHub     = &ledgerFeedHub{clients: make(map[*websocket.Conn]chan models.WalletLedgerEntry)}
	ledgerHubOnce sync.Once
)

func (h *ledgerFeedHub) add(conn *websocket.Conn) chan models.WalletLedgerEntry {
	send := make(chan models.WalletLedgerEntry, 64)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()
	return send
}

func (h *ledgerFeedHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if send, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(send)
	}
	h.mu.Unlock()
	conn.Close()
}

func (h *ledgerFeedHub) broadcast(entry models.WalletLedgerEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, send := range h.clients {
		select {
		case send <- entry:
		default:
			log.Warnf("ledger feed client too slow, dropping connection %s", conn.RemoteAddr())
			delete(h.clients, conn)
			close(send)
			conn.Close()
		}
	}
}

// LedgerFeed upgrades the connection and streams every committed ledger
// entry as JSON until the client disconnects
func LedgerFeed(c *gin.Context) {
	ledgerHubOnce.Do(func() {
		business.RegisterLedgerListener(ledgerHub.broadcast)
	})

	conn, err := ledgerUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("ledger feed upgrade failed: %v", err)
		return
	}

	send := ledgerHub.add(conn)
	log.Infof("ledger feed client connected: %s", conn.RemoteAddr())

	// Reader goroutine exists only to detect the close frame.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				ledgerHub.remove(conn)
				return
			}
		}
	}()

	for entry := range send {
		if err := conn.WriteJSON(entry); err != nil {
			ledgerHub.remove(conn)
			return
		}
	}
}
