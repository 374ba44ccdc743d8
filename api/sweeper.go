/*
sweeper.go - Automated payment timeout sweeper

PURPOSE:
  Periodically checks for a purchase stuck in awaiting_payment past the
  configured idle threshold and auto-cancels it, refunding whatever was
  inserted. The controller also reaps lazily on the next request; the
  sweeper guarantees the refund happens even if no one ever walks up.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - The expiry decision itself lives in the controller; the sweeper
    only supplies the heartbeat

USAGE:
  sweeper := NewPaymentSweeper(machine)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - machine/controller.go: ExpireStalePayment
  - machine/transaction.go: The payment deadline
*/
package api

import (
	"log"
	"sync"
	"time"

	"github.com/warp/vending-engine/machine"
)

// PaymentSweeper expires purchases that overstay the payment window.
type PaymentSweeper struct {
	Machine       *machine.Controller
	CheckInterval time.Duration

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewPaymentSweeper creates a sweeper over one machine.
func NewPaymentSweeper(m *machine.Controller) *PaymentSweeper {
	return &PaymentSweeper{
		Machine:       m,
		CheckInterval: 5 * time.Second,
		stop:          make(chan bool),
	}
}

// Start begins the sweeper.
func (ps *PaymentSweeper) Start() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.ticker = time.NewTicker(ps.CheckInterval)
	ps.wg.Add(1)

	go ps.run()

	log.Printf("[Sweeper] Started with check interval: %v", ps.CheckInterval)
}

// Stop stops the sweeper.
func (ps *PaymentSweeper) Stop() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.ticker != nil {
		ps.ticker.Stop()
		close(ps.stop)
		ps.wg.Wait()
		log.Println("[Sweeper] Stopped")
	}
}

func (ps *PaymentSweeper) run() {
	defer ps.wg.Done()

	for {
		select {
		case <-ps.ticker.C:
			if refund, reaped := ps.Machine.ExpireStalePayment(); reaped {
				log.Printf("[Sweeper] Expired stale payment, refunded %d", refund.Cents())
			}
		case <-ps.stop:
			return
		}
	}
}
