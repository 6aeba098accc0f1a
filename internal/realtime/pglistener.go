// internal/realtime/pglistener.go
package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// DefaultChannel is the NOTIFY channel the listings trigger publishes on.
const DefaultChannel = "listings_changed"

// PGListener relays PostgreSQL NOTIFY messages into a Broadcaster.
type PGListener struct {
	*Broadcaster

	listener *pq.Listener
	channel  string
	log      *logrus.Entry
}

func NewPGListener(dsn, channel string) (*PGListener, error) {
	if channel == "" {
		channel = DefaultChannel
	}
	log := logrus.WithField("component", "pg_listener")

	l := pq.NewListener(dsn, 2*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.WithError(err).Warn("Notification listener connection problem")
		}
	})
	if err := l.Listen(channel); err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", channel, err)
	}

	return &PGListener{
		Broadcaster: NewBroadcaster(),
		listener:    l,
		channel:     channel,
		log:         log,
	}, nil
}

// Run forwards notifications until ctx is done, then closes the listener
// and every subscription.
func (p *PGListener) Run(ctx context.Context) {
	defer p.Broadcaster.Close()
	defer p.listener.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-p.listener.Notify:
			if !ok {
				return
			}
			ev := Event{Table: "listings", At: time.Now()}
			if n == nil {
				// pq sends nil after a reconnect; anything may have
				// changed while we were away.
				ev.Operation = "RECONNECT"
			} else {
				ev.Operation = n.Extra
			}
			p.Publish(ev)
		case <-time.After(90 * time.Second):
			go func() {
				if err := p.listener.Ping(); err != nil {
					p.log.WithError(err).Warn("Notification listener ping failed")
				}
			}()
		}
	}
}
