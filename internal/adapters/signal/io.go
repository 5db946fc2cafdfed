package signal

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

// writePump drains the outbox to the socket and keeps the peer alive with
// pings. Any write failure ends the connection.
func (ctl *Controller) writePump(ctx context.Context, cancel context.CancelFunc, c *wsConn) {
	ticker := time.NewTicker(ctl.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		c.close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.sock.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("ping write failed")
				return
			}
		case <-c.wake:
			for _, payload := range c.drain() {
				if err := c.sock.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
					return
				}
				if err := c.sock.WriteMessage(websocket.TextMessage, payload); err != nil {
					log.Debug().Err(err).Str("module", "signal").Msg("write failed")
					return
				}
			}
		}
	}
}

// readPump decodes inbound frames and dispatches them until the socket
// errors or the connection context ends.
func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, cl *client, c *wsConn) {
	defer cancel()

	pongWait := ctl.cfg.PingPeriod * 10 / 9
	c.sock.SetReadLimit(ctl.cfg.ReadLimit)
	_ = c.sock.SetReadDeadline(time.Now().Add(pongWait))
	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.sock.ReadMessage()
		if err != nil {
			log.Debug().Err(err).Str("module", "signal").Uint64("client", uint64(cl.id)).Msg("read ended")
			return
		}
		ctl.dispatch(ctx, cl, data)
	}
}
