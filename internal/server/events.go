package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"

	"codevault/internal/vcs"
)

const eventWriteTimeout = 5 * time.Second

// events upgrades to a websocket and streams publish and revert events for
// the requested team (all teams when team_id is omitted). Events that arrive
// while the client is slow are dropped, never queued without bound.
func (s *Server) events(c *gin.Context) {
	teamID, ok := int64Query(c, "team_id", false)
	if !ok {
		return
	}
	if s.broadcaster == nil {
		abortWithError(c, fmt.Errorf("%w: event stream is not enabled", vcs.ErrNotFound))
		return
	}

	// the server write timeout would otherwise outlive the upgrade
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	uw := newUpgradeWriter(c.Writer)
	conn, err := websocket.Accept(uw, c.Request, nil)
	if err != nil {
		if uw.switched {
			// headers were already committed to 101
			s.logger.Error("websocket hijack failed", "error", err, "request_id", c.GetString(requestIDHeader))
		} else {
			s.logger.Warn("websocket upgrade rejected", "error", err, "request_id", c.GetString(requestIDHeader))
		}
		return
	}
	defer conn.CloseNow()

	sub := s.broadcaster.Subscribe(teamID)
	defer s.broadcaster.Unsubscribe(sub)

	s.logger.Debug("event stream opened", "team_id", teamID, "request_id", c.GetString(requestIDHeader))

	ctx := conn.CloseRead(c.Request.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err := writeEvent(ctx, conn, ev); err != nil {
				s.logger.Debug("event stream closed", "team_id", teamID, "error", err)
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, ev vcs.Event) error {
	ctx, cancel := context.WithTimeout(ctx, eventWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, ev)
}

// upgradeWriter hands websocket.Accept a writer it does not recognise as
// gin's. Accept flushes headers through gin's WriteHeaderNow before
// hijacking, and gin refuses to hijack a response it has written. Here the
// 101 goes straight to net/http, which sends it during Hijack, while gin
// still records the status for the access log.
type upgradeWriter struct {
	gw       gin.ResponseWriter
	raw      http.ResponseWriter
	switched bool
}

func newUpgradeWriter(gw gin.ResponseWriter) *upgradeWriter {
	w := &upgradeWriter{gw: gw, raw: gw}
	if u, ok := gw.(interface{ Unwrap() http.ResponseWriter }); ok {
		w.raw = u.Unwrap()
	}
	return w
}

func (w *upgradeWriter) Header() http.Header { return w.gw.Header() }

func (w *upgradeWriter) Write(b []byte) (int, error) { return w.gw.Write(b) }

func (w *upgradeWriter) WriteHeader(code int) {
	w.gw.WriteHeader(code)
	if code == http.StatusSwitchingProtocols {
		w.raw.WriteHeader(code)
		w.switched = true
	}
}

func (w *upgradeWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return w.gw.Hijack()
}
