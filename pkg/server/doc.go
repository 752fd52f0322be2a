// Package server provides the HTTP and WebSocket transport for COHIS.
//
// The server exposes a small JSON API for stateless placement and uploads,
// and a live endpoint where a browser streams document events over a
// WebSocket while the server owns every widget's state.
//
// # Routes
//
//	GET    /healthz             liveness
//	GET    /metrics             Prometheus exposition (WithMetrics)
//	POST   /api/v1/placement    stateless placement
//	*      /api/v1/uploads/...  upload store (WithUploads)
//	GET    /cohis.js            browser client (ETag revalidated)
//	GET    /live                WebSocket upgrade into a live session
//
// A page opts into live widgets with
//
//	<script src="/cohis.js" data-live="/live"></script>
//
// and marks tracked elements with data-cohis attributes; the client mirrors
// them into the session and positions floating elements from its updates.
//
// # Session Lifecycle
//
// Each WebSocket connection creates a Session holding one overlay.Layer over
// a fresh dom.Document. The session runs two goroutines:
//   - ReadLoop: decodes frames and drives the layer synchronously, so widget
//     state is only ever touched from one goroutine
//   - WriteLoop: drains the outbound queue and sends heartbeat pings
//
// Updates produced while handling one event are sent as a batch; the last
// frame of the batch carries protocol.FlagFinal.
//
// Closing a session closes its layer, which unmounts every widget and
// releases its document listeners.
//
// # Example Usage
//
//	srv := server.New(server.DefaultConfig(),
//	    server.WithPage(func(l *overlay.Layer) error {
//	        _, err := l.AddTooltip(overlay.TooltipConfig{
//	            ID: "help", AnchorID: "help-icon", FloatingID: "help-tip",
//	            Content: "Opens the user guide",
//	        })
//	        return err
//	    }),
//	)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
