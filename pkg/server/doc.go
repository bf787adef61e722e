// Package server hosts component trees over WebSocket connections.
//
// Each connected client gets a Session owning one hooks.Root. Clients send
// named events; registered handlers run inside a state batch, the root is
// flushed, and the committed view ships back as a binary frame. Disconnected
// sessions are snapshotted and can be resumed within a configurable window.
//
// A minimal server:
//
//	srv := server.New(server.DefaultConfig())
//	srv.SetRoot(func() hooks.Component { return hooks.Func(App) })
//	srv.Handle("counter/increment", func(ctx *server.Ctx) error {
//	    ...
//	    return nil
//	})
//	srv.Run(context.Background())
package server
