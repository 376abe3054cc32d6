// Package integration connects shells to terminal screens.
//
// The subpackages do the work:
//
//   - pty: the session manager. One worker goroutine owns every PTY and
//     serializes create, write, read, resize and close requests.
//   - terminal: the VT/ANSI screen model. It turns output bytes into a grid
//     of styled cells with scrollback.
//   - pane: one session bound to one screen, pumped by the caller.
//
// This package holds the Bus that fans session lifecycle events
// (pty.created, pty.exited, pty.closed) out to subscribers.
//
// # Usage
//
//	bus := integration.NewBus(logger)
//	bus.Subscribe("pty.*", func(e integration.Event) { ... })
//
//	mgr := pty.NewManager(pty.WithEventPublisher(bus))
//	defer mgr.Shutdown()
//
//	p, err := pane.New(mgr, 24, 80)
//	if err != nil {
//		return err
//	}
//	defer p.Close()
//
//	p.WriteString("ls\n")
//	p.Settle(ctx, 10*time.Millisecond, 200*time.Millisecond)
//	fmt.Println(p.Snapshot().Text())
package integration
