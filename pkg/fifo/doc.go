// Package fifo implements a line-oriented message bus over filesystem
// named pipes (FIFOs).
//
// A Worker owns one named pipe and polls it for newline-delimited UTF-8
// messages, dispatching each to the first matching subscription. A Client
// writes messages into the same pipe from another process, retrying with
// backoff while no reader is attached.
//
// The Worker is the main receiving component:
//
//	w, err := fifo.NewWorker("mybus.fifo", config.DefaultPipeConfig(), log)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Subscribe handlers; first match wins, so put the empty heartbeat
//	// message first as it is by far the most common.
//	w.Subscribe(heartbeat, "")
//	w.Subscribe(fifo.Quit, "quit")
//	w.SubscribeRegex(onStatus, "status:")
//	w.SubscribeWildcard(onUnknown)
//
//	if err := w.Run(ctx, 100*time.Millisecond); err != nil {
//	    log.Fatal(err)
//	}
//
// Sending from another process:
//
//	c := fifo.NewClient("mybus.fifo", config.DefaultClientConfig(), log)
//	if err := c.Write(ctx, "status: ok"); err != nil {
//	    log.Fatal(err)
//	}
//
// Messages are single lines with no embedded newline. Pipe writes of one
// line per write call stay intact up to the OS pipe buffer size, which is
// what keeps concurrent writers from interleaving partial lines.
package fifo
