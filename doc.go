// Package chunkring is a bounded lock-free ring of pre-allocated byte chunks
// for many producers and many consumers.
//
// A producer claims a slot, writes into its chunk and commits it; a consumer
// claims a committed slot, reads it and releases it. Claims come in two
// flavours over one protocol: spinning (ClaimProducer, ClaimConsumer), which
// back off until a slot is available, and non-blocking (TryClaimProducer,
// TryClaimConsumer), which fail with ErrUnavailable instead.
//
// Every successful claim must be finalized exactly once. Guards and the
// Produce/Consume helpers do that on every exit path:
//
//	r, _ := chunkring.New[Meta](8, 64)
//
//	_ = r.Produce(func(t chunkring.Ticket[Meta]) error {
//		_, err := t.WriteString("hello")
//		return err
//	})
//
//	_ = r.Consume(func(t chunkring.Ticket[Meta]) error {
//		fmt.Println(string(t.Bytes()))
//		return nil
//	})
//
// Stop disables producers; consumers drain what was committed and then get
// ErrShutdown.
package chunkring
