// Package hessian implements an incremental decoder for the Hessian binary
// serialization protocol.
//
// A Decoder consumes input one byte at a time and never buffers a whole
// message. It reports what it recognizes to a Sink as a stream of events
// (scalars, composite open and close, object definitions, envelope
// headers). A Builder is a Sink that assembles those events into a value
// tree with back-references resolved to shared pointers.
//
//	b := hessian.NewBuilder(hessian.ScopeMessage)
//	d := hessian.NewDecoder(b)
//	if _, err := io.Copy(d, r); err != nil {
//		return err
//	}
//	if err := d.Close(); err != nil {
//		return err
//	}
//	values := b.Messages()
//
// Decoding errors are fatal: the decoder does not resynchronize.
package hessian
