package stream

// Pipe runs a raw provider chunk stream through a NativeParser and returns
// the resulting Event stream, forwarding any transport error untouched.
// This is the base handler every llm.Engine composes with before the
// advisor chain sees the stream — it works unchanged for tag-mode
// providers too, since they never populate a tool_calls delta and Pipe
// just forwards their prose as KindText events.
func Pipe(chunks <-chan Chunk, errs <-chan error) (<-chan Event, <-chan error) {
	events := make(chan Event)
	outErrs := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(outErrs)

		parser := NewNativeParser()
		for c := range chunks {
			for _, e := range parser.Feed(c) {
				events <- e
			}
		}
		for _, e := range parser.Flush() {
			events <- e
		}
		if err, ok := <-errs; ok && err != nil {
			outErrs <- err
		}
	}()

	return events, outErrs
}
