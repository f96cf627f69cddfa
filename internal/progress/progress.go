// Package progress carries pipeline progress to whatever is presenting it.
//
// The pipeline calls a Sink synchronously at each state change and never
// waits on the consumer. A Sink is passed explicitly into every call, so
// there is no process-wide progress state.
package progress

// PageEvent reports pages completed within one document.
type PageEvent struct {
	File      string `json:"file"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// BatchEvent reports documents completed within one batch.
type BatchEvent struct {
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Current   string `json:"current"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// Sink receives progress events.
type Sink interface {
	Page(PageEvent)
	Batch(BatchEvent)
}

// Discard is a Sink that drops every event.
var Discard Sink = Funcs{}

// Funcs adapts plain callbacks to a Sink. Nil callbacks are skipped.
type Funcs struct {
	OnPage  func(PageEvent)
	OnBatch func(BatchEvent)
}

// Page implements Sink.
func (f Funcs) Page(e PageEvent) {
	if f.OnPage != nil {
		f.OnPage(e)
	}
}

// Batch implements Sink.
func (f Funcs) Batch(e BatchEvent) {
	if f.OnBatch != nil {
		f.OnBatch(e)
	}
}

// OrDiscard returns s, or Discard when s is nil.
func OrDiscard(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return s
}
