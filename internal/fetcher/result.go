package fetcher

// Status tags the terminal outcome of a fetch.
type Status string

const (
	// StatusSuccess means a value was obtained.
	StatusSuccess Status = "success"
	// StatusNoData means the provider answered but had nothing for the instrument.
	StatusNoData Status = "no_data"
	// StatusFailed means every attempt faulted, or the data was invalid.
	StatusFailed Status = "failed"
)

// Result is the outcome of one fetch operation. Only StatusSuccess carries a
// value; the other statuses are the two flavours of absence.
type Result[T any] struct {
	Value    T
	Status   Status
	Attempts int

	// Err is the last fault seen for StatusFailed, nil otherwise.
	Err error
}

// Success builds a present result.
func Success[T any](v T, attempts int) Result[T] {
	return Result[T]{Value: v, Status: StatusSuccess, Attempts: attempts}
}

// NoData builds an absent result for a provider that had nothing to report.
func NoData[T any](attempts int) Result[T] {
	return Result[T]{Status: StatusNoData, Attempts: attempts}
}

// Failed builds an absent result for a fetch that gave up.
func Failed[T any](err error, attempts int) Result[T] {
	return Result[T]{Status: StatusFailed, Attempts: attempts, Err: err}
}

// Present reports whether r carries a value.
func (r Result[T]) Present() bool {
	return r.Status == StatusSuccess
}

// Get returns the value and whether it is present.
func (r Result[T]) Get() (T, bool) {
	if !r.Present() {
		var zero T
		return zero, false
	}
	return r.Value, true
}
