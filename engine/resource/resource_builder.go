package resource

// ExecutorBuilderOption is a functional option for configuring an Executor via NewExecutor.
type ExecutorBuilderOption func(*executorImpl)

// WithWorkers is an option builder that sets the number of pool workers used
// to service accessors in parallel. A value of 1 or less keeps servicing
// serial on the calling goroutine.
//
// Parameters:
//   - workers: the worker count
//
// Returns:
//   - ExecutorBuilderOption: a function that applies the workers option to an executor
func WithWorkers(workers int) ExecutorBuilderOption {
	return func(e *executorImpl) {
		e.workers = workers
	}
}
