package model

import "fmt"

// RetrievalError reports that reserves for a pool could not be read.
type RetrievalError struct {
	Pool PoolRef
	Err  error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieve reserves %s: %v", e.Pool, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}
