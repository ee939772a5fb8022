// Package pipeline implements the sequential transformer-stacking
// composer of §4.7: given an initial byte source and a list of
// (stage, key) pairs, it produces Tn(...T2(T1(S0,k1),k2)...,kn).
//
// Compose takes its stages variadically and chains them at runtime, each
// stage behind the io.Reader interface; it does not produce a concrete
// composed type. It replaces the Rust source's compose_encoders! macro
// (original_source/src/crypt_encoder.rs).
package pipeline

import (
	"fmt"
	"io"
)

// Stage builds one transformer stage, wrapping inner with Build and a
// key. key may be nil for stages that don't need one (e.g. compression).
type Stage struct {
	Build func(inner io.Reader, key []byte) (io.Reader, error)
	Key   []byte
}

// Compose stacks stages on top of src in order: the output of stage i is
// the source of stage i+1. If any stage fails to build, Compose stops
// immediately and returns that error — later stages are never attempted.
func Compose(src io.Reader, stages ...Stage) (io.Reader, error) {
	cur := src
	for i, s := range stages {
		next, err := s.Build(cur, s.Key)
		if err != nil {
			return nil, &BuildError{StageIndex: i, Err: err}
		}
		cur = next
	}
	return cur, nil
}

// BuildError reports which stage in a Compose call failed to construct.
type BuildError struct {
	StageIndex int
	Err        error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("pipeline: stage %d: %v", e.StageIndex, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }
