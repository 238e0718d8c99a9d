// Package pipeline composes request stages into an explicit, ordered chain.
//
// A Stage either succeeds or returns an error. The runner stops at the first
// error, writes exactly one response through apierr, and never calls the
// handler.
package pipeline

import (
	"slices"

	"funding-hub/internal/apierr"

	"github.com/gin-gonic/gin"
)

// Stage is one step of request processing.
type Stage struct {
	Name string
	Run  func(c *gin.Context) error
}

// Pipeline is an immutable ordered list of stages.
type Pipeline struct {
	stages []Stage
}

func New(stages ...Stage) Pipeline {
	return Pipeline{stages: slices.Clone(stages)}
}

// Then returns a new pipeline with stages appended; p is unchanged.
func (p Pipeline) Then(stages ...Stage) Pipeline {
	return Pipeline{stages: append(slices.Clone(p.stages), stages...)}
}

// Names lists stage names in execution order.
func (p Pipeline) Names() []string {
	out := make([]string, len(p.stages))
	for i, s := range p.stages {
		out[i] = s.Name
	}
	return out
}

// Handle runs the stages, then h.
func (p Pipeline) Handle(h gin.HandlerFunc) gin.HandlerFunc {
	stages := slices.Clone(p.stages)
	return func(c *gin.Context) {
		for _, s := range stages {
			if err := s.Run(c); err != nil {
				apierr.Write(c, err)
				return
			}
		}
		h(c)
	}
}
