package circuitbreaker

import (
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

var (
	// MaxNumOfFailingRequests is the number of requests after which the
	// breaker starts evaluating the failing ratio.
	MaxNumOfFailingRequests = 10
	// FailingRatio is the ratio of failed requests that opens the breaker.
	FailingRatio = 0.6
)

// NewCircuitBreaker returns a *gobreaker.CircuitBreaker that opens once more
// than MaxNumOfFailingRequests requests were made and the failing ratio has
// met FailingRatio. State changes are logged with the given name, that is
// usually the host of the remote service.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: name,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return int(counts.Requests) > MaxNumOfFailingRequests && ratio >= FailingRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				log.Warnf("%s seems down, stop allowing requests", name)
			}
			if from == gobreaker.StateOpen && to == gobreaker.StateHalfOpen {
				log.Infof("checking %s status", name)
			}
			if from == gobreaker.StateHalfOpen && to == gobreaker.StateClosed {
				log.Infof("%s seems ok, restart allowing requests", name)
			}
		},
	})
}
