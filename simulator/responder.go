package simulator

import (
	"math/rand"
	"sync"

	"github.com/kilianp07/iqrfdash/core/model"
)

// Responder decides how the simulated node answers an LED request. ok=false
// drops the request without answer.
type Responder interface {
	Respond(req model.Envelope) (rc model.RCode, ok bool)
}

// AutoResponse always succeeds.
type AutoResponse struct{}

// Respond implements Responder.
func (AutoResponse) Respond(model.Envelope) (model.RCode, bool) { return model.RCodeNoError, true }

// RandomResponse drops requests with DropRate and fails them with FailureRate.
type RandomResponse struct {
	DropRate    float64
	FailureRate float64
	FailureCode model.RCode

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomResponse creates a RandomResponse seeded with seed.
func NewRandomResponse(dropRate, failureRate float64, code model.RCode, seed int64) *RandomResponse {
	return &RandomResponse{
		DropRate:    dropRate,
		FailureRate: failureRate,
		FailureCode: code,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// Respond implements Responder.
func (r *RandomResponse) Respond(model.Envelope) (model.RCode, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.DropRate > 0 && r.rng.Float64() < r.DropRate {
		return "", false
	}
	if r.FailureRate > 0 && r.rng.Float64() < r.FailureRate {
		return r.FailureCode, true
	}
	return model.RCodeNoError, true
}
