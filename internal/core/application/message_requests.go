package application

import (
	"sync"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

type messageResult struct {
	tx  *domain.Transaction
	err error
}

// messageRequests tracks the callers waiting for the outcome of a sent
// message. An entry is removed in the same critical section where it's
// looked up, so every request is settled once.
type messageRequests struct {
	lock     sync.Mutex
	requests map[string]map[string]chan messageResult
}

func newMessageRequests() *messageRequests {
	return &messageRequests{
		requests: make(map[string]map[string]chan messageResult),
	}
}

func (r *messageRequests) add(address, hash string) (<-chan messageResult, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	byHash, ok := r.requests[address]
	if !ok {
		byHash = make(map[string]chan messageResult)
		r.requests[address] = byHash
	}
	if _, ok := byHash[hash]; ok {
		return nil, domain.NewRpcError(
			domain.InvalidRequest, "Message %s is already being sent", hash,
		)
	}

	ch := make(chan messageResult, 1)
	byHash[hash] = ch
	return ch, nil
}

func (r *messageRequests) take(address, hash string) (chan messageResult, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()

	byHash, ok := r.requests[address]
	if !ok {
		return nil, false
	}
	ch, ok := byHash[hash]
	if !ok {
		return nil, false
	}
	delete(byHash, hash)
	if len(byHash) <= 0 {
		delete(r.requests, address)
	}
	return ch, true
}

func (r *messageRequests) resolve(address, hash string, tx domain.Transaction) bool {
	ch, ok := r.take(address, hash)
	if !ok {
		log.Debugf("no send message request for %s found", hash)
		return false
	}
	ch <- messageResult{tx: &tx}
	return true
}

func (r *messageRequests) reject(address, hash string, err error) bool {
	ch, ok := r.take(address, hash)
	if !ok {
		log.Debugf("no send message request for %s found", hash)
		return false
	}
	ch <- messageResult{err: err}
	return true
}

// rejectAddress rejects every request of address and returns how many.
func (r *messageRequests) rejectAddress(address string, err error) int {
	r.lock.Lock()
	byHash := r.requests[address]
	delete(r.requests, address)
	r.lock.Unlock()

	for _, ch := range byHash {
		ch <- messageResult{err: err}
	}
	return len(byHash)
}

func (r *messageRequests) rejectAll(err error) int {
	r.lock.Lock()
	requests := r.requests
	r.requests = make(map[string]map[string]chan messageResult)
	r.lock.Unlock()

	count := 0
	for _, byHash := range requests {
		for _, ch := range byHash {
			ch <- messageResult{err: err}
			count++
		}
	}
	return count
}

func (r *messageRequests) count() int {
	r.lock.Lock()
	defer r.lock.Unlock()

	count := 0
	for _, byHash := range r.requests {
		count += len(byHash)
	}
	return count
}
