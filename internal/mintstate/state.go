// Package mintstate holds the dapp's view of the sale: an immutable State
// snapshot, the named transitions that produce the next snapshot, and the
// pure renderer that maps a snapshot to one of six views.
package mintstate

import (
	"fmt"
	"time"

	"github.com/cryptodevs/nftmint/internal/apperr"
	"github.com/cryptodevs/nftmint/internal/contract"
)

// State is a read projection of the contract plus the local session.
// Values are copied, never mutated in place.
type State struct {
	Connected      bool   `json:"connected"`
	Address        string `json:"address,omitempty"`
	Loading        bool   `json:"loading"`
	IsOwner        bool   `json:"is_owner"`
	PresaleStarted bool   `json:"presale_started"`
	PresaleEnd     uint64 `json:"presale_end"`
	PresaleEnded   bool   `json:"presale_ended"`
	Minted         uint64 `json:"minted"`
	Cap            uint64 `json:"cap"`
}

// Initial is the state before any wallet interaction.
func Initial() State {
	return State{Cap: contract.MaxTokenIDs}
}

// Kind names a transition.
type Kind string

const (
	KindConnected       Kind = "connected"
	KindOwnerResolved   Kind = "owner_resolved"
	KindPresaleObserved Kind = "presale_observed"
	KindMintedObserved  Kind = "minted_observed"
	KindActionStarted   Kind = "action_started"
	KindActionFinished  Kind = "action_finished"
)

// Transition is a discrete, named change request. Only the fields relevant
// to Kind are read.
type Transition struct {
	Kind    Kind
	Address string
	IsOwner bool
	Started bool
	End     uint64
	Now     time.Time
	Minted  uint64
}

func Connected(address string) Transition {
	return Transition{Kind: KindConnected, Address: address}
}

func OwnerResolved(isOwner bool) Transition {
	return Transition{Kind: KindOwnerResolved, IsOwner: isOwner}
}

// PresaleObserved reports a read of presaleStarted and, when started, the
// end timestamp. now is the wall clock used to derive "ended".
func PresaleObserved(started bool, end uint64, now time.Time) Transition {
	return Transition{Kind: KindPresaleObserved, Started: started, End: end, Now: now}
}

func MintedObserved(n uint64) Transition {
	return Transition{Kind: KindMintedObserved, Minted: n}
}

func ActionStarted() Transition  { return Transition{Kind: KindActionStarted} }
func ActionFinished() Transition { return Transition{Kind: KindActionFinished} }

type applyFunc func(State, Transition) (State, error)

var transitions = map[Kind]applyFunc{
	KindConnected: func(s State, t Transition) (State, error) {
		s.Connected = true
		s.Address = t.Address
		return s, nil
	},
	KindOwnerResolved: func(s State, t Transition) (State, error) {
		s.IsOwner = t.IsOwner
		return s, nil
	},
	KindPresaleObserved: func(s State, t Transition) (State, error) {
		// The contract never closes a started presale, so started and
		// ended only move forward.
		if t.Started {
			s.PresaleStarted = true
			if t.End != 0 {
				s.PresaleEnd = t.End
			}
		}
		if s.PresaleStarted && !s.PresaleEnded && s.PresaleEnd != 0 {
			s.PresaleEnded = t.Now.Unix() >= int64(s.PresaleEnd)
		}
		return s, nil
	},
	KindMintedObserved: func(s State, t Transition) (State, error) {
		if t.Minted > s.Minted {
			s.Minted = t.Minted
		}
		return s, nil
	},
	KindActionStarted: func(s State, _ Transition) (State, error) {
		if !s.Connected {
			return s, apperr.ErrNotConnected
		}
		if s.Loading {
			return s, apperr.ErrBusy
		}
		s.Loading = true
		return s, nil
	},
	KindActionFinished: func(s State, _ Transition) (State, error) {
		s.Loading = false
		return s, nil
	},
}

// Apply returns the state that results from t. On error the input state is
// returned unchanged.
func Apply(s State, t Transition) (State, error) {
	fn, ok := transitions[t.Kind]
	if !ok {
		return s, fmt.Errorf("mintstate: unknown transition %q", t.Kind)
	}
	next, err := fn(s, t)
	if err != nil {
		return s, err
	}
	return next, nil
}
