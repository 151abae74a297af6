package mintstate

import (
	"errors"
	"testing"
	"time"

	"github.com/cryptodevs/nftmint/internal/apperr"
)

func TestRender_TotalPriorityOrder(t *testing.T) {
	for mask := 0; mask < 32; mask++ {
		s := State{
			Connected:      mask&1 != 0,
			Loading:        mask&2 != 0,
			IsOwner:        mask&4 != 0,
			PresaleStarted: mask&8 != 0,
			PresaleEnded:   mask&16 != 0,
		}
		var want View
		switch {
		case !s.Connected:
			want = ViewConnectWallet
		case s.Loading:
			want = ViewLoading
		case s.IsOwner && !s.PresaleStarted:
			want = ViewStartPresale
		case !s.PresaleStarted:
			want = ViewPresaleNotStarted
		case s.PresaleStarted && !s.PresaleEnded:
			want = ViewPresaleMint
		case s.PresaleStarted && s.PresaleEnded:
			want = ViewPublicMint
		}
		if got := Render(s); got != want {
			t.Errorf("mask %05b: Render = %s, want %s", mask, got, want)
		}
	}
}

func TestRender_NotConnectedWinsOverEverything(t *testing.T) {
	s := State{Loading: true, IsOwner: true, PresaleStarted: true, PresaleEnded: true}
	if got := Render(s); got != ViewConnectWallet {
		t.Errorf("Render = %s, want %s", got, ViewConnectWallet)
	}
}

func TestRender_Scenarios(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	owner := Initial()
	owner, _ = Apply(owner, Connected("0xabc"))
	owner, _ = Apply(owner, OwnerResolved(true))
	owner, _ = Apply(owner, PresaleObserved(false, 0, now))
	if got := Render(owner); got != ViewStartPresale {
		t.Errorf("owner before presale = %s, want %s", got, ViewStartPresale)
	}
	owner, _ = Apply(owner, PresaleObserved(true, uint64(now.Add(5*time.Minute).Unix()), now))
	if !owner.PresaleStarted {
		t.Fatal("presale should be started after observation")
	}

	future := Initial()
	future, _ = Apply(future, Connected("0xabc"))
	future, _ = Apply(future, PresaleObserved(true, uint64(now.Add(time.Hour).Unix()), now))
	if got := Render(future); got != ViewPresaleMint {
		t.Errorf("future end = %s, want %s", got, ViewPresaleMint)
	}

	past := Initial()
	past, _ = Apply(past, Connected("0xabc"))
	past, _ = Apply(past, PresaleObserved(true, uint64(now.Add(-time.Hour).Unix()), now))
	if got := Render(past); got != ViewPublicMint {
		t.Errorf("past end = %s, want %s", got, ViewPublicMint)
	}
}

func TestPresaleEnded_FlipsAtEndAndNeverReverts(t *testing.T) {
	end := time.Unix(1_700_000_000, 0)
	s, _ := Apply(Initial(), Connected("0xabc"))

	s, _ = Apply(s, PresaleObserved(true, uint64(end.Unix()), end.Add(-time.Second)))
	if s.PresaleEnded {
		t.Fatal("ended before end timestamp")
	}
	s, _ = Apply(s, PresaleObserved(true, uint64(end.Unix()), end))
	if !s.PresaleEnded {
		t.Fatal("not ended at end timestamp")
	}
	// Clock skew or a stale read must not reopen the presale.
	s, _ = Apply(s, PresaleObserved(false, 0, end.Add(-time.Hour)))
	if !s.PresaleEnded || !s.PresaleStarted {
		t.Fatalf("presale reverted: %+v", s)
	}
}

func TestPresaleEnded_NotDerivedBeforeStart(t *testing.T) {
	s, _ := Apply(Initial(), Connected("0xabc"))
	s, _ = Apply(s, PresaleObserved(false, 0, time.Now()))
	if s.PresaleEnded {
		t.Fatal("ended without start")
	}
}

func TestMinted_NonDecreasing(t *testing.T) {
	s := Initial()
	for _, n := range []uint64{1, 3, 2, 3, 0, 7} {
		prev := s.Minted
		s, _ = Apply(s, MintedObserved(n))
		if s.Minted < prev {
			t.Fatalf("minted decreased from %d to %d", prev, s.Minted)
		}
	}
	if s.Minted != 7 {
		t.Errorf("minted = %d, want 7", s.Minted)
	}
	if s.Cap != 20 {
		t.Errorf("cap = %d, want 20", s.Cap)
	}
}

func TestActionStarted_Guards(t *testing.T) {
	if _, err := Apply(Initial(), ActionStarted()); !errors.Is(err, apperr.ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
	s, _ := Apply(Initial(), Connected("0xabc"))
	s, err := Apply(s, ActionStarted())
	if err != nil || !s.Loading {
		t.Fatalf("first action: loading=%v err=%v", s.Loading, err)
	}
	again, err := Apply(s, ActionStarted())
	if !errors.Is(err, apperr.ErrBusy) {
		t.Fatalf("err = %v, want ErrBusy", err)
	}
	if again != s {
		t.Error("failed transition must return the input state")
	}
	s, _ = Apply(s, ActionFinished())
	if s.Loading {
		t.Error("loading not cleared")
	}
}

func TestApply_UnknownKind(t *testing.T) {
	if _, err := Apply(Initial(), Transition{Kind: "bogus"}); err == nil {
		t.Fatal("expected error for unknown transition")
	}
}

func TestPresent_EveryViewHasCopy(t *testing.T) {
	for _, v := range []View{ViewConnectWallet, ViewLoading, ViewStartPresale, ViewPresaleNotStarted, ViewPresaleMint, ViewPublicMint} {
		p := Present(v)
		if p.View != v {
			t.Errorf("Present(%s).View = %s", v, p.View)
		}
		if p.Notice == "" && p.Button == "" {
			t.Errorf("Present(%s) has no copy", v)
		}
	}
}
