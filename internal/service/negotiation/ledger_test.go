package negotiation

import (
	"errors"
	"testing"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/google/uuid"
)

func searchingRide() *models.Ride {
	return &models.Ride{
		ID:           uuid.New(),
		CustomerID:   uuid.New(),
		Status:       types.StatusSearching,
		Fare:         60,
		ProposedFare: 60,
	}
}

func TestLedger_NegotiatedAcceptance(t *testing.T) {
	l := New()
	r := searchingRide()
	driver := uuid.New()

	offer, err := l.Submit(r, OfferInput{DriverID: driver, OfferedFare: 80, ETA: 4, DistanceToPickup: 1.2})
	if err != nil {
		t.Fatal(err)
	}
	if offer.Status != types.OfferPending {
		t.Fatalf("status: got %s want pending", offer.Status)
	}

	countered, err := l.Counter(r, CounterInput{
		OfferID: offer.ID, ActorID: r.CustomerID, From: types.PartyPassenger, Amount: 70,
	})
	if err != nil {
		t.Fatal(err)
	}
	if countered.Status != types.OfferCountered || len(countered.CounterOffers) != 1 {
		t.Fatalf("unexpected countered offer %+v", countered)
	}

	accepted, err := l.Accept(r, offer.ID, r.CustomerID)
	if err != nil {
		t.Fatal(err)
	}
	if accepted.Status != types.OfferAccepted {
		t.Fatalf("offer status: %s", accepted.Status)
	}
	if r.Status != types.StatusAccepted || r.RiderID == nil || *r.RiderID != driver {
		t.Fatalf("ride must be accepted by %v, got %s %v", driver, r.Status, r.RiderID)
	}
	if r.AcceptedOfferID == nil || *r.AcceptedOfferID != offer.ID {
		t.Fatalf("accepted offer id not set")
	}
	if r.Fare != 80 {
		t.Fatalf("fare: got %d want 80", r.Fare)
	}
}

func TestLedger_AcceptRejectsEverySibling(t *testing.T) {
	l := New()
	r := searchingRide()

	var ids []uuid.UUID
	for range 4 {
		o, err := l.Submit(r, OfferInput{DriverID: uuid.New(), OfferedFare: 75})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, o.ID)
	}
	if _, err := l.Reject(r, ids[1], r.CustomerID); err != nil {
		t.Fatal(err)
	}

	if _, err := l.Accept(r, ids[2], r.CustomerID); err != nil {
		t.Fatal(err)
	}

	if n := AcceptedCount(r); n != 1 {
		t.Fatalf("accepted offers: got %d want 1", n)
	}
	for _, o := range r.Offers {
		if o.ID != ids[2] && o.Status != types.OfferRejected {
			t.Fatalf("sibling %v must be rejected, got %s", o.ID, o.Status)
		}
	}

	// second accept loses gracefully
	if _, err := l.Accept(r, ids[3], r.CustomerID); !errors.Is(err, types.ErrOfferUnavailable) {
		t.Fatalf("got %v want ErrOfferUnavailable", err)
	}
	if n := AcceptedCount(r); n != 1 {
		t.Fatalf("accepted offers after second accept: got %d", n)
	}
}

func TestLedger_SubmitRules(t *testing.T) {
	l := New()
	r := searchingRide()
	driver := uuid.New()

	if _, err := l.Submit(r, OfferInput{DriverID: driver}); !errors.Is(err, types.ErrInvalidFare) {
		t.Fatalf("zero fare: got %v", err)
	}
	if _, err := l.Submit(r, OfferInput{DriverID: r.CustomerID, OfferedFare: 10}); !errors.Is(err, types.ErrOwnRide) {
		t.Fatalf("own ride: got %v", err)
	}

	first, _ := l.Submit(r, OfferInput{DriverID: driver, OfferedFare: 90})
	firstID := first.ID
	if _, err := l.Submit(r, OfferInput{DriverID: driver, OfferedFare: 85}); err != nil {
		t.Fatal(err)
	}
	old, _ := r.OfferByID(firstID)
	if old.Status != types.OfferExpired {
		t.Fatalf("previous open offer must expire, got %s", old.Status)
	}

	r.Status = types.StatusAccepted
	if _, err := l.Submit(r, OfferInput{DriverID: uuid.New(), OfferedFare: 50}); !errors.Is(err, types.ErrInvalidState) {
		t.Fatalf("offer on accepted ride: got %v", err)
	}
}

func TestLedger_CounterAuthorization(t *testing.T) {
	l := New()
	r := searchingRide()
	driver := uuid.New()
	offer, _ := l.Submit(r, OfferInput{DriverID: driver, OfferedFare: 80})

	cases := []struct {
		name string
		in   CounterInput
		want error
	}{
		{"stranger as passenger", CounterInput{OfferID: offer.ID, ActorID: uuid.New(), From: types.PartyPassenger, Amount: 70}, types.ErrNotRideOwner},
		{"other driver", CounterInput{OfferID: offer.ID, ActorID: uuid.New(), From: types.PartyDriver, Amount: 75}, types.ErrNotOfferOwner},
		{"unknown offer", CounterInput{OfferID: uuid.New(), ActorID: driver, From: types.PartyDriver, Amount: 75}, types.ErrOfferNotFound},
		{"bad amount", CounterInput{OfferID: offer.ID, ActorID: driver, From: types.PartyDriver}, types.ErrInvalidFare},
		{"bad party", CounterInput{OfferID: offer.ID, ActorID: driver, From: "admin", Amount: 75}, types.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := l.Counter(r, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("got %v want %v", err, tc.want)
			}
		})
	}
}

func TestLedger_UnlimitedCounterRounds(t *testing.T) {
	l := New()
	r := searchingRide()
	driver := uuid.New()
	offer, _ := l.Submit(r, OfferInput{DriverID: driver, OfferedFare: 100})

	for i := range 30 {
		in := CounterInput{OfferID: offer.ID, Amount: 100 - i}
		if i%2 == 0 {
			in.ActorID, in.From = r.CustomerID, types.PartyPassenger
		} else {
			in.ActorID, in.From = driver, types.PartyDriver
		}
		if _, err := l.Counter(r, in); err != nil {
			t.Fatalf("round %d: %v", i, err)
		}
	}

	o, _ := r.OfferByID(offer.ID)
	if len(o.CounterOffers) != 30 {
		t.Fatalf("history: got %d want 30", len(o.CounterOffers))
	}
	if o.Status != types.OfferCountered {
		t.Fatalf("status: got %s want countered", o.Status)
	}
}

func TestLedger_AcceptUsesOfferedFare(t *testing.T) {
	l := New()
	r := searchingRide()
	driver := uuid.New()
	offer, _ := l.Submit(r, OfferInput{DriverID: driver, OfferedFare: 80})

	if _, err := l.Counter(r, CounterInput{OfferID: offer.ID, ActorID: driver, From: types.PartyDriver, Amount: 95}); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Accept(r, offer.ID, r.CustomerID); err != nil {
		t.Fatal(err)
	}
	if r.Fare != 80 {
		t.Fatalf("fare: got %d want 80", r.Fare)
	}
}

func TestLedger_RejectOnlyOwner(t *testing.T) {
	l := New()
	r := searchingRide()
	offer, _ := l.Submit(r, OfferInput{DriverID: uuid.New(), OfferedFare: 80})

	if _, err := l.Reject(r, offer.ID, uuid.New()); !errors.Is(err, types.ErrNotRideOwner) {
		t.Fatalf("got %v want ErrNotRideOwner", err)
	}
	if _, err := l.Reject(r, offer.ID, r.CustomerID); err != nil {
		t.Fatal(err)
	}
	if r.Status != types.StatusSearching {
		t.Fatalf("reject must not change ride status")
	}
	if _, err := l.Reject(r, offer.ID, r.CustomerID); !errors.Is(err, types.ErrOfferUnavailable) {
		t.Fatalf("double reject: got %v", err)
	}
}
