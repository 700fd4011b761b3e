package usecase

import (
	"testing"

	"railbook-service/internal/domain/entity"
	"railbook-service/pkg/logger"
)

func testLogger() logger.Logger {
	return logger.NewLogger("fatal")
}

func freeSeat(id int64, num, block string, price float64) entity.Seat {
	return entity.Seat{SeatID: id, SeatNum: num, Block: block, Price: price, BookingStatus: entity.SeatStatusFree}
}

func TestSeatQualifiesNeverPassesOccupiedSeats(t *testing.T) {
	t.Parallel()

	a := NewAggregator(testLogger())
	req := &entity.BookingRequest{UserID: 1}

	occupied := entity.Seat{SeatID: 1, SeatNum: "1", Block: "A", BookingStatus: "OCCUPIED"}
	if a.SeatQualifies(&occupied, req) {
		t.Error("occupied seat qualified")
	}
	free := freeSeat(2, "2", "A", 100)
	if !a.SeatQualifies(&free, req) {
		t.Error("free unconstrained seat did not qualify")
	}
}

func TestSeatQualifiesPositionConstraint(t *testing.T) {
	t.Parallel()

	a := NewAggregator(testLogger())
	req := &entity.BookingRequest{UserID: 1, PlacePosition: []string{entity.PositionUpper}}

	upper := freeSeat(4, "4", "A", 100)
	lower := freeSeat(5, "5", "A", 100)
	unparseable := freeSeat(6, "6B", "A", 100)

	if !a.SeatQualifies(&upper, req) {
		t.Error("even-numbered seat should match upper")
	}
	if a.SeatQualifies(&lower, req) {
		t.Error("odd-numbered seat should not match upper")
	}
	if a.SeatQualifies(&unparseable, req) {
		t.Error("unparseable seat number should not qualify under a position constraint")
	}
}

func TestSeatQualifiesPriceCeiling(t *testing.T) {
	t.Parallel()

	a := NewAggregator(testLogger())
	ceiling := 150.0
	req := &entity.BookingRequest{UserID: 1, Price: &ceiling}

	cheap := freeSeat(1, "1", "A", 150)
	dear := freeSeat(2, "2", "A", 151)
	if !a.SeatQualifies(&cheap, req) {
		t.Error("seat at the ceiling should qualify")
	}
	if a.SeatQualifies(&dear, req) {
		t.Error("seat above the ceiling qualified")
	}
}

func TestSelectSeatsDefaultsToOne(t *testing.T) {
	t.Parallel()

	a := NewAggregator(testLogger())
	req := &entity.BookingRequest{UserID: 1}

	seats := make([]entity.Seat, 0, 12)
	for i := int64(1); i <= 12; i++ {
		seats = append(seats, freeSeat(i, "1", "A", 100))
	}

	chosen := a.SelectSeats(10, 3, seats, req)
	if len(chosen) != 1 {
		t.Fatalf("expected exactly 1 seat with unset quantity, got %d", len(chosen))
	}
	if chosen[0].Seat.SeatID != 1 {
		t.Errorf("expected the first match, got seat %d", chosen[0].Seat.SeatID)
	}
}

func TestSelectSeatsStopsAtQuantity(t *testing.T) {
	t.Parallel()

	a := NewAggregator(testLogger())
	req := &entity.BookingRequest{UserID: 1, SeatsQty: 2}

	seats := []entity.Seat{
		{SeatID: 1, SeatNum: "1", Block: "A", BookingStatus: "OCCUPIED"},
		freeSeat(2, "2", "A", 100),
		freeSeat(3, "3", "A", 100),
		freeSeat(4, "4", "A", 100),
	}
	chosen := a.SelectSeats(10, 3, seats, req)
	if len(chosen) != 2 {
		t.Fatalf("expected 2 seats, got %d", len(chosen))
	}
	if chosen[0].Seat.SeatID != 2 || chosen[1].Seat.SeatID != 3 {
		t.Errorf("wrong seats chosen: %+v", chosen)
	}
}

func TestCheckAdjacency(t *testing.T) {
	t.Parallel()

	a := NewAggregator(testLogger())
	candidate := func(num, block string) entity.CandidateSeat {
		return entity.CandidateSeat{TrainID: 10, WagonID: 3, Seat: entity.Seat{SeatNum: num, Block: block}}
	}

	tests := []struct {
		name   string
		chosen []entity.CandidateSeat
		want   bool
	}{
		{"consecutive same block", []entity.CandidateSeat{candidate("4", "A"), candidate("5", "A")}, true},
		{"unsorted but consecutive", []entity.CandidateSeat{candidate("6", "A"), candidate("4", "A"), candidate("5", "A")}, true},
		{"different blocks", []entity.CandidateSeat{candidate("4", "A"), candidate("7", "B")}, false},
		{"gap in numbers", []entity.CandidateSeat{candidate("4", "A"), candidate("6", "A")}, false},
		{"single seat", []entity.CandidateSeat{candidate("4", "A")}, true},
		{"unparseable number", []entity.CandidateSeat{candidate("4", "A"), candidate("5B", "A")}, false},
	}
	for _, tt := range tests {
		if got := a.CheckAdjacency(tt.chosen); got != tt.want {
			t.Errorf("%s: CheckAdjacency = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestBuildDraftsMergesByTrainAndWagon(t *testing.T) {
	t.Parallel()

	a := NewAggregator(testLogger())
	candidates := []entity.CandidateSeat{
		{TrainID: 10, WagonID: 3, Seat: freeSeat(4, "4", "A", 100)},
		{TrainID: 10, WagonID: 3, Seat: freeSeat(5, "5", "A", 100)},
		{TrainID: 10, WagonID: 3, Seat: freeSeat(4, "4", "A", 100)}, // duplicate seat
		{TrainID: 10, WagonID: 4, Seat: freeSeat(9, "9", "B", 100)},
	}

	drafts := a.BuildDrafts(7, candidates)
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(drafts))
	}
	if len(drafts[0].SeatIDs) != 2 {
		t.Errorf("duplicate seat id not deduplicated: %v", drafts[0].SeatIDs)
	}
	if drafts[0].UserID != 7 || drafts[1].UserID != 7 {
		t.Error("drafts do not carry the user id")
	}
}

func TestGroupCommonTrainKeepsFirstEncountered(t *testing.T) {
	t.Parallel()

	a := NewAggregator(testLogger())
	drafts := []*entity.OrderDraft{
		{TrainID: 10, WagonID: 3, SeatIDs: []int64{1}},
		{TrainID: 20, WagonID: 1, SeatIDs: []int64{2}},
		{TrainID: 10, WagonID: 4, SeatIDs: []int64{3}},
	}
	kept := a.GroupCommonTrain(drafts)
	if len(kept) != 2 {
		t.Fatalf("expected 2 drafts kept, got %d", len(kept))
	}
	for _, d := range kept {
		if d.TrainID != 10 {
			t.Errorf("draft for train %d survived grouping", d.TrainID)
		}
	}
}

func TestMergeSmallDrafts(t *testing.T) {
	t.Parallel()

	a := NewAggregator(testLogger())
	drafts := []*entity.OrderDraft{
		{TrainID: 10, WagonID: 3, SeatIDs: []int64{1, 2}},
		{TrainID: 10, WagonID: 3, SeatIDs: []int64{3}},
		{TrainID: 10, WagonID: 4, SeatIDs: []int64{9}},
	}
	merged := a.MergeSmallDrafts(drafts)
	if len(merged) != 2 {
		t.Fatalf("expected 2 drafts after merge, got %d", len(merged))
	}
	if got := len(merged[0].SeatIDs); got != 3 {
		t.Errorf("merged draft has %d seats, want 3", got)
	}
	if merged[1].WagonID != 4 {
		t.Errorf("draft for another wagon was merged away")
	}
}

func TestSplitDraftsRespectsCapAndPreservesSeats(t *testing.T) {
	t.Parallel()

	a := NewAggregator(testLogger())
	draft := &entity.OrderDraft{TrainID: 10, WagonID: 3, UserID: 1}
	for i := int64(1); i <= 23; i++ {
		draft.AddSeat(i)
	}

	orders := a.SplitDrafts([]*entity.OrderDraft{draft})
	if len(orders) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(orders))
	}

	seen := make(map[int64]int)
	for _, order := range orders {
		if len(order.SeatIDs) > entity.MaxSeatsPerOrder {
			t.Errorf("order carries %d seats, cap is %d", len(order.SeatIDs), entity.MaxSeatsPerOrder)
		}
		for _, id := range order.SeatIDs {
			seen[id]++
		}
	}
	if len(seen) != 23 {
		t.Fatalf("expected all 23 seat ids across orders, got %d", len(seen))
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("seat %d appears %d times", id, count)
		}
	}
}
