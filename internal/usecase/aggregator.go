package usecase

import (
	"sort"
	"strconv"

	"railbook-service/internal/domain/entity"
	"railbook-service/pkg/logger"
	"railbook-service/pkg/utils"
)

// Aggregator turns raw seat data into provider-submittable orders. All
// methods are pure over their inputs; the network never appears here.
type Aggregator struct {
	logger logger.Logger
}

// NewAggregator creates a new aggregator
func NewAggregator(log logger.Logger) *Aggregator {
	return &Aggregator{logger: log}
}

// SeatQualifies reports whether one seat satisfies the request. The
// first failing condition short-circuits: the seat must be free, match
// the requested position set if any, and stay under the price ceiling
// if any.
func (a *Aggregator) SeatQualifies(seat *entity.Seat, req *entity.BookingRequest) bool {
	if !seat.Free() {
		return false
	}
	if len(req.PlacePosition) > 0 {
		position, ok := utils.SeatPosition(seat.SeatNum)
		if !ok || !req.WantsPosition(position) {
			return false
		}
	}
	if req.Price != nil && seat.Price > *req.Price {
		return false
	}
	return true
}

// SelectSeats walks seats in provider order and stops as soon as the
// requested quantity is met.
func (a *Aggregator) SelectSeats(trainID, wagonID int64, seats []entity.Seat, req *entity.BookingRequest) []entity.CandidateSeat {
	want := req.WantedSeats()
	var chosen []entity.CandidateSeat
	for _, seat := range seats {
		if !a.SeatQualifies(&seat, req) {
			continue
		}
		chosen = append(chosen, entity.CandidateSeat{
			TrainID: trainID,
			WagonID: wagonID,
			Seat:    seat,
		})
		if len(chosen) >= want {
			break
		}
	}
	return chosen
}

// CheckAdjacency reports whether the chosen seats can form one adjacent
// group: a single block, and numerically sorted seat numbers that are
// pairwise consecutive. Assumes block-contiguous numbering; seat
// numbers that do not parse as integers fail the check.
func (a *Aggregator) CheckAdjacency(chosen []entity.CandidateSeat) bool {
	if len(chosen) < 2 {
		return true
	}

	nums := make([]int, 0, len(chosen))
	blocks := make(map[string]struct{}, 1)
	for _, c := range chosen {
		n, err := strconv.Atoi(c.Seat.SeatNum)
		if err != nil {
			return false
		}
		nums = append(nums, n)
		blocks[c.Seat.Block] = struct{}{}
	}
	if len(blocks) > 1 {
		return false
	}

	sort.Ints(nums)
	for i := 1; i < len(nums); i++ {
		if nums[i]-nums[i-1] != 1 {
			return false
		}
	}
	return true
}

// BuildDrafts merges candidates into drafts keyed by (train, wagon),
// keeping seat ids unique within a draft.
func (a *Aggregator) BuildDrafts(userID int64, candidates []entity.CandidateSeat) []*entity.OrderDraft {
	var drafts []*entity.OrderDraft
	index := make(map[[2]int64]*entity.OrderDraft)
	for _, c := range candidates {
		key := [2]int64{c.TrainID, c.WagonID}
		draft, ok := index[key]
		if !ok {
			draft = &entity.OrderDraft{
				TrainID: c.TrainID,
				WagonID: c.WagonID,
				UserID:  userID,
			}
			index[key] = draft
			drafts = append(drafts, draft)
		}
		draft.AddSeat(c.Seat.SeatID)
	}
	return drafts
}

// GroupCommonTrain keeps only the drafts belonging to the first train
// encountered. One request books one trip, not several alternatives;
// encounter order is the only tie-break.
func (a *Aggregator) GroupCommonTrain(drafts []*entity.OrderDraft) []*entity.OrderDraft {
	if len(drafts) == 0 {
		return drafts
	}
	first := drafts[0].TrainID
	kept := make([]*entity.OrderDraft, 0, len(drafts))
	for _, draft := range drafts {
		if draft.TrainID == first {
			kept = append(kept, draft)
		}
	}
	if len(kept) < len(drafts) {
		a.logger.Info("discarding alternative trains", "trainId", first, "discarded", len(drafts)-len(kept))
	}
	return kept
}

// MergeSmallDrafts folds consecutive small drafts (at most two seats)
// for the same train and wagon into their predecessor while the merge
// stays within the per-order cap, reducing the number of submitted
// orders.
func (a *Aggregator) MergeSmallDrafts(drafts []*entity.OrderDraft) []*entity.OrderDraft {
	if len(drafts) < 2 {
		return drafts
	}
	merged := []*entity.OrderDraft{drafts[0]}
	for _, draft := range drafts[1:] {
		last := merged[len(merged)-1]
		if last.TrainID == draft.TrainID && last.WagonID == draft.WagonID &&
			len(last.SeatIDs) <= 2 && len(draft.SeatIDs) <= 2 &&
			len(last.SeatIDs)+len(draft.SeatIDs) <= entity.MaxSeatsPerOrder {
			for _, id := range draft.SeatIDs {
				last.AddSeat(id)
			}
			continue
		}
		merged = append(merged, draft)
	}
	return merged
}

// SplitDrafts caps every draft at the provider's per-order seat limit,
// preserving seat order. The union of the produced orders' seat ids is
// exactly the drafts' seat ids.
func (a *Aggregator) SplitDrafts(drafts []*entity.OrderDraft) []entity.FinalOrder {
	var orders []entity.FinalOrder
	for _, draft := range drafts {
		ids := draft.SeatIDs
		for len(ids) > 0 {
			n := len(ids)
			if n > entity.MaxSeatsPerOrder {
				n = entity.MaxSeatsPerOrder
			}
			chunk := make([]int64, n)
			copy(chunk, ids[:n])
			orders = append(orders, entity.FinalOrder{
				TrainID: draft.TrainID,
				WagonID: draft.WagonID,
				SeatIDs: chunk,
				UserID:  draft.UserID,
			})
			ids = ids[n:]
		}
	}
	return orders
}
