// Package kernel implements the twenty-factor compute kernel (component
// C2). It is referentially transparent in its inputs: all state it needs
// across rows is the caller-owned LagState record, so Compute itself never
// touches package-level state and is safe to call from any number of
// workers concurrently, each with its own LagState.
package kernel

// NumFactors is the width of one factor vector (alpha_1..alpha_20).
const NumFactors = 20

// eps protects every division below from a zero or near-zero denominator.
const eps = 1e-7

// Emit-window bounds, in seconds since local midnight: the morning session
// [09:30:00,11:30:00] and the afternoon session [13:00:00,15:00:00].
const (
	morningOpen    = 34200
	morningClose   = 41400
	afternoonOpen  = 46800
	afternoonClose = 54000
)

// InWindow reports whether secOfDay falls inside either trading session.
// Both bounds are inclusive.
func InWindow(secOfDay int) bool {
	if secOfDay >= morningOpen && secOfDay <= morningClose {
		return true
	}
	return secOfDay >= afternoonOpen && secOfDay <= afternoonClose
}

// LagState is the per-instrument-stream lag-one record threaded by the
// worker across rows of one file. It is reset whenever the file identifier
// changes or secOfDay decreases (a stream rewind), since either case means
// the "previous row" on hand no longer precedes the current one in time.
type LagState struct {
	HasPrev           bool
	PrevAp1           float64
	PrevBp1           float64
	PrevSumBidVolumes float64
	PrevSumAskVolumes float64
	PrevTradeTime     int
}

// Reset clears the lag state to the "no prior row" condition used at the
// start of every file.
func (s *LagState) Reset() {
	*s = LagState{PrevTradeTime: -1}
}

// Inputs bundles the raw per-row quantities the kernel needs, in the
// caller's native integer types, so Compute itself stays allocation-free
// and takes only stack-local scalars.
type Inputs struct {
	TBidVol, TAskVol uint64
	BidPx, BidVol    [5]uint64
	AskPx, AskVol    [5]uint64
}

// Compute fills out[0..19] with alpha_1..alpha_20 for one row, given the
// row's raw inputs and the lag state accumulated so far. It does not
// mutate lag; the caller advances lag via Advance once the row is handled.
// Compute is pure in its (in, lag) arguments: it is deterministic, the
// three lag-one factors are exactly zero until a previous row exists, and
// eps keeps every denominator away from zero so no factor ever comes out
// NaN or Inf.
func Compute(in *Inputs, lag *LagState, out *[NumFactors]float64) {
	var sumBidVolumes, sumAskVolumes float64
	var sumBidWeightedPrice, sumAskWeightedPrice float64
	var weightedBidDepth, weightedAskDepth float64

	// Level weights 1, 1/2, 0.33333333, 1/4, 1/5. The third weight is the
	// literal constant 0.33333333, not 1.0/3.0 — the two differ in the
	// trailing bits and factors computed from them would not match.
	levelWeights := [5]float64{1.0, 0.5, 0.33333333, 0.25, 0.2}

	for i := 0; i < 5; i++ {
		bv := float64(in.BidVol[i])
		av := float64(in.AskVol[i])
		bp := float64(in.BidPx[i])
		ap := float64(in.AskPx[i])

		sumBidVolumes += bv
		sumAskVolumes += av
		sumBidWeightedPrice += bp * bv
		sumAskWeightedPrice += ap * av
		weightedBidDepth += bv * levelWeights[i]
		weightedAskDepth += av * levelWeights[i]
	}

	bp1 := float64(in.BidPx[0])
	ap1 := float64(in.AskPx[0])
	bv1 := float64(in.BidVol[0])
	av1 := float64(in.AskVol[0])
	tBid := float64(in.TBidVol)
	tAsk := float64(in.TAskVol)

	spread := ap1 - bp1
	midPrice := 0.5 * (ap1 + bp1)
	depthDiff := sumBidVolumes - sumAskVolumes

	invMidPrice := 1.0 / (midPrice + eps)
	invBidAskVol1 := 1.0 / (bv1 + av1 + eps)
	invSumVolumes := 1.0 / (sumBidVolumes + sumAskVolumes + eps)
	invSumAskVolumes := 1.0 / (sumAskVolumes + eps)
	invTVolumes := 1.0 / (tBid + tAsk + eps)
	invSumBidVolumes := 1.0 / (sumBidVolumes + eps)
	invWeightedDepth := 1.0 / (weightedBidDepth + weightedAskDepth + eps)

	alpha11 := sumBidWeightedPrice * invSumBidVolumes
	alpha12 := sumAskWeightedPrice * invSumAskVolumes
	bidAskRatioNow := sumBidVolumes * invSumAskVolumes

	out[0] = spread
	out[1] = spread * invMidPrice
	out[2] = midPrice
	out[3] = (bv1 - av1) * invBidAskVol1
	out[4] = depthDiff * invSumVolumes
	out[5] = sumBidVolumes
	out[6] = sumAskVolumes
	out[7] = depthDiff
	out[8] = bidAskRatioNow
	out[9] = (tBid - tAsk) * invTVolumes
	out[10] = alpha11
	out[11] = alpha12
	out[12] = (sumBidWeightedPrice + sumAskWeightedPrice) * invSumVolumes
	out[13] = alpha12 - alpha11
	out[14] = depthDiff / 5.0
	out[15] = (weightedBidDepth - weightedAskDepth) * invWeightedDepth

	if lag.HasPrev {
		out[16] = ap1 - lag.PrevAp1
		out[17] = 0.5 * ((ap1 + bp1) - (lag.PrevAp1 + lag.PrevBp1))
		prevRatio := lag.PrevSumBidVolumes / (lag.PrevSumAskVolumes + eps)
		out[18] = bidAskRatioNow - prevRatio
	} else {
		out[16] = 0
		out[17] = 0
		out[18] = 0
	}

	out[19] = spread * invSumVolumes
}

// Advance updates lag with the current row's quantities, called by the
// worker for every parsed row whether or not it fell inside the emit
// window (Compute runs only for in-window rows, before Advance) — lag
// state tracks every row so a row right at the window's
// open still has a correct predecessor to lag against.
func Advance(in *Inputs, secOfDay int, lag *LagState) {
	var sumBidVolumes, sumAskVolumes float64
	for i := 0; i < 5; i++ {
		sumBidVolumes += float64(in.BidVol[i])
		sumAskVolumes += float64(in.AskVol[i])
	}
	lag.PrevAp1 = float64(in.AskPx[0])
	lag.PrevBp1 = float64(in.BidPx[0])
	lag.PrevSumBidVolumes = sumBidVolumes
	lag.PrevSumAskVolumes = sumAskVolumes
	lag.PrevTradeTime = secOfDay
	lag.HasPrev = true
}
