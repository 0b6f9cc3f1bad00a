package kernel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioAInputs() *Inputs {
	return &Inputs{
		TBidVol: 1957500,
		TAskVol: 5143750,
		BidPx:   [5]uint64{254100, 254000, 253900, 253800, 253600},
		BidVol:  [5]uint64{200, 51500, 1000, 1100, 15500},
		AskPx:   [5]uint64{254200, 254300, 254400, 254500, 254600},
		AskVol:  [5]uint64{12700, 8300, 15600, 40300, 40200},
	}
}

func TestCompute_ScenarioA(t *testing.T) {
	in := scenarioAInputs()
	lag := &LagState{}
	lag.Reset()

	var out [NumFactors]float64
	Compute(in, lag, &out)

	assert.InDelta(t, 100.0, out[0], 1e-6, "alpha1 = spread")
	assert.InDelta(t, 254150.0, out[2], 1e-6, "alpha3 = midPrice")
	assert.InDelta(t, 69300.0, out[5], 1e-6, "alpha6 = sumBidVolumes")
	assert.InDelta(t, 117100.0, out[6], 1e-6, "alpha7 = sumAskVolumes")
	assert.Equal(t, 0.0, out[16], "alpha17 with no prior row is exactly 0")
	assert.Equal(t, 0.0, out[17], "alpha18 with no prior row is exactly 0")
	assert.Equal(t, 0.0, out[18], "alpha19 with no prior row is exactly 0")
}

func TestCompute_Deterministic(t *testing.T) {
	in := scenarioAInputs()
	lag := &LagState{}
	lag.Reset()

	var out1, out2 [NumFactors]float64
	Compute(in, lag, &out1)
	Compute(in, lag, &out2)
	assert.Equal(t, out1, out2, "identical inputs must produce identical output")
}

func TestCompute_HasPrevZeroLagFactors(t *testing.T) {
	in := scenarioAInputs()
	var lag LagState
	lag.Reset()
	require.False(t, lag.HasPrev)

	var out [NumFactors]float64
	Compute(in, &lag, &out)
	assert.Equal(t, 0.0, out[16])
	assert.Equal(t, 0.0, out[17])
	assert.Equal(t, 0.0, out[18])
}

func TestCompute_LagFactorsNonZeroAfterAdvance(t *testing.T) {
	first := scenarioAInputs()
	var lag LagState
	lag.Reset()
	var tmp [NumFactors]float64
	Compute(first, &lag, &tmp)
	Advance(first, 34200, &lag)

	second := scenarioAInputs()
	second.AskPx[0] += 50
	second.BidPx[0] += 20

	var out [NumFactors]float64
	Compute(second, &lag, &out)

	assert.InDelta(t, 50.0, out[16], 1e-9, "alpha17 = ap1 - prevAp1")
	assert.InDelta(t, 0.5*(50.0+20.0), out[17], 1e-9, "alpha18")
}

func TestCompute_ZeroVolumeDenominatorsStayFinite(t *testing.T) {
	in := &Inputs{
		TBidVol: 0,
		TAskVol: 0,
	}
	var lag LagState
	lag.Reset()

	var out [NumFactors]float64
	Compute(in, &lag, &out)

	for i, v := range out {
		assert.Falsef(t, math.IsNaN(v), "alpha%d is NaN", i+1)
		assert.Falsef(t, math.IsInf(v, 0), "alpha%d is Inf", i+1)
	}
	assert.Equal(t, 0.0, out[9], "alpha10 collapses to 0/eps = 0")
}

func TestInWindow(t *testing.T) {
	cases := []struct {
		sec  int
		want bool
	}{
		{34199, false},
		{34200, true},
		{41400, true},
		{41401, false},
		{46800, true},
		{54000, true},
		{54001, false},
		{0, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, InWindow(c.sec), "secOfDay=%d", c.sec)
	}
}

func TestLagState_ResetClearsHasPrev(t *testing.T) {
	lag := LagState{HasPrev: true, PrevAp1: 5}
	lag.Reset()
	assert.False(t, lag.HasPrev)
	assert.Equal(t, 0.0, lag.PrevAp1)
	assert.Equal(t, -1, lag.PrevTradeTime)
}
