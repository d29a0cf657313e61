package market

// ImbalanceDepth is how many levels from the top of each side count
// toward the imbalance metric.
const ImbalanceDepth = 5

// ImbalanceTracker computes a signed top-of-book depth imbalance and keeps
// a bounded history for later inspection.
type ImbalanceTracker struct {
	depth   int
	history *History
}

// NewImbalanceTracker creates a tracker over the given depth (<=0 uses
// ImbalanceDepth).
func NewImbalanceTracker(depth, histCap int) *ImbalanceTracker {
	if depth <= 0 {
		depth = ImbalanceDepth
	}
	return &ImbalanceTracker{depth: depth, history: NewHistory(histCap)}
}

// Update calculates the imbalance for one book snapshot.
// Imbalance = (BidVol - AskVol) / (BidVol + AskVol), price-weighted over the
// top N levels; 0 when either side is empty or total volume is zero.
// Result is always in [-1, 1].
func (t *ImbalanceTracker) Update(bids, asks []Level) float64 {
	imb := t.compute(bids, asks)
	t.history.Append(imb)
	return imb
}

// Last returns the most recent imbalance (0 before any update).
func (t *ImbalanceTracker) Last() float64 { return t.history.Last() }

// HistoryValues returns the bounded imbalance history, oldest first.
func (t *ImbalanceTracker) HistoryValues() []float64 { return t.history.Values() }

func (t *ImbalanceTracker) compute(bids, asks []Level) float64 {
	if len(bids) == 0 || len(asks) == 0 {
		return 0
	}
	bidVol := weightedVolume(bids, t.depth)
	askVol := weightedVolume(asks, t.depth)
	total := bidVol + askVol
	if total == 0 {
		return 0
	}
	return (bidVol - askVol) / total
}

func weightedVolume(levels []Level, depth int) float64 {
	vol := 0.0
	for i, lvl := range levels {
		if i >= depth {
			break
		}
		vol += lvl.Price * lvl.Qty
	}
	return vol
}
