package market

// History 固定容量的 float64 环形缓冲，容量满后淘汰最旧样本。
type History struct {
	buf   []float64
	head  int
	count int
}

// DefaultHistoryCap is the default bound for rolling series.
const DefaultHistoryCap = 10000

// NewHistory creates a ring history with the given capacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCap
	}
	return &History{buf: make([]float64, capacity)}
}

// Append 追加一个样本，必要时覆盖最旧的。
func (h *History) Append(v float64) {
	h.buf[h.head] = v
	h.head = (h.head + 1) % len(h.buf)
	if h.count < len(h.buf) {
		h.count++
	}
}

// Len returns the number of stored samples.
func (h *History) Len() int { return h.count }

// Last returns the most recent sample, or 0 when empty.
func (h *History) Last() float64 {
	if h.count == 0 {
		return 0
	}
	idx := (h.head - 1 + len(h.buf)) % len(h.buf)
	return h.buf[idx]
}

// Values returns all samples oldest first (copy).
func (h *History) Values() []float64 {
	out := make([]float64, 0, h.count)
	start := (h.head - h.count + len(h.buf)) % len(h.buf)
	for i := 0; i < h.count; i++ {
		out = append(out, h.buf[(start+i)%len(h.buf)])
	}
	return out
}

// Window 返回定长窗口：取最近 n 个样本，不足时用最早的样本在前端填充。
// 空历史返回全 0 窗口，供图表序列使用。
func (h *History) Window(n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	vals := h.Values()
	if len(vals) == 0 {
		return out
	}
	if len(vals) > n {
		vals = vals[len(vals)-n:]
	}
	pad := n - len(vals)
	for i := 0; i < pad; i++ {
		out[i] = vals[0]
	}
	copy(out[pad:], vals)
	return out
}
