package qa

import "math"

// maskedSoftmax softmaxes logits[lo:hi]; positions outside the range get 0.
func maskedSoftmax(logits []float32, lo, hi int) []float64 {
	probs := make([]float64, len(logits))
	maxLogit := float64(logits[lo])
	for i := lo + 1; i < hi; i++ {
		if v := float64(logits[i]); v > maxLogit {
			maxLogit = v
		}
	}
	var sum float64
	for i := lo; i < hi; i++ {
		probs[i] = math.Exp(float64(logits[i]) - maxLogit)
		sum += probs[i]
	}
	for i := lo; i < hi; i++ {
		probs[i] /= sum
	}
	return probs
}

// bestSpan finds the token span [s, e] inside [lo, hi) maximizing
// startProbs[s]*endProbs[e], with e at most maxAnswerTokens past s.
func bestSpan(startProbs, endProbs []float64, lo, hi, maxAnswerTokens int) (s, e int, score float64) {
	score = -1
	s, e = lo, lo
	for start := lo; start < hi; start++ {
		maxEnd := start + maxAnswerTokens
		if maxEnd >= hi {
			maxEnd = hi - 1
		}
		for end := start; end <= maxEnd; end++ {
			if p := startProbs[start] * endProbs[end]; p > score {
				score = p
				s, e = start, end
			}
		}
	}
	return s, e, score
}
