package qa

import (
	"github.com/hyperjump/kotae/internal/embedding"
)

// wordSpan is the byte range of one word inside the original passage.
type wordSpan struct {
	start int
	end   int
}

// pairEncoding is a question+passage pair laid out for a SQuAD-style reader:
// [CLS] question [SEP] passage [SEP], padded to maxTokens. Passage tokens keep
// their byte offsets so a predicted token span maps back to passage text.
type pairEncoding struct {
	inputIDs      []int64
	attentionMask []int64
	ctxStart      int // token index of the first passage token
	ctxEnd        int // one past the last passage token
	words         []wordSpan
	passage       string
}

// encodePair encodes question and passage into one padded sequence. The
// question is capped at a quarter of the budget; the passage fills the rest
// and is truncated when it does not fit.
func encodePair(question, passage string, maxTokens int) pairEncoding {
	if maxTokens < 8 {
		maxTokens = 384
	}
	enc := pairEncoding{
		inputIDs:      make([]int64, maxTokens),
		attentionMask: make([]int64, maxTokens),
		passage:       passage,
	}

	enc.inputIDs[0] = 101 // [CLS]
	enc.attentionMask[0] = 1
	pos := 1

	questionWords := embedding.SplitWords(question)
	maxQuestion := maxTokens / 4
	if len(questionWords) > maxQuestion {
		questionWords = questionWords[:maxQuestion]
	}
	for _, word := range questionWords {
		enc.inputIDs[pos] = tokenID(word)
		enc.attentionMask[pos] = 1
		pos++
	}
	enc.inputIDs[pos] = 102 // [SEP]
	enc.attentionMask[pos] = 1
	pos++

	enc.ctxStart = pos
	words := wordSpans(passage)
	for _, w := range words {
		if pos >= maxTokens-1 {
			break
		}
		enc.inputIDs[pos] = tokenID(passage[w.start:w.end])
		enc.attentionMask[pos] = 1
		enc.words = append(enc.words, w)
		pos++
	}
	enc.ctxEnd = pos

	enc.inputIDs[pos] = 102 // [SEP]
	enc.attentionMask[pos] = 1
	return enc
}

// spanText returns the passage text covered by passage tokens [s, e].
func (enc *pairEncoding) spanText(s, e int) string {
	first := enc.words[s-enc.ctxStart]
	last := enc.words[e-enc.ctxStart]
	return enc.passage[first.start:last.end]
}

func tokenID(word string) int64 {
	return int64(embedding.HashString(word) % 30000)
}

// wordSpans returns the byte ranges of whitespace-separated words in text.
func wordSpans(text string) []wordSpan {
	var spans []wordSpan
	start := -1
	for i, r := range text {
		if r == ' ' || r == '\n' || r == '\t' || r == '\r' {
			if start >= 0 {
				spans = append(spans, wordSpan{start: start, end: i})
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		spans = append(spans, wordSpan{start: start, end: len(text)})
	}
	return spans
}
