package tokenizer

// NGrams yields every window of n non-space tokens starting at a non-space
// position, with interior space markers included so the gram matches the
// original text exactly. Windows that would run past the end of the token
// sequence are not yielded.
func NGrams(tokens []string, n int) []string {
	var grams []string
	for start, w := range tokens {
		if w == " " {
			continue
		}
		var gram string
		count := 0
		for j := start; j < len(tokens); j++ {
			gram += tokens[j]
			if tokens[j] != " " {
				count++
			}
			if count == n {
				grams = append(grams, gram)
				break
			}
		}
	}
	return grams
}

// MentionIterator yields candidate mention strings from a text run, ordered
// by sentence, then gram length from max down to min, then left to right.
// It is finite and restartable from scratch via NewMentionIterator; it is not
// resumable mid-stream.
type MentionIterator struct {
	sentences [][]string // token sequences per sentence
	maxN      int
	minN      int

	si    int      // sentence index
	n     int      // current gram length
	grams []string // grams for (si, n)
	gi    int      // index into grams
}

// NewMentionIterator tokenizes text and positions the iterator at the first
// mention. maxN must be >= minN >= 1.
func NewMentionIterator(text string, maxN, minN int) *MentionIterator {
	if minN < 1 {
		minN = 1
	}
	var sentences [][]string
	for _, sent := range SplitSentences(text) {
		sentences = append(sentences, Tokens(sent))
	}
	return &MentionIterator{
		sentences: sentences,
		maxN:      maxN,
		minN:      minN,
		n:         maxN,
	}
}

// Next returns the next mention surface string, or false when exhausted.
func (it *MentionIterator) Next() (string, bool) {
	for {
		if it.gi < len(it.grams) {
			gram := it.grams[it.gi]
			it.gi++
			return gram, true
		}
		if it.si >= len(it.sentences) {
			return "", false
		}
		it.grams = NGrams(it.sentences[it.si], it.n)
		it.gi = 0
		it.n--
		if it.n < it.minN {
			it.si++
			it.n = it.maxN
		}
	}
}
