// Package vectorize turns product and candidate attributes into
// fixed-dimension feature vectors over a session-scoped vocabulary.
//
// The vocabulary is built once per session from the known-product corpus.
// Categorical fields (target user, channel) are one-hot encoded in fixed
// sorted order; price bands contribute two scaled numeric dimensions; all
// free-text and tag fields contribute a bag-of-terms over the corpus
// vocabulary. Out-of-vocabulary terms hash into a reserved bucket block,
// never silently dropped, so corpus and candidate vectors always share one
// dimensionality. Identical attribute input yields a bit-identical vector.
package vectorize

import (
	"hash/fnv"
	"sort"
	"strings"
	"unicode"

	"github.com/hupe1980/debateforge/core"
)

// OOVBuckets is the number of reserved hash buckets for terms and
// categorical values the corpus vocabulary has never seen.
const OOVBuckets = 8

// priceScale normalizes price band bounds into the same magnitude as the
// one-hot and bag dimensions.
const priceScale = 100.0

// Vocabulary is the fixed-order encoding space built once per session.
type Vocabulary struct {
	targetUsers []string
	targetIdx   map[string]int
	channels    []string
	channelIdx  map[string]int
	terms       []string
	termIdx     map[string]int
}

// BuildVocabulary derives the session vocabulary from the known-product
// corpus. The resulting dimensionality is fixed for the session lifetime.
func BuildVocabulary(corpus []core.KnownProduct) *Vocabulary {
	users := map[string]struct{}{}
	channels := map[string]struct{}{}
	terms := map[string]struct{}{}

	for _, p := range corpus {
		if u := normalize(p.TargetUser); u != "" {
			users[u] = struct{}{}
		}
		if ch := normalize(p.Channel); ch != "" {
			channels[ch] = struct{}{}
		}
		for _, tok := range tokenizeAll(p.AttributeSet) {
			terms[tok] = struct{}{}
		}
	}

	v := &Vocabulary{
		targetUsers: sortedKeys(users),
		channels:    sortedKeys(channels),
		terms:       sortedKeys(terms),
	}
	v.targetIdx = indexOf(v.targetUsers)
	v.channelIdx = indexOf(v.channels)
	v.termIdx = indexOf(v.terms)
	return v
}

// Dim returns the fixed vector dimensionality:
// one-hot target users + one-hot channels + 2 price dims + term bag +
// reserved OOV buckets.
func (v *Vocabulary) Dim() int {
	return len(v.targetUsers) + len(v.channels) + 2 + len(v.terms) + OOVBuckets
}

// TargetUsers returns the fixed-order target user values.
func (v *Vocabulary) TargetUsers() []string { return append([]string(nil), v.targetUsers...) }

// Channels returns the fixed-order channel values.
func (v *Vocabulary) Channels() []string { return append([]string(nil), v.channels...) }

// Terms returns the fixed-order vocabulary terms.
func (v *Vocabulary) Terms() []string { return append([]string(nil), v.terms...) }

// Vectorizer encodes attribute sets against a session vocabulary.
type Vectorizer struct {
	vocab *Vocabulary
}

// New creates a Vectorizer over the given vocabulary.
func New(vocab *Vocabulary) *Vectorizer {
	return &Vectorizer{vocab: vocab}
}

// Vectorize encodes an attribute set. subject is used for error context
// only (product name or candidate description). Fails with
// *core.VectorizationError only when the input is missing all attribute
// fields.
func (z *Vectorizer) Vectorize(subject string, attrs core.AttributeSet) (core.FeatureVector, error) {
	if attrs.IsEmpty() {
		return nil, &core.VectorizationError{Subject: subject, Reason: "missing all attribute fields"}
	}

	v := z.vocab
	vec := make(core.FeatureVector, v.Dim())

	userBase := 0
	channelBase := userBase + len(v.targetUsers)
	priceBase := channelBase + len(v.channels)
	termBase := priceBase + 2
	oovBase := termBase + len(v.terms)

	if u := normalize(attrs.TargetUser); u != "" {
		if i, ok := v.targetIdx[u]; ok {
			vec[userBase+i] = 1
		} else {
			vec[oovBase+bucket(u)]++
		}
	}
	if ch := normalize(attrs.Channel); ch != "" {
		if i, ok := v.channelIdx[ch]; ok {
			vec[channelBase+i] = 1
		} else {
			vec[oovBase+bucket(ch)]++
		}
	}

	vec[priceBase] = attrs.PriceBand.Low / priceScale
	vec[priceBase+1] = attrs.PriceBand.High / priceScale

	for _, tok := range tokenizeAll(attrs) {
		if i, ok := v.termIdx[tok]; ok {
			vec[termBase+i]++
		} else {
			vec[oovBase+bucket(tok)]++
		}
	}

	return vec, nil
}

// bucket maps an out-of-vocabulary token to a reserved bucket index.
func bucket(tok string) int {
	h := fnv.New32a()
	h.Write([]byte(tok))
	return int(h.Sum32() % OOVBuckets)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// tokenizeAll flattens the free-text/tag fields into normalized tokens.
func tokenizeAll(attrs core.AttributeSet) []string {
	var out []string
	for _, group := range [][]string{attrs.Functional, attrs.Materials, attrs.Regulatory, attrs.PainPoints} {
		for _, entry := range group {
			out = append(out, tokenize(entry)...)
		}
	}
	return out
}

// tokenize lower-cases and splits on non-alphanumeric runes, dropping
// single-rune fragments.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) >= 2 {
			out = append(out, f)
		}
	}
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func indexOf(ss []string) map[string]int {
	idx := make(map[string]int, len(ss))
	for i, s := range ss {
		idx[s] = i
	}
	return idx
}
