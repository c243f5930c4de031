package classifier

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// feature is one non-zero entry of a sparse vector.
type feature struct {
	Index int
	Value float64
}

type sparseVec []feature

// Vectorizer turns text into L2-normalised TF-IDF vectors over word
// uni/bigrams and in-word character n-grams. Character grams let inflected
// Korean words ("예약은", "예약을") share features with their stem.
type Vectorizer struct {
	MaxFeatures int            `json:"max_features"`
	MinCharGram int            `json:"min_char_gram"`
	MaxCharGram int            `json:"max_char_gram"`
	Vocab       map[string]int `json:"vocab"`
	IDF         []float64      `json:"idf"`
}

func NewVectorizer(maxFeatures int) *Vectorizer {
	if maxFeatures <= 0 {
		maxFeatures = 5000
	}
	return &Vectorizer{MaxFeatures: maxFeatures, MinCharGram: 2, MaxCharGram: 3}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func (v *Vectorizer) terms(text string) []string {
	words := tokenize(text)
	out := make([]string, 0, len(words)*4)
	for i, w := range words {
		out = append(out, "w:"+w)
		if i > 0 {
			out = append(out, "b:"+words[i-1]+" "+w)
		}
		r := []rune("<" + w + ">")
		for n := v.MinCharGram; n <= v.MaxCharGram; n++ {
			for j := 0; j+n <= len(r); j++ {
				out = append(out, "c:"+string(r[j:j+n]))
			}
		}
	}
	return out
}

// Fit builds the vocabulary and idf weights from docs.
func (v *Vectorizer) Fit(docs []string) {
	df := make(map[string]int)
	for _, d := range docs {
		seen := make(map[string]struct{})
		for _, t := range v.terms(d) {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	keys := make([]string, 0, len(df))
	for k := range df {
		keys = append(keys, k)
	}
	// highest document frequency first, ties broken lexically so the
	// vocabulary is deterministic
	sort.Slice(keys, func(i, j int) bool {
		if df[keys[i]] != df[keys[j]] {
			return df[keys[i]] > df[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > v.MaxFeatures {
		keys = keys[:v.MaxFeatures]
	}
	sort.Strings(keys)

	n := float64(len(docs))
	v.Vocab = make(map[string]int, len(keys))
	v.IDF = make([]float64, len(keys))
	for i, k := range keys {
		v.Vocab[k] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(df[k]))) + 1
	}
}

// Transform returns the sparse vector for text. Unknown terms are dropped.
func (v *Vectorizer) Transform(text string) sparseVec {
	tf := make(map[int]int)
	for _, t := range v.terms(text) {
		if idx, ok := v.Vocab[t]; ok {
			tf[idx]++
		}
	}
	out := make(sparseVec, 0, len(tf))
	var norm float64
	for idx, c := range tf {
		val := (1 + math.Log(float64(c))) * v.IDF[idx]
		out = append(out, feature{Index: idx, Value: val})
		norm += val * val
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range out {
			out[i].Value /= norm
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func (v *Vectorizer) Dim() int { return len(v.IDF) }
