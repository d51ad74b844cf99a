package studypartner

import "math/rand"

// ShuffleOptions permutes each question's options in place, each
// question independently, to remove positional bias from the model's
// output. The Answer field is left untouched: it names the correct
// option by text, which after shuffling simply lives at a new position.
//
// The random source is injected so tests can seed it.
func ShuffleOptions(questions []Question, rng *rand.Rand) {
	for i := range questions {
		opts := questions[i].Options
		rng.Shuffle(len(opts), func(a, b int) {
			opts[a], opts[b] = opts[b], opts[a]
		})
	}
}
