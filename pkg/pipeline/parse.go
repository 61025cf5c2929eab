package pipeline

import (
	"fmt"

	"github.com/aylabs/musicore/pkg/score"
)

// Parse loads the score from whichever source the options carry.
// Precedence: pre-parsed Score, then raw ScoreData, then ScorePath.
func Parse(opts Options) (*score.Score, error) {
	switch {
	case opts.Score != nil:
		return opts.Score, nil
	case len(opts.ScoreData) > 0:
		sc, err := score.Parse(opts.ScoreData)
		if err != nil {
			return nil, err
		}
		return sc, nil
	case opts.ScorePath != "":
		sc, err := score.ReadFile(opts.ScorePath)
		if err != nil {
			return nil, fmt.Errorf("read score %s: %w", opts.ScorePath, err)
		}
		return sc, nil
	default:
		return nil, fmt.Errorf("no score source provided")
	}
}
