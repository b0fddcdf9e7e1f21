package selfplay

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/samber/lo"

	"tictactoe/game"
)

// Summary aggregates a batch of self-play results.
type Summary struct {
	Games    int
	XWins    int
	OWins    int
	Draws    int
	AvgPlies float64
}

func Summarize(results []Result) Summary {
	s := Summary{
		Games: len(results),
		XWins: lo.CountBy(results, func(r Result) bool { return r.Outcome == game.XWins }),
		OWins: lo.CountBy(results, func(r Result) bool { return r.Outcome == game.OWins }),
		Draws: lo.CountBy(results, func(r Result) bool { return r.Outcome == game.Draw }),
	}
	if s.Games > 0 {
		plies := lo.SumBy(results, func(r Result) int { return r.Plies })
		s.AvgPlies = float64(plies) / float64(s.Games)
	}
	return s
}

// WriteResults dumps one CSV row per game for offline analysis.
func WriteResults(path string, results []Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create results file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	header := []string{"game", "outcome", "plies"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write results header: %w", err)
	}

	for _, r := range results {
		row := []string{
			strconv.Itoa(r.Game),
			r.Outcome.String(),
			strconv.Itoa(r.Plies),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write results row: %w", err)
		}
	}
	return nil
}
