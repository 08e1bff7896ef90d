package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"wagonquiz/internal/game"
	"wagonquiz/internal/models"
	"wagonquiz/internal/service"
)

var errInputClosed = errors.New("input closed")

// prompter reads answers line by line
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
	eof bool
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out}
}

// ask prints prompt and returns the next trimmed line. At end of input it
// returns "" and marks the prompter closed.
func (p *prompter) ask(prompt string) string {
	fmt.Fprint(p.out, prompt)
	if !p.in.Scan() {
		p.eof = true
		fmt.Fprintln(p.out)
		return ""
	}
	return strings.TrimSpace(p.in.Text())
}

// runGame drives play until the player declines another round or input ends
func runGame(p *prompter, play *service.Play) error {
	cfg := play.Config()
	fmt.Fprintf(p.out, "Grade %d: %d questions, %d correct to pass\n",
		play.Identity().Grade, cfg.NumQuestions, cfg.RequiredScore)
	if play.Source() == service.SourceDefaults {
		fmt.Fprintln(p.out, "(using the default settings)")
	}

	for {
		err := playRound(p, play)
		if errors.Is(err, errInputClosed) {
			return nil
		}
		if err != nil {
			return err
		}

		again := strings.ToLower(p.ask("Play again? [y/N] "))
		if p.eof || (again != "y" && again != "yes") {
			return nil
		}
		if err := play.Restart(); err != nil {
			return err
		}
	}
}

func playRound(p *prompter, play *service.Play) error {
	for {
		state := play.State()
		fmt.Fprintf(p.out, "\nQuestion %d of %d: which numbers come before and after %d?\n",
			state.QuestionCount+1, play.Config().NumQuestions, state.CurrentNumber)

		fb, err := askAnswer(p, play)
		if err != nil {
			return err
		}

		if fb.Correct {
			fmt.Fprintf(p.out, "Correct! Score: %d\n", fb.Score)
		} else {
			fmt.Fprintf(p.out, "Not quite: %d, %d, %d. Score: %d\n", fb.Previous, state.CurrentNumber, fb.Next, fb.Score)
		}

		if !fb.GameOver {
			p.ask("Press Enter for the next question ")
			if p.eof {
				return errInputClosed
			}
		}

		res, err := play.Next()
		if err != nil {
			return err
		}
		if res != nil {
			printSummary(p.out, res)
			return nil
		}
	}
}

// askAnswer keeps asking until both numbers parse
func askAnswer(p *prompter, play *service.Play) (fb game.Feedback, err error) {
	for {
		prev := p.ask("  previous: ")
		if p.eof {
			return fb, errInputClosed
		}
		next := p.ask("  next: ")
		if p.eof {
			return fb, errInputClosed
		}

		fb, err = play.Submit(prev, next)
		if errors.Is(err, service.ErrValidation) {
			fmt.Fprintln(p.out, service.UserMessage(err))
			continue
		}
		return fb, err
	}
}

func printSummary(out io.Writer, res *models.ResultRecord) {
	verdict := "Keep practising!"
	if res.Passed {
		verdict = "Passed!"
	}
	fmt.Fprintf(out, "\nRound over: %d of %d correct (%d%%). %s\n",
		res.AnsweredQuestions, res.NumQuestions, res.Score, verdict)
}

func printResults(out io.Writer, results []models.StoredResult) {
	if len(results) == 0 {
		fmt.Fprintln(out, "No results yet")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COMPLETED\tCORRECT\tSCORE\tPASSED")
	for _, sr := range results {
		r := sr.Result
		fmt.Fprintf(w, "%s\t%d/%d\t%d%%\t%t\n", r.CompletedAt, r.AnsweredQuestions, r.NumQuestions, r.Score, r.Passed)
	}
	w.Flush()
}
