package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/aria-lang/swalign-go/internal/alignment"
	"github.com/aria-lang/swalign-go/internal/batch"
	"github.com/aria-lang/swalign-go/pkg/swalign"
)

// scoringFlags are shared by every command that builds a scoring model.
type scoringFlags struct {
	scoreFile *string
	gapOpen   *int
	gapExtend *int
	tie       *string
}

func addScoringFlags(fs *flag.FlagSet) *scoringFlags {
	return &scoringFlags{
		scoreFile: fs.String("score-file", "", "Score file applied on top of the default table"),
		gapOpen:   fs.Int("gap-open", alignment.DefaultGapOpen, "Gap opening penalty"),
		gapExtend: fs.Int("gap-extend", alignment.DefaultGapExtend, "Gap extension penalty"),
		tie:       fs.String("tie", alignment.DelInsSnp.String(), "Tie-break order, e.g. del-ins-snp or snp-ins-del"),
	}
}

func (f *scoringFlags) model() (*swalign.ScoringModel, error) {
	m := swalign.DefaultScoring()
	if *f.scoreFile != "" {
		var err error
		if m, err = swalign.LoadScoring(*f.scoreFile); err != nil {
			return nil, fmt.Errorf("loading %s: %w", *f.scoreFile, err)
		}
	}

	order, err := swalign.ParseTieOrder(*f.tie)
	if err != nil {
		return nil, err
	}
	if *f.gapOpen > 0 || *f.gapExtend > 0 {
		return nil, fmt.Errorf("-gap-open and -gap-extend must not be positive")
	}

	m.GapOpen = *f.gapOpen
	m.GapExtend = *f.gapExtend
	m.TieBreak = order
	return m, nil
}

// applyWindow parses "start:end" and restricts seq to it. Either side may
// be empty to keep the current bound.
func applyWindow(seq *swalign.Sequence, window string) error {
	if window == "" {
		return nil
	}
	lo, hi, ok := strings.Cut(window, ":")
	if !ok {
		return fmt.Errorf("expected start:end, got %q", window)
	}

	start, end := seq.Window()
	var err error
	if lo != "" {
		if start, err = strconv.Atoi(lo); err != nil {
			return fmt.Errorf("bad start %q", lo)
		}
	}
	if hi != "" {
		if end, err = strconv.Atoi(hi); err != nil {
			return fmt.Errorf("bad end %q", hi)
		}
	}
	return seq.SetWindow(start, end)
}

// parseMemory parses sizes such as "512MB" or "1GiB". Empty means no limit.
func parseMemory(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	if n > 1<<62 {
		return 0, fmt.Errorf("%s is too large", s)
	}
	return int64(n), nil
}

func pickReference(refs []*swalign.Sequence, id string) (*swalign.Sequence, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("reference file has no records")
	}
	if id == "" {
		return refs[0], nil
	}
	for _, r := range refs {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("reference %q not found", id)
}

func formatResult(query, ref *swalign.Sequence, res swalign.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Score: %d\n", res.Score)
	if !res.Aligned() {
		sb.WriteString("No local alignment with a positive score\n")
		return sb.String()
	}
	fmt.Fprintf(&sb, "Query:     %d-%d  %s\n", res.QueryStart, res.QueryEnd,
		query.Text()[res.QueryStart:res.QueryEnd+1])
	fmt.Fprintf(&sb, "Reference: %d-%d  %s\n", res.RefStart, res.RefEnd,
		ref.Text()[res.RefStart:res.RefEnd+1])
	return sb.String()
}

const hitHeader = "query\tstrand\tscore\tquery_start\tquery_end\treference\tref_start\tref_end"

// writeHits writes one TSV line per hit. Coordinates are 0-indexed and
// inclusive.
func writeHits(w io.Writer, refID string, hits []batch.Hit) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, hitHeader)
	for _, h := range hits {
		r := h.Result
		fmt.Fprintf(bw, "%s\t%s\t%d\t%d\t%d\t%s\t%d\t%d\n",
			h.QueryID(), h.Strand, r.Score, r.QueryStart, r.QueryEnd, refID, r.RefStart, r.RefEnd)
	}
	return bw.Flush()
}

const fastaWidth = 60

func writeFASTA(w io.Writer, seq *swalign.Sequence) error {
	bw := bufio.NewWriter(w)
	bw.WriteByte('>')
	bw.WriteString(seq.ID)
	if seq.Description != "" {
		bw.WriteByte(' ')
		bw.WriteString(seq.Description)
	}
	bw.WriteByte('\n')

	bases := seq.Text()
	for i := 0; i < len(bases); i += fastaWidth {
		end := min(i+fastaWidth, len(bases))
		bw.WriteString(bases[i:end])
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// progressBar counts finished queries on stderr.
type progressBar struct {
	pbs *mpb.Progress
	bar *mpb.Bar
}

func newProgressBar(total int) *progressBar {
	pbs := mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
	bar := pbs.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name("aligned queries: ", decor.WC{W: len("aligned queries: "), C: decor.DindentRight}),
			decor.Name("", decor.WCSyncSpaceR),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
			decor.EwmaETA(decor.ET_STYLE_GO, 1024),
			decor.OnComplete(decor.Name(""), ". done"),
		),
	)
	return &progressBar{pbs: pbs, bar: bar}
}

func (p *progressBar) done(elapsed time.Duration) {
	p.bar.EwmaIncrBy(1, elapsed)
}

// wait flushes the bar. An aborted scan never completes the bar, so it is
// dropped instead.
func (p *progressBar) wait(aborted bool) {
	if aborted {
		p.bar.Abort(true)
	}
	p.pbs.Wait()
}
