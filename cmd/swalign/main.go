// Command swalign provides a CLI for memory-efficient local alignment.
//
// Usage:
//
//	swalign [command] [options]
//
// Commands:
//
//	align       Align two sequences
//	scan        Align every query of a FASTA/FASTQ file against a reference
//	revcomp     Reverse complement sequences
//	score       Look up the score of a base pair
//	version     Show version information
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/pkg/profile"

	"github.com/aria-lang/swalign-go/internal/alignment"
	"github.com/aria-lang/swalign-go/internal/batch"
	"github.com/aria-lang/swalign-go/internal/sequence"
	"github.com/aria-lang/swalign-go/internal/stats"
	"github.com/aria-lang/swalign-go/pkg/swalign"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run dispatches a command. Commands return their errors here so that
// their deferred cleanup runs before the process exits.
func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return errors.New("missing command")
	}

	command := args[0]

	switch command {
	case "align":
		return alignCmd(args[1:])
	case "scan":
		return scanCmd(args[1:])
	case "revcomp":
		return revcompCmd(args[1:])
	case "score":
		return scoreCmd(args[1:])
	case "version":
		fmt.Println(swalign.Info())
	case "help", "-h", "--help":
		printUsage()
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
	return nil
}

func printUsage() {
	fmt.Println(`swalign - Memory-efficient Smith-Waterman Local Alignment

Usage:
  swalign <command> [options]

Commands:
  align     Align two sequences
  scan      Align every query of a FASTA/FASTQ file against a reference
  revcomp   Reverse complement sequences
  score     Look up the score of a base pair
  version   Show version information
  help      Show this help message

Use "swalign <command> -h" for more information about a command.`)
}

func alignCmd(args []string) error {
	fs := flag.NewFlagSet("align", flag.ExitOnError)
	query := fs.String("query", "", "Query sequence")
	ref := fs.String("ref", "", "Reference sequence")
	queryWin := fs.String("query-window", "", "Query window as start:end (0-indexed, inclusive)")
	refWin := fs.String("ref-window", "", "Reference window as start:end (0-indexed, inclusive)")
	maxMem := fs.String("max-mem", "", "Memory limit for the alignment rows, e.g. 64MiB")
	scoring := addScoringFlags(fs)
	fs.Parse(args)

	if *query == "" || *ref == "" {
		fs.Usage()
		return errors.New("both -query and -ref are required")
	}

	q, err := swalign.NewSequence(*query)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	if err := applyWindow(q, *queryWin); err != nil {
		return fmt.Errorf("query window: %w", err)
	}

	r, err := swalign.NewSequence(*ref)
	if err != nil {
		return fmt.Errorf("reference: %w", err)
	}
	if err := applyWindow(r, *refWin); err != nil {
		return fmt.Errorf("reference window: %w", err)
	}

	model, err := scoring.model()
	if err != nil {
		return err
	}
	limit, err := parseMemory(*maxMem)
	if err != nil {
		return fmt.Errorf("-max-mem: %w", err)
	}

	res, err := swalign.AlignWithScoring(q, r, model, swalign.WithMemoryLimit(limit))
	if err != nil {
		return fmt.Errorf("aligning sequences: %w", err)
	}

	fmt.Print(formatResult(q, r, res))
	return nil
}

func scanCmd(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	queryFile := fs.String("query", "", "FASTA/FASTQ file of queries (.gz allowed, - for stdin)")
	refFile := fs.String("ref", "", "FASTA file holding the reference")
	refID := fs.String("ref-id", "", "Reference record to use (default: first record)")
	out := fs.String("out", "", "Output TSV file (default: stdout)")
	threads := fs.Int("threads", 0, "Concurrent alignments (default: number of CPUs)")
	bothStrands := fs.Bool("both-strands", false, "Also align the reverse complement of each query")
	minScore := fs.Int64("min-score", 1, "Only report hits scoring at least this")
	progress := fs.Bool("progress", false, "Show a progress bar on stderr")
	maxMem := fs.String("max-mem", "", "Memory limit per alignment, e.g. 64MiB")
	cpuProfile := fs.Bool("cpuprofile", false, "Write a CPU profile to the working directory")
	memProfile := fs.Bool("memprofile", false, "Write a memory profile to the working directory")
	verbose := fs.Bool("v", false, "Report input and scan statistics on stderr")
	scoring := addScoringFlags(fs)
	fs.Parse(args)

	if *queryFile == "" || *refFile == "" {
		fs.Usage()
		return errors.New("both -query and -ref are required")
	}

	if *cpuProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	} else if *memProfile {
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	}

	model, err := scoring.model()
	if err != nil {
		return err
	}
	limit, err := parseMemory(*maxMem)
	if err != nil {
		return fmt.Errorf("-max-mem: %w", err)
	}

	refs, err := swalign.ReadSequences(*refFile)
	if err != nil {
		return fmt.Errorf("reading reference: %w", err)
	}
	ref, err := pickReference(refs, *refID)
	if err != nil {
		return err
	}

	queries, err := swalign.ReadSequences(*queryFile)
	if err != nil {
		return fmt.Errorf("reading queries: %w", err)
	}
	if len(queries) == 0 {
		return fmt.Errorf("no sequences found in %s", *queryFile)
	}

	if *verbose {
		qstats, _ := stats.FromSequences(queries)
		fmt.Fprintf(os.Stderr, "reference %s: %s bases\n", ref.ID, humanize.Comma(int64(ref.Len())))
		fmt.Fprintf(os.Stderr, "queries: %d (%s bases)\n", qstats.Count, humanize.Comma(int64(qstats.TotalBases)))
		fmt.Fprintf(os.Stderr, "memory per alignment: %s\n", humanize.Bytes(uint64(alignment.BufferBytes(ref.WindowLen()))))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := batch.Options{
		Workers:     *threads,
		BothStrands: *bothStrands,
		MemoryLimit: limit,
	}
	var bar *progressBar
	if *progress {
		bar = newProgressBar(len(queries))
		opts.OnDone = bar.done
	}

	hits, err := batch.Scan(ctx, ref, queries, model, opts)
	if bar != nil {
		bar.wait(err != nil)
	}
	if err != nil {
		return fmt.Errorf("scanning: %w", err)
	}

	w := os.Stdout
	if *out != "" {
		fh, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer fh.Close()
		w = fh
	}
	if err := writeHits(w, ref.ID, batch.Filter(hits, *minScore)); err != nil {
		return fmt.Errorf("writing hits: %w", err)
	}

	if *verbose {
		fmt.Fprintln(os.Stderr, stats.FromHits(hits))
	}
	return nil
}

func revcompCmd(args []string) error {
	fs := flag.NewFlagSet("revcomp", flag.ExitOnError)
	file := fs.String("file", "", "FASTA/FASTQ file to reverse complement")
	seq := fs.String("seq", "", "Sequence string to reverse complement")
	fs.Parse(args)

	if *file == "" && *seq == "" {
		fs.Usage()
		return errors.New("either -file or -seq is required")
	}

	if *seq != "" {
		s, err := swalign.NewSequence(*seq)
		if err != nil {
			return fmt.Errorf("creating sequence: %w", err)
		}
		fmt.Println(s.ReverseComplement().Text())
		return nil
	}

	sequences, err := swalign.ReadSequences(*file)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}
	for _, s := range sequences {
		if err := writeFASTA(os.Stdout, s.ReverseComplement()); err != nil {
			return fmt.Errorf("writing sequence: %w", err)
		}
	}
	return nil
}

func scoreCmd(args []string) error {
	fs := flag.NewFlagSet("score", flag.ExitOnError)
	query := fs.String("q", "", "Query base")
	ref := fs.String("r", "", "Reference base")
	scoring := addScoringFlags(fs)
	fs.Parse(args)

	if len(*query) != 1 || len(*ref) != 1 {
		fs.Usage()
		return errors.New("-q and -r must each be a single base")
	}

	model, err := scoring.model()
	if err != nil {
		return err
	}

	q, r := strings.ToUpper(*query)[0], strings.ToUpper(*ref)[0]
	if !sequence.IsValidBase(q) || !sequence.IsValidBase(r) {
		return fmt.Errorf("%c/%c: not an IUPAC nucleotide code", q, r)
	}
	fmt.Printf("%c %c %d\n", q, r, model.Score(q, r))
	return nil
}
