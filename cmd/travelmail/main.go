// Command-line entry point for travelmail.
//
// Input formats
// -------------
// extract reads JSONL, one email per line, in either shape the ingest
// service accepts:
//  1. Bus envelope: {"source":{...}, "message":{...}, "attachments":[...]}
//  2. Flat email:   {"id":"...","subject":"...","sender":"...","body_text":"..."}
//
// itinerary reads the JSON array of records that extract writes.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"travelmail/internal/classify"
	"travelmail/internal/email"
	"travelmail/internal/pipeline"
	"travelmail/internal/registry"
	"travelmail/internal/roundtrip"
)

type Stats struct {
	Lines     int
	Envelope  int
	Flat      int
	Malformed int
	Records   int
	Merged    int
	Discarded int
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "travelmail - commands:")
	fmt.Fprintln(w, "  extract    - classify JSONL emails and output travel records")
	fmt.Fprintln(w, "  itinerary  - build travel periods and round-trip suggestions from records")
	fmt.Fprintln(w, "  serve      - run the NATS ingest service and review API")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  travelmail extract -input emails.jsonl [-output out.json] [-pretty] [-format json|text] [-stats] [-no-context] [-trace]")
	fmt.Fprintln(w, "  travelmail itinerary -input records.json [-window 30] [-pretty]")
	fmt.Fprintln(w, "  travelmail serve -config config.yaml")
	fmt.Fprintln(w, "")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "extract":
		runExtract(os.Args[2:])
	case "itinerary":
		runItinerary(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "-h", "--help", "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage(os.Stderr)
		os.Exit(2)
	}
}

func runExtract(args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	inPath := fs.String("input", "", "Input JSONL file (default: stdin)")
	outPath := fs.String("output", "", "Output file (default: stdout)")
	pretty := fs.Bool("pretty", false, "Pretty-print JSON output")
	format := fs.String("format", "json", "Output format: json or text")
	showStats := fs.Bool("stats", false, "Print basic counters to stderr")
	noContext := fs.Bool("no-context", false, "Disable sender/attachment/forward reweighting")
	trace := fs.Bool("trace", false, "Output per-email scoring traces instead of records")
	_ = fs.Parse(args)

	r, closeIn := openInput(*inPath)
	defer closeIn()

	emails, st, err := readEmails(r)
	if err != nil {
		fatalf("Input read error: %v", err)
	}

	p := pipeline.New(registry.Default(),
		pipeline.WithContextReweighting(!*noContext),
		pipeline.WithSource("cli"),
	)

	w, closeOut := openOutput(*outPath)
	defer closeOut()

	if *trace {
		writeJSONOut(w, p.Trace(emails), *pretty)
		return
	}

	res, err := p.Run(context.Background(), emails)
	if err != nil {
		fatalf("Pipeline error: %v", err)
	}
	st.Records = len(res.Records)
	st.Merged = res.Merged
	for _, o := range res.Outcomes {
		if !o.Kept {
			st.Discarded++
		}
	}

	switch strings.ToLower(*format) {
	case "text":
		writeText(w, res)
	case "json":
		writeJSONOut(w, res.Records, *pretty)
	default:
		fatalf("Unknown format: %s", *format)
	}

	if *showStats {
		fmt.Fprintf(os.Stderr,
			"stats: lines=%d parsed(envelope=%d flat=%d) malformed=%d records=%d merged=%d discarded=%d\n",
			st.Lines, st.Envelope, st.Flat, st.Malformed, st.Records, st.Merged, st.Discarded,
		)
	}
}

func runItinerary(args []string) {
	fs := flag.NewFlagSet("itinerary", flag.ExitOnError)
	inPath := fs.String("input", "", "Input JSON array of records (default: stdin)")
	outPath := fs.String("output", "", "Output JSON file (default: stdout)")
	windowDays := fs.Int("window", 30, "Maximum days between outbound and return flights")
	pretty := fs.Bool("pretty", false, "Pretty-print JSON output")
	_ = fs.Parse(args)

	r, closeIn := openInput(*inPath)
	defer closeIn()

	var records []classify.ExtractedRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		fatalf("Failed to decode records: %v", err)
	}

	p := pipeline.New(registry.Default(), pipeline.WithSource("cli"))
	det := roundtrip.NewDetector(roundtrip.WithWindow(time.Duration(*windowDays) * 24 * time.Hour))
	it := p.Itinerary(records, det)

	w, closeOut := openOutput(*outPath)
	defer closeOut()
	writeJSONOut(w, it, *pretty)
}

// readEmails decodes JSONL emails, skipping blank and malformed lines.
func readEmails(r io.Reader) ([]email.RawEmail, *Stats, error) {
	scanner := bufio.NewScanner(r)
	// Emails with long bodies; bump buffer.
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 60*1024*1024)

	st := &Stats{}
	var emails []email.RawEmail
	for scanner.Scan() {
		st.Lines++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		em, kind, err := email.Decode([]byte(line))
		if err != nil || em == nil {
			st.Malformed++
			continue
		}
		switch kind {
		case "envelope":
			st.Envelope++
		case "flat":
			st.Flat++
		}
		if em.ID == "" {
			em.ID = fmt.Sprintf("line-%d", st.Lines)
		}
		emails = append(emails, *em)
	}
	return emails, st, scanner.Err()
}

func openInput(path string) (io.Reader, func()) {
	if path == "" {
		return os.Stdin, func() {}
	}
	f, err := os.Open(path)
	if err != nil {
		fatalf("Failed to open input: %v", err)
	}
	return f, func() { _ = f.Close() }
}

func openOutput(path string) (io.Writer, func()) {
	if path == "" {
		return os.Stdout, func() {}
	}
	f, err := os.Create(path)
	if err != nil {
		fatalf("Failed to create output: %v", err)
	}
	return f, func() { _ = f.Close() }
}

func writeJSONOut(w io.Writer, v any, pretty bool) {
	enc, err := marshalJSON(v, pretty)
	if err != nil {
		fatalf("JSON encode error: %v", err)
	}
	_, _ = w.Write(enc)
	if w == os.Stdout {
		_, _ = w.Write([]byte("\n"))
	}
}

func marshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
