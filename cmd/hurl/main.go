// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command hurl is the thin CLI front-end over the runner library (spec
// §1: "Deliberately OUT of scope ... the CLI front-end and flag
// parsing" describes this binary's narrow contract; everything
// interesting lives in the hurlfile/runner/result packages).
//
// Grounded on cmd/ht/flag.go's hand-rolled flag.FlagSet style (cmdlVar
// for repeatable name=value flags) and report.go's mgutz/ansi colored
// text summary.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mgutz/ansi"

	"github.com/vdobler/hurl/hurlfile"
	"github.com/vdobler/hurl/internal/hist"
	"github.com/vdobler/hurl/internal/metrics"
	"github.com/vdobler/hurl/result"
	"github.com/vdobler/hurl/runner"
	"github.com/vdobler/hurl/value"
)

// cmdlVar captures repeatable "-variable name=value" flags (spec §6),
// grounded on cmd/ht/flag.go's cmdlVar.
type cmdlVar map[string]string

func (v cmdlVar) String() string { return "" }
func (v cmdlVar) Set(s string) error {
	parts := strings.SplitN(s, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("bad --variable argument %q, want name=value", s)
	}
	v[parts[0]] = parts[1]
	return nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("hurl", flag.ContinueOnError)

	test := fs.Bool("test", false, "run files in test mode (parallel worker pool)")
	jobs := fs.Int("jobs", runtime.NumCPU(), "number of parallel workers in --test mode")
	repeat := fs.Int("repeat", 1, "repeat every file N times")
	continueOnError := fs.Bool("continue-on-error", false, "keep running the file after a failed entry")
	varsFile := fs.String("variables-file", "", "file of name=value variable definitions")
	ignoreAsserts := fs.Bool("ignore-asserts", false, "evaluate captures only, skip asserts")
	location := fs.Bool("location", false, "follow redirects")
	locationTrusted := fs.Bool("location-trusted", false, "follow redirects, forwarding credentials")
	maxRedirs := fs.Int("max-redirs", 50, "maximum number of redirects to follow")
	connectTimeout := fs.Duration("connect-timeout", 0, "connection establishment timeout")
	maxTime := fs.Duration("max-time", 0, "total request/response timeout")
	retry := fs.Int("retry", 0, "number of retries on assert/transport failure (-1 = unlimited)")
	retryInterval := fs.Duration("retry-interval", time.Second, "wait between retries")
	delay := fs.Duration("delay", 0, "wait before the first attempt of each entry")
	compressed := fs.Bool("compressed", false, "request a compressed response")
	insecure := fs.Bool("insecure", false, "skip TLS certificate verification")
	cookieFile := fs.String("cookie", "", "Netscape-format cookie file to seed the jar from")
	cookieJarFile := fs.String("cookie-jar", "", "Netscape-format cookie file to write at run end")
	glob := fs.String("glob", "", "glob pattern to expand in place of explicit file arguments")
	asJSON := fs.Bool("json", false, "print the run result as JSON instead of a text summary")
	verbose := fs.Bool("verbose", false, "dump each request (curl-equivalent)")
	veryVerbose := fs.Bool("very-verbose", false, "--verbose plus per-file timing histograms")
	metricsAddr := fs.String("metrics-addr", "", "listen address for the optional Prometheus /metrics endpoint")

	variables := cmdlVar{}
	fs.Var(variables, "variable", "name=value, repeatable")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	files, err := resolveFiles(fs.Args(), *glob)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "hurl: no input files")
		return 1
	}

	scope := value.Scope{}
	for _, e := range os.Environ() {
		if !strings.HasPrefix(e, "HURL_") {
			continue
		}
		kv := strings.SplitN(strings.TrimPrefix(e, "HURL_"), "=", 2)
		if len(kv) == 2 {
			scope[kv[0]] = value.String(kv[1])
		}
	}
	if *varsFile != "" {
		if err := loadVariablesFile(*varsFile, scope); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	for k, v := range variables {
		scope[k] = value.String(v)
	}

	opts := runner.DefaultOptions()
	opts.Jobs = 1
	if *test {
		opts.Jobs = *jobs
	}
	opts.Repeat = *repeat
	opts.ContinueOnError = *continueOnError
	opts.IgnoreAsserts = *ignoreAsserts
	opts.Location = *location || *locationTrusted
	opts.LocationTrusted = *locationTrusted
	opts.MaxRedirects = *maxRedirs
	opts.ConnectTimeout = *connectTimeout
	opts.MaxTime = *maxTime
	opts.Retry = *retry
	opts.RetryInterval = *retryInterval
	opts.Delay = *delay
	opts.Compressed = *compressed
	opts.Insecure = *insecure
	opts.Verbose = *verbose || *veryVerbose
	opts.Variables = scope
	opts.MetricsAddr = *metricsAddr
	opts.CookieFile = *cookieFile
	opts.CookieJarFile = *cookieJarFile

	if err := opts.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "hurl: invalid options:", err)
		return 1
	}

	if opts.MetricsAddr != "" {
		stop := metrics.Serve(opts.MetricsAddr)
		defer stop()
	}

	parsed := make([]*hurlfile.File, 0, len(files))
	for _, f := range files {
		src, err := os.ReadFile(f)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		hf, err := hurlfile.Parse(src, f)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		parsed = append(parsed, hf)
	}

	r := runner.New()
	ctx := context.Background()
	rr, err := r.RunAll(ctx, parsed, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hurl:", err)
		return 3
	}

	if *asJSON {
		printJSON(rr)
	} else {
		printSummary(rr)
		if *veryVerbose {
			printTimingHistograms(os.Stdout, rr)
		}
	}

	return rr.ExitCode()
}

func resolveFiles(args []string, glob string) ([]string, error) {
	var files []string
	if glob != "" {
		matches, err := filepath.Glob(glob)
		if err != nil {
			return nil, fmt.Errorf("hurl: bad --glob pattern: %w", err)
		}
		files = append(files, matches...)
	}
	files = append(files, args...)
	return files, nil
}

func loadVariablesFile(path string, scope value.Scope) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		kv := strings.SplitN(line, "=", 2)
		if len(kv) != 2 {
			return fmt.Errorf("hurl: %s: malformed line %q", path, line)
		}
		name := strings.TrimSpace(kv[0])
		if _, exists := scope[name]; exists {
			return fmt.Errorf("hurl: %s: variable %q redefined", path, name)
		}
		scope[name] = value.String(strings.TrimSpace(kv[1]))
	}
	return sc.Err()
}

func printSummary(rr *result.RunResult) {
	for _, fr := range rr.Files {
		passed, failed, errored, skipped := fr.Stats()
		color := ansi.ColorFunc("green")
		if fr.Status == result.Fail || fr.Status == result.Error {
			color = ansi.ColorFunc("red")
		}
		fmt.Printf("%s  %s  (%d passed, %d failed, %d errored, %d skipped)\n",
			color(fr.Status.String()), fr.Name, passed, failed, errored, skipped)
		for _, er := range fr.Entries {
			if er.Status == result.Pass || er.Status == result.Skipped {
				continue
			}
			fmt.Printf("  entry %d: %s\n", er.EntryIndex, er.Status)
			for _, a := range er.Asserts {
				if !a.Pass {
					fmt.Printf("    assert failed: %s\n", a.Description)
				}
			}
			for _, e := range er.Errors {
				fmt.Printf("    error: %s\n", e)
			}
		}
	}
	fmt.Printf("\n%d file(s), exit code %d, total %s\n", len(rr.Files), rr.ExitCode(), rr.Duration)
}

// printTimingHistograms renders one spark-line histogram of entry total
// timings per executed file, for `--very-verbose` runs (spec §4.F
// "timings"). Files with no executed entries (e.g. every entry skipped)
// are omitted.
func printTimingHistograms(w *os.File, rr *result.RunResult) {
	var hists []hist.Histogram
	for _, fr := range rr.Files {
		var data []uint32
		for _, er := range fr.Entries {
			if er.Skipped {
				continue
			}
			data = append(data, uint32(er.Timings.Total))
		}
		if len(data) == 0 {
			continue
		}
		hists = append(hists, hist.Histogram{Name: fr.Name, Data: data})
	}
	if len(hists) == 0 {
		return
	}
	fmt.Fprintln(w, "\ntiming (microseconds, log scale):")
	hist.PrintLogHistograms(w, hists)
}

func printJSON(rr *result.RunResult) {
	// A hand-rolled minimal encoder avoids pulling encoding/json's
	// reflection over result.EntryResult.Errors ([]error does not
	// implement json.Marshaler); full JSON reporting is a reporter
	// concern out of this core's scope (spec §1).
	fmt.Printf("{\"id\":%q,\"exitCode\":%d,\"files\":%d}\n", rr.ID.String(), rr.ExitCode(), len(rr.Files))
}
