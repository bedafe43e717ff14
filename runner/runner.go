// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runner

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"

	"github.com/vdobler/hurl/cookiejar"
	"github.com/vdobler/hurl/httpclient"
	"github.com/vdobler/hurl/hurlfile"
	"github.com/vdobler/hurl/internal/metrics"
	"github.com/vdobler/hurl/result"
	"github.com/vdobler/hurl/template"
	"github.com/vdobler/hurl/value"
)

// Runner orchestrates entries of one or more files against the HTTP
// client adapter (spec §4.H). A Runner holds no per-file state beyond
// jarMu (Jar and Scope are owned exclusively by each RunFile call, spec
// §5, "Shared state"); jarMu only serializes writes to a shared
// --cookie-jar destination file across concurrently running files.
type Runner struct {
	Adapter *httpclient.Adapter

	jarMu sync.Mutex
}

// New returns a Runner backed by a fresh httpclient.Adapter.
func New() *Runner {
	return &Runner{Adapter: &httpclient.Adapter{}}
}

// RunFile drives one file's entries strictly sequentially (spec §4.H),
// maintaining one cookiejar.Jar and one value.Scope for the whole file.
// The jar is optionally seeded from opts.CookieFile and, at the end of
// the file, optionally persisted to opts.CookieJarFile (spec §4.G,
// "optionally initialized from an input file; optionally serialized at
// run end"; spec §6, `--cookie`/`--cookie-jar`).
//
// Grounded on ht.go's Test.Run (skip/retry/PreSleep/Wait) and
// variables.go's Repeat unrolling.
func (r *Runner) RunFile(ctx context.Context, file *hurlfile.File, opts Options) (*result.FileResult, error) {
	jar, err := cookiejar.New()
	if err != nil {
		return nil, err
	}
	if opts.CookieFile != "" {
		if err := jar.LoadNetscapeFile(opts.CookieFile); err != nil {
			return nil, fmt.Errorf("runner: loading --cookie file: %w", err)
		}
	}
	scope := opts.Variables.Copy()
	fileDir := filepath.Dir(file.Name)

	fr := &result.FileResult{Name: file.Name}
	start := time.Now()

	if opts.CookieJarFile != "" {
		defer r.saveCookieJar(jar, opts.CookieJarFile, fr, opts.Logger)
	}

	for i, entry := range file.Entries {
		if entry.Request == nil {
			continue
		}
		opt := resolveOptions(opts, entry.Request.Options)
		for _, vd := range opt.VariableDecls {
			rendered, err := template.ApplyTemplateString(vd.Value, scope)
			if err != nil {
				rendered = vd.Value
			}
			scope[vd.Name] = value.String(rendered)
		}

		if opt.Skip {
			fr.Entries = append(fr.Entries, result.EntryResult{
				ID:         xid.New(),
				EntryIndex: i,
				Status:     result.Skipped,
				Skipped:    true,
			})
			continue
		}

		for iter := 0; iter < opt.Repeat; iter++ {
			er := r.runEntryWithRetry(ctx, entry, opt, scope, jar, fileDir, opts.Logger)
			er.ID = xid.New()
			er.EntryIndex = i
			fr.Entries = append(fr.Entries, er)

			if !er.Passed() && !opts.ContinueOnError {
				fr.Duration = time.Since(start)
				fr.Status = worstEntryStatus(fr.Entries)
				return fr, nil
			}
		}
	}

	fr.Duration = time.Since(start)
	fr.Status = worstEntryStatus(fr.Entries)
	return fr, nil
}

// saveCookieJar persists jar to path in Netscape format, deriving the
// set of URLs to dump from every request actually sent during fr (spec
// §4.G, "optionally serialized at run end"). Concurrent files writing to
// the same --cookie-jar destination (spec §5, "--test" worker pool) are
// serialized by jarMu; the result is last-writer-wins, matching a single
// shared destination file having one final state.
func (r *Runner) saveCookieJar(jar *cookiejar.Jar, path string, fr *result.FileResult, logger Logger) {
	seen := map[string]bool{}
	var urls []*url.URL
	for _, er := range fr.Entries {
		if er.Request == nil {
			continue
		}
		u, err := url.Parse(er.Request.URL)
		if err != nil {
			continue
		}
		key := u.Scheme + "://" + u.Host
		if seen[key] {
			continue
		}
		seen[key] = true
		urls = append(urls, u)
	}
	if len(urls) == 0 {
		return
	}

	r.jarMu.Lock()
	defer r.jarMu.Unlock()
	if err := jar.SaveNetscapeFile(path, urls); err != nil && logger != nil {
		logger.Printf("runner: writing --cookie-jar file %s: %v", path, err)
	}
}

func worstEntryStatus(entries []result.EntryResult) result.Status {
	worst := result.NotRun
	for _, er := range entries {
		if rankStatus(er.Status) > rankStatus(worst) {
			worst = er.Status
		}
	}
	return worst
}

func rankStatus(s result.Status) int {
	switch s {
	case result.NotRun:
		return 0
	case result.Skipped:
		return 1
	case result.Pass:
		return 2
	case result.Fail:
		return 3
	case result.Error:
		return 4
	}
	return -1
}

// runEntryWithRetry implements the per-entry state machine's "Prepare →
// Execute → Evaluate → (pass|fail/retry)" loop (spec §4.H steps 3-4):
// delay applies once before the first attempt; retry-interval applies
// between attempts; total attempts ≤ retry+1 (or unlimited if retry<0).
func (r *Runner) runEntryWithRetry(ctx context.Context, entry *hurlfile.Entry, opt resolved, scope value.Scope, jar *cookiejar.Jar, fileDir string, logger Logger) result.EntryResult {
	start := time.Now()
	attempts := 0
	var er result.EntryResult

	for {
		attempts++
		if attempts == 1 && opt.Delay > 0 {
			time.Sleep(opt.Delay)
		}

		er = r.runEntryOnce(ctx, entry, opt, scope, jar, fileDir)
		er.RetryCount = attempts - 1

		if er.Passed() {
			break
		}
		if logger != nil {
			logger.Printf("entry failed (attempt %d): %v", attempts, er.Errors)
		}
		retryAllowed := opt.Retry < 0 || attempts < opt.Retry+1
		if !retryAllowed {
			break
		}
		if opt.RetryInterval > 0 {
			time.Sleep(opt.RetryInterval)
		}
	}

	er.Duration = time.Since(start)
	metrics.EntriesTotal.WithLabelValues(er.Status.String()).Inc()
	metrics.RequestDuration.Observe(er.Duration.Seconds())
	return er
}

// runEntryOnce performs exactly one attempt: render, execute, update
// cookies, evaluate asserts and captures (spec §4.H steps 3a-3f).
func (r *Runner) runEntryOnce(ctx context.Context, entry *hurlfile.Entry, opt resolved, scope value.Scope, jar *cookiejar.Jar, fileDir string) result.EntryResult {
	er := result.EntryResult{}

	spec, err := buildRequest(entry.Request, scope, opt, fileDir)
	if err != nil {
		er.Status = result.Error
		er.Errors = append(er.Errors, err)
		return er
	}

	reqURL, uerr := url.Parse(spec.URL)
	if uerr == nil {
		spec.Cookies = append(jar.CandidatesForURL(reqURL), spec.Cookies...)
	}

	er.Request = &result.RequestRecord{Method: spec.Method, URL: spec.URL, Header: map[string][]string(spec.Header), Body: spec.Body}

	resp, err := r.Adapter.Execute(ctx, spec)
	if err != nil {
		er.Status = result.Error
		er.Errors = append(er.Errors, err)
		return er
	}
	er.Response = resp
	er.Timings = resp.Timings()

	if uerr == nil {
		jar.SetCookies(reqURL, resp.Cookies())
	}

	var errs result.ErrorList
	allPass := true

	if entry.Response != nil {
		if entry.Response.Status != "*" && !opt.IgnoreAsserts {
			pass := renderInt(entry.Response.Status, scope) == resp.StatusCode()
			er.Asserts = append(er.Asserts, result.AssertResult{Description: "status == " + entry.Response.Status, Pass: pass})
			if !pass {
				allPass = false
			}
		}

		if !opt.IgnoreAsserts {
			for _, chk := range implicitAsserts(entry.Response, resp, scope) {
				er.Asserts = append(er.Asserts, result.AssertResult{Description: chk.Desc, Pass: chk.Pass, Error: chk.Err})
				if chk.Err != nil {
					errs = append(errs, chk.Err)
				}
				if !chk.Pass {
					allPass = false
				}
			}
		}

		for _, cap := range entry.Response.Captures {
			v, cerr := evalCapture(cap, resp, scope)
			if cerr != nil {
				er.Captures = append(er.Captures, result.CaptureResult{Name: cap.Name, Error: cerr})
				errs = append(errs, cerr)
				continue
			}
			scope.Set(cap.Name, v)
			er.Captures = append(er.Captures, result.CaptureResult{Name: cap.Name, Value: v})
		}

		if !opt.IgnoreAsserts {
			for _, a := range entry.Response.Asserts {
				desc, pass, aerr := evalAssert(a, resp, scope)
				er.Asserts = append(er.Asserts, result.AssertResult{Description: desc, Pass: pass, Error: aerr})
				if aerr != nil {
					errs = append(errs, aerr)
				}
				if !pass {
					allPass = false
				}
			}
		}
	}

	er.Errors = errs
	switch {
	case len(errs) > 0:
		er.Status = result.Error
	case !allPass:
		er.Status = result.Fail
	default:
		er.Status = result.Pass
	}
	return er
}

func renderInt(s string, scope value.Scope) int {
	v, err := evalOperand(hurlfile.Predicate{Operand: s}, scope)
	if err != nil {
		return -1
	}
	if i, ok := v.(value.Int64); ok {
		return int(i)
	}
	return -1
}

// RunAll executes every file across a fixed-size worker pool keyed by
// opts.Jobs (spec §4.H, "Parallelism"), grounded on suite.go's
// Suite.ExecuteConcurrent (a channel of work + sync.WaitGroup).
// Each file gets its own cookiejar.Jar and value.Scope; entries within a
// file remain strictly sequential.
func (r *Runner) RunAll(ctx context.Context, files []*hurlfile.File, opts Options) (*result.RunResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	rr := &result.RunResult{ID: uuid.New(), Started: time.Now()}
	rr.Files = make([]result.FileResult, len(files))

	jobs := opts.Jobs
	if jobs < 1 {
		jobs = 1
	}

	type work struct {
		idx  int
		file *hurlfile.File
	}
	workCh := make(chan work)
	var wg sync.WaitGroup
	var firstErr error
	var mu sync.Mutex

	for w := 0; w < jobs; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workCh {
				fr, err := r.RunFile(ctx, item.file, opts)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					continue
				}
				rr.Files[item.idx] = *fr
			}
		}()
	}

	for i, f := range files {
		workCh <- work{idx: i, file: f}
	}
	close(workCh)
	wg.Wait()

	rr.Duration = time.Since(rr.Started)
	return rr, firstErr
}
