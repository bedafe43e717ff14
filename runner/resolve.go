// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runner

import (
	"time"

	"github.com/vdobler/hurl/hurlfile"
)

// resolveOptions overlays an entry's [Options] section atop the run-wide
// defaults (spec §4.H step 1). Unknown option names are ignored: the
// lexer/parser already rejects malformed lines, and new CLI-only flags
// (e.g. --cacert) have no per-entry override in the grammar.
func resolveOptions(base Options, opts []hurlfile.Option) resolved {
	r := resolved{
		Repeat:          base.Repeat,
		Location:        base.Location,
		LocationTrusted: base.LocationTrusted,
		MaxRedirects:    base.MaxRedirects,
		ConnectTimeout:  base.ConnectTimeout,
		MaxTime:         base.MaxTime,
		Retry:           base.Retry,
		RetryInterval:   base.RetryInterval,
		Delay:           base.Delay,
		Compressed:      base.Compressed,
		Insecure:        base.Insecure,
		IgnoreAsserts:   base.IgnoreAsserts,
		Verbose:         base.Verbose,
	}
	for _, o := range opts {
		switch o.Name {
		case "skip":
			r.Skip = o.Kind == hurlfile.OptionBool && o.Bool
		case "repeat":
			if o.Kind == hurlfile.OptionInt {
				r.Repeat = int(o.Int)
			}
		case "retry":
			if o.Kind == hurlfile.OptionInt {
				r.Retry = int(o.Int)
			}
		case "retry-interval":
			r.RetryInterval = durationOf(o)
		case "delay":
			r.Delay = durationOf(o)
		case "location":
			r.Location = o.Kind == hurlfile.OptionBool && o.Bool
		case "location-trusted":
			r.LocationTrusted = o.Kind == hurlfile.OptionBool && o.Bool
			if r.LocationTrusted {
				r.Location = true
			}
		case "max-redirs":
			if o.Kind == hurlfile.OptionInt {
				r.MaxRedirects = int(o.Int)
			}
		case "connect-timeout":
			r.ConnectTimeout = durationOf(o)
		case "max-time":
			r.MaxTime = durationOf(o)
		case "compressed":
			r.Compressed = o.Kind == hurlfile.OptionBool && o.Bool
		case "insecure":
			r.Insecure = o.Kind == hurlfile.OptionBool && o.Bool
		case "ignore-asserts":
			r.IgnoreAsserts = o.Kind == hurlfile.OptionBool && o.Bool
		case "verbose":
			r.Verbose = o.Kind == hurlfile.OptionBool && o.Bool
		case "variable":
			r.VariableDecls = append(r.VariableDecls, varDecl{Name: o.VarName, Value: o.VarValue})
		}
	}
	if r.Repeat < 1 {
		r.Repeat = 1
	}
	return r
}

// durationOf converts an Option already typed as OptionDuration (or a
// bare OptionInt, defaulting to seconds per spec §4.A) into a
// time.Duration.
func durationOf(o hurlfile.Option) time.Duration {
	switch o.Kind {
	case hurlfile.OptionDuration:
		return time.Duration(o.Duration) * time.Millisecond
	case hurlfile.OptionInt:
		return time.Duration(o.Int) * time.Second
	}
	return 0
}
