// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runner

import "go.uber.org/zap"

// ZapLogger adapts a *zap.SugaredLogger to the Logger interface every
// loggable component in this module accepts (grounded on the teacher's
// ht.Test.Log, which is satisfied by any Printf-shaped logger).
type ZapLogger struct {
	S *zap.SugaredLogger
}

// NewZapLogger builds a ZapLogger from a production zap configuration.
func NewZapLogger() (*ZapLogger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &ZapLogger{S: l.Sugar()}, nil
}

func (z *ZapLogger) Printf(format string, v ...interface{}) {
	z.S.Infof(format, v...)
}
