// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package errors

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
)

// Failure is the flattened, render-ready shape of an unhandled error.
type Failure struct {
	StatusCode int    `json:"statusCode"`
	StatusText string `json:"statusText"`
	Class      string `json:"class,omitempty"`
	Message    string `json:"message"`
	File       string `json:"file,omitempty"`
	Line       int    `json:"line,omitempty"`
	Code       string `json:"code,omitempty"`
	Details    any    `json:"details,omitempty"`
	ErrorID    string `json:"errorId"`
}

// Public returns a copy of f without internal detail: the error class and
// source location are removed, and server-side failure messages are replaced
// by the status text.
func (f Failure) Public() Failure {
	f.Class = ""
	f.File = ""
	f.Line = 0
	if f.StatusCode >= http.StatusInternalServerError {
		f.Message = f.StatusText
		f.Details = nil
	}

	return f
}

// Map returns f as a template-friendly map.
func (f Failure) Map() map[string]any {
	m := map[string]any{
		"statusCode": f.StatusCode,
		"statusText": f.StatusText,
		"message":    f.Message,
		"errorId":    f.ErrorID,
	}
	if f.Class != "" {
		m["class"] = f.Class
	}
	if f.File != "" {
		m["file"] = f.File
		m["line"] = f.Line
	}
	if f.Code != "" {
		m["code"] = f.Code
	}
	if f.Details != nil {
		m["details"] = f.Details
	}

	return m
}

// Flatten turns err into a [Failure].
//
// The status is taken from err when it implements [ErrorType] with a valid
// status, otherwise from resolve (or [DefaultStatus] when resolve is nil).
// File and line come from the first stack trace found in the chain, as
// recorded by github.com/pkg/errors; for a recovered panic the frame that
// panicked is reported.
func Flatten(err error, resolve StatusResolver) Failure {
	if err == nil {
		err = errors.New("unknown error")
	}
	if resolve == nil {
		resolve = DefaultStatus
	}

	status, ok := StatusOf(err)
	if !ok {
		status = resolve(err)
		if !ValidStatus(status) {
			status = http.StatusInternalServerError
		}
	}

	f := Failure{
		StatusCode: status,
		StatusText: http.StatusText(status),
		Class:      className(err),
		Message:    err.Error(),
		ErrorID:    generateErrorID(),
	}

	var coded ErrorCode
	if errors.As(err, &coded) {
		f.Code = coded.Code()
	}
	var detailed ErrorDetails
	if errors.As(err, &detailed) {
		f.Details = detailed.Details()
	}

	f.File, f.Line = location(err)

	return f
}

// className returns the dynamic type of the innermost error in the chain,
// skipping the pkg/errors wrappers.
func className(err error) string {
	root := err
	for {
		next := errors.Unwrap(root)
		if next == nil {
			break
		}
		root = next
	}

	return fmt.Sprintf("%T", root)
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// location returns the source position recorded in err's stack trace.
func location(err error) (string, int) {
	var st stackTracer
	if !errors.As(err, &st) {
		return "", 0
	}
	frames := st.StackTrace()
	if len(frames) == 0 {
		return "", 0
	}

	pick := 0
	for i, fr := range frames {
		if fn := runtime.FuncForPC(uintptr(fr) - 1); fn != nil && fn.Name() == "runtime.gopanic" && i+1 < len(frames) {
			pick = i + 1
		}
	}

	pc := uintptr(frames[pick]) - 1
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "", 0
	}
	file, line := fn.FileLine(pc)

	return file, line
}

// generateErrorID returns a short unique id used to correlate a rendered
// failure with its log entry.
func generateErrorID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("err-%d", time.Now().UnixNano())
	}

	return "err-" + strings.ToLower(hex.EncodeToString(b))
}
