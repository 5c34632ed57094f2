// This file is part of brink.
//
// Copyright 2016 Denis Bernard <db047h@gmail.com>
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

package errio_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/nalgeon/be"

	"brink/internal/errio"
)

type failWriter struct{ calls int }

func (f *failWriter) Write(p []byte) (int, error) {
	f.calls++
	return 0, errors.New("disk full")
}

func TestWriter_passesThroughOnSuccess(t *testing.T) {
	var buf bytes.Buffer
	w := errio.New(&buf)
	_, err := w.Write([]byte("hi"))
	be.Err(t, err, nil)
	be.Equal(t, buf.String(), "hi")
	be.Err(t, w.Err, nil)
}

func TestWriter_stickyAfterFirstError(t *testing.T) {
	fw := &failWriter{}
	w := errio.New(fw)

	_, err := w.Write([]byte("a"))
	be.True(t, err != nil)
	be.Equal(t, fw.calls, 1)

	_, err = w.Write([]byte("b"))
	be.True(t, err != nil)
	be.Equal(t, fw.calls, 1) // second write never reaches the underlying writer
}
