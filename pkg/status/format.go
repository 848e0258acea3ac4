// Copyright 2025 walteh LLC
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

package status

import (
	"github.com/fatih/color"
	"github.com/walteh/reduxify/pkg/record"
)

// Formatter defines how one service record is rendered
type Formatter interface {
	// FormatRecord formats one service's flags, error first
	FormatRecord(service string, loading, saving, finished bool, err error) string
}

// DefaultFormatter renders records with an emoji and a color per state
type DefaultFormatter struct{}

// NewDefaultFormatter creates a new DefaultFormatter
func NewDefaultFormatter() *DefaultFormatter {
	return &DefaultFormatter{}
}

// FormatRecord formats one service's flags. An error with an empty message
// does not count.
func (f *DefaultFormatter) FormatRecord(service string, loading, saving, finished bool, err error) string {
	switch {
	case err != nil && err.Error() != "":
		return color.RedString("❌ %s: %v", service, err)
	case loading:
		return color.YellowString("⏳ %s loading", service)
	case saving:
		return color.BlueString("💾 %s saving", service)
	case finished:
		return color.GreenString("✅ %s finished", service)
	default:
		return color.HiBlackString("💤 %s idle", service)
	}
}

// 🧾 FormatRecords renders the named records in order, skipping names root
// does not hold
func FormatRecords[S any](f Formatter, root map[string]S, b record.Backing[S], names ...string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		s, ok := root[name]
		if !ok || b.Absent(s) {
			continue
		}
		err, _ := b.Value(s, record.FieldIsError).(error)
		out = append(out, f.FormatRecord(name,
			b.Bool(s, record.FieldIsLoading),
			b.Bool(s, record.FieldIsSaving),
			b.Bool(s, record.FieldIsFinished),
			err,
		))
	}
	return out
}
