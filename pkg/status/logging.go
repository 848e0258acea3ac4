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
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// 🎨 Display configuration
const (
	indent       = 2  // spaces before each line
	serviceWidth = 20 // width of the service column
	classWidth   = 12 // width of the class column
)

// 🎯 FormatLine renders a status as an aligned, colored terminal line
func FormatLine(s Status) string {
	var prefix string
	switch s.ClassName {
	case "":
		prefix = color.HiBlackString("-")
	case ClassLoading:
		prefix = color.YellowString("⟳")
	case ClassSaving:
		prefix = color.BlueString("↑")
	default:
		prefix = color.RedString("✗")
	}

	service := s.ServiceName
	if service == "" {
		service = "all services"
	}
	class := s.ClassName
	if class == "" {
		class = "idle"
	}

	return fmt.Sprintf("%s%s %s %s %s",
		strings.Repeat(" ", indent),
		prefix,
		fmt.Sprintf("%-*s", serviceWidth, service),
		fmt.Sprintf("%-*s", classWidth, class),
		s.Message,
	)
}
