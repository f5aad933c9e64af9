// Copyright 2026 Skillflow Authors
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

package builtin

import "github.com/skillflow/skillflow/pkg/tools"

// Register adds all builtin tools to the registry.
func Register(reg *tools.Registry) error {
	for _, tool := range []tools.Tool{NewEcho(), NewKV(), NewJQ()} {
		if err := reg.Register(tool); err != nil {
			return err
		}
	}
	return nil
}
