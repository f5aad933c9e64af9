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

package llm

import (
	"fmt"
	"os"
	"strings"
)

// Credentials holds authentication for API-based adapters.
type Credentials struct {
	// APIKey is the authentication token for the provider's API.
	APIKey string

	// BaseURL is an optional override for the API endpoint.
	BaseURL string
}

// Validate checks that the API key is present. Format validation is left
// to individual adapters since key formats vary.
func (c Credentials) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	return nil
}

// Redacted returns a safe-to-log version with the API key masked.
func (c Credentials) Redacted() string {
	masked := maskSecret(c.APIKey)
	if c.BaseURL != "" {
		return fmt.Sprintf("APIKey: %s, BaseURL: %s", masked, c.BaseURL)
	}
	return fmt.Sprintf("APIKey: %s", masked)
}

// maskSecret shows the first and last four characters of a secret.
func maskSecret(secret string) string {
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:4] + strings.Repeat("*", len(secret)-8) + secret[len(secret)-4:]
}

// ResolveCredentials finds credentials for a provider by checking, in
// order: the explicit override, the configured value, and the environment
// (SKILLFLOW_<PROVIDER>_API_KEY, then <PROVIDER>_API_KEY). Returns an
// error if no source yields a key.
func ResolveCredentials(provider, override, configured string) (Credentials, error) {
	if override != "" {
		return Credentials{APIKey: override}, nil
	}
	if configured != "" {
		return Credentials{APIKey: configured}, nil
	}
	upper := strings.ToUpper(strings.ReplaceAll(provider, "-", "_"))
	for _, name := range []string{"SKILLFLOW_" + upper + "_API_KEY", upper + "_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			return Credentials{APIKey: v}, nil
		}
	}
	return Credentials{}, fmt.Errorf("no credentials available for provider %q", provider)
}
