package security

import (
	"net/http"
	"sort"
	"strings"

	"github.com/arnavsurve/stepcheck/pkg/core"
)

// Mask replaces redacted values.
const Mask = "********"

var sensitiveHeaders = map[string]bool{
	"Authorization":       true,
	"Proxy-Authorization": true,
	"Cookie":              true,
	"Set-Cookie":          true,
	"X-Api-Key":           true,
	"X-Auth-Token":        true,
}

type Redactor struct {
	Secrets []string
}

// NewRedactor collects the values of every secret input, plus any extra
// values the caller knows to be sensitive.
func NewRedactor(inputs []core.Input, varCtx core.VarContext, extra ...string) *Redactor {
	var secretValues []string
	for _, input := range inputs {
		if input.Secret {
			if val, ok := varCtx[input.Name]; ok && val != "" {
				secretValues = append(secretValues, val)
			}
		}
	}
	for _, v := range extra {
		if v != "" {
			secretValues = append(secretValues, v)
		}
	}
	return &Redactor{
		Secrets: secretValues,
	}
}

func (r *Redactor) Redact(s string) string {
	if r == nil || len(r.Secrets) == 0 {
		return s
	}

	// Longer secrets first so a secret containing another is replaced whole.
	secrets := make([]string, len(r.Secrets))
	copy(secrets, r.Secrets)
	sort.Slice(secrets, func(i, j int) bool {
		return len(secrets[i]) > len(secrets[j])
	})

	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		s = strings.ReplaceAll(s, secret, Mask)
	}
	return s
}

// RedactValue walks maps and slices decoded from JSON and redacts every string.
func (r *Redactor) RedactValue(v any) any {
	if r == nil || len(r.Secrets) == 0 {
		return v
	}
	switch tv := v.(type) {
	case string:
		return r.Redact(tv)
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, item := range tv {
			out[k] = r.RedactValue(item)
		}
		return out
	case []any:
		out := make([]any, len(tv))
		for i, item := range tv {
			out[i] = r.RedactValue(item)
		}
		return out
	default:
		return v
	}
}

// IsSensitiveHeader reports whether a header carries credentials.
func IsSensitiveHeader(name string) bool {
	return sensitiveHeaders[http.CanonicalHeaderKey(name)]
}

// MaskHeaders returns a copy of headers with credential values masked.
func MaskHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if IsSensitiveHeader(k) {
			v = Mask
		}
		out[k] = v
	}
	return out
}
