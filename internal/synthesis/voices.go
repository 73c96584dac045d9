package synthesis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/garywelz/copernicus-web-sub000/internal/drafter"
	"github.com/garywelz/copernicus-web-sub000/internal/services"
)

// BindVoices resolves the role-to-voice binding for a script: per-request
// overrides merged over configured defaults. Override values are honored
// verbatim. A script role with no binding is a validation failure.
func BindVoices(script *drafter.Script, overrides, defaults map[string]string) (map[string]string, error) {
	binding := make(map[string]string, len(defaults)+len(overrides))
	for role, voice := range defaults {
		binding[normalizeRole(role)] = strings.TrimSpace(voice)
	}
	for role, voice := range overrides {
		if voice = strings.TrimSpace(voice); voice != "" {
			binding[normalizeRole(role)] = voice
		}
	}

	var missing []string
	for _, role := range script.Roles() {
		if binding[normalizeRole(role)] == "" {
			missing = append(missing, role)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, services.Wrap(services.ErrValidation, "synthesis", "bind voices",
			fmt.Sprintf("No voice bound for roles: %s", strings.Join(missing, ", ")), nil)
	}
	return binding, nil
}

func normalizeRole(role string) string {
	return strings.ToUpper(strings.TrimSpace(role))
}
