package recommend

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/hyperengineering/waypoint/internal/types"
)

// fingerprint derives a deterministic cache key from the parts of a
// recommendation context that influence the result: the normalized
// query, primary action, first two referenced integrations, skill
// level, up to five connected services (sorted), and the preference
// flags. Contexts differing only in fields outside this set share a
// cache entry.
func fingerprint(rc *types.RecommendationContext) string {
	var b strings.Builder

	b.WriteString(strings.ToLower(strings.TrimSpace(rc.Intent.NormalizedQuery)))
	b.WriteByte('|')
	b.WriteString(strings.ToLower(rc.Intent.Primary.Action))
	b.WriteByte('|')

	integrations := rc.Intent.Entities.Integrations
	if len(integrations) > 2 {
		integrations = integrations[:2]
	}
	for _, integration := range integrations {
		b.WriteString(strings.ToLower(integration))
		b.WriteByte(',')
	}
	b.WriteByte('|')

	b.WriteString(string(rc.Profile.SkillLevel))
	b.WriteByte('|')

	services := append([]string(nil), rc.Profile.ConnectedServices...)
	sort.Strings(services)
	if len(services) > 5 {
		services = services[:5]
	}
	for _, service := range services {
		b.WriteString(strings.ToLower(service))
		b.WriteByte(',')
	}
	b.WriteByte('|')

	b.WriteString(fmt.Sprintf("%t:%t:%t:%d:%t:%t",
		rc.Prefs.PrioritizeSimplicity,
		rc.Prefs.FavorPopularity,
		rc.Prefs.IncludeExperimental,
		rc.Prefs.MaxSetupMinutes,
		rc.Prefs.RequireDocumentation,
		rc.Prefs.AvoidPremium,
	))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
