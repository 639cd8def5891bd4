// Package identity generates and parses station identifiers. Stations mint
// their own ids in the field with no registry to ask, so uniqueness comes
// from the org code, the date and a random tail rather than coordination.
package identity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Profile describes one deployable station type.
type Profile struct {
	Type   string
	Prefix string
	Name   string
}

// ProfileUnknown marks a parseable id whose prefix no current profile claims.
// Old media still carry ids from retired station types; parsing keeps working
// so their packages stay importable.
const ProfileUnknown = "unknown"

var profiles = map[string]Profile{
	"health_center":    {Type: "HEALTH_CENTER", Prefix: "HC", Name: "Health Center"},
	"surgical_station": {Type: "SURGICAL_STATION", Prefix: "BORP", Name: "Backup Operating Room Point"},
	"logistics_hub":    {Type: "LOGISTICS_HUB", Prefix: "LOG", Name: "Logistics Hub"},
	"hospital_custom":  {Type: "HOSPITAL", Prefix: "HOSP", Name: "Hospital Custom"},
}

var byPrefix = func() map[string]Profile {
	m := make(map[string]Profile, len(profiles))
	for _, p := range profiles {
		m[p.Prefix] = p
	}
	return m
}()

// StationID is a parsed identifier. Modern ids are PREFIX-ORG-YYMMDD-XXXX;
// Legacy is set for the older PREFIX-ORG-NUMBER form still found on early
// deployments.
type StationID struct {
	Prefix    string
	OrgCode   string
	Timestamp string
	UniqueID  string
	Profile   string
	Legacy    bool
	Number    string
}

// Generate mints a new station id for the given profile key and org code.
func Generate(stationType, orgCode string) (string, error) {
	p, ok := profiles[stationType]
	if !ok {
		return "", fmt.Errorf("unknown station type %q", stationType)
	}
	if orgCode == "" {
		return "", fmt.Errorf("org code is required")
	}
	ts := time.Now().Format("060102")
	tail := uuid.NewString()[:4]
	return fmt.Sprintf("%s-%s-%s-%s", p.Prefix, orgCode, ts, tail), nil
}

// Parse splits a station id into its parts. Both the modern four-part and
// the legacy three-part forms are accepted; anything else is an error.
func Parse(stationID string) (*StationID, error) {
	parts := strings.Split(stationID, "-")
	switch len(parts) {
	case 4:
		id := &StationID{
			Prefix:    parts[0],
			OrgCode:   parts[1],
			Timestamp: parts[2],
			UniqueID:  parts[3],
			Profile:   ProfileUnknown,
		}
		if p, ok := byPrefix[id.Prefix]; ok {
			id.Profile = p.Type
		}
		return id, nil
	case 3:
		id := &StationID{
			Prefix:  parts[0],
			OrgCode: parts[1],
			Number:  parts[2],
			Profile: ProfileUnknown,
			Legacy:  true,
		}
		if p, ok := byPrefix[id.Prefix]; ok {
			id.Profile = p.Type
		}
		return id, nil
	default:
		return nil, fmt.Errorf("malformed station id %q", stationID)
	}
}

// Validate reports whether stationID parses and carries a known prefix.
func Validate(stationID string) bool {
	id, err := Parse(stationID)
	if err != nil {
		return false
	}
	_, ok := byPrefix[id.Prefix]
	return ok
}

// DisplayName renders a human label for a station: the id followed by the
// custom name, or the profile name when none was given. Unparseable ids come
// back bare rather than failing since display is best effort.
func DisplayName(stationID, customName string) string {
	if customName != "" {
		return fmt.Sprintf("%s %s", stationID, customName)
	}
	id, err := Parse(stationID)
	if err != nil {
		return stationID
	}
	if p, ok := byPrefix[id.Prefix]; ok {
		return fmt.Sprintf("%s %s", stationID, p.Name)
	}
	return stationID
}
