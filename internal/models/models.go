// Package models defines the data structures used for API responses and file persistence.
package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Realm is the canonical aggregated record assembled from the invite
// resolution, the live server ping and the owner identity lookups.
// Every field is always present in the serialized form; values missing
// upstream are normalized to empty strings, zeros or explicit nulls.
type Realm struct {
	ID                   string       `json:"id"`
	IP                   string       `json:"ip"`
	Port                 int          `json:"port"`
	RemoteSubscriptionID *string      `json:"remoteSubscriptionId"`
	OwnerUUID            string       `json:"ownerUUID"`
	Name                 string       `json:"name"`
	MOTD                 string       `json:"motd"`
	DefaultPermission    string       `json:"defaultPermission"`
	State                string       `json:"state"`
	DaysLeft             int          `json:"daysLeft"`
	Expired              bool         `json:"expired"`
	ExpiredTrial         bool         `json:"expiredTrial"`
	GracePeriod          bool         `json:"gracePeriod"`
	WorldType            string       `json:"worldType"`
	MaxPlayers           int          `json:"maxPlayers"`
	ClubID               string       `json:"clubId"`
	Member               []string     `json:"member"`
	Invite               Invite       `json:"invite"`
	Server               ServerStatus `json:"server"`
	ThumbnailID          *string      `json:"thumbnailId"`
	MinigameName         *string      `json:"minigameName"`
	MinigameID           *string      `json:"minigameId"`
	MinigameImage        *string      `json:"minigameImage"`
	Owner                Owner        `json:"owner"`
	Club                 Club         `json:"club"`
	RequestID            string       `json:"request_id"`
}

// RealmStub is the minimal record returned for codes that are already
// realm identifiers (length 8). No upstream calls or persistence happen
// for these.
type RealmStub struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Invite describes how the realm was reached.
type Invite struct {
	Code      string `json:"code"`
	OwnerXUID string `json:"ownerxuid"`
	CodeURL   string `json:"codeurl"`
}

// ServerStatus is the live state of the realm server taken from a ping.
// Invalid is set when no live status could be obtained; the remaining
// fields then carry their documented defaults.
type ServerStatus struct {
	MOTD          string `json:"motd"`
	LevelName     string `json:"levelName"`
	PlayersOnline int    `json:"playersOnline"`
	MaxPlayers    int    `json:"maxPlayers"`
	Gamemode      string `json:"gamemode"`
	GamemodeID    int    `json:"gamemodeId"`
	Version       string `json:"version"`
	Protocol      string `json:"protocol"`
	CountryCode   string `json:"countryCode"`
	Invalid       bool   `json:"invalid"`
}

// DefaultServerStatus returns the ServerStatus used when the realm is
// closed or the ping failed.
func DefaultServerStatus() ServerStatus {
	return ServerStatus{
		Gamemode: "Unknown",
		Protocol: "0",
		Invalid:  true,
	}
}

// Owner is the realm owner's profile summary.
type Owner struct {
	XUID          string `json:"xuid"`
	DisplayName   string `json:"displayName"`
	Gamertag      string `json:"gamertag"`
	GamerScore    int    `json:"gamerScore"`
	PresenceState string `json:"presenceState"`
	PresenceText  string `json:"presenceText"`
}

// Club is the social group summary associated with the realm.
type Club struct {
	ID                 string   `json:"id"`
	Tags               []string `json:"tags"`
	PreferredColor     string   `json:"preferredColor"`
	MembersCount       int      `json:"membersCount"`
	FollowersCount     int      `json:"followersCount"`
	ReportCount        int      `json:"reportCount"`
	ReportedItemsCount int      `json:"reportedItemsCount"`
}

// Descriptor is the realm metadata known to the invite-resolution
// provider, before any live status or identity enrichment.
type Descriptor struct {
	ID                   string
	RemoteSubscriptionID string
	OwnerUUID            string
	Name                 string
	MOTD                 string
	DefaultPermission    string
	State                string
	DaysLeft             int
	Expired              bool
	ExpiredTrial         bool
	GracePeriod          bool
	WorldType            string
	MaxPlayers           int
	ClubID               string
	Member               []string
	ThumbnailID          string
	MinigameName         string
	MinigameID           string
	MinigameImage        string
}

// StateClosed is the descriptor state for realms that are not reachable;
// the state set is owned by the upstream and otherwise treated as opaque.
const StateClosed = "CLOSED"

// FlexInt decodes JSON values that may arrive as a number, a quoted
// number or null. Unparseable values decode to zero.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		*f = 0
		return nil //nolint:nilerr // coercion failure degrades to zero
	}

	*f = FlexInt(n)
	return nil
}

// MarshalJSON implements json.Marshaler, always emitting a number.
func (f FlexInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(f))
}

// Person is one entry of the people document returned by the profile provider.
type Person struct {
	XUID          string  `json:"xuid"`
	DisplayName   string  `json:"displayName"`
	Gamertag      string  `json:"gamertag"`
	GamerScore    FlexInt `json:"gamerScore"`
	PresenceState string  `json:"presenceState"`
	PresenceText  string  `json:"presenceText"`
}

// PeopleDocument is the raw people lookup result. This exact shape is
// what gets persisted by the profile fetch path.
type PeopleDocument struct {
	People []Person `json:"people"`
}

// ClubInfo is one entry of the clubs document returned by the club provider.
type ClubInfo struct {
	ID                 string   `json:"id"`
	Tags               []string `json:"tags"`
	PreferredColor     string   `json:"preferredColor"`
	MembersCount       int      `json:"membersCount"`
	FollowersCount     int      `json:"followersCount"`
	ReportCount        int      `json:"reportCount"`
	ReportedItemsCount int      `json:"reportedItemsCount"`
}

// ClubsDocument is the raw club lookup result.
type ClubsDocument struct {
	Clubs []ClubInfo `json:"clubs"`
}

// ProfileResponse is the people document augmented with request metadata.
// Only the HTTP response carries these two fields; the persisted record
// is the raw document.
type ProfileResponse struct {
	PeopleDocument
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// AggregationError reports a failed realm lookup. It is returned as a
// regular payload with success framing at the transport layer.
type AggregationError struct {
	Name      bool   `json:"name"`
	RealmCode string `json:"realmCode"`
	Valid     bool   `json:"valid"`
	Error     string `json:"error"`
}

// ProfileError reports a failed profile lookup.
type ProfileError struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
	Message   string `json:"message"`
}

// APIError is the generic error body for unmatched routes and handler faults.
type APIError struct {
	ErrorCode int    `json:"error_code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}
