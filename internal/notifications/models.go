package notifications

// StorageKey is the shared-store key the notification list lives under.
const StorageKey = "admin-notifications"

// Record is a single admin-facing notification. The Time string is a
// relative description computed once at creation ("5 minutes ago") and
// never refreshed, so it goes stale as real time passes.
type Record struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
	Time string `json:"time"`
	Read bool   `json:"read"`
}
