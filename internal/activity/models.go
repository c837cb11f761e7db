package activity

// StorageKey is the shared-store key the activity log lives under.
const StorageKey = "user-activities"

// Module identifies the dashboard area an action happened in.
type Module string

const (
	ModuleAuth    Module = "authentication"
	ModuleReports Module = "reports"
	ModuleUsers   Module = "users"
	ModuleRisks   Module = "risk-assessment"
	ModuleDPR     Module = "dpr"
	ModuleAdmin   Module = "admin"
	ModuleSystem  Module = "system"
)

// Record is one append-only audit-log entry describing a user action.
// User is a free-text identifier (email, name or id — the caller's
// choice, no referential integrity). IP is best-effort only: it holds
// the runtime's hostname, not a real client address.
type Record struct {
	ID        int64  `json:"id"`
	User      string `json:"user"`
	Action    string `json:"action"`
	Details   string `json:"details"`
	Timestamp int64  `json:"timestamp"`
	Module    Module `json:"module"`
	IP        string `json:"ip,omitempty"`
}
