// Package model defines the persisted record types of the archive store.
// All records are serialized as JSON: single documents for config and
// counters, one record per line (JSONL) for entries, vaults and logs.
package model

// ItemStatus is the lifecycle state of an archive entry.
type ItemStatus string

const (
	// ItemArchived means the object lives in its slot under the store.
	ItemArchived ItemStatus = "archived"
	// ItemRestored means the object has been moved back to its origin
	// and the slot no longer exists.
	ItemRestored ItemStatus = "restored"
)

// Valid reports whether s is a known item status.
func (s ItemStatus) Valid() bool {
	return s == ItemArchived || s == ItemRestored
}

// VaultStatus is the lifecycle state of a vault.
type VaultStatus string

const (
	// VaultValid is a normal, usable vault.
	VaultValid VaultStatus = "valid"
	// VaultRemoved is a soft-deleted vault. Its name may be reused and
	// it can be recovered later.
	VaultRemoved VaultStatus = "removed"
	// VaultProtected is reserved for the default vault (id 0). It is
	// terminal: a protected vault can never be removed or renamed.
	VaultProtected VaultStatus = "protected"
)

// Valid reports whether s is a known vault status.
func (s VaultStatus) Valid() bool {
	return s == VaultValid || s == VaultRemoved || s == VaultProtected
}

// DefaultVaultID is the id of the implicit default vault.
const DefaultVaultID int64 = 0

// DefaultVaultName is the reserved name of the default vault. User
// vaults may not take this name.
const DefaultVaultName = "default"

// Entry describes one archived object: where it came from, which vault
// holds it, and whether it currently occupies a slot.
type Entry struct {
	ID         int64      `json:"id"`
	VaultID    int64      `json:"vaultId"`
	Item       string     `json:"item"`      // original base name
	Directory  string     `json:"directory"` // absolute path of the original parent
	Status     ItemStatus `json:"status"`
	IsDir      bool       `json:"isDir"`
	ArchivedAt string     `json:"archivedAt"` // RFC3339
	Message    string     `json:"message,omitempty"`
	Remark     string     `json:"remark,omitempty"`
}

// Vault is a named grouping of archive entries.
type Vault struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Remark    string      `json:"remark,omitempty"`
	CreatedAt string      `json:"createdAt"` // RFC3339
	Status    VaultStatus `json:"status"`
}

// Protected reports whether v is the permanent default vault.
func (v *Vault) Protected() bool {
	return v.Status == VaultProtected
}

// Active reports whether v can hold new archives.
func (v *Vault) Active() bool {
	return v.Status == VaultValid || v.Status == VaultProtected
}

// Counters holds the three persisted monotonic id sources. Each counter
// is always >= the maximum id ever issued for its record set; the
// counters document is flushed before the record consuming a new id.
type Counters struct {
	ArchiveID int64 `json:"archiveId"`
	VaultID   int64 `json:"vaultId"`
	LogID     int64 `json:"logId"`
}

// UpdateCheckConfig is the persisted update-check policy. The network
// client that acts on it lives outside this repository; the engine only
// carries the settings.
type UpdateCheckConfig struct {
	Enabled     bool   `json:"enabled"`
	LastChecked string `json:"lastChecked,omitempty"` // RFC3339
}

// UIConfig holds display preferences consumed by the CLI boundary.
type UIConfig struct {
	Plain    bool `json:"plain,omitempty"`
	PageSize int  `json:"pageSize,omitempty"`
}

// Config is the store-wide mutable settings document. It is read at
// startup and rewritten whole on any change.
type Config struct {
	CurrentVaultID int64             `json:"currentVaultId"`
	UpdateCheck    UpdateCheckConfig `json:"updateCheck"`
	Aliases        map[string]string `json:"aliases,omitempty"` // vault name -> display alias
	UI             UIConfig          `json:"ui"`
}

// LogLevel classifies an audit record.
type LogLevel string

const (
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
	LevelFatal LogLevel = "FATAL"
)

// Operation describes the command invocation that produced an audit
// record: command name, sub-action, positional args, flag values, and a
// per-invocation source id shared by all records of one process run.
type Operation struct {
	Command string            `json:"command"`
	Action  string            `json:"action,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Options map[string]string `json:"options,omitempty"`
	Source  string            `json:"source,omitempty"`
}

// Refs optionally links an audit record back to the archive entry
// and/or vault an operation touched. Zero means no link.
type Refs struct {
	ArchiveID int64
	VaultID   int64
}

// LogEntry is one immutable audit record. Records are append-only and
// never rewritten after the fact.
type LogEntry struct {
	ID        int64     `json:"id"`
	Time      string    `json:"time"` // RFC3339
	Level     LogLevel  `json:"level"`
	Operation Operation `json:"operation"`
	Message   string    `json:"message,omitempty"`
	ArchiveID int64     `json:"archiveId,omitempty"`
	VaultID   int64     `json:"vaultId,omitempty"`
}
