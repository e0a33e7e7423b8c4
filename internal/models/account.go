package models

import "time"

// ProviderKind selects one of the supported cloud vendors. The set is closed;
// an account is bound to a kind at configuration time.
type ProviderKind string

const (
	ProviderAWS   ProviderKind = "aws"
	ProviderAzure ProviderKind = "azure"
	ProviderGCP   ProviderKind = "gcp"
)

// CloudAccount is a tenant-scoped cloud account registration. CredentialBlob
// is opaque ciphertext; plaintext credentials never leave the credentials
// collaborator.
type CloudAccount struct {
	TenantID       string
	AccountID      string
	Provider       ProviderKind
	Name           string
	CredentialBlob string
	LastSyncedAt   *time.Time
}

// CollectionResult is the stable, provider-agnostic outcome of one collection
// run. Failures are reported through Success and Errors; collection never
// panics or propagates adapter errors to the caller.
type CollectionResult struct {
	Success         bool
	RecordsObtained int
	RecordsSaved    int
	ExecutionTimeMs int64
	Errors          []string
}
