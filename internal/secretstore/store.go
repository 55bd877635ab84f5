// Package secretstore manages the coordinator's per-issue credential files:
// schema-versioned JSON documents written atomically and read back with
// strict validation. The read path never raises on a malformed or stale
// document — any rejection collapses to "does not exist", so a caller can
// never be handed a secret this package isn't confident about.
package secretstore

import (
	"os"
	"time"

	"github.com/hansjm10/jeeves-coordinator/internal/atomicfile"
	"github.com/hansjm10/jeeves-coordinator/internal/canonjson"
	"github.com/hansjm10/jeeves-coordinator/internal/coreerr"
)

const schemaVersion = 1

// fileMode is deliberately owner-only: these files hold credentials.
const fileMode = os.FileMode(0o600)

// FieldSpec describes one required string field of a secret variant.
type FieldSpec struct {
	Name     string
	Validate func(value string) error
}

// Spec names a secret variant (used in error messages) and lists its fields.
// Token and Azure variants below are both instances of this one shared
// shape — new variants are added by writing a Spec, not a new type.
type Spec struct {
	Name   string
	Fields []FieldSpec
}

// Store is the shared atomic-JSON-blob capability every secret variant is
// built from; TokenStore and AzureStore are thin typed wrappers around it.
type Store struct {
	path string
	spec Spec
}

// New returns a Store for the given variant rooted at path.
func New(path string, spec Spec) *Store {
	return &Store{path: path, spec: spec}
}

// SecretReadError reports an I/O failure reading a secret file that is NOT
// simply "file does not exist" — e.g. permission denied. Its message is
// never allowed to contain the secret value: a read failure has no
// in-memory secret to leak, since the read never completed successfully.
type SecretReadError struct {
	Path string
	Code string
	Err  error
}

func (e *SecretReadError) Error() string {
	return "secretstore: failed to read " + e.Path + ": " + e.Err.Error()
}

func (e *SecretReadError) Unwrap() error {
	return e.Err
}

// Write validates fields against the variant's spec, stamps updated_at, and
// publishes the record atomically. It never returns a partially written
// file: a validation failure is returned before any file is touched.
func (s *Store) Write(fields map[string]string) (map[string]any, error) {
	for _, f := range s.spec.Fields {
		value, ok := fields[f.Name]
		if !ok || value == "" {
			return nil, coreerr.Validation("SECRET_FIELD_MISSING", f.Name, "", s.spec.Name+" secret requires "+f.Name)
		}
		if f.Validate != nil {
			if err := f.Validate(value); err != nil {
				return nil, coreerr.Validation("SECRET_FIELD_INVALID", f.Name, sanitizedPreview(value), err.Error())
			}
		}
	}

	record := map[string]any{
		"schemaVersion": schemaVersion,
		"updated_at":    time.Now().UTC().Format(time.RFC3339),
	}
	for _, f := range s.spec.Fields {
		record[f.Name] = fields[f.Name]
	}

	data, err := canonjson.Marshal(record)
	if err != nil {
		return nil, coreerr.Schema("SECRET_ENCODE_FAILED", s.spec.Name+" secret could not be encoded")
	}

	if err := atomicfile.Write(s.path, data, fileMode); err != nil {
		return nil, err
	}
	return record, nil
}

// Read returns (record, true, nil) when a well-formed secret exists,
// (nil, false, nil) when it is absent or fails any validation check, and
// (nil, false, err) only for an I/O error distinct from "not found". This
// mirrors the spec's "any rejection collapses to {exists:false}" rule: a
// caller can distinguish "definitely no secret" from "could not check".
func (s *Store) Read() (map[string]any, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, &SecretReadError{Path: s.path, Code: "SECRET_READ_FAILED", Err: err}
	}

	record, ok := decode(data)
	if !ok {
		return nil, false, nil
	}

	version, ok := record["schemaVersion"].(float64)
	if !ok || int(version) != schemaVersion {
		return nil, false, nil
	}

	updatedAt, ok := record["updated_at"].(string)
	if !ok {
		return nil, false, nil
	}
	if _, err := time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, false, nil
	}

	for _, f := range s.spec.Fields {
		value, ok := record[f.Name].(string)
		if !ok || value == "" {
			return nil, false, nil
		}
		if f.Validate != nil {
			if err := f.Validate(value); err != nil {
				return nil, false, nil
			}
		}
	}

	return record, true, nil
}

// Has reports whether a well-formed secret exists, without returning its
// contents.
func (s *Store) Has() (bool, error) {
	_, exists, err := s.Read()
	return exists, err
}

// Delete removes the secret file and any orphaned temp sibling. Deleting an
// already-absent secret is not an error.
func (s *Store) Delete() error {
	return atomicfile.ReapTemps(s.path)
}

func sanitizedPreview(value string) string {
	if len(value) <= 4 {
		return "[REDACTED]"
	}
	return value[:2] + "…[REDACTED]"
}
