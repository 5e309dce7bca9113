package refcache

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches every *ConfigError through errors.Is.
	ErrConfiguration = errors.New("refcache: configuration error")
	// ErrMutationRejected matches every *MutationError through errors.Is.
	ErrMutationRejected = errors.New("refcache: mutation rejected")
	// ErrUnknownAccessor is returned when an accessor or predicate name is not
	// defined for the loaded row set.
	ErrUnknownAccessor = errors.New("refcache: unknown accessor")
	// ErrReloadDuringLoad is returned when ForceReload or Reload is called
	// from the call chain of a running load of the same cache.
	ErrReloadDuringLoad = errors.New("refcache: reload requested from inside a load")
)

// ConfigError reports a misconfigured reference data type, such as two codes
// or synonyms folding to the same accessor name.
type ConfigError struct {
	Type    string
	Name    string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Name == "" {
		return "refcache: config error in " + e.Type + ": " + e.Message
	}
	return "refcache: config error in " + e.Type + " for " + e.Name + ": " + e.Message
}

// Is lets errors.Is(err, ErrConfiguration) match.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// Operation names a rejected write.
type Operation string

const (
	// OpCreate covers creates, upserts and get-or-create.
	OpCreate Operation = "create"
	// OpDelete covers soft and hard deletes.
	OpDelete Operation = "delete"
	// OpChangeCode is an update that alters the stored code.
	OpChangeCode Operation = "change code"
)

// MutationError is returned when the application attempts to create, delete
// or re-code a reference data row.
type MutationError struct {
	Op   Operation
	Type string
	Code string
}

// Error implements the error interface.
func (e *MutationError) Error() string {
	subject := e.Type + " rows"
	if e.Code != "" {
		subject = fmt.Sprintf("%s row %q", e.Type, e.Code)
	}
	switch e.Op {
	case OpCreate:
		return subject + " cannot be created through the application: " +
			"create it in the database and reload the cache instead"
	case OpDelete:
		return subject + " cannot be deleted through the application: " +
			"delete it in the database and reload the cache instead"
	case OpChangeCode:
		return subject + " cannot change code through the application: " +
			"change it in the database and reload the cache instead"
	default:
		return fmt.Sprintf("%s cannot be modified through the application (%s)", subject, e.Op)
	}
}

// Is lets errors.Is(err, ErrMutationRejected) match.
func (e *MutationError) Is(target error) bool {
	return target == ErrMutationRejected
}
