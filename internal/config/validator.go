// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals the merged Koanf tree into a `Config` instance.  Any tag
// mismatch or validation error aborts startup, ensuring the binary never
// runs with partial, malformed, or missing configuration.
//
// Field rules live in struct tags (model.go).  Rules that span fields, such
// as "the redis block must be filled when backend is redis", are registered
// here as struct-level validations.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.

package config

import "github.com/go-playground/validator/v10"

//
// validator instance (package-level singleton)
//

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	val.RegisterStructValidation(storeRules, Store{})
	return val
}

//
// struct-level rules
//

// storeRules requires the settings of the selected backend only.
func storeRules(sl validator.StructLevel) {
	s := sl.Current().Interface().(Store)
	switch s.Backend {
	case "redis":
		if s.Redis.Addr == "" {
			sl.ReportError(s.Redis.Addr, "Redis.Addr", "Addr", "required_for_backend", "redis")
		}
	case "sql":
		if s.SQL.Driver != "mysql" && s.SQL.Driver != "postgres" {
			sl.ReportError(s.SQL.Driver, "SQL.Driver", "Driver", "oneof", "mysql postgres")
		}
		if s.SQL.DSN == "" {
			sl.ReportError(s.SQL.DSN, "SQL.DSN", "DSN", "required_for_backend", "sql")
		}
	}
}

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
