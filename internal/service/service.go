// Package service provides the business logic layer for library
// reconciliation, catalog search, social features, auth, and statistics.
package service

import (
	"github.com/readingroomapp/readingroom-server/internal/validation"
)

// validate is the shared request validator for all services.
var validate = validation.New()
