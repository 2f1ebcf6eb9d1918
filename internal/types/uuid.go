package types

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

const (
	UUID_PREFIX_CUSTOMER = "cust"
	UUID_PREFIX_RECHARGE = "rch"
	UUID_PREFIX_TICKET   = "tkt"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier with a
// prefix, e.g. cust_01HQ3Z...
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}
