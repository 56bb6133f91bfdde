package models

import "github.com/google/uuid"

// ensureID assigns a fresh UUID when the row has none yet. Postgres also
// defaults ids with gen_random_uuid(); sqlite relies on this hook.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
