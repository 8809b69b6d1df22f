package credits

import (
	"context"

	"github.com/google/uuid"
)

// RedisRepository keeps the low-balance warning markers so a warning fires
// once per org per period even across worker restarts.
type RedisRepository interface {
	MarkWarned(ctx context.Context, orgID uuid.UUID, period string) (bool, error)
}
