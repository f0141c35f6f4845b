package audit

import (
	"context"
	"log/slog"
)

// LogRepo appends events to a dedicated structured log stream. Shipping and
// retention belong to the log pipeline; requests never pay for an extra store call.
type LogRepo struct {
	log *slog.Logger
}

func NewLogRepo(l *slog.Logger) *LogRepo {
	if l == nil {
		l = slog.Default()
	}
	return &LogRepo{log: l.With("stream", "audit")}
}

func (r *LogRepo) Append(ctx context.Context, e Event) error {
	r.log.LogAttrs(ctx, slog.LevelInfo, "audit event",
		slog.String("audit_id", e.ID),
		slog.String("type", string(e.Type)),
		slog.String("function", e.Function),
		slog.String("command", e.Command),
		slog.String("actor_role", e.ActorRole),
		slog.String("on_behalf_of", e.OnBehalfOf),
		slog.String("ip_address", e.IPAddress),
		slog.Int("status", e.Status),
		slog.Time("created_at", e.CreatedAt),
	)
	return nil
}
