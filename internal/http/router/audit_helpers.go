package router

import (
	"net/http"

	"github.com/yxshee/biteback/services/api/internal/auditlog"
	"github.com/yxshee/biteback/services/api/internal/auth"
	"github.com/yxshee/biteback/services/api/internal/logger"
)

// recordAuditLog keeps a trail of staff and owner changes. Customer
// actions are not audited.
func (a *api) recordAuditLog(r *http.Request, action, targetType, targetID string, metadata interface{}) {
	if a.auditLogs == nil {
		return
	}
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || identity.Role == auth.RoleCustomer {
		return
	}

	_, err := a.auditLogs.Record(auditlog.RecordInput{
		ActorID:    identity.UserID,
		ActorRole:  identity.Role.String(),
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   metadata,
	})
	if err != nil {
		logger.FromContext(r.Context()).WithError(err).WithField("action", action).Warn("audit log write failed")
	}
}
