package audit

import (
	"context"

	"github.com/driftchat/realtime/pkg/log"
)

// Audit actions for the realtime gateway.
const (
	ActionConnect       = "gateway.connect"
	ActionAuthFailed    = "gateway.auth_failed"
	ActionJoin          = "gateway.join_conversation"
	ActionLeave         = "gateway.leave_conversation"
	ActionSendMessage   = "gateway.send_message"
	ActionDisconnect    = "gateway.disconnect"
	ActionFriendRequest = "friends.request"
	ActionFriendAccept  = "friends.accept"
	ActionFriendReject  = "friends.reject"
	ActionUpload        = "media.upload"
)

const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, userID string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Msg(msg)
}

// LogWithDetail emits an audit log with an extra detail field.
func LogWithDetail(ctx context.Context, action string, userID string, detail string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldDetail, detail).
		Msg(msg)
}
