// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"strconv"

	activitystore "github.com/devweekends/clanverify/internal/app/store/activity"
	"github.com/devweekends/clanverify/internal/domain/models"
	"go.uber.org/zap"
)

// Admin action names recorded in the activity log.
const (
	ActionCSVUpload        = "CSV_UPLOAD"
	ActionMenteeCreate     = "MENTEE_CREATE"
	ActionMenteeUpdate     = "MENTEE_UPDATE"
	ActionMenteeDelete     = "MENTEE_DELETE"
	ActionMenteeBulkDelete = "MENTEE_BULK_DELETE"
	ActionMenteeClearAll   = "MENTEE_CLEAR_ALL"
	ActionMenteeUnlink     = "MENTEE_UNLINK"
	ActionClanCreate       = "CLAN_CREATE"
	ActionClanUpdate       = "CLAN_UPDATE"
	ActionClanDelete       = "CLAN_DELETE"
	ActionClanMerge        = "CLAN_MERGE"
	ActionConfigUpdate     = "CONFIG_UPDATE"
	ActionMessageDeploy    = "MESSAGE_DEPLOY"
	ActionRoleSync         = "ROLE_SYNC"
)

// Actions lists every recorded action name.
var Actions = []string{
	ActionCSVUpload,
	ActionMenteeCreate,
	ActionMenteeUpdate,
	ActionMenteeDelete,
	ActionMenteeBulkDelete,
	ActionMenteeClearAll,
	ActionMenteeUnlink,
	ActionClanCreate,
	ActionClanUpdate,
	ActionClanDelete,
	ActionClanMerge,
	ActionConfigUpdate,
	ActionMessageDeploy,
	ActionRoleSync,
}

// IsAction reports whether a is a recorded action name.
func IsAction(a string) bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// Config holds audit logging configuration.
type Config struct {
	// Admin controls logging for admin actions.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Admin string
}

// Actor identifies the admin performing an action.
type Actor struct {
	ID   string
	Name string
}

// Logger records admin actions to the activity_logs collection and zap.
type Logger struct {
	store  *activitystore.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *activitystore.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(e models.ActivityLog) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("action", e.Action),
		zap.String("admin_id", e.AdminID),
		zap.String("admin_name", e.AdminName),
	}
	if e.TargetID != "" {
		fields = append(fields, zap.String("target_id", e.TargetID))
	}
	for k, v := range e.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}
	l.zapLog.Info("admin action", fields...)
}

// Log records an admin action based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, actor Actor, action, targetID string, details map[string]string) {
	if l == nil {
		return
	}
	setting := l.config.Admin
	if setting == "" {
		setting = "all"
	}
	if setting == "off" {
		return
	}

	name := actor.Name
	if name == "" {
		name = "Admin"
	}
	e := models.ActivityLog{
		Action:    action,
		AdminID:   actor.ID,
		AdminName: name,
		TargetID:  targetID,
		Details:   details,
	}

	if setting == "all" || setting == "log" {
		l.logToZap(e)
	}
	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Create(ctx, e); err != nil {
			l.zapLog.Error("failed to store activity log",
				zap.Error(err),
				zap.String("action", action))
		}
	}
}

// --- Mentee actions ---

func (l *Logger) CSVUpload(ctx context.Context, actor Actor, filename string, imported, skipped int) {
	l.Log(ctx, actor, ActionCSVUpload, "", map[string]string{
		"filename": filename,
		"imported": strconv.Itoa(imported),
		"skipped":  strconv.Itoa(skipped),
	})
}

func (l *Logger) MenteeCreated(ctx context.Context, actor Actor, menteeID, email string) {
	l.Log(ctx, actor, ActionMenteeCreate, menteeID, map[string]string{"email": email})
}

func (l *Logger) MenteeUpdated(ctx context.Context, actor Actor, menteeID, email string) {
	l.Log(ctx, actor, ActionMenteeUpdate, menteeID, map[string]string{"email": email})
}

func (l *Logger) MenteeDeleted(ctx context.Context, actor Actor, menteeID, email string) {
	l.Log(ctx, actor, ActionMenteeDelete, menteeID, map[string]string{"email": email})
}

func (l *Logger) MenteesBulkDeleted(ctx context.Context, actor Actor, count int64) {
	l.Log(ctx, actor, ActionMenteeBulkDelete, "", map[string]string{"count": strconv.FormatInt(count, 10)})
}

func (l *Logger) MenteesCleared(ctx context.Context, actor Actor, count int64) {
	l.Log(ctx, actor, ActionMenteeClearAll, "", map[string]string{"count": strconv.FormatInt(count, 10)})
}

func (l *Logger) MenteeUnlinked(ctx context.Context, actor Actor, menteeID, email, discordID string) {
	l.Log(ctx, actor, ActionMenteeUnlink, menteeID, map[string]string{
		"email":      email,
		"discord_id": discordID,
	})
}

// --- Clan actions ---

func (l *Logger) ClanCreated(ctx context.Context, actor Actor, clanID, name string) {
	l.Log(ctx, actor, ActionClanCreate, clanID, map[string]string{"name": name})
}

func (l *Logger) ClanUpdated(ctx context.Context, actor Actor, clanID, name string, relabeled int64) {
	l.Log(ctx, actor, ActionClanUpdate, clanID, map[string]string{
		"name":      name,
		"relabeled": strconv.FormatInt(relabeled, 10),
	})
}

func (l *Logger) ClanDeleted(ctx context.Context, actor Actor, clanID, name string, roleDeleted bool) {
	l.Log(ctx, actor, ActionClanDelete, clanID, map[string]string{
		"name":         name,
		"role_deleted": strconv.FormatBool(roleDeleted),
	})
}

func (l *Logger) ClanMerged(ctx context.Context, actor Actor, sourceID, sourceName, targetID, targetName string, mentees, requests int64) {
	l.Log(ctx, actor, ActionClanMerge, targetID, map[string]string{
		"source_id":   sourceID,
		"source_name": sourceName,
		"target_name": targetName,
		"mentees":     strconv.FormatInt(mentees, 10),
		"requests":    strconv.FormatInt(requests, 10),
	})
}

// --- Configuration actions ---

func (l *Logger) ConfigUpdated(ctx context.Context, actor Actor) {
	l.Log(ctx, actor, ActionConfigUpdate, "", nil)
}

func (l *Logger) MessageDeployed(ctx context.Context, actor Actor, channelID, messageID string) {
	l.Log(ctx, actor, ActionMessageDeploy, messageID, map[string]string{"channel_id": channelID})
}

func (l *Logger) RolesSynced(ctx context.Context, actor Actor, added, removed, restored int) {
	l.Log(ctx, actor, ActionRoleSync, "", map[string]string{
		"main_added":    strconv.Itoa(added),
		"main_removed":  strconv.Itoa(removed),
		"clan_restored": strconv.Itoa(restored),
	})
}
