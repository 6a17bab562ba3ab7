package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"iris-server/internal/models"
	"iris-server/pkg/apperrors"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
)

// ActivityTracker records audit entries. Implementations must not block on
// or fail the caller.
type ActivityTracker interface {
	Track(ctx context.Context, activity models.Activity)
}

// CaseNotifier pushes case-obj-notif events to the case room, skipping the
// connection identified by excludeSID.
type CaseNotifier interface {
	NotifyCaseObject(caseID int64, notification models.CaseObjectNotification, excludeSID string)
}

type PermissionChecker interface {
	HasPermission(ctx context.Context, user *models.User, perm models.Permission) (bool, error)
}

type NopTracker struct{}

func (NopTracker) Track(context.Context, models.Activity) {}

type NopNotifier struct{}

func (NopNotifier) NotifyCaseObject(int64, models.CaseObjectNotification, string) {}

func track(ctx context.Context, tracker ActivityTracker, actor *models.User, caseID int64, format string, args ...interface{}) {
	if tracker == nil || actor == nil {
		return
	}
	tracker.Track(ctx, models.Activity{
		UserID:   actor.ID,
		Username: actor.Username,
		CaseID:   caseID,
		Message:  fmt.Sprintf(format, args...),
	})
}

func notify(notifier CaseNotifier, caseID int64, action models.ObjectAction, objectType, objectID string, data interface{}, excludeSID string) {
	if notifier == nil {
		return
	}
	notifier.NotifyCaseObject(caseID, models.CaseObjectNotification{
		ObjectID:   objectID,
		ActionType: action,
		ObjectType: objectType,
		ObjectData: data,
	}, excludeSID)
}

// notFound converts a missing document into the named not-found error and
// passes every other error through.
func notFound(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperrors.NotFound(what)
	}
	return err
}

func caseLabel(caseID int64) string {
	return "case #" + strconv.FormatInt(caseID, 10)
}

func logIgnored(err error, msg string) {
	if err != nil {
		log.Warn().Err(err).Msg(msg)
	}
}
