package workflow

import (
	"context"
	"fmt"
	"path"

	"github.com/rs/zerolog/log"

	"github.com/draftpress/draftpress/internal/store"
)

// FileStore is the slice of the repository client the updater needs.
type FileStore interface {
	GetFile(ctx context.Context, path string) (store.File, error)
	PutFile(ctx context.Context, path, message string, content []byte, sha string) (string, error)
	DispatchWorkflow(ctx context.Context, workflowFile, ref string) error
}

// Updater rewrites and dispatches a single workflow file.
type Updater struct {
	files FileStore
	file  string
	ref   string
}

// NewUpdater builds an Updater for the given workflow file name (for
// example "daily-publish.yml") on ref.
func NewUpdater(files FileStore, workflowFile, ref string) *Updater {
	return &Updater{files: files, file: workflowFile, ref: ref}
}

// SyncSchedule rewrites the workflow's schedule block to the given
// cron expressions. It is a no-op when the file already matches.
func (u *Updater) SyncSchedule(ctx context.Context, exprs []string) error {
	filePath := path.Join(".github/workflows", u.file)

	file, err := u.files.GetFile(ctx, filePath)
	if err != nil {
		return fmt.Errorf("workflow: read %s: %w", filePath, err)
	}

	current, err := ScheduleExpressions(file.Content)
	if err != nil {
		return err
	}
	if equalExprs(current, exprs) {
		log.Debug().Str("file", u.file).Msg("workflow schedule already up to date")
		return nil
	}

	updated, err := ReplaceScheduleBlock(file.Content, exprs)
	if err != nil {
		return err
	}
	if _, err := u.files.PutFile(ctx, filePath, "Update publish schedule", updated, file.SHA); err != nil {
		return fmt.Errorf("workflow: write %s: %w", filePath, err)
	}
	log.Info().Str("file", u.file).Strs("cron", exprs).Msg("workflow schedule updated")
	return nil
}

// Trigger fires a manual run of the workflow.
func (u *Updater) Trigger(ctx context.Context) error {
	return u.files.DispatchWorkflow(ctx, u.file, u.ref)
}

func equalExprs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
