package database

import (
	"log"
	"strings"

	"github.com/gocql/gocql"

	"gomatch/app/models"
)

// Archive writes ended matches and feedback rows to Cassandra. Writes are
// append-only and best effort: a failed insert is logged and dropped, the
// in-memory engine state is never rolled back.
type Archive struct {
	session *gocql.Session
}

// NewArchive creates a new archive backed by the given session. A nil
// session yields a disabled archive whose writes are no-ops.
func NewArchive(session *gocql.Session) *Archive {
	return &Archive{session: session}
}

// ArchiveMatch persists an ended match record
func (a *Archive) ArchiveMatch(m *models.Match) {
	if a.session == nil {
		return
	}

	err := a.session.Query(`
		INSERT INTO matches (id, mode, strict_key, user_a_id, user_b_id, status, created_at, ended_at, ended_by, end_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Mode, m.StrictKey, m.UserAID, m.UserBID, m.Status, m.CreatedAt, m.EndedAt, m.EndedBy, m.EndReason).Exec()
	if err != nil {
		log.Printf("Failed to archive match %s: %v", m.ID, err)
	}
}

// ArchiveFeedback persists one feedback row
func (a *Archive) ArchiveFeedback(f models.Feedback) {
	if a.session == nil {
		return
	}

	err := a.session.Query(`
		INSERT INTO feedback (id, match_id, from_user_id, to_user_id, rating, tags, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, f.ID, f.MatchID, f.FromUserID, f.ToUserID, f.Rating, strings.Join(f.Tags, ","), f.CreatedAt).Exec()
	if err != nil {
		log.Printf("Failed to archive feedback %s: %v", f.ID, err)
	}
}
