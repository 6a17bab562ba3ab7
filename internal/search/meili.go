// Package search keeps a Meilisearch index of case notes next to Mongo.
// Mongo stays the source of truth: hits are ids only and are re-read and
// re-scoped by the caller.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"iris-server/internal/models"

	meili "github.com/meilisearch/meilisearch-go"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const idxNotes = "iris_notes"

var ErrUnhealthy = errors.New("meilisearch unhealthy")

type noteRecord struct {
	ID      string `json:"id"`
	CaseID  int64  `json:"case_id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// NoteIndex implements the note index and searcher used by the services.
type NoteIndex struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewNoteIndex connects and configures the notes index. An unreachable
// server is not an error: the index reports unhealthy until it recovers.
func NewNoteIndex(url, apiKey string, checkEvery time.Duration) *NoteIndex {
	n := &NoteIndex{
		client: meili.New(url, meili.WithAPIKey(apiKey)),
		done:   make(chan struct{}),
	}

	if _, err := n.client.Health(); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("Meilisearch unavailable, note search falls back to mongo")
	} else {
		n.healthy.Store(true)
		n.configure()
	}

	if checkEvery > 0 {
		go n.healthLoop(checkEvery)
	}
	return n
}

func (n *NoteIndex) configure() {
	if _, err := n.client.CreateIndex(&meili.IndexConfig{Uid: idxNotes, PrimaryKey: "id"}); err != nil {
		log.Debug().Err(err).Msg("Create notes index (may already exist)")
	}
	index := n.client.Index(idxNotes)
	filterable := []interface{}{"case_id"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Warn().Err(err).Msg("Failed to set filterable attributes on notes index")
	}
	searchable := []string{"title", "content"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Warn().Err(err).Msg("Failed to set searchable attributes on notes index")
	}
}

func (n *NoteIndex) healthLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-n.done:
			return
		case <-ticker.C:
			_, err := n.client.Health()
			was := n.healthy.Load()
			n.healthy.Store(err == nil)
			if err == nil && !was {
				log.Info().Msg("Meilisearch recovered, reconfiguring notes index")
				n.configure()
			}
		}
	}
}

func (n *NoteIndex) Close() {
	close(n.done)
}

func (n *NoteIndex) Healthy() bool {
	return n.healthy.Load()
}

func (n *NoteIndex) IndexNote(ctx context.Context, note *models.Note) error {
	if err := n.ready(ctx); err != nil {
		return err
	}
	docs := []noteRecord{{
		ID:      note.ID.Hex(),
		CaseID:  note.CaseID,
		Title:   note.Title,
		Content: note.Content,
	}}
	_, err := n.client.Index(idxNotes).AddDocuments(docs, nil)
	return err
}

func (n *NoteIndex) RemoveNote(ctx context.Context, id primitive.ObjectID) error {
	if err := n.ready(ctx); err != nil {
		return err
	}
	_, err := n.client.Index(idxNotes).DeleteDocument(id.Hex(), nil)
	return err
}

// SearchNoteIDs returns matching note ids. A nil caseIDs searches every case.
func (n *NoteIndex) SearchNoteIDs(ctx context.Context, term string, caseIDs []int64, limit int64) ([]primitive.ObjectID, error) {
	if err := n.ready(ctx); err != nil {
		return nil, err
	}
	req := &meili.SearchRequest{
		IndexUID:             idxNotes,
		Query:                term,
		Limit:                limit,
		AttributesToRetrieve: []string{"id"},
	}
	if caseIDs != nil {
		req.Filter = caseFilter(caseIDs)
	}

	resp, err := n.client.MultiSearch(&meili.MultiSearchRequest{Queries: []*meili.SearchRequest{req}})
	if err != nil {
		n.healthy.Store(false)
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}

	ids := []primitive.ObjectID{}
	for _, result := range resp.Results {
		for _, hit := range result.Hits {
			raw, ok := hit["id"]
			if !ok {
				continue
			}
			var hex string
			if err := json.Unmarshal(raw, &hex); err != nil {
				continue
			}
			if id, err := primitive.ObjectIDFromHex(hex); err == nil {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

func (n *NoteIndex) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !n.healthy.Load() {
		return ErrUnhealthy
	}
	return nil
}

func caseFilter(caseIDs []int64) string {
	parts := make([]string, len(caseIDs))
	for i, id := range caseIDs {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "case_id IN [" + strings.Join(parts, ", ") + "]"
}
