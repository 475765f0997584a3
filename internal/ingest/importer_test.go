package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaoxiunique/xhs-poster/internal/models"
	"github.com/xiaoxiunique/xhs-poster/internal/xhs"
)

type memMaterials struct {
	rows      map[string]*models.Material
	insertErr error
}

func newMemMaterials() *memMaterials {
	return &memMaterials{rows: make(map[string]*models.Material)}
}

func (m *memMaterials) key(ownerID int64, noteID string) string {
	return fmt.Sprintf("%d/%s", ownerID, noteID)
}

func (m *memMaterials) Exists(_ context.Context, ownerID int64, noteID string) (bool, error) {
	_, ok := m.rows[m.key(ownerID, noteID)]
	return ok, nil
}

func (m *memMaterials) Insert(_ context.Context, material *models.Material) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.rows[m.key(material.UserID, material.NoteID)] = material
	return nil
}

type fakeResolver struct {
	account *models.Account
	err     error
}

func (r *fakeResolver) Resolve(context.Context, *int64) (*models.Account, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.account, nil
}

// fakeLister serves a fixed set of notes split into pages of pageSize.
type fakeLister struct {
	notes        []xhs.PostedNote
	pageSize     int
	listingCalls int
	detailCalls  int
	detailErr    error
}

func (l *fakeLister) UserPosted(_ context.Context, _ string, page int) ([]xhs.PostedNote, error) {
	l.listingCalls++
	start := page * l.pageSize
	if start >= len(l.notes) {
		return nil, nil
	}
	end := start + l.pageSize
	if end > len(l.notes) {
		end = len(l.notes)
	}
	return l.notes[start:end], nil
}

func (l *fakeLister) NoteDetail(_ context.Context, noteID, xsecToken, source string) (*xhs.NoteCard, error) {
	l.detailCalls++
	if l.detailErr != nil {
		return nil, l.detailErr
	}
	card := &xhs.NoteCard{
		NoteID: noteID,
		Title:  "title " + noteID,
		Desc:   "desc " + noteID,
	}
	card.User.UserID = "author"
	card.User.Nickname = "nick"
	card.InteractInfo.LikedCount = "5"
	card.InteractInfo.CollectedCount = "2"
	card.InteractInfo.CommentCount = "not-a-number"
	return card, nil
}

func makeNotes(n int) []xhs.PostedNote {
	notes := make([]xhs.PostedNote, 0, n)
	for i := 0; i < n; i++ {
		notes = append(notes, xhs.PostedNote{
			NoteID:    fmt.Sprintf("note-%d", i),
			Title:     fmt.Sprintf("title %d", i),
			XsecToken: fmt.Sprintf("tok-%d", i),
		})
	}
	return notes
}

func newTestImporter(store MaterialStore, lister *fakeLister) *Importer {
	imp := New(store, &fakeResolver{account: &models.Account{ID: 1, Cookie: "cookie"}},
		func(string) Lister { return lister })
	imp.PageSize = lister.pageSize
	return imp
}

func TestExtractUserID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"bare id", "5f1a2b3c4d5e6f", "5f1a2b3c4d5e6f", false},
		{"profile url", "https://www.xiaohongshu.com/user/profile/5f1a2b3c4d5e6f", "5f1a2b3c4d5e6f", false},
		{"profile url with query", "https://www.xiaohongshu.com/user/profile/abc123DEF?tab=note", "abc123DEF", false},
		{"empty", "", "", true},
		{"garbage", "not a user!", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractUserID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidUserRef)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestImportFreshUser(t *testing.T) {
	store := newMemMaterials()
	lister := &fakeLister{notes: makeNotes(7), pageSize: 5}
	imp := newTestImporter(store, lister)

	stats, err := imp.ImportFromUser(context.Background(), "author")
	require.NoError(t, err)
	assert.Equal(t, 7, stats.Total)
	assert.Equal(t, 7, stats.Imported)
	assert.Equal(t, 0, stats.Existed)
	assert.Len(t, store.rows, 7)
	// Full page then a short page: exactly two listing calls.
	assert.Equal(t, 2, lister.listingCalls)

	material := store.rows["1/note-0"]
	require.NotNil(t, material)
	assert.Equal(t, "title note-0", material.Title)
	assert.Equal(t, "author", material.SourceUser.ID)
	assert.Equal(t, int64(5), material.Likes)
	assert.Equal(t, int64(2), material.Collects)
	// Unparsable counts degrade to zero.
	assert.Equal(t, int64(0), material.Comments)
}

func TestImportIsIdempotent(t *testing.T) {
	store := newMemMaterials()
	lister := &fakeLister{notes: makeNotes(4), pageSize: 30}
	imp := newTestImporter(store, lister)

	first, err := imp.ImportFromUser(context.Background(), "author")
	require.NoError(t, err)
	assert.Equal(t, 4, first.Imported)

	detailCallsAfterFirst := lister.detailCalls

	second, err := imp.ImportFromUser(context.Background(), "author")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Imported)
	assert.Equal(t, 4, second.Existed)
	assert.Equal(t, 4, second.Total)
	assert.Len(t, store.rows, 4)
	// Already-seen notes are skipped before fetching detail.
	assert.Equal(t, detailCallsAfterFirst, lister.detailCalls)
}

func TestImportListingCallCeiling(t *testing.T) {
	store := newMemMaterials()
	// Far more pages than the cap allows.
	lister := &fakeLister{notes: makeNotes(500), pageSize: 30}
	imp := newTestImporter(store, lister)

	stats, err := imp.ImportFromUser(context.Background(), "author")
	require.NoError(t, err)
	assert.Equal(t, 10, lister.listingCalls)
	assert.Equal(t, 300, stats.Total)
}

func TestImportShortPageEndsCrawl(t *testing.T) {
	store := newMemMaterials()
	lister := &fakeLister{notes: makeNotes(3), pageSize: 30}
	imp := newTestImporter(store, lister)

	_, err := imp.ImportFromUser(context.Background(), "author")
	require.NoError(t, err)
	assert.Equal(t, 1, lister.listingCalls)
}

func TestImportDetailFailureAborts(t *testing.T) {
	store := newMemMaterials()
	lister := &fakeLister{notes: makeNotes(3), pageSize: 30, detailErr: xhs.ErrDetail}
	imp := newTestImporter(store, lister)

	_, err := imp.ImportFromUser(context.Background(), "author")
	require.Error(t, err)
	assert.ErrorIs(t, err, xhs.ErrDetail)
	assert.Empty(t, store.rows)
}

func TestImportInsertFailureKeepsEarlierRows(t *testing.T) {
	store := newMemMaterials()
	lister := &fakeLister{notes: makeNotes(3), pageSize: 30}
	imp := newTestImporter(store, lister)

	// First run imports everything; now make inserts fail and add one new note.
	_, err := imp.ImportFromUser(context.Background(), "author")
	require.NoError(t, err)

	lister.notes = makeNotes(4)
	store.insertErr = errors.New("disk full")
	_, err = imp.ImportFromUser(context.Background(), "author")
	require.Error(t, err)
	// Rows from before the failure stay.
	assert.Len(t, store.rows, 3)
}

func TestImportInvalidUserRef(t *testing.T) {
	imp := newTestImporter(newMemMaterials(), &fakeLister{pageSize: 30})

	_, err := imp.ImportFromUser(context.Background(), "!!!")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidUserRef)
}

func TestImportResolverFailurePropagates(t *testing.T) {
	resolveErr := errors.New("no active account")
	imp := New(newMemMaterials(), &fakeResolver{err: resolveErr}, func(string) Lister { return &fakeLister{pageSize: 30} })

	_, err := imp.ImportFromUser(context.Background(), "author")
	require.Error(t, err)
	assert.ErrorIs(t, err, resolveErr)
}

func TestParseCount(t *testing.T) {
	assert.Equal(t, int64(42), parseCount("42"))
	assert.Equal(t, int64(0), parseCount(""))
	assert.Equal(t, int64(0), parseCount("1.2万"))
}
