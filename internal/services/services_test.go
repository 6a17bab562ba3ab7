package services

import (
	"context"
	"testing"

	"iris-server/internal/models"
	"iris-server/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newUser(name string, perms ...models.Permission) *models.User {
	return &models.User{ID: primitive.NewObjectID(), Username: name, Active: true, Permissions: perms}
}

func TestCreateCustomerRejectsDuplicateBeforeWriting(t *testing.T) {
	store := newFakeCustomers("Acme Corp")
	tracker := &recordingTracker{}
	svc := NewCustomerService(store, newFakeCases(), tracker)

	_, err := svc.CreateCustomer(context.Background(), newUser("alice"), models.CustomerRequest{Name: "  ACME corp "})

	var perr *apperrors.ProcessingError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "Customer already exists", perr.Message)
	assert.Equal(t, 0, store.inserts)
	assert.Empty(t, tracker.activities)
}

func TestCreateCustomerTracksActivity(t *testing.T) {
	store := newFakeCustomers()
	tracker := &recordingTracker{}
	svc := NewCustomerService(store, newFakeCases(), tracker)

	c, err := svc.CreateCustomer(context.Background(), newUser("alice"), models.CustomerRequest{Name: "Globex"})
	require.NoError(t, err)
	assert.Equal(t, "Globex", c.Name)
	require.Len(t, tracker.activities, 1)
	assert.Equal(t, "Added customer Globex", tracker.activities[0].Message)
}

func TestUpdateCustomerExcludesItself(t *testing.T) {
	store := newFakeCustomers("Acme", "Globex")
	svc := NewCustomerService(store, newFakeCases(), NopTracker{})
	acme := store.byName("Acme")

	updated, err := svc.UpdateCustomer(context.Background(), newUser("a"), acme.ID, models.CustomerRequest{Name: "ACME"})
	require.NoError(t, err)
	assert.Equal(t, "ACME", updated.Name)

	_, err = svc.UpdateCustomer(context.Background(), newUser("a"), acme.ID, models.CustomerRequest{Name: "globex"})
	var perr *apperrors.ProcessingError
	assert.ErrorAs(t, err, &perr)

	_, err = svc.UpdateCustomer(context.Background(), newUser("a"), primitive.NewObjectID(), models.CustomerRequest{Name: "x"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteReferencedCustomerFails(t *testing.T) {
	store := newFakeCustomers("Acme")
	cases := newFakeCases()
	acme := store.byName("Acme")
	_, _ = cases.CreateCase(context.Background(), &models.Case{Name: "c", CustomerID: acme.ID})
	svc := NewCustomerService(store, cases, NopTracker{})

	err := svc.DeleteCustomer(context.Background(), newUser("a"), acme.ID)
	var perr *apperrors.ProcessingError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, store.items, acme.ID)
}

func TestCaseAccessLevels(t *testing.T) {
	ctx := context.Background()
	customers := newFakeCustomers("Acme")
	cases := newFakeCases()
	owner, reader, stranger := newUser("owner"), newUser("reader"), newUser("stranger")
	admin := newUser("admin", models.PermServerAdministrator)
	users := fakeUsers{owner.ID: owner, reader.ID: reader, stranger.ID: stranger}
	svc := NewCaseService(cases, customers, users, staticPerms{}, NopTracker{})

	c, err := svc.CreateCase(ctx, owner, models.CreateCaseRequest{Name: "phishing", CustomerID: customers.byName("Acme").ID.Hex()})
	require.NoError(t, err)

	_, err = svc.SetCaseAccess(ctx, owner, c.ID, models.SetCaseAccessRequest{UserID: reader.ID.Hex(), AccessLevel: "read_only"})
	require.NoError(t, err)

	assert.NoError(t, svc.CheckCaseAccess(ctx, owner, c.ID, models.AccessFull))
	assert.NoError(t, svc.CheckCaseAccess(ctx, admin, c.ID, models.AccessFull))
	assert.NoError(t, svc.CheckCaseAccess(ctx, reader, c.ID, models.AccessRead))
	assert.ErrorIs(t, svc.CheckCaseAccess(ctx, reader, c.ID, models.AccessFull), apperrors.ErrForbidden)
	assert.ErrorIs(t, svc.CheckCaseAccess(ctx, stranger, c.ID, models.AccessRead), apperrors.ErrForbidden)
	assert.ErrorIs(t, svc.CheckCaseAccess(ctx, owner, 999, models.AccessRead), apperrors.ErrNotFound)

	ids, err := svc.ReadableCaseIDs(ctx, reader)
	require.NoError(t, err)
	assert.Equal(t, []int64{c.ID}, ids)

	ids, err = svc.ReadableCaseIDs(ctx, admin)
	require.NoError(t, err)
	assert.Nil(t, ids)
}

func TestCreateCaseNeedsCustomer(t *testing.T) {
	svc := NewCaseService(newFakeCases(), newFakeCustomers(), fakeUsers{}, staticPerms{}, NopTracker{})

	_, err := svc.CreateCase(context.Background(), newUser("a"), models.CreateCaseRequest{Name: "x", CustomerID: primitive.NewObjectID().Hex()})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGroupPermissionsAreMerged(t *testing.T) {
	ctx := context.Background()
	groups := newFakeGroups()
	member := newUser("member", models.PermCustomersRead)
	svc := NewGroupService(groups, fakeUsers{member.ID: member}, NopTracker{})

	g, err := svc.CreateGroup(ctx, newUser("admin"), models.GroupRequest{
		Name:        "Analysts",
		Permissions: []models.Permission{models.PermCustomersWrite},
	})
	require.NoError(t, err)

	ok, err := svc.HasPermission(ctx, member, models.PermCustomersWrite)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.AddMembers(ctx, newUser("admin"), g.ID, []string{member.ID.Hex()})
	require.NoError(t, err)

	ok, err = svc.HasPermission(ctx, member, models.PermCustomersWrite)
	require.NoError(t, err)
	assert.True(t, ok)

	perms, err := svc.EffectivePermissions(ctx, member)
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.Permission{models.PermCustomersRead, models.PermCustomersWrite}, perms)
}

func TestGroupRules(t *testing.T) {
	ctx := context.Background()
	groups := newFakeGroups()
	svc := NewGroupService(groups, fakeUsers{}, NopTracker{})
	admin := newUser("admin")

	_, err := svc.CreateGroup(ctx, admin, models.GroupRequest{Name: "Analysts"})
	require.NoError(t, err)

	_, err = svc.CreateGroup(ctx, admin, models.GroupRequest{Name: "analysts"})
	var perr *apperrors.ProcessingError
	assert.ErrorAs(t, err, &perr)

	_, err = svc.CreateGroup(ctx, admin, models.GroupRequest{Name: "Other", Permissions: []models.Permission{"root"}})
	assert.ErrorAs(t, err, &perr)

	g, err := svc.CreateGroup(ctx, admin, models.GroupRequest{Name: "Responders"})
	require.NoError(t, err)
	_, err = svc.AddMembers(ctx, admin, g.ID, []string{primitive.NewObjectID().Hex()})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = svc.AddMembers(ctx, admin, g.ID, []string{"nope"})
	assert.ErrorAs(t, err, &perr)
}

func TestNoteDirectoryParentMustBeInSameCase(t *testing.T) {
	ctx := context.Background()
	notes := newFakeNotes()
	svc := NewNoteService(notes, nil, NopNotifier{}, NopTracker{})
	user := newUser("a")

	other, err := svc.CreateDirectory(ctx, user, 7, models.NoteDirectoryRequest{Name: "root"}, "")
	require.NoError(t, err)

	_, err = svc.CreateDirectory(ctx, user, 42, models.NoteDirectoryRequest{Name: "child", ParentID: other.ID.Hex()}, "")
	var perr *apperrors.ProcessingError
	require.ErrorAs(t, err, &perr)

	_, err = svc.CreateDirectory(ctx, user, 42, models.NoteDirectoryRequest{Name: "child", ParentID: primitive.NewObjectID().Hex()}, "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	child, err := svc.CreateDirectory(ctx, user, 7, models.NoteDirectoryRequest{Name: "child", ParentID: other.ID.Hex()}, "")
	require.NoError(t, err)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, other.ID, *child.ParentID)
}

func TestNoteDirectoryCycleRefused(t *testing.T) {
	ctx := context.Background()
	svc := NewNoteService(newFakeNotes(), nil, NopNotifier{}, NopTracker{})
	user := newUser("a")

	a, _ := svc.CreateDirectory(ctx, user, 1, models.NoteDirectoryRequest{Name: "a"}, "")
	b, _ := svc.CreateDirectory(ctx, user, 1, models.NoteDirectoryRequest{Name: "b", ParentID: a.ID.Hex()}, "")

	var perr *apperrors.ProcessingError
	_, err := svc.UpdateDirectory(ctx, user, 1, a.ID, models.NoteDirectoryRequest{Name: "a", ParentID: a.ID.Hex()}, "")
	assert.ErrorAs(t, err, &perr)
	_, err = svc.UpdateDirectory(ctx, user, 1, a.ID, models.NoteDirectoryRequest{Name: "a", ParentID: b.ID.Hex()}, "")
	assert.ErrorAs(t, err, &perr)

	err = svc.DeleteDirectory(ctx, user, 1, a.ID, "")
	assert.ErrorAs(t, err, &perr)
}

func TestNoteLifecycleNotifiesAndIndexes(t *testing.T) {
	ctx := context.Background()
	notes := newFakeNotes()
	index := &fakeIndex{}
	notifier := &recordingNotifier{}
	tracker := &recordingTracker{}
	svc := NewNoteService(notes, index, notifier, tracker)
	user := newUser("alice")

	dir, err := svc.CreateDirectory(ctx, user, 42, models.NoteDirectoryRequest{Name: "Timeline"}, "sid-1")
	require.NoError(t, err)

	note, err := svc.CreateNote(ctx, user, 42, models.NoteRequest{Title: "First seen", Content: "beacon to 10.0.0.1", DirectoryID: dir.ID.Hex()}, "sid-1")
	require.NoError(t, err)
	assert.True(t, index.indexed[note.ID])

	require.Len(t, notifier.sent, 2)
	last := notifier.sent[1]
	assert.Equal(t, int64(42), last.caseID)
	assert.Equal(t, "sid-1", last.excludeSID)
	assert.Equal(t, models.ActionCreated, last.n.ActionType)
	assert.Equal(t, "note", last.n.ObjectType)
	assert.Equal(t, note.ID.Hex(), last.n.ObjectID)

	listing, err := svc.ListDirectories(ctx, 42)
	require.NoError(t, err)
	require.Len(t, listing, 1)
	require.Len(t, listing[0].Notes, 1)
	assert.Equal(t, "First seen", listing[0].Notes[0].Title)

	found, err := svc.SearchInCase(ctx, 42, "BEACON")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	// a note can not be read through another case
	_, err = svc.GetNote(ctx, 7, note.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, svc.DeleteNote(ctx, user, 42, note.ID, ""))
	assert.False(t, index.indexed[note.ID])
	assert.Len(t, tracker.activities, 3)
}

func TestNoteIntoForeignDirectoryRefused(t *testing.T) {
	ctx := context.Background()
	svc := NewNoteService(newFakeNotes(), nil, NopNotifier{}, NopTracker{})
	user := newUser("a")

	dir, _ := svc.CreateDirectory(ctx, user, 7, models.NoteDirectoryRequest{Name: "x"}, "")
	_, err := svc.CreateNote(ctx, user, 42, models.NoteRequest{Title: "t", DirectoryID: dir.ID.Hex()}, "")

	var perr *apperrors.ProcessingError
	assert.ErrorAs(t, err, &perr)
}

func TestSavedFilterVisibility(t *testing.T) {
	ctx := context.Background()
	svc := NewSavedFilterService(&fakeFilters{items: map[primitive.ObjectID]*models.SavedFilter{}})
	owner, other := newUser("owner"), newUser("other")

	private, err := svc.CreateFilter(ctx, owner, models.SavedFilterRequest{Name: "mine", Type: "cases", Data: map[string]interface{}{"q": 1}, IsPrivate: true})
	require.NoError(t, err)
	public, err := svc.CreateFilter(ctx, owner, models.SavedFilterRequest{Name: "ours", Type: "alerts", Data: map[string]interface{}{}})
	require.NoError(t, err)

	_, err = svc.GetFilter(ctx, owner, private.ID)
	assert.NoError(t, err)
	_, err = svc.GetFilter(ctx, other, private.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = svc.GetFilter(ctx, other, public.ID)
	assert.NoError(t, err)

	page, err := svc.ListFilters(ctx, other, models.ListQuery{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	err = svc.DeleteFilter(ctx, other, public.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.NoError(t, svc.DeleteFilter(ctx, owner, public.ID))
}

func TestGlobalTaskValidation(t *testing.T) {
	ctx := context.Background()
	assignee := newUser("bob")
	svc := NewGlobalTaskService(&fakeTasks{}, fakeUsers{assignee.ID: assignee}, NopTracker{})

	task, err := svc.CreateTask(ctx, newUser("a"), models.GlobalTaskRequest{Title: "rotate keys", AssigneeID: assignee.ID.Hex()})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusToDo, task.Status)

	_, err = svc.CreateTask(ctx, newUser("a"), models.GlobalTaskRequest{Title: "x", AssigneeID: assignee.ID.Hex(), Status: "Someday"})
	var verr *apperrors.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = svc.CreateTask(ctx, newUser("a"), models.GlobalTaskRequest{Title: "x", AssigneeID: primitive.NewObjectID().Hex()})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSearchRestrictsToReadableCases(t *testing.T) {
	ctx := context.Background()
	notes := newFakeNotes()
	cases := newFakeCases()
	reader := newUser("reader")
	caseSvc := NewCaseService(cases, newFakeCustomers(), fakeUsers{}, staticPerms{}, NopTracker{})
	cases.cases[1] = &models.Case{ID: 1}
	cases.cases[2] = &models.Case{ID: 2}
	cases.access[accessKey{1, reader.ID}] = models.AccessRead

	mine, _ := notes.CreateNote(ctx, &models.Note{CaseID: 1, Title: "mimikatz seen"})
	_, _ = notes.CreateNote(ctx, &models.Note{CaseID: 2, Title: "mimikatz again"})

	evidences := fakeEvidenceSearch{items: []models.Evidence{
		{ID: primitive.NewObjectID(), CaseID: 1, Filename: "memdump.raw"},
		{ID: primitive.NewObjectID(), CaseID: 2, Filename: "memdump2.raw"},
	}}

	svc := NewSearchService(caseSvc, notes, evidences, nil)
	hits, err := svc.Search(ctx, reader, models.SearchRequest{Term: "mimikatz", Type: "notes"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, mine.ID.Hex(), hits[0].ObjectID)

	hits, err = svc.Search(ctx, reader, models.SearchRequest{Term: "memdump", Type: "evidences"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(1), hits[0].CaseID)

	// index results are re-checked against mongo and the case scope
	other := &fakeIndex{ids: []primitive.ObjectID{mine.ID, primitive.NewObjectID()}}
	svc = NewSearchService(caseSvc, notes, evidences, other)
	hits, err = svc.Search(ctx, reader, models.SearchRequest{Term: "mimikatz", Type: "notes"})
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	// a failing index falls back to mongo
	svc = NewSearchService(caseSvc, notes, evidences, &fakeIndex{err: errBoom})
	hits, err = svc.Search(ctx, reader, models.SearchRequest{Term: "mimikatz", Type: "notes"})
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", snippet("short", "zzz"))
	long := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaNEEDLEbbbb"
	out := snippet(long, "needle")
	assert.Contains(t, out, "NEEDLE")
	assert.True(t, len(out) < len(long)+6)
}
