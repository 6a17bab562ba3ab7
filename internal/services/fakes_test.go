package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"iris-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type recordingTracker struct {
	mu         sync.Mutex
	activities []models.Activity
}

func (r *recordingTracker) Track(_ context.Context, a models.Activity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activities = append(r.activities, a)
}

type sentNotification struct {
	caseID     int64
	n          models.CaseObjectNotification
	excludeSID string
}

type recordingNotifier struct {
	sent []sentNotification
}

func (r *recordingNotifier) NotifyCaseObject(caseID int64, n models.CaseObjectNotification, excludeSID string) {
	r.sent = append(r.sent, sentNotification{caseID: caseID, n: n, excludeSID: excludeSID})
}

type staticPerms map[models.Permission]bool

func (p staticPerms) HasPermission(_ context.Context, user *models.User, perm models.Permission) (bool, error) {
	return user.HasPermission(perm) || p[perm] || p[models.PermServerAdministrator], nil
}

// customers

type fakeCustomers struct {
	items   map[primitive.ObjectID]*models.Customer
	inserts int
}

func newFakeCustomers(names ...string) *fakeCustomers {
	f := &fakeCustomers{items: map[primitive.ObjectID]*models.Customer{}}
	for _, n := range names {
		id := primitive.NewObjectID()
		f.items[id] = &models.Customer{ID: id, Name: n}
	}
	return f
}

func (f *fakeCustomers) byName(name string) *models.Customer {
	for _, c := range f.items {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (f *fakeCustomers) CreateCustomer(_ context.Context, c *models.Customer) (*models.Customer, error) {
	f.inserts++
	c.ID = primitive.NewObjectID()
	f.items[c.ID] = c
	return c, nil
}

func (f *fakeCustomers) FindCustomerByID(_ context.Context, id primitive.ObjectID) (*models.Customer, error) {
	if c, ok := f.items[id]; ok {
		return c, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeCustomers) NameTaken(_ context.Context, name string, exclude primitive.ObjectID) (bool, error) {
	for id, c := range f.items {
		if id != exclude && strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCustomers) UpdateCustomer(_ context.Context, id primitive.ObjectID, update bson.M) (*models.Customer, error) {
	c, ok := f.items[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	c.Name = update["name"].(string)
	return c, nil
}

func (f *fakeCustomers) DeleteCustomer(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.items[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(f.items, id)
	return nil
}

func (f *fakeCustomers) ListCustomers(context.Context, models.ListQuery) ([]models.Customer, int64, error) {
	out := []models.Customer{}
	for _, c := range f.items {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

// cases

type accessKey struct {
	caseID int64
	userID primitive.ObjectID
}

type fakeCases struct {
	cases  map[int64]*models.Case
	access map[accessKey]models.AccessLevel
	nextID int64
}

func newFakeCases() *fakeCases {
	return &fakeCases{cases: map[int64]*models.Case{}, access: map[accessKey]models.AccessLevel{}, nextID: 1}
}

func (f *fakeCases) CreateCase(_ context.Context, c *models.Case) (*models.Case, error) {
	c.ID = f.nextID
	f.nextID++
	f.cases[c.ID] = c
	return c, nil
}

func (f *fakeCases) FindCaseByID(_ context.Context, id int64) (*models.Case, error) {
	if c, ok := f.cases[id]; ok {
		return c, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeCases) CaseExists(_ context.Context, id int64) (bool, error) {
	_, ok := f.cases[id]
	return ok, nil
}

func (f *fakeCases) ListCases(_ context.Context, ids []int64, _ models.ListQuery) ([]models.Case, int64, error) {
	out := []models.Case{}
	if ids == nil {
		for _, c := range f.cases {
			out = append(out, *c)
		}
	}
	for _, id := range ids {
		if c, ok := f.cases[id]; ok {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeCases) SetAccess(_ context.Context, a models.CaseAccess) error {
	f.access[accessKey{a.CaseID, a.UserID}] = a.Level
	return nil
}

func (f *fakeCases) AccessLevel(_ context.Context, caseID int64, userID primitive.ObjectID) (models.AccessLevel, error) {
	return f.access[accessKey{caseID, userID}], nil
}

func (f *fakeCases) CaseIDsWithAccess(_ context.Context, userID primitive.ObjectID, level models.AccessLevel) ([]int64, error) {
	ids := []int64{}
	for k, l := range f.access {
		if k.userID == userID && l >= level {
			ids = append(ids, k.caseID)
		}
	}
	return ids, nil
}

func (f *fakeCases) CountCasesForCustomer(_ context.Context, customerID primitive.ObjectID) (int64, error) {
	var n int64
	for _, c := range f.cases {
		if c.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

// users

type fakeUsers map[primitive.ObjectID]*models.User

func (f fakeUsers) FindUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (f fakeUsers) CountExisting(_ context.Context, ids []primitive.ObjectID) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, ok := f[id]; ok {
			n++
		}
	}
	return n, nil
}

// groups

type fakeGroups struct {
	items map[primitive.ObjectID]*models.Group
}

func newFakeGroups() *fakeGroups {
	return &fakeGroups{items: map[primitive.ObjectID]*models.Group{}}
}

func (f *fakeGroups) CreateGroup(_ context.Context, g *models.Group) (*models.Group, error) {
	g.ID = primitive.NewObjectID()
	f.items[g.ID] = g
	return g, nil
}

func (f *fakeGroups) FindGroupByID(_ context.Context, id primitive.ObjectID) (*models.Group, error) {
	if g, ok := f.items[id]; ok {
		return g, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeGroups) NameTaken(_ context.Context, name string, exclude primitive.ObjectID) (bool, error) {
	for id, g := range f.items {
		if id != exclude && strings.EqualFold(g.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeGroups) UpdateGroup(_ context.Context, id primitive.ObjectID, update bson.M) (*models.Group, error) {
	g, ok := f.items[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	g.Name = update["name"].(string)
	if perms, ok := update["permissions"].([]models.Permission); ok {
		g.Permissions = perms
	}
	return g, nil
}

func (f *fakeGroups) DeleteGroup(_ context.Context, id primitive.ObjectID) error {
	delete(f.items, id)
	return nil
}

func (f *fakeGroups) ListGroups(context.Context, models.ListQuery) ([]models.Group, int64, error) {
	return nil, 0, nil
}

func (f *fakeGroups) AddMembers(_ context.Context, groupID primitive.ObjectID, ids []primitive.ObjectID) (*models.Group, error) {
	g, ok := f.items[groupID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	g.Members = append(g.Members, ids...)
	return g, nil
}

func (f *fakeGroups) RemoveMember(_ context.Context, groupID, userID primitive.ObjectID) (*models.Group, error) {
	g, ok := f.items[groupID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	kept := g.Members[:0]
	for _, m := range g.Members {
		if m != userID {
			kept = append(kept, m)
		}
	}
	g.Members = kept
	return g, nil
}

func (f *fakeGroups) GroupsForMember(_ context.Context, userID primitive.ObjectID) ([]models.Group, error) {
	out := []models.Group{}
	for _, g := range f.items {
		for _, m := range g.Members {
			if m == userID {
				out = append(out, *g)
			}
		}
	}
	return out, nil
}

// notes

type fakeNotes struct {
	dirs  map[primitive.ObjectID]*models.NoteDirectory
	notes map[primitive.ObjectID]*models.Note
}

func newFakeNotes() *fakeNotes {
	return &fakeNotes{
		dirs:  map[primitive.ObjectID]*models.NoteDirectory{},
		notes: map[primitive.ObjectID]*models.Note{},
	}
}

func (f *fakeNotes) CreateDirectory(_ context.Context, d *models.NoteDirectory) (*models.NoteDirectory, error) {
	d.ID = primitive.NewObjectID()
	f.dirs[d.ID] = d
	return d, nil
}

func (f *fakeNotes) FindDirectory(_ context.Context, id primitive.ObjectID) (*models.NoteDirectory, error) {
	if d, ok := f.dirs[id]; ok {
		return d, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeNotes) UpdateDirectory(_ context.Context, caseID int64, id primitive.ObjectID, update bson.M) (*models.NoteDirectory, error) {
	d, ok := f.dirs[id]
	if !ok || d.CaseID != caseID {
		return nil, mongo.ErrNoDocuments
	}
	d.Name = update["name"].(string)
	if p, ok := update["parent_id"].(primitive.ObjectID); ok {
		d.ParentID = &p
	} else {
		d.ParentID = nil
	}
	return d, nil
}

func (f *fakeNotes) DeleteDirectory(_ context.Context, caseID int64, id primitive.ObjectID) error {
	d, ok := f.dirs[id]
	if !ok || d.CaseID != caseID {
		return mongo.ErrNoDocuments
	}
	delete(f.dirs, id)
	for nid, n := range f.notes {
		if n.DirectoryID == id {
			delete(f.notes, nid)
		}
	}
	return nil
}

func (f *fakeNotes) CountSubdirectories(_ context.Context, caseID int64, id primitive.ObjectID) (int64, error) {
	var n int64
	for _, d := range f.dirs {
		if d.CaseID == caseID && d.ParentID != nil && *d.ParentID == id {
			n++
		}
	}
	return n, nil
}

func (f *fakeNotes) ListDirectories(_ context.Context, caseID int64) ([]models.NoteDirectory, error) {
	out := []models.NoteDirectory{}
	for _, d := range f.dirs {
		if d.CaseID == caseID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeNotes) CreateNote(_ context.Context, n *models.Note) (*models.Note, error) {
	n.ID = primitive.NewObjectID()
	f.notes[n.ID] = n
	return n, nil
}

func (f *fakeNotes) FindNote(_ context.Context, caseID int64, id primitive.ObjectID) (*models.Note, error) {
	if n, ok := f.notes[id]; ok && n.CaseID == caseID {
		return n, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeNotes) UpdateNote(_ context.Context, caseID int64, id primitive.ObjectID, update bson.M) (*models.Note, error) {
	n, ok := f.notes[id]
	if !ok || n.CaseID != caseID {
		return nil, mongo.ErrNoDocuments
	}
	n.Title = update["title"].(string)
	n.Content = update["content"].(string)
	n.DirectoryID = update["directory_id"].(primitive.ObjectID)
	return n, nil
}

func (f *fakeNotes) DeleteNote(_ context.Context, caseID int64, id primitive.ObjectID) error {
	if n, ok := f.notes[id]; !ok || n.CaseID != caseID {
		return mongo.ErrNoDocuments
	}
	delete(f.notes, id)
	return nil
}

func (f *fakeNotes) ListNotes(_ context.Context, caseID int64, dirID primitive.ObjectID) ([]models.Note, error) {
	out := []models.Note{}
	for _, n := range f.notes {
		if n.CaseID == caseID && (dirID.IsZero() || n.DirectoryID == dirID) {
			out = append(out, *n)
		}
	}
	return out, nil
}

func inScope(caseID int64, caseIDs []int64) bool {
	if caseIDs == nil {
		return true
	}
	for _, id := range caseIDs {
		if id == caseID {
			return true
		}
	}
	return false
}

func (f *fakeNotes) SearchNotes(_ context.Context, term string, caseIDs []int64, _ int64) ([]models.Note, error) {
	out := []models.Note{}
	term = strings.ToLower(term)
	for _, n := range f.notes {
		if inScope(n.CaseID, caseIDs) &&
			(strings.Contains(strings.ToLower(n.Title), term) || strings.Contains(strings.ToLower(n.Content), term)) {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (f *fakeNotes) FindNotesByIDs(_ context.Context, ids []primitive.ObjectID, caseIDs []int64) ([]models.Note, error) {
	out := []models.Note{}
	for _, id := range ids {
		if n, ok := f.notes[id]; ok && inScope(n.CaseID, caseIDs) {
			out = append(out, *n)
		}
	}
	return out, nil
}

type fakeIndex struct {
	indexed map[primitive.ObjectID]bool
	ids     []primitive.ObjectID
	err     error
}

func (f *fakeIndex) IndexNote(_ context.Context, n *models.Note) error {
	if f.indexed == nil {
		f.indexed = map[primitive.ObjectID]bool{}
	}
	f.indexed[n.ID] = true
	return f.err
}

func (f *fakeIndex) RemoveNote(_ context.Context, id primitive.ObjectID) error {
	delete(f.indexed, id)
	return f.err
}

func (f *fakeIndex) SearchNoteIDs(context.Context, string, []int64, int64) ([]primitive.ObjectID, error) {
	return f.ids, f.err
}

// saved filters

type fakeFilters struct {
	items map[primitive.ObjectID]*models.SavedFilter
}

func (f *fakeFilters) CreateFilter(_ context.Context, sf *models.SavedFilter) (*models.SavedFilter, error) {
	sf.ID = primitive.NewObjectID()
	f.items[sf.ID] = sf
	return sf, nil
}

func (f *fakeFilters) FindFilterByID(_ context.Context, id primitive.ObjectID) (*models.SavedFilter, error) {
	if sf, ok := f.items[id]; ok {
		return sf, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeFilters) UpdateFilter(_ context.Context, id primitive.ObjectID, update bson.M) (*models.SavedFilter, error) {
	sf, ok := f.items[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	sf.Name = update["name"].(string)
	return sf, nil
}

func (f *fakeFilters) DeleteFilter(_ context.Context, id primitive.ObjectID) error {
	delete(f.items, id)
	return nil
}

func (f *fakeFilters) ListVisible(_ context.Context, userID primitive.ObjectID, _ models.ListQuery) ([]models.SavedFilter, int64, error) {
	out := []models.SavedFilter{}
	for _, sf := range f.items {
		if sf.VisibleTo(userID) {
			out = append(out, *sf)
		}
	}
	return out, int64(len(out)), nil
}

type fakeEvidenceSearch struct {
	items []models.Evidence
}

func (f fakeEvidenceSearch) SearchByFilename(_ context.Context, term string, caseIDs []int64, _ int64) ([]models.Evidence, error) {
	out := []models.Evidence{}
	for _, e := range f.items {
		if inScope(e.CaseID, caseIDs) && strings.Contains(strings.ToLower(e.Filename), strings.ToLower(term)) {
			out = append(out, e)
		}
	}
	return out, nil
}

var errBoom = errors.New("boom")

type fakeTasks struct {
	items map[primitive.ObjectID]*models.GlobalTask
}

func (f *fakeTasks) CreateTask(_ context.Context, t *models.GlobalTask) (*models.GlobalTask, error) {
	if f.items == nil {
		f.items = map[primitive.ObjectID]*models.GlobalTask{}
	}
	t.ID = primitive.NewObjectID()
	f.items[t.ID] = t
	return t, nil
}

func (f *fakeTasks) FindTaskByID(_ context.Context, id primitive.ObjectID) (*models.GlobalTask, error) {
	if t, ok := f.items[id]; ok {
		return t, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeTasks) UpdateTask(_ context.Context, id primitive.ObjectID, update bson.M) (*models.GlobalTask, error) {
	t, ok := f.items[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	t.Title = update["title"].(string)
	t.Status = update["status"].(models.TaskStatus)
	return t, nil
}

func (f *fakeTasks) DeleteTask(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.items[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(f.items, id)
	return nil
}

func (f *fakeTasks) ListTasks(context.Context, models.ListQuery) ([]models.GlobalTask, int64, error) {
	out := []models.GlobalTask{}
	for _, t := range f.items {
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}
