package titlesync

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	titlestore "github.com/EVE-University/unistudent/internal/app/store/titles"
	"github.com/EVE-University/unistudent/internal/app/system/esi"
	"github.com/EVE-University/unistudent/internal/app/system/ssotoken"
	"github.com/EVE-University/unistudent/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/oauth2"
)

var errBoom = errors.New("boom")

// fakeTokens hands out a token whose access token is the user's hex id, so
// fakeRemote can answer per owner.
type fakeTokens struct {
	mu       sync.Mutex
	missing  map[primitive.ObjectID]bool
	failWith map[primitive.ObjectID]error
	calls    []primitive.ObjectID
}

func (f *fakeTokens) Resolve(_ context.Context, userID primitive.ObjectID, scopes []string) (ssotoken.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, userID)
	if f.missing[userID] {
		return ssotoken.Result{}, ssotoken.ErrNoValidToken
	}
	if err := f.failWith[userID]; err != nil {
		return ssotoken.Result{}, err
	}
	return ssotoken.Result{Token: &oauth2.Token{AccessToken: userID.Hex(), TokenType: "Bearer"}}, nil
}

func (f *fakeTokens) resolved() []primitive.ObjectID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]primitive.ObjectID(nil), f.calls...)
}

// reply is what fakeRemote returns for one (corporation, owner).
type reply struct {
	titles  []esi.Title
	members []esi.MemberTitles
	err     error
}

type fakeRemote struct {
	mu      sync.Mutex
	titles  map[int64]reply                        // by corporation
	members map[int64]reply                        // by corporation
	byOwner map[primitive.ObjectID]map[string]reply // overrides: owner -> op -> reply
	calls   int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		titles:  make(map[int64]reply),
		members: make(map[int64]reply),
		byOwner: make(map[primitive.ObjectID]map[string]reply),
	}
}

func (f *fakeRemote) fail(owner primitive.ObjectID, op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.byOwner[owner] == nil {
		f.byOwner[owner] = make(map[string]reply)
	}
	f.byOwner[owner][op] = reply{err: err}
}

func (f *fakeRemote) lookup(op string, corp int64, tok *oauth2.Token) reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if owner, err := primitive.ObjectIDFromHex(tok.AccessToken); err == nil {
		if r, ok := f.byOwner[owner][op]; ok {
			return r
		}
	}
	if op == "titles" {
		return f.titles[corp]
	}
	return f.members[corp]
}

func (f *fakeRemote) CorporationTitles(_ context.Context, corp int64, tok *oauth2.Token, _ string) ([]esi.Title, string, error) {
	r := f.lookup("titles", corp, tok)
	return r.titles, "", r.err
}

func (f *fakeRemote) MemberTitles(_ context.Context, corp int64, tok *oauth2.Token, _ string) ([]esi.MemberTitles, string, error) {
	r := f.lookup("members", corp, tok)
	return r.members, "", r.err
}

func (f *fakeRemote) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeIdentity struct {
	corps   map[primitive.ObjectID]int64
	errs    map[primitive.ObjectID]error
	owners  map[int64]primitive.ObjectID
	ownsErr error
}

func (f *fakeIdentity) PrimaryCorporation(_ context.Context, userID primitive.ObjectID) (int64, bool, error) {
	if err := f.errs[userID]; err != nil {
		return 0, false, err
	}
	c, ok := f.corps[userID]
	return c, ok, nil
}

func (f *fakeIdentity) OwningUsers(_ context.Context, ids []int64) (map[int64]primitive.ObjectID, error) {
	if f.ownsErr != nil {
		return nil, f.ownsErr
	}
	out := make(map[int64]primitive.ObjectID)
	for _, id := range ids {
		if uid, ok := f.owners[id]; ok {
			out[id] = uid
		}
	}
	return out, nil
}

type fakeOwners struct {
	mu      sync.Mutex
	order   []primitive.ObjectID
	records map[primitive.ObjectID]*models.Owner
	listErr error
	touched map[primitive.ObjectID]int
}

func newFakeOwners(users ...primitive.ObjectID) *fakeOwners {
	f := &fakeOwners{
		records: make(map[primitive.ObjectID]*models.Owner),
		touched: make(map[primitive.ObjectID]int),
	}
	for _, u := range users {
		f.add(u, true, nil)
	}
	return f
}

func (f *fakeOwners) add(userID primitive.ObjectID, valid bool, lastPull *time.Time) {
	f.order = append(f.order, userID)
	f.records[userID] = &models.Owner{ID: primitive.NewObjectID(), UserID: userID, ValidToken: valid, LastPull: lastPull}
}

func (f *fakeOwners) List(context.Context) ([]models.Owner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Owner, 0, len(f.order))
	for _, u := range f.order {
		out = append(out, *f.records[u])
	}
	return out, nil
}

func (f *fakeOwners) MarkValid(_ context.Context, userID primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched[userID]++
	o, ok := f.records[userID]
	if !ok {
		o = &models.Owner{UserID: userID}
		f.records[userID] = o
	}
	o.ValidToken = true
	o.LastPull = &at
	return nil
}

func (f *fakeOwners) MarkInvalid(_ context.Context, userID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched[userID]++
	if o, ok := f.records[userID]; ok {
		o.ValidToken = false
	}
	return nil
}

func (f *fakeOwners) get(userID primitive.ObjectID) models.Owner {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.records[userID]
}

func (f *fakeOwners) touches(userID primitive.ObjectID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touched[userID]
}

type fakeTitles struct {
	mu   sync.Mutex
	sets map[int64][]models.Title
	err  error
}

func newFakeTitles() *fakeTitles {
	return &fakeTitles{sets: make(map[int64][]models.Title)}
}

func (f *fakeTitles) ReplaceForCorporation(_ context.Context, corp int64, titles []models.Title) (titlestore.ReplaceResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return titlestore.ReplaceResult{}, f.err
	}
	res := titlestore.ReplaceResult{Deleted: int64(len(f.sets[corp])), Inserted: len(titles)}
	f.sets[corp] = append([]models.Title(nil), titles...)
	return res, nil
}

func (f *fakeTitles) names(corp int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, t := range f.sets[corp] {
		out = append(out, t.TitleName)
	}
	return out
}

type fakeMappings struct {
	byCorp map[int64]*models.SelectedTitle
	err    error
}

func (f *fakeMappings) GetByCorporation(_ context.Context, corp int64) (*models.SelectedTitle, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byCorp[corp], nil
}

type fakeMembers struct {
	mu     sync.Mutex
	groups map[primitive.ObjectID]map[primitive.ObjectID]struct{}
	addErr error
}

func newFakeMembers() *fakeMembers {
	return &fakeMembers{groups: make(map[primitive.ObjectID]map[primitive.ObjectID]struct{})}
}

func (f *fakeMembers) set(group primitive.ObjectID, users ...primitive.ObjectID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := make(map[primitive.ObjectID]struct{})
	for _, u := range users {
		m[u] = struct{}{}
	}
	f.groups[group] = m
}

func (f *fakeMembers) MemberIDs(_ context.Context, group primitive.ObjectID) ([]primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []primitive.ObjectID
	for u := range f.groups[group] {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeMembers) AddUsers(_ context.Context, group primitive.ObjectID, users []primitive.ObjectID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return 0, f.addErr
	}
	if f.groups[group] == nil {
		f.groups[group] = make(map[primitive.ObjectID]struct{})
	}
	n := 0
	for _, u := range users {
		if _, ok := f.groups[group][u]; !ok {
			f.groups[group][u] = struct{}{}
			n++
		}
	}
	return n, nil
}

func (f *fakeMembers) RemoveUsers(_ context.Context, group primitive.ObjectID, users []primitive.ObjectID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range users {
		if _, ok := f.groups[group][u]; ok {
			delete(f.groups[group], u)
			n++
		}
	}
	return n, nil
}

func (f *fakeMembers) members(group primitive.ObjectID) []string {
	ids, _ := f.MemberIDs(context.Background(), group)
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	sort.Strings(out)
	return out
}

type fakeRuns struct {
	mu   sync.Mutex
	runs []models.SyncRun
}

func (f *fakeRuns) Insert(_ context.Context, run models.SyncRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, run)
	return nil
}

type fakeAudit struct {
	mu          sync.Mutex
	invalidated []primitive.ObjectID
	memberships int
	replaced    int
}

func (f *fakeAudit) MembershipChanged(context.Context, int64, primitive.ObjectID, int64, []primitive.ObjectID, []primitive.ObjectID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memberships++
}

func (f *fakeAudit) CredentialInvalidated(_ context.Context, _ int64, userID primitive.ObjectID, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, userID)
}

func (f *fakeAudit) TitlesReplaced(context.Context, int64, primitive.ObjectID, int64, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaced++
}

// harness wires an Engine to fresh fakes.
type harness struct {
	tokens   *fakeTokens
	remote   *fakeRemote
	identity *fakeIdentity
	owners   *fakeOwners
	titles   *fakeTitles
	mappings *fakeMappings
	members  *fakeMembers
	runs     *fakeRuns
	audit    *fakeAudit
	now      time.Time
}

func newHarness(owners ...primitive.ObjectID) *harness {
	return &harness{
		tokens:   &fakeTokens{missing: map[primitive.ObjectID]bool{}, failWith: map[primitive.ObjectID]error{}},
		remote:   newFakeRemote(),
		identity: &fakeIdentity{corps: map[primitive.ObjectID]int64{}, errs: map[primitive.ObjectID]error{}, owners: map[int64]primitive.ObjectID{}},
		owners:   newFakeOwners(owners...),
		titles:   newFakeTitles(),
		mappings: &fakeMappings{byCorp: map[int64]*models.SelectedTitle{}},
		members:  newFakeMembers(),
		runs:     &fakeRuns{},
		audit:    &fakeAudit{},
		now:      time.Date(2025, 11, 28, 12, 0, 0, 0, time.UTC),
	}
}

func (h *harness) deps(remote RemoteClient) Deps {
	if remote == nil {
		remote = h.remote
	}
	return Deps{
		Remote:   remote,
		Tokens:   h.tokens,
		Identity: h.identity,
		Owners:   h.owners,
		Titles:   h.titles,
		Mappings: h.mappings,
		Members:  h.members,
	}
}

func (h *harness) engine(opts ...Option) *Engine {
	return h.engineWith(nil, opts...)
}

func (h *harness) engineWith(remote RemoteClient, opts ...Option) *Engine {
	base := []Option{
		WithRunStore(h.runs),
		WithAuditor(h.audit),
		WithClock(func() time.Time { return h.now }),
	}
	return New(h.deps(remote), nil, append(base, opts...)...)
}

func ids(n int) []primitive.ObjectID {
	out := make([]primitive.ObjectID, n)
	for i := range out {
		out[i] = primitive.NewObjectID()
	}
	return out
}

// hangingTitles and hangingMembers block until their context ends.
type hangingTitles struct{}

func (hangingTitles) ReplaceForCorporation(ctx context.Context, _ int64, _ []models.Title) (titlestore.ReplaceResult, error) {
	<-ctx.Done()
	return titlestore.ReplaceResult{}, ctx.Err()
}

type hangingMembers struct{}

func (hangingMembers) MemberIDs(ctx context.Context, _ primitive.ObjectID) ([]primitive.ObjectID, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (hangingMembers) AddUsers(ctx context.Context, _ primitive.ObjectID, _ []primitive.ObjectID) (int, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func (hangingMembers) RemoveUsers(ctx context.Context, _ primitive.ObjectID, _ []primitive.ObjectID) (int, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

// etagServer serves both title endpoints under ETag "v1" and answers 304
// when a request carries it. It records the If-None-Match of every request.
type etagServer struct {
	*httptest.Server
	mu   sync.Mutex
	seen []string
}

func newETagServer(t *testing.T, titlesBody, membersBody string) *etagServer {
	t.Helper()
	s := &etagServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cond := r.Header.Get("If-None-Match")
		s.mu.Lock()
		s.seen = append(s.seen, cond)
		s.mu.Unlock()
		if cond == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		if strings.HasSuffix(r.URL.Path, "/members/titles/") {
			_, _ = w.Write([]byte(membersBody))
			return
		}
		_, _ = w.Write([]byte(titlesBody))
	}))
	t.Cleanup(s.Close)
	return s
}

// conditions returns the If-None-Match values sent so far, in order.
func (s *etagServer) conditions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.seen...)
}

func (s *etagServer) client() *esi.Client {
	return esi.New(esi.Config{BaseURL: s.URL, Timeout: 5 * time.Second}, nil)
}
