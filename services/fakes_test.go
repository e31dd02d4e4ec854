package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/swiss-tournament/models"
	"github.com/Dosada05/swiss-tournament/repositories"
	"github.com/Dosada05/swiss-tournament/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTxDB returns a sqlmock-backed *sql.DB used only for BEGIN/COMMIT.
func newTxDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		conn.Close()
	})
	return conn, mock
}

type fakePairing struct {
	tournamentID int
	round        int
	pair         models.Pair
}

// fakeDB is an in-memory stand-in for the Postgres schema. It ignores the
// executor argument, so writes are not rolled back with the transaction.
type fakeDB struct {
	mu          sync.Mutex
	nextID      int
	tournaments map[int]*models.Tournament
	players     map[int]*models.Player
	enrolled    map[int][]int
	matches     []*models.Match
	byes        []*models.Bye
	pairings    []*fakePairing
	organizers  map[string]*models.Organizer

	standingsErr error
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		tournaments: make(map[int]*models.Tournament),
		players:     make(map[int]*models.Player),
		enrolled:    make(map[int][]int),
		organizers:  make(map[string]*models.Organizer),
	}
}

func (f *fakeDB) id() int {
	f.nextID++
	return f.nextID
}

func (f *fakeDB) addPlayers(t *testing.T, names ...string) []int {
	t.Helper()
	ids := make([]int, 0, len(names))
	for _, n := range names {
		p := &models.Player{Name: n}
		require.NoError(t, fakePlayerRepo{f}.Create(context.Background(), p))
		ids = append(ids, p.ID)
	}
	return ids
}

func (f *fakeDB) addTournament(t *testing.T, capacity int, playerIDs ...int) int {
	t.Helper()
	tm := &models.Tournament{Capacity: capacity}
	repo := fakeTournamentRepo{f}
	require.NoError(t, repo.Create(context.Background(), tm))
	for _, id := range playerIDs {
		require.NoError(t, repo.Enroll(context.Background(), nil, tm.ID, id))
	}
	return tm.ID
}

type fakePlayerRepo struct{ *fakeDB }

func (r fakePlayerRepo) Create(_ context.Context, p *models.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = r.id()
	p.CreatedAt = time.Now()
	cp := *p
	r.players[p.ID] = &cp
	return nil
}

func (r fakePlayerRepo) GetByID(_ context.Context, id int) (*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	cp := *p
	return &cp, nil
}

func (r fakePlayerRepo) List(_ context.Context, limit, offset int) ([]models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]models.Player, 0)
	for i := offset; i < len(ids) && len(out) < limit; i++ {
		out = append(out, *r.players[ids[i]])
	}
	return out, nil
}

func (r fakePlayerRepo) Count(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players), nil
}

func (r fakePlayerRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[id]; !ok {
		return repositories.ErrPlayerNotFound
	}
	for _, ids := range r.enrolled {
		for _, pid := range ids {
			if pid == id {
				return repositories.ErrPlayerInUse
			}
		}
	}
	delete(r.players, id)
	return nil
}

type fakeTournamentRepo struct{ *fakeDB }

func (r fakeTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.id()
	if t.Status == "" {
		t.Status = models.StatusRegistration
	}
	t.CreatedAt = time.Now()
	cp := *t
	r.tournaments[t.ID] = &cp
	return nil
}

func (r fakeTournamentRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	cp := *t
	return &cp, nil
}

func (r fakeTournamentRepo) List(_ context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Tournament, 0)
	for _, t := range r.tournaments {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r fakeTournamentRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (r fakeTournamentRepo) IncrementRoundsPaired(_ context.Context, _ repositories.SQLExecutor, id int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return 0, repositories.ErrTournamentNotFound
	}
	t.RoundsPaired++
	return t.RoundsPaired, nil
}

func (r fakeTournamentRepo) SetWinner(_ context.Context, _ repositories.SQLExecutor, id int, winner *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.WinnerPlayerID = winner
	return nil
}

func (r fakeTournamentRepo) SetArchiveKey(_ context.Context, id int, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.ArchiveKey = &key
	return nil
}

func (r fakeTournamentRepo) ListUnarchivedCompleted(_ context.Context, limit int) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Tournament
	for _, t := range r.tournaments {
		if t.Status == models.StatusCompleted && t.ArchiveKey == nil {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r fakeTournamentRepo) Enroll(_ context.Context, _ repositories.SQLExecutor, tid, pid int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[pid]; !ok {
		return repositories.ErrEnrollmentInvalid
	}
	for _, id := range r.enrolled[tid] {
		if id == pid {
			return repositories.ErrAlreadyEnrolled
		}
	}
	r.enrolled[tid] = append(r.enrolled[tid], pid)
	return nil
}

func (r fakeTournamentRepo) Unenroll(_ context.Context, _ repositories.SQLExecutor, tid, pid int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.enrolled[tid]
	for i, id := range ids {
		if id == pid {
			r.enrolled[tid] = append(ids[:i:i], ids[i+1:]...)
			return nil
		}
	}
	return repositories.ErrEnrollmentNotFound
}

func (r fakeTournamentRepo) IsEnrolled(_ context.Context, _ repositories.SQLExecutor, tid, pid int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.enrolled[tid] {
		if id == pid {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeTournamentRepo) CountPlayers(_ context.Context, _ repositories.SQLExecutor, tid int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.enrolled[tid]), nil
}

func (r fakeTournamentRepo) ListPlayers(_ context.Context, tid int) ([]models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Player, 0, len(r.enrolled[tid]))
	for _, id := range r.enrolled[tid] {
		out = append(out, *r.players[id])
	}
	return out, nil
}

type fakeStandingRepo struct{ *fakeDB }

func (r fakeStandingRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tid int, withOMW bool) ([]models.StandingRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.standingsErr != nil {
		return nil, r.standingsErr
	}

	wins := map[int]int{}
	played := map[int]int{}
	opponents := map[int]map[int]bool{}
	for _, m := range r.matches {
		if m.TournamentID != tid {
			continue
		}
		wins[m.WinnerID]++
		played[m.WinnerID]++
		played[m.LoserID]++
		for _, pair := range [][2]int{{m.WinnerID, m.LoserID}, {m.LoserID, m.WinnerID}} {
			if opponents[pair[0]] == nil {
				opponents[pair[0]] = map[int]bool{}
			}
			opponents[pair[0]][pair[1]] = true
		}
	}

	rows := make([]models.StandingRow, 0)
	for _, id := range r.enrolled[tid] {
		row := models.StandingRow{
			TournamentID:  tid,
			PlayerID:      id,
			Name:          r.players[id].Name,
			Wins:          wins[id],
			MatchesPlayed: played[id],
		}
		if withOMW {
			omw := 0
			for opp := range opponents[id] {
				omw += wins[opp]
			}
			row.OMW = &omw
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Wins != rows[j].Wins {
			return rows[i].Wins > rows[j].Wins
		}
		if withOMW && rows[i].OMWValue() != rows[j].OMWValue() {
			return rows[i].OMWValue() > rows[j].OMWValue()
		}
		return rows[i].PlayerID < rows[j].PlayerID
	})
	return rows, nil
}

type fakeMatchRepo struct{ *fakeDB }

func (r fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.WinnerID == m.LoserID {
		return repositories.ErrMatchSelfPlay
	}
	m.ID = r.id()
	m.CreatedAt = time.Now()
	cp := *m
	r.matches = append(r.matches, &cp)
	return nil
}

func (r fakeMatchRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tid int) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Match, 0)
	for _, m := range r.matches {
		if m.TournamentID == tid {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r fakeMatchRepo) CountByTournament(ctx context.Context, exec repositories.SQLExecutor, tid int) (int, error) {
	list, err := r.ListByTournament(ctx, exec, tid)
	return len(list), err
}

type fakeByeRepo struct{ *fakeDB }

func (r fakeByeRepo) Create(_ context.Context, _ repositories.SQLExecutor, b *models.Bye) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byes {
		if existing.TournamentID == b.TournamentID && existing.PlayerID == b.PlayerID {
			return repositories.ErrByeAlreadyRecorded
		}
	}
	b.ID = r.id()
	cp := *b
	r.byes = append(r.byes, &cp)
	return nil
}

func (r fakeByeRepo) ListPlayerIDs(_ context.Context, _ repositories.SQLExecutor, tid int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int, 0)
	for _, b := range r.byes {
		if b.TournamentID == tid {
			ids = append(ids, b.PlayerID)
		}
	}
	return ids, nil
}

func (r fakeByeRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tid int) ([]*models.Bye, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Bye, 0)
	for _, b := range r.byes {
		if b.TournamentID == tid {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r fakeByeRepo) GetByRound(_ context.Context, _ repositories.SQLExecutor, tid, round int) (*models.PlayerRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.byes {
		if b.TournamentID == tid && b.Round == round {
			return &models.PlayerRef{ID: b.PlayerID, Name: r.players[b.PlayerID].Name}, nil
		}
	}
	return nil, nil
}

type fakePairingRepo struct{ *fakeDB }

func (r fakePairingRepo) CreateRound(_ context.Context, _ repositories.SQLExecutor, tid, round int, pairs []models.Pair) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pairs {
		r.pairings = append(r.pairings, &fakePairing{tournamentID: tid, round: round, pair: p})
	}
	return nil
}

func (r fakePairingRepo) ListByRound(_ context.Context, _ repositories.SQLExecutor, tid, round int) ([]models.Pair, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Pair, 0)
	for _, p := range r.pairings {
		if p.tournamentID == tid && p.round == round {
			out = append(out, p.pair)
		}
	}
	return out, nil
}

func (r fakePairingRepo) CountUnreported(_ context.Context, _ repositories.SQLExecutor, tid, round int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.pairings {
		if p.tournamentID == tid && p.round == round && p.pair.MatchID == nil {
			n++
		}
	}
	return n, nil
}

func (r fakePairingRepo) AttachMatch(_ context.Context, _ repositories.SQLExecutor, tid, round, a, b, matchID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pairings {
		if p.tournamentID != tid || p.round != round || p.pair.MatchID != nil {
			continue
		}
		if (p.pair.Player1ID == a && p.pair.Player2ID == b) || (p.pair.Player1ID == b && p.pair.Player2ID == a) {
			id := matchID
			p.pair.MatchID = &id
			return nil
		}
	}
	return repositories.ErrPairingNotFound
}

type fakeOrganizerRepo struct{ *fakeDB }

func (r fakeOrganizerRepo) Create(_ context.Context, o *models.Organizer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.organizers[o.Email]; ok {
		return repositories.ErrOrganizerEmailConflict
	}
	o.ID = r.id()
	cp := *o
	r.organizers[o.Email] = &cp
	return nil
}

func (r fakeOrganizerRepo) GetByID(_ context.Context, id int) (*models.Organizer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.organizers {
		if o.ID == id {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repositories.ErrOrganizerNotFound
}

func (r fakeOrganizerRepo) GetByEmail(_ context.Context, email string) (*models.Organizer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.organizers[email]
	if !ok {
		return nil, repositories.ErrOrganizerNotFound
	}
	cp := *o
	return &cp, nil
}

type recordedMessage struct {
	room    string
	message interface{}
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []recordedMessage
}

func (n *fakeNotifier) BroadcastToRoom(room string, message interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, recordedMessage{room: room, message: message})
}

func (n *fakeNotifier) all() []recordedMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]recordedMessage(nil), n.messages...)
}

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	failing error
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: make(map[string][]byte)}
}

func (u *fakeUploader) Upload(_ context.Context, key, _ string, reader io.Reader) (*storage.UploadResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.failing != nil {
		return nil, u.failing
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, err
	}
	u.objects[key] = buf.Bytes()
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

var errBoom = errors.New("boom")
