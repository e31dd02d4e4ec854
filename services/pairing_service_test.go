package services

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/swiss-tournament/brackets"
	"github.com/Dosada05/swiss-tournament/models"
)

type harness struct {
	store       *fakeDB
	mock        sqlmock.Sqlmock
	notifier    *fakeNotifier
	uploader    *fakeUploader
	pairing     PairingService
	tournaments TournamentService
	matches     MatchService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conn, mock := newTxDB(t)
	store := newFakeDB()
	locks := NewTournamentLocks()
	notifier := &fakeNotifier{}
	uploader := newFakeUploader()
	logger := discardLogger()

	engine := brackets.NewSwissPairer(
		brackets.WithRand(rand.New(rand.NewSource(7))),
		brackets.WithLogger(logger),
	)
	archiver := NewArchiveService(fakeTournamentRepo{store}, fakeStandingRepo{store}, uploader, logger)

	return &harness{
		store:    store,
		mock:     mock,
		notifier: notifier,
		uploader: uploader,
		pairing: NewPairingService(conn, engine,
			fakeTournamentRepo{store}, fakeStandingRepo{store}, fakeMatchRepo{store},
			fakeByeRepo{store}, fakePairingRepo{store}, locks, notifier, logger),
		tournaments: NewTournamentService(conn,
			fakeTournamentRepo{store}, fakePlayerRepo{store}, fakeStandingRepo{store},
			fakePairingRepo{store}, archiver, uploader, locks, notifier, logger),
		matches: NewMatchService(conn,
			fakeTournamentRepo{store}, fakeMatchRepo{store}, fakeByeRepo{store},
			fakePairingRepo{store}, locks, notifier, logger),
	}
}

func (h *harness) pair(t *testing.T, tid int) *models.PairingResult {
	t.Helper()
	h.mock.ExpectBegin()
	h.mock.ExpectCommit()
	res, err := h.pairing.PairNextRound(context.Background(), tid)
	require.NoError(t, err)
	return res
}

func (h *harness) reportAll(t *testing.T, tid int, res *models.PairingResult) {
	t.Helper()
	for _, p := range res.Pairs {
		h.mock.ExpectBegin()
		h.mock.ExpectCommit()
		_, err := h.matches.ReportMatch(context.Background(), tid, ReportMatchInput{WinnerID: p.Player1ID, LoserID: p.Player2ID})
		require.NoError(t, err)
	}
}

func TestPairingServiceFullTournament(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ids := h.store.addPlayers(t, "Ann", "Bob", "Cid", "Dee", "Eve")
	tid := h.store.addTournament(t, 8, ids...)

	byes := map[int]bool{}
	for round := 1; round <= 3; round++ {
		res := h.pair(t, tid)
		assert.Equal(t, round, res.Round)
		assert.Len(t, res.Pairs, 2)
		require.NotNil(t, res.Bye)
		assert.False(t, byes[res.Bye.ID], "player %d got a second bye", res.Bye.ID)
		byes[res.Bye.ID] = true

		if round == 1 {
			tm, err := h.tournaments.GetByID(ctx, tid)
			require.NoError(t, err)
			assert.Equal(t, models.StatusActive, tm.Status)
			assert.Equal(t, 3, tm.RoundsRequired)

			_, err = h.pairing.PairNextRound(ctx, tid)
			assert.ErrorIs(t, err, ErrRoundInProgress)
		}
		h.reportAll(t, tid, res)

		stored, err := h.pairing.GetRound(ctx, tid, round)
		require.NoError(t, err)
		assert.Equal(t, res.Bye, stored.Bye)
		for _, p := range stored.Pairs {
			assert.NotNil(t, p.MatchID)
		}
	}

	_, err := h.pairing.PairNextRound(ctx, tid)
	assert.ErrorIs(t, err, ErrAllRoundsPaired)

	h.mock.ExpectBegin()
	h.mock.ExpectCommit()
	done, err := h.tournaments.Complete(ctx, tid)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Tournament.Status)
	require.Len(t, done.Standings, 5)
	if done.Winner != nil {
		require.NotNil(t, done.Tournament.WinnerPlayerID)
		assert.Equal(t, done.Winner.Player.ID, *done.Tournament.WinnerPlayerID)
	} else {
		assert.Nil(t, done.Tournament.WinnerPlayerID)
	}
	require.NotNil(t, done.Tournament.ArchiveURL)
	assert.Len(t, h.uploader.objects, 1)

	msgs := h.notifier.all()
	require.Len(t, msgs, 3+6+1)
	first := msgs[0].message.(brackets.WebSocketMessage)
	assert.Equal(t, brackets.MessageRoundPaired, first.Type)
	assert.Equal(t, brackets.RoomForTournament(tid), msgs[0].room)
	last := msgs[len(msgs)-1].message.(brackets.WebSocketMessage)
	assert.Equal(t, brackets.MessageTournamentCompleted, last.Type)
}

func TestPairingServiceEvenFieldHasNoBye(t *testing.T) {
	h := newHarness(t)
	ids := h.store.addPlayers(t, "A", "B", "C", "D")
	tid := h.store.addTournament(t, 4, ids...)

	res := h.pair(t, tid)
	assert.Nil(t, res.Bye)
	assert.Len(t, res.Pairs, 2)
	assert.Empty(t, h.store.byes)
}

func TestPairingServiceInsufficientPlayers(t *testing.T) {
	h := newHarness(t)
	ids := h.store.addPlayers(t, "Solo")
	tid := h.store.addTournament(t, 4, ids...)

	_, err := h.pairing.PairNextRound(context.Background(), tid)
	assert.ErrorIs(t, err, brackets.ErrInsufficientPlayers)

	empty := h.store.addTournament(t, 4)
	_, err = h.pairing.PairNextRound(context.Background(), empty)
	assert.ErrorIs(t, err, brackets.ErrInsufficientPlayers)
}

func TestPairingServiceRejectsClosedTournament(t *testing.T) {
	h := newHarness(t)
	ids := h.store.addPlayers(t, "A", "B")
	tid := h.store.addTournament(t, 2, ids...)
	h.store.tournaments[tid].Status = models.StatusCanceled

	_, err := h.pairing.PairNextRound(context.Background(), tid)
	assert.ErrorIs(t, err, ErrTournamentNotActive)

	_, err = h.pairing.PairNextRound(context.Background(), 999)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestPairingServiceSnapshotFailure(t *testing.T) {
	h := newHarness(t)
	ids := h.store.addPlayers(t, "A", "B")
	tid := h.store.addTournament(t, 2, ids...)
	h.store.standingsErr = errBoom

	_, err := h.pairing.PairNextRound(context.Background(), tid)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 0, h.store.tournaments[tid].RoundsPaired)
}

func TestPairingServiceSerializesSameTournament(t *testing.T) {
	h := newHarness(t)
	ids := h.store.addPlayers(t, "A", "B", "C", "D")
	tid := h.store.addTournament(t, 4, ids...)

	h.mock.ExpectBegin()
	h.mock.ExpectCommit()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.pairing.PairNextRound(context.Background(), tid)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrRoundInProgress)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, h.store.tournaments[tid].RoundsPaired)
}

func TestGetRoundBounds(t *testing.T) {
	h := newHarness(t)
	ids := h.store.addPlayers(t, "A", "B")
	tid := h.store.addTournament(t, 2, ids...)

	_, err := h.pairing.GetRound(context.Background(), tid, 1)
	assert.ErrorIs(t, err, ErrRoundNotFound)

	h.pair(t, tid)
	res, err := h.pairing.GetRound(context.Background(), tid, 1)
	require.NoError(t, err)
	assert.Len(t, res.Pairs, 1)
	assert.Nil(t, res.Bye)
}

func TestTournamentLocks(t *testing.T) {
	locks := NewTournamentLocks()

	var mu sync.Mutex
	inside := map[int]int{}
	maxInside := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(tid int) {
			defer wg.Done()
			unlock := locks.Lock(tid)
			mu.Lock()
			inside[tid]++
			if inside[tid] > maxInside {
				maxInside = inside[tid]
			}
			mu.Unlock()

			mu.Lock()
			inside[tid]--
			mu.Unlock()
			unlock()
		}(i % 3)
	}
	wg.Wait()

	assert.Equal(t, 1, maxInside)
	assert.Equal(t, 0, locks.size())
}
