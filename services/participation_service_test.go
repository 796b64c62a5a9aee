package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/junho-l/pickup-system/models"
	"github.com/junho-l/pickup-system/realtime"
)

type participationFixture struct {
	store         *roomStore
	roomRepo      *fakeRoomRepo
	partRepo      *fakeParticipantRepo
	userRepo      *fakeUserRepo
	notifRepo     *fakeNotificationRepo
	notifier      *fakeNotifier
	participation *ParticipationService
}

func newParticipationFixture(users ...models.User) *participationFixture {
	store := newRoomStore()
	roomRepo := &fakeRoomRepo{store: store}
	partRepo := &fakeParticipantRepo{store: store}
	userRepo := newFakeUserRepo(users...)
	notifRepo := newFakeNotificationRepo()
	notifier := &fakeNotifier{}

	return &participationFixture{
		store:     store,
		roomRepo:  roomRepo,
		partRepo:  partRepo,
		userRepo:  userRepo,
		notifRepo: notifRepo,
		notifier:  notifier,
		participation: NewParticipationService(
			&fakeTxRunner{store: store},
			roomRepo,
			partRepo,
			userRepo,
			NewNotificationService(notifRepo, notifier),
			notifier,
			discardLogger(),
		),
	}
}

func testUsers(n int) []models.User {
	users := make([]models.User, 0, n)
	for i := 1; i <= n; i++ {
		users = append(users, models.User{ID: i, Nickname: string(rune('a' + i - 1))})
	}
	return users
}

func recruitingRoom(hostID, maxParticipants int) models.Room {
	return models.Room{
		HostID:              hostID,
		SportID:             1,
		Title:               "Evening futsal",
		LocationName:        "Gym A",
		PlayDate:            time.Now().Add(24 * time.Hour),
		MaxParticipants:     maxParticipants,
		CurrentParticipants: 1,
		Status:              models.RoomStatusRecruiting,
	}
}

func TestJoinRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("joins and increments counter", func(t *testing.T) {
		f := newParticipationFixture(testUsers(2)...)
		room := f.store.addRoom(recruitingRoom(1, 4))

		participant, err := f.participation.JoinRoom(ctx, room.ID, 2)
		if err != nil {
			t.Fatalf("JoinRoom: %v", err)
		}
		if participant.Status != models.ParticipantStatusApproved {
			t.Errorf("participant status = %q, want approved", participant.Status)
		}
		if got := f.store.rooms[room.ID].CurrentParticipants; got != 2 {
			t.Errorf("current_participants = %d, want 2", got)
		}
		if len(f.notifier.participantEvents) != 1 || f.notifier.participantEvents[0] != realtime.EventInsert {
			t.Errorf("participant events = %v, want single INSERT", f.notifier.participantEvents)
		}
		if got := f.notifRepo.byType(models.NotificationJoinRequest); len(got) != 1 || got[0].UserID != 1 {
			t.Errorf("join notification for host = %v, want one for user 1", got)
		}
	})

	t.Run("host cannot join own room", func(t *testing.T) {
		f := newParticipationFixture(testUsers(1)...)
		room := f.store.addRoom(recruitingRoom(1, 4))

		if _, err := f.participation.JoinRoom(ctx, room.ID, 1); !errors.Is(err, ErrAlreadyHost) {
			t.Fatalf("JoinRoom by host: got %v, want ErrAlreadyHost", err)
		}
		if got := f.store.rooms[room.ID].CurrentParticipants; got != 1 {
			t.Errorf("current_participants = %d, want untouched 1", got)
		}
	})

	t.Run("rejects non-recruiting room", func(t *testing.T) {
		f := newParticipationFixture(testUsers(2)...)
		closed := recruitingRoom(1, 4)
		closed.Status = models.RoomStatusClosed
		room := f.store.addRoom(closed)

		if _, err := f.participation.JoinRoom(ctx, room.ID, 2); !errors.Is(err, ErrRoomNotRecruiting) {
			t.Fatalf("JoinRoom into closed room: got %v, want ErrRoomNotRecruiting", err)
		}
	})

	t.Run("rejects full room", func(t *testing.T) {
		f := newParticipationFixture(testUsers(2)...)
		full := recruitingRoom(1, 2)
		full.CurrentParticipants = 2
		room := f.store.addRoom(full)

		if _, err := f.participation.JoinRoom(ctx, room.ID, 2); !errors.Is(err, ErrRoomFull) {
			t.Fatalf("JoinRoom into full room: got %v, want ErrRoomFull", err)
		}
	})

	t.Run("rejects double join", func(t *testing.T) {
		f := newParticipationFixture(testUsers(2)...)
		room := f.store.addRoom(recruitingRoom(1, 4))

		if _, err := f.participation.JoinRoom(ctx, room.ID, 2); err != nil {
			t.Fatalf("first JoinRoom: %v", err)
		}
		if _, err := f.participation.JoinRoom(ctx, room.ID, 2); !errors.Is(err, ErrAlreadyJoined) {
			t.Fatalf("second JoinRoom: got %v, want ErrAlreadyJoined", err)
		}
		if got := f.store.rooms[room.ID].CurrentParticipants; got != 2 {
			t.Errorf("current_participants = %d, want 2", got)
		}
	})

	t.Run("unknown user and unknown room", func(t *testing.T) {
		f := newParticipationFixture(testUsers(2)...)
		room := f.store.addRoom(recruitingRoom(1, 4))

		if _, err := f.participation.JoinRoom(ctx, room.ID, 99); !errors.Is(err, ErrUserNotFound) {
			t.Errorf("JoinRoom by unknown user: got %v, want ErrUserNotFound", err)
		}
		if _, err := f.participation.JoinRoom(ctx, 404, 2); !errors.Is(err, ErrRoomNotFound) {
			t.Errorf("JoinRoom into unknown room: got %v, want ErrRoomNotFound", err)
		}
	})

	t.Run("last slot notifies host about full room", func(t *testing.T) {
		f := newParticipationFixture(testUsers(2)...)
		almostFull := recruitingRoom(1, 3)
		almostFull.CurrentParticipants = 2
		room := f.store.addRoom(almostFull)

		if _, err := f.participation.JoinRoom(ctx, room.ID, 2); err != nil {
			t.Fatalf("JoinRoom: %v", err)
		}
		if got := f.notifRepo.byType(models.NotificationRoomFull); len(got) != 1 {
			t.Errorf("room_full notifications = %d, want 1", len(got))
		}
	})
}

// Несколько одновременных заявок на ограниченное число мест: пройти должны
// ровно столько, сколько мест осталось, счётчик не должен превысить предел.
func TestJoinRoomConcurrentAdmission(t *testing.T) {
	ctx := context.Background()
	const seats = 3 // max 4 минус хост
	const contenders = 8

	users := testUsers(contenders + 1)
	f := newParticipationFixture(users...)
	room := f.store.addRoom(recruitingRoom(1, 4))

	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = f.participation.JoinRoom(ctx, room.ID, idx+2)
		}(i)
	}
	wg.Wait()

	joined, rejected := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			joined++
		case errors.Is(err, ErrRoomFull):
			rejected++
		default:
			t.Fatalf("unexpected join error: %v", err)
		}
	}

	if joined != seats {
		t.Errorf("joined = %d, want %d", joined, seats)
	}
	if rejected != contenders-seats {
		t.Errorf("rejected = %d, want %d", rejected, contenders-seats)
	}
	if got := f.store.rooms[room.ID].CurrentParticipants; got != 4 {
		t.Errorf("current_participants = %d, want exactly max 4", got)
	}
	if got := len(f.store.participants); got != seats {
		t.Errorf("participant rows = %d, want %d", got, seats)
	}
}

func TestGetMembership(t *testing.T) {
	ctx := context.Background()
	f := newParticipationFixture(testUsers(2)...)
	room := f.store.addRoom(recruitingRoom(1, 4))

	if _, err := f.participation.GetMembership(ctx, room.ID, 2); !errors.Is(err, ErrParticipantNotFound) {
		t.Fatalf("GetMembership before join: got %v, want ErrParticipantNotFound", err)
	}

	if _, err := f.participation.JoinRoom(ctx, room.ID, 2); err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}

	participant, err := f.participation.GetMembership(ctx, room.ID, 2)
	if err != nil {
		t.Fatalf("GetMembership: %v", err)
	}
	if participant.Status != models.ParticipantStatusApproved || participant.RoomID != room.ID {
		t.Errorf("participant = %+v, want approved row for room %d", participant, room.ID)
	}
}

func TestLeaveRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("leaves and decrements counter", func(t *testing.T) {
		f := newParticipationFixture(testUsers(2)...)
		room := f.store.addRoom(recruitingRoom(1, 4))
		if _, err := f.participation.JoinRoom(ctx, room.ID, 2); err != nil {
			t.Fatalf("JoinRoom: %v", err)
		}

		if err := f.participation.LeaveRoom(ctx, room.ID, 2); err != nil {
			t.Fatalf("LeaveRoom: %v", err)
		}
		if got := f.store.rooms[room.ID].CurrentParticipants; got != 1 {
			t.Errorf("current_participants = %d, want 1", got)
		}
		if got := len(f.store.participants); got != 0 {
			t.Errorf("participant rows = %d, want 0", got)
		}
	})

	t.Run("leave without membership fails and keeps counter", func(t *testing.T) {
		f := newParticipationFixture(testUsers(2)...)
		room := f.store.addRoom(recruitingRoom(1, 4))

		if err := f.participation.LeaveRoom(ctx, room.ID, 2); !errors.Is(err, ErrParticipantNotFound) {
			t.Fatalf("LeaveRoom without membership: got %v, want ErrParticipantNotFound", err)
		}
		if got := f.store.rooms[room.ID].CurrentParticipants; got != 1 {
			t.Errorf("current_participants = %d, want untouched 1", got)
		}
	})

	t.Run("double leave is rejected, counter stays above zero", func(t *testing.T) {
		f := newParticipationFixture(testUsers(2)...)
		room := f.store.addRoom(recruitingRoom(1, 4))
		if _, err := f.participation.JoinRoom(ctx, room.ID, 2); err != nil {
			t.Fatalf("JoinRoom: %v", err)
		}
		if err := f.participation.LeaveRoom(ctx, room.ID, 2); err != nil {
			t.Fatalf("first LeaveRoom: %v", err)
		}

		if err := f.participation.LeaveRoom(ctx, room.ID, 2); !errors.Is(err, ErrParticipantNotFound) {
			t.Fatalf("second LeaveRoom: got %v, want ErrParticipantNotFound", err)
		}
		if got := f.store.rooms[room.ID].CurrentParticipants; got != 1 {
			t.Errorf("current_participants = %d, want 1", got)
		}
	})

	t.Run("leave frees a seat for the next join", func(t *testing.T) {
		f := newParticipationFixture(testUsers(3)...)
		room := f.store.addRoom(recruitingRoom(1, 2))
		if _, err := f.participation.JoinRoom(ctx, room.ID, 2); err != nil {
			t.Fatalf("JoinRoom: %v", err)
		}
		if _, err := f.participation.JoinRoom(ctx, room.ID, 3); !errors.Is(err, ErrRoomFull) {
			t.Fatalf("JoinRoom into full room: got %v, want ErrRoomFull", err)
		}

		if err := f.participation.LeaveRoom(ctx, room.ID, 2); err != nil {
			t.Fatalf("LeaveRoom: %v", err)
		}
		if _, err := f.participation.JoinRoom(ctx, room.ID, 3); err != nil {
			t.Fatalf("JoinRoom after seat freed: %v", err)
		}
	})
}
