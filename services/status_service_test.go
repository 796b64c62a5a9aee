package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/junho-l/pickup-system/models"
	"github.com/junho-l/pickup-system/realtime"
)

type statusFixture struct {
	store     *roomStore
	partRepo  *fakeParticipantRepo
	notifRepo *fakeNotificationRepo
	notifier  *fakeNotifier
	status    *StatusService
}

func newStatusFixture() *statusFixture {
	store := newRoomStore()
	roomRepo := &fakeRoomRepo{store: store}
	partRepo := &fakeParticipantRepo{store: store}
	notifRepo := newFakeNotificationRepo()
	notifier := &fakeNotifier{}

	return &statusFixture{
		store:     store,
		partRepo:  partRepo,
		notifRepo: notifRepo,
		notifier:  notifier,
		status: NewStatusService(
			roomRepo,
			partRepo,
			NewNotificationService(notifRepo, notifier),
			notifier,
			discardLogger(),
		),
	}
}

func TestUpdateRoomStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("host closes recruiting room", func(t *testing.T) {
		f := newStatusFixture()
		room := f.store.addRoom(recruitingRoom(1, 4))

		if err := f.status.UpdateRoomStatus(ctx, room.ID, 1, models.RoomStatusClosed); err != nil {
			t.Fatalf("UpdateRoomStatus: %v", err)
		}
		if got := f.store.rooms[room.ID].Status; got != models.RoomStatusClosed {
			t.Errorf("status = %q, want closed", got)
		}
		if len(f.notifier.roomEvents) != 1 || f.notifier.roomEvents[0] != realtime.EventUpdate {
			t.Errorf("room events = %v, want single UPDATE", f.notifier.roomEvents)
		}
	})

	t.Run("non-host is rejected", func(t *testing.T) {
		f := newStatusFixture()
		room := f.store.addRoom(recruitingRoom(1, 4))

		err := f.status.UpdateRoomStatus(ctx, room.ID, 2, models.RoomStatusClosed)
		if !errors.Is(err, ErrNotRoomHost) {
			t.Fatalf("UpdateRoomStatus by non-host: got %v, want ErrNotRoomHost", err)
		}
		if got := f.store.rooms[room.ID].Status; got != models.RoomStatusRecruiting {
			t.Errorf("status = %q, want untouched recruiting", got)
		}
	})

	t.Run("host cannot complete room directly", func(t *testing.T) {
		f := newStatusFixture()
		room := f.store.addRoom(recruitingRoom(1, 4))

		err := f.status.UpdateRoomStatus(ctx, room.ID, 1, models.RoomStatusCompleted)
		if !errors.Is(err, ErrInvalidStatusTransition) {
			t.Fatalf("recruiting->completed: got %v, want ErrInvalidStatusTransition", err)
		}
	})

	t.Run("terminal statuses cannot be left", func(t *testing.T) {
		for _, terminal := range []models.RoomStatus{models.RoomStatusCompleted, models.RoomStatusCancelled} {
			f := newStatusFixture()
			src := recruitingRoom(1, 4)
			src.Status = terminal
			room := f.store.addRoom(src)

			err := f.status.UpdateRoomStatus(ctx, room.ID, 1, models.RoomStatusRecruiting)
			if !errors.Is(err, ErrInvalidStatusTransition) {
				t.Errorf("%s->recruiting: got %v, want ErrInvalidStatusTransition", terminal, err)
			}
		}
	})

	t.Run("unknown status value", func(t *testing.T) {
		f := newStatusFixture()
		room := f.store.addRoom(recruitingRoom(1, 4))

		err := f.status.UpdateRoomStatus(ctx, room.ID, 1, models.RoomStatus("archived"))
		if !errors.Is(err, ErrInvalidRoomStatus) {
			t.Fatalf("unknown status: got %v, want ErrInvalidRoomStatus", err)
		}
	})

	t.Run("cancellation notifies approved participants", func(t *testing.T) {
		f := newStatusFixture()
		room := f.store.addRoom(recruitingRoom(1, 4))
		f.store.addParticipant(models.RoomParticipant{RoomID: room.ID, UserID: 2, Status: models.ParticipantStatusApproved})
		f.store.addParticipant(models.RoomParticipant{RoomID: room.ID, UserID: 3, Status: models.ParticipantStatusApproved})
		f.store.addParticipant(models.RoomParticipant{RoomID: room.ID, UserID: 4, Status: models.ParticipantStatusRejected})

		if err := f.status.UpdateRoomStatus(ctx, room.ID, 1, models.RoomStatusCancelled); err != nil {
			t.Fatalf("UpdateRoomStatus: %v", err)
		}

		cancelled := f.notifRepo.byType(models.NotificationRoomCancelled)
		if len(cancelled) != 2 {
			t.Fatalf("room_cancelled notifications = %d, want 2 (approved only)", len(cancelled))
		}
		for _, n := range cancelled {
			if n.UserID != 2 && n.UserID != 3 {
				t.Errorf("notification went to user %d, want 2 or 3", n.UserID)
			}
		}
	})
}

func TestDeleteRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes cancelled room", func(t *testing.T) {
		f := newStatusFixture()
		src := recruitingRoom(1, 4)
		src.Status = models.RoomStatusCancelled
		room := f.store.addRoom(src)

		if err := f.status.DeleteRoom(ctx, room.ID, 1); err != nil {
			t.Fatalf("DeleteRoom: %v", err)
		}
		if _, ok := f.store.rooms[room.ID]; ok {
			t.Error("room still exists after delete")
		}
	})

	t.Run("refuses non-cancelled room", func(t *testing.T) {
		f := newStatusFixture()
		room := f.store.addRoom(recruitingRoom(1, 4))

		if err := f.status.DeleteRoom(ctx, room.ID, 1); !errors.Is(err, ErrRoomNotCancelled) {
			t.Fatalf("DeleteRoom of recruiting room: got %v, want ErrRoomNotCancelled", err)
		}
	})

	t.Run("refuses non-host", func(t *testing.T) {
		f := newStatusFixture()
		src := recruitingRoom(1, 4)
		src.Status = models.RoomStatusCancelled
		room := f.store.addRoom(src)

		if err := f.status.DeleteRoom(ctx, room.ID, 2); !errors.Is(err, ErrNotRoomHost) {
			t.Fatalf("DeleteRoom by non-host: got %v, want ErrNotRoomHost", err)
		}
	})
}

func TestCompleteExpiredRooms(t *testing.T) {
	ctx := context.Background()
	f := newStatusFixture()

	expiredRecruiting := recruitingRoom(1, 4)
	expiredRecruiting.PlayDate = time.Now().Add(-2 * time.Hour)
	recruiting := f.store.addRoom(expiredRecruiting)

	expiredClosed := recruitingRoom(1, 4)
	expiredClosed.Status = models.RoomStatusClosed
	expiredClosed.PlayDate = time.Now().Add(-2 * time.Hour)
	closed := f.store.addRoom(expiredClosed)

	upcoming := f.store.addRoom(recruitingRoom(1, 4))

	cancelledExpired := recruitingRoom(1, 4)
	cancelledExpired.Status = models.RoomStatusCancelled
	cancelledExpired.PlayDate = time.Now().Add(-2 * time.Hour)
	cancelled := f.store.addRoom(cancelledExpired)

	f.store.addParticipant(models.RoomParticipant{RoomID: closed.ID, UserID: 5, Status: models.ParticipantStatusApproved})

	if err := f.status.CompleteExpiredRooms(ctx); err != nil {
		t.Fatalf("CompleteExpiredRooms: %v", err)
	}

	if got := f.store.rooms[recruiting.ID].Status; got != models.RoomStatusCompleted {
		t.Errorf("expired recruiting room status = %q, want completed", got)
	}
	if got := f.store.rooms[closed.ID].Status; got != models.RoomStatusCompleted {
		t.Errorf("expired closed room status = %q, want completed", got)
	}
	if got := f.store.rooms[upcoming.ID].Status; got != models.RoomStatusRecruiting {
		t.Errorf("upcoming room status = %q, want untouched recruiting", got)
	}
	if got := f.store.rooms[cancelled.ID].Status; got != models.RoomStatusCancelled {
		t.Errorf("cancelled room status = %q, want untouched cancelled", got)
	}

	completed := f.notifRepo.byType(models.NotificationRoomCompleted)
	if len(completed) != 1 || completed[0].UserID != 5 {
		t.Errorf("room_completed notifications = %v, want one for user 5", completed)
	}
}
